package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sermon-engine/internal/provider"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available through the OpenRouter gateway",
	Long: `Models queries the OpenRouter gateway's catalog and prints each model's
identifier, context window, and per-token pricing. Discovery only; the
annotation pipeline takes models by identifier.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := buildRegistry()
		if err != nil {
			return err
		}
		client, err := registry.Get("openrouter")
		if err != nil {
			return err
		}
		gateway, ok := client.(*provider.OpenRouter)
		if !ok {
			return fmt.Errorf("openrouter adapter does not support discovery")
		}

		models, err := gateway.ListModels(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "id\tcontext\tprompt $/tok\tcompletion $/tok")
		for _, m := range models {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", m.ID, m.ContextLength, m.PromptPrice, m.CompletionPrice)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
