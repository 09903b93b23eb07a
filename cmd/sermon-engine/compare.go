package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <sermon.md>",
	Short: "Evaluate one manuscript with several models side by side",
	Long: `Compare runs the radar evaluation with each of the given models and
prints the scores in one table. The manuscript is not modified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelsFlag, _ := cmd.Flags().GetString("models")
		var models []string
		for _, m := range strings.Split(modelsFlag, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		if len(models) < 2 {
			return fmt.Errorf("compare needs at least two models (--models a,b)")
		}

		pipeline, ids, err := buildPipeline(cmd, args[0])
		if err != nil {
			return err
		}
		if len(ids) != 1 {
			return fmt.Errorf("compare takes a single manuscript, not a directory")
		}
		return pipeline.Compare(cmd.Context(), ids[0], models, os.Stdout)
	},
}

func init() {
	compareCmd.Flags().String("provider", "", "model provider: anthropic, openai, or openrouter")
	compareCmd.Flags().String("models", "", "comma-separated model identifiers to compare")
	rootCmd.AddCommand(compareCmd)
}
