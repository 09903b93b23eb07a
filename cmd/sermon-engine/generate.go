package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <sermon.md | directory>",
	Short: "Generate frontmatter metadata for sermon manuscripts",
	Long: `Generate asks the configured model for catalog metadata (title, bolt,
themes, imagery) and merges it into each manuscript's frontmatter.
Hand-edited fields always win; generation only fills gaps. Documents
are rewritten in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, ids, err := buildPipeline(cmd, args[0])
		if err != nil {
			return err
		}
		summary := pipeline.GenerateAll(cmd.Context(), ids, os.Stdout)
		if summary.HasFailures() {
			return fmt.Errorf("%d documents failed", summary.Failed)
		}
		return nil
	},
}

func init() {
	addModelFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}
