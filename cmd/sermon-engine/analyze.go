package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <sermon.md | directory>",
	Short: "Score sermon manuscripts on the nine radar categories",
	Long: `Analyze evaluates each manuscript on the nine radar categories, writes
the scores into the frontmatter's radar map, and regenerates the radar
section in the document body. Re-running replaces the previous radar;
it never duplicates the section.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, ids, err := buildPipeline(cmd, args[0])
		if err != nil {
			return err
		}
		summary := pipeline.AnalyzeAll(cmd.Context(), ids, os.Stdout)
		if summary.HasFailures() {
			return fmt.Errorf("%d documents failed", summary.Failed)
		}
		return nil
	},
}

func init() {
	addModelFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}
