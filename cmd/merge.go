package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"tbl-merger/feature/merge"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mergeOutput string

// mergeCmd runs one merge pass.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Run one merge pass over the mods directory",
	Long: `Collects every file from the mods directory, merges each registered battle
table against its baseline and prints the resolved file map as JSON.

Examples:
  # Print the resolved file map
  tbl-merger merge

  # Save it to a file
  tbl-merger merge --output resolved.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report, files, err := a.service.RunPass(cmd.Context())
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(files.Snapshot(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if mergeOutput == "" {
			fmt.Println(string(data))
		} else {
			if err := os.WriteFile(mergeOutput, data, 0o644); err != nil {
				return fmt.Errorf("failed to save JSON file: %w", err)
			}
			a.logger.Info("Resolved file map saved", zap.String("file", mergeOutput))
		}

		fmt.Fprintln(os.Stderr, "\n=== Merge Pass ===")
		fmt.Fprintf(os.Stderr, "Pass: %s\n", report.ID)
		fmt.Fprintf(os.Stderr, "Merged: %d\n", report.Count(merge.OutcomeMerged))
		fmt.Fprintf(os.Stderr, "Cached: %d\n", report.Count(merge.OutcomeCached))
		fmt.Fprintf(os.Stderr, "Baseline Missing: %d\n", report.Count(merge.OutcomeNotFound))
		fmt.Fprintf(os.Stderr, "Failed: %d\n", report.Count(merge.OutcomeFailed))
		fmt.Fprintf(os.Stderr, "Expired Cache Entries: %d\n", report.Expired)
		fmt.Fprintf(os.Stderr, "Execution Time: %s\n", report.Duration)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Write the resolved file map to this file")
}
