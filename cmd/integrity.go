package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tbl-merger/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var integrityJSON bool

// integrityCmd is the parent command for table checks.
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Validate baseline and mod tables",
	Long:  `Checks that every registered table has a usable baseline and that mod copies match the table layouts.`,
}

// baselinesCmd checks registered baselines.
var baselinesCmd = &cobra.Command{
	Use:   "baselines",
	Short: "Check that every registered table has a valid baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		startTime := time.Now()
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report := a.checks.CheckBaselines(cmd.Context())
		return printIntegrity("Baseline", report, time.Since(startTime), a.logger)
	},
}

// modsCmd checks mod copies of registered tables.
var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Check mod tables against their baselines",
	RunE: func(cmd *cobra.Command, args []string) error {
		startTime := time.Now()
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.checks.CheckMods(cmd.Context())
		if err != nil {
			return err
		}
		return printIntegrity("Mod", report, time.Since(startTime), a.logger)
	},
}

func printIntegrity(title string, report *integrity.Report, elapsed time.Duration, logg *zap.Logger) error {
	if integrityJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	}

	fmt.Fprintf(os.Stderr, "\n=== %s Integrity ===\n", title)
	fmt.Fprintf(os.Stderr, "OK: %d\n", report.Counts[integrity.StatusOK])
	fmt.Fprintf(os.Stderr, "Missing: %d\n", report.Counts[integrity.StatusMissing])
	fmt.Fprintf(os.Stderr, "Malformed: %d\n", report.Counts[integrity.StatusMalformed])
	fmt.Fprintf(os.Stderr, "Unreadable: %d\n", report.Counts[integrity.StatusUnreadable])
	fmt.Fprintf(os.Stderr, "Execution Time: %s\n", elapsed)

	for _, t := range report.Tables {
		if t.Status != integrity.StatusOK {
			logg.Warn("Baseline problem", zap.String("logical_path", string(t.Path)), zap.String("status", string(t.Status)), zap.String("error", t.Error))
		}
	}
	return nil
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(baselinesCmd, modsCmd)
	integrityCmd.PersistentFlags().BoolVar(&integrityJSON, "json", false, "Print the full report as JSON")
}
