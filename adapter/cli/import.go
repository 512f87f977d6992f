package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/security"
)

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import records from a JSON file",
	Long: `Import team leaders, workers, assignments, readiness submissions and
unavailable cases from a JSON record set. Records are upserted by id, so
re-importing a file is safe.

Examples:
  teampulse import records.json
  cat records.json | teampulse import -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Importer == nil {
			return errNoApp
		}

		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := security.OpenRegular(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()
			in = f
		}

		stats, err := app.Importer.ImportJSON(cmd.Context(), in)
		if err != nil {
			return err
		}
		if app.Aggregator != nil {
			if err := app.Aggregator.Reset(cmd.Context()); err != nil {
				logger.Warn("failed to clear analytics cache", "error", err)
			}
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), stats)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records: %d leaders, %d workers, %d assignments, %d readiness, %d cases\n",
			stats.Total(), stats.Leaders, stats.Workers, stats.Assignments, stats.Readiness, stats.Cases)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
