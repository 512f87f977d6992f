package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check record store, cache and broker health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return errNoApp
		}

		out := cmd.OutOrStdout()
		report := app.Health.GetOverallHealth(cmd.Context())
		if jsonOutput {
			if err := writeJSON(out, report); err != nil {
				return err
			}
		} else {
			printHealth(cmd, report)
		}
		if report.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("teampulse is %s", report.Status)
		}
		return nil
	},
}

func printHealth(cmd *cobra.Command, report observability.OverallHealth) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %s\n", report.Status)
	tw := newTable(out)
	for _, name := range slices.Sorted(maps.Keys(report.Checks)) {
		c := report.Checks[name]
		fmt.Fprintf(tw, "  %s\t%s\t%.1fms\t%s\n", name, c.Status, c.DurationMS, c.Message)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
