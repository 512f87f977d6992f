package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

var (
	jsonOutput bool
	logger     *slog.Logger
)

type startedAtKey struct{}

var rootCmd = &cobra.Command{
	Use:   "teampulse",
	Short: "Team performance analytics",
	Long: `teampulse scores workers, team leaders and teams from assignment,
readiness and unavailability records, and derives strategic insights
across every team.`,
	SilenceUsage:      true,
	PersistentPreRun:  traceStart,
	PersistentPostRun: traceEnd,
}

// traceStart gives every command invocation its own correlation id.
func traceStart(cmd *cobra.Command, _ []string) {
	ctx := observability.WithCorrelationID(cmd.Context(), "")
	ctx = context.WithValue(ctx, startedAtKey{}, time.Now())
	cmd.SetContext(ctx)
	cliLogger().DebugContext(ctx, "command start", "command", cmd.CommandPath())
}

func traceEnd(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()
	started, ok := ctx.Value(startedAtKey{}).(time.Time)
	if !ok {
		return
	}
	cliLogger().DebugContext(ctx, "command end",
		"command", cmd.CommandPath(),
		observability.DurationKey, time.Since(started).Milliseconds(),
	)
}

func cliLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// AddCommand attaches a host-specific command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger replaces the logger used for command tracing.
func SetLogger(l *slog.Logger) {
	logger = l
}
