package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/internal/performance/application/queries"
)

var (
	rankLeader string
	rankLimit  int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank workers by their all-time performance",
	Long: `Rank workers by completion, punctuality and readiness over their full
assignment history.

Examples:
  teampulse rank                  # Every worker
  teampulse rank --limit 10       # Top ten
  teampulse rank --leader <id>    # One team leader's roster`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.WorkerRankingHandler == nil {
			return errNoApp
		}

		query := queries.GetWorkerRankingQuery{Limit: rankLimit}
		if rankLeader != "" {
			id, err := uuid.Parse(rankLeader)
			if err != nil {
				return fmt.Errorf("invalid --leader: %w", err)
			}
			query.TeamLeaderID = &id
		}

		result, err := app.WorkerRankingQuery().Handle(cmd.Context(), query)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), result)
		}

		out := cmd.OutOrStdout()
		heading(out, fmt.Sprintf("Worker Ranking (%d of %d)", len(result.Workers), result.Total))
		tw := newTable(out)
		fmt.Fprintln(tw, "  #\tWORKER\tASSIGNED\tDONE\tON TIME\tREADINESS\tSCORE\tRATING")
		for _, w := range result.Workers {
			fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
				w.Rank, w.WorkerName, w.Assignments, w.Completed, pct(w.OnTimeRate),
				num(w.AvgReadiness), num(w.Score), w.Rating)
		}
		return tw.Flush()
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankLeader, "leader", "", "team leader id")
	rankCmd.Flags().IntVar(&rankLimit, "limit", 0, "show only the top N workers")
	rootCmd.AddCommand(rankCmd)
}
