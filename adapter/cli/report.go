package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/internal/performance/application/queries"
)

var (
	reportLeader string
	reportMonth  string
	reportGrace  float64
	reportTZ     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show a team leader's monthly report",
	Long: `Show one team's monthly metrics, weekly breakdown, rating and
leadership scores, compared with the previous month.

Examples:
  teampulse report --leader <id>                   # Current month
  teampulse report --leader <id> --month 2024-03
  teampulse report --leader <id> --grace 2.5       # Add a grace-period bonus`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.TeamReportHandler == nil {
			return errNoApp
		}

		leaderID, err := uuid.Parse(reportLeader)
		if err != nil {
			return fmt.Errorf("invalid --leader: %w", err)
		}
		loc, err := time.LoadLocation(reportTZ)
		if err != nil {
			return fmt.Errorf("invalid --tz: %w", err)
		}
		month := time.Now().In(loc)
		if reportMonth != "" {
			if month, err = time.ParseInLocation("2006-01", reportMonth, loc); err != nil {
				return fmt.Errorf("invalid --month %q: want YYYY-MM", reportMonth)
			}
		}

		query := queries.GetTeamReportQuery{
			TeamLeaderID:     leaderID,
			Year:             month.Year(),
			Month:            month.Month(),
			Location:         loc,
			GracePeriodBonus: reportGrace,
		}
		report, err := app.TeamReportQuery().Handle(cmd.Context(), query)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		return printReport(cmd, report)
	},
}

func printReport(cmd *cobra.Command, r *queries.TeamReport) error {
	out := cmd.OutOrStdout()
	m, prev := r.Metrics, r.Previous

	heading(out, fmt.Sprintf("%s - %s", r.Leader.TeamName, r.Period.Start.Format("January 2006")))
	fmt.Fprintf(out, "  Leader: %s %s\n", r.Leader.FirstName, r.Leader.LastName)
	fmt.Fprintf(out, "  Rating: %s (%s) %s\n", num(r.Rating.Score), r.Rating.Grade, r.Rating.Description)
	b := r.Rating.Breakdown
	fmt.Fprintf(out, "    completion %s  on-time %s  late -%s  volume +%s  improvement +%s  grace +%s\n",
		num(b.CompletionComponent), num(b.OnTimeComponent), num(b.LatePenalty),
		num(b.VolumeBonus), num(b.ImprovementBonus), num(b.GracePeriodBonus))

	fmt.Fprintln(out)
	tw := newTable(out)
	fmt.Fprintln(tw, "  METRIC\tTHIS MONTH\tPREVIOUS")
	fmt.Fprintf(tw, "  Assignments\t%d\t%d\n", m.TotalAssignments, prev.TotalAssignments)
	fmt.Fprintf(tw, "  Completed\t%d\t%d\n", m.Completed, prev.Completed)
	fmt.Fprintf(tw, "  Completion rate\t%s\t%s\n", pct(m.CompletionRate), pct(prev.CompletionRate))
	fmt.Fprintf(tw, "  On-time rate\t%s\t%s\n", pct(m.OnTimeRate), pct(prev.OnTimeRate))
	fmt.Fprintf(tw, "  Overdue\t%d\t%d\n", m.Overdue, prev.Overdue)
	fmt.Fprintf(tw, "  Avg response (h)\t%s\t%s\n", num(m.AvgResponseTimeHours), num(prev.AvgResponseTimeHours))
	fmt.Fprintf(tw, "  Team health\t%s\t%s\n", num(m.TeamHealthScore), num(prev.TeamHealthScore))
	fmt.Fprintf(tw, "  High risk\t%d\t%d\n", m.HighRiskCount, prev.HighRiskCount)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	tw = newTable(out)
	fmt.Fprintln(tw, "  WEEK\tASSIGNED\tDONE\tON TIME\tOVERDUE\tCOMPLETION")
	for _, w := range r.Weekly {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%d\t%s\n",
			w.WeekStart.Format("Jan 02"), w.TotalAssignments, w.Completed, w.OnTime, w.Overdue, pct(w.CompletionRate))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	l := r.Leadership
	fmt.Fprintf(out, "\n  Leadership: %s  efficiency %s  response %s  quality %s  management %s  trend %s\n",
		l.OverallGrade, num(l.EfficiencyRating), num(l.ResponseTimeScore), num(l.QualityScore),
		num(l.ManagementScore), l.TrendDirection)

	if len(r.Workers) > 0 {
		fmt.Fprintln(out)
		tw = newTable(out)
		fmt.Fprintln(tw, "  #\tWORKER\tASSIGNED\tDONE\tSCORE\tRATING")
		for _, w := range r.Workers {
			fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%s\t%s\n", w.Rank, w.WorkerName, w.Assignments, w.Completed, num(w.Score), w.Rating)
		}
		return tw.Flush()
	}
	return nil
}

func init() {
	reportCmd.Flags().StringVar(&reportLeader, "leader", "", "team leader id")
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "month to report (YYYY-MM, default current)")
	reportCmd.Flags().Float64Var(&reportGrace, "grace", 0, "grace-period bonus added to the rating (0-5)")
	reportCmd.Flags().StringVar(&reportTZ, "tz", "UTC", "time zone for month boundaries")
	_ = reportCmd.MarkFlagRequired("leader")
	rootCmd.AddCommand(reportCmd)
}
