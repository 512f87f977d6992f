package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	sharedDomain "github.com/felixgeelhaar/teampulse/internal/shared/domain"
)

var (
	analyticsDate  string
	analyticsFrom  string
	analyticsTo    string
	analyticsTZ    string
	analyticsForce bool
	analyticsWatch bool
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show multi-team analytics for a day or a date range",
	Long: `Compute team snapshots, overall metrics, leader scores and strategic
insights across every team.

Examples:
  teampulse analytics                               # Today
  teampulse analytics --date 2024-03-05
  teampulse analytics --from 2024-03-01 --to 2024-03-31
  teampulse analytics --watch                       # Refresh on an interval;
                                                    # type a date or range to switch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Aggregator == nil {
			return errNoApp
		}

		filter, err := analyticsFilter(time.Now())
		if err != nil {
			return err
		}
		if analyticsWatch {
			return watchAnalytics(cmd, app, filter)
		}

		refresh := app.Aggregator.Refresh
		if analyticsForce {
			refresh = app.Aggregator.ForceRefresh
		}
		result, err := refresh(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		printAnalytics(cmd.OutOrStdout(), result)
		return nil
	},
}

func analyticsFilter(now time.Time) (application.Filter, error) {
	loc, err := time.LoadLocation(analyticsTZ)
	if err != nil {
		return application.Filter{}, fmt.Errorf("invalid --tz: %w", err)
	}
	switch {
	case analyticsFrom != "" || analyticsTo != "":
		if analyticsFrom == "" || analyticsTo == "" {
			return application.Filter{}, errors.New("--from and --to must be used together")
		}
		return application.ParseFilter(analyticsFrom, analyticsTo, loc)
	case analyticsDate != "":
		return application.ParseFilter(analyticsDate, "", loc)
	default:
		return application.DateFilter(now.In(loc)), nil
	}
}

func printAnalytics(w io.Writer, r *application.AnalyticsResult) {
	m := r.Metrics
	heading(w, fmt.Sprintf("Team Analytics (%s)", r.Filter))
	fmt.Fprintf(w, "  Teams: %d (%d active)  Workers: %d  Assignments: %d\n",
		m.TotalTeams, m.ActiveTeams, m.TotalWorkers, m.TotalAssignments)
	fmt.Fprintf(w, "  Overall compliance: %s  Average compliance: %s  Average health: %s\n",
		pct(m.OverallCompliance), pct(m.AverageCompliance), num(m.AverageHealthScore))
	if m.BestTeam != nil {
		fmt.Fprintf(w, "  Best team: %s (%s)\n", m.BestTeam.TeamName, pct(m.BestTeam.ComplianceRate))
	}
	if m.WorstTeam != nil {
		fmt.Fprintf(w, "  Worst team: %s (%s)\n", m.WorstTeam.TeamName, pct(m.WorstTeam.ComplianceRate))
	}
	if len(r.FailedLeaders) > 0 {
		fmt.Fprintf(w, "  Warning: records unavailable for %d team(s)\n", len(r.FailedLeaders))
	}

	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "  TEAM\tLEADER\tASSIGNED\tDONE\tOVERDUE\tCOMPLIANCE\tHEALTH\tRISK\tCASES\tGRADE\tTREND")
	for _, t := range r.Teams {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			t.TeamName, t.TeamLeaderName, t.TotalAssignments, t.Completed, t.Overdue,
			pct(t.ComplianceRate), num(t.HealthScore), t.HighRiskCount, t.ActiveCases,
			t.Rating.Grade, t.Trend)
	}
	_ = tw.Flush()

	if len(r.Leaders) > 0 {
		fmt.Fprintln(w)
		tw = newTable(w)
		fmt.Fprintln(tw, "  LEADER\tTEAM\tEFFICIENCY\tRESPONSE\tQUALITY\tMANAGEMENT\tGRADE")
		for _, l := range r.Leaders {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				l.Name, l.TeamName, num(l.EfficiencyRating), num(l.ResponseTimeScore),
				num(l.QualityScore), num(l.ManagementScore), l.OverallGrade)
		}
		_ = tw.Flush()
	}

	printInsights(w, "ALERTS", r.Insights.Alerts)
	printInsights(w, "RECOMMENDATIONS", r.Insights.Recommendations)
	printInsights(w, "OPPORTUNITIES", r.Insights.Opportunities)
}

func printInsights(w io.Writer, title string, insights []domain.Insight) {
	if len(insights) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s\n", title)
	for _, in := range insights {
		fmt.Fprintf(w, "  [%s] %s: %s\n", in.Priority, in.Title, in.Description)
		if in.Suggestion != "" {
			fmt.Fprintf(w, "         -> %s\n", in.Suggestion)
		}
	}
}

// watchAnalytics keeps the view current until the command context ends.
// Each input line is a date or "start end" range that becomes the new filter.
func watchAnalytics(cmd *cobra.Command, app *App, filter application.Filter) error {
	if app.Refresher == nil {
		return errNoApp
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var mu sync.Mutex

	if app.Bus != nil {
		unsubscribe := app.Bus.Subscribe("#.high.*", func(_ context.Context, _ string, payload []byte) error {
			var in struct {
				Insight domain.Insight `json:"insight"`
			}
			if _, err := sharedDomain.DecodeEvent(payload, &in); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "  ! %s\n", in.Insight.Title)
			return nil
		})
		defer unsubscribe()
	}

	result, err := app.Refresher.Activate(ctx, filter)
	if err != nil {
		return err
	}
	defer func() { _ = app.Refresher.Teardown(context.WithoutCancel(ctx)) }()

	go readFilters(ctx, cmd, app.Refresher)

	var shown uint64
	render := func(r *application.AnalyticsResult) {
		if r == nil || r.Sequence == shown {
			return
		}
		shown = r.Sequence
		mu.Lock()
		defer mu.Unlock()
		if jsonOutput {
			_ = writeJSON(out, r)
			return
		}
		printAnalytics(out, r)
	}
	render(result)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := app.Refresher.Snapshot()
			render(snap.Result)
			if snap.Err != nil && !errors.Is(snap.Err, lastErr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "refresh failed: %v\n", snap.Err)
			}
			lastErr = snap.Err
		}
	}
}

func readFilters(ctx context.Context, cmd *cobra.Command, r *application.Refresher) {
	loc, err := time.LoadLocation(analyticsTZ)
	if err != nil {
		loc = time.UTC
	}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		end := ""
		if len(fields) > 1 {
			end = fields[1]
		}
		f, err := application.ParseFilter(fields[0], end, loc)
		if err == nil {
			err = r.SetFilter(f)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "filter not applied: %v\n", err)
		}
	}
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsDate, "date", "", "day to analyse (YYYY-MM-DD, default today)")
	analyticsCmd.Flags().StringVar(&analyticsFrom, "from", "", "range start (YYYY-MM-DD)")
	analyticsCmd.Flags().StringVar(&analyticsTo, "to", "", "range end, inclusive (YYYY-MM-DD)")
	analyticsCmd.Flags().StringVar(&analyticsTZ, "tz", "UTC", "time zone for calendar days")
	analyticsCmd.Flags().BoolVar(&analyticsForce, "force", false, "bypass the result cache")
	analyticsCmd.Flags().BoolVarP(&analyticsWatch, "watch", "w", false, "keep refreshing until interrupted")
	analyticsCmd.MarkFlagsMutuallyExclusive("date", "from")
	rootCmd.AddCommand(analyticsCmd)
}
