package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// InsightType represents the rule that produced an insight.
type InsightType string

const (
	InsightTypeLowCompliance InsightType = "low_compliance"
	InsightTypeHighRisk      InsightType = "high_risk"
	InsightTypeReallocation  InsightType = "reallocation"
	InsightTypeCoaching      InsightType = "coaching"
	InsightTypeSlowResponse  InsightType = "slow_response"
	InsightTypeKickstart     InsightType = "kickstart"
	InsightTypeMentorship    InsightType = "mentorship"
)

// InsightPriority represents the priority/importance of an insight.
type InsightPriority string

const (
	InsightPriorityHigh   InsightPriority = "high"
	InsightPriorityMedium InsightPriority = "medium"
	InsightPriorityLow    InsightPriority = "low"
)

// Insight thresholds.
const (
	LowComplianceThreshold     = 60.0
	HighRiskMinimum            = 2
	HighRiskShare              = 0.15
	ComplianceGapThreshold     = 20.0
	CoachingMinTeamSize        = 5
	CoachingScoreThreshold     = 60.0
	SlowResponseThresholdHours = 24.0
	MentorshipScoreThreshold   = 85.0
)

// Insight is a single alert, recommendation or opportunity.
type Insight struct {
	// Key is stable across refreshes of the same data, e.g. "low_compliance:<leader id>".
	Key      string          `json:"key"`
	Type     InsightType     `json:"type"`
	Priority InsightPriority `json:"priority"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`

	TeamLeaderID *uuid.UUID `json:"team_leader_id,omitempty"`

	// DataContext holds the figures behind the insight. Numbers are always
	// float64 and everything else a string, so the map survives a JSON round
	// trip through the result cache unchanged.
	DataContext map[string]any `json:"data_context,omitempty"`
}

// StrategicInsights groups derived insights by kind.
type StrategicInsights struct {
	Alerts          []Insight `json:"alerts"`
	Recommendations []Insight `json:"recommendations"`
	Opportunities   []Insight `json:"opportunities"`
}

// Count returns the total number of insights.
func (s StrategicInsights) Count() int {
	return len(s.Alerts) + len(s.Recommendations) + len(s.Opportunities)
}

// HighRiskThreshold returns the high-risk count at which a team is flagged:
// max(2, ceil(15% of assignments)).
func HighRiskThreshold(assignments int) int {
	return max(HighRiskMinimum, int(math.Ceil(float64(assignments)*HighRiskShare)))
}

// GenerateStrategicInsights applies the insight rules to a refresh result.
// Output order follows teams, then leaders, so callers get a deterministic list
// when they pass sorted inputs.
func GenerateStrategicInsights(teams []TeamPerformance, metrics MultiTeamMetrics, leaders []TeamLeaderPerformance) StrategicInsights {
	out := StrategicInsights{
		Alerts:          []Insight{},
		Recommendations: []Insight{},
		Opportunities:   []Insight{},
	}

	for _, t := range teams {
		id := t.TeamLeaderID
		if t.HasAssignments() && t.ComplianceRate < LowComplianceThreshold {
			out.Alerts = append(out.Alerts, Insight{
				Key:          insightKey(InsightTypeLowCompliance, id),
				Type:         InsightTypeLowCompliance,
				Priority:     InsightPriorityHigh,
				Title:        fmt.Sprintf("Low compliance in %s", t.TeamName),
				Description:  fmt.Sprintf("%s completed %.1f%% of %d assignments.", t.TeamName, t.ComplianceRate, t.TotalAssignments),
				Suggestion:   "Follow up with the team leader on outstanding readiness checks.",
				TeamLeaderID: &id,
				DataContext: map[string]any{
					"compliance_rate":   t.ComplianceRate,
					"total_assignments": float64(t.TotalAssignments),
				},
			})
		}

		if threshold := HighRiskThreshold(t.TotalAssignments); t.HighRiskCount >= threshold {
			out.Alerts = append(out.Alerts, Insight{
				Key:          insightKey(InsightTypeHighRisk, id),
				Type:         InsightTypeHighRisk,
				Priority:     InsightPriorityHigh,
				Title:        fmt.Sprintf("High-risk workers in %s", t.TeamName),
				Description:  fmt.Sprintf("%d workers reported not fit for duty.", t.HighRiskCount),
				Suggestion:   "Review fitness-for-duty cases before the next shift.",
				TeamLeaderID: &id,
				DataContext: map[string]any{
					"high_risk_count": float64(t.HighRiskCount),
					"threshold":       float64(threshold),
				},
			})
		}

		if !t.HasAssignments() {
			out.Recommendations = append(out.Recommendations, Insight{
				Key:          insightKey(InsightTypeKickstart, id),
				Type:         InsightTypeKickstart,
				Priority:     InsightPriorityMedium,
				Title:        fmt.Sprintf("No assignments for %s", t.TeamName),
				Description:  fmt.Sprintf("%s has %d workers but no assignments in this period.", t.TeamName, t.RosterSize),
				Suggestion:   "Schedule readiness checks for this team.",
				TeamLeaderID: &id,
				DataContext:  map[string]any{"roster_size": float64(t.RosterSize)},
			})
		} else if t.AvgResponseTimeHours > SlowResponseThresholdHours {
			out.Recommendations = append(out.Recommendations, Insight{
				Key:          insightKey(InsightTypeSlowResponse, id),
				Type:         InsightTypeSlowResponse,
				Priority:     InsightPriorityMedium,
				Title:        fmt.Sprintf("Slow response in %s", t.TeamName),
				Description:  fmt.Sprintf("Average completion takes %.1f hours.", t.AvgResponseTimeHours),
				Suggestion:   "Send reminders earlier in the shift and review the check-in process.",
				TeamLeaderID: &id,
				DataContext:  map[string]any{"avg_response_time_hours": t.AvgResponseTimeHours},
			})
		}
	}

	if best, worst := metrics.BestTeam, metrics.WorstTeam; best != nil && worst != nil {
		if gap := best.ComplianceRate - worst.ComplianceRate; gap >= ComplianceGapThreshold {
			out.Recommendations = append(out.Recommendations, Insight{
				Key:      fmt.Sprintf("%s:%s:%s", InsightTypeReallocation, best.TeamLeaderID, worst.TeamLeaderID),
				Type:     InsightTypeReallocation,
				Priority: InsightPriorityMedium,
				Title:    "Compliance gap between teams",
				Description: fmt.Sprintf("%s leads %s by %.1f points.",
					best.TeamName, worst.TeamName, round1(gap)),
				Suggestion: "Share practices from the strongest team or rebalance workload.",
				DataContext: map[string]any{
					"best_team":  best.TeamName,
					"worst_team": worst.TeamName,
					"gap":        round1(gap),
				},
			})
		}
	}

	for _, l := range leaders {
		id := l.TeamLeaderID
		if l.TeamSize >= CoachingMinTeamSize && l.ManagementScore > 0 && l.ManagementScore < CoachingScoreThreshold {
			out.Recommendations = append(out.Recommendations, Insight{
				Key:          insightKey(InsightTypeCoaching, id),
				Type:         InsightTypeCoaching,
				Priority:     InsightPriorityHigh,
				Title:        fmt.Sprintf("Coaching for %s", l.Name),
				Description:  fmt.Sprintf("Management score %.1f across %d workers.", l.ManagementScore, l.TeamSize),
				Suggestion:   "Pair the leader with a mentor and review overdue assignments weekly.",
				TeamLeaderID: &id,
				DataContext:  map[string]any{"management_score": l.ManagementScore, "team_size": float64(l.TeamSize)},
			})
		}
		if l.ManagementScore >= MentorshipScoreThreshold {
			out.Opportunities = append(out.Opportunities, Insight{
				Key:          insightKey(InsightTypeMentorship, id),
				Type:         InsightTypeMentorship,
				Priority:     InsightPriorityLow,
				Title:        fmt.Sprintf("%s could mentor other leaders", l.Name),
				Description:  fmt.Sprintf("Management score %.1f (grade %s).", l.ManagementScore, l.OverallGrade),
				Suggestion:   "Invite the leader to share their routine with lower-scoring teams.",
				TeamLeaderID: &id,
				DataContext:  map[string]any{"management_score": l.ManagementScore},
			})
		}
	}

	return out
}

func insightKey(t InsightType, id uuid.UUID) string {
	return string(t) + ":" + id.String()
}
