package domain

// Team rating weights applied to the 0-100 rates of MonthlyMetrics.
const (
	ratingWeightCompletion = 0.35
	ratingWeightOnTime     = 0.25
	ratingWeightLate       = 0.15

	ratingVolumeBonusMax      = 10.0
	ratingVolumeBonusPer100   = 10.0
	ratingImprovementBonusMax = 10.0
	ratingImprovementFactor   = 0.5
	ratingGraceBonusMax       = 5.0
)

// Grade display colours per tier.
const (
	ColorTierA   = "#10B981"
	ColorTierB   = "#3B82F6"
	ColorTierC   = "#F59E0B"
	ColorTierDF  = "#EF4444"
	ColorNoGrade = "#9CA3AF"
)

// GradeNotAvailable is used when there is nothing to grade.
const GradeNotAvailable = "N/A"

// TeamRating is a team's weighted score with its letter grade.
type TeamRating struct {
	Score       float64         `json:"score"`
	Grade       string          `json:"grade"`
	Color       string          `json:"color"`
	Description string          `json:"description"`
	Breakdown   RatingBreakdown `json:"breakdown"`
}

// RatingBreakdown exposes each weighted component of a TeamRating.
type RatingBreakdown struct {
	CompletionComponent float64 `json:"completion_component"`
	OnTimeComponent     float64 `json:"on_time_component"`
	LatePenalty         float64 `json:"late_penalty"`
	VolumeBonus         float64 `json:"volume_bonus"`
	ImprovementBonus    float64 `json:"improvement_bonus"`
	GracePeriodBonus    float64 `json:"grace_period_bonus"`
}

// RatingContext carries optional inputs for the bonus components.
type RatingContext struct {
	// Previous is the prior-period metrics used for the improvement bonus.
	Previous *MonthlyMetrics
	// GracePeriodBonus is a policy-defined bonus, bounded to 0-5.
	GracePeriodBonus float64
}

// ComputeTeamRating rates a team from its period metrics without bonus context.
func ComputeTeamRating(m MonthlyMetrics) TeamRating {
	return ComputeTeamRatingWithContext(m, RatingContext{})
}

// ComputeTeamRatingWithContext rates a team using the optional prior period and
// grace-period policy.
func ComputeTeamRatingWithContext(m MonthlyMetrics, rc RatingContext) TeamRating {
	if m.TotalAssignments == 0 {
		return TeamRating{
			Grade:       GradeNotAvailable,
			Color:       ColorNoGrade,
			Description: "No assignments in this period",
		}
	}

	total := float64(m.TotalAssignments)
	completionRate := safePercent(float64(m.Completed), total)
	onTimeRate := safePercent(float64(m.OnTime), total)
	lateRate := safePercent(float64(m.Overdue), total)

	b := RatingBreakdown{
		CompletionComponent: completionRate * ratingWeightCompletion,
		OnTimeComponent:     onTimeRate * ratingWeightOnTime,
		LatePenalty:         lateRate * ratingWeightLate,
		VolumeBonus:         min(ratingVolumeBonusMax, total/100*ratingVolumeBonusPer100),
		GracePeriodBonus:    clamp(rc.GracePeriodBonus, 0, ratingGraceBonusMax),
	}
	if prev := rc.Previous; prev != nil && prev.TotalAssignments > 0 {
		prevRate := safePercent(float64(prev.Completed), float64(prev.TotalAssignments))
		b.ImprovementBonus = clamp((completionRate-prevRate)*ratingImprovementFactor, 0, ratingImprovementBonusMax)
	}

	// Grade on the reported value so a boundary score never lands in the lower band.
	score := round1(clampRate(b.CompletionComponent + b.OnTimeComponent - b.LatePenalty +
		b.VolumeBonus + b.ImprovementBonus + b.GracePeriodBonus))

	grade, color, description := teamGrade(score)
	return TeamRating{
		Score:       score,
		Grade:       grade,
		Color:       color,
		Description: description,
		Breakdown: RatingBreakdown{
			CompletionComponent: round1(b.CompletionComponent),
			OnTimeComponent:     round1(b.OnTimeComponent),
			LatePenalty:         round1(b.LatePenalty),
			VolumeBonus:         round1(b.VolumeBonus),
			ImprovementBonus:    round1(b.ImprovementBonus),
			GracePeriodBonus:    round1(b.GracePeriodBonus),
		},
	}
}

func teamGrade(score float64) (grade, color, description string) {
	switch {
	case score >= 97:
		return "A+", ColorTierA, "Outstanding"
	case score >= 93:
		return "A", ColorTierA, "Excellent"
	case score >= 90:
		return "A-", ColorTierA, "Very Good"
	case score >= 85:
		return "B+", ColorTierB, "Good"
	case score >= 80:
		return "B", ColorTierB, "Above Average"
	case score >= 70:
		return "B-", ColorTierB, "Satisfactory"
	case score >= 65:
		return "C+", ColorTierC, "Fair"
	case score >= 60:
		return "C", ColorTierC, "Below Average"
	case score >= 55:
		return "C-", ColorTierC, "Needs Improvement"
	case score >= 45:
		return "D", ColorTierDF, "Poor"
	default:
		return "F", ColorTierDF, "Critical"
	}
}
