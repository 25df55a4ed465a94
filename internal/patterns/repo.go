package patterns

import (
	"math"

	"github.com/clearpath-health/clearpath/internal/models"
)

// Summarize builds store statistics. Average confidence covers only cases
// that reached the prediction stage; top holds at most limit gap patterns.
func Summarize(cases []models.CaseRecord, pending int, top []models.GapPattern, limit int) models.Stats {
	stats := models.Stats{
		TotalCases:     len(cases),
		ByDecision:     make(map[models.Decision]int),
		PendingReviews: pending,
	}
	sum, scored := 0.0, 0
	for _, rec := range cases {
		decision := rec.Decision
		if decision == models.DecisionNone {
			decision = "unknown"
		}
		stats.ByDecision[decision]++
		if rec.Review != nil {
			stats.ReviewsCompleted++
		}
		if rec.Confidence != nil {
			sum += *rec.Confidence
			scored++
		}
	}
	if scored > 0 {
		stats.AverageConfidence = math.Round(sum/float64(scored)*1000) / 1000
	}
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	stats.TopGaps = top
	return stats
}
