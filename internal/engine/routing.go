package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/clearpath-health/clearpath/internal/models"
)

// Route maps a confidence score to a decision: at or above threshold is submitted.
func Route(score, threshold float64) models.Decision {
	if score >= threshold {
		return models.DecisionSubmitted
	}
	return models.DecisionPendingReview
}

func reviewEntry(rec models.CaseRecord, threshold float64, now time.Time) models.ReviewEntry {
	var pred models.Prediction
	if rec.Prediction != nil {
		pred = *rec.Prediction
	}
	urgency := strings.ToLower(strings.TrimSpace(pred.Urgency))
	if urgency == "" {
		urgency = "standard"
	}
	return models.ReviewEntry{
		CaseID:            rec.ID,
		Reason:            reviewReason(*rec.Confidence, threshold, pred),
		Urgency:           urgency,
		SuggestedReviewer: pred.SuggestedReviewer,
		OpenQuestions:     append([]string(nil), pred.KeyQuestions...),
		Gaps:              append([]string(nil), pred.Gaps...),
		Risks:             append([]string(nil), pred.Risks...),
		Confidence:        *rec.Confidence,
		EnqueuedAt:        now,
	}
}

func reviewReason(score, threshold float64, pred models.Prediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "confidence %.2f below threshold %.2f", score, threshold)
	if len(pred.Gaps) > 0 {
		b.WriteString("; missing: ")
		b.WriteString(strings.Join(pred.Gaps, "; "))
	}
	if len(pred.Risks) > 0 {
		b.WriteString("; risks: ")
		b.WriteString(strings.Join(pred.Risks, "; "))
	}
	return b.String()
}
