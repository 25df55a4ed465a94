package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/store"
)

// Review attaches a human verdict to a case pending review. The state check
// and the mutation happen under the store's write lock, so a second review of
// the same case fails with ErrInvalidReviewState and changes nothing.
func (p *Pipeline) Review(ctx context.Context, caseID string, verdict models.ReviewVerdict, note, reviewer string) (models.CaseRecord, error) {
	if p.store == nil {
		return models.CaseRecord{}, fmt.Errorf("pipeline not configured: store is required")
	}
	verdict = models.ReviewVerdict(strings.ToLower(strings.TrimSpace(string(verdict))))
	decision, ok := verdict.Decision()
	if !ok {
		return models.CaseRecord{}, fmt.Errorf("%w: got %q", ErrInvalidVerdict, verdict)
	}

	rec, err := p.store.Update(ctx, caseID, func(rec *models.CaseRecord) error {
		if rec.Decision != models.DecisionPendingReview {
			return fmt.Errorf("%w: case %s is %q", ErrInvalidReviewState, rec.ID, rec.Decision)
		}
		now := p.now()
		rec.Decision = decision
		rec.Review = &models.ReviewAction{
			Verdict:    verdict,
			Note:       note,
			Reviewer:   reviewer,
			ReviewedAt: now,
		}
		rec.Trace = append(rec.Trace, models.TraceEntry{
			Stage:         models.StageHumanReview,
			Status:        models.TraceOK,
			InputSummary:  reviewSummary(verdict, reviewer, note),
			OutputSummary: string(decision),
			Timestamp:     now,
		})
		rec.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.CaseRecord{}, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
		}
		return rec, err
	}
	p.store.Dequeue(ctx, caseID)

	p.logger.Info("case reviewed",
		slog.String("case_id", caseID),
		slog.String("verdict", string(verdict)),
		slog.String("reviewer", reviewer),
	)
	return rec, nil
}

func reviewSummary(verdict models.ReviewVerdict, reviewer, note string) string {
	summary := "verdict " + string(verdict)
	if reviewer != "" {
		summary += " by " + reviewer
	}
	if note != "" {
		summary += ": " + note
	}
	return summary
}
