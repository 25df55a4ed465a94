package engine

import (
	"errors"
	"fmt"

	"github.com/clearpath-health/clearpath/internal/models"
)

var (
	// ErrExternalCall marks a stage aborted by a failed, timed-out or malformed reasoning call.
	ErrExternalCall = errors.New("external reasoning call failed")
	// ErrInvalidReviewState is returned when a review targets a case not pending human review.
	ErrInvalidReviewState = errors.New("case is not pending human review")
	// ErrCaseNotFound is returned for unknown case ids.
	ErrCaseNotFound = errors.New("case not found")
	// ErrInvalidVerdict is returned for verdicts other than approved or denied.
	ErrInvalidVerdict = errors.New("verdict must be approved or denied")
	// ErrInvalidInput is returned when a submission cannot start a pipeline run.
	ErrInvalidInput = errors.New("invalid case input")
)

// StageError reports the stage that aborted a pipeline run. It matches both
// ErrExternalCall and the underlying cause under errors.Is.
type StageError struct {
	Stage models.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrExternalCall, e.Err}
}
