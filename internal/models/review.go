package models

import "time"

// ReviewVerdict is the decision a human reviewer can attach.
type ReviewVerdict string

const (
	VerdictApproved ReviewVerdict = "approved"
	VerdictDenied   ReviewVerdict = "denied"
)

// Decision maps a verdict to the resulting case decision.
func (v ReviewVerdict) Decision() (Decision, bool) {
	switch v {
	case VerdictApproved:
		return DecisionApprovedByUser, true
	case VerdictDenied:
		return DecisionDeniedByUser, true
	default:
		return DecisionNone, false
	}
}

// ReviewEntry points at a case awaiting human review. It does not own the case.
type ReviewEntry struct {
	CaseID            string    `json:"case_id"`
	Reason            string    `json:"reason"`
	Urgency           string    `json:"urgency"`
	SuggestedReviewer string    `json:"suggested_reviewer,omitempty"`
	OpenQuestions     []string  `json:"open_questions,omitempty"`
	Gaps              []string  `json:"gaps,omitempty"`
	Risks             []string  `json:"risks,omitempty"`
	Confidence        float64   `json:"confidence"`
	EnqueuedAt        time.Time `json:"enqueued_at"`
}

// GapPattern is a documentation gap that recurs across cases.
type GapPattern struct {
	Gap         string    `json:"gap"`
	Payers      []Payer   `json:"payers"`
	Categories  []string  `json:"categories"`
	Occurrences int       `json:"occurrences"`
	Prevalence  float64   `json:"prevalence"`
	LastSeen    time.Time `json:"last_seen"`
}

// Stats aggregates the case store.
type Stats struct {
	TotalCases        int              `json:"total_cases"`
	ByDecision        map[Decision]int `json:"by_decision"`
	PendingReviews    int              `json:"pending_reviews"`
	ReviewsCompleted  int              `json:"reviews_completed"`
	AverageConfidence float64          `json:"average_confidence"`
	TopGaps           []GapPattern     `json:"top_gaps,omitempty"`
}

// SampleCase is a canned submission for demos.
type SampleCase struct {
	ID    string    `json:"id" yaml:"id"`
	Input CaseInput `json:"input" yaml:"input"`
}
