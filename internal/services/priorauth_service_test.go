package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clearpath-health/clearpath/internal/api"
	"github.com/clearpath-health/clearpath/internal/corpus"
	"github.com/clearpath-health/clearpath/internal/engine"
	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/patterns"
	"github.com/clearpath-health/clearpath/internal/reasoning"
	"github.com/clearpath-health/clearpath/internal/store"
)

type failingReasoner struct{}

func (failingReasoner) Invoke(context.Context, models.Stage, json.RawMessage) (json.RawMessage, error) {
	return nil, errors.New("upstream unavailable")
}

func newTestService(t *testing.T, reasoner engine.Reasoner) *PriorAuthService {
	t.Helper()
	c := corpus.Default()
	if reasoner == nil {
		reasoner = reasoning.NewHeuristic(c, nil, nil)
	}
	mem := store.NewMemory(nil, nil)
	pipeline := engine.NewPipeline(engine.Options{Reasoner: reasoner, Store: mem, Corpus: c})
	return NewPriorAuthService(nil, pipeline, mem, nil, nil)
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return s
}

func decodeCase(t *testing.T, s *structpb.Struct) models.CaseRecord {
	t.Helper()
	var rec models.CaseRecord
	if err := api.DecodeStruct(s, &rec); err != nil {
		t.Fatalf("decode case: %v", err)
	}
	return rec
}

func TestSubmitSampleCaseAndReview(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	resp, err := svc.SubmitCase(ctx, mustStruct(t, map[string]any{"sample_id": "CASE-002"}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	rec := decodeCase(t, resp)
	if rec.Decision != models.DecisionPendingReview {
		t.Fatalf("expected pending review, got %q", rec.Decision)
	}

	queue, err := svc.ListReviewQueue(ctx, nil)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if total := queue.GetFields()["total"].GetNumberValue(); total != 1 {
		t.Fatalf("expected one queued case, got %v", total)
	}

	review := mustStruct(t, map[string]any{"case_id": rec.ID, "decision": "Approved", "reviewer": "dr-lee"})
	reviewed, err := svc.SubmitReview(ctx, review)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	after := decodeCase(t, reviewed)
	if after.Decision != models.DecisionApprovedByUser || after.Review == nil || after.Review.Reviewer != "dr-lee" {
		t.Fatalf("unexpected reviewed case: %+v", after)
	}

	_, err = svc.SubmitReview(ctx, review)
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition on second review, got %v", err)
	}

	queue, _ = svc.ListReviewQueue(ctx, nil)
	if total := queue.GetFields()["total"].GetNumberValue(); total != 0 {
		t.Fatalf("expected empty queue, got %v", total)
	}
}

func TestSubmitReviewErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	tests := []struct {
		name string
		req  map[string]any
		code codes.Code
	}{
		{"missing case id", map[string]any{"verdict": "approved"}, codes.InvalidArgument},
		{"unknown case", map[string]any{"case_id": "PA-DEADBEEF", "verdict": "approved"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitReview(ctx, mustStruct(t, tt.req))
			if status.Code(err) != tt.code {
				t.Fatalf("expected %v, got %v", tt.code, err)
			}
		})
	}

	resp, err := svc.SubmitCase(ctx, mustStruct(t, map[string]any{"sample_id": "CASE-002"}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := decodeCase(t, resp).ID
	_, err = svc.SubmitReview(ctx, mustStruct(t, map[string]any{"case_id": id, "verdict": "maybe"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for unknown verdict, got %v", err)
	}
}

func TestSubmitCaseStageFailureReturnsRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, failingReasoner{})

	resp, err := svc.SubmitCase(ctx, mustStruct(t, map[string]any{"sample_id": "CASE-001"}))
	if err != nil {
		t.Fatalf("stage failure should not be an rpc error: %v", err)
	}
	rec := decodeCase(t, resp)
	if rec.Decision != models.DecisionError || rec.FailedStage != models.StageExtractDiagnosis {
		t.Fatalf("unexpected record: decision=%q stage=%q", rec.Decision, rec.FailedStage)
	}
	if len(rec.Trace) != 1 || rec.Trace[0].Status != models.TraceError {
		t.Fatalf("expected a single error trace entry, got %+v", rec.Trace)
	}

	got, err := svc.GetCase(ctx, mustStruct(t, map[string]any{"case_id": rec.ID}))
	if err != nil {
		t.Fatalf("failed cases are stored: %v", err)
	}
	if decodeCase(t, got).Decision != models.DecisionError {
		t.Fatalf("expected stored error case")
	}
}

func TestSubmitCaseRejectsBadInput(t *testing.T) {
	svc := newTestService(t, nil)

	tests := []struct {
		name string
		req  map[string]any
		code codes.Code
	}{
		{"empty", map[string]any{}, codes.InvalidArgument},
		{"unknown payer", map[string]any{"payer": "Cigna", "clinical_notes": "knee pain"}, codes.InvalidArgument},
		{"unknown sample", map[string]any{"sample_id": "CASE-404"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitCase(context.Background(), mustStruct(t, tt.req))
			if status.Code(err) != tt.code {
				t.Fatalf("expected %v, got %v", tt.code, err)
			}
		})
	}
}

func TestGetCaseNotFound(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.GetCase(context.Background(), mustStruct(t, map[string]any{"case_id": "PA-00000000"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListCasesFilters(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	for _, id := range []string{"CASE-001", "CASE-002", "CASE-003"} {
		if _, err := svc.SubmitCase(ctx, mustStruct(t, map[string]any{"sample_id": id})); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}

	resp, err := svc.ListCases(ctx, mustStruct(t, map[string]any{"decision": "submitted"}))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listing struct {
		Cases []models.CaseRecord `json:"cases"`
	}
	if err := api.DecodeStruct(resp, &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Cases) != 2 {
		t.Fatalf("expected two submitted cases, got %d", len(listing.Cases))
	}

	resp, err = svc.ListCases(ctx, mustStruct(t, map[string]any{"limit": 1}))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total := resp.GetFields()["total"].GetNumberValue(); total != 1 {
		t.Fatalf("expected limit to apply, got %v", total)
	}
}

func TestSearchPoliciesFiltersPayer(t *testing.T) {
	svc := newTestService(t, nil)
	resp, err := svc.SearchPolicies(context.Background(), mustStruct(t, map[string]any{
		"query": "total knee replacement osteoarthritis", "payer": "aetna", "top_k": 3,
	}))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var out struct {
		Results []models.Passage `json:"results"`
	}
	if err := api.DecodeStruct(resp, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Results) == 0 {
		t.Fatalf("expected at least one Aetna passage")
	}
	for _, p := range out.Results {
		if p.Payer != models.PayerAetna {
			t.Fatalf("expected only Aetna passages, got %s", p.Payer)
		}
	}

	_, err = svc.SearchPolicies(context.Background(), mustStruct(t, map[string]any{"query": " "}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for empty query, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	for _, id := range []string{"CASE-001", "CASE-002", "CASE-003"} {
		if _, err := svc.SubmitCase(ctx, mustStruct(t, map[string]any{"sample_id": id})); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}

	resp, err := svc.GetStats(ctx, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats models.Stats
	if err := api.DecodeStruct(resp, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalCases != 3 || stats.PendingReviews != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.ByDecision[models.DecisionSubmitted] != 2 || stats.ByDecision[models.DecisionPendingReview] != 1 {
		t.Fatalf("unexpected decision counts: %v", stats.ByDecision)
	}
	if stats.AverageConfidence <= 0 || stats.AverageConfidence > 1 {
		t.Fatalf("unexpected average confidence %v", stats.AverageConfidence)
	}
	if len(stats.TopGaps) == 0 {
		t.Fatalf("expected the pending case to contribute documentation gaps")
	}
}

type countingPatternStore struct {
	*store.Journal
	writes int
}

func (c *countingPatternStore) StorePatterns(ctx context.Context, mined []models.GapPattern) error {
	c.writes++
	return c.Journal.StorePatterns(ctx, mined)
}

func readStats(t *testing.T, svc *PriorAuthService) models.Stats {
	t.Helper()
	resp, err := svc.GetStats(context.Background(), nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats models.Stats
	if err := api.DecodeStruct(resp, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return stats
}

func TestGetStatsReadsDoNotRewriteJournal(t *testing.T) {
	ctx := context.Background()
	journal, err := store.OpenJournal(filepath.Join(t.TempDir(), "clearpath.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	c := corpus.Default()
	mem := store.NewMemory(journal, nil)
	pipeline := engine.NewPipeline(engine.Options{Reasoner: reasoning.NewHeuristic(c, nil, nil), Store: mem, Corpus: c})
	counted := &countingPatternStore{Journal: journal}
	svc := NewPriorAuthService(nil, pipeline, mem, patterns.NewMiner(nil, counted), journal)

	resp, err := svc.SubmitCase(ctx, mustStruct(t, map[string]any{"sample_id": "CASE-002"}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	rec := decodeCase(t, resp)

	stats := readStats(t, svc)
	for i := 0; i < 3; i++ {
		readStats(t, svc)
	}
	if counted.writes != 1 {
		t.Fatalf("expected one pattern write for one submission, got %d", counted.writes)
	}
	if len(stats.TopGaps) == 0 {
		t.Fatalf("expected gaps from the pending case")
	}
	stored, err := journal.LoadPatterns(ctx)
	if err != nil || len(stored) == 0 || stored[0].Gap != stats.TopGaps[0].Gap {
		t.Fatalf("expected the journal to hold the served snapshot, got %+v (%v)", stored, err)
	}

	if _, err := svc.SubmitReview(ctx, mustStruct(t, map[string]any{"case_id": rec.ID, "verdict": "approved"})); err != nil {
		t.Fatalf("review: %v", err)
	}
	reviewed := readStats(t, svc)
	if counted.writes != 2 {
		t.Fatalf("expected the review to trigger one re-mine, got %d writes", counted.writes)
	}
	if reviewed.ReviewsCompleted != 1 || reviewed.PendingReviews != 0 {
		t.Fatalf("unexpected review totals: %+v", reviewed)
	}

	restarted := &countingPatternStore{Journal: journal}
	miner := patterns.NewMiner(nil, restarted)
	if err := miner.Prime(ctx); err != nil {
		t.Fatalf("prime: %v", err)
	}
	again := readStats(t, NewPriorAuthService(nil, pipeline, mem, miner, journal))
	if restarted.writes != 0 {
		t.Fatalf("a primed miner should serve the stored snapshot, got %d writes", restarted.writes)
	}
	if len(again.TopGaps) == 0 || again.TopGaps[0].Gap != reviewed.TopGaps[0].Gap {
		t.Fatalf("expected the persisted gaps after restart, got %+v", again.TopGaps)
	}
}
