package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clearpath-health/clearpath/internal/corpus"
	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/reasoning"
	"github.com/clearpath-health/clearpath/internal/retrieval"
	"github.com/clearpath-health/clearpath/internal/store"
)

type fakeReasoner struct {
	mu      sync.Mutex
	outputs map[models.Stage]string
	errs    map[models.Stage]error
	block   map[models.Stage]bool
	calls   []models.Stage
	inputs  map[models.Stage]json.RawMessage
}

func newFakeReasoner(confidence string) *fakeReasoner {
	return &fakeReasoner{
		outputs: map[models.Stage]string{
			models.StageExtractDiagnosis: `{"primary_diagnosis":"M17.11 Primary osteoarthritis, right knee","clinical_summary":"End-stage knee OA","procedure_category":"knee_replacement"}`,
			models.StageDraftLetter:      `{"clinical_justification":"Patient meets criteria for total knee arthroplasty.","supporting_documentation":["Weight-bearing X-rays","Physical therapy records"]}`,
			models.StagePredictApproval:  `{"confidence_score":` + confidence + `,"risk_level":"medium","strengths":["Imaging documented"],"risks":["BMI not documented"],"missing_documentation":["BMI measurement"],"recommendation":"review","urgency":"standard","key_questions":["What is the BMI?"],"suggested_reviewer":"Orthopedic surgery physician reviewer"}`,
		},
		errs:   map[models.Stage]error{},
		block:  map[models.Stage]bool{},
		inputs: map[models.Stage]json.RawMessage{},
	}
}

func (f *fakeReasoner) Invoke(ctx context.Context, stage models.Stage, input json.RawMessage) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, stage)
	f.inputs[stage] = append(json.RawMessage(nil), input...)
	blocked := f.block[stage]
	err := f.errs[stage]
	out := f.outputs[stage]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func kneeInput() models.CaseInput {
	return models.CaseInput{
		Patient:            models.Patient{Name: "Margaret Chen", Age: 67, Sex: "Female"},
		Payer:              "UHC",
		MemberID:           "UHC-1",
		ReferringPhysician: "Dr. Sarah Mitchell",
		PhysicianNPI:       "1234567890",
		ProcedureRequested: "Total Knee Replacement",
		DiagnosisCodes:     []string{"M17.11"},
		ProcedureCodes:     []string{"27447"},
		ClinicalNotes:      "Severe right knee osteoarthritis.",
	}
}

func newTestPipeline(r Reasoner, mem *store.Memory) *Pipeline {
	return NewPipeline(Options{
		Reasoner: r,
		Store:    mem,
		Now:      func() time.Time { return time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC) },
	})
}

func TestRoute(t *testing.T) {
	cases := []struct {
		score, threshold float64
		want             models.Decision
	}{
		{0.70, 0.70, models.DecisionSubmitted},
		{0.6999, 0.70, models.DecisionPendingReview},
		{1, 0.70, models.DecisionSubmitted},
		{0, 0.70, models.DecisionPendingReview},
		{0.85, 0.9, models.DecisionPendingReview},
	}
	for _, tc := range cases {
		if got := Route(tc.score, tc.threshold); got != tc.want {
			t.Fatalf("Route(%v, %v) = %s, want %s", tc.score, tc.threshold, got, tc.want)
		}
	}
}

func TestProcessSubmitsAtThreshold(t *testing.T) {
	mem := store.NewMemory(nil, nil)
	fake := newFakeReasoner("0.70")
	p := newTestPipeline(fake, mem)

	rec, err := p.Process(context.Background(), kneeInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Decision != models.DecisionSubmitted {
		t.Fatalf("expected submitted at the boundary, got %s", rec.Decision)
	}
	if len(rec.Trace) != 5 {
		t.Fatalf("expected 5 trace entries, got %d", len(rec.Trace))
	}
	for i, st := range p.stageTable() {
		if rec.Trace[i].Stage != st.name || rec.Trace[i].Status != models.TraceOK {
			t.Fatalf("unexpected trace entry %d: %+v", i, rec.Trace[i])
		}
	}
	if !strings.HasPrefix(rec.ID, "PA-") || len(rec.ID) != 11 {
		t.Fatalf("unexpected case id %q", rec.ID)
	}
	if rec.Diagnosis.ProcedureCategory != "knee_replacement" {
		t.Fatalf("unexpected category %q", rec.Diagnosis.ProcedureCategory)
	}
	if rec.Policy == nil || rec.Policy.Payer != models.PayerUHC {
		t.Fatalf("expected structured UHC policy, got %+v", rec.Policy)
	}
	for _, want := range []string{
		"Date: March 04, 2025",
		"TO: United Healthcare",
		"NPI: 1234567890",
		"27447 - Total knee arthroplasty",
		"M17.11 - Primary osteoarthritis, right knee",
		"  - Weight-bearing X-rays",
		"Patient meets criteria for total knee arthroplasty.",
	} {
		if !strings.Contains(rec.Letter, want) {
			t.Fatalf("letter missing %q:\n%s", want, rec.Letter)
		}
	}
	if len(mem.Queue(context.Background())) != 0 {
		t.Fatalf("submitted cases must not be queued")
	}
	stored, err := mem.Get(context.Background(), rec.ID)
	if err != nil || stored.Decision != models.DecisionSubmitted {
		t.Fatalf("expected stored submitted record, got %+v (%v)", stored.Decision, err)
	}
}

func TestDraftInputCarriesOnlyNotesDescriptorsAndPassages(t *testing.T) {
	fake := newFakeReasoner("0.9")
	p := newTestPipeline(fake, store.NewMemory(nil, nil))
	if _, err := p.Process(context.Background(), kneeInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(fake.inputs[models.StageDraftLetter], &fields); err != nil {
		t.Fatalf("decode draft input: %v", err)
	}
	for key := range fields {
		switch key {
		case "clinical_notes", "diagnoses", "procedures", "passages":
		default:
			t.Fatalf("draft input carries unexpected field %q", key)
		}
	}
}

func TestProcessRoutesLowConfidenceToReview(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil, nil)
	p := newTestPipeline(newFakeReasoner("0.55"), mem)

	rec, err := p.Process(ctx, kneeInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Decision != models.DecisionPendingReview {
		t.Fatalf("expected pending review, got %s", rec.Decision)
	}
	queue := mem.Queue(ctx)
	if len(queue) != 1 || queue[0].CaseID != rec.ID {
		t.Fatalf("expected case in review queue, got %+v", queue)
	}
	entry := queue[0]
	if !strings.Contains(entry.Reason, "BMI measurement") || !strings.Contains(entry.Reason, "BMI not documented") {
		t.Fatalf("reason should carry gaps and risks: %q", entry.Reason)
	}
	if entry.SuggestedReviewer == "" || len(entry.OpenQuestions) != 1 || entry.Urgency != "standard" {
		t.Fatalf("unexpected entry detail: %+v", entry)
	}
}

// creatingStore records what Process hands to Create.
type creatingStore struct {
	*store.Memory
	entries []*models.ReviewEntry
}

func (c *creatingStore) Create(ctx context.Context, rec models.CaseRecord, entry *models.ReviewEntry) error {
	c.entries = append(c.entries, entry)
	return c.Memory.Create(ctx, rec, entry)
}

func TestProcessQueuesReviewInTheSameCreate(t *testing.T) {
	ctx := context.Background()
	cs := &creatingStore{Memory: store.NewMemory(nil, nil)}

	low, err := NewPipeline(Options{Reasoner: newFakeReasoner("0.55"), Store: cs}).Process(ctx, kneeInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	high, err := NewPipeline(Options{Reasoner: newFakeReasoner("0.95"), Store: cs}).Process(ctx, kneeInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cs.entries) != 2 {
		t.Fatalf("expected one create per case, got %d", len(cs.entries))
	}
	if cs.entries[0] == nil || cs.entries[0].CaseID != low.ID {
		t.Fatalf("expected the pending case to be created with its queue entry, got %+v", cs.entries[0])
	}
	if cs.entries[1] != nil {
		t.Fatalf("expected no queue entry for submitted case %s", high.ID)
	}
	if queue := cs.Queue(ctx); len(queue) != 1 || queue[0].CaseID != low.ID {
		t.Fatalf("unexpected queue %+v", queue)
	}
}

func TestProcessStageFailures(t *testing.T) {
	cases := []struct {
		name     string
		stage    models.Stage
		fail     func(f *fakeReasoner)
		traceLen int
		cause    error
	}{
		{"extract error", models.StageExtractDiagnosis, func(f *fakeReasoner) { f.errs[models.StageExtractDiagnosis] = errors.New("503") }, 1, nil},
		{"extract malformed", models.StageExtractDiagnosis, func(f *fakeReasoner) { f.outputs[models.StageExtractDiagnosis] = `{"primary_diagnosis":"x"}` }, 1, reasoning.ErrMalformedOutput},
		{"draft error", models.StageDraftLetter, func(f *fakeReasoner) { f.errs[models.StageDraftLetter] = errors.New("reset") }, 3, nil},
		{"predict out of range", models.StagePredictApproval, func(f *fakeReasoner) {
			f.outputs[models.StagePredictApproval] = `{"confidence_score":1.5}`
		}, 4, reasoning.ErrMalformedOutput},
		{"predict not json", models.StagePredictApproval, func(f *fakeReasoner) { f.outputs[models.StagePredictApproval] = `approve it` }, 4, reasoning.ErrMalformedOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := store.NewMemory(nil, nil)
			fake := newFakeReasoner("0.9")
			tc.fail(fake)
			p := newTestPipeline(fake, mem)

			rec, err := p.Process(context.Background(), kneeInput())
			var stageErr *StageError
			if !errors.As(err, &stageErr) || stageErr.Stage != tc.stage {
				t.Fatalf("expected StageError for %s, got %v", tc.stage, err)
			}
			if !errors.Is(err, ErrExternalCall) {
				t.Fatalf("expected ErrExternalCall, got %v", err)
			}
			if tc.cause != nil && !errors.Is(err, tc.cause) {
				t.Fatalf("expected cause %v, got %v", tc.cause, err)
			}
			if len(rec.Trace) != tc.traceLen {
				t.Fatalf("expected trace length %d, got %d", tc.traceLen, len(rec.Trace))
			}
			last := rec.Trace[len(rec.Trace)-1]
			if last.Status != models.TraceError || last.Error == "" {
				t.Fatalf("expected error trace entry, got %+v", last)
			}
			if rec.Decision != models.DecisionError || rec.FailedStage != tc.stage {
				t.Fatalf("unexpected decision %s / failed stage %s", rec.Decision, rec.FailedStage)
			}
			if tc.traceLen < 4 && rec.Confidence != nil {
				t.Fatalf("confidence must stay unset before stage 4")
			}
			stored, getErr := mem.Get(context.Background(), rec.ID)
			if getErr != nil || stored.Decision != models.DecisionError {
				t.Fatalf("failed case should be stored, got %v", getErr)
			}
			if len(mem.Queue(context.Background())) != 0 {
				t.Fatalf("failed cases must not be queued")
			}
		})
	}
}

func TestProcessStageTimeout(t *testing.T) {
	fake := newFakeReasoner("0.9")
	fake.block[models.StagePredictApproval] = true
	p := NewPipeline(Options{Reasoner: fake, Store: store.NewMemory(nil, nil), StageTimeout: 20 * time.Millisecond})

	rec, err := p.Process(context.Background(), kneeInput())
	if !errors.Is(err, ErrExternalCall) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timed out external call, got %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout message, got %v", err)
	}
	if len(rec.Trace) != 4 || rec.FailedStage != models.StagePredictApproval {
		t.Fatalf("unexpected record: trace=%d failed=%s", len(rec.Trace), rec.FailedStage)
	}
}

func TestProcessContinuesWhenRetrievalIsEmpty(t *testing.T) {
	idx := retrieval.NewIndex([]models.PolicyDocument{
		{ID: "X-1", Payer: models.PayerAetna, Category: "dental", Title: "Orthodontics", Text: "Braces aligners retainers."},
	})
	fake := newFakeReasoner("0.4")
	p := NewPipeline(Options{Reasoner: fake, Store: store.NewMemory(nil, nil), Index: idx})

	rec, err := p.Process(context.Background(), kneeInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.RetrievalEmpty || len(rec.Passages) != 0 {
		t.Fatalf("expected empty retrieval, got %d passages", len(rec.Passages))
	}
	if rec.Trace[1].Status != models.TraceWarning {
		t.Fatalf("expected warning on policy lookup, got %s", rec.Trace[1].Status)
	}
	if len(rec.Trace) != 5 {
		t.Fatalf("pipeline should continue after empty retrieval, trace=%d", len(rec.Trace))
	}
}

func TestProcessRecordsCodeWarnings(t *testing.T) {
	input := kneeInput()
	input.DiagnosisCodes = []string{"M17.11", "not-a-code"}
	p := newTestPipeline(newFakeReasoner("0.9"), store.NewMemory(nil, nil))

	rec, err := p.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Trace[0].Status != models.TraceWarning || len(rec.Diagnosis.Warnings) == 0 {
		t.Fatalf("expected validation warning, got %+v", rec.Trace[0])
	}
	if rec.Decision != models.DecisionSubmitted {
		t.Fatalf("validation warnings must not abort, got %s", rec.Decision)
	}
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	mem := store.NewMemory(nil, nil)
	p := newTestPipeline(newFakeReasoner("0.9"), mem)

	input := kneeInput()
	input.Payer = "Medicare"
	if _, err := p.Process(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	input = kneeInput()
	input.ClinicalNotes = "  "
	if _, err := p.Process(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(mem.List(context.Background())) != 0 {
		t.Fatalf("rejected input must not create cases")
	}
}

func TestReview(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil, nil)
	p := newTestPipeline(newFakeReasoner("0.5"), mem)

	rec, err := p.Process(ctx, kneeInput())
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if _, err := p.Review(ctx, rec.ID, "maybe", "", ""); !errors.Is(err, ErrInvalidVerdict) {
		t.Fatalf("expected ErrInvalidVerdict, got %v", err)
	}
	if _, err := p.Review(ctx, "PA-UNKNOWN", models.VerdictApproved, "", ""); !errors.Is(err, ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}

	reviewed, err := p.Review(ctx, rec.ID, "Approved", "BMI confirmed by phone", "nurse-1")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Decision != models.DecisionApprovedByUser {
		t.Fatalf("unexpected decision %s", reviewed.Decision)
	}
	if len(reviewed.Trace) != 6 || reviewed.Trace[5].Stage != models.StageHumanReview {
		t.Fatalf("expected human_review trace entry, got %d entries", len(reviewed.Trace))
	}
	if reviewed.Review == nil || reviewed.Review.Reviewer != "nurse-1" || reviewed.Review.Verdict != models.VerdictApproved {
		t.Fatalf("unexpected review action %+v", reviewed.Review)
	}
	if len(mem.Queue(ctx)) != 0 {
		t.Fatalf("reviewed case should leave the queue")
	}

	_, err = p.Review(ctx, rec.ID, models.VerdictDenied, "", "nurse-2")
	if !errors.Is(err, ErrInvalidReviewState) {
		t.Fatalf("second review should fail, got %v", err)
	}
	after, _ := mem.Get(ctx, rec.ID)
	if after.Decision != models.DecisionApprovedByUser || len(after.Trace) != 6 {
		t.Fatalf("second review must not mutate the case: %s, %d", after.Decision, len(after.Trace))
	}
}

func TestReviewRejectsSubmittedCase(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(newFakeReasoner("0.95"), store.NewMemory(nil, nil))
	rec, err := p.Process(ctx, kneeInput())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := p.Review(ctx, rec.ID, models.VerdictDenied, "", ""); !errors.Is(err, ErrInvalidReviewState) {
		t.Fatalf("expected ErrInvalidReviewState, got %v", err)
	}
}

func TestConcurrentProcessAndReview(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil, nil)
	p := NewPipeline(Options{Reasoner: newFakeReasoner("0.5"), Store: mem})

	var wg sync.WaitGroup
	ids := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := p.Process(ctx, kneeInput())
			if err != nil {
				t.Errorf("process: %v", err)
				return
			}
			ids <- rec.ID
		}()
	}
	wg.Wait()
	close(ids)

	var successes sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for id := range ids {
		for i := 0; i < 3; i++ {
			successes.Add(1)
			go func(id string, i int) {
				defer successes.Done()
				if _, err := p.Review(ctx, id, models.VerdictDenied, fmt.Sprintf("attempt %d", i), ""); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(id, i)
		}
	}
	successes.Wait()
	if wins != 8 {
		t.Fatalf("expected exactly one successful review per case, got %d", wins)
	}
	if len(mem.Queue(ctx)) != 0 {
		t.Fatalf("queue should be empty")
	}
}

func TestEndToEndWithHeuristicReasoner(t *testing.T) {
	ctx := context.Background()
	c := corpus.Default()
	mem := store.NewMemory(nil, nil)
	p := NewPipeline(Options{Reasoner: reasoning.NewHeuristic(c, nil, nil), Store: mem, Corpus: c})

	strong := kneeInput()
	strong.ClinicalNotes = "Kellgren-Lawrence Grade IV osteoarthritis of the right knee on weight-bearing X-rays. " +
		"Failed 18 months of conservative treatment including physical therapy and NSAIDs. " +
		"Medical clearance obtained from primary care."
	rec, err := p.Process(ctx, strong)
	if err != nil {
		t.Fatalf("strong case: %v", err)
	}
	if *rec.Confidence < 0.70 || rec.Decision != models.DecisionSubmitted {
		t.Fatalf("expected submission, got %.2f %s", *rec.Confidence, rec.Decision)
	}
	foundKnee := false
	for _, passage := range rec.Passages {
		if passage.Category == "knee_replacement" {
			foundKnee = true
		}
	}
	if !foundKnee {
		t.Fatalf("expected a knee replacement passage, got %+v", rec.Passages)
	}

	weak := kneeInput()
	weak.ClinicalNotes = "Grade II osteoarthritis of the right knee. BMI 46. No conservative treatment has been attempted."
	rec, err = p.Process(ctx, weak)
	if err != nil {
		t.Fatalf("weak case: %v", err)
	}
	if *rec.Confidence >= 0.70 || rec.Decision != models.DecisionPendingReview {
		t.Fatalf("expected review, got %.2f %s", *rec.Confidence, rec.Decision)
	}
	if len(rec.Gaps()) == 0 {
		t.Fatalf("expected documentation gaps")
	}
	queue := mem.Queue(ctx)
	if len(queue) != 1 || queue[0].CaseID != rec.ID {
		t.Fatalf("expected weak case in the review queue, got %+v", queue)
	}
}

func TestSampleCasesWithHeuristicReasoner(t *testing.T) {
	c := corpus.Default()
	p := NewPipeline(Options{Reasoner: reasoning.NewHeuristic(c, nil, nil), Store: store.NewMemory(nil, nil), Corpus: c})

	want := map[string]models.Decision{
		"CASE-001": models.DecisionSubmitted,
		"CASE-002": models.DecisionPendingReview,
		"CASE-003": models.DecisionSubmitted,
	}
	for id, decision := range want {
		sample, ok := c.SampleCase(id)
		if !ok {
			t.Fatalf("missing sample %s", id)
		}
		rec, err := p.Process(context.Background(), sample.Input)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if rec.Decision != decision {
			t.Fatalf("%s: expected %s, got %s (%.2f)", id, decision, rec.Decision, *rec.Confidence)
		}
	}
}

func TestSearchPoliciesScopesToPayer(t *testing.T) {
	p := NewPipeline(Options{})
	all := p.SearchPolicies("knee replacement arthroplasty", "", 10)
	if len(all) < 2 {
		t.Fatalf("expected knee policies from several payers, got %d", len(all))
	}
	scoped := p.SearchPolicies("knee replacement arthroplasty", models.PayerBCBS, 10)
	if len(scoped) == 0 {
		t.Fatalf("expected a BCBS knee policy")
	}
	for _, passage := range scoped {
		if passage.Payer != models.PayerBCBS {
			t.Fatalf("unexpected payer %s in scoped search", passage.Payer)
		}
	}
}

func TestSearchPoliciesDefaultsToConfiguredTopK(t *testing.T) {
	p := NewPipeline(Options{TopK: 2})
	if got := p.SearchPolicies("knee replacement arthroplasty", "", 0); len(got) != 2 {
		t.Fatalf("expected the configured top-k of 2, got %d", len(got))
	}
	if got := p.SearchPolicies("knee replacement arthroplasty", "", 1); len(got) != 1 {
		t.Fatalf("expected an explicit top_k to win, got %d", len(got))
	}
}
