package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearpath-health/clearpath/internal/corpus"
	"github.com/clearpath-health/clearpath/internal/extractors"
	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/retrieval"
)

const (
	// DefaultThreshold is the confidence at or above which a case is submitted.
	DefaultThreshold = 0.70
	// DefaultTopK is the number of policy passages retrieved at stage 2.
	DefaultTopK = 5
	// DefaultStageTimeout bounds each reasoning call.
	DefaultStageTimeout = 30 * time.Second
)

// Reasoner is the external reasoning capability invoked by stages 1, 3 and 4.
type Reasoner interface {
	Invoke(ctx context.Context, stage models.Stage, input json.RawMessage) (json.RawMessage, error)
}

// CaseStore is the shared case store and review queue.
type CaseStore interface {
	// Create stores rec and, when entry is non-nil, queues it in one step.
	Create(ctx context.Context, rec models.CaseRecord, entry *models.ReviewEntry) error
	Update(ctx context.Context, id string, fn func(*models.CaseRecord) error) (models.CaseRecord, error)
	Get(ctx context.Context, id string) (models.CaseRecord, error)
	Dequeue(ctx context.Context, id string) bool
}

// Options configures a Pipeline.
type Options struct {
	Logger   *slog.Logger
	Reasoner Reasoner
	Store    CaseStore
	Corpus   *corpus.Corpus
	// Index defaults to an index built over Corpus.Documents.
	Index *retrieval.Index

	Threshold            float64
	TopK                 int
	StageTimeout         time.Duration
	PayerScopedRetrieval bool

	Now   func() time.Time
	NewID func() string
}

// Pipeline runs the five prior-authorization stages over a case.
type Pipeline struct {
	logger   *slog.Logger
	reasoner Reasoner
	store    CaseStore
	corpus   *corpus.Corpus
	index    *retrieval.Index
	codes    *extractors.CodeExtractor

	threshold    float64
	topK         int
	stageTimeout time.Duration
	payerScoped  bool

	now    func() time.Time
	newID  func() string
	stages []stage
}

// NewPipeline constructs a pipeline. Out-of-range settings fall back to the defaults.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		logger:       opts.Logger,
		reasoner:     opts.Reasoner,
		store:        opts.Store,
		corpus:       opts.Corpus,
		index:        opts.Index,
		threshold:    opts.Threshold,
		topK:         opts.TopK,
		stageTimeout: opts.StageTimeout,
		payerScoped:  opts.PayerScopedRetrieval,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.corpus == nil {
		p.corpus = corpus.Default()
	}
	if p.index == nil {
		p.index = retrieval.NewIndex(p.corpus.Documents)
	}
	if p.threshold <= 0 || p.threshold > 1 {
		p.threshold = DefaultThreshold
	}
	if p.topK <= 0 {
		p.topK = DefaultTopK
	}
	if p.stageTimeout <= 0 {
		p.stageTimeout = DefaultStageTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = NewCaseID
	}
	p.codes = extractors.NewCodeExtractor(p.corpus)
	p.stages = p.stageTable()
	return p
}

// Threshold returns the routing threshold in effect.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// Corpus returns the reference data the pipeline reads.
func (p *Pipeline) Corpus() *corpus.Corpus { return p.corpus }

// SearchPolicies runs an ad-hoc retrieval against the stage-2 index. An empty
// payer searches every payer; topK <= 0 uses the configured top-k.
func (p *Pipeline) SearchPolicies(query string, payer models.Payer, topK int) []models.Passage {
	if topK <= 0 {
		topK = p.topK
	}
	return toPassages(p.index.SearchFiltered(query, topK, retrieval.Filter{Payer: payer}))
}

// NewCaseID returns "PA-" followed by eight upper-case hex characters.
func NewCaseID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PA-" + strings.ToUpper(raw[:8])
}

// Process runs every stage over input and stores the resulting record. When a
// stage fails the partial record is still stored and returned alongside a
// *StageError.
func (p *Pipeline) Process(ctx context.Context, input models.CaseInput) (models.CaseRecord, error) {
	if p.reasoner == nil || p.store == nil {
		return models.CaseRecord{}, fmt.Errorf("pipeline not configured: reasoner and store are required")
	}
	payer, err := models.ParsePayer(input.Payer)
	if err != nil {
		return models.CaseRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(input.ClinicalNotes) == "" {
		return models.CaseRecord{}, fmt.Errorf("%w: clinical notes are required", ErrInvalidInput)
	}

	created := p.now()
	run := &caseRun{rec: models.CaseRecord{
		ID:        p.newID(),
		Input:     input.Clone(),
		Payer:     payer,
		Passages:  []models.Passage{},
		Trace:     make([]models.TraceEntry, 0, len(p.stages)),
		CreatedAt: created,
	}}
	logger := p.logger.With(slog.String("case_id", run.rec.ID), slog.String("payer", string(payer)))
	logger.Info("case submitted")

	var stageErr *StageError
	for _, st := range p.stages {
		started := p.now()
		result, err := st.run(ctx, run)
		entry := models.TraceEntry{
			Stage:         st.name,
			Status:        result.status,
			InputSummary:  result.input,
			OutputSummary: result.output,
			Timestamp:     started,
			Duration:      p.now().Sub(started),
		}
		if entry.Status == "" {
			entry.Status = models.TraceOK
		}
		if err != nil {
			entry.Status = models.TraceError
			entry.Error = err.Error()
			run.rec.Trace = append(run.rec.Trace, entry)
			run.rec.Decision = models.DecisionError
			run.rec.FailedStage = st.name
			run.rec.Error = err.Error()
			stageErr = &StageError{Stage: st.name, Err: err}
			logger.Warn("stage failed", slog.String("stage", string(st.name)), slog.Any("error", err))
			break
		}
		run.rec.Trace = append(run.rec.Trace, entry)
		logger.Debug("stage complete", slog.String("stage", string(st.name)), slog.Duration("duration", entry.Duration))
	}

	run.rec.UpdatedAt = p.now()
	if err := p.store.Create(ctx, run.rec, run.review); err != nil {
		return run.rec.Clone(), fmt.Errorf("store case %s: %w", run.rec.ID, err)
	}

	if stageErr != nil {
		return run.rec.Clone(), stageErr
	}
	logger.Info("case routed",
		slog.String("decision", string(run.rec.Decision)),
		slog.Float64("confidence", *run.rec.Confidence),
	)
	return run.rec.Clone(), nil
}

// invoke marshals input and calls the reasoner under the per-call timeout.
func (p *Pipeline) invoke(ctx context.Context, stage models.Stage, input any) (json.RawMessage, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal %s input: %w", stage, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	out, err := p.reasoner.Invoke(callCtx, stage, payload)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("reasoning call timed out after %s: %w", p.stageTimeout, err)
		}
		return nil, err
	}
	return out, nil
}
