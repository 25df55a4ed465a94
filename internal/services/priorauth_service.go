package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clearpath-health/clearpath/internal/api"
	"github.com/clearpath-health/clearpath/internal/engine"
	"github.com/clearpath-health/clearpath/internal/grpc/clearpathv1"
	"github.com/clearpath-health/clearpath/internal/metrics"
	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/patterns"
	"github.com/clearpath-health/clearpath/internal/store"
	"github.com/clearpath-health/clearpath/internal/utils"
)

// topGapLimit bounds the recurring gaps reported by GetStats.
const topGapLimit = 5

// CaseReader is the read side of the case store.
type CaseReader interface {
	Get(ctx context.Context, id string) (models.CaseRecord, error)
	List(ctx context.Context) []models.CaseRecord
	Queue(ctx context.Context) []models.ReviewEntry
}

// ReviewLog counts journaled review actions, including reviews of cases that
// have since been deleted.
type ReviewLog interface {
	ReviewCount(ctx context.Context) (int, error)
}

// PriorAuthService implements the gRPC PriorAuth service.
type PriorAuthService struct {
	clearpathv1.UnimplementedPriorAuthServer

	logger    *slog.Logger
	pipeline  *engine.Pipeline
	cases     CaseReader
	miner     *patterns.Miner
	reviews   ReviewLog
	latencies *utils.LatencyTracker
}

// NewPriorAuthService constructs the service facade. A nil miner keeps gap
// patterns in memory only; a nil reviews counts reviews from the case store.
func NewPriorAuthService(logger *slog.Logger, pipeline *engine.Pipeline, cases CaseReader, miner *patterns.Miner, reviews ReviewLog) *PriorAuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if miner == nil {
		miner = patterns.NewMiner(logger, nil)
	}
	return &PriorAuthService{
		logger:    logger,
		pipeline:  pipeline,
		cases:     cases,
		miner:     miner,
		reviews:   reviews,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// ListSampleCases returns the built-in demo submissions.
func (s *PriorAuthService) ListSampleCases(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	return encode(api.ToProtoSampleCases(s.pipeline.Corpus().SampleCases))
}

// SubmitCase runs the pipeline over a case. A stage failure is not an RPC
// error: the partial record comes back with decision "error".
func (s *PriorAuthService) SubmitCase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}

	submission, err := api.FromProtoSubmitCaseRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	input := submission.CaseInput
	if submission.SampleID != "" {
		sample, ok := s.pipeline.Corpus().SampleCase(submission.SampleID)
		if !ok {
			return nil, status.Errorf(codes.NotFound, "sample case %s not found", submission.SampleID)
		}
		input = sample.Input
	}

	start := time.Now()
	rec, err := s.pipeline.Process(ctx, input)
	duration := time.Since(start)

	var stageErr *engine.StageError
	switch {
	case err == nil:
	case errors.As(err, &stageErr):
		s.logger.Warn("case stopped at stage", slog.String("case_id", rec.ID), slog.String("stage", string(stageErr.Stage)))
	case errors.Is(err, engine.ErrInvalidInput):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error("case processing failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, fmt.Sprintf("process case: %v", err))
	}

	s.miner.Invalidate()
	metrics.ObserveCase(duration, rec)
	s.refreshQueueDepth(ctx)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("pipeline latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	return encode(api.ToProtoCaseRecord(rec))
}

// ListCases returns stored cases, newest first.
func (s *PriorAuthService) ListCases(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.cases == nil {
		return nil, status.Error(codes.FailedPrecondition, "case store not configured")
	}
	filter, err := api.FromProtoListCasesRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var payer models.Payer
	if filter.Payer != "" {
		if payer, err = models.ParsePayer(filter.Payer); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	all := s.cases.List(ctx)
	out := make([]models.CaseRecord, 0, len(all))
	for _, rec := range all {
		if filter.Decision != "" && !strings.EqualFold(string(rec.Decision), string(filter.Decision)) {
			continue
		}
		if payer != "" && rec.Payer != payer {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return encode(api.ToProtoCaseList(out))
}

// GetCase returns one case with its full trace.
func (s *PriorAuthService) GetCase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.cases == nil {
		return nil, status.Error(codes.FailedPrecondition, "case store not configured")
	}
	id, err := api.FromProtoCaseID(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, err := s.cases.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "case %s not found", id)
		}
		s.logger.Error("get case failed", slog.String("case_id", id), slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to load case")
	}
	return encode(api.ToProtoCaseRecord(rec))
}

// ListReviewQueue returns cases awaiting a human verdict.
func (s *PriorAuthService) ListReviewQueue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.cases == nil {
		return nil, status.Error(codes.FailedPrecondition, "case store not configured")
	}
	return encode(api.ToProtoReviewQueue(s.cases.Queue(ctx)))
}

// SubmitReview records a human verdict on a pending case.
func (s *PriorAuthService) SubmitReview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	review, err := api.FromProtoReviewRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rec, err := s.pipeline.Review(ctx, review.CaseID, review.Verdict, review.Note, review.Reviewer)
	if err != nil {
		return nil, reviewStatus(err)
	}
	s.miner.Invalidate()
	metrics.ObserveReview(rec.Review.Verdict)
	s.refreshQueueDepth(ctx)
	return encode(api.ToProtoCaseRecord(rec))
}

// SearchPolicies runs an ad-hoc retrieval over the policy corpus.
func (s *PriorAuthService) SearchPolicies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}
	search, err := api.FromProtoSearchRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	passages := s.pipeline.SearchPolicies(search.Query, search.Payer, search.TopK)
	return encode(api.ToProtoSearchResults(search.Query, passages))
}

// GetStats summarizes the case store and the most common documentation gaps.
// Gap patterns come from the miner's snapshot, so a read only mines after a
// submission or review changed the store.
func (s *PriorAuthService) GetStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.cases == nil {
		return nil, status.Error(codes.FailedPrecondition, "case store not configured")
	}
	gaps := s.miner.Patterns(ctx, s.cases)
	cases := s.cases.List(ctx)
	pending := len(s.cases.Queue(ctx))
	stats := patterns.Summarize(cases, pending, gaps, topGapLimit)
	if s.reviews != nil {
		count, err := s.reviews.ReviewCount(ctx)
		if err != nil {
			s.logger.Warn("review count unavailable", slog.Any("error", err))
		} else {
			stats.ReviewsCompleted = count
		}
	}
	return encode(api.ToProtoStats(stats))
}

// LatencyP95 returns the current p95 pipeline latency.
func (s *PriorAuthService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *PriorAuthService) refreshQueueDepth(ctx context.Context) {
	if s.cases != nil {
		metrics.SetQueueDepth(len(s.cases.Queue(ctx)))
	}
}

func reviewStatus(err error) error {
	switch {
	case errors.Is(err, engine.ErrCaseNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidVerdict):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrInvalidReviewState):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, fmt.Sprintf("review failed: %v", err))
	}
}

func encode(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
