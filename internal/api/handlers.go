package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clearpath-health/clearpath/internal/engine"
	"github.com/clearpath-health/clearpath/internal/models"
)

// SubmitCaseRequest is a case submission. SampleID selects a built-in sample
// case; otherwise the inline CaseInput is used.
type SubmitCaseRequest struct {
	SampleID string `json:"sample_id,omitempty"`
	models.CaseInput
}

// ListCasesRequest filters the case listing. Zero fields match everything.
type ListCasesRequest struct {
	Decision models.Decision `json:"decision,omitempty"`
	Payer    string          `json:"payer,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// ReviewRequest carries a human verdict. Decision is accepted as an alias for Verdict.
type ReviewRequest struct {
	CaseID   string               `json:"case_id"`
	Verdict  models.ReviewVerdict `json:"verdict"`
	Decision models.ReviewVerdict `json:"decision,omitempty"`
	Note     string               `json:"note,omitempty"`
	Reviewer string               `json:"reviewer,omitempty"`
}

// SearchRequest is an ad-hoc retrieval query.
type SearchRequest struct {
	Query string       `json:"query"`
	Payer models.Payer `json:"payer,omitempty"`
	TopK  int          `json:"top_k,omitempty"`
}

// DecodeStruct unmarshals a Struct into the JSON shape of out.
func DecodeStruct(in *structpb.Struct, out any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// ToStruct converts any JSON-encodable value into a Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// FromProtoSubmitCaseRequest maps a SubmitCase request.
func FromProtoSubmitCaseRequest(in *structpb.Struct) (SubmitCaseRequest, error) {
	var req SubmitCaseRequest
	if err := DecodeStruct(in, &req); err != nil {
		return SubmitCaseRequest{}, err
	}
	req.SampleID = strings.TrimSpace(req.SampleID)
	if req.SampleID == "" && strings.TrimSpace(req.ClinicalNotes) == "" {
		return SubmitCaseRequest{}, fmt.Errorf("%w: clinical_notes or sample_id is required", engine.ErrInvalidInput)
	}
	return req, nil
}

// FromProtoListCasesRequest maps a ListCases request.
func FromProtoListCasesRequest(in *structpb.Struct) (ListCasesRequest, error) {
	var req ListCasesRequest
	if err := DecodeStruct(in, &req); err != nil {
		return ListCasesRequest{}, err
	}
	if req.Limit < 0 {
		return ListCasesRequest{}, fmt.Errorf("limit must not be negative")
	}
	return req, nil
}

// FromProtoCaseID extracts the case_id field.
func FromProtoCaseID(in *structpb.Struct) (string, error) {
	id := strings.TrimSpace(in.GetFields()["case_id"].GetStringValue())
	if id == "" {
		return "", fmt.Errorf("case_id is required")
	}
	return id, nil
}

// FromProtoReviewRequest maps a SubmitReview request.
func FromProtoReviewRequest(in *structpb.Struct) (ReviewRequest, error) {
	var req ReviewRequest
	if err := DecodeStruct(in, &req); err != nil {
		return ReviewRequest{}, err
	}
	req.CaseID = strings.TrimSpace(req.CaseID)
	if req.CaseID == "" {
		return ReviewRequest{}, fmt.Errorf("case_id is required")
	}
	if req.Verdict == "" {
		req.Verdict = req.Decision
	}
	if req.Verdict == "" {
		return ReviewRequest{}, fmt.Errorf("verdict is required")
	}
	return req, nil
}

// FromProtoSearchRequest maps a SearchPolicies request. A zero TopK is left
// for the pipeline to fill from its configured top-k; the payer, when set,
// must be known.
func FromProtoSearchRequest(in *structpb.Struct) (SearchRequest, error) {
	var req SearchRequest
	if err := DecodeStruct(in, &req); err != nil {
		return SearchRequest{}, err
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return SearchRequest{}, fmt.Errorf("query is required")
	}
	if req.Payer != "" {
		payer, err := models.ParsePayer(string(req.Payer))
		if err != nil {
			return SearchRequest{}, err
		}
		req.Payer = payer
	}
	if req.TopK < 0 {
		return SearchRequest{}, fmt.Errorf("top_k must be positive")
	}
	return req, nil
}

// ToProtoCaseRecord converts a case record.
func ToProtoCaseRecord(rec models.CaseRecord) (*structpb.Struct, error) {
	return ToStruct(rec)
}

// ToProtoCaseList wraps records under "cases".
func ToProtoCaseList(records []models.CaseRecord) (*structpb.Struct, error) {
	if records == nil {
		records = []models.CaseRecord{}
	}
	return ToStruct(map[string]any{"cases": records, "total": len(records)})
}

// ToProtoSampleCases wraps the demo cases under "cases".
func ToProtoSampleCases(samples []models.SampleCase) (*structpb.Struct, error) {
	if samples == nil {
		samples = []models.SampleCase{}
	}
	return ToStruct(map[string]any{"cases": samples})
}

// ToProtoReviewQueue wraps queue entries under "entries".
func ToProtoReviewQueue(entries []models.ReviewEntry) (*structpb.Struct, error) {
	if entries == nil {
		entries = []models.ReviewEntry{}
	}
	return ToStruct(map[string]any{"entries": entries, "total": len(entries)})
}

// ToProtoSearchResults wraps retrieved passages under "results".
func ToProtoSearchResults(query string, passages []models.Passage) (*structpb.Struct, error) {
	if passages == nil {
		passages = []models.Passage{}
	}
	return ToStruct(map[string]any{"query": query, "results": passages})
}

// ToProtoStats converts store statistics.
func ToProtoStats(stats models.Stats) (*structpb.Struct, error) {
	return ToStruct(stats)
}
