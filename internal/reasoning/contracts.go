package reasoning

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/clearpath-health/clearpath/internal/models"
)

// ErrMalformedOutput reports a stage output that does not match its contract.
var ErrMalformedOutput = errors.New("malformed stage output")

// ExtractInput is sent to the extract_diagnosis stage.
type ExtractInput struct {
	DiagnosisCodes     []string `json:"diagnosis_codes"`
	ProcedureCodes     []string `json:"procedure_codes"`
	ProcedureRequested string   `json:"procedure_requested"`
	ClinicalNotes      string   `json:"clinical_notes"`
}

// CodeNote is a code description proposed by the reasoner.
type CodeNote struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ExtractOutput is returned by the extract_diagnosis stage.
type ExtractOutput struct {
	PrimaryDiagnosis  string     `json:"primary_diagnosis"`
	ClinicalSummary   string     `json:"clinical_summary"`
	ProcedureCategory string     `json:"procedure_category,omitempty"`
	Diagnoses         []CodeNote `json:"diagnoses,omitempty"`
}

// DraftInput carries only the notes, descriptors and passages.
type DraftInput struct {
	ClinicalNotes string                  `json:"clinical_notes"`
	Diagnoses     []models.CodeDescriptor `json:"diagnoses"`
	Procedures    []models.CodeDescriptor `json:"procedures"`
	Passages      []models.Passage        `json:"passages"`
}

// DraftOutput is returned by the draft_auth_request stage.
type DraftOutput struct {
	ClinicalJustification   string   `json:"clinical_justification"`
	SupportingDocumentation []string `json:"supporting_documentation"`
}

// PredictInput is sent to the predict_approval stage.
type PredictInput struct {
	Payer             models.Payer            `json:"payer"`
	ProcedureCategory string                  `json:"procedure_category"`
	ClinicalNotes     string                  `json:"clinical_notes"`
	Diagnoses         []models.CodeDescriptor `json:"diagnoses"`
	Procedures        []models.CodeDescriptor `json:"procedures"`
	Passages          []models.Passage        `json:"passages"`
	Letter            string                  `json:"letter"`
}

// PredictOutput is returned by the predict_approval stage.
type PredictOutput struct {
	ConfidenceScore      *float64 `json:"confidence_score"`
	RiskLevel            string   `json:"risk_level"`
	Strengths            []string `json:"strengths"`
	Risks                []string `json:"risks"`
	MissingDocumentation []string `json:"missing_documentation"`
	Recommendation       string   `json:"recommendation"`
	Urgency              string   `json:"urgency,omitempty"`
	KeyQuestions         []string `json:"key_questions,omitempty"`
	SuggestedReviewer    string   `json:"suggested_reviewer,omitempty"`
}

// Prediction converts the output into the case record form. Call after ValidatePredict.
func (o PredictOutput) Prediction() models.Prediction {
	return models.Prediction{
		Confidence:        *o.ConfidenceScore,
		RiskLevel:         strings.ToLower(o.RiskLevel),
		Strengths:         o.Strengths,
		Risks:             o.Risks,
		Gaps:              o.MissingDocumentation,
		Recommendation:    o.Recommendation,
		Urgency:           o.Urgency,
		SuggestedReviewer: o.SuggestedReviewer,
		KeyQuestions:      o.KeyQuestions,
	}
}

func decode(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// ValidateExtract decodes and checks an extract_diagnosis output.
func ValidateExtract(raw json.RawMessage) (ExtractOutput, error) {
	var out ExtractOutput
	if err := decode(raw, &out); err != nil {
		return out, err
	}
	if strings.TrimSpace(out.ClinicalSummary) == "" {
		return out, fmt.Errorf("%w: clinical_summary is required", ErrMalformedOutput)
	}
	return out, nil
}

// ValidateDraft decodes and checks a draft_auth_request output.
func ValidateDraft(raw json.RawMessage) (DraftOutput, error) {
	var out DraftOutput
	if err := decode(raw, &out); err != nil {
		return out, err
	}
	if strings.TrimSpace(out.ClinicalJustification) == "" {
		return out, fmt.Errorf("%w: clinical_justification is required", ErrMalformedOutput)
	}
	return out, nil
}

// ValidatePredict decodes and checks a predict_approval output. The
// confidence score must be present and within [0, 1].
func ValidatePredict(raw json.RawMessage) (PredictOutput, error) {
	var out PredictOutput
	if err := decode(raw, &out); err != nil {
		return out, err
	}
	if out.ConfidenceScore == nil {
		return out, fmt.Errorf("%w: confidence_score is required", ErrMalformedOutput)
	}
	score := *out.ConfidenceScore
	if math.IsNaN(score) || score < 0 || score > 1 {
		return out, fmt.Errorf("%w: confidence_score %v outside [0,1]", ErrMalformedOutput, score)
	}
	switch strings.ToLower(out.RiskLevel) {
	case "", "low", "medium", "high":
	default:
		return out, fmt.Errorf("%w: unknown risk_level %q", ErrMalformedOutput, out.RiskLevel)
	}
	return out, nil
}
