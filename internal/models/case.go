package models

import "time"

// Decision is the routing outcome of a case.
type Decision string

const (
	DecisionNone           Decision = ""
	DecisionSubmitted      Decision = "submitted"
	DecisionPendingReview  Decision = "pending-human-review"
	DecisionApprovedByUser Decision = "approved-by-human"
	DecisionDeniedByUser   Decision = "denied-by-human"
	DecisionError          Decision = "error"
)

// Stage names the pipeline steps, in execution order.
type Stage string

const (
	StageExtractDiagnosis Stage = "extract_diagnosis"
	StagePolicyLookup     Stage = "lookup_payer_policy"
	StageDraftLetter      Stage = "draft_auth_request"
	StagePredictApproval  Stage = "predict_approval"
	StageRouteDecision    Stage = "route_decision"
	StageHumanReview      Stage = "human_review"
)

// TraceStatus labels a trace entry.
type TraceStatus string

const (
	TraceOK      TraceStatus = "ok"
	TraceWarning TraceStatus = "warning"
	TraceError   TraceStatus = "error"
)

// Patient is display-only; no pipeline logic reads it.
type Patient struct {
	Name string `json:"name" yaml:"name"`
	Age  int    `json:"age" yaml:"age"`
	Sex  string `json:"sex" yaml:"sex"`
}

// CaseInput is what a client submits.
type CaseInput struct {
	Patient            Patient  `json:"patient" yaml:"patient"`
	Payer              string   `json:"payer" yaml:"payer"`
	MemberID           string   `json:"member_id,omitempty" yaml:"member_id"`
	ReferringPhysician string   `json:"referring_physician,omitempty" yaml:"referring_physician"`
	PhysicianNPI       string   `json:"physician_npi,omitempty" yaml:"physician_npi"`
	ProcedureRequested string   `json:"procedure_requested" yaml:"procedure_requested"`
	DiagnosisCodes     []string `json:"diagnosis_codes" yaml:"diagnosis_codes"`
	ProcedureCodes     []string `json:"procedure_codes" yaml:"procedure_codes"`
	ClinicalNotes      string   `json:"clinical_notes" yaml:"clinical_notes"`
}

// Clone copies the code slices.
func (in CaseInput) Clone() CaseInput {
	in.DiagnosisCodes = append([]string(nil), in.DiagnosisCodes...)
	in.ProcedureCodes = append([]string(nil), in.ProcedureCodes...)
	return in
}

// CodeDescriptor is a normalized diagnosis or procedure code.
type CodeDescriptor struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Valid       bool   `json:"valid"`
	Known       bool   `json:"known"`
}

// Diagnosis holds the stage-1 descriptors.
type Diagnosis struct {
	Diagnoses         []CodeDescriptor `json:"diagnoses"`
	Procedures        []CodeDescriptor `json:"procedures"`
	PrimaryDiagnosis  string           `json:"primary_diagnosis"`
	ClinicalSummary   string           `json:"clinical_summary"`
	ProcedureName     string           `json:"procedure_name"`
	ProcedureCategory string           `json:"procedure_category"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// Passage is a retrieved policy document with its relevance score.
type Passage struct {
	DocumentID string  `json:"document_id"`
	Payer      Payer   `json:"payer"`
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Prediction is the stage-4 approval assessment.
type Prediction struct {
	Confidence        float64  `json:"confidence"`
	RiskLevel         string   `json:"risk_level"`
	Strengths         []string `json:"strengths"`
	Risks             []string `json:"risks"`
	Gaps              []string `json:"gaps"`
	Recommendation    string   `json:"recommendation"`
	Urgency           string   `json:"urgency,omitempty"`
	SuggestedReviewer string   `json:"suggested_reviewer,omitempty"`
	KeyQuestions      []string `json:"key_questions,omitempty"`
}

// TraceEntry records one executed stage.
type TraceEntry struct {
	Stage         Stage         `json:"stage"`
	Status        TraceStatus   `json:"status"`
	InputSummary  string        `json:"input_summary"`
	OutputSummary string        `json:"output_summary"`
	Error         string        `json:"error,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Duration      time.Duration `json:"duration"`
}

// ReviewAction is the human decision attached after pipeline completion.
type ReviewAction struct {
	Verdict    ReviewVerdict `json:"verdict"`
	Note       string        `json:"note,omitempty"`
	Reviewer   string        `json:"reviewer,omitempty"`
	ReviewedAt time.Time     `json:"reviewed_at"`
}

// CaseRecord threads through the pipeline and is stored once complete.
type CaseRecord struct {
	ID             string        `json:"case_id"`
	Input          CaseInput     `json:"input"`
	Payer          Payer         `json:"payer"`
	Diagnosis      *Diagnosis    `json:"diagnosis,omitempty"`
	Passages       []Passage     `json:"passages"`
	RetrievalEmpty bool          `json:"retrieval_empty"`
	Policy         *PayerPolicy  `json:"policy,omitempty"`
	Letter         string        `json:"letter,omitempty"`
	Confidence     *float64      `json:"confidence,omitempty"`
	Prediction     *Prediction   `json:"prediction,omitempty"`
	Decision       Decision      `json:"decision,omitempty"`
	FailedStage    Stage         `json:"failed_stage,omitempty"`
	Error          string        `json:"error,omitempty"`
	Trace          []TraceEntry  `json:"trace"`
	Review         *ReviewAction `json:"review,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Gaps returns the documentation gaps identified at stage 4, if any.
func (c CaseRecord) Gaps() []string {
	if c.Prediction == nil {
		return nil
	}
	return c.Prediction.Gaps
}

// Clone returns a deep copy safe to hand across goroutines.
func (c CaseRecord) Clone() CaseRecord {
	out := c
	out.Input = c.Input.Clone()
	if c.Diagnosis != nil {
		d := *c.Diagnosis
		d.Diagnoses = append([]CodeDescriptor(nil), c.Diagnosis.Diagnoses...)
		d.Procedures = append([]CodeDescriptor(nil), c.Diagnosis.Procedures...)
		d.Warnings = append([]string(nil), c.Diagnosis.Warnings...)
		out.Diagnosis = &d
	}
	out.Passages = append([]Passage(nil), c.Passages...)
	if c.Policy != nil {
		p := *c.Policy
		p.CPTCodes = append([]string(nil), c.Policy.CPTCodes...)
		p.RequiredDocumentation = append([]string(nil), c.Policy.RequiredDocumentation...)
		p.AutoApproveCriteria = append([]string(nil), c.Policy.AutoApproveCriteria...)
		out.Policy = &p
	}
	if c.Confidence != nil {
		v := *c.Confidence
		out.Confidence = &v
	}
	if c.Prediction != nil {
		p := *c.Prediction
		p.Strengths = append([]string(nil), c.Prediction.Strengths...)
		p.Risks = append([]string(nil), c.Prediction.Risks...)
		p.Gaps = append([]string(nil), c.Prediction.Gaps...)
		p.KeyQuestions = append([]string(nil), c.Prediction.KeyQuestions...)
		out.Prediction = &p
	}
	out.Trace = append([]TraceEntry(nil), c.Trace...)
	if c.Review != nil {
		r := *c.Review
		out.Review = &r
	}
	return out
}
