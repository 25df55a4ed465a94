package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clearpath-health/clearpath/internal/corpus"
	"github.com/clearpath-health/clearpath/internal/extractors"
	"github.com/clearpath-health/clearpath/internal/models"
)

// FactDiagnosisDocumented is derived from the code descriptors rather than the notes.
const FactDiagnosisDocumented = "diagnosis_documented"

// Heuristic is a deterministic stand-in for the hosted reasoning capability.
// It answers every model-backed stage from the corpus catalogs, the notes
// extractor and the gap rule pack.
type Heuristic struct {
	logger *slog.Logger
	corpus *corpus.Corpus
	rules  *RuleSet
	notes  *extractors.NotesExtractor
	codes  *extractors.CodeExtractor
}

// NewHeuristic constructs a heuristic reasoner. Nil arguments fall back to the built-in corpus and rules.
func NewHeuristic(c *corpus.Corpus, rules *RuleSet, logger *slog.Logger) *Heuristic {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = corpus.Default()
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return &Heuristic{
		logger: logger,
		corpus: c,
		rules:  rules,
		notes:  extractors.NewNotesExtractor(),
		codes:  extractors.NewCodeExtractor(c),
	}
}

// Invoke runs one stage against its JSON input.
func (h *Heuristic) Invoke(ctx context.Context, stage models.Stage, input json.RawMessage) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out any
	switch stage {
	case models.StageExtractDiagnosis:
		var in ExtractInput
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, fmt.Errorf("decode %s input: %w", stage, err)
		}
		out = h.extract(in)
	case models.StageDraftLetter:
		var in DraftInput
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, fmt.Errorf("decode %s input: %w", stage, err)
		}
		out = h.draft(in)
	case models.StagePredictApproval:
		var in PredictInput
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, fmt.Errorf("decode %s input: %w", stage, err)
		}
		out = h.predict(in)
	default:
		return nil, fmt.Errorf("stage %q is not served by the reasoner", stage)
	}
	return json.Marshal(out)
}

func (h *Heuristic) extract(in ExtractInput) ExtractOutput {
	diagnoses, procedures, _ := h.codes.Describe(in.DiagnosisCodes, in.ProcedureCodes)
	findings := h.notes.Extract(in.ClinicalNotes)

	out := ExtractOutput{
		ProcedureCategory: h.corpus.CategoryFor(in.ProcedureCodes, in.ProcedureRequested),
		ClinicalSummary:   summarize(in.ProcedureRequested, findings),
	}
	for _, d := range diagnoses {
		if d.Known {
			out.Diagnoses = append(out.Diagnoses, CodeNote{Code: d.Code, Description: d.Description})
			if out.PrimaryDiagnosis == "" {
				out.PrimaryDiagnosis = d.Code + " " + d.Description
			}
		}
	}
	if out.PrimaryDiagnosis == "" && len(diagnoses) > 0 {
		out.PrimaryDiagnosis = diagnoses[0].Code
	}
	for _, p := range procedures {
		if p.Known {
			out.Diagnoses = append(out.Diagnoses, CodeNote{Code: p.Code, Description: p.Description})
		}
	}
	return out
}

func summarize(procedure string, f extractors.Findings) string {
	parts := make([]string, 0, 6)
	if f.KLGrade > 0 {
		parts = append(parts, fmt.Sprintf("Kellgren-Lawrence grade %d osteoarthritis", f.KLGrade))
	}
	if f.SymptomWeeks > 0 {
		parts = append(parts, fmt.Sprintf("symptoms for %s", formatWeeks(f.SymptomWeeks)))
	}
	if f.ConservativeWeeks > 0 {
		parts = append(parts, fmt.Sprintf("%s of conservative treatment", formatWeeks(f.ConservativeWeeks)))
	}
	if len(f.Treatments) > 0 {
		parts = append(parts, "treatments tried: "+strings.Join(f.Treatments, ", "))
	}
	if f.BMI > 0 {
		parts = append(parts, fmt.Sprintf("BMI %.1f", f.BMI))
	}
	if len(f.RedFlags) > 0 {
		parts = append(parts, "red flags: "+strings.Join(f.RedFlags, ", "))
	}
	if procedure == "" {
		procedure = "requested procedure"
	}
	if len(parts) == 0 {
		return procedure + " requested; no structured findings documented in the notes."
	}
	return procedure + " requested; " + strings.Join(parts, "; ") + "."
}

func (h *Heuristic) draft(in DraftInput) DraftOutput {
	f := h.notes.Extract(in.ClinicalNotes)

	var sb strings.Builder
	procedure := "the requested procedure"
	if len(in.Procedures) > 0 && in.Procedures[0].Known {
		procedure = in.Procedures[0].Description
	}
	if len(in.Diagnoses) > 0 {
		names := make([]string, 0, len(in.Diagnoses))
		for _, d := range in.Diagnoses {
			names = append(names, fmt.Sprintf("%s (%s)", d.Description, d.Code))
		}
		fmt.Fprintf(&sb, "The patient carries a diagnosis of %s. ", strings.Join(names, "; "))
	}
	fmt.Fprintf(&sb, "We are requesting authorization for %s. ", procedure)
	if f.KLGrade > 0 {
		fmt.Fprintf(&sb, "Imaging demonstrates Kellgren-Lawrence Grade %d changes. ", f.KLGrade)
	}
	if f.ConservativeWeeks > 0 {
		fmt.Fprintf(&sb, "The patient has completed %s of conservative management", formatWeeks(f.ConservativeWeeks))
		if len(f.Treatments) > 0 {
			fmt.Fprintf(&sb, " including %s", strings.Join(f.Treatments, ", "))
		}
		sb.WriteString(" without adequate relief. ")
	}
	if len(f.FunctionalScores) > 0 {
		fmt.Fprintf(&sb, "Functional limitation is documented with %s. ", strings.Join(f.FunctionalScores, ", "))
	}
	if len(f.RedFlags) > 0 {
		fmt.Fprintf(&sb, "Concerning features are present (%s), warranting timely evaluation. ", strings.Join(f.RedFlags, ", "))
	}
	if len(in.Passages) > 0 {
		fmt.Fprintf(&sb, "This request is consistent with %s.", in.Passages[0].Title)
	} else {
		sb.WriteString("The clinical record supports medical necessity for this request.")
	}

	return DraftOutput{
		ClinicalJustification:   strings.TrimSpace(sb.String()),
		SupportingDocumentation: supportingDocuments(f),
	}
}

func supportingDocuments(f extractors.Findings) []string {
	docs := []string{"Clinical notes from the referring physician"}
	if f.KLGrade > 0 || f.Imaging {
		docs = append(docs, "Imaging report")
	}
	if f.ConservativeWeeks > 0 || len(f.Treatments) > 0 {
		docs = append(docs, "Conservative treatment records")
	}
	if len(f.FunctionalScores) > 0 {
		docs = append(docs, "Functional assessment ("+strings.Join(f.FunctionalScores, ", ")+")")
	}
	if f.BMI > 0 {
		docs = append(docs, fmt.Sprintf("BMI documentation (%.1f)", f.BMI))
	}
	if f.MedicalClearance {
		docs = append(docs, "Medical clearance")
	}
	if f.PhysicalExam {
		docs = append(docs, "Physical examination findings")
	}
	return docs
}

func (h *Heuristic) predict(in PredictInput) PredictOutput {
	facts := h.notes.Extract(in.ClinicalNotes).Facts()
	for _, d := range in.Diagnoses {
		if d.Valid && d.Known {
			facts[FactDiagnosisDocumented] = true
			break
		}
	}

	category := in.ProcedureCategory
	if category == "" && len(in.Passages) > 0 {
		category = in.Passages[0].Category
	}
	rules := h.rules.For(in.Payer, category)
	assessment := Assess(rules, facts, len(in.Passages) > 0)
	h.logger.Debug("heuristic assessment",
		slog.String("payer", string(in.Payer)),
		slog.String("category", category),
		slog.Float64("coverage", assessment.Coverage),
		slog.Any("notes", assessment.Notes),
	)

	urgency := "standard"
	if facts[extractors.FactRedFlags] {
		urgency = "urgent"
	}
	score := assessment.Score
	return PredictOutput{
		ConfidenceScore:      &score,
		RiskLevel:            RiskLevel(score),
		Strengths:            nonNil(assessment.Strengths),
		Risks:                nonNil(assessment.Risks),
		MissingDocumentation: nonNil(assessment.Gaps),
		Recommendation:       Recommendation(score),
		Urgency:              urgency,
		KeyQuestions:         KeyQuestions(assessment.Gaps),
		SuggestedReviewer:    SuggestedReviewer(category),
	}
}

func formatWeeks(weeks float64) string {
	if weeks >= 12 {
		months := weeks * 12 / 52
		return fmt.Sprintf("%.0f months", months)
	}
	return fmt.Sprintf("%.0f weeks", weeks)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
