package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/reasoning"
	"github.com/clearpath-health/clearpath/internal/retrieval"
)

// caseRun is the state owned by one Process call.
type caseRun struct {
	rec    models.CaseRecord
	review *models.ReviewEntry
}

type stageResult struct {
	status models.TraceStatus
	input  string
	output string
}

type stage struct {
	name models.Stage
	run  func(ctx context.Context, run *caseRun) (stageResult, error)
}

func (p *Pipeline) stageTable() []stage {
	return []stage{
		{name: models.StageExtractDiagnosis, run: p.extractDiagnosis},
		{name: models.StagePolicyLookup, run: p.lookupPolicy},
		{name: models.StageDraftLetter, run: p.draftLetter},
		{name: models.StagePredictApproval, run: p.predictApproval},
		{name: models.StageRouteDecision, run: p.routeDecision},
	}
}

func (p *Pipeline) extractDiagnosis(ctx context.Context, run *caseRun) (stageResult, error) {
	in := run.rec.Input
	result := stageResult{
		input: fmt.Sprintf("diagnosis codes [%s]; procedure codes [%s]; %d chars of notes",
			strings.Join(in.DiagnosisCodes, ", "), strings.Join(in.ProcedureCodes, ", "), len(in.ClinicalNotes)),
	}

	diagnoses, procedures, warnings := p.codes.Describe(in.DiagnosisCodes, in.ProcedureCodes)

	raw, err := p.invoke(ctx, models.StageExtractDiagnosis, reasoning.ExtractInput{
		DiagnosisCodes:     in.DiagnosisCodes,
		ProcedureCodes:     in.ProcedureCodes,
		ProcedureRequested: in.ProcedureRequested,
		ClinicalNotes:      in.ClinicalNotes,
	})
	if err != nil {
		return result, err
	}
	out, err := reasoning.ValidateExtract(raw)
	if err != nil {
		return result, err
	}

	notes := make(map[string]string, len(out.Diagnoses))
	for _, n := range out.Diagnoses {
		notes[strings.ToUpper(strings.TrimSpace(n.Code))] = n.Description
	}
	for i, d := range diagnoses {
		if !d.Known && notes[d.Code] != "" {
			diagnoses[i].Description = notes[d.Code]
		}
	}

	name := strings.TrimSpace(in.ProcedureRequested)
	if name == "" && len(procedures) > 0 {
		name = procedures[0].Description
	}
	category := p.corpus.CategoryFor(in.ProcedureCodes, name)
	if category == "" {
		category = strings.TrimSpace(out.ProcedureCategory)
	}

	run.rec.Diagnosis = &models.Diagnosis{
		Diagnoses:         diagnoses,
		Procedures:        procedures,
		PrimaryDiagnosis:  out.PrimaryDiagnosis,
		ClinicalSummary:   out.ClinicalSummary,
		ProcedureName:     name,
		ProcedureCategory: category,
		Warnings:          warnings,
	}

	result.output = fmt.Sprintf("primary %q; category %q; %d diagnoses, %d procedures",
		out.PrimaryDiagnosis, category, len(diagnoses), len(procedures))
	if len(warnings) > 0 {
		result.status = models.TraceWarning
		result.output += "; warnings: " + strings.Join(warnings, "; ")
	}
	return result, nil
}

// policyQuery joins procedure name, category and payer display name.
func policyQuery(name, category string, payer models.Payer) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{name, strings.ReplaceAll(category, "_", " "), payer.DisplayName()} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, " ")
}

func (p *Pipeline) lookupPolicy(_ context.Context, run *caseRun) (stageResult, error) {
	dx := run.rec.Diagnosis
	query := policyQuery(dx.ProcedureName, dx.ProcedureCategory, run.rec.Payer)
	result := stageResult{input: fmt.Sprintf("query %q, top %d", query, p.topK)}

	var hits []retrieval.Result
	if p.payerScoped {
		hits = p.index.SearchFiltered(query, p.topK, retrieval.Filter{Payer: run.rec.Payer})
	} else {
		hits = p.index.Search(query, p.topK)
	}

	passages := toPassages(hits)
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, fmt.Sprintf("%s (%.3f)", hit.Document.ID, hit.Score))
	}
	run.rec.Passages = passages
	run.rec.RetrievalEmpty = len(passages) == 0

	if policy, ok := p.corpus.Policy(run.rec.Payer, dx.ProcedureCategory); ok {
		run.rec.Policy = &policy
	}

	if run.rec.RetrievalEmpty {
		result.status = models.TraceWarning
		result.output = "no relevant policy passages"
		return result, nil
	}
	result.output = fmt.Sprintf("%d passages: %s", len(passages), strings.Join(ids, ", "))
	if run.rec.Policy != nil {
		result.output += fmt.Sprintf("; structured policy %s/%s", run.rec.Policy.Payer, run.rec.Policy.Category)
	}
	return result, nil
}

func toPassages(hits []retrieval.Result) []models.Passage {
	passages := make([]models.Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, models.Passage{
			DocumentID: hit.Document.ID,
			Payer:      hit.Document.Payer,
			Category:   hit.Document.Category,
			Title:      hit.Document.Title,
			Text:       hit.Document.Text,
			Score:      hit.Score,
		})
	}
	return passages
}

func (p *Pipeline) draftLetter(ctx context.Context, run *caseRun) (stageResult, error) {
	dx := run.rec.Diagnosis
	result := stageResult{input: fmt.Sprintf("%d diagnoses, %d procedures, %d passages",
		len(dx.Diagnoses), len(dx.Procedures), len(run.rec.Passages))}

	raw, err := p.invoke(ctx, models.StageDraftLetter, reasoning.DraftInput{
		ClinicalNotes: run.rec.Input.ClinicalNotes,
		Diagnoses:     dx.Diagnoses,
		Procedures:    dx.Procedures,
		Passages:      run.rec.Passages,
	})
	if err != nil {
		return result, err
	}
	out, err := reasoning.ValidateDraft(raw)
	if err != nil {
		return result, err
	}

	letter, err := renderLetter(letterFields(run.rec, out, p.now()))
	if err != nil {
		return result, fmt.Errorf("render letter: %w", err)
	}
	run.rec.Letter = letter
	result.output = fmt.Sprintf("letter of %d chars, %d supporting documents", len(letter), len(out.SupportingDocumentation))
	return result, nil
}

func (p *Pipeline) predictApproval(ctx context.Context, run *caseRun) (stageResult, error) {
	dx := run.rec.Diagnosis
	result := stageResult{input: fmt.Sprintf("%d diagnoses, %d passages, letter of %d chars",
		len(dx.Diagnoses), len(run.rec.Passages), len(run.rec.Letter))}

	raw, err := p.invoke(ctx, models.StagePredictApproval, reasoning.PredictInput{
		Payer:             run.rec.Payer,
		ProcedureCategory: dx.ProcedureCategory,
		ClinicalNotes:     run.rec.Input.ClinicalNotes,
		Diagnoses:         dx.Diagnoses,
		Procedures:        dx.Procedures,
		Passages:          run.rec.Passages,
		Letter:            run.rec.Letter,
	})
	if err != nil {
		return result, err
	}
	out, err := reasoning.ValidatePredict(raw)
	if err != nil {
		return result, err
	}

	prediction := out.Prediction()
	score := prediction.Confidence
	run.rec.Confidence = &score
	run.rec.Prediction = &prediction

	result.output = fmt.Sprintf("confidence %.2f, risk %s, %d gaps", score, prediction.RiskLevel, len(prediction.Gaps))
	return result, nil
}

func (p *Pipeline) routeDecision(_ context.Context, run *caseRun) (stageResult, error) {
	score := *run.rec.Confidence
	result := stageResult{input: fmt.Sprintf("confidence %.2f, threshold %.2f", score, p.threshold)}

	run.rec.Decision = Route(score, p.threshold)
	if run.rec.Decision == models.DecisionPendingReview {
		entry := reviewEntry(run.rec, p.threshold, p.now())
		run.review = &entry
		result.output = fmt.Sprintf("%s: %s", run.rec.Decision, entry.Reason)
		return result, nil
	}
	result.output = string(run.rec.Decision)
	return result, nil
}
