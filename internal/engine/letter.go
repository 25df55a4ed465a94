package engine

import (
	"strings"
	"text/template"
	"time"

	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/reasoning"
	"github.com/clearpath-health/clearpath/internal/utils"
)

const letterRule = "============================================================"

var letterTemplate = template.Must(template.New("letter").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(`PRIOR AUTHORIZATION REQUEST
Date: {{.Date}}
{{.Rule}}

TO: {{.PayerName}}
    Prior Authorization Department

FROM: {{.Physician}}
      NPI: {{.NPI}}

RE: Prior Authorization Request for {{.Procedure}}

PATIENT INFORMATION:
  Name: {{.PatientName}}
  Member ID: {{.MemberID}}

PROCEDURE REQUESTED:
  {{.Procedure}}
  CPT Code(s): {{join .ProcedureCodes ", "}}

DIAGNOSIS:
{{range .Diagnoses}}  {{.}}
{{end}}
CLINICAL JUSTIFICATION:
{{.Justification}}

SUPPORTING DOCUMENTATION INCLUDED:
{{range .Supporting}}  - {{.}}
{{end}}
I certify that the above information is accurate and that this procedure
is medically necessary for the care of this patient.

Respectfully,
{{.Physician}}
{{.Rule}}`))

type letterData struct {
	Date           string
	Rule           string
	PayerName      string
	Physician      string
	NPI            string
	Procedure      string
	PatientName    string
	MemberID       string
	ProcedureCodes []string
	Diagnoses      []string
	Justification  string
	Supporting     []string
}

func letterFields(rec models.CaseRecord, draft reasoning.DraftOutput, now time.Time) letterData {
	in := rec.Input
	data := letterData{
		Date:          utils.FormatLetterDate(now),
		Rule:          letterRule,
		PayerName:     rec.Payer.DisplayName(),
		Physician:     orDefault(in.ReferringPhysician, "Physician"),
		NPI:           orDefault(in.PhysicianNPI, "N/A"),
		Procedure:     orDefault(in.ProcedureRequested, "Procedure"),
		PatientName:   orDefault(in.Patient.Name, "Patient"),
		MemberID:      orDefault(in.MemberID, "N/A"),
		Justification: strings.TrimSpace(draft.ClinicalJustification),
		Supporting:    draft.SupportingDocumentation,
	}
	if rec.Diagnosis != nil {
		if rec.Diagnosis.ProcedureName != "" && in.ProcedureRequested == "" {
			data.Procedure = rec.Diagnosis.ProcedureName
		}
		for _, px := range rec.Diagnosis.Procedures {
			data.ProcedureCodes = append(data.ProcedureCodes, describeCode(px))
		}
		for _, dx := range rec.Diagnosis.Diagnoses {
			data.Diagnoses = append(data.Diagnoses, describeCode(dx))
		}
	}
	if len(data.Supporting) == 0 {
		data.Supporting = []string{"Clinical notes", "Imaging results"}
	}
	return data
}

func renderLetter(data letterData) (string, error) {
	var b strings.Builder
	if err := letterTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func describeCode(d models.CodeDescriptor) string {
	return d.Code + " - " + orDefault(d.Description, "Unknown")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
