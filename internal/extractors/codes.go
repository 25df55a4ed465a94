package extractors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clearpath-health/clearpath/internal/models"
)

var (
	icd10Pattern = regexp.MustCompile(`^[A-Z][0-9]{2}(\.[0-9A-Z]{1,4})?$`)
	cptPattern   = regexp.MustCompile(`^[0-9]{4}[0-9FTU]$`)
	hcpcsPattern = regexp.MustCompile(`^[A-V][0-9]{4}$`)
)

// Catalog resolves code descriptions. *corpus.Corpus satisfies it.
type Catalog interface {
	Diagnosis(code string) (models.CodeInfo, bool)
	Procedure(code string) (models.CodeInfo, bool)
}

// CodeExtractor validates code formats and enriches codes from a catalog.
type CodeExtractor struct {
	catalog Catalog
}

// NewCodeExtractor constructs a code validator. A nil catalog marks every code unknown.
func NewCodeExtractor(catalog Catalog) *CodeExtractor {
	return &CodeExtractor{catalog: catalog}
}

// NormalizeCode trims and upper-cases a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidICD10 reports whether code is formatted as an ICD-10-CM code.
func ValidICD10(code string) bool {
	return icd10Pattern.MatchString(NormalizeCode(code))
}

// ValidProcedureCode reports whether code is a CPT or HCPCS Level II code.
func ValidProcedureCode(code string) bool {
	c := NormalizeCode(code)
	return cptPattern.MatchString(c) || hcpcsPattern.MatchString(c)
}

// Describe normalizes the submitted codes. Invalid or uncataloged codes are
// kept with a warning; duplicates are dropped.
func (e *CodeExtractor) Describe(diagnosisCodes, procedureCodes []string) (diagnoses, procedures []models.CodeDescriptor, warnings []string) {
	if len(diagnosisCodes) == 0 {
		warnings = append(warnings, "no diagnosis codes supplied")
	}
	if len(procedureCodes) == 0 {
		warnings = append(warnings, "no procedure codes supplied")
	}

	seen := make(map[string]struct{})
	for _, raw := range diagnosisCodes {
		code := NormalizeCode(raw)
		if code == "" {
			continue
		}
		if _, dup := seen["dx:"+code]; dup {
			continue
		}
		seen["dx:"+code] = struct{}{}

		desc := models.CodeDescriptor{Code: code, Valid: ValidICD10(code)}
		if !desc.Valid {
			warnings = append(warnings, fmt.Sprintf("diagnosis code %q is not a valid ICD-10 code", code))
		}
		if e.catalog != nil {
			if info, ok := e.catalog.Diagnosis(code); ok {
				desc.Known = true
				desc.Description = info.Description
				desc.Category = info.Category
			}
		}
		if !desc.Known {
			desc.Description = "Unknown code"
			if desc.Valid {
				warnings = append(warnings, fmt.Sprintf("diagnosis code %q not found in catalog", code))
			}
		}
		diagnoses = append(diagnoses, desc)
	}

	for _, raw := range procedureCodes {
		code := NormalizeCode(raw)
		if code == "" {
			continue
		}
		if _, dup := seen["px:"+code]; dup {
			continue
		}
		seen["px:"+code] = struct{}{}

		desc := models.CodeDescriptor{Code: code, Valid: ValidProcedureCode(code)}
		if !desc.Valid {
			warnings = append(warnings, fmt.Sprintf("procedure code %q is not a valid CPT/HCPCS code", code))
		}
		if e.catalog != nil {
			if info, ok := e.catalog.Procedure(code); ok {
				desc.Known = true
				desc.Description = info.Description
				desc.Category = info.Category
			}
		}
		if !desc.Known {
			desc.Description = "Unknown code"
			if desc.Valid {
				warnings = append(warnings, fmt.Sprintf("procedure code %q not found in catalog", code))
			}
		}
		procedures = append(procedures, desc)
	}
	return diagnoses, procedures, warnings
}
