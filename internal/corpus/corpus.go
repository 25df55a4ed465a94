package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clearpath-health/clearpath/internal/models"
)

// Corpus bundles the reference data the pipeline reads: policy texts for
// retrieval, structured payer requirements, code catalogs and demo cases.
// It is immutable once loaded.
type Corpus struct {
	Documents   []models.PolicyDocument
	Policies    []models.PayerPolicy
	Diagnoses   map[string]models.CodeInfo
	Procedures  map[string]models.CodeInfo
	SampleCases []models.SampleCase
}

// File is the YAML root structure accepted by Load.
type File struct {
	Documents   []models.PolicyDocument    `yaml:"documents"`
	Policies    []models.PayerPolicy       `yaml:"policies"`
	Diagnoses   map[string]models.CodeInfo `yaml:"diagnoses"`
	Procedures  map[string]models.CodeInfo `yaml:"procedures"`
	SampleCases []models.SampleCase        `yaml:"sample_cases"`
}

// categoryKeywords maps procedure-name fragments to corpus categories, checked in order.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"mri", "MRI"},
	{"magnetic resonance", "MRI"},
	{"knee", "knee_replacement"},
	{"arthroplasty", "knee_replacement"},
	{"catheter", "cardiac_catheterization"},
	{"angiogra", "cardiac_catheterization"},
	{"cardiac", "cardiac_catheterization"},
	{"biologic", "biologics"},
	{"infusion", "biologics"},
	{"injection", "biologics"},
}

// Default returns the built-in corpus.
func Default() *Corpus {
	return &Corpus{
		Documents:   defaultDocuments(),
		Policies:    defaultPolicies(),
		Diagnoses:   defaultDiagnoses(),
		Procedures:  defaultProcedures(),
		SampleCases: defaultSampleCases(),
	}
}

// Load reads a corpus file. An empty path or a missing file yields the
// built-in corpus. Sections present in the file replace the matching default
// section; catalog entries are merged over the defaults.
func Load(path string) (*Corpus, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	if len(file.Documents) > 0 {
		c.Documents = file.Documents
	}
	if len(file.Policies) > 0 {
		c.Policies = file.Policies
	}
	if len(file.SampleCases) > 0 {
		c.SampleCases = file.SampleCases
	}
	for code, info := range file.Diagnoses {
		c.Diagnoses[strings.ToUpper(code)] = info
	}
	for code, info := range file.Procedures {
		c.Procedures[strings.ToUpper(code)] = info
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks document ids are unique and every document and policy names a supported payer.
func (c *Corpus) Validate() error {
	seen := make(map[string]struct{}, len(c.Documents))
	for i, doc := range c.Documents {
		if doc.ID == "" {
			return fmt.Errorf("corpus document %d: missing id", i)
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("corpus document %s: duplicate id", doc.ID)
		}
		seen[doc.ID] = struct{}{}
		if !doc.Payer.Valid() {
			return fmt.Errorf("corpus document %s: unknown payer %q", doc.ID, doc.Payer)
		}
	}
	for _, p := range c.Policies {
		if !p.Payer.Valid() {
			return fmt.Errorf("corpus policy %s: unknown payer %q", p.Category, p.Payer)
		}
	}
	return nil
}

// Policy returns the structured requirements for a payer and procedure category.
func (c *Corpus) Policy(payer models.Payer, category string) (models.PayerPolicy, bool) {
	for _, p := range c.Policies {
		if p.Payer == payer && strings.EqualFold(p.Category, category) {
			return p, true
		}
	}
	return models.PayerPolicy{}, false
}

// Diagnosis looks up an ICD-10 code.
func (c *Corpus) Diagnosis(code string) (models.CodeInfo, bool) {
	info, ok := c.Diagnoses[strings.ToUpper(strings.TrimSpace(code))]
	return info, ok
}

// Procedure looks up a CPT or HCPCS code.
func (c *Corpus) Procedure(code string) (models.CodeInfo, bool) {
	info, ok := c.Procedures[strings.ToUpper(strings.TrimSpace(code))]
	return info, ok
}

// CategoryFor resolves the procedure category from the first cataloged
// procedure code, then from keywords in the procedure name. It returns ""
// when neither matches.
func (c *Corpus) CategoryFor(procedureCodes []string, procedureName string) string {
	for _, code := range procedureCodes {
		if info, ok := c.Procedure(code); ok && info.Category != "" && info.Category != "office_visit" {
			return info.Category
		}
	}
	return CategoryFromName(procedureName)
}

// CategoryFromName maps a free-text procedure name to a corpus category.
func CategoryFromName(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.category
		}
	}
	return ""
}

// SampleCase returns the demo case with the given id.
func (c *Corpus) SampleCase(id string) (models.SampleCase, bool) {
	for _, s := range c.SampleCases {
		if strings.EqualFold(s.ID, id) {
			return s, true
		}
	}
	return models.SampleCase{}, false
}
