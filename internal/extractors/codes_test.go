package extractors

import (
	"testing"

	"github.com/clearpath-health/clearpath/internal/corpus"
)

func TestCodeFormats(t *testing.T) {
	valid := []string{"M17.11", "m54.5", "S83.511A", "G43.909", "I25.10", "Z99"}
	for _, code := range valid {
		if !ValidICD10(code) {
			t.Fatalf("expected %s to be a valid ICD-10 code", code)
		}
	}
	invalid := []string{"", "M1", "17.11", "M17.", "M17.11111", "27447"}
	for _, code := range invalid {
		if ValidICD10(code) {
			t.Fatalf("expected %q to be rejected", code)
		}
	}

	for _, code := range []string{"27447", "0001F", "J0135", " 72148 "} {
		if !ValidProcedureCode(code) {
			t.Fatalf("expected %q to be a valid procedure code", code)
		}
	}
	for _, code := range []string{"123", "2744", "ABCDE", "W1234"} {
		if ValidProcedureCode(code) {
			t.Fatalf("expected %q to be rejected", code)
		}
	}
}

func TestCodeExtractorDescribe(t *testing.T) {
	extractor := NewCodeExtractor(corpus.Default())
	diagnoses, procedures, warnings := extractor.Describe(
		[]string{"m17.11", "M17.11", "Z99.89", "BAD"},
		[]string{"27447", "123"},
	)

	if len(diagnoses) != 3 {
		t.Fatalf("expected duplicates dropped, got %+v", diagnoses)
	}
	if !diagnoses[0].Known || diagnoses[0].Category != "knee" || diagnoses[0].Code != "M17.11" {
		t.Fatalf("unexpected first descriptor: %+v", diagnoses[0])
	}
	if !diagnoses[1].Valid || diagnoses[1].Known {
		t.Fatalf("Z99.89 should be valid but uncataloged: %+v", diagnoses[1])
	}
	if diagnoses[2].Valid {
		t.Fatalf("BAD should be invalid")
	}
	if len(procedures) != 2 || !procedures[0].Known || procedures[1].Valid {
		t.Fatalf("unexpected procedures: %+v", procedures)
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", warnings)
	}
}

func TestCodeExtractorEmptyInput(t *testing.T) {
	_, _, warnings := NewCodeExtractor(nil).Describe(nil, nil)
	if len(warnings) != 2 {
		t.Fatalf("expected warnings for missing codes, got %v", warnings)
	}
}
