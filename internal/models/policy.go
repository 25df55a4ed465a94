package models

import (
	"fmt"
	"strings"
)

// Payer identifies the insurer adjudicating a request.
type Payer string

const (
	PayerUHC   Payer = "UHC"
	PayerAetna Payer = "Aetna"
	PayerBCBS  Payer = "BCBS"
)

// Payers lists the supported payers in display order.
var Payers = []Payer{PayerUHC, PayerAetna, PayerBCBS}

var payerAliases = map[string]Payer{
	"uhc":                    PayerUHC,
	"united healthcare":      PayerUHC,
	"united_healthcare":      PayerUHC,
	"unitedhealthcare":       PayerUHC,
	"aetna":                  PayerAetna,
	"bcbs":                   PayerBCBS,
	"blue cross blue shield": PayerBCBS,
	"blue_cross_blue_shield": PayerBCBS,
}

// ParsePayer resolves an enum value, display name or snake-case identifier.
func ParsePayer(value string) (Payer, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if p, ok := payerAliases[key]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown payer %q", value)
}

// DisplayName returns the payer's full name as it appears in policy text.
func (p Payer) DisplayName() string {
	switch p {
	case PayerUHC:
		return "United Healthcare"
	case PayerAetna:
		return "Aetna"
	case PayerBCBS:
		return "Blue Cross Blue Shield"
	default:
		return string(p)
	}
}

// Valid reports whether p is one of the supported payers.
func (p Payer) Valid() bool {
	for _, known := range Payers {
		if p == known {
			return true
		}
	}
	return false
}

// PolicyDocument is one immutable policy text in the corpus.
type PolicyDocument struct {
	ID       string `json:"id" yaml:"id"`
	Payer    Payer  `json:"payer" yaml:"payer"`
	Category string `json:"category" yaml:"category"`
	Title    string `json:"title" yaml:"title"`
	Text     string `json:"text" yaml:"text"`
}

// PayerPolicy is the structured summary of a payer's requirements for a procedure category.
type PayerPolicy struct {
	Payer                 Payer    `json:"payer" yaml:"payer"`
	Category              string   `json:"category" yaml:"category"`
	CPTCodes              []string `json:"cpt_codes,omitempty" yaml:"cpt_codes"`
	RequiresPriorAuth     bool     `json:"requires_prior_auth" yaml:"requires_prior_auth"`
	RequiredDocumentation []string `json:"required_documentation,omitempty" yaml:"required_documentation"`
	AutoApproveCriteria   []string `json:"auto_approve_criteria,omitempty" yaml:"auto_approve_criteria"`
	TypicalTurnaround     string   `json:"typical_turnaround,omitempty" yaml:"typical_turnaround"`
	AppealWindow          string   `json:"appeal_window,omitempty" yaml:"appeal_window"`
}

// CodeInfo describes a catalog entry for an ICD-10 or CPT/HCPCS code.
type CodeInfo struct {
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}
