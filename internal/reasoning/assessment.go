package reasoning

import (
	"math"
	"strings"
)

const (
	baseConfidence    = 0.2
	maxConfidence     = 0.95
	noPolicyDiscount  = 0.8
	lowRiskThreshold  = 0.8
	highRiskThreshold = 0.6
)

// Assessment is the outcome of scoring documented facts against gap rules.
type Assessment struct {
	Score     float64
	Coverage  float64
	Strengths []string
	Gaps      []string
	Risks     []string
	Notes     []string
}

// Assess scores facts against rules. Coverage is the satisfied share of rule
// weight; the score maps coverage onto [0.2, 0.95] and is discounted when no
// policy passage supported the request.
func Assess(rules []GapRule, facts map[string]bool, havePolicy bool) Assessment {
	var result Assessment

	total, satisfied := 0.0, 0.0
	for _, rule := range rules {
		total += rule.Weight
		switch {
		case facts[rule.Fact]:
			satisfied += rule.Weight
			result.Strengths = appendUnique(result.Strengths, rule.Strength)
		case rule.WaivedBy != "" && facts[rule.WaivedBy]:
			satisfied += rule.Weight
			result.Notes = append(result.Notes, rule.ID+" waived by "+rule.WaivedBy)
		default:
			result.Gaps = appendUnique(result.Gaps, rule.Gap)
			result.Risks = appendUnique(result.Risks, rule.Risk)
			result.Notes = append(result.Notes, rule.ID+" unmet")
		}
	}

	if total > 0 {
		result.Coverage = satisfied / total
	}
	score := baseConfidence + (1-baseConfidence)*result.Coverage
	if !havePolicy {
		score *= noPolicyDiscount
		result.Risks = appendUnique(result.Risks, "No matching payer policy was retrieved for this request")
	}
	result.Score = math.Round(math.Min(score, maxConfidence)*100) / 100
	return result
}

// RiskLevel buckets a confidence score.
func RiskLevel(score float64) string {
	switch {
	case score >= lowRiskThreshold:
		return "low"
	case score >= highRiskThreshold:
		return "medium"
	default:
		return "high"
	}
}

// Recommendation phrases the next step for a confidence score.
func Recommendation(score float64) string {
	switch {
	case score >= lowRiskThreshold:
		return "Submit: documentation meets payer criteria"
	case score >= highRiskThreshold:
		return "Review: address documentation gaps before submission"
	default:
		return "Hold: significant documentation gaps, obtain additional records"
	}
}

// SuggestedReviewer names the reviewer specialty for a procedure category.
func SuggestedReviewer(category string) string {
	switch strings.ToLower(category) {
	case "knee_replacement":
		return "Orthopedic surgery physician reviewer"
	case "mri":
		return "Radiology physician reviewer"
	case "cardiac_catheterization":
		return "Cardiology physician reviewer"
	case "biologics":
		return "Clinical pharmacist"
	default:
		return "Utilization management nurse"
	}
}

// KeyQuestions turns documentation gaps into questions for the ordering physician.
func KeyQuestions(gaps []string) []string {
	questions := make([]string, 0, len(gaps))
	for _, gap := range gaps {
		questions = append(questions, "Can the ordering physician provide: "+gap+"?")
	}
	return questions
}
