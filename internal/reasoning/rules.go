package reasoning

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clearpath-health/clearpath/internal/models"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// GapRule ties one documentable fact to its weight and review language.
type GapRule struct {
	ID       string    `yaml:"id"`
	Match    RuleMatch `yaml:"match"`
	Fact     string    `yaml:"fact"`
	WaivedBy string    `yaml:"waived_by"`
	Weight   float64   `yaml:"weight"`
	Strength string    `yaml:"strength"`
	Gap      string    `yaml:"gap"`
	Risk     string    `yaml:"risk"`
}

// RuleMatch scopes a rule. Empty lists match everything; fallback rules
// apply only when no category-specific rule matched.
type RuleMatch struct {
	Payers     []string `yaml:"payers"`
	Categories []string `yaml:"categories"`
	Fallback   bool     `yaml:"fallback"`
}

// RuleConfigFile is the YAML root structure.
type RuleConfigFile struct {
	Rules []GapRule `yaml:"rules"`
}

// RuleSet holds the loaded gap rules.
type RuleSet struct {
	rules  []GapRule
	logger *slog.Logger
}

// DefaultRules returns the built-in rule pack.
func DefaultRules() *RuleSet {
	rs, err := parseRules(defaultRulesYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("built-in gap rules: %v", err))
	}
	return rs
}

// LoadRules reads a rule pack from path. An empty path or a missing file
// yields the built-in rules.
func LoadRules(path string, logger *slog.Logger) (*RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if logger != nil {
				logger.Warn("gap rule pack not found, using built-in rules", slog.String("path", path))
			}
			return DefaultRules(), nil
		}
		return nil, err
	}
	return parseRules(data, logger)
}

func parseRules(data []byte, logger *slog.Logger) (*RuleSet, error) {
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse gap rules: %w", err)
	}
	for i, rule := range cfg.Rules {
		if rule.Fact == "" {
			return nil, fmt.Errorf("gap rule %q: fact is required", rule.ID)
		}
		if rule.Weight <= 0 {
			return nil, fmt.Errorf("gap rule %q: weight must be positive", rule.ID)
		}
		for j, p := range rule.Match.Payers {
			payer, err := models.ParsePayer(p)
			if err != nil {
				return nil, fmt.Errorf("gap rule %q: %w", rule.ID, err)
			}
			cfg.Rules[i].Match.Payers[j] = string(payer)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleSet{rules: cfg.Rules, logger: logger}, nil
}

// Len returns the number of rules.
func (r *RuleSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// For returns the rules that apply to payer and category.
func (r *RuleSet) For(payer models.Payer, category string) []GapRule {
	if r == nil {
		return nil
	}
	matched := make([]GapRule, 0)
	for _, rule := range r.rules {
		if rule.Match.Fallback {
			continue
		}
		if len(rule.Match.Categories) > 0 && !containsFold(rule.Match.Categories, category) {
			continue
		}
		if len(rule.Match.Payers) > 0 && !containsFold(rule.Match.Payers, string(payer)) {
			continue
		}
		matched = append(matched, rule)
	}
	if len(matched) > 0 {
		return matched
	}
	for _, rule := range r.rules {
		if rule.Match.Fallback {
			matched = append(matched, rule)
		}
	}
	return matched
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		seen[item] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
