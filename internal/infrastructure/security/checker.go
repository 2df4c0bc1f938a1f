// Package security classifies command strings into safety severity
// levels using an ordered, priority-ranked table of destructive-pattern
// rules.
package security

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/cmdsense/assets"
	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/ports"
)

// Rule is one regex-based safety rule.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Level   string `yaml:"level"`
	Reason  string `yaml:"reason"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		SafetyPatterns []Rule `yaml:"safety_patterns"`
	} `yaml:"rules"`
}

type compiledRule struct {
	re     *regexp.Regexp
	level  domain.SafetyLevel
	reason string
}

// Checker implements ports.SafetyService. Rules are compiled once at
// construction and evaluated severity-descending; classification itself
// is pure and total for any input string.
type Checker struct {
	dangerous []compiledRule
	warning   []compiledRule
}

const (
	dangerousWarning = "DANGEROUS: This command could cause data loss or system damage!"
	warningWarning   = "WARNING: This command could be destructive. Use with caution."
)

// NewChecker loads rules from raw YAML, preserving declaration order
// within each severity.
func NewChecker(raw []byte) (*Checker, error) {
	var file RulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse safety rules: %w", err)
	}
	if len(file.Rules.SafetyPatterns) == 0 {
		return nil, fmt.Errorf("safety rules: no patterns defined")
	}

	checker := &Checker{}
	for i, rule := range file.Rules.SafetyPatterns {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("safety rule %d (%q): %w", i, rule.Pattern, err)
		}
		compiled := compiledRule{re: re, reason: rule.Reason}
		switch strings.ToLower(rule.Level) {
		case "dangerous":
			compiled.level = domain.SafetyDangerous
			checker.dangerous = append(checker.dangerous, compiled)
		case "warning":
			compiled.level = domain.SafetyWarning
			checker.warning = append(checker.warning, compiled)
		default:
			return nil, fmt.Errorf("safety rule %d: unknown level %q", i, rule.Level)
		}
	}
	return checker, nil
}

// NewDefaultChecker compiles the embedded default rule table.
func NewDefaultChecker() (*Checker, error) {
	return NewChecker(assets.DefaultSafetyYAML)
}

// Classify evaluates command against the rule table. The highest
// severity with at least one match determines the level; every matching
// rule of that severity contributes a reason in table order. No match
// means safe with empty reasons.
func (c *Checker) Classify(command string) domain.SafetyResult {
	if reasons := matchAll(c.dangerous, command); len(reasons) > 0 {
		return domain.SafetyResult{
			Level:   domain.SafetyDangerous,
			Warning: dangerousWarning,
			Reasons: reasons,
		}
	}
	if reasons := matchAll(c.warning, command); len(reasons) > 0 {
		return domain.SafetyResult{
			Level:   domain.SafetyWarning,
			Warning: warningWarning,
			Reasons: reasons,
		}
	}
	return domain.SafetyResult{Level: domain.SafetySafe, Reasons: []string{}}
}

func matchAll(rules []compiledRule, command string) []string {
	var reasons []string
	for _, rule := range rules {
		if rule.re.MatchString(command) {
			reasons = append(reasons, rule.reason)
		}
	}
	return reasons
}

var _ ports.SafetyService = (*Checker)(nil)
