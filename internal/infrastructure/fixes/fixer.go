// Package fixes matches raw error messages against a configured pattern
// table and produces ranked fix candidates.
package fixes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/cmdsense/assets"
	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/ports"
)

// corroborationBonus is added to a pattern's base confidence when the
// last command matches one of its command hints, capped at 1.0.
const corroborationBonus = 0.1

// Pattern is one configured error pattern. Declaration order is the tie
// break for equal confidence.
type Pattern struct {
	Pattern        string   `yaml:"pattern"`
	Category       string   `yaml:"category"`
	Description    string   `yaml:"description"`
	Fixes          []string `yaml:"fixes"`
	BaseConfidence float64  `yaml:"base_confidence"`
	CommandHints   []string `yaml:"command_hints"`
}

// PatternsFile is the YAML schema root.
type PatternsFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

type compiledPattern struct {
	re *regexp.Regexp
	Pattern
}

// Fixer implements ports.FixService. Patterns are compiled once at
// construction; classification never fails.
type Fixer struct {
	patterns []compiledPattern
}

// NewFixer loads an error-pattern table from raw YAML.
func NewFixer(raw []byte) (*Fixer, error) {
	var file PatternsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse error patterns: %w", err)
	}
	if len(file.Patterns) == 0 {
		return nil, fmt.Errorf("error patterns: no patterns defined")
	}

	fixer := &Fixer{patterns: make([]compiledPattern, 0, len(file.Patterns))}
	for i, p := range file.Patterns {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("error pattern %d (%q): %w", i, p.Pattern, err)
		}
		if p.BaseConfidence < 0 || p.BaseConfidence > 1 {
			return nil, fmt.Errorf("error pattern %d: base_confidence %.2f outside [0,1]", i, p.BaseConfidence)
		}
		if len(p.Fixes) == 0 {
			return nil, fmt.Errorf("error pattern %d (%s): no fixes listed", i, p.Category)
		}
		fixer.patterns = append(fixer.patterns, compiledPattern{re: re, Pattern: p})
	}
	return fixer, nil
}

// NewDefaultFixer compiles the embedded default pattern table.
func NewDefaultFixer() (*Fixer, error) {
	return NewFixer(assets.DefaultFixesYAML)
}

// Classify matches errorMessage against every pattern and returns the
// matches sorted by confidence descending, ties kept in declaration
// order. An empty result is not an error condition.
func (f *Fixer) Classify(errorMessage, lastCommand string) []domain.FixSuggestion {
	var matches []domain.FixSuggestion
	for _, p := range f.patterns {
		if !p.re.MatchString(errorMessage) {
			continue
		}
		matches = append(matches, domain.FixSuggestion{
			Category:    p.Category,
			Description: p.Description,
			Fixes:       p.Fixes,
			Confidence:  confidence(p.Pattern, lastCommand),
		})
	}
	// SliceStable keeps declaration order for equal confidence.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// QuickFix returns the first fix string of the top-ranked match, or ""
// when nothing matches.
func (f *Fixer) QuickFix(errorMessage, lastCommand string) string {
	matches := f.Classify(errorMessage, lastCommand)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Fixes[0]
}

func confidence(p Pattern, lastCommand string) float64 {
	conf := p.BaseConfidence
	if lastCommand != "" {
		lower := strings.ToLower(lastCommand)
		for _, hint := range p.CommandHints {
			if strings.Contains(lower, strings.ToLower(hint)) {
				conf += corroborationBonus
				break
			}
		}
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

var _ ports.FixService = (*Fixer)(nil)
