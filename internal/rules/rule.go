// Package rules holds the rule model and the matcher that scores rules
// against the metadata a file's extractors published.
package rules

import (
	"fmt"
	"regexp"

	"autoname/internal/uri"
)

// Condition pairs a metadata URI with a test on its stored value.
type Condition struct {
	Source uri.URI
	Test   Test
}

// Substitution is one rule-scoped regex rewrite applied by the
// post-processor chain.
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Rule describes when a name template applies and where its placeholder
// values come from.
type Rule struct {
	Description string
	ExactMatch  bool
	Bias        float64
	Template    string
	Conditions  []Condition
	// Sources maps each template placeholder to its data-source URIs in
	// priority order.
	Sources map[string][]uri.URI
	// Substitutions are applied to the assembled name before the shared
	// post-processing steps.
	Substitutions []Substitution
}

// DefaultBias applies when the config omits a bias.
const DefaultBias = 1.0

// NewRule fills defaults and validates the shape.
func NewRule(description string) *Rule {
	return &Rule{
		Description: description,
		Bias:        DefaultBias,
		Sources:     make(map[string][]uri.URI),
	}
}

// Validate rejects rules the matcher cannot score.
func (r *Rule) Validate() error {
	if r.Description == "" {
		return fmt.Errorf("rule without description")
	}
	if r.Bias < 0 || r.Bias > 1 {
		return fmt.Errorf("rule %q: bias %v outside [0, 1]", r.Description, r.Bias)
	}
	if r.Template == "" {
		return fmt.Errorf("rule %q: no name template", r.Description)
	}
	for _, cond := range r.Conditions {
		if cond.Source.IsZero() {
			return fmt.Errorf("rule %q: condition without source", r.Description)
		}
		if cond.Test == nil {
			return fmt.Errorf("rule %q: condition %s without test", r.Description, cond.Source)
		}
	}
	return nil
}

// explicitBindings counts the placeholders with configured data sources,
// used as a matcher tie-break.
func (r *Rule) explicitBindings() int {
	n := 0
	for _, sources := range r.Sources {
		if len(sources) > 0 {
			n++
		}
	}
	return n
}

// Fallback is the permissive retry rule: no conditions, minimal bias, a
// conservative template fed from universal defaults.
func Fallback(template string) *Rule {
	rule := NewRule("permissive fallback")
	rule.Bias = 0.01
	rule.Template = template
	return rule
}
