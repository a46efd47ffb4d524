// Package postprocess applies the final, purely textual transformations to
// an assembled file name. Every step is a pure string function, so the
// whole chain is deterministic for a fixed configuration.
package postprocess

import (
	"strings"

	"autoname/internal/rules"
	"autoname/internal/textutil"
)

// CaseFold selects the case transformation.
type CaseFold int

const (
	FoldNone CaseFold = iota
	FoldLower
	FoldUpper
)

// ParseCaseFold resolves the config flags; lower wins when both are set.
func ParseCaseFold(lower, upper bool) CaseFold {
	switch {
	case lower:
		return FoldLower
	case upper:
		return FoldUpper
	default:
		return FoldNone
	}
}

// Chain is the ordered transformation pipeline: rule substitutions, case
// folding, unicode simplification, filesystem sanitization.
type Chain struct {
	Substitutions   []rules.Substitution
	Fold            CaseFold
	SimplifyUnicode bool
	Sanitize        bool
	Restrictive     bool
}

// DefaultChain sanitizes leniently and leaves everything else off.
func DefaultChain() Chain {
	return Chain{Sanitize: true}
}

// WithSubstitutions returns a copy carrying the winning rule's rewrites.
func (c Chain) WithSubstitutions(subs []rules.Substitution) Chain {
	c.Substitutions = subs
	return c
}

// Apply runs the chain.
func (c Chain) Apply(name string) string {
	for _, sub := range c.Substitutions {
		if sub.Pattern != nil {
			name = sub.Pattern.ReplaceAllString(name, sub.Replacement)
		}
	}
	switch c.Fold {
	case FoldLower:
		name = strings.ToLower(name)
	case FoldUpper:
		name = strings.ToUpper(name)
	}
	if c.SimplifyUnicode {
		name = textutil.SimplifyUnicode(name)
	}
	if c.Sanitize {
		name = textutil.SanitizeFileName(name, c.Restrictive)
	}
	return name
}
