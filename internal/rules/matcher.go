package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"autoname/internal/fileobject"
	"autoname/internal/logging"
	"autoname/internal/metadata"
)

// ErrNoRuleMatched is returned when no rule scores above zero.
var ErrNoRuleMatched = errors.New("no rule matched")

// Evaluation is one rule's score against one file.
type Evaluation struct {
	Rule    *Rule
	Score   float64
	Matched int
	Total   int
}

// Matcher scores configured rules against the repository.
type Matcher struct {
	rules  []*Rule
	logger *slog.Logger
}

func NewMatcher(rules []*Rule, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{rules: rules, logger: logger}
}

// Match evaluates every rule and returns the winner.
func (m *Matcher) Match(repo *metadata.Repository, f *fileobject.File) (*Evaluation, error) {
	evaluations := m.Evaluate(repo, f)
	var candidates []*Evaluation
	for _, ev := range evaluations {
		if ev.Score > 0 {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRuleMatched, f.Basename())
	}

	sort.SliceStable(candidates, func(i, j int) bool { return rankBefore(candidates[i], candidates[j]) })
	winner := candidates[0]
	m.logger.Debug("rule matched",
		logging.FieldFile, f.Basename(),
		logging.FieldRule, winner.Rule.Description,
		"score", winner.Score,
		"matched", winner.Matched,
		"conditions", winner.Total)
	return winner, nil
}

// Evaluate scores all rules without selecting, in configuration order.
func (m *Matcher) Evaluate(repo *metadata.Repository, f *fileobject.File) []*Evaluation {
	evaluations := make([]*Evaluation, 0, len(m.rules))
	for _, rule := range m.rules {
		evaluations = append(evaluations, m.evaluate(repo, f, rule))
	}
	return evaluations
}

func (m *Matcher) evaluate(repo *metadata.Repository, f *fileobject.File, rule *Rule) *Evaluation {
	ev := &Evaluation{Rule: rule, Total: len(rule.Conditions)}
	for _, cond := range rule.Conditions {
		if conditionHolds(repo, f, cond) {
			ev.Matched++
		} else if rule.ExactMatch {
			m.logger.Debug("exact-match rule disqualified",
				logging.FieldFile, f.Basename(),
				logging.FieldRule, rule.Description,
				logging.FieldURI, cond.Source.String())
			return ev
		}
	}
	if ev.Total == 0 {
		// A rule without conditions applies everywhere at full bias.
		ev.Score = rule.Bias
		return ev
	}
	ev.Score = float64(ev.Matched) / float64(ev.Total) * rule.Bias
	return ev
}

// conditionHolds queries the repository and applies the test; a generic URI
// fans out and any matching stored value satisfies the condition.
func conditionHolds(repo *metadata.Repository, f *fileobject.File, cond Condition) bool {
	if cond.Source.IsGeneric() {
		for _, stored := range repo.ResolveGeneric(f, cond.Source.GenericField()) {
			if cond.Test.Match(stored.Value) {
				return true
			}
		}
		return false
	}
	value, err := repo.Query(f, cond.Source)
	if err != nil {
		return false
	}
	return cond.Test.Match(value)
}

// rankBefore is the matcher's total order: score, then bias, then count of
// explicit source bindings, then description.
func rankBefore(a, b *Evaluation) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Rule.Bias != b.Rule.Bias {
		return a.Rule.Bias > b.Rule.Bias
	}
	if ab, bb := a.Rule.explicitBindings(), b.Rule.explicitBindings(); ab != bb {
		return ab > bb
	}
	return a.Rule.Description < b.Rule.Description
}
