package config

import (
	"fmt"
	"regexp"

	"autoname/internal/nametemplate"
	"autoname/internal/postprocess"
	"autoname/internal/rules"
	"autoname/internal/uri"
)

// CompileRules converts the validated rule maps into matcher rules.
func (c *Config) CompileRules() ([]*rules.Rule, error) {
	compiled := make([]*rules.Rule, 0, len(c.Rules))
	for i := range c.Rules {
		rule, err := compileRule(&c.Rules[i])
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, rule)
	}
	return compiled, nil
}

func compileRule(raw *Rule) (*rules.Rule, error) {
	rule := rules.NewRule(raw.Description)
	rule.ExactMatch = raw.ExactMatch
	if raw.Bias != nil {
		rule.Bias = *raw.Bias
	}
	rule.Template = raw.NameTemplate

	for source, expr := range raw.Conditions {
		test, err := rules.ParseTest(expr)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", raw.Description, err)
		}
		parsed, err := uri.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", raw.Description, err)
		}
		rule.Conditions = append(rule.Conditions, rules.Condition{Source: parsed, Test: test})
	}
	// Map iteration order is random; matcher scoring is order-independent
	// but keep the slice stable for logging.
	sortConditions(rule.Conditions)

	for placeholder, sources := range raw.DataSources {
		for _, source := range sources {
			parsed, err := uri.Parse(source)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", raw.Description, err)
			}
			rule.Sources[placeholder] = append(rule.Sources[placeholder], parsed)
		}
	}

	for _, replacement := range raw.Replacements {
		pattern, err := regexp.Compile(replacement.Match)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", raw.Description, err)
		}
		rule.Substitutions = append(rule.Substitutions, rules.Substitution{
			Pattern:     pattern,
			Replacement: replacement.Replace,
		})
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func sortConditions(conditions []rules.Condition) {
	for i := 1; i < len(conditions); i++ {
		for j := i; j > 0 && conditions[j].Source.Key() < conditions[j-1].Source.Key(); j-- {
			conditions[j], conditions[j-1] = conditions[j-1], conditions[j]
		}
	}
}

// CompileChain builds the shared post-processor chain from POST_PROCESSORS.
func (c *Config) CompileChain() (postprocess.Chain, error) {
	chain := postprocess.Chain{
		Fold:            postprocess.ParseCaseFold(c.PostProcessors.LowercaseFilename, c.PostProcessors.UppercaseFilename),
		SimplifyUnicode: c.PostProcessors.SimplifyUnicode,
		Sanitize:        c.PostProcessors.SanitizeFilename == nil || *c.PostProcessors.SanitizeFilename,
		Restrictive:     c.PostProcessors.SanitizeStrict,
	}
	for _, replacement := range c.PostProcessors.Replacements {
		pattern, err := regexp.Compile(replacement.Match)
		if err != nil {
			return postprocess.Chain{}, fmt.Errorf("%w: %q: %v", ErrBadRegex, replacement.Match, err)
		}
		chain.Substitutions = append(chain.Substitutions, rules.Substitution{
			Pattern:     pattern,
			Replacement: replacement.Replace,
		})
	}
	return chain, nil
}

// TemplateOptions exposes the filetags separators to the name builder.
func (c *Config) TemplateOptions() nametemplate.Options {
	return nametemplate.Options{BetweenTagSep: c.Filetags.BetweenTagSeparator}
}
