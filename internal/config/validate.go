package config

import (
	"errors"
	"fmt"
	"regexp"

	"autoname/internal/nametemplate"
	"autoname/internal/rules"
	"autoname/internal/uri"
)

// Config errors are fatal at load time.
var (
	ErrSyntax     = errors.New("config syntax")
	ErrUnknownURI = errors.New("unknown metadata uri")
	ErrBadRegex   = errors.New("bad regex")
	ErrBadRule    = errors.New("bad rule")
)

var knownDomains = map[string]struct{}{
	uri.DomainExtractor: {},
	uri.DomainAnalyzer:  {},
	uri.DomainGeneric:   {},
}

// Validate rejects configurations the pipeline cannot run.
func (c *Config) Validate() error {
	for name, template := range c.NameTemplates {
		if err := nametemplate.Validate(template); err != nil {
			return fmt.Errorf("%w: NAME_TEMPLATES.%s: %v", ErrBadRule, name, err)
		}
	}
	for i := range c.Rules {
		if err := c.validateRule(&c.Rules[i]); err != nil {
			return err
		}
	}
	return c.validatePostProcessors()
}

func (c *Config) validateRule(rule *Rule) error {
	label := rule.Description
	if label == "" {
		return fmt.Errorf("%w: rule without description", ErrBadRule)
	}
	if rule.NameTemplate == "" {
		if rule.NameFormat != "" {
			return fmt.Errorf("%w: rule %q references unknown template %q", ErrBadRule, label, rule.NameFormat)
		}
		return fmt.Errorf("%w: rule %q has no name template", ErrBadRule, label)
	}
	if err := nametemplate.Validate(rule.NameTemplate); err != nil {
		return fmt.Errorf("%w: rule %q: %v", ErrBadRule, label, err)
	}
	if rule.Bias != nil && (*rule.Bias < 0 || *rule.Bias > 1) {
		return fmt.Errorf("%w: rule %q: bias %v outside [0, 1]", ErrBadRule, label, *rule.Bias)
	}
	for source, expr := range rule.Conditions {
		if err := validateURI(source); err != nil {
			return fmt.Errorf("rule %q condition: %w", label, err)
		}
		if _, err := rules.ParseTest(expr); err != nil {
			return fmt.Errorf("%w: rule %q condition %s: %v", ErrBadRegex, label, source, err)
		}
	}
	for placeholder, sources := range rule.DataSources {
		if !placeholderKnown(rule.NameTemplate, placeholder) {
			return fmt.Errorf("%w: rule %q binds {%s} which is not in its template", ErrBadRule, label, placeholder)
		}
		for _, source := range sources {
			if err := validateURI(source); err != nil {
				return fmt.Errorf("rule %q data source for {%s}: %w", label, placeholder, err)
			}
		}
	}
	for _, replacement := range rule.Replacements {
		if _, err := regexp.Compile(replacement.Match); err != nil {
			return fmt.Errorf("%w: rule %q replacement %q: %v", ErrBadRegex, label, replacement.Match, err)
		}
	}
	return nil
}

func (c *Config) validatePostProcessors() error {
	// Both case flags set is tolerated; lower wins at compile time.
	for _, replacement := range c.PostProcessors.Replacements {
		if _, err := regexp.Compile(replacement.Match); err != nil {
			return fmt.Errorf("%w: POST_PROCESSORS replacement %q: %v", ErrBadRegex, replacement.Match, err)
		}
	}
	return nil
}

func validateURI(source string) error {
	parsed, err := uri.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnknownURI, source, err)
	}
	if _, ok := knownDomains[parsed.Domain()]; !ok {
		return fmt.Errorf("%w: %q: domain %q", ErrUnknownURI, source, parsed.Domain())
	}
	return nil
}

func placeholderKnown(template, placeholder string) bool {
	for _, name := range nametemplate.Placeholders(template) {
		if name == placeholder {
			return true
		}
	}
	return false
}
