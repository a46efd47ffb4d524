// Package nametemplate parses `{name}` placeholder templates and assembles
// file names from resolved field values.
package nametemplate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/textutil"
)

// ErrSyntax covers template problems: unknown placeholder, missing mapping,
// wrong value kind.
var ErrSyntax = errors.New("name template syntax")

// ErrBuild marks an assembled name that is unusable (empty).
var ErrBuild = errors.New("name builder")

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Placeholders extracts the unique placeholder names in order of first
// appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Options carries the separators the tag formatter needs.
type Options struct {
	BetweenTagSep string
}

// DefaultOptions matches the filetags convention defaults.
func DefaultOptions() Options {
	return Options{BetweenTagSep: " "}
}

// fieldClass declares which value kinds a placeholder accepts and how its
// value renders.
type fieldClass struct {
	kinds  []coerce.Kind
	render func(v *coerce.Value, opts Options) string
}

const datetimeLayout = "2006-01-02T150405"

var classes = map[string]fieldClass{
	"datetime": {
		kinds:  []coerce.Kind{coerce.KindDateTime},
		render: func(v *coerce.Value, _ Options) string { return v.Time().Format(datetimeLayout) },
	},
	"date": {
		kinds:  []coerce.Kind{coerce.KindDateTime},
		render: func(v *coerce.Value, _ Options) string { return v.Time().Format("2006-01-02") },
	},
	"year": {
		kinds: []coerce.Kind{coerce.KindDateTime, coerce.KindInt, coerce.KindString},
		render: func(v *coerce.Value, _ Options) string {
			if v.Kind() == coerce.KindDateTime {
				return v.Time().Format("2006")
			}
			return strings.TrimSpace(coerce.Format(v))
		},
	},
	"title": {
		kinds:  []coerce.Kind{coerce.KindString},
		render: func(v *coerce.Value, _ Options) string { return textutil.NormalizeTitle(v.String()) },
	},
	"base": {
		kinds:  []coerce.Kind{coerce.KindString},
		render: func(v *coerce.Value, _ Options) string { return strings.TrimSpace(v.String()) },
	},
	"stem": {
		kinds:  []coerce.Kind{coerce.KindString},
		render: func(v *coerce.Value, _ Options) string { return strings.TrimSpace(v.String()) },
	},
	"description": {
		kinds:  []coerce.Kind{coerce.KindString},
		render: func(v *coerce.Value, _ Options) string { return strings.TrimSpace(v.String()) },
	},
	"author": {
		kinds:  []coerce.Kind{coerce.KindString, coerce.KindList},
		render: renderAuthors,
	},
	"authors": {
		kinds:  []coerce.Kind{coerce.KindString, coerce.KindList},
		render: renderAuthors,
	},
	"publisher": {
		kinds:  []coerce.Kind{coerce.KindString},
		render: func(v *coerce.Value, _ Options) string { return strings.TrimSpace(v.String()) },
	},
	"edition": {
		kinds:  []coerce.Kind{coerce.KindString, coerce.KindInt},
		render: func(v *coerce.Value, _ Options) string { return strings.TrimSpace(coerce.Format(v)) },
	},
	"extension": {
		kinds:  []coerce.Kind{coerce.KindString},
		render: func(v *coerce.Value, _ Options) string {
			return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(v.String()), "."))
		},
	},
	"tags": {
		kinds:  []coerce.Kind{coerce.KindList, coerce.KindString},
		render: renderTags,
	},
	"isbn": {
		kinds:  []coerce.Kind{coerce.KindString},
		render: func(v *coerce.Value, _ Options) string { return strings.TrimSpace(v.String()) },
	},
}

// renderAuthors joins the normalized surname of each author with commas.
func renderAuthors(v *coerce.Value, _ Options) string {
	var names []string
	switch v.Kind() {
	case coerce.KindList:
		for _, item := range v.List() {
			names = append(names, item.String())
		}
	default:
		names = append(names, v.String())
	}
	surnames := make([]string, 0, len(names))
	for _, name := range names {
		if s := surname(name); s != "" {
			surnames = append(surnames, s)
		}
	}
	return strings.Join(surnames, ", ")
}

// surname takes the last name-token that is not an initial.
func surname(name string) string {
	fields := strings.Fields(textutil.CollapseWhitespace(name))
	if len(fields) == 0 {
		return ""
	}
	for i := len(fields) - 1; i >= 0; i-- {
		if !isInitials(fields[i]) {
			return strings.Trim(fields[i], ".,")
		}
	}
	return strings.Trim(fields[len(fields)-1], ".,")
}

// isInitials reports whether a token like "J.M." or "G" is only initials.
func isInitials(token string) bool {
	pieces := strings.FieldsFunc(token, func(r rune) bool { return r == '.' || r == ',' })
	for _, piece := range pieces {
		if len([]rune(piece)) > 1 {
			return false
		}
	}
	return true
}

func renderTags(v *coerce.Value, opts Options) string {
	sep := opts.BetweenTagSep
	if sep == "" {
		sep = " "
	}
	if v.Kind() == coerce.KindString {
		return strings.TrimSpace(v.String())
	}
	var tags []string
	for _, item := range v.List() {
		if s := strings.TrimSpace(item.String()); s != "" {
			tags = append(tags, s)
		}
	}
	return strings.Join(tags, sep)
}

// Validate reports whether every placeholder in the template names a known
// field class.
func Validate(template string) error {
	names := Placeholders(template)
	if len(names) == 0 {
		return fmt.Errorf("%w: template %q has no placeholders", ErrSyntax, template)
	}
	for _, name := range names {
		if _, ok := classes[name]; !ok {
			return fmt.Errorf("%w: unknown placeholder {%s}", ErrSyntax, name)
		}
	}
	return nil
}

// Build assembles the template from resolved values. Every placeholder must
// have a mapping of an accepted kind; an empty assembled name fails.
func Build(template string, values map[string]*coerce.Value, opts Options) (string, error) {
	assembled := template
	for _, name := range Placeholders(template) {
		class, ok := classes[name]
		if !ok {
			return "", fmt.Errorf("%w: unknown placeholder {%s}", ErrSyntax, name)
		}
		value, ok := values[name]
		if !ok || value == nil {
			return "", fmt.Errorf("%w: no value for {%s}", ErrSyntax, name)
		}
		if !kindAccepted(class, value.Kind()) {
			return "", fmt.Errorf("%w: {%s} cannot take a %s value", ErrSyntax, name, value.Kind())
		}
		assembled = strings.ReplaceAll(assembled, "{"+name+"}", class.render(value, opts))
	}
	if strings.TrimSpace(assembled) == "" {
		return "", fmt.Errorf("%w: assembled name is empty", ErrBuild)
	}
	return assembled, nil
}

func kindAccepted(class fieldClass, kind coerce.Kind) bool {
	for _, k := range class.kinds {
		if k == kind {
			return true
		}
	}
	return false
}
