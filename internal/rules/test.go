package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/fileobject"
)

// Test decides whether one stored value satisfies a condition.
type Test interface {
	Match(v *coerce.Value) bool
	String() string
}

// Equality compares against the value's formatted or normalized form.
type Equality struct {
	want string
}

func NewEquality(want string) Equality { return Equality{want: want} }

func (t Equality) Match(v *coerce.Value) bool {
	if coerce.Format(v) == t.want {
		return true
	}
	return v.Normalized() != "" && v.Normalized() == normalizeExpr(t.want)
}

func (t Equality) String() string { return fmt.Sprintf("equals %q", t.want) }

// Regex matches the pattern anywhere in the formatted value.
type Regex struct {
	pattern *regexp.Regexp
}

func NewRegex(pattern string) (Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regex{}, fmt.Errorf("condition regex: %w", err)
	}
	return Regex{pattern: re}, nil
}

func (t Regex) Match(v *coerce.Value) bool { return t.pattern.MatchString(coerce.Format(v)) }
func (t Regex) String() string             { return fmt.Sprintf("matches /%s/", t.pattern) }

// MIMEGlob matches media types with a "*" wildcard in either half.
type MIMEGlob struct {
	glob string
}

func NewMIMEGlob(glob string) MIMEGlob { return MIMEGlob{glob: glob} }

func (t MIMEGlob) Match(v *coerce.Value) bool {
	return fileobject.MatchesMIMEGlob(coerce.Format(v), t.glob)
}

func (t MIMEGlob) String() string { return fmt.Sprintf("mime %s", t.glob) }

// Comparator applies a numeric relation to int and float values.
type Comparator struct {
	op        string
	threshold float64
}

func NewComparator(op string, threshold float64) (Comparator, error) {
	switch op {
	case ">", "<", ">=", "<=", "=":
		return Comparator{op: op, threshold: threshold}, nil
	}
	return Comparator{}, fmt.Errorf("unknown comparator %q", op)
}

func (t Comparator) Match(v *coerce.Value) bool {
	var n float64
	switch v.Kind() {
	case coerce.KindInt:
		n = float64(v.Int())
	case coerce.KindFloat:
		n = v.Float()
	default:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(coerce.Format(v)), 64)
		if err != nil {
			return false
		}
		n = parsed
	}
	switch t.op {
	case ">":
		return n > t.threshold
	case "<":
		return n < t.threshold
	case ">=":
		return n >= t.threshold
	case "<=":
		return n <= t.threshold
	default:
		return n == t.threshold
	}
}

func (t Comparator) String() string { return fmt.Sprintf("%s %v", t.op, t.threshold) }

// Membership accepts any of a fixed set of strings, compared like Equality.
type Membership struct {
	members []string
}

func NewMembership(members ...string) Membership { return Membership{members: members} }

func (t Membership) Match(v *coerce.Value) bool {
	for _, member := range t.members {
		if NewEquality(member).Match(v) {
			return true
		}
	}
	return false
}

func (t Membership) String() string { return fmt.Sprintf("in {%s}", strings.Join(t.members, ", ")) }

var (
	comparatorExpr = regexp.MustCompile(`^(>=|<=|>|<|=)\s*(-?\d+(?:\.\d+)?)$`)
	membershipExpr = regexp.MustCompile(`^in\s*\[(.*)\]$`)
	mimeGlobExpr   = regexp.MustCompile(`^[a-z0-9*+.-]+/[a-z0-9*+.-]+$`)
)

// ParseTest turns a config condition expression into a Test. Recognized
// shapes, tried in order: numeric comparator (">= 10"), set membership
// ("in [a, b]"), MIME glob ("image/*"), regex (any expression carrying
// regex metacharacters), plain equality for the rest.
func ParseTest(expr string) (Test, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty condition expression")
	}
	if m := comparatorExpr.FindStringSubmatch(expr); m != nil {
		threshold, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("comparator threshold: %w", err)
		}
		return NewComparator(m[1], threshold)
	}
	if m := membershipExpr.FindStringSubmatch(expr); m != nil {
		parts := strings.Split(m[1], ",")
		members := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				members = append(members, part)
			}
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("empty membership set")
		}
		return NewMembership(members...), nil
	}
	// Exact media types route through the glob test too; "+" and "." in
	// types like application/epub+zip must not be read as regex syntax.
	if mimeGlobExpr.MatchString(expr) {
		return NewMIMEGlob(expr), nil
	}
	if expr != regexp.QuoteMeta(expr) {
		return NewRegex(expr)
	}
	return NewEquality(expr), nil
}

func normalizeExpr(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
