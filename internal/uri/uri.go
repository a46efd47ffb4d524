// Package uri defines the hierarchical identifiers that name where a piece
// of metadata came from and which field it is, e.g.
// "extractor/pdf-metadata/author" or "analyzer/filename/datetime".
package uri

import (
	"fmt"
	"strings"
)

// Well-known source domains.
const (
	DomainExtractor = "extractor"
	DomainAnalyzer  = "analyzer"
	DomainGeneric   = "generic"
)

// URI identifies a metadata source and field. Comparison is
// case-insensitive on the path segments; the display form preserves the
// original case.
type URI struct {
	display  string
	segments []string
}

// Zero is the empty URI.
var Zero = URI{}

// Parse validates and splits a URI string. A URI needs at least a source
// domain and a probe name; field path segments follow.
func Parse(s string) (URI, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "/")
	if trimmed == "" {
		return Zero, fmt.Errorf("empty URI")
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return Zero, fmt.Errorf("URI %q needs at least domain/probe", s)
	}
	segments := make([]string, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Zero, fmt.Errorf("URI %q has an empty segment", s)
		}
		segments[i] = strings.ToLower(part)
	}
	return URI{display: trimmed, segments: segments}, nil
}

// MustParse is Parse for compile-time-constant URIs; it panics on error.
func MustParse(s string) URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Make assembles a URI from its parts.
func Make(domain, probe string, fields ...string) URI {
	parts := append([]string{domain, probe}, fields...)
	return MustParse(strings.Join(parts, "/"))
}

// IsZero reports whether the URI is empty.
func (u URI) IsZero() bool { return len(u.segments) == 0 }

// String returns the display form with original casing.
func (u URI) String() string { return u.display }

// Key returns the canonical lowercase form used for map lookups.
func (u URI) Key() string { return strings.Join(u.segments, "/") }

// Domain returns the source domain segment.
func (u URI) Domain() string {
	if u.IsZero() {
		return ""
	}
	return u.segments[0]
}

// Probe returns the probe-name segment.
func (u URI) Probe() string {
	if len(u.segments) < 2 {
		return ""
	}
	return u.segments[1]
}

// Leaf returns the final field-path segment in lowercase.
func (u URI) Leaf() string {
	if u.IsZero() {
		return ""
	}
	return u.segments[len(u.segments)-1]
}

// Equal compares two URIs segment-by-segment, ignoring case.
func (u URI) Equal(other URI) bool {
	if len(u.segments) != len(other.segments) {
		return false
	}
	for i := range u.segments {
		if u.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// Matches reports whether u satisfies a query pattern whose segments may be
// the wildcard "*".
func (u URI) Matches(query URI) bool {
	if len(u.segments) != len(query.segments) {
		return false
	}
	for i := range query.segments {
		if query.segments[i] == "*" {
			continue
		}
		if u.segments[i] != query.segments[i] {
			return false
		}
	}
	return true
}

// IsGeneric reports whether the URI addresses a generic field alias, e.g.
// "generic/metadata/author". Generic references fan out to every value whose
// generic-field pointer names the same leaf.
func (u URI) IsGeneric() bool { return u.Domain() == DomainGeneric }

// GenericField returns the generic field name addressed by a generic URI.
func (u URI) GenericField() string {
	if !u.IsGeneric() {
		return ""
	}
	return u.Leaf()
}
