// Package extractor defines the uniform contract metadata probes implement
// and the scheduler that runs them: fast probes eagerly, slow probes on
// demand, with per-file memoization of slow output in the persistent cache.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/fileobject"
	"autoname/internal/uri"
)

// FailKind classifies why a probe produced nothing.
type FailKind int

const (
	FailNone FailKind = iota
	FailExternalTool
	FailDecoding
	FailParsing
	FailTimeout
	FailDependency
	FailFilesystem
)

func (k FailKind) String() string {
	switch k {
	case FailExternalTool:
		return "external-tool"
	case FailDecoding:
		return "decoding"
	case FailParsing:
		return "parsing"
	case FailTimeout:
		return "timeout"
	case FailDependency:
		return "dependency"
	case FailFilesystem:
		return "filesystem"
	default:
		return "none"
	}
}

// Failure is the falsy half of a probe outcome. It is threaded through
// resolution without aborting the run: downstream lookups simply find no
// candidates from the failed probe's URIs.
type Failure struct {
	Kind    FailKind
	Message string
	Source  uri.URI
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// FieldSpec declares how the framework types one raw output field.
type FieldSpec struct {
	Kind        coerce.Kind
	Generic     string  // generic field alias, e.g. "date-created"
	Probability float64 // confidence weight hint in [0, 1]
}

// RawField is one untyped key/value pair emitted by a probe.
type RawField struct {
	Name  string
	Value any
}

// Raw is a probe's ordered untyped output. Probes stay free of typing
// concerns; the framework coerces Raw into a typed Record using the probe's
// field specs.
type Raw []RawField

// Add appends a field, skipping nil and empty-string values.
func (r *Raw) Add(name string, value any) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return
	}
	*r = append(*r, RawField{Name: name, Value: value})
}

// Extractor is the four-part probe contract: identity, applicability,
// dependency guard, and the single extraction entry point. Extract must be
// deterministic for identical file contents and configuration.
type Extractor interface {
	// Name identifies the probe in URIs, e.g. "pdf-metadata".
	Name() string
	// Version participates in the persistent cache key.
	Version() string
	// Domain is the URI source domain, extractor or analyzer.
	Domain() string
	// HandledMIMETypes lists exact MIME strings or globs such as "image/*".
	HandledMIMETypes() []string
	// Slow hints the scheduler that extraction shells out or is otherwise
	// expensive; slow probes run on demand and their output is cached.
	Slow() bool
	// DependenciesSatisfied reports whether required external tools or
	// libraries are available. A failure disables the probe for the run.
	DependenciesSatisfied() error
	// CanHandle combines the MIME check with any extra predicates.
	CanHandle(f *fileobject.File) bool
	// FieldSpecs declares the type, generic alias, and weight per field.
	FieldSpecs() map[string]FieldSpec
	// Extract reads the file and emits raw fields.
	Extract(ctx context.Context, f *fileobject.File) (Raw, error)
}

// ID returns the cache identity for an extractor.
func ID(e Extractor) string {
	return e.Name() + "-" + e.Version()
}

// MIMEMatch applies an extractor's declared MIME patterns to a file.
func MIMEMatch(e Extractor, f *fileobject.File) bool {
	for _, pattern := range e.HandledMIMETypes() {
		if fileobject.MatchesMIMEGlob(f.MIMEType(), pattern) {
			return true
		}
	}
	return false
}
