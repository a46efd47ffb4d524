package metadata

import (
	"errors"
	"fmt"
	"sync"

	"autoname/internal/coerce"
	"autoname/internal/fileobject"
	"autoname/internal/uri"
)

// ErrDeterminism is raised when an extractor publishes a different value for
// a URI it already populated. Extractors must be deterministic, so this is
// an internal invariant failure.
var ErrDeterminism = errors.New("conflicting republish")

// ErrNotFound marks an exact query with no stored value.
var ErrNotFound = errors.New("no value stored")

// Stored is one published value with its origin.
type Stored struct {
	Source      uri.URI
	Value       *coerce.Value
	Probability float64
}

// Candidate is a Stored value offered for a specific template field.
type Candidate struct {
	Source      uri.URI
	Value       *coerce.Value
	Probability float64
	Field       string
}

// Repository is the per-run typed metadata store. Extractors publish into
// it; the rule matcher and field resolver read from it. A coarse
// reader-writer lock guards the maps; publish order per file is preserved
// because the resolver's tie-breaks depend on it.
type Repository struct {
	mu      sync.RWMutex
	entries map[string][]Stored // keyed by file strong hash, insertion order
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{entries: make(map[string][]Stored)}
}

// Publish stores a value for (file, uri). Publishing an identical value
// twice is a no-op; publishing a different value for an occupied URI returns
// ErrDeterminism.
func (r *Repository) Publish(f *fileobject.File, source uri.URI, value *coerce.Value, probability float64) error {
	if value == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := f.StrongHash()
	for _, existing := range r.entries[key] {
		if !existing.Source.Equal(source) {
			continue
		}
		if coerce.Equal(existing.Value, value) {
			return nil
		}
		return fmt.Errorf("%w: %s already holds %q, got %q",
			ErrDeterminism, source, existing.Value.String(), value.String())
	}
	r.entries[key] = append(r.entries[key], Stored{Source: source, Value: value, Probability: probability})
	return nil
}

// PublishRecord publishes every field of an extractor record under
// domain/probe/field URIs.
func (r *Repository) PublishRecord(f *fileobject.File, domain, probe string, rec *Record) error {
	if rec == nil {
		return nil
	}
	for _, field := range rec.Fields() {
		if err := r.Publish(f, uri.Make(domain, probe, field.Name), field.Value, field.Probability); err != nil {
			return err
		}
	}
	return nil
}

// Query returns the value stored at the exact URI.
func (r *Repository) Query(f *fileobject.File, source uri.URI) (*coerce.Value, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries[f.StrongHash()] {
		if entry.Source.Equal(source) {
			return entry.Value, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
}

// QueryAll returns every stored value matching a URI pattern (segments may
// be "*"), in publish order.
func (r *Repository) QueryAll(f *fileobject.File, pattern uri.URI) []Stored {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Stored
	for _, entry := range r.entries[f.StrongHash()] {
		if entry.Source.Matches(pattern) {
			out = append(out, entry)
		}
	}
	return out
}

// ResolveGeneric returns every stored value whose generic-field pointer
// matches, across all URIs, in publish order.
func (r *Repository) ResolveGeneric(f *fileobject.File, genericField string) []Stored {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Stored
	for _, entry := range r.entries[f.StrongHash()] {
		if entry.Value.Generic() == genericField {
			out = append(out, entry)
		}
	}
	return out
}

// ByExtractor collects everything one probe published for a file into a
// Record keyed by field leaf name.
func (r *Repository) ByExtractor(f *fileobject.File, probe string) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec := NewRecord()
	for _, entry := range r.entries[f.StrongHash()] {
		if entry.Source.Probe() == probe {
			rec.Set(entry.Source.Leaf(), entry.Value, entry.Probability)
		}
	}
	return rec
}

// Clear drops everything stored for the file. Called when a pipeline run
// finishes with it.
func (r *Repository) Clear(f *fileobject.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, f.StrongHash())
}
