// Package resolve selects one value per template placeholder from the
// metadata the extractors published, following the winning rule's
// data-source bindings.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"autoname/internal/coerce"
	"autoname/internal/fileobject"
	"autoname/internal/logging"
	"autoname/internal/metadata"
	"autoname/internal/rules"
	"autoname/internal/uri"
)

// ErrUnresolved marks a placeholder no candidate survived for.
var ErrUnresolved = errors.New("unresolved placeholder")

// ProbeScheduler triggers slow extractors whose output a data source needs.
// *extractor.Runner satisfies it.
type ProbeScheduler interface {
	EnsureProbes(ctx context.Context, f *fileobject.File, probes []string) error
	Ran(f *fileobject.File, probe string) bool
}

// Resolver gathers, dedups, and ranks candidates per placeholder.
type Resolver struct {
	repo      *metadata.Repository
	scheduler ProbeScheduler
	logger    *slog.Logger
}

func New(repo *metadata.Repository, scheduler ProbeScheduler, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{repo: repo, scheduler: scheduler, logger: logger}
}

// candidate is one ranked value for a placeholder.
type candidate struct {
	source      uri.URI
	value       *coerce.Value
	probability float64
	// priority is the index of the data-source URI that produced the
	// candidate; lower is better.
	priority int
	order    int
}

// universalDefaults supplies sources for placeholders the rule leaves
// unbound. The basename partitioner covers the common ones.
var universalDefaults = map[string][]uri.URI{
	"extension": {uri.MustParse("analyzer/filename/ext")},
	"tags":      {uri.MustParse("analyzer/filename/tags")},
	"base":      {uri.MustParse("analyzer/filename/base")},
	"stem":      {uri.MustParse("analyzer/filename/stem")},
	"datetime":  {uri.MustParse("analyzer/filename/datetime")},
}

// Resolve produces a value for every placeholder, running slow probes the
// rule's sources require. Placeholders with no surviving candidate yield
// ErrUnresolved naming the placeholder.
func (r *Resolver) Resolve(ctx context.Context, f *fileobject.File, rule *rules.Rule, placeholders []string) (map[string]*coerce.Value, error) {
	if err := r.ensureSources(ctx, f, rule, placeholders); err != nil {
		return nil, err
	}

	resolved := make(map[string]*coerce.Value, len(placeholders))
	for _, placeholder := range placeholders {
		value, err := r.resolveField(f, rule, placeholder)
		if err != nil {
			return nil, err
		}
		resolved[placeholder] = value
	}
	return resolved, nil
}

// ensureSources schedules the slow probes named by the rule's bindings.
func (r *Resolver) ensureSources(ctx context.Context, f *fileobject.File, rule *rules.Rule, placeholders []string) error {
	if r.scheduler == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var probes []string
	for _, placeholder := range placeholders {
		for _, source := range r.sourcesFor(rule, placeholder) {
			if source.IsGeneric() {
				continue
			}
			probe := source.Probe()
			if _, dup := seen[probe]; dup || probe == "" {
				continue
			}
			seen[probe] = struct{}{}
			probes = append(probes, probe)
		}
	}
	sort.Strings(probes)
	return r.scheduler.EnsureProbes(ctx, f, probes)
}

func (r *Resolver) sourcesFor(rule *rules.Rule, placeholder string) []uri.URI {
	sources := append([]uri.URI(nil), rule.Sources[placeholder]...)
	sources = append(sources, universalDefaults[placeholder]...)
	return sources
}

func (r *Resolver) resolveField(f *fileobject.File, rule *rules.Rule, placeholder string) (*coerce.Value, error) {
	candidates := r.gather(f, rule, placeholder)
	candidates = dedup(candidates)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, placeholder)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return rankBefore(candidates[i], candidates[j]) })

	winner := candidates[0]
	r.logger.Debug("field resolved",
		logging.FieldFile, f.Basename(),
		logging.FieldField, placeholder,
		logging.FieldURI, winner.source.String(),
		"probability", winner.probability,
		"candidates", len(candidates))
	return winner.value, nil
}

// gather follows the bound URIs in order; generic references fan out across
// every published value carrying the generic field.
func (r *Resolver) gather(f *fileobject.File, rule *rules.Rule, placeholder string) []candidate {
	var out []candidate
	order := 0
	add := func(stored metadata.Stored, priority int) {
		if stored.Value == nil || !stored.Value.Truthy() {
			return
		}
		out = append(out, candidate{
			source:      stored.Source,
			value:       stored.Value,
			probability: stored.Probability,
			priority:    priority,
			order:       order,
		})
		order++
	}

	for priority, source := range r.sourcesFor(rule, placeholder) {
		if source.IsGeneric() {
			// Exact hits first, then the generic fan-out.
			for _, stored := range r.repo.QueryAll(f, source) {
				add(stored, priority)
			}
			for _, stored := range r.repo.ResolveGeneric(f, source.GenericField()) {
				add(stored, priority)
			}
			continue
		}
		for _, stored := range r.repo.QueryAll(f, source) {
			add(stored, priority)
		}
	}
	return out
}

// dedup collapses candidates with equal normalized forms, keeping the one
// with the higher probability; ties keep the first seen.
func dedup(candidates []candidate) []candidate {
	kept := make([]candidate, 0, len(candidates))
	index := make(map[string]int)
	for _, c := range candidates {
		norm := c.value.Normalized()
		at, dup := index[norm]
		if !dup {
			index[norm] = len(kept)
			kept = append(kept, c)
			continue
		}
		if c.probability > kept[at].probability {
			kept[at] = c
		}
	}
	return kept
}

// rankBefore is the resolver's total order: probability desc, source
// priority asc, normalized length desc, insertion order asc.
func rankBefore(a, b candidate) bool {
	if a.probability != b.probability {
		return a.probability > b.probability
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if la, lb := len(a.value.Normalized()), len(b.value.Normalized()); la != lb {
		return la > lb
	}
	return a.order < b.order
}
