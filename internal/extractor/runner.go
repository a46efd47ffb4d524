package extractor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"autoname/internal/cache"
	"autoname/internal/fileobject"
	"autoname/internal/logging"
	"autoname/internal/metadata"
	"autoname/internal/shellout"
)

const (
	// DefaultFastTimeout bounds probes that only read the file.
	DefaultFastTimeout = 30 * time.Second
	// DefaultSlowTimeout bounds probes that shell out to converters.
	DefaultSlowTimeout = 300 * time.Second
)

// Option configures the runner.
type Option func(*Runner)

// WithCacheDir enables persistent memoization of slow probe output.
func WithCacheDir(dir string) Option {
	return func(r *Runner) { r.cacheDir = dir }
}

// WithTimeouts overrides the fast/slow wall-clock limits.
func WithTimeouts(fast, slow time.Duration) Option {
	return func(r *Runner) {
		if fast > 0 {
			r.fastTimeout = fast
		}
		if slow > 0 {
			r.slowTimeout = slow
		}
	}
}

// Runner schedules probes for one run. Fast probes always execute; slow
// probes execute on demand when field resolution needs one of their URIs,
// and their typed records are memoized in the persistent cache keyed by
// (content hash, extractor identity).
type Runner struct {
	repo   *metadata.Repository
	logger *slog.Logger

	extractors []Extractor
	disabled   map[string]string // probe name -> reason

	cacheDir string
	caches   map[string]*cache.Store

	fastTimeout time.Duration
	slowTimeout time.Duration

	mu  sync.Mutex
	ran map[string]map[string]bool // file hash -> probe name -> executed
}

// NewRunner prepares a scheduler over the given probes. Probes whose
// dependency guard fails are disabled for the whole run with a single
// startup warning each.
func NewRunner(repo *metadata.Repository, logger *slog.Logger, extractors []Extractor, opts ...Option) *Runner {
	r := &Runner{
		repo:        repo,
		logger:      logging.NewComponentLogger(logger, "extractor"),
		disabled:    make(map[string]string),
		caches:      make(map[string]*cache.Store),
		fastTimeout: DefaultFastTimeout,
		slowTimeout: DefaultSlowTimeout,
		ran:         make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.extractors = make([]Extractor, len(extractors))
	copy(r.extractors, extractors)
	// Extractor name order is the stable order the resolver's tie-breaks
	// rely on; every publish pass re-imposes it.
	sort.Slice(r.extractors, func(i, j int) bool {
		return r.extractors[i].Name() < r.extractors[j].Name()
	})

	for _, e := range r.extractors {
		if err := e.DependenciesSatisfied(); err != nil {
			r.disabled[e.Name()] = err.Error()
			r.logger.Warn("probe disabled, dependency missing",
				logging.String(logging.FieldExtractor, e.Name()),
				logging.Error(err))
		}
	}
	return r
}

// RunFast executes every applicable fast probe for the file, sequentially in
// name order, publishing each record to the repository.
func (r *Runner) RunFast(ctx context.Context, f *fileobject.File) error {
	for _, e := range r.extractors {
		if e.Slow() || !r.applicable(e, f) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runAndPublish(ctx, f, e); err != nil {
			return err
		}
	}
	return nil
}

// EnsureProbes executes the named slow probes that have not yet run for the
// file. Extraction may fan out in parallel; publication is re-serialized in
// extractor name order so the repository's insertion order stays stable.
func (r *Runner) EnsureProbes(ctx context.Context, f *fileobject.File, probes []string) error {
	wanted := make(map[string]bool, len(probes))
	for _, p := range probes {
		wanted[p] = true
	}

	var pending []Extractor
	for _, e := range r.extractors {
		if !wanted[e.Name()] || !r.applicable(e, f) || r.alreadyRan(f, e) {
			continue
		}
		pending = append(pending, e)
	}
	if len(pending) == 0 {
		return nil
	}

	records := make([]*metadata.Record, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range pending {
		i, e := i, e
		g.Go(func() error {
			rec, err := r.extract(gctx, f, e)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, e := range pending {
		if records[i] == nil {
			continue
		}
		if err := r.publish(f, e, records[i]); err != nil {
			return err
		}
	}
	return nil
}

// Ran reports whether the probe has executed for the file.
func (r *Runner) Ran(f *fileobject.File, probe string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ran[f.StrongHash()][probe]
}

// Disabled returns the probes disabled by the dependency guard with their
// reasons.
func (r *Runner) Disabled() map[string]string {
	out := make(map[string]string, len(r.disabled))
	for k, v := range r.disabled {
		out[k] = v
	}
	return out
}

// Close flushes every cache shard touched during the run.
func (r *Runner) Close() error {
	var errs []error
	for _, store := range r.caches {
		if err := store.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) applicable(e Extractor, f *fileobject.File) bool {
	if _, off := r.disabled[e.Name()]; off {
		return false
	}
	return MIMEMatch(e, f) && e.CanHandle(f)
}

func (r *Runner) alreadyRan(f *fileobject.File, e Extractor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ran[f.StrongHash()][e.Name()]
}

func (r *Runner) markRan(f *fileobject.File, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byFile, ok := r.ran[f.StrongHash()]
	if !ok {
		byFile = make(map[string]bool)
		r.ran[f.StrongHash()] = byFile
	}
	byFile[e.Name()] = true
}

func (r *Runner) runAndPublish(ctx context.Context, f *fileobject.File, e Extractor) error {
	rec, err := r.extract(ctx, f, e)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	return r.publish(f, e, rec)
}

// extract produces the probe's typed record, consulting the persistent
// cache for slow probes. A probe failure is logged and yields a nil record;
// it never aborts the pipeline.
func (r *Runner) extract(ctx context.Context, f *fileobject.File, e Extractor) (*metadata.Record, error) {
	r.markRan(f, e)

	if e.Slow() {
		if rec, hit := r.cacheGet(f, e); hit {
			r.logger.Debug("cache hit",
				logging.String(logging.FieldExtractor, e.Name()),
				logging.String(logging.FieldFile, f.Basename()))
			return rec, nil
		}
	}

	timeout := r.fastTimeout
	if e.Slow() {
		timeout = r.slowTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := e.Extract(runCtx, f)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		failure := classify(err)
		r.logger.Warn("probe failed",
			logging.String(logging.FieldExtractor, e.Name()),
			logging.String(logging.FieldFile, f.Basename()),
			logging.String(logging.FieldReason, failure.Kind.String()),
			logging.Error(err))
		return nil, nil
	}

	rec := coerceRaw(r.logger, e, raw)
	if e.Slow() {
		r.cacheSet(f, e, rec)
	}
	return rec, nil
}

func (r *Runner) publish(f *fileobject.File, e Extractor, rec *metadata.Record) error {
	return r.repo.PublishRecord(f, e.Domain(), e.Name(), rec)
}

func (r *Runner) cacheGet(f *fileobject.File, e Extractor) (*metadata.Record, bool) {
	store := r.cacheFor(e)
	if store == nil {
		return nil, false
	}
	data, ok := store.Get(f.StrongHash())
	if !ok {
		return nil, false
	}
	rec, err := decodeRecord(data)
	if err != nil {
		// Treated as a miss; the probe re-runs and overwrites the entry.
		return nil, false
	}
	return rec, true
}

func (r *Runner) cacheSet(f *fileobject.File, e Extractor, rec *metadata.Record) {
	store := r.cacheFor(e)
	if store == nil {
		return
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return
	}
	if err := store.Set(f.StrongHash(), data); err != nil {
		r.logger.Warn("cache write failed",
			logging.String(logging.FieldExtractor, e.Name()),
			logging.Error(err))
	}
}

func (r *Runner) cacheFor(e Extractor) *cache.Store {
	if r.cacheDir == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.caches[e.Name()]; ok {
		return store
	}
	store, err := cache.Open(r.cacheDir, ID(e), r.logger)
	if err != nil {
		r.logger.Warn("cache shard unavailable",
			logging.String(logging.FieldExtractor, e.Name()),
			logging.Error(err))
		r.caches[e.Name()] = nil
		return nil
	}
	r.caches[e.Name()] = store
	return store
}

func classify(err error) *Failure {
	kind := FailParsing
	switch {
	case errors.Is(err, shellout.ErrBinaryMissing):
		kind = FailDependency
	case errors.Is(err, shellout.ErrTimedOut), errors.Is(err, context.DeadlineExceeded):
		kind = FailTimeout
	case errors.Is(err, shellout.ErrToolFailed):
		kind = FailExternalTool
	}
	return &Failure{Kind: kind, Message: err.Error()}
}
