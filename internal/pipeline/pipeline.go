package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/logging"
	"autoname/internal/metadata"
	"autoname/internal/nametemplate"
	"autoname/internal/postprocess"
	"autoname/internal/resolve"
	"autoname/internal/rules"
	"autoname/internal/uri"
)

// DefaultWorkers bounds the fan-out across independent files.
const DefaultWorkers = 4

// Skip reasons surfaced in outcomes and the run journal.
const (
	ReasonSameName     = "same name"
	ReasonNoRule       = "no rule matched"
	ReasonTargetExists = "target exists"
)

// Recorder persists per-file outcomes. *journal.Run satisfies it.
type Recorder interface {
	RecordFile(ctx context.Context, path, status, proposed, reason string) error
}

// Settings configures a pipeline run.
type Settings struct {
	Rules []*rules.Rule
	// Fallback, when set, is retried after every configured rule fails.
	Fallback *rules.Rule
	Chain    postprocess.Chain
	Template nametemplate.Options
	// CacheDir enables persistent memoization of slow probes; empty disables.
	CacheDir string
	Workers  int
	Recorder Recorder
	Logger   *slog.Logger
}

// Outcome is the terminal result for one input path.
type Outcome struct {
	Path     string
	State    State
	Proposed string // final basename, set from StateProposed on
	Rule     string // winning rule description
	Reason   string
	Err      error
}

// Pipeline wires the extractors, matcher, resolver, builder, and
// post-processors around one shared repository. Safe for concurrent
// Process calls; Commit serializes renames.
type Pipeline struct {
	repo     *metadata.Repository
	runner   *extractor.Runner
	matcher  *rules.Matcher
	resolver *resolve.Resolver

	settings   Settings
	slow       []string
	condProbes []string
	logger     *slog.Logger

	commitMu sync.Mutex
}

// New assembles a pipeline over the given probe set.
func New(settings Settings, extractors []extractor.Extractor) *Pipeline {
	if settings.Logger == nil {
		settings.Logger = logging.NewNop()
	}
	if settings.Workers <= 0 {
		settings.Workers = DefaultWorkers
	}

	repo := metadata.NewRepository()
	var opts []extractor.Option
	if settings.CacheDir != "" {
		opts = append(opts, extractor.WithCacheDir(settings.CacheDir))
	}
	runner := extractor.NewRunner(repo, settings.Logger, extractors, opts...)

	var slow []string
	for _, e := range extractors {
		if e.Slow() {
			slow = append(slow, e.Name())
		}
	}

	logger := logging.NewComponentLogger(settings.Logger, "pipeline")
	return &Pipeline{
		repo:       repo,
		runner:     runner,
		matcher:    rules.NewMatcher(settings.Rules, settings.Logger),
		resolver:   resolve.New(repo, runner, settings.Logger),
		settings:   settings,
		slow:       slow,
		condProbes: conditionProbes(settings.Rules),
		logger:     logger,
	}
}

// conditionProbes lists every extractor a rule condition reads from, so
// those probes can run before matching. Generic sources name no probe and
// are fed by whatever has already published.
func conditionProbes(rs []*rules.Rule) []string {
	seen := make(map[string]struct{})
	var probes []string
	for _, r := range rs {
		for _, cond := range r.Conditions {
			if cond.Source.IsGeneric() {
				continue
			}
			probe := cond.Source.Probe()
			if probe == "" {
				continue
			}
			if _, dup := seen[probe]; dup {
				continue
			}
			seen[probe] = struct{}{}
			probes = append(probes, probe)
		}
	}
	sort.Strings(probes)
	return probes
}

// Close flushes the probe caches.
func (p *Pipeline) Close() error { return p.runner.Close() }

// Run processes every path with bounded fan-out, commits the surviving
// proposals in input order when commit is set, and records the outcomes.
func (p *Pipeline) Run(ctx context.Context, paths []string, commit bool) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			out := p.Process(gctx, path)
			outcomes[i] = out
			if out.Err != nil && Fatal(out.Err) {
				return out.Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	if commit {
		for _, out := range outcomes {
			if out != nil && out.State == StateProposed {
				p.Commit(out)
			}
		}
	}

	if p.settings.Recorder != nil {
		for _, out := range outcomes {
			if out == nil {
				continue
			}
			if err := p.settings.Recorder.RecordFile(ctx, out.Path, out.State.String(), out.Proposed, out.Reason); err != nil {
				p.logger.Warn("journal write failed",
					logging.String(logging.FieldFile, out.Path),
					logging.Error(err))
			}
		}
	}
	return outcomes, nil
}

// Process drives one file to a proposal. The returned outcome is in
// StateProposed, StateSkipped, or StateFailed; committing is separate.
func (p *Pipeline) Process(ctx context.Context, path string) *Outcome {
	out := &Outcome{Path: path, State: StateNew}

	f, err := fileobject.New(path)
	if err != nil {
		return p.fail(out, Wrap(ErrInvalidFile, "pipeline", "open", path, err))
	}
	out.Path = f.Path()
	defer p.repo.Clear(f)

	p.advance(out, f, StateExtracting)
	if err := p.runner.RunFast(ctx, f); err != nil {
		return p.fail(out, Wrap(ErrFilesystem, "pipeline", "extract", f.Basename(), err))
	}
	// Resolution depends on the MIME probe and the basename partitioner.
	if !p.runner.Ran(f, "contents") || !p.runner.Ran(f, "filename") {
		return p.fail(out, Wrap(ErrAssertion, "pipeline", "extract", "core probes did not run", nil))
	}
	// Conditions may read slow extractors; their probes run before scoring.
	if len(p.condProbes) > 0 {
		if err := p.runner.EnsureProbes(ctx, f, p.condProbes); err != nil {
			return p.fail(out, Wrap(ErrFilesystem, "pipeline", "extract", f.Basename(), err))
		}
	}

	evaluation, err := p.match(f)
	if err != nil {
		if errors.Is(err, rules.ErrNoRuleMatched) {
			out.State = StateSkipped
			out.Reason = ReasonNoRule
			p.logger.Info("no rule matched",
				logging.String(logging.FieldFile, f.Basename()))
			return out
		}
		return p.fail(out, err)
	}
	rule := evaluation.Rule
	out.Rule = rule.Description

	placeholders := nametemplate.Placeholders(rule.Template)
	values, err := p.resolver.Resolve(ctx, f, rule, placeholders)
	if err != nil {
		return p.fail(out, Wrap(ErrTemplate, "pipeline", "resolve", rule.Description, err))
	}
	p.advance(out, f, StateResolved)

	assembled, err := nametemplate.Build(rule.Template, values, p.settings.Template)
	if err != nil {
		return p.fail(out, Wrap(ErrNameBuilder, "pipeline", "build", rule.Description, err))
	}
	p.advance(out, f, StateBuilt)

	chain := p.settings.Chain
	if len(rule.Substitutions) > 0 {
		merged := make([]rules.Substitution, 0, len(rule.Substitutions)+len(chain.Substitutions))
		merged = append(merged, rule.Substitutions...)
		merged = append(merged, chain.Substitutions...)
		chain = chain.WithSubstitutions(merged)
	}
	proposed := chain.Apply(assembled)
	if proposed == "" {
		return p.fail(out, Wrap(ErrNameBuilder, "pipeline", "postprocess", "name emptied", nil))
	}
	p.advance(out, f, StatePostprocessed)

	out.Proposed = proposed
	if proposed == f.Basename() {
		out.State = StateSkipped
		out.Reason = ReasonSameName
		p.logger.Info("proposal matches current name",
			logging.String(logging.FieldFile, f.Basename()))
		return out
	}

	p.advance(out, f, StateProposed)
	p.logger.Info("rename proposed",
		logging.String(logging.FieldFile, f.Basename()),
		logging.String(logging.FieldProposed, proposed),
		logging.String(logging.FieldRule, rule.Description))
	return out
}

// Commit performs the rename for a proposed outcome. Renames run one at a
// time so two proposals can never race for the same target.
func (p *Pipeline) Commit(out *Outcome) {
	if out.State != StateProposed {
		return
	}
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	target := filepath.Join(filepath.Dir(out.Path), out.Proposed)
	if _, err := os.Lstat(target); err == nil {
		out.State = StateSkipped
		out.Reason = ReasonTargetExists
		out.Err = Wrap(ErrNameBuilder, "pipeline", "commit", target, fs.ErrExist)
		p.logger.Warn("rename target already exists",
			logging.String(logging.FieldFile, out.Path),
			logging.String(logging.FieldProposed, out.Proposed))
		return
	}
	if err := os.Rename(out.Path, target); err != nil {
		p.fail(out, Wrap(ErrFilesystem, "pipeline", "commit", out.Path, err))
		return
	}
	out.State = StateCommitted
	p.logger.Info("renamed",
		logging.String(logging.FieldFile, filepath.Base(out.Path)),
		logging.String(logging.FieldProposed, out.Proposed))
}

// Survey runs every applicable probe for the file and returns everything
// published, for the metadata listing commands.
func (p *Pipeline) Survey(ctx context.Context, path string) (*fileobject.File, []metadata.Stored, error) {
	f, err := fileobject.New(path)
	if err != nil {
		return nil, nil, Wrap(ErrInvalidFile, "pipeline", "open", path, err)
	}
	defer p.repo.Clear(f)

	if err := p.runner.RunFast(ctx, f); err != nil {
		return nil, nil, Wrap(ErrFilesystem, "pipeline", "extract", f.Basename(), err)
	}
	if err := p.runner.EnsureProbes(ctx, f, p.slow); err != nil {
		return nil, nil, Wrap(ErrFilesystem, "pipeline", "extract", f.Basename(), err)
	}
	return f, p.repo.QueryAll(f, uri.Make("*", "*", "*")), nil
}

// match scores the configured rules, retrying with the permissive fallback
// when nothing applies.
func (p *Pipeline) match(f *fileobject.File) (*rules.Evaluation, error) {
	evaluation, err := p.matcher.Match(p.repo, f)
	if err == nil {
		return evaluation, nil
	}
	if !errors.Is(err, rules.ErrNoRuleMatched) || p.settings.Fallback == nil {
		return nil, err
	}
	p.logger.Debug("retrying with permissive fallback",
		logging.String(logging.FieldFile, f.Basename()))
	return rules.NewMatcher([]*rules.Rule{p.settings.Fallback}, p.settings.Logger).Match(p.repo, f)
}

func (p *Pipeline) advance(out *Outcome, f *fileobject.File, to State) {
	if !CanTransition(out.State, to) {
		// Transition table and the step order above must agree.
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", out.State, to))
	}
	out.State = to
	p.logger.Debug("state change",
		logging.String(logging.FieldFile, f.Basename()),
		logging.String(logging.FieldState, to.String()))
}

func (p *Pipeline) fail(out *Outcome, err error) *Outcome {
	out.State = StateFailed
	out.Err = err
	out.Reason = err.Error()
	p.logger.Warn("file failed",
		logging.String(logging.FieldFile, out.Path),
		logging.Error(err))
	return out
}
