package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/extractor/filesystem"
	"autoname/internal/fileobject"
	"autoname/internal/nametemplate"
	"autoname/internal/postprocess"
	"autoname/internal/rules"
	"autoname/internal/uri"
)

// fakePDF stands in for the pdfinfo-backed probe so the pipeline tests do
// not depend on external binaries.
type fakePDF struct{ slow bool }

func (p *fakePDF) Name() string                    { return "pdf-metadata" }
func (p *fakePDF) Version() string                 { return "1" }
func (p *fakePDF) Domain() string                  { return uri.DomainExtractor }
func (p *fakePDF) HandledMIMETypes() []string      { return []string{"application/pdf"} }
func (p *fakePDF) Slow() bool                      { return p.slow }
func (p *fakePDF) DependenciesSatisfied() error    { return nil }
func (p *fakePDF) CanHandle(*fileobject.File) bool { return true }

func (*fakePDF) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"creation-date": {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 1.0},
		"creator":       {Kind: coerce.KindString, Probability: 1.0},
	}
}

func (*fakePDF) Extract(context.Context, *fileobject.File) (extractor.Raw, error) {
	var raw extractor.Raw
	raw.Add("creation-date", "D:20160111124132+00'00'")
	raw.Add("creator", "Chromium")
	return raw, nil
}

type memRecorder struct {
	mu      sync.Mutex
	records map[string]string // path -> status
}

func (r *memRecorder) RecordFile(_ context.Context, path, status, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = make(map[string]string)
	}
	r.records[path] = status
	return nil
}

func condition(t *testing.T, source, expr string) rules.Condition {
	t.Helper()
	test, err := rules.ParseTest(expr)
	if err != nil {
		t.Fatalf("ParseTest(%q): %v", expr, err)
	}
	return rules.Condition{Source: uri.MustParse(source), Test: test}
}

func chromiumRule(t *testing.T) *rules.Rule {
	t.Helper()
	rule := rules.NewRule("pdf from chromium")
	rule.Template = "{datetime} {title}.{extension}"
	rule.Conditions = []rules.Condition{
		condition(t, "generic/metadata/mime-type", "application/pdf"),
		condition(t, "extractor/pdf-metadata/creator", "Chromium"),
	}
	rule.Sources["datetime"] = []uri.URI{uri.MustParse("extractor/pdf-metadata/creation-date")}
	rule.Sources["title"] = []uri.URI{uri.MustParse("analyzer/filename/base")}
	return rule
}

func testExtractors() []extractor.Extractor {
	return []extractor.Extractor{
		filesystem.NewContents(),
		filesystem.NewFiletags("", ""),
		&fakePDF{},
	}
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4\nfake body\n"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func newTestPipeline(settings Settings) *Pipeline {
	settings.Chain = postprocess.DefaultChain()
	settings.Template = nametemplate.DefaultOptions()
	return New(settings, testExtractors())
}

func TestProcessProposesMetadataRename(t *testing.T) {
	path := writePDF(t, t.TempDir(), "gmail.pdf")
	p := newTestPipeline(Settings{Rules: []*rules.Rule{chromiumRule(t)}})

	out := p.Process(context.Background(), path)
	if out.Err != nil {
		t.Fatalf("Process: %v", out.Err)
	}
	if out.State != StateProposed {
		t.Fatalf("state = %s, want %s", out.State, StateProposed)
	}
	if want := "2016-01-11T124132 gmail.pdf"; out.Proposed != want {
		t.Errorf("proposed = %q, want %q", out.Proposed, want)
	}
	if out.Rule != "pdf from chromium" {
		t.Errorf("rule = %q", out.Rule)
	}
}

func TestSlowConditionProbeRunsBeforeMatching(t *testing.T) {
	path := writePDF(t, t.TempDir(), "gmail.pdf")
	rule := chromiumRule(t)
	rule.ExactMatch = true
	settings := Settings{
		Rules:    []*rules.Rule{rule},
		Chain:    postprocess.DefaultChain(),
		Template: nametemplate.DefaultOptions(),
	}
	p := New(settings, []extractor.Extractor{
		filesystem.NewContents(),
		filesystem.NewFiletags("", ""),
		&fakePDF{slow: true},
	})

	out := p.Process(context.Background(), path)
	if out.Err != nil {
		t.Fatalf("Process: %v", out.Err)
	}
	if out.State != StateProposed {
		t.Fatalf("state = %s reason = %q, want %s", out.State, out.Reason, StateProposed)
	}
	if want := "2016-01-11T124132 gmail.pdf"; out.Proposed != want {
		t.Errorf("proposed = %q, want %q", out.Proposed, want)
	}
}

func TestRunCommitsAndRecords(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "gmail.pdf")
	recorder := &memRecorder{}
	p := newTestPipeline(Settings{
		Rules:    []*rules.Rule{chromiumRule(t)},
		Recorder: recorder,
	})

	outcomes, err := p.Run(context.Background(), []string{path}, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := outcomes[0]
	if out.State != StateCommitted {
		t.Fatalf("state = %s, want %s (err: %v)", out.State, StateCommitted, out.Err)
	}

	renamed := filepath.Join(dir, "2016-01-11T124132 gmail.pdf")
	if _, err := os.Stat(renamed); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("original still present: %v", err)
	}
	if got := recorder.records[out.Path]; got != "committed" {
		t.Errorf("recorded status = %q", got)
	}
}

func TestSameNameProposalSkips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Descriptive name.txt")
	if err := os.WriteFile(path, []byte("some descriptive text\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	p := newTestPipeline(Settings{Fallback: rules.Fallback("{base}.{extension}")})

	out := p.Process(context.Background(), path)
	if out.State != StateSkipped || out.Reason != ReasonSameName {
		t.Fatalf("state = %s reason = %q, want skipped/same name (err: %v)", out.State, out.Reason, out.Err)
	}
	if out.Proposed != "Descriptive name.txt" {
		t.Errorf("proposed = %q", out.Proposed)
	}
}

func TestConventionalNameRoundTripsUnderFallback(t *testing.T) {
	names := []string{
		"20160722 Descriptive name.txt",
		"20160722 Descriptive name -- firsttag tagtwo.txt",
	}
	for _, name := range names {
		dir := t.TempDir()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("some descriptive text\n"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		p := newTestPipeline(Settings{Fallback: rules.Fallback("{stem}.{extension}")})

		out := p.Process(context.Background(), path)
		if out.State != StateSkipped || out.Reason != ReasonSameName {
			t.Fatalf("%s: state = %s reason = %q proposed = %q, want skipped/same name (err: %v)",
				name, out.State, out.Reason, out.Proposed, out.Err)
		}
		if out.Proposed != name {
			t.Errorf("proposed = %q, want %q", out.Proposed, name)
		}
	}
}

func TestNoRuleWithoutFallbackSkips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nothing matches.txt")
	if err := os.WriteFile(path, []byte("text\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	p := newTestPipeline(Settings{})

	out := p.Process(context.Background(), path)
	if out.State != StateSkipped || out.Reason != ReasonNoRule {
		t.Fatalf("state = %s reason = %q, want skipped/no rule", out.State, out.Reason)
	}
}

func TestInvalidPathFails(t *testing.T) {
	p := newTestPipeline(Settings{})

	out := p.Process(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if out.State != StateFailed {
		t.Fatalf("state = %s, want %s", out.State, StateFailed)
	}
	if !errors.Is(out.Err, ErrInvalidFile) {
		t.Errorf("err = %v, want ErrInvalidFile", out.Err)
	}
}

func TestCommitRefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "gmail.pdf")
	target := filepath.Join(dir, "2016-01-11T124132 gmail.pdf")
	if err := os.WriteFile(target, []byte("occupied"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	p := newTestPipeline(Settings{Rules: []*rules.Rule{chromiumRule(t)}})

	out := p.Process(context.Background(), path)
	if out.State != StateProposed {
		t.Fatalf("state = %s, want proposed (err: %v)", out.State, out.Err)
	}
	p.Commit(out)
	if out.State != StateSkipped || out.Reason != ReasonTargetExists {
		t.Fatalf("state = %s reason = %q, want skipped/target exists", out.State, out.Reason)
	}
	if !errors.Is(out.Err, ErrNameBuilder) {
		t.Errorf("err = %v, want ErrNameBuilder", out.Err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("original moved despite occupied target: %v", err)
	}
}

func TestSurveyListsPublishedMetadata(t *testing.T) {
	path := writePDF(t, t.TempDir(), "gmail.pdf")
	p := newTestPipeline(Settings{})

	f, stored, err := p.Survey(context.Background(), path)
	if err != nil {
		t.Fatalf("Survey: %v", err)
	}
	if f.Basename() != "gmail.pdf" {
		t.Errorf("basename = %q", f.Basename())
	}
	want := map[string]bool{
		"generic/contents/mime_type":           false,
		"analyzer/filename/base":               false,
		"extractor/pdf-metadata/creation-date": false,
	}
	for _, entry := range stored {
		if _, ok := want[entry.Source.Key()]; ok {
			want[entry.Source.Key()] = true
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("survey missing %s", key)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateNew, StateExtracting, true},
		{StateExtracting, StateResolved, true},
		{StateExtracting, StateSkipped, true},
		{StatePostprocessed, StateProposed, true},
		{StateProposed, StateCommitted, true},
		{StateProposed, StateSkipped, true},
		{StateResolved, StateFailed, true},
		{StateNew, StateProposed, false},
		{StateCommitted, StateFailed, false},
		{StateSkipped, StateExtracting, false},
	}
	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDefaultExtractorsWellFormed(t *testing.T) {
	probes := DefaultExtractors(" -- ", " ")
	if len(probes) == 0 {
		t.Fatal("no probes built")
	}
	seen := make(map[string]bool, len(probes))
	for _, p := range probes {
		if p.Name() == "" || p.Version() == "" {
			t.Errorf("probe %T has empty identity %q %q", p, p.Name(), p.Version())
		}
		if seen[p.Name()] {
			t.Errorf("duplicate probe name %q", p.Name())
		}
		seen[p.Name()] = true
	}
	for _, core := range []string{"contents", "filename", "pdf-metadata", "ebook"} {
		if !seen[core] {
			t.Errorf("probe %q missing from default set", core)
		}
	}
}

func TestFatalClassification(t *testing.T) {
	if !Fatal(Wrap(ErrConfig, "config", "load", "bad yaml", nil)) {
		t.Error("config errors must be fatal")
	}
	if Fatal(Wrap(ErrTemplate, "pipeline", "resolve", "datetime", nil)) {
		t.Error("template errors must not abort the run")
	}
}
