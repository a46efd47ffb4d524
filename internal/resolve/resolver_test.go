package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"autoname/internal/coerce"
	"autoname/internal/fileobject"
	"autoname/internal/metadata"
	"autoname/internal/rules"
	"autoname/internal/testsupport"
	"autoname/internal/uri"
)

type fakeScheduler struct {
	requested [][]string
	ran       map[string]bool
}

func (s *fakeScheduler) EnsureProbes(_ context.Context, _ *fileobject.File, probes []string) error {
	s.requested = append(s.requested, probes)
	return nil
}

func (s *fakeScheduler) Ran(_ *fileobject.File, probe string) bool { return s.ran[probe] }

func publish(t *testing.T, repo *metadata.Repository, f *fileobject.File, source string, v *coerce.Value, probability float64) {
	t.Helper()
	if err := repo.Publish(f, uri.MustParse(source), v, probability); err != nil {
		t.Fatalf("publish %s: %v", source, err)
	}
}

func boundRule(placeholder string, sources ...string) *rules.Rule {
	rule := rules.NewRule("test rule")
	rule.Template = "{" + placeholder + "}"
	for _, s := range sources {
		rule.Sources[placeholder] = append(rule.Sources[placeholder], uri.MustParse(s))
	}
	return rule
}

func TestResolveFollowsSourceOrder(t *testing.T) {
	f := testsupport.PDFFile(t, "gmail.pdf")
	repo := metadata.NewRepository()
	publish(t, repo, f, "extractor/pdf-metadata/creation-date",
		coerce.NewDateTime(time.Date(2016, 1, 11, 12, 41, 32, 0, time.UTC)), 1.0)
	publish(t, repo, f, "analyzer/filename/datetime",
		coerce.NewDateTime(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)), 1.0)

	rule := boundRule("datetime", "extractor/pdf-metadata/creation-date", "analyzer/filename/datetime")
	r := New(repo, nil, nil)

	resolved, err := r.Resolve(context.Background(), f, rule, []string{"datetime"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := resolved["datetime"].Time().Year(); got != 2016 {
		t.Errorf("picked year %d, want the first-priority source", got)
	}
}

func TestResolveGenericFanOut(t *testing.T) {
	f := testsupport.PDFFile(t, "paper.pdf")
	repo := metadata.NewRepository()
	publish(t, repo, f, "extractor/pdf-metadata/author",
		coerce.NewString("Alan Turing").WithGeneric("author"), 1.0)

	rule := boundRule("author", "generic/metadata/author")
	r := New(repo, nil, nil)

	resolved, err := r.Resolve(context.Background(), f, rule, []string{"author"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved["author"].String() != "Alan Turing" {
		t.Errorf("author = %q", resolved["author"])
	}
}

func TestResolveUniversalDefaultExtension(t *testing.T) {
	f := testsupport.TextFile(t, "notes.txt")
	repo := metadata.NewRepository()
	publish(t, repo, f, "analyzer/filename/ext", coerce.NewString("txt"), 1.0)

	rule := boundRule("extension")
	r := New(repo, nil, nil)

	resolved, err := r.Resolve(context.Background(), f, rule, []string{"extension"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved["extension"].String() != "txt" {
		t.Errorf("extension = %q", resolved["extension"])
	}
}

func TestResolveDropsFalsyAndDedups(t *testing.T) {
	f := testsupport.TextFile(t, "book.txt")
	repo := metadata.NewRepository()
	publish(t, repo, f, "extractor/epub-metadata/title", coerce.NewString(""), 1.0)
	publish(t, repo, f, "extractor/pdf-metadata/title", coerce.NewString("Practical  Typography"), 0.5)
	publish(t, repo, f, "extractor/exiftool/title", coerce.NewString("practical typography"), 0.9)

	rule := boundRule("title",
		"extractor/epub-metadata/title",
		"extractor/pdf-metadata/title",
		"extractor/exiftool/title")
	r := New(repo, nil, nil)

	resolved, err := r.Resolve(context.Background(), f, rule, []string{"title"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Both spellings normalize identically; dedup keeps the higher
	// probability, so the exiftool casing wins.
	if resolved["title"].String() != "practical typography" {
		t.Errorf("title = %q", resolved["title"])
	}
}

func TestResolveRanksByProbabilityThenPriority(t *testing.T) {
	f := testsupport.TextFile(t, "doc.txt")
	repo := metadata.NewRepository()
	publish(t, repo, f, "extractor/a/title", coerce.NewString("low confidence"), 0.25)
	publish(t, repo, f, "extractor/b/title", coerce.NewString("high confidence"), 1.0)

	rule := boundRule("title", "extractor/a/title", "extractor/b/title")
	r := New(repo, nil, nil)

	resolved, err := r.Resolve(context.Background(), f, rule, []string{"title"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved["title"].String() != "high confidence" {
		t.Errorf("title = %q, want probability to outrank source priority", resolved["title"])
	}
}

func TestResolveUnresolvedPlaceholder(t *testing.T) {
	f := testsupport.TextFile(t, "empty.txt")
	rule := boundRule("title", "extractor/pdf-metadata/title")
	r := New(metadata.NewRepository(), nil, nil)

	_, err := r.Resolve(context.Background(), f, rule, []string{"title"})
	if !errors.Is(err, ErrUnresolved) {
		t.Fatalf("err = %v, want ErrUnresolved", err)
	}
}

func TestResolveSchedulesBoundProbes(t *testing.T) {
	f := testsupport.PDFFile(t, "doc.pdf")
	repo := metadata.NewRepository()
	publish(t, repo, f, "extractor/pdf-metadata/title", coerce.NewString("Title"), 1.0)

	scheduler := &fakeScheduler{}
	rule := boundRule("title", "extractor/pdf-metadata/title", "generic/metadata/title")
	r := New(repo, scheduler, nil)

	if _, err := r.Resolve(context.Background(), f, rule, []string{"title"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(scheduler.requested) != 1 {
		t.Fatalf("EnsureProbes called %d times, want 1", len(scheduler.requested))
	}
	got := scheduler.requested[0]
	if len(got) != 1 || got[0] != "pdf-metadata" {
		t.Errorf("requested probes = %v, want only the concrete source probe", got)
	}
}

func TestResolveDeterministic(t *testing.T) {
	f := testsupport.TextFile(t, "doc.txt")
	repo := metadata.NewRepository()
	publish(t, repo, f, "extractor/a/title", coerce.NewString("alpha"), 0.5)
	publish(t, repo, f, "extractor/b/title", coerce.NewString("omega"), 0.5)

	rule := boundRule("title", "extractor/a/title", "extractor/b/title")
	r := New(repo, nil, nil)

	first, err := r.Resolve(context.Background(), f, rule, []string{"title"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.Resolve(context.Background(), f, rule, []string{"title"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if again["title"].String() != first["title"].String() {
			t.Fatalf("resolution changed between runs: %q then %q", first["title"], again["title"])
		}
	}
	// Equal probability and length: source priority decides.
	if first["title"].String() != "alpha" {
		t.Errorf("title = %q, want the first-priority source", first["title"])
	}
}
