package metadata

import (
	"errors"
	"testing"

	"autoname/internal/coerce"
	"autoname/internal/fileobject"
	"autoname/internal/testsupport"
	"autoname/internal/uri"
)

func TestPublishIdempotent(t *testing.T) {
	repo := NewRepository()
	f := testsupport.TextFile(t, "subject.txt")
	source := uri.MustParse("extractor/pdf-metadata/author")
	v := coerce.NewString("Jane Roe")

	if err := repo.Publish(f, source, v, 1.0); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := repo.Publish(f, source, coerce.NewString("Jane Roe"), 1.0); err != nil {
		t.Fatalf("identical republish must be a no-op: %v", err)
	}
	if got := repo.QueryAll(f, uri.MustParse("extractor/pdf-metadata/*")); len(got) != 1 {
		t.Errorf("expected one stored entry, got %d", len(got))
	}
}

func TestPublishConflictIsInvariantError(t *testing.T) {
	repo := NewRepository()
	f := testsupport.TextFile(t, "subject.txt")
	source := uri.MustParse("extractor/pdf-metadata/author")

	if err := repo.Publish(f, source, coerce.NewString("Jane Roe"), 1.0); err != nil {
		t.Fatalf("publish: %v", err)
	}
	err := repo.Publish(f, source, coerce.NewString("Someone Else"), 1.0)
	if !errors.Is(err, ErrDeterminism) {
		t.Errorf("conflicting republish: got %v, want ErrDeterminism", err)
	}
}

func TestQueryExact(t *testing.T) {
	repo := NewRepository()
	f := testsupport.TextFile(t, "subject.txt")
	source := uri.MustParse("analyzer/filename/datetime")

	if _, err := repo.Query(f, source); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty repo query: got %v, want ErrNotFound", err)
	}
	v := coerce.NewString("20160722")
	if err := repo.Publish(f, source, v, 1.0); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, err := repo.Query(f, uri.MustParse("Analyzer/Filename/DateTime"))
	if err != nil {
		t.Fatalf("query must be case-insensitive: %v", err)
	}
	if !coerce.Equal(got, v) {
		t.Errorf("query returned %q", got.String())
	}
}

func TestResolveGenericInsertionOrder(t *testing.T) {
	repo := NewRepository()
	f := testsupport.TextFile(t, "subject.txt")

	first := coerce.NewString("From PDF").WithGeneric("title")
	second := coerce.NewString("From EPUB").WithGeneric("title")
	other := coerce.NewString("unrelated")

	mustPublish(t, repo, f, "extractor/pdf-metadata/title", first)
	mustPublish(t, repo, f, "extractor/exiftool/pdf:producer", other)
	mustPublish(t, repo, f, "extractor/epub-metadata/title", second)

	got := repo.ResolveGeneric(f, "title")
	if len(got) != 2 {
		t.Fatalf("expected 2 generic matches, got %d", len(got))
	}
	if got[0].Value.String() != "From PDF" || got[1].Value.String() != "From EPUB" {
		t.Errorf("generic resolution must preserve publish order: %q, %q",
			got[0].Value.String(), got[1].Value.String())
	}
}

func TestByExtractor(t *testing.T) {
	repo := NewRepository()
	f := testsupport.TextFile(t, "subject.txt")
	mustPublish(t, repo, f, "extractor/filesystem/size", coerce.NewInt(18))
	mustPublish(t, repo, f, "extractor/filesystem/mime_type", coerce.NewMIME("text/plain"))
	mustPublish(t, repo, f, "analyzer/filename/base", coerce.NewString("subject"))

	rec := repo.ByExtractor(f, "filesystem")
	if rec.Len() != 2 {
		t.Errorf("ByExtractor fields = %d, want 2", rec.Len())
	}
	if _, ok := rec.Get("base"); ok {
		t.Errorf("ByExtractor must not leak another probe's fields")
	}
}

func TestRecordOrdering(t *testing.T) {
	a := NewRecord()
	a.Set("title", coerce.NewString("short"), 1.0)

	b := NewRecord()
	b.Set("title", coerce.NewString("short"), 1.0)
	b.Set("author", coerce.NewString("someone"), 1.0)

	if Compare(a, b) >= 0 {
		t.Errorf("record with fewer non-empty fields must order lower")
	}
	c := NewRecord()
	c.Set("title", coerce.NewString("a considerably longer title"), 1.0)
	if Compare(a, c) >= 0 {
		t.Errorf("equal field counts must tie-break on normalized length")
	}
}

func TestRecordDeduplicatesNormalizedForms(t *testing.T) {
	rec := NewRecord()
	rec.Set("author", coerce.NewString("Jane Roe"), 0.5)
	rec.Set("author", coerce.NewString("jane  roe"), 0.9)
	rec.Set("author", coerce.NewString("Someone Else"), 0.5)

	fields := rec.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields after dedup, got %d", len(fields))
	}
	if fields[0].Probability != 0.9 {
		t.Errorf("dedup must keep the higher probability, got %v", fields[0].Probability)
	}
}

func mustPublish(t *testing.T, repo *Repository, f *fileobject.File, source string, v *coerce.Value) {
	t.Helper()
	if err := repo.Publish(f, uri.MustParse(source), v, 1.0); err != nil {
		t.Fatalf("publish %s: %v", source, err)
	}
}
