package text

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/testsupport"
)

type fakeRunner struct {
	output []byte
	err    error
	binary string
	args   []string
}

func (r *fakeRunner) Run(_ context.Context, binary string, args ...string) ([]byte, error) {
	r.binary = binary
	r.args = args
	return r.output, r.err
}

func fullField(t *testing.T, probe interface {
	Extract(context.Context, *fileobject.File) (extractor.Raw, error)
}, f *fileobject.File) string {
	t.Helper()
	raw, err := probe.Extract(context.Background(), f)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, field := range raw {
		if field.Name == "full" {
			s, ok := field.Value.(string)
			if !ok {
				t.Fatalf("full field is %T, want string", field.Value)
			}
			return s
		}
	}
	t.Fatal("no full field in record")
	return ""
}

func TestPlainTextExtract(t *testing.T) {
	f := testsupport.NewFile(t, "notes.txt", []byte("Gibson Sjöberg\r\n\r\n\r\nmeow meow\n"))
	got := fullField(t, NewPlainText(), f)
	if !strings.Contains(got, "Gibson Sjoberg") {
		t.Errorf("text = %q, want content kept with diacritics simplified", got)
	}
	if strings.Contains(got, "\r") {
		t.Errorf("text = %q, want CRLF normalized", got)
	}
}

func TestPlainTextLatin1Fallback(t *testing.T) {
	// "smörgås" in Windows-1252.
	f := testsupport.NewFile(t, "legacy.txt", []byte{'s', 'm', 0xf6, 'r', 'g', 0xe5, 's'})
	got := fullField(t, NewPlainText(), f)
	if !strings.Contains(got, "smorgas") {
		t.Errorf("text = %q, want legacy encoding decoded then simplified", got)
	}
}

func TestConverterTable(t *testing.T) {
	probes := NewConverters(&fakeRunner{})
	want := map[string]string{
		"pdf-text":      "pdftotext",
		"djvu-text":     "djvutxt",
		"rtf-text":      "unrtf",
		"markdown-text": "pandoc",
		"tesseract-ocr": "tesseract",
	}
	if len(probes) != len(want) {
		t.Fatalf("got %d converters, want %d", len(probes), len(want))
	}
	for _, probe := range probes {
		if want[probe.Name()] != probe.spec.binary {
			t.Errorf("%s runs %s, want %s", probe.Name(), probe.spec.binary, want[probe.Name()])
		}
		if !probe.Slow() {
			t.Errorf("%s should be slow", probe.Name())
		}
	}
}

func TestConverterExtract(t *testing.T) {
	runner := &fakeRunner{output: []byte("  Meow.\n\n\n\nIncoming transmission.\n")}
	probe := NewConverter("pdf-text", runner)
	if probe == nil {
		t.Fatal("pdf-text converter missing")
	}
	f := testsupport.PDFFile(t, "doc.pdf")

	got := fullField(t, probe, f)
	if got != "Meow.\n\nIncoming transmission." {
		t.Errorf("text = %q, want cleaned converter output", got)
	}
	if runner.binary != "pdftotext" {
		t.Errorf("ran %s, want pdftotext", runner.binary)
	}
	if runner.args[len(runner.args)-2] != f.Path() || runner.args[len(runner.args)-1] != "-" {
		t.Errorf("args = %v, want path then stdout marker", runner.args)
	}
}

func TestConverterToolError(t *testing.T) {
	wantErr := errors.New("conversion failed")
	probe := NewConverter("rtf-text", &fakeRunner{err: wantErr})
	f := testsupport.NewFile(t, "doc.rtf", []byte(`{\rtf1}`))

	if _, err := probe.Extract(context.Background(), f); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestConverterUnknownName(t *testing.T) {
	if probe := NewConverter("no-such-tool", &fakeRunner{}); probe != nil {
		t.Fatalf("got %v, want nil", probe)
	}
}

func TestOCRProbability(t *testing.T) {
	probe := NewConverter("tesseract-ocr", &fakeRunner{})
	spec := probe.FieldSpecs()["full"]
	if spec.Probability >= 1.0 {
		t.Errorf("ocr probability = %v, want below the exact converters", spec.Probability)
	}
}

func epubFixture(t *testing.T, members map[string]string) *fileobject.File {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(members[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f, err := fileobject.New(path)
	if err != nil {
		t.Fatalf("fileobject.New: %v", err)
	}
	return f
}

func TestEPUBTextExtract(t *testing.T) {
	f := epubFixture(t, map[string]string{
		"mimetype": "application/epub+zip",
		"OEBPS/ch01.xhtml": `<html><head><style>p{color:red}</style></head>` +
			`<body><h1>Chapter One</h1><p>It was a dark &amp; stormy night.</p></body></html>`,
		"OEBPS/cover.png": "not html",
	})

	got := fullField(t, NewEPUBText(), f)
	if !strings.Contains(got, "Chapter One") {
		t.Errorf("text = %q, want heading content", got)
	}
	if !strings.Contains(got, "dark & stormy") {
		t.Errorf("text = %q, want entities decoded", got)
	}
	if strings.Contains(got, "color:red") {
		t.Errorf("text = %q, want style body skipped", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("text = %q, want all tags stripped", got)
	}
}

func TestStripMarkup(t *testing.T) {
	cases := []struct{ in, want string }{
		{"<p>hello</p>", "hello"},
		{"plain", "plain"},
		{"<script>var x = 1;</script>after", "after"},
		{"a&nbsp;b", "a b"},
	}
	for _, tc := range cases {
		if got := stripMarkup(tc.in); got != tc.want {
			t.Errorf("stripMarkup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
