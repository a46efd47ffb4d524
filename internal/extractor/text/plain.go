package text

import (
	"context"
	"fmt"
	"io"
	"os"

	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/uri"
)

// maxPlainTextBytes caps how much of a text file is read into the record.
const maxPlainTextBytes = 4 << 20

// PlainText reads text files directly, decoding legacy encodings along the
// way.
type PlainText struct{}

func NewPlainText() *PlainText { return &PlainText{} }

func (*PlainText) Name() string    { return "plain-text" }
func (*PlainText) Version() string { return "1.0" }
func (*PlainText) Domain() string  { return uri.DomainExtractor }

func (*PlainText) HandledMIMETypes() []string {
	return []string{"text/*", "application/json", "application/xml"}
}

func (*PlainText) Slow() bool                   { return false }
func (*PlainText) DependenciesSatisfied() error { return nil }

func (*PlainText) CanHandle(*fileobject.File) bool { return true }

func (*PlainText) FieldSpecs() map[string]extractor.FieldSpec { return fullTextSpec(1.0) }

func (*PlainText) Extract(_ context.Context, f *fileobject.File) (extractor.Raw, error) {
	fh, err := os.Open(f.Path())
	if err != nil {
		return nil, fmt.Errorf("open text file: %w", err)
	}
	defer fh.Close()

	data, err := io.ReadAll(io.LimitReader(fh, maxPlainTextBytes))
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}

	var raw extractor.Raw
	raw.Add("full", cleanOutput(data))
	return raw, nil
}
