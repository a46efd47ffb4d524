package document

import (
	"context"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/isbn"
	"autoname/internal/shellout"
	"autoname/internal/uri"
)

// maxISBNCandidates caps network lookups per file.
const maxISBNCandidates = 3

// EbookAnalyzer finds ISBN numbers in a book file and resolves them to
// bibliographic metadata through the lookup services. Candidates come from
// the basename, the EPUB package metadata, and the first pages of PDF text.
type EbookAnalyzer struct {
	runner shellout.Runner
	client *isbn.Client
}

// NewEbookAnalyzer builds the analyzer; nil arguments select the real
// subprocess runner and default lookup services.
func NewEbookAnalyzer(runner shellout.Runner, client *isbn.Client) *EbookAnalyzer {
	if runner == nil {
		runner = shellout.New(0)
	}
	if client == nil {
		client = isbn.NewClient(nil)
	}
	return &EbookAnalyzer{runner: runner, client: client}
}

func (*EbookAnalyzer) Name() string    { return "ebook" }
func (*EbookAnalyzer) Version() string { return "1.0" }
func (*EbookAnalyzer) Domain() string  { return uri.DomainAnalyzer }

func (*EbookAnalyzer) HandledMIMETypes() []string {
	return []string{"application/pdf", "application/epub+zip"}
}

func (*EbookAnalyzer) Slow() bool                   { return true }
func (*EbookAnalyzer) DependenciesSatisfied() error { return nil }

func (*EbookAnalyzer) CanHandle(*fileobject.File) bool { return true }

func (*EbookAnalyzer) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"isbn":      {Kind: coerce.KindString, Probability: 1.0},
		"title":     {Kind: coerce.KindString, Generic: "title", Probability: 0.66},
		"author":    {Kind: coerce.KindList, Generic: "author", Probability: 0.66},
		"publisher": {Kind: coerce.KindString, Generic: "publisher", Probability: 0.66},
		"year":      {Kind: coerce.KindInt, Generic: "date-created", Probability: 0.66},
	}
}

func (a *EbookAnalyzer) Extract(ctx context.Context, f *fileobject.File) (extractor.Raw, error) {
	candidates := a.gatherCandidates(ctx, f)
	if len(candidates) == 0 {
		return nil, nil
	}

	var raw extractor.Raw
	raw.Add("isbn", candidates[0])
	for _, candidate := range candidates {
		meta, ok := a.client.Lookup(ctx, candidate)
		if !ok {
			continue
		}
		raw.Add("title", meta.Title)
		if len(meta.Authors) > 0 {
			raw.Add("author", meta.Authors)
		}
		raw.Add("publisher", meta.Publisher)
		raw.Add("year", meta.Year)
		break
	}
	return raw, nil
}

// gatherCandidates collects validated ISBNs, cheapest source first.
func (a *EbookAnalyzer) gatherCandidates(ctx context.Context, f *fileobject.File) []string {
	text := f.Basename()
	switch f.MIMEType() {
	case "application/epub+zip":
		text += "\n" + epubISBNText(f)
	case "application/pdf":
		// First pages only; colophon ISBNs sit at the front of the book.
		out, err := a.runner.Run(ctx, "pdftotext", "-l", "10", "-q", f.Path(), "-")
		if err == nil {
			text += "\n" + coerce.DecodeText(out)
		}
	}
	return isbn.FindAll(text, maxISBNCandidates)
}

// epubISBNText pulls the OPF identifier values so FindAll can validate
// them alongside any basename digits.
func epubISBNText(f *fileobject.File) string {
	raw, err := NewEPUBMetadata().Extract(context.Background(), f)
	if err != nil {
		return ""
	}
	var parts []string
	for _, field := range raw {
		if field.Name == "isbn" {
			if s, ok := field.Value.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n")
}
