// Package document holds the embedded-metadata extractors: PDF document
// info, EPUB package metadata, and the exiftool wrapper covering everything
// else. Each returns a flat field dictionary with well-known keys; duplicate
// keys across tool namespaces are flattened as "namespace:field".
package document

import (
	"context"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/shellout"
	"autoname/internal/uri"
)

// PDFMetadata shells out to pdfinfo and maps its document information
// dictionary to well-known keys.
type PDFMetadata struct {
	runner shellout.Runner
}

// NewPDFMetadata builds the probe; a nil runner uses real subprocesses.
func NewPDFMetadata(runner shellout.Runner) *PDFMetadata {
	if runner == nil {
		runner = shellout.New(0)
	}
	return &PDFMetadata{runner: runner}
}

func (*PDFMetadata) Name() string               { return "pdf-metadata" }
func (*PDFMetadata) Version() string            { return "1.0" }
func (*PDFMetadata) Domain() string             { return uri.DomainExtractor }
func (*PDFMetadata) HandledMIMETypes() []string { return []string{"application/pdf"} }
func (*PDFMetadata) Slow() bool                 { return true }

func (*PDFMetadata) DependenciesSatisfied() error {
	_, err := shellout.Lookup("pdfinfo")
	return err
}

func (*PDFMetadata) CanHandle(*fileobject.File) bool { return true }

func (*PDFMetadata) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"title":             {Kind: coerce.KindString, Generic: "title", Probability: 1.0},
		"author":            {Kind: coerce.KindString, Generic: "author", Probability: 1.0},
		"creator":           {Kind: coerce.KindString, Generic: "creator", Probability: 0.5},
		"producer":          {Kind: coerce.KindString, Generic: "producer", Probability: 0.5},
		"creation-date":     {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 1.0},
		"modification-date": {Kind: coerce.KindDateTime, Generic: "date-modified", Probability: 1.0},
		"page-count":        {Kind: coerce.KindInt, Probability: 1.0},
		"encrypted":         {Kind: coerce.KindBool, Probability: 1.0},
	}
}

// infoKeys maps pdfinfo labels to the well-known field names.
var infoKeys = map[string]string{
	"Title":        "title",
	"Author":       "author",
	"Creator":      "creator",
	"Producer":     "producer",
	"CreationDate": "creation-date",
	"ModDate":      "modification-date",
	"Pages":        "page-count",
	"Encrypted":    "encrypted",
}

func (p *PDFMetadata) Extract(ctx context.Context, f *fileobject.File) (extractor.Raw, error) {
	// -isodates makes the date fields parse without PDF "D:" handling, but
	// older pdfinfo builds ignore it, so the datetime coercer accepts both.
	out, err := p.runner.Run(ctx, "pdfinfo", "-isodates", f.Path())
	if err != nil {
		return nil, err
	}

	var raw extractor.Raw
	for _, line := range strings.Split(coerce.DecodeText(out), "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field, known := infoKeys[strings.TrimSpace(label)]
		if !known {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if field == "encrypted" {
			// pdfinfo reports "yes (print:yes copy:yes ...)" or "no".
			value, _, _ = strings.Cut(value, " ")
		}
		raw.Add(field, value)
	}
	return raw, nil
}
