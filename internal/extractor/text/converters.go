package text

import (
	"context"

	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/shellout"
	"autoname/internal/uri"
)

// converter describes one external tool that turns a document into plain
// text on stdout. All converter-backed probes share the same extraction
// shape, so each is a thin table entry.
type converter struct {
	name        string
	binary      string
	mimeTypes   []string
	probability float64
	args        func(path string) []string
}

var converters = []converter{
	{
		name:        "pdf-text",
		binary:      "pdftotext",
		mimeTypes:   []string{"application/pdf"},
		probability: 1.0,
		args: func(path string) []string {
			return []string{"-layout", "-nopgbrk", "-q", path, "-"}
		},
	},
	{
		name:        "djvu-text",
		binary:      "djvutxt",
		mimeTypes:   []string{"image/vnd.djvu"},
		probability: 1.0,
		args: func(path string) []string {
			return []string{path}
		},
	},
	{
		name:        "rtf-text",
		binary:      "unrtf",
		mimeTypes:   []string{"application/rtf", "text/rtf"},
		probability: 1.0,
		args: func(path string) []string {
			return []string{"--text", "--nopict", path}
		},
	},
	{
		name:        "markdown-text",
		binary:      "pandoc",
		mimeTypes:   []string{"text/markdown"},
		probability: 1.0,
		args: func(path string) []string {
			return []string{"--from", "markdown", "--to", "plain", path}
		},
	},
	{
		name:        "tesseract-ocr",
		binary:      "tesseract",
		mimeTypes:   []string{"image/png", "image/jpeg", "image/tiff", "image/bmp"},
		probability: 0.5,
		args: func(path string) []string {
			return []string{path, "stdout"}
		},
	},
}

// Converter runs one external document-to-text tool.
type Converter struct {
	spec   converter
	runner shellout.Runner
}

// NewConverters builds the full converter probe set; a nil runner uses real
// subprocesses.
func NewConverters(runner shellout.Runner) []*Converter {
	if runner == nil {
		runner = shellout.New(0)
	}
	probes := make([]*Converter, 0, len(converters))
	for _, spec := range converters {
		probes = append(probes, &Converter{spec: spec, runner: runner})
	}
	return probes
}

// NewConverter builds the named converter probe, or nil when the name is
// unknown.
func NewConverter(name string, runner shellout.Runner) *Converter {
	for _, probe := range NewConverters(runner) {
		if probe.Name() == name {
			return probe
		}
	}
	return nil
}

func (c *Converter) Name() string               { return c.spec.name }
func (*Converter) Version() string              { return "1.0" }
func (*Converter) Domain() string               { return uri.DomainExtractor }
func (c *Converter) HandledMIMETypes() []string { return c.spec.mimeTypes }
func (*Converter) Slow() bool                   { return true }

func (c *Converter) DependenciesSatisfied() error {
	_, err := shellout.Lookup(c.spec.binary)
	return err
}

func (*Converter) CanHandle(*fileobject.File) bool { return true }

func (c *Converter) FieldSpecs() map[string]extractor.FieldSpec {
	return fullTextSpec(c.spec.probability)
}

func (c *Converter) Extract(ctx context.Context, f *fileobject.File) (extractor.Raw, error) {
	out, err := c.runner.Run(ctx, c.spec.binary, c.spec.args(f.Path())...)
	if err != nil {
		return nil, err
	}
	var raw extractor.Raw
	raw.Add("full", cleanOutput(out))
	return raw, nil
}
