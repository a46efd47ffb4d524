package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/shellout"
	"autoname/internal/uri"
)

// Exiftool wraps `exiftool -j -G`, which covers images, office documents,
// and most other embedded-metadata formats in one tool. Output keys arrive
// namespaced ("PDF:Author"); a curated set maps to the well-known field
// names while the rest are published under their flattened namespace:field
// form.
type Exiftool struct {
	runner shellout.Runner
}

func NewExiftool(runner shellout.Runner) *Exiftool {
	if runner == nil {
		runner = shellout.New(0)
	}
	return &Exiftool{runner: runner}
}

func (*Exiftool) Name() string    { return "exiftool" }
func (*Exiftool) Version() string { return "1.0" }
func (*Exiftool) Domain() string  { return uri.DomainExtractor }

func (*Exiftool) HandledMIMETypes() []string {
	return []string{"image/*", "video/*", "application/pdf", "application/epub+zip", "application/rtf"}
}

func (*Exiftool) Slow() bool { return true }

func (*Exiftool) DependenciesSatisfied() error {
	_, err := shellout.Lookup("exiftool")
	return err
}

func (*Exiftool) CanHandle(*fileobject.File) bool { return true }

// wellKnown maps namespaced exiftool keys onto the shared field vocabulary.
var wellKnown = map[string]extractor.FieldSpec{
	"title":             {Kind: coerce.KindString, Generic: "title", Probability: 0.8},
	"author":            {Kind: coerce.KindString, Generic: "author", Probability: 0.8},
	"creator":           {Kind: coerce.KindString, Generic: "creator", Probability: 0.5},
	"producer":          {Kind: coerce.KindString, Generic: "producer", Probability: 0.5},
	"creation-date":     {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 0.8},
	"modification-date": {Kind: coerce.KindDateTime, Generic: "date-modified", Probability: 0.8},
	"language":          {Kind: coerce.KindString, Generic: "language", Probability: 0.5},
}

// keyAliases lists the recognized namespaced keys in priority order; when
// several map to the same field, the first one present wins.
var keyAliases = []struct {
	key   string
	field string
}{
	{"PDF:Title", "title"},
	{"XMP:Title", "title"},
	{"PDF:Author", "author"},
	{"XMP:Creator", "author"},
	{"PDF:Creator", "creator"},
	{"PDF:Producer", "producer"},
	{"EXIF:DateTimeOriginal", "creation-date"},
	{"PDF:CreateDate", "creation-date"},
	{"XMP:CreateDate", "creation-date"},
	{"EXIF:CreateDate", "creation-date"},
	{"QuickTime:CreateDate", "creation-date"},
	{"PDF:ModifyDate", "modification-date"},
	{"EXIF:ModifyDate", "modification-date"},
}

func (*Exiftool) FieldSpecs() map[string]extractor.FieldSpec {
	return wellKnown
}

func (e *Exiftool) Extract(ctx context.Context, f *fileobject.File) (extractor.Raw, error) {
	out, err := e.runner.Run(ctx, "exiftool", "-j", "-G", "-api", "largefilesupport=1", f.Path())
	if err != nil {
		return nil, err
	}

	var docs []map[string]any
	if err := json.Unmarshal(out, &docs); err != nil {
		return nil, fmt.Errorf("exiftool output: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var raw extractor.Raw
	seen := make(map[string]struct{})
	for _, alias := range keyAliases {
		if _, dup := seen[alias.field]; dup {
			continue
		}
		value, present := docs[0][alias.key]
		if !present {
			continue
		}
		text := stringify(value)
		if text == "" {
			continue
		}
		if strings.Contains(alias.field, "date") {
			text = normalizeExifDate(text)
		}
		seen[alias.field] = struct{}{}
		raw.Add(alias.field, text)
	}
	return raw, nil
}

// normalizeExifDate rewrites exiftool's "2016:01:11 12:41:32" form into
// ISO-8601 so the shared datetime coercer accepts it.
func normalizeExifDate(s string) string {
	if len(s) >= 10 && s[4] == ':' && s[7] == ':' {
		s = s[:4] + "-" + s[5:7] + "-" + s[8:]
	}
	return strings.Replace(s, " ", "T", 1)
}

func stringify(value any) string {
	switch t := value.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
