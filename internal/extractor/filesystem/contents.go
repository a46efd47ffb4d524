package filesystem

import (
	"context"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/uri"
)

// contentsSample bounds how much of the file the probe inspects.
const contentsSample = 64 << 10

// ContentsProbe publishes generic facts about the file body: its MIME type,
// whether it looks like plain text, and a crude language guess for text.
type ContentsProbe struct{}

func NewContents() *ContentsProbe { return &ContentsProbe{} }

func (*ContentsProbe) Name() string                 { return "contents" }
func (*ContentsProbe) Version() string              { return "1.0" }
func (*ContentsProbe) Domain() string               { return uri.DomainGeneric }
func (*ContentsProbe) HandledMIMETypes() []string   { return []string{"*/*"} }
func (*ContentsProbe) Slow() bool                   { return false }
func (*ContentsProbe) DependenciesSatisfied() error { return nil }

func (*ContentsProbe) CanHandle(*fileobject.File) bool { return true }

func (*ContentsProbe) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"mime_type": {Kind: coerce.KindMIME, Generic: "mime-type", Probability: 1.0},
		"plaintext": {Kind: coerce.KindBool, Probability: 1.0},
		"language":  {Kind: coerce.KindString, Generic: "language", Probability: 0.25},
	}
}

func (*ContentsProbe) Extract(_ context.Context, f *fileobject.File) (extractor.Raw, error) {
	var raw extractor.Raw
	raw.Add("mime_type", f.MIMEType())

	sample, err := readSample(f.Path())
	if err != nil {
		return nil, err
	}
	plaintext := looksTextual(sample)
	raw.Add("plaintext", plaintext)
	if plaintext {
		if lang := guessLanguage(coerce.DecodeText(sample)); lang != "" {
			raw.Add("language", lang)
		}
	}
	return raw, nil
}

func readSample(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	buf := make([]byte, contentsSample)
	n, _ := fh.Read(buf)
	return buf[:n], nil
}

func looksTextual(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	if !utf8.Valid(sample) {
		// Could still be a legacy single-byte encoding; reject only when
		// control bytes dominate.
		control := 0
		for _, b := range sample {
			if b < 0x09 || (b > 0x0d && b < 0x20) {
				control++
			}
		}
		return control*20 < len(sample)
	}
	printable := 0
	total := 0
	for _, r := range string(sample) {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return total > 0 && printable*10 >= total*9
}

// guessLanguage applies stopword counting over a handful of languages. It
// is intentionally crude; the field carries a low weight.
var stopwords = map[string][]string{
	"en": {" the ", " and ", " of ", " to ", " is "},
	"sv": {" och ", " att ", " det ", " som ", " en "},
	"de": {" der ", " die ", " und ", " das ", " ist "},
	"fr": {" le ", " la ", " et ", " les ", " des "},
}

func guessLanguage(text string) string {
	lowered := " " + strings.ToLower(text) + " "
	best, bestHits := "", 0
	for lang, words := range stopwords {
		hits := 0
		for _, w := range words {
			hits += strings.Count(lowered, w)
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && lang < best) {
			best, bestHits = lang, hits
		}
	}
	if bestHits < 3 {
		return ""
	}
	return best
}
