// Package text holds the content extractors. Each one produces the full
// plain-text content of a file under the "full" field so downstream
// analyzers and rule conditions can match against it. Converter-backed
// probes count as slow; the native readers are fast.
package text

import (
	"regexp"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/textutil"
)

// fullTextSpec is shared by every extractor in this package; OCR output
// overrides the probability because recognition errors are common.
func fullTextSpec(probability float64) map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"full": {Kind: coerce.KindString, Generic: "text", Probability: probability},
	}
}

var blankLineRuns = regexp.MustCompile(`\n{3,}`)

// cleanOutput decodes converter output and normalizes whitespace without
// destroying paragraph structure.
func cleanOutput(out []byte) string {
	s := textutil.CleanupText(coerce.DecodeText(out))
	return strings.TrimSpace(blankLineRuns.ReplaceAllString(s, "\n\n"))
}
