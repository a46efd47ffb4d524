package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	ebookSuffix     = regexp.MustCompile(`(?i)\.(epub|djvu|mobi)$`)
	editedByPrefix  = regexp.MustCompile(`(?i)^(edited|ed\.?)\s+by\s+`)
	trailingJunk    = regexp.MustCompile(`[\s\-_.,;:!?]+$`)
	carriageReturns = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// CollapseWhitespace replaces every run of whitespace with a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NormalizeTitle reduces a work title to a canonical comparison form:
// lowercased, HTML entities unescaped, ampersands spelled out, e-book format
// suffixes removed, everything except letters, digits, and single spaces
// stripped, and trailing punctuation trimmed.
func NormalizeTitle(s string) string {
	s = html.UnescapeString(s)
	s = strings.ToLower(s)
	s = ebookSuffix.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&", " and ")
	s = keepLettersDigitsSpaces(s)
	s = CollapseWhitespace(s)
	return trailingJunk.ReplaceAllString(s, "")
}

// NormalizeHumanName reduces a person name to a canonical comparison form:
// lowercased, "edited by" style prefixes dropped, non-alphanumerics stripped,
// whitespace collapsed.
func NormalizeHumanName(s string) string {
	s = strings.ToLower(s)
	s = editedByPrefix.ReplaceAllString(s, "")
	s = keepLettersDigitsSpaces(s)
	return CollapseWhitespace(s)
}

// CleanupText is the shared post-step for text extractor output: carriage
// returns removed, unicode simplified, non-breaking spaces replaced, ends
// trimmed. Returns "" when nothing printable remains.
func CleanupText(s string) string {
	s = carriageReturns.Replace(s)
	s = SimplifyUnicode(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func keepLettersDigitsSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
