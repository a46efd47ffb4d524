package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// translit maps characters that compatibility decomposition cannot reduce to
// a close ASCII spelling.
var translit = strings.NewReplacer(
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ß", "ss",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"ł", "l", "Ł", "L",
	"ı", "i",
	" ", " ", // non-breaking space
	"–", "-", "—", "-",
	"‘", "'", "’", "'",
	"“", "\"", "”", "\"",
)

var stripMarks = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// SimplifyUnicode transliterates text toward plain ASCII: compatibility
// decomposition, combining marks stripped, non-breaking spaces replaced, and
// a small table for letters decomposition cannot handle. Characters with no
// ASCII spelling pass through unchanged.
func SimplifyUnicode(s string) string {
	if s == "" {
		return ""
	}
	s = translit.Replace(s)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}
