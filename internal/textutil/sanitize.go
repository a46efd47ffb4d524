package textutil

import (
	"strings"
)

// lenientReplacer replaces filesystem-unsafe characters with safe
// alternatives. Slashes, backslashes, colons, and asterisks become dashes;
// other unsafe characters are removed.
var lenientReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// restrictiveReplacer drops every unsafe character outright.
var restrictiveReplacer = strings.NewReplacer(
	"/", "",
	"\\", "",
	":", "",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName makes a proposed basename safe for the target filesystem.
// With restrictive=false unsafe characters degrade to dashes where a
// separator reads naturally; with restrictive=true they are stripped.
// Separator runs are collapsed either way.
func SanitizeFileName(name string, restrictive bool) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if restrictive {
		name = restrictiveReplacer.Replace(name)
	} else {
		name = lenientReplacer.Replace(name)
	}
	name = collapseSeparatorRuns(name)
	return strings.TrimSpace(name)
}

// collapseSeparatorRuns reduces repeated runs of the same separator
// character, left behind by substitution steps, to a single occurrence.
// A double dash flanked by spaces is the filetags name-tag separator and
// passes through untouched.
func collapseSeparatorRuns(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(runes); {
		r := runes[i]
		j := i + 1
		for j < len(runes) && runes[j] == r {
			j++
		}
		run := j - i
		switch {
		case !isSeparatorRune(r) || run == 1:
			for k := i; k < j; k++ {
				b.WriteRune(runes[k])
			}
		case r == '-' && run == 2 && i > 0 && runes[i-1] == ' ' && j < len(runes) && runes[j] == ' ':
			b.WriteString("--")
		default:
			b.WriteRune(r)
		}
		i = j
	}
	return b.String()
}

func isSeparatorRune(r rune) bool {
	switch r {
	case '-', '_', ' ', '.':
		return true
	}
	return false
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
