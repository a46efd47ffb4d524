// Package isbn extracts and validates ISBN-10/13 numbers and resolves them
// to bibliographic metadata through public lookup services.
package isbn

import (
	"regexp"
	"strings"
)

// candidate matches hyphen- or space-separated digit groups long enough to
// be an ISBN, with an optional check character.
var candidate = regexp.MustCompile(`(?i)\b(?:isbn(?:-1[03])?:?\s*)?((?:97[89][-\s]?)?\d{1,5}[-\s]?\d{1,7}[-\s]?\d{1,7}[-\s]?[\dX])\b`)

// Normalize strips separators and upper-cases the check character.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(13)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// ValidISBN10 reports whether the normalized string passes the mod-11
// checksum.
func ValidISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		var digit int
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digit = int(s[i] - '0')
		case s[i] == 'X' && i == 9:
			digit = 10
		default:
			return false
		}
		sum += (10 - i) * digit
	}
	return sum%11 == 0
}

// ValidISBN13 reports whether the normalized string passes the mod-10
// checksum and carries a book prefix.
func ValidISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	if !strings.HasPrefix(s, "978") && !strings.HasPrefix(s, "979") {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		digit := int(s[i] - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	return sum%10 == 0
}

// Valid accepts either form after normalization.
func Valid(s string) bool {
	n := Normalize(s)
	return ValidISBN10(n) || ValidISBN13(n)
}

// ToISBN13 converts a valid ISBN-10 to its 978-prefixed ISBN-13 form.
// Already-13 input passes through; invalid input returns "".
func ToISBN13(s string) string {
	n := Normalize(s)
	if ValidISBN13(n) {
		return n
	}
	if !ValidISBN10(n) {
		return ""
	}
	body := "978" + n[:9]
	sum := 0
	for i := 0; i < 12; i++ {
		digit := int(body[i] - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check))
}

// FindAll returns the valid, deduplicated ISBNs found in text, in order of
// appearance, canonicalized to ISBN-13. At most max results; max <= 0 means
// unlimited.
func FindAll(text string, max int) []string {
	var found []string
	seen := make(map[string]struct{})
	for _, m := range candidate.FindAllStringSubmatch(text, -1) {
		n := Normalize(m[1])
		if !ValidISBN10(n) && !ValidISBN13(n) {
			continue
		}
		canonical := ToISBN13(n)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		found = append(found, canonical)
		if max > 0 && len(found) == max {
			break
		}
	}
	return found
}
