package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The parser tries pattern families in a fixed priority order; the order is
// part of its contract. Sub-second precision is always discarded.

// specialCasePatterns match timestamp-prefixed names like
// "2016-01-11T124132" and "20160111_124132". They are near-certain hits and
// run before everything else.
var specialCasePatterns = []struct {
	layout string
	chars  int
}{
	{"2006-01-02_150405", 17},
	{"2006-01-02T150405", 17},
	{"20060102_150405", 15},
	{"20060102T150405", 15},
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// fuzzyLayouts is the ordered fallback list for free-form date strings.
var fuzzyLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006.01.02T150405",
	"2006.01.02 150405",
	"2006-01-02",
	"2006.01.02",
	"2006_01_02",
	"2006/01/02",
	"20060102",
	"1/2/06",
	"01/02/2006",
	"2006",
}

var (
	pdfDatePattern = regexp.MustCompile(
		`^D:(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?(?:([+\-Z])(?:(\d{2})'?(\d{2})?'?)?)?`)
	unixDigitsPattern = regexp.MustCompile(`\d{10,13}`)
)

// ParseDateTime extracts a timestamp from free-form text. The priority
// order is: timestamp-prefix special cases, ISO-8601 layouts, the PDF
// "D:YYYYMMDDhhmmss" form, Unix epoch digit runs embedded anywhere in the
// text, then a fixed list of fuzzy layouts. Results outside the probable
// year window are rejected so digit noise does not parse as a date.
func ParseDateTime(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("parse datetime: empty input")
	}

	if ts, ok := matchSpecialCase(trimmed); ok {
		return ts, nil
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil && yearProbable(ts) {
			return ts.Truncate(time.Second), nil
		}
	}
	if ts, ok := matchPDFDate(trimmed); ok {
		return ts, nil
	}
	if ts, ok := matchUnixTimestamp(trimmed); ok {
		return ts, nil
	}
	if len(trimmed) >= 10 {
		if ts, err := time.Parse("2006-01-02", trimmed[:10]); err == nil && yearProbable(ts) {
			return ts, nil
		}
	}
	for _, layout := range fuzzyLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil && yearProbable(ts) {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse datetime: no pattern matched %q", text)
}

func matchSpecialCase(text string) (time.Time, bool) {
	for _, p := range specialCasePatterns {
		if len(text) < p.chars {
			continue
		}
		if ts, err := time.Parse(p.layout, text[:p.chars]); err == nil && yearProbable(ts) {
			return ts, true
		}
	}
	return time.Time{}, false
}

func matchPDFDate(text string) (time.Time, bool) {
	m := pdfDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	year := atoiDefault(m[1], 0)
	month := atoiDefault(m[2], 1)
	day := atoiDefault(m[3], 1)
	hour := atoiDefault(m[4], 0)
	minute := atoiDefault(m[5], 0)
	second := atoiDefault(m[6], 0)

	loc := time.UTC
	switch m[7] {
	case "+", "-":
		offset := atoiDefault(m[8], 0)*3600 + atoiDefault(m[9], 0)*60
		if m[7] == "-" {
			offset = -offset
		}
		loc = time.FixedZone(m[7]+m[8]+m[9], offset)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	if !yearProbable(ts) {
		return time.Time{}, false
	}
	return ts, true
}

// matchUnixTimestamp finds an epoch timestamp embedded in surrounding text,
// e.g. "IMG_1464459165038.jpg". Thirteen-digit runs are taken as
// milliseconds and divided down to seconds.
func matchUnixTimestamp(text string) (time.Time, bool) {
	for _, digits := range unixDigitsPattern.FindAllString(text, -1) {
		if len(digits) == 13 {
			digits = digits[:10]
		}
		if len(digits) != 10 {
			continue
		}
		seconds, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		ts := time.Unix(seconds, 0)
		if yearProbable(ts) {
			return ts, true
		}
	}
	return time.Time{}, false
}

func fromUnix(n int64) (time.Time, error) {
	if n > 1e12 {
		n /= 1000
	}
	ts := time.Unix(n, 0)
	if !yearProbable(ts) {
		return time.Time{}, fmt.Errorf("unix timestamp %d outside probable range", n)
	}
	return ts, nil
}

// yearProbable guards against digit noise: anything before 1900 or more than
// two years into the future is assumed not to be a real document date.
func yearProbable(ts time.Time) bool {
	year := ts.Year()
	return year >= 1900 && year <= time.Now().Year()+2
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
