package filesystem

import (
	"context"
	"regexp"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/uri"
)

// Default filetags separators: "base -- tag1 tag2.ext".
const (
	DefaultNameTagSep    = " -- "
	DefaultBetweenTagSep = " "
)

// timestampPrefix matches a leading date, optionally followed by a time
// group, in the "filetags" basename convention:
// 2016-07-22, 20160722, 2016-07-22T121314, 20160722_121314 ...
var timestampPrefix = regexp.MustCompile(
	`^([12]\d{3}[-_.]?[01]\d[-_.]?[0-3]\d(?:[T_ -]?[0-2]\d[-_.:]?[0-5]\d[-_.:]?[0-5]\d)?)`)

// FiletagsAnalyzer partitions a basename into (timestamp prefix,
// descriptive base, tag list, extension). It also emits a parsed datetime
// when the prefix matches one of the near-certain timestamp shapes.
type FiletagsAnalyzer struct {
	nameTagSep    string
	betweenTagSep string
}

// NewFiletags builds the analyzer with the configured separators; empty
// separators fall back to the convention defaults.
func NewFiletags(nameTagSep, betweenTagSep string) *FiletagsAnalyzer {
	if nameTagSep == "" {
		nameTagSep = DefaultNameTagSep
	}
	if betweenTagSep == "" {
		betweenTagSep = DefaultBetweenTagSep
	}
	return &FiletagsAnalyzer{nameTagSep: nameTagSep, betweenTagSep: betweenTagSep}
}

func (*FiletagsAnalyzer) Name() string                 { return "filename" }
func (*FiletagsAnalyzer) Version() string              { return "1.0" }
func (*FiletagsAnalyzer) Domain() string               { return uri.DomainAnalyzer }
func (*FiletagsAnalyzer) HandledMIMETypes() []string   { return []string{"*/*"} }
func (*FiletagsAnalyzer) Slow() bool                   { return false }
func (*FiletagsAnalyzer) DependenciesSatisfied() error { return nil }

func (*FiletagsAnalyzer) CanHandle(*fileobject.File) bool { return true }

func (*FiletagsAnalyzer) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"ts":                {Kind: coerce.KindString, Probability: 1.0},
		"stem":              {Kind: coerce.KindString, Probability: 1.0},
		"base":              {Kind: coerce.KindString, Generic: "title", Probability: 0.25},
		"tags":              {Kind: coerce.KindList, Probability: 1.0},
		"ext":               {Kind: coerce.KindString, Probability: 1.0},
		"datetime":          {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 1.0},
		"datetime_embedded": {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 0.5},
	}
}

func (a *FiletagsAnalyzer) Extract(_ context.Context, f *fileobject.File) (extractor.Raw, error) {
	parts := a.Partition(f.Basename())

	var raw extractor.Raw
	raw.Add("ts", parts.Timestamp)
	raw.Add("stem", a.Rebuild(parts))
	raw.Add("base", parts.Base)
	raw.Add("ext", parts.Extension)
	raw.Add("tags", parts.Tags)
	if parts.Timestamp != "" {
		// The "very special case": a basename-leading timestamp is almost
		// guaranteed to be the document date.
		if ts, err := coerce.ParseDateTime(parts.Timestamp); err == nil {
			raw.Add("datetime", ts)
		}
	} else if ts, err := coerce.ParseDateTime(parts.Base); err == nil {
		// Dates embedded elsewhere in the name (epoch digits, fuzzy forms)
		// are plausible but weaker evidence.
		raw.Add("datetime_embedded", ts)
	}
	return raw, nil
}

// Parts is a partitioned basename.
type Parts struct {
	Timestamp string
	Base      string
	Tags      []string
	Extension string
}

// Partition splits a basename per the filetags convention.
func (a *FiletagsAnalyzer) Partition(basename string) Parts {
	var parts Parts

	stem := basename
	if idx := strings.LastIndex(stem, "."); idx > 0 {
		parts.Extension = stem[idx+1:]
		stem = stem[:idx]
	}

	if m := timestampPrefix.FindString(stem); m != "" {
		parts.Timestamp = m
		stem = strings.TrimLeft(stem[len(m):], " _-")
	}

	if idx := strings.Index(stem, a.nameTagSep); idx >= 0 {
		tagPart := stem[idx+len(a.nameTagSep):]
		stem = stem[:idx]
		for _, tag := range strings.Split(tagPart, a.betweenTagSep) {
			if tag = strings.TrimSpace(tag); tag != "" {
				parts.Tags = append(parts.Tags, tag)
			}
		}
	}

	parts.Base = strings.TrimSpace(stem)
	return parts
}

// Rebuild reassembles the stem in canonical filetags form, so an already
// conventional name reproduces itself.
func (a *FiletagsAnalyzer) Rebuild(parts Parts) string {
	stem := parts.Base
	if parts.Timestamp != "" {
		stem = strings.TrimSpace(parts.Timestamp + " " + stem)
	}
	if len(parts.Tags) > 0 {
		stem += a.nameTagSep + strings.Join(parts.Tags, a.betweenTagSep)
	}
	return stem
}
