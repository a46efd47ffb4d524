// Package video guesses structured metadata from release-style video file
// names, the ones shaped like "Some.Title.2014.1080p.BluRay.x264-GRP.mkv".
// There is no embedded metadata involved; everything is inferred from the
// basename, so probabilities stay conservative.
package video

import (
	"context"
	"regexp"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/textutil"
	"autoname/internal/uri"
)

type NameGuesser struct{}

func NewNameGuesser() *NameGuesser { return &NameGuesser{} }

func (*NameGuesser) Name() string                 { return "video-name" }
func (*NameGuesser) Version() string              { return "1.0" }
func (*NameGuesser) Domain() string               { return uri.DomainAnalyzer }
func (*NameGuesser) HandledMIMETypes() []string   { return []string{"video/*"} }
func (*NameGuesser) Slow() bool                   { return false }
func (*NameGuesser) DependenciesSatisfied() error { return nil }

func (*NameGuesser) CanHandle(*fileobject.File) bool { return true }

func (*NameGuesser) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"title":      {Kind: coerce.KindString, Generic: "title", Probability: 0.5},
		"year":       {Kind: coerce.KindInt, Generic: "date-created", Probability: 0.5},
		"resolution": {Kind: coerce.KindString, Probability: 0.75},
		"source":     {Kind: coerce.KindString, Probability: 0.75},
		"codec":      {Kind: coerce.KindString, Probability: 0.75},
		"group":      {Kind: coerce.KindString, Probability: 0.5},
		"extension":  {Kind: coerce.KindString, Generic: "extension", Probability: 1.0},
	}
}

var (
	yearToken       = regexp.MustCompile(`^(19|20)\d{2}$`)
	resolutionToken = regexp.MustCompile(`(?i)^(480p|576p|720p|1080[pi]|2160p|4320p|4k|8k)$`)
	sourceToken     = regexp.MustCompile(`(?i)^(bluray|blu-ray|bdrip|brrip|web-?dl|web-?rip|hdtv|dvdrip|dvd|hdrip|cam|ts|remux)$`)
	codecToken      = regexp.MustCompile(`(?i)^(x264|x265|h\.?264|h\.?265|hevc|avc|xvid|divx|av1|vp9)$`)
)

func isTag(token string) bool {
	return yearToken.MatchString(token) ||
		resolutionToken.MatchString(token) ||
		sourceToken.MatchString(token) ||
		codecToken.MatchString(token)
}

// Parts is the decomposed basename.
type Parts struct {
	Title      string
	Year       string
	Resolution string
	Source     string
	Codec      string
	Group      string
	Extension  string
}

// Partition splits a release-style basename. Tokens before the first tag
// token form the title; recognized tags after it are classified, the rest
// discarded.
func Partition(basename string) Parts {
	var parts Parts
	stem := basename
	if dot := strings.LastIndex(stem, "."); dot > 0 {
		parts.Extension = strings.ToLower(stem[dot+1:])
		stem = stem[:dot]
	}
	tokens := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '.' || r == '_' || r == ' '
	})

	// "x264-GRP": the release group rides the final token behind a hyphen.
	// Split it off only when the remaining head is a recognized tag, so
	// plain hyphenated words survive intact.
	if n := len(tokens); n > 0 {
		last := tokens[n-1]
		if i := strings.LastIndex(last, "-"); i > 0 && !isTag(last) {
			if head := last[:i]; isTag(head) {
				parts.Group = last[i+1:]
				tokens[n-1] = head
			}
		}
	}

	var titleTokens []string
	inTags := false
	for _, token := range tokens {
		switch {
		case yearToken.MatchString(strings.Trim(token, "()[]")):
			// The year marks the start of the tag section; a later year
			// token would already be inside it.
			if !inTags {
				parts.Year = strings.Trim(token, "()[]")
				inTags = true
			}
		case resolutionToken.MatchString(token):
			parts.Resolution = strings.ToLower(token)
			inTags = true
		case sourceToken.MatchString(token):
			parts.Source = token
			inTags = true
		case codecToken.MatchString(token):
			parts.Codec = token
			inTags = true
		case !inTags:
			titleTokens = append(titleTokens, token)
		}
	}
	parts.Title = textutil.CollapseWhitespace(strings.Join(titleTokens, " "))
	return parts
}

func (*NameGuesser) Extract(_ context.Context, f *fileobject.File) (extractor.Raw, error) {
	parts := Partition(f.Basename())

	// A bare title with no recognized tags is just the filename again;
	// publishing it would only add noise.
	tagged := parts.Year != "" || parts.Resolution != "" || parts.Source != "" || parts.Codec != ""

	var raw extractor.Raw
	if tagged {
		raw.Add("title", parts.Title)
		raw.Add("year", parts.Year)
	}
	raw.Add("resolution", parts.Resolution)
	raw.Add("source", parts.Source)
	raw.Add("codec", parts.Codec)
	raw.Add("group", parts.Group)
	raw.Add("extension", parts.Extension)
	return raw, nil
}
