package text

import (
	"archive/zip"
	"context"
	"fmt"
	"html"
	"io"
	"path"
	"sort"
	"strings"

	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/textutil"
	"autoname/internal/uri"
)

// EPUBText reads the XHTML content documents inside an EPUB container and
// strips their markup. Native, so it counts as fast.
type EPUBText struct{}

func NewEPUBText() *EPUBText { return &EPUBText{} }

func (*EPUBText) Name() string                 { return "epub-text" }
func (*EPUBText) Version() string              { return "1.0" }
func (*EPUBText) Domain() string               { return uri.DomainExtractor }
func (*EPUBText) HandledMIMETypes() []string   { return []string{"application/epub+zip"} }
func (*EPUBText) Slow() bool                   { return false }
func (*EPUBText) DependenciesSatisfied() error { return nil }

func (*EPUBText) CanHandle(*fileobject.File) bool { return true }

func (*EPUBText) FieldSpecs() map[string]extractor.FieldSpec { return fullTextSpec(1.0) }

func (*EPUBText) Extract(_ context.Context, f *fileobject.File) (extractor.Raw, error) {
	archive, err := zip.OpenReader(f.Path())
	if err != nil {
		return nil, fmt.Errorf("open epub container: %w", err)
	}
	defer archive.Close()

	var members []*zip.File
	for _, member := range archive.File {
		switch strings.ToLower(path.Ext(member.Name)) {
		case ".xhtml", ".html", ".htm":
			members = append(members, member)
		}
	}
	// Member order inside the archive is arbitrary; reading-order metadata
	// is not needed for matching, a stable order is.
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	var parts []string
	for _, member := range members {
		fh, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("epub member %s: %w", member.Name, err)
		}
		data, err := io.ReadAll(fh)
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("epub member %s: %w", member.Name, err)
		}
		if text := stripMarkup(string(data)); text != "" {
			parts = append(parts, text)
		}
	}

	var raw extractor.Raw
	raw.Add("full", textutil.CleanupText(strings.Join(parts, "\n\n")))
	return raw, nil
}

// stripMarkup removes tags and decodes entities, skipping script and style
// bodies entirely.
func stripMarkup(markup string) string {
	var out strings.Builder
	inTag := false
	skipUntil := ""
	lower := strings.ToLower(markup)
	for i := 0; i < len(markup); i++ {
		if skipUntil != "" {
			if strings.HasPrefix(lower[i:], skipUntil) {
				i += len(skipUntil) - 1
				skipUntil = ""
				inTag = false
			}
			continue
		}
		switch markup[i] {
		case '<':
			inTag = true
			if strings.HasPrefix(lower[i:], "<script") {
				skipUntil = "</script>"
			} else if strings.HasPrefix(lower[i:], "<style") {
				skipUntil = "</style>"
			}
		case '>':
			if inTag {
				inTag = false
				out.WriteByte(' ')
			}
		default:
			if !inTag {
				out.WriteByte(markup[i])
			}
		}
	}
	return strings.TrimSpace(html.UnescapeString(out.String()))
}
