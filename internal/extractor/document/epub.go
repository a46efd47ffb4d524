package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/uri"
)

// EPUBMetadata reads the OPF package document inside an EPUB container.
// No external tool is involved, so the probe counts as fast.
type EPUBMetadata struct{}

func NewEPUBMetadata() *EPUBMetadata { return &EPUBMetadata{} }

func (*EPUBMetadata) Name() string                 { return "epub-metadata" }
func (*EPUBMetadata) Version() string              { return "1.0" }
func (*EPUBMetadata) Domain() string               { return uri.DomainExtractor }
func (*EPUBMetadata) HandledMIMETypes() []string   { return []string{"application/epub+zip"} }
func (*EPUBMetadata) Slow() bool                   { return false }
func (*EPUBMetadata) DependenciesSatisfied() error { return nil }

func (*EPUBMetadata) CanHandle(*fileobject.File) bool { return true }

func (*EPUBMetadata) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"title":     {Kind: coerce.KindString, Generic: "title", Probability: 1.0},
		"author":    {Kind: coerce.KindList, Generic: "author", Probability: 1.0},
		"publisher": {Kind: coerce.KindString, Generic: "publisher", Probability: 1.0},
		"language":  {Kind: coerce.KindString, Generic: "language", Probability: 1.0},
		"date":      {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 0.75},
		"isbn":      {Kind: coerce.KindString, Probability: 1.0},
	}
}

// container.xml points at the OPF file; the dc: elements inside it carry the
// Dublin Core metadata.
type opfPackage struct {
	Metadata struct {
		Titles      []string        `xml:"title"`
		Creators    []opfCreator    `xml:"creator"`
		Publisher   string          `xml:"publisher"`
		Language    string          `xml:"language"`
		Date        string          `xml:"date"`
		Identifiers []opfIdentifier `xml:"identifier"`
	} `xml:"metadata"`
}

type opfCreator struct {
	Role string `xml:"role,attr"`
	Name string `xml:",chardata"`
}

type opfIdentifier struct {
	Scheme string `xml:"scheme,attr"`
	Value  string `xml:",chardata"`
}

type opfContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

func (*EPUBMetadata) Extract(_ context.Context, f *fileobject.File) (extractor.Raw, error) {
	archive, err := zip.OpenReader(f.Path())
	if err != nil {
		return nil, fmt.Errorf("open epub container: %w", err)
	}
	defer archive.Close()

	opfPath, err := findOPFPath(&archive.Reader)
	if err != nil {
		return nil, err
	}
	var pkg opfPackage
	if err := readXML(&archive.Reader, opfPath, &pkg); err != nil {
		return nil, err
	}

	var raw extractor.Raw
	if len(pkg.Metadata.Titles) > 0 {
		raw.Add("title", strings.TrimSpace(pkg.Metadata.Titles[0]))
	}
	var authors []string
	for _, creator := range pkg.Metadata.Creators {
		name := strings.TrimSpace(creator.Name)
		if name == "" {
			continue
		}
		// Non-author roles (editors, illustrators) are excluded when the
		// role attribute says so; an absent role means author.
		if creator.Role != "" && creator.Role != "aut" {
			continue
		}
		authors = append(authors, name)
	}
	if len(authors) > 0 {
		raw.Add("author", authors)
	}
	raw.Add("publisher", strings.TrimSpace(pkg.Metadata.Publisher))
	raw.Add("language", strings.TrimSpace(pkg.Metadata.Language))
	if date := strings.TrimSpace(pkg.Metadata.Date); date != "" {
		raw.Add("date", date)
	}
	for _, ident := range pkg.Metadata.Identifiers {
		value := strings.TrimSpace(ident.Value)
		if strings.EqualFold(ident.Scheme, "isbn") || looksLikeISBN(value) {
			raw.Add("isbn", value)
			break
		}
	}
	return raw, nil
}

func findOPFPath(archive *zip.Reader) (string, error) {
	var container opfContainer
	if err := readXML(archive, "META-INF/container.xml", &container); err != nil {
		return "", err
	}
	for _, rootfile := range container.Rootfiles {
		if rootfile.FullPath != "" {
			return rootfile.FullPath, nil
		}
	}
	return "", fmt.Errorf("epub container lists no rootfile")
}

func readXML(archive *zip.Reader, name string, dst any) error {
	fh, err := archive.Open(name)
	if err != nil {
		return fmt.Errorf("epub member %s: %w", name, err)
	}
	defer fh.Close()
	dec := xml.NewDecoder(fh)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func looksLikeISBN(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits == 10 || digits == 13
}
