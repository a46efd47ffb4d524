package uri

import "testing"

func TestParse(t *testing.T) {
	u, err := Parse("extractor/PDF-Metadata/Author")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.String() != "extractor/PDF-Metadata/Author" {
		t.Errorf("display form must preserve case, got %q", u.String())
	}
	if u.Key() != "extractor/pdf-metadata/author" {
		t.Errorf("Key() = %q", u.Key())
	}
	if u.Domain() != "extractor" || u.Probe() != "pdf-metadata" || u.Leaf() != "author" {
		t.Errorf("segment accessors wrong: %q %q %q", u.Domain(), u.Probe(), u.Leaf())
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "   ", "single", "a//b"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestEqualIgnoresCase(t *testing.T) {
	a := MustParse("analyzer/filename/datetime")
	b := MustParse("Analyzer/Filename/DateTime")
	if !a.Equal(b) {
		t.Errorf("case must not affect equality")
	}
	c := MustParse("analyzer/filename/tags")
	if a.Equal(c) {
		t.Errorf("different leaves must not be equal")
	}
}

func TestMatchesWildcard(t *testing.T) {
	u := MustParse("extractor/exiftool/pdf:author")
	tests := []struct {
		query string
		want  bool
	}{
		{"extractor/exiftool/pdf:author", true},
		{"extractor/*/pdf:author", true},
		{"*/*/pdf:author", true},
		{"extractor/exiftool/*", true},
		{"extractor/exiftool", false},
		{"analyzer/*/pdf:author", false},
	}
	for _, tc := range tests {
		if got := u.Matches(MustParse(tc.query)); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestGeneric(t *testing.T) {
	g := MustParse("generic/metadata/author")
	if !g.IsGeneric() || g.GenericField() != "author" {
		t.Errorf("generic accessors wrong: %v %q", g.IsGeneric(), g.GenericField())
	}
	if MustParse("extractor/epub/author").IsGeneric() {
		t.Errorf("extractor URI must not be generic")
	}
}
