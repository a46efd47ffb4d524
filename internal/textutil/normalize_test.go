package textutil

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "On Computable Numbers", "on computable numbers"},
		{"unescapes entities", "War &amp; Peace", "war and peace"},
		{"spells out ampersand", "Tools & Toys", "tools and toys"},
		{"strips ebook suffix", "practical vim.EPUB", "practical vim"},
		{"collapses whitespace", "  a   tale \tof  two ", "a tale of two"},
		{"strips punctuation", "What? Why! (Maybe)", "what why maybe"},
		{"trims trailing hyphens", "draft -", "draft"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeTitle(tc.input)
			if got != tc.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeHumanName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Gibson Sjöberg", "gibson sjöberg"},
		{"Gibson  Sjöberg", "gibson sjöberg"},
		{"gibson  sjöberg", "gibson sjöberg"},
		{"Edited by Jane Roe", "jane roe"},
		{"ed. by Jane Roe", "jane roe"},
		{"D. E. Knuth", "d e knuth"},
	}
	for _, tc := range tests {
		if got := NormalizeHumanName(tc.input); got != tc.want {
			t.Errorf("NormalizeHumanName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSimplifyUnicode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Sjöberg", "Sjoberg"},
		{"naïve café", "naive cafe"},
		{"Ølsen Ærø", "Olsen AEro"},
		{"straße", "strasse"},
		{"a b", "a b"},
		{"plain ascii", "plain ascii"},
	}
	for _, tc := range tests {
		if got := SimplifyUnicode(tc.input); got != tc.want {
			t.Errorf("SimplifyUnicode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// Idempotence is part of every normalizer's contract.
func TestNormalizersIdempotent(t *testing.T) {
	inputs := []string{
		"War &amp; Peace.epub",
		"Edited by Gibson Sjöberg",
		"  messy \r\n text here  ",
		"a/b\\c:d*e?f",
		"",
		"çàé üñî",
	}
	norms := map[string]func(string) string{
		"NormalizeTitle":     NormalizeTitle,
		"NormalizeHumanName": NormalizeHumanName,
		"SimplifyUnicode":    SimplifyUnicode,
		"CleanupText":        CleanupText,
		"CollapseWhitespace": CollapseWhitespace,
		"SanitizeLenient":    func(s string) string { return SanitizeFileName(s, false) },
		"SanitizeStrict":     func(s string) string { return SanitizeFileName(s, true) },
	}
	for name, fn := range norms {
		for _, in := range inputs {
			once := fn(in)
			twice := fn(once)
			if once != twice {
				t.Errorf("%s not idempotent on %q: first %q, second %q", name, in, once, twice)
			}
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input       string
		restrictive bool
		want        string
	}{
		{"a/b", false, "a-b"},
		{"a/b", true, "ab"},
		{"what? when:", false, "what when-"},
		{"tabs\tstay", false, "tabs\tstay"},
		{"dots...dots", false, "dots.dots"},
		{"  spaced  ", false, "spaced"},
		{"a--b__c", false, "a-b_c"},
		{"mixed-._runs", false, "mixed-._runs"},
		{"a//b", false, "a-b"},
		{"name -- firsttag tagtwo", false, "name -- firsttag tagtwo"},
		{"name  --  tags", false, "name -- tags"},
	}
	for _, tc := range tests {
		if got := SanitizeFileName(tc.input, tc.restrictive); got != tc.want {
			t.Errorf("SanitizeFileName(%q, %v) = %q, want %q", tc.input, tc.restrictive, got, tc.want)
		}
	}
}
