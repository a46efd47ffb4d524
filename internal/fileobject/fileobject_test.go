package fileobject

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	path := writeFile(t, "20160722 Descriptive name.txt", []byte("some text content\n"))
	f, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Basename() != "20160722 Descriptive name.txt" {
		t.Errorf("Basename() = %q", f.Basename())
	}
	if f.Suffix() != "txt" {
		t.Errorf("Suffix() = %q", f.Suffix())
	}
	if f.Size() != 18 {
		t.Errorf("Size() = %d", f.Size())
	}
	if f.MIMEType() != "text/plain" {
		t.Errorf("MIMEType() = %q", f.MIMEType())
	}
	if len(f.StrongHash()) != 64 || len(f.PartialHash()) != 64 {
		t.Errorf("hashes must be hex sha256: %q %q", f.StrongHash(), f.PartialHash())
	}
	// A file smaller than the partial-hash prefix hashes identically both ways.
	if f.StrongHash() != f.PartialHash() {
		t.Errorf("small file: strong and partial hashes should match")
	}
}

func TestNewRejectsBadArguments(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Errorf("missing path must fail")
	}
	if _, err := New(t.TempDir()); err == nil {
		t.Errorf("directory must fail")
	}
}

func TestSniffMIMEMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"doc.pdf", []byte("%PDF-1.5 fake"), "application/pdf"},
		{"pic.jpg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0}, "image/jpeg"},
		{"page.djvu", []byte("AT&TFORMxxxx"), "image/vnd.djvu"},
		{"notes.rtf", []byte("{\\rtf1\\ansi hi}"), "application/rtf"},
		{"plain.txt", []byte("just words"), "text/plain"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.name, tc.data)
			got, err := sniffMIME(path)
			if err != nil {
				t.Fatalf("sniffMIME: %v", err)
			}
			if got != tc.want {
				t.Errorf("sniffMIME = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMatchesMIMEGlob(t *testing.T) {
	tests := []struct {
		mime    string
		pattern string
		want    bool
	}{
		{"image/jpeg", "image/*", true},
		{"image/jpeg", "image/jpeg", true},
		{"image/jpeg", "video/*", false},
		{"application/pdf", "*/*", true},
		{"application/pdf", "", false},
		{"IMAGE/JPEG", "image/jpeg", true},
	}
	for _, tc := range tests {
		if got := MatchesMIMEGlob(tc.mime, tc.pattern); got != tc.want {
			t.Errorf("MatchesMIMEGlob(%q, %q) = %v, want %v", tc.mime, tc.pattern, got, tc.want)
		}
	}
}
