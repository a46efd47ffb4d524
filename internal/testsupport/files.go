// Package testsupport provides fixture helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"autoname/internal/fileobject"
)

// NewFile creates a fixture file with the given basename and contents in a
// per-test temp directory and wraps it as a pipeline subject.
func NewFile(t testing.TB, basename string, contents []byte) *fileobject.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), basename)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", basename, err)
	}
	f, err := fileobject.New(path)
	if err != nil {
		t.Fatalf("fileobject.New(%s): %v", basename, err)
	}
	return f
}

// TextFile creates a plain-text fixture subject.
func TextFile(t testing.TB, basename string) *fileobject.File {
	t.Helper()
	return NewFile(t, basename, []byte("fixture text content\n"))
}

// PDFFile creates a minimal fixture that sniffs as application/pdf.
func PDFFile(t testing.TB, basename string) *fileobject.File {
	t.Helper()
	return NewFile(t, basename, []byte("%PDF-1.4\n%fixture\n"))
}

// JPEGFile creates a fixture carrying a JPEG magic header.
func JPEGFile(t testing.TB, basename string) *fileobject.File {
	t.Helper()
	return NewFile(t, basename, []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
}
