// Package fileobject models the file under consideration: its identity
// (content hashes plus absolute path) and the attributes every probe starts
// from. A File is created once per run and is immutable afterwards.
package fileobject

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PartialHashPrefix bounds how much of a large file the fast-hash variant
// reads.
const PartialHashPrefix = 10 << 20 // 10 MiB

// ErrInvalidFile marks paths that cannot be processed: missing, unreadable,
// or not a regular file.
var ErrInvalidFile = errors.New("invalid file argument")

// File is the immutable subject of one pipeline run.
type File struct {
	path        string
	basename    string
	suffix      string
	size        int64
	modTime     time.Time
	mimeType    string
	strongHash  string
	partialHash string
}

// New stats, sniffs, and hashes the file at path.
func New(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s: not a regular file", ErrInvalidFile, path)
	}

	strong, partial, err := hashFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, err)
	}
	mimeType, err := sniffMIME(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, err)
	}

	base := filepath.Base(abs)
	suffix := strings.TrimPrefix(filepath.Ext(base), ".")

	return &File{
		path:        abs,
		basename:    base,
		suffix:      suffix,
		size:        info.Size(),
		modTime:     info.ModTime().Truncate(time.Second),
		mimeType:    mimeType,
		strongHash:  strong,
		partialHash: partial,
	}, nil
}

// Path returns the absolute path.
func (f *File) Path() string { return f.path }

// Basename returns the file name including any suffix.
func (f *File) Basename() string { return f.basename }

// Suffix returns the name suffix without the leading dot, possibly "".
func (f *File) Suffix() string { return f.suffix }

// Size returns the size in bytes.
func (f *File) Size() int64 { return f.size }

// ModTime returns the modification time with sub-second precision dropped.
func (f *File) ModTime() time.Time { return f.modTime }

// MIMEType returns the sniffed MIME type, e.g. "application/pdf".
func (f *File) MIMEType() string { return f.mimeType }

// StrongHash returns the SHA-256 of the full contents, hex encoded.
func (f *File) StrongHash() string { return f.strongHash }

// PartialHash returns the SHA-256 of a bounded content prefix, used to key
// optional-precision caches for very large files.
func (f *File) PartialHash() string { return f.partialHash }

func (f *File) String() string { return f.basename }

func hashFile(path string) (strong, partial string, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer fh.Close()

	full := sha256.New()
	prefix := sha256.New()
	if _, err := io.Copy(full, io.TeeReader(io.LimitReader(fh, PartialHashPrefix), prefix)); err != nil {
		return "", "", err
	}
	if _, err := io.Copy(full, fh); err != nil {
		return "", "", err
	}
	return hex.EncodeToString(full.Sum(nil)), hex.EncodeToString(prefix.Sum(nil)), nil
}
