package fileobject

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// magic signatures for formats the stdlib sniffer reports too generically.
var magicOverrides = []struct {
	prefix []byte
	mime   string
}{
	{[]byte("%PDF-"), "application/pdf"},
	{[]byte("AT&TFORM"), "image/vnd.djvu"},
	{[]byte("{\\rtf"), "application/rtf"},
	{[]byte("\x1f\x8b"), "application/gzip"},
}

// zip-container formats distinguished by their internal layout.
var zipContainerExts = map[string]string{
	".epub": "application/epub+zip",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
}

func sniffMIME(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	buf := make([]byte, 512)
	n, err := fh.Read(buf)
	if err != nil && n == 0 {
		if errors.Is(err, io.EOF) {
			return "application/octet-stream", nil
		}
		return "", err
	}
	head := buf[:n]

	for _, sig := range magicOverrides {
		if bytes.HasPrefix(head, sig.prefix) {
			return sig.mime, nil
		}
	}

	detected := http.DetectContentType(head)
	detected = strings.TrimSpace(strings.SplitN(detected, ";", 2)[0])

	ext := strings.ToLower(filepath.Ext(path))
	if detected == "application/zip" {
		if zipMIME, ok := zipContainerExts[ext]; ok {
			return zipMIME, nil
		}
	}
	if detected == "application/octet-stream" || detected == "text/plain" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			byExt = strings.TrimSpace(strings.SplitN(byExt, ";", 2)[0])
			// The content sniff wins over the extension for binary data;
			// the extension only refines an inconclusive sniff.
			if detected == "application/octet-stream" || strings.HasPrefix(byExt, "text/") {
				return byExt, nil
			}
		}
	}
	return detected, nil
}

// MatchesMIMEGlob reports whether a concrete MIME type satisfies a pattern
// that may be exact ("application/pdf"), a wildcard family ("image/*"), or
// the universal "*/*".
func MatchesMIMEGlob(mimeType, pattern string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	if pattern == "*/*" || pattern == "*" {
		return true
	}
	if pattern == mimeType {
		return true
	}
	if family, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mimeType, family+"/")
	}
	return false
}
