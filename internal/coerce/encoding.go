package coerce

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var bomUTF8 = []byte{0xef, 0xbb, 0xbf}

// DecodeText converts raw extractor bytes to a string using a fixed decoder
// chain: strict UTF-8 first (with an optional BOM), then UTF-16 when a byte
// order mark announces it, then Windows-1252 as the final fallback. The
// chain is shared by every text extractor so identical bytes always decode
// to identical strings.
func DecodeText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if bytes.HasPrefix(raw, bomUTF8) {
		raw = raw[len(bomUTF8):]
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	if len(raw) >= 2 {
		if (raw[0] == 0xfe && raw[1] == 0xff) || (raw[0] == 0xff && raw[1] == 0xfe) {
			dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
			if out, err := dec.Bytes(raw); err == nil && utf8.Valid(out) {
				return string(out)
			}
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		// Windows-1252 maps every byte; this is unreachable in practice.
		return string(raw)
	}
	return string(out)
}
