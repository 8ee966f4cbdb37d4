package assets

import (
	"mime"
	"strings"
)

// DefaultMimeType is used when no table recognises a path.
const DefaultMimeType = "application/octet-stream"

// Utf8 is the only text encoding the router ever attaches.
const Utf8 = "utf-8"

// fallbackTypes is consulted, in order, on the lower-cased path when the
// generic table has no answer.
var fallbackTypes = []struct {
	suffixes []string
	mimeType string
}{
	{[]string{".js", ".mjs"}, "application/javascript"},
	{[]string{".css"}, "text/css"},
	{[]string{".json", ".webmanifest"}, "application/json"},
	{[]string{".svg"}, "image/svg+xml"},
	{[]string{".woff2"}, "font/woff2"},
	{[]string{".woff"}, "font/woff"},
	{[]string{".ttf"}, "font/ttf"},
	{[]string{".otf"}, "font/otf"},
	{[]string{".png"}, "image/png"},
	{[]string{".jpg", ".jpeg"}, "image/jpeg"},
	{[]string{".ico"}, "image/x-icon"},
	{[]string{".txt"}, "text/plain"},
}

var textualTypes = map[string]struct{}{
	"application/javascript":    {},
	"text/javascript":           {},
	"application/json":          {},
	"application/manifest+json": {},
	"application/xml":           {},
	"image/svg+xml":             {},
}

// TypeTable maps an extension (with leading dot) to a MIME type, or "" when
// unknown.
type TypeTable func(ext string) string

// SystemTypes is the generic extension table from the mime package, with
// parameters such as charset stripped.
func SystemTypes(ext string) string {
	return stripParams(mime.TypeByExtension(ext))
}

// FallbackType resolves a path against the fixed fallback table.
func FallbackType(path string) string {
	lower := strings.ToLower(path)
	for _, entry := range fallbackTypes {
		for _, suffix := range entry.suffixes {
			if strings.HasSuffix(lower, suffix) {
				return entry.mimeType
			}
		}
	}
	return DefaultMimeType
}

// IsTextual reports whether responses of mimeType carry a text encoding.
func IsTextual(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	_, ok := textualTypes[mimeType]
	return ok
}

// EncodingFor returns Utf8 for textual types and "" otherwise.
func EncodingFor(mimeType string) string {
	if IsTextual(mimeType) {
		return Utf8
	}
	return ""
}

func stripParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}
