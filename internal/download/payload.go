package download

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPayload is returned for export payloads without a metadata
// separator.
var ErrInvalidPayload = errors.New("invalid payload")

// DefaultMimeType is used when the payload declares no type.
const DefaultMimeType = "application/octet-stream"

// Payload is a parsed data URL. The body stays encoded until Decode so the
// interactive loop never pays for decoding.
type Payload struct {
	MimeType string
	body     string
}

// ParsePayload splits a data URL at its first comma. A "data:<type>;..."
// metadata segment yields the type; anything else falls back to
// DefaultMimeType.
func ParsePayload(dataURL string) (Payload, error) {
	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return Payload{}, ErrInvalidPayload
	}
	meta := dataURL[:comma]

	mimeType := DefaultMimeType
	if strings.HasPrefix(meta, "data:") {
		if semi := strings.IndexByte(meta, ';'); semi > len("data:") {
			mimeType = meta[len("data:"):semi]
		}
	}

	return Payload{MimeType: mimeType, body: dataURL[comma+1:]}, nil
}

// Decode base64-decodes the body. Whitespace is ignored and padding is
// optional.
func (p Payload) Decode() ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, p.body)

	enc := base64.StdEncoding
	if len(clean)%4 != 0 {
		clean = strings.TrimRight(clean, "=")
		enc = base64.RawStdEncoding
	}
	data, err := enc.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("bad base64: %w", err)
	}
	return data, nil
}
