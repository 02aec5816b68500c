package split

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// maxBase64Len caps accepted payloads at ~4.5MB of binary image data.
const maxBase64Len = 6_000_000

var (
	// ErrMissingPayload reports a request with no usable base64 image.
	ErrMissingPayload = errors.New("missing base64 receipt payload")
	// ErrPayloadTooLarge reports a base64 payload over the size ceiling.
	ErrPayloadTooLarge = errors.New("image too large")
)

var dataURLPattern = regexp.MustCompile(`^data:([^;]+);base64,(.*)$`)

// Payload is a decoded receipt image ready for extraction.
type Payload struct {
	Data     []byte
	MimeType string
}

// DecodePayload accepts a receipt image in any of three request shapes: a
// JSON object {"base64Receipt": ..., "mimeType": ...}, a data URL, or a raw
// base64 string. The MIME type defaults to image/jpeg when absent.
func DecodePayload(raw []byte) (Payload, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return Payload{}, ErrMissingPayload
	}

	var encoded, mimeType string
	switch {
	case strings.HasPrefix(s, "{"):
		var body struct {
			Base64Receipt string `json:"base64Receipt"`
			MimeType      string `json:"mimeType"`
		}
		if err := json.Unmarshal([]byte(s), &body); err == nil {
			encoded, mimeType = body.Base64Receipt, body.MimeType
		}
	case strings.HasPrefix(s, "data:"):
		if m := dataURLPattern.FindStringSubmatch(s); m != nil && m[2] != "" {
			encoded, mimeType = m[2], m[1]
		}
	default:
		encoded = s
	}

	if encoded == "" {
		return Payload{}, ErrMissingPayload
	}
	if len(encoded) > maxBase64Len {
		return Payload{}, ErrPayloadTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, ErrMissingPayload
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Payload{Data: data, MimeType: mimeType}, nil
}
