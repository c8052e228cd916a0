// Package datauri parses self-describing image payloads of the form
// data:image/<subtype>;base64,<payload>.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned for anything that is not a base64 image data URI.
var ErrInvalid = errors.New("invalid image data URI")

// DataURI is a validated image data URI.
type DataURI struct {
	MediaType string // e.g. image/jpeg
	Data      []byte
	raw       string
}

// String returns the original URI text.
func (d DataURI) String() string {
	return d.raw
}

// Subtype returns the part after "image/", e.g. "png".
func (d DataURI) Subtype() string {
	return strings.TrimPrefix(d.MediaType, "image/")
}

// Ext returns a file extension for the media type, including the dot.
func (d DataURI) Ext() string {
	switch sub := d.Subtype(); sub {
	case "jpeg", "jpg":
		return ".jpg"
	case "svg+xml":
		return ".svg"
	default:
		return "." + sub
	}
}

// Parse validates s and decodes its payload.
func Parse(s string) (DataURI, error) {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURI{}, fmt.Errorf("%w: missing data: scheme", ErrInvalid)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, fmt.Errorf("%w: missing payload separator", ErrInvalid)
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return DataURI{}, fmt.Errorf("%w: payload must be base64", ErrInvalid)
	}
	mediaType = strings.ToLower(mediaType)
	sub, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || sub == "" || strings.ContainsAny(sub, "; /") {
		return DataURI{}, fmt.Errorf("%w: media type %q is not an image", ErrInvalid, mediaType)
	}
	if payload == "" {
		return DataURI{}, fmt.Errorf("%w: empty payload", ErrInvalid)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURI{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return DataURI{MediaType: mediaType, Data: data, raw: s}, nil
}
