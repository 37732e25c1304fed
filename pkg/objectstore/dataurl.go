package objectstore

import (
	"encoding/base64"
	"errors"
	"strings"
)

var errBadDataURL = errors.New("malformed data URL")

// DecodeDataURL parses "data:<mediatype>;base64,<payload>" and returns the
// media type and decoded bytes. Only base64-encoded data URLs are accepted.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errBadDataURL
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mediaType == "" {
		return "", nil, errBadDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errBadDataURL
	}
	return strings.ToLower(mediaType), data, nil
}
