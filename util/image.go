package util

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidImage is returned for payloads that are not valid base64 or carry
// a malformed data URI prefix.
var ErrInvalidImage = errors.New("invalid image payload")

var dataURIHeader = regexp.MustCompile(`^data:[A-Za-z0-9!#$&^_.+-]+/[A-Za-z0-9!#$&^_.+-]+;base64,$`)

// DecodeImage splits an optional "data:<mime>;base64," prefix from payload and
// decodes the remainder. Without a prefix the header is derived from the
// detected content type of the decoded bytes.
func DecodeImage(payload string) (data []byte, header string, err error) {
	payload = strings.TrimSpace(payload)
	body := payload
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, "", fmt.Errorf("%w: missing data URI separator", ErrInvalidImage)
		}
		header, body = payload[:idx+1], payload[idx+1:]
		if !dataURIHeader.MatchString(header) {
			return nil, "", fmt.Errorf("%w: malformed data URI prefix", ErrInvalidImage)
		}
	}

	data, err = base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if header == "" {
		header = headerFor(data)
	}
	return data, header, nil
}

// EncodeImage renders stored image bytes back as a data URI. It returns nil
// when there is no image.
func EncodeImage(data []byte, header string) *string {
	if len(data) == 0 {
		return nil
	}
	if header == "" {
		header = headerFor(data)
	}
	out := header + base64.StdEncoding.EncodeToString(data)
	return &out
}

func headerFor(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64,"
}
