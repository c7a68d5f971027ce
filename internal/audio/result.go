// Package audio holds the single result type every synthesis tier is normalized into.
package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	MIMEMPEG = "audio/mpeg"
	MIMEWAV  = "audio/wav"
	MIMEOGG  = "audio/ogg"

	dataPrefix   = "data:"
	base64Marker = ";base64,"
)

// ErrEmptyPayload — провайдер вернул пустое аудио.
var ErrEmptyPayload = errors.New("empty audio payload")

// Result is a self-describing inline audio resource (a data URL).
// Callers play it as is, without knowing which tier produced it.
type Result struct {
	dataURL string
}

// FromBytes wraps raw encoded audio with its MIME tag.
func FromBytes(mime string, data []byte) Result {
	if mime == "" {
		mime = MIMEMPEG
	}
	return Result{
		dataURL: dataPrefix + mime + base64Marker + base64.StdEncoding.EncodeToString(data),
	}
}

// FromRemote normalizes a provider payload: a ready data URL is kept,
// a raw base64 payload gets the defaultMIME prefix.
func FromRemote(payload, defaultMIME string) (Result, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Result{}, ErrEmptyPayload
	}

	if strings.HasPrefix(payload, dataPrefix) {
		if !strings.Contains(payload, base64Marker) {
			return Result{}, fmt.Errorf("unsupported data url encoding")
		}
		return Result{dataURL: payload}, nil
	}

	if defaultMIME == "" {
		defaultMIME = MIMEMPEG
	}
	return Result{dataURL: dataPrefix + defaultMIME + base64Marker + payload}, nil
}

func (r Result) String() string {
	return r.dataURL
}

func (r Result) IsZero() bool {
	return r.dataURL == ""
}

func (r Result) MIMEType() string {
	if !strings.HasPrefix(r.dataURL, dataPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(r.dataURL, dataPrefix)
	if i := strings.Index(rest, ";"); i >= 0 {
		return rest[:i]
	}
	return ""
}

// Bytes decodes the payload back into encoded audio bytes.
func (r Result) Bytes() ([]byte, error) {
	i := strings.Index(r.dataURL, base64Marker)
	if i < 0 {
		return nil, fmt.Errorf("not a base64 data url")
	}
	data, err := base64.StdEncoding.DecodeString(r.dataURL[i+len(base64Marker):])
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return data, nil
}

// Extension подбирает расширение файла под MIME.
func (r Result) Extension() string {
	switch r.MIMEType() {
	case MIMEWAV, "audio/x-wav", "audio/wave":
		return ".wav"
	case MIMEOGG:
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".mp3"
	}
}
