package upload

import (
	"errors"
	"strings"
)

// Upload errors.
var (
	// ErrInvalidAuthHeader indicates an authorization string without a "Name:Value" pair.
	ErrInvalidAuthHeader = errors.New("upload: invalid authorization header")

	// ErrNoURI indicates the chunk has no destination URI.
	ErrNoURI = errors.New("upload: no data URI")
)

// Sink receives chunk data. authHeader has the form "HeaderName:HeaderValue"
// and may be empty.
// data is only valid for the duration of the call.
type Sink interface {
	Upload(uri, authHeader string, data []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(uri, authHeader string, data []byte) error

// Upload calls f.
func (f SinkFunc) Upload(uri, authHeader string, data []byte) error {
	return f(uri, authHeader, data)
}

// ParseAuthHeader splits "Name:Value" on the first colon and trims the
// surrounding whitespace of both parts. ok is false if there is no colon or
// the name is empty.
func ParseAuthHeader(s string) (name, value string, ok bool) {
	name, value, found := strings.Cut(s, ":")
	if !found {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}
