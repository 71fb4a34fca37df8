package session

import "errors"

// Session errors.
var (
	// ErrNoBackend indicates an operation needed a backend but none is registered.
	ErrNoBackend = errors.New("session: no backend registered")

	// ErrReadFailed indicates the configuration could not be read.
	ErrReadFailed = errors.New("session: read failed")

	// ErrWriteFailed indicates a stream control write failed.
	ErrWriteFailed = errors.New("session: write failed")

	// ErrUploadFailed indicates the upload sink rejected a chunk.
	ErrUploadFailed = errors.New("session: upload failed")

	// ErrDestroyed indicates the session was already destroyed.
	ErrDestroyed = errors.New("session: destroyed")
)
