package backend

import (
	"errors"
	"syscall"
)

// Backend errors.
var (
	// ErrIO indicates a transport failure.
	ErrIO = errors.New("backend: I/O failure")

	// ErrWouldBlock indicates no data is available and the transport has no blocking read path.
	ErrWouldBlock = errors.New("backend: operation would block")

	// ErrInvalidArgument indicates a bad report ID or buffer.
	ErrInvalidArgument = errors.New("backend: invalid argument")

	// ErrTimeout indicates a blocking read ran out of time.
	ErrTimeout = errors.New("backend: timed out")

	// ErrNotSupported indicates the backend does not serve the report.
	ErrNotSupported = errors.New("backend: report not supported")

	// ErrClosed indicates the backend was destroyed or its transport closed.
	ErrClosed = errors.New("backend: closed")
)

// FromErrno converts a C-style return code to an error.
// Non-negative codes are successes and yield nil.
func FromErrno(code int) error {
	if code >= 0 {
		return nil
	}
	switch syscall.Errno(-code) {
	case syscall.EAGAIN:
		return ErrWouldBlock
	case syscall.EINVAL:
		return ErrInvalidArgument
	case syscall.ETIMEDOUT:
		return ErrTimeout
	default:
		return ErrIO
	}
}

// Errno converts an error to a negative C-style return code. nil yields 0.
func Errno(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrWouldBlock):
		return -int(syscall.EAGAIN)
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrNotSupported):
		return -int(syscall.EINVAL)
	case errors.Is(err, ErrTimeout):
		return -int(syscall.ETIMEDOUT)
	default:
		return -int(syscall.EIO)
	}
}

// IsNoData reports whether err means "nothing to read yet" rather than a failure.
func IsNoData(err error) bool {
	return errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrTimeout)
}
