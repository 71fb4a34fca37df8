package log

import (
	"bufio"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileExt is the conventional extension of capture files.
const FileExt = ".mdslog"

// FileLogger writes protocol events to a capture file in CBOR format.
// Each event is encoded into a buffer and written to the file with one write
// before Log returns, so a crash loses at most the event being logged.
// It is safe for concurrent use.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	encoder *cbor.Encoder
	events  int
	closed  bool
}

// NewFileLogger opens path for appending, creating it with mode 0644 if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	return &FileLogger{
		file:    f,
		buf:     buf,
		encoder: NewEncoder(buf),
	}, nil
}

// Log appends an event. Encoding errors are dropped so that capture never
// disturbs the session.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err != nil {
		l.buf.Reset(l.file)
		return
	}
	if err := l.buf.Flush(); err != nil {
		return
	}
	l.events++
}

// Events returns the number of events written so far.
func (l *FileLogger) Events() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}

// Flush writes any buffered bytes to the file. Log already flushes each
// event; Flush remains for callers that want an explicit sync point.
func (l *FileLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	return l.buf.Flush()
}

// Close flushes and closes the file. It is safe to call Close multiple times;
// later Log calls are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	flushErr := l.buf.Flush()
	if err := l.file.Close(); err != nil {
		return err
	}
	return flushErr
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
