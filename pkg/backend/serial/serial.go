// Package serial implements backend.Backend over a byte stream such as a
// UART, a USB CDC port, a pipe or a TCP connection.
//
// Every report travels as one frame:
//
//	[len:u16 BE][reportID][payload]
//
// where len counts the report ID and payload. The host requests a feature
// report by sending a frame with that report ID and an empty payload; the
// device answers with a frame carrying the report. Stream packets arrive
// unsolicited as STREAM_DATA frames.
//
// Stream data is multiplexed with feature responses, so the backend has no
// blocking read path for it: Read of STREAM_DATA returns
// backend.ErrWouldBlock. Consume stream frames with ReadFrame and pass them
// to session.Process.
package serial

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Options configures a Backend.
type Options struct {
	// InputDepth is the number of stream frames buffered before the oldest
	// is dropped (default: backend.DefaultInputDepth).
	InputDepth int

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Backend is a framed byte stream backend.
type Backend struct {
	writer    *FrameWriter
	router    *backend.Router
	logger    *slog.Logger
	destroyed atomic.Bool
}

// New creates a backend on rw and starts its reader goroutine. The caller
// keeps ownership of rw: Destroy does not close it, and the reader goroutine
// exits once rw returns an error (typically because the caller closed it).
func New(rw io.ReadWriter, opts Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Backend{
		writer: NewFrameWriter(rw),
		router: backend.NewRouter(opts.InputDepth),
		logger: logger,
	}
	go b.readLoop(NewFrameReader(rw))
	return b
}

func (b *Backend) readLoop(fr *FrameReader) {
	for {
		frame, err := fr.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrFrameEmpty) {
				continue
			}
			if !b.destroyed.Load() {
				b.logger.Debug("serial reader stopped", "error", err)
			}
			b.router.Close(fmt.Errorf("%w: %w", backend.ErrIO, err))
			return
		}
		if b.destroyed.Load() {
			continue
		}
		b.router.Deliver(frame)
	}
}

// Read implements backend.Backend.
func (b *Backend) Read(id wire.ReportID, buf []byte, timeout time.Duration) (int, error) {
	if b.destroyed.Load() {
		return 0, backend.ErrClosed
	}
	switch {
	case id == wire.ReportStreamData:
		return 0, backend.ErrWouldBlock
	case id.IsFeature() || id == wire.ReportStreamControl:
	default:
		return 0, fmt.Errorf("%w: report 0x%02x", backend.ErrInvalidArgument, uint8(id))
	}

	b.router.Expect(id)
	if err := b.writer.WriteFrame(id, nil); err != nil {
		return 0, fmt.Errorf("%w: %w", backend.ErrIO, err)
	}
	payload, err := b.router.AwaitFeature(id, timeout)
	if err != nil {
		return 0, err
	}
	return copy(buf, payload), nil
}

// Write implements backend.Backend.
func (b *Backend) Write(id wire.ReportID, buf []byte) (int, error) {
	if b.destroyed.Load() {
		return 0, backend.ErrClosed
	}
	if id == 0 || id > wire.ReportStreamData {
		return 0, fmt.Errorf("%w: report 0x%02x", backend.ErrInvalidArgument, uint8(id))
	}
	if err := b.writer.WriteFrame(id, buf); err != nil {
		if errors.Is(err, ErrFrameTooLarge) {
			return 0, fmt.Errorf("%w: %w", backend.ErrInvalidArgument, err)
		}
		return 0, fmt.Errorf("%w: %w", backend.ErrIO, err)
	}
	return len(buf), nil
}

// ReadFrame returns the next STREAM_DATA frame ([0x06, seq, data...]).
// With timeout 0 it polls; when nothing is queued it returns
// backend.ErrTimeout.
func (b *Backend) ReadFrame(timeout time.Duration) ([]byte, error) {
	return b.router.NextInput(timeout)
}

// Dropped returns the number of stream frames discarded because the input
// queue was full.
func (b *Backend) Dropped() uint64 {
	return b.router.Dropped()
}

// Done is closed when the underlying stream failed or the backend was destroyed.
func (b *Backend) Done() <-chan struct{} {
	return b.router.Done()
}

// Destroy implements backend.Backend. It stops serving reads and writes but
// leaves the byte stream open.
func (b *Backend) Destroy() {
	b.destroyed.Store(true)
	b.router.Close(nil)
}

var (
	_ backend.Backend     = (*Backend)(nil)
	_ backend.FrameSource = (*Backend)(nil)
)
