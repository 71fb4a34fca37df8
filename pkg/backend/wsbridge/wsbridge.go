// Package wsbridge implements backend.Backend over a WebSocket, for devices
// reached through a bridge (a BLE gateway, a phone app, the device simulator).
//
// Each report is one binary message laid out as [reportID][payload]. The
// host requests a feature report by sending a message holding only the
// report ID. Stream packets arrive unsolicited as STREAM_DATA messages and
// can be consumed either by pulling (Read of STREAM_DATA, session.ProcessStream)
// or as whole frames (ReadFrame, session.Process).
package wsbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Keep-alive and write defaults.
const (
	// DefaultPingInterval is the default interval between WebSocket pings.
	DefaultPingInterval = 30 * time.Second

	// DefaultWriteTimeout bounds each message write.
	DefaultWriteTimeout = 5 * time.Second
)

// Options configures a Backend.
type Options struct {
	// InputDepth is the number of stream frames buffered before the oldest
	// is dropped (default: backend.DefaultInputDepth).
	InputDepth int

	// PingInterval is the keep-alive ping interval. Zero selects
	// DefaultPingInterval; a negative value disables pings.
	PingInterval time.Duration

	// WriteTimeout bounds each write (default: DefaultWriteTimeout).
	WriteTimeout time.Duration

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Backend moves MDS reports over a WebSocket connection.
type Backend struct {
	conn         *websocket.Conn
	router       *backend.Router
	logger       *slog.Logger
	writeTimeout time.Duration

	writeMu   sync.Mutex
	msg       [1 + wire.MaxFeatureReportLen]byte
	destroyed atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
}

// Dial connects to a bridge at url (ws:// or wss://).
func Dial(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("wsbridge: dial %s: %w", url, err)
	}
	return conn, nil
}

// New creates a backend on conn and starts its reader goroutine. The caller
// keeps ownership of conn: Destroy does not close it.
func New(conn *websocket.Conn, opts Options) *Backend {
	if opts.PingInterval == 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Backend{
		conn:         conn,
		router:       backend.NewRouter(opts.InputDepth),
		logger:       logger,
		writeTimeout: opts.WriteTimeout,
		stop:         make(chan struct{}),
	}
	go b.readLoop()
	if opts.PingInterval > 0 {
		go b.pingLoop(opts.PingInterval)
	}
	return b
}

func (b *Backend) readLoop() {
	for {
		kind, msg, err := b.conn.ReadMessage()
		if err != nil {
			if !b.destroyed.Load() {
				b.logger.Debug("websocket reader stopped", "error", err)
			}
			b.router.Close(fmt.Errorf("%w: %w", backend.ErrIO, err))
			b.halt()
			return
		}
		if kind != websocket.BinaryMessage || b.destroyed.Load() {
			continue
		}
		b.router.Deliver(msg)
	}
}

func (b *Backend) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(b.writeTimeout)
			if err := b.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				b.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}

func (b *Backend) halt() {
	b.stopOnce.Do(func() { close(b.stop) })
}

func (b *Backend) send(id wire.ReportID, payload []byte) error {
	if len(payload) > wire.MaxFeatureReportLen {
		return fmt.Errorf("%w: payload of %d bytes", backend.ErrInvalidArgument, len(payload))
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.msg[0] = byte(id)
	n := 1 + copy(b.msg[1:], payload)
	_ = b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
	if err := b.conn.WriteMessage(websocket.BinaryMessage, b.msg[:n]); err != nil {
		return fmt.Errorf("%w: %w", backend.ErrIO, err)
	}
	return nil
}

// Read implements backend.Backend. STREAM_DATA reads wait for the next
// stream packet; with timeout 0 and nothing queued they return
// backend.ErrWouldBlock.
func (b *Backend) Read(id wire.ReportID, buf []byte, timeout time.Duration) (int, error) {
	if b.destroyed.Load() {
		return 0, backend.ErrClosed
	}

	switch {
	case id == wire.ReportStreamData:
		frame, err := b.router.NextInput(timeout)
		if err != nil {
			if timeout == 0 && errors.Is(err, backend.ErrTimeout) {
				return 0, backend.ErrWouldBlock
			}
			return 0, err
		}
		return copy(buf, frame[1:]), nil
	case id.IsFeature() || id == wire.ReportStreamControl:
	default:
		return 0, fmt.Errorf("%w: report 0x%02x", backend.ErrInvalidArgument, uint8(id))
	}

	b.router.Expect(id)
	if err := b.send(id, nil); err != nil {
		return 0, err
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
	if err := b.send(id, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// ReadFrame returns the next STREAM_DATA frame ([0x06, seq, data...]).
func (b *Backend) ReadFrame(timeout time.Duration) ([]byte, error) {
	return b.router.NextInput(timeout)
}

// Dropped returns the number of stream frames discarded because the input
// queue was full.
func (b *Backend) Dropped() uint64 {
	return b.router.Dropped()
}

// Done is closed when the connection failed or the backend was destroyed.
func (b *Backend) Done() <-chan struct{} {
	return b.router.Done()
}

// Destroy implements backend.Backend. It stops pings and serving reads but
// leaves the connection open.
func (b *Backend) Destroy() {
	b.destroyed.Store(true)
	b.halt()
	b.router.Close(nil)
}

var (
	_ backend.Backend     = (*Backend)(nil)
	_ backend.FrameSource = (*Backend)(nil)
)
