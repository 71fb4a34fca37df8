// Package devicesim simulates an MDS device behind a byte-stream link
// (serial framing) or a WebSocket bridge.
//
// The simulator answers configuration reads, honours stream control writes
// and, while streaming is enabled, emits a chunk every Interval, split into
// STREAM_DATA packets with consecutive sequence numbers.
package devicesim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mds-bridge/mds-go/pkg/backend/memdev"
	"github.com/mds-bridge/mds-go/pkg/backend/serial"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Simulation defaults.
const (
	DefaultChunkSize = 256
	DefaultInterval  = time.Second
)

// Options configures a Simulator.
type Options struct {
	// Device is the configuration the device reports.
	Device memdev.Config

	// ChunkSize is the size of each generated chunk.
	ChunkSize int

	// Interval is the time between chunks.
	Interval time.Duration

	// SkipEvery skips one sequence number every SkipEvery packets to mimic
	// packet loss. 0 disables skipping.
	SkipEvery int

	// Seed seeds the chunk generator; 0 uses the current time.
	Seed int64

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Simulator is a simulated MDS device.
type Simulator struct {
	cfg    wire.DeviceConfig
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	streaming bool
	seq       uint8
	rng       *rand.Rand

	packets atomic.Uint64
	chunks  atomic.Uint64
}

type sendFunc func(id wire.ReportID, payload []byte) error

// New creates a Simulator.
func New(opts Options) *Simulator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := opts.Device
	return &Simulator{
		cfg: wire.DeviceConfig{
			SupportedFeatures: d.SupportedFeatures,
			DeviceIdentifier:  wire.NewBoundedString(d.DeviceIdentifier, wire.MaxDeviceIDLen),
			DataURI:           wire.NewBoundedString(d.DataURI, wire.MaxURILen),
			Authorization:     wire.NewBoundedString(d.Authorization, wire.MaxAuthLen),
		},
		opts:   opts,
		logger: logger,
		rng:    rand.New(rand.NewSource(opts.Seed)),
	}
}

// Streaming reports whether the host enabled streaming.
func (s *Simulator) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// PacketsSent returns the number of stream packets emitted.
func (s *Simulator) PacketsSent() uint64 {
	return s.packets.Load()
}

// ChunksSent returns the number of chunks emitted.
func (s *Simulator) ChunksSent() uint64 {
	return s.chunks.Load()
}

// handle answers one host frame.
func (s *Simulator) handle(frame []byte, send sendFunc) error {
	if len(frame) == 0 {
		return nil
	}
	id := wire.ReportID(frame[0])
	payload := frame[1:]

	switch {
	case id.IsFeature():
		var buf [wire.MaxFeatureReportLen]byte
		n, err := wire.EncodeConfigField(id, &s.cfg, buf[:])
		if err != nil {
			return err
		}
		return send(id, buf[:n])

	case id == wire.ReportStreamControl && len(payload) == 0:
		s.mu.Lock()
		mode := wire.StreamModeDisabled
		if s.streaming {
			mode = wire.StreamModeEnabled
		}
		s.mu.Unlock()
		return send(id, []byte{byte(mode)})

	case id == wire.ReportStreamControl:
		enable, err := wire.ParseStreamControl(payload)
		if err != nil {
			s.logger.Warn("invalid stream control", "payload", fmt.Sprintf("%x", payload))
			return nil
		}
		s.mu.Lock()
		changed := s.streaming != enable
		s.streaming = enable
		s.mu.Unlock()
		if changed {
			s.logger.Info("streaming changed", "enabled", enable)
		}
		return nil

	default:
		s.logger.Debug("ignoring report", "report_id", id.String())
		return nil
	}
}

// emit sends one chunk as stream packets if streaming is enabled.
func (s *Simulator) emit(send sendFunc) error {
	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()
		return nil
	}
	chunk := make([]byte, s.opts.ChunkSize)
	s.rng.Read(chunk)
	s.mu.Unlock()

	var pkt [wire.MaxStreamPacketLen]byte
	for off := 0; off < len(chunk); off += wire.MaxChunkDataLen {
		end := min(off+wire.MaxChunkDataLen, len(chunk))

		s.mu.Lock()
		seq := s.seq
		s.seq = wire.NextSequence(s.seq)
		if s.opts.SkipEvery > 0 && (s.packets.Load()+1)%uint64(s.opts.SkipEvery) == 0 {
			s.seq = wire.NextSequence(s.seq)
		}
		s.mu.Unlock()

		n, err := wire.EncodeStreamPacket(seq, chunk[off:end], pkt[:])
		if err != nil {
			return err
		}
		if err := send(wire.ReportStreamData, pkt[:n]); err != nil {
			return err
		}
		s.packets.Add(1)
	}
	s.chunks.Add(1)
	return nil
}

// serve runs the device loop. frames delivers host frames; it is closed
// when the link ends. All sends happen on the calling goroutine.
func (s *Simulator) serve(ctx context.Context, frames <-chan []byte, readErr *error, send sendFunc) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				return *readErr
			}
			if err := s.handle(frame, send); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.emit(send); err != nil {
				return err
			}
		}
	}
}

// ServeStream serves the length-prefixed frame protocol on rw until ctx is
// cancelled or the stream fails. A clean EOF from the host returns nil.
func (s *Simulator) ServeStream(ctx context.Context, rw io.ReadWriter) error {
	fr := serial.NewFrameReader(rw)
	fw := serial.NewFrameWriter(rw)

	frames := make(chan []byte, 8)
	var readErr error
	go func() {
		defer close(frames)
		for {
			frame, err := fr.ReadFrame()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr = err
				}
				return
			}
			select {
			case frames <- bytes.Clone(frame):
			case <-ctx.Done():
				return
			}
		}
	}()

	return s.serve(ctx, frames, &readErr, fw.WriteFrame)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler returns an http.Handler serving the device over WebSocket. Each
// connection gets its own device loop; they share device state.
func (s *Simulator) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		s.logger.Info("bridge connected", "remote", r.RemoteAddr)

		if err := s.ServeWebSocket(r.Context(), conn); err != nil {
			s.logger.Debug("bridge connection ended", "error", err)
		}
	})
}

// ServeWebSocket serves the device on an established connection.
func (s *Simulator) ServeWebSocket(ctx context.Context, conn *websocket.Conn) error {
	frames := make(chan []byte, 8)
	var readErr error
	go func() {
		defer close(frames)
		for {
			kind, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					readErr = err
				}
				return
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			select {
			case frames <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	send := func(id wire.ReportID, payload []byte) error {
		msg := make([]byte, 1+len(payload))
		msg[0] = byte(id)
		copy(msg[1:], payload)
		return conn.WriteMessage(websocket.BinaryMessage, msg)
	}
	return s.serve(ctx, frames, &readErr, send)
}
