package session

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// DefaultReadTimeout bounds each feature report read.
const DefaultReadTimeout = 2 * time.Second

// Sink receives the chunk data of every parsed packet. authHeader has the
// form "HeaderName:HeaderValue" and may be empty.
// data is only valid for the duration of the call.
type Sink interface {
	Upload(uri, authHeader string, data []byte) error
}

// Config configures a Session.
type Config struct {
	// ReadTimeout bounds each feature report read. Zero selects
	// DefaultReadTimeout; a negative value blocks.
	ReadTimeout time.Duration

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger optionally records protocol events.
	ProtocolLogger log.Logger

	// Observer is notified of packets, anomalies, uploads and streaming changes.
	Observer Observer
}

// Session is an MDS host session bound to at most one backend.
type Session struct {
	id          string
	backend     backend.Backend
	readTimeout time.Duration

	logger   *slog.Logger
	plog     log.Logger
	observer Observer
	sink     Sink

	config    atomic.Pointer[wire.DeviceConfig]
	streaming atomic.Bool
	destroyed atomic.Bool

	// lastSeq holds the last sequence number, or noSequence.
	lastSeq atomic.Int32

	stats counters

	featureBuf [wire.MaxFeatureReportLen]byte
	packetBuf  [wire.MaxStreamPacketLen]byte

	// pkt is the packet returned by the processing calls.
	pkt wire.StreamPacket
}

const noSequence = -1

// New creates a session. b may be nil for callers that drive I/O themselves
// through LoadDeviceConfig and ProcessStreamData.
func New(b backend.Backend, cfg Config) *Session {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	id := uuid.NewString()
	s := &Session{
		id:          id,
		backend:     b,
		readTimeout: cfg.ReadTimeout,
		logger:      logger.With("session_id", id),
		plog:        cfg.ProtocolLogger,
		observer:    observer,
	}
	s.lastSeq.Store(noSequence)
	s.logState(log.StateEntitySession, "", "CREATED", "")
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// HasBackend reports whether a backend is registered.
func (s *Session) HasBackend() bool {
	return s.backend != nil
}

// SetUploadSink registers the sink every parsed packet is handed to.
// The last registration wins; nil clears it.
func (s *Session) SetUploadSink(sink Sink) {
	s.sink = sink
}

// SetLogger replaces the operational logger. nil disables logging.
func (s *Session) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s.logger = logger.With("session_id", s.id)
}

// SetProtocolLogger replaces the protocol logger. nil disables capture.
func (s *Session) SetProtocolLogger(logger log.Logger) {
	s.plog = logger
}

// SetObserver replaces the observer. nil removes it.
func (s *Session) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	s.observer = o
}

// Destroyed reports whether Destroy was called.
func (s *Session) Destroyed() bool {
	return s.destroyed.Load()
}

// Destroy tears the session down. If streaming is enabled it is disabled
// first; failures are logged and ignored. The backend is then destroyed.
// Calling Destroy again has no effect.
func (s *Session) Destroy() {
	if s.destroyed.Load() {
		return
	}

	if s.streaming.Load() && s.backend != nil {
		if err := s.setStreaming(false); err != nil {
			s.logger.Warn("disable streaming during teardown failed", "error", err)
			s.logError(log.LayerSession, err, "destroy: disable streaming")
		}
	}
	s.destroyed.Store(true)

	if s.backend != nil {
		s.backend.Destroy()
		s.backend = nil
	}
	s.logState(log.StateEntitySession, "CREATED", "DESTROYED", "")
	s.logger.Debug("session destroyed")
}

func (s *Session) checkAlive() error {
	if s.destroyed.Load() {
		return ErrDestroyed
	}
	return nil
}
