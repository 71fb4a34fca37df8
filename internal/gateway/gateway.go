// Package gateway runs an MDS session against a configured transport:
// it reads the device configuration, enables streaming, pumps stream
// packets into the upload sink and redials the transport when it fails.
//
// The session is driven from a single goroutine. Other goroutines reach it
// through Do, or read its atomic state through the statusapi.Source methods.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/config"
	"github.com/mds-bridge/mds-go/pkg/connection"
	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// ErrNotConnected is returned by Do while no session is active.
var ErrNotConnected = errors.New("gateway: no active session")

// Transport is one opened device link.
type Transport struct {
	Backend backend.Backend

	// Closer releases the underlying handle after the backend is destroyed.
	Closer io.Closer
}

// DialFunc opens a Transport.
type DialFunc func(ctx context.Context) (*Transport, error)

// Options configures a Gateway.
type Options struct {
	Config config.Config

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger

	// Sink receives every chunk. nil only counts packets.
	Sink session.Sink

	// ProtocolLogger optionally records protocol events.
	ProtocolLogger log.Logger

	// Observer is attached to every session.
	Observer session.Observer

	// Dial overrides the transport selected by Config.Transport.
	Dial DialFunc

	// OnDeviceConfig is called after each configuration read on a new link.
	OnDeviceConfig func(cfg wire.DeviceConfig)
}

type command struct {
	fn   func(*session.Session) error
	done chan error
}

// Gateway owns the transport supervisor and the session of the current link.
type Gateway struct {
	cfg    config.Config
	opts   Options
	logger *slog.Logger
	dial   DialFunc

	supervisor *connection.Supervisor
	current    atomic.Pointer[session.Session]
	active     atomic.Pointer[link]
}

// New creates a Gateway.
func New(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	g := &Gateway{
		cfg:    opts.Config,
		opts:   opts,
		logger: logger,
		dial:   opts.Dial,
	}
	if g.dial == nil {
		g.dial = TransportDialer(opts.Config.Transport, logger)
	}

	r := opts.Config.Redial
	g.supervisor = connection.NewSupervisor(connection.Config{
		Redial: r.Enabled,
		Backoff: connection.BackoffConfig{
			Initial:     r.InitialDelay,
			Max:         r.MaxDelay,
			MaxAttempts: r.MaxAttempts,
		},
		Logger: logger.With("component", "supervisor"),
	})
	return g
}

// Run serves the device until ctx is cancelled or redialing gives up.
func (g *Gateway) Run(ctx context.Context) error {
	return g.supervisor.Run(ctx, g.dialLink)
}

// State returns the transport supervisor state.
func (g *Gateway) State() connection.State {
	return g.supervisor.State()
}

// Links returns how many transport links were established.
func (g *Gateway) Links() int {
	return g.supervisor.Links()
}

// Session returns the session of the current (or last) link, or nil.
func (g *Gateway) Session() *session.Session {
	return g.current.Load()
}

// Do runs fn on the session goroutine and returns its error. It fails with
// ErrNotConnected when no link is served or the link drops before fn runs.
func (g *Gateway) Do(ctx context.Context, fn func(*session.Session) error) error {
	l := g.active.Load()
	if l == nil || g.supervisor.State() != connection.StateConnected {
		return ErrNotConnected
	}
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case l.cmds <- cmd:
	case <-l.done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) dialLink(ctx context.Context) (connection.Link, error) {
	t, err := g.dial(ctx)
	if err != nil {
		return nil, err
	}
	s := session.New(t.Backend, session.Config{
		ReadTimeout:    g.cfg.Transport.ReadTimeout,
		Logger:         g.logger,
		ProtocolLogger: g.opts.ProtocolLogger,
		Observer:       g.opts.Observer,
	})
	if g.opts.Sink != nil {
		s.SetUploadSink(g.opts.Sink)
	}
	g.current.Store(s)
	l := &link{
		g:    g,
		t:    t,
		s:    s,
		cmds: make(chan command),
		done: make(chan struct{}),
	}
	g.active.Store(l)
	return l, nil
}

type link struct {
	g *Gateway
	t *Transport
	s *session.Session

	// cmds is drained by Serve; done is closed once it stops doing so.
	cmds     chan command
	done     chan struct{}
	doneOnce sync.Once
}

func (l *link) Serve(ctx context.Context) error {
	defer l.stop()
	return l.g.serve(ctx, l.s, l.t.Backend, l.cmds)
}

func (l *link) stop() {
	l.doneOnce.Do(func() { close(l.done) })
}

func (l *link) Close() error {
	l.stop()
	l.g.active.CompareAndSwap(l, nil)
	l.s.Destroy()
	if l.t.Closer == nil {
		return nil
	}
	return l.t.Closer.Close()
}

func (g *Gateway) serve(ctx context.Context, s *session.Session, b backend.Backend, cmds <-chan command) error {
	cfg, err := s.ReadDeviceConfig()
	if err != nil {
		g.logger.Warn("device configuration incomplete", "error", err)
	}
	g.logger.Info("device connected",
		"device_id", cfg.DeviceIdentifier.String(),
		"data_uri", cfg.DataURI.String(),
		"features", fmt.Sprintf("0x%08x", cfg.SupportedFeatures))
	if g.opts.OnDeviceConfig != nil {
		g.opts.OnDeviceConfig(cfg)
	}

	if g.cfg.Stream.Enable {
		if err := s.EnableStreaming(); err != nil {
			return err
		}
	}

	next := g.pump(s, b)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-cmds:
			cmd.done <- cmd.fn(s)
			continue
		default:
		}

		if err := next(); err != nil {
			return err
		}
	}
}

// pump returns the function that consumes one stream packet according to
// the configured stream mode.
func (g *Gateway) pump(s *session.Session, b backend.Backend) func() error {
	poll := g.cfg.Stream.PollTimeout
	fs, canPush := b.(backend.FrameSource)

	usePush := g.cfg.Stream.Mode == config.StreamPush ||
		(g.cfg.Stream.Mode == config.StreamAuto && canPush)

	if usePush && canPush {
		return func() error {
			frame, err := fs.ReadFrame(poll)
			if errors.Is(err, backend.ErrTimeout) {
				return nil
			}
			if err != nil {
				return err
			}
			_, _, err = s.Process(frame)
			return g.packetError(err)
		}
	}
	if usePush {
		g.logger.Warn("backend does not deliver frames, falling back to pull mode")
	}
	return func() error {
		_, err := s.ProcessStream(poll)
		if backend.IsNoData(err) {
			return nil
		}
		return g.packetError(err)
	}
}

// packetError filters per-packet failures that must not end the link.
func (g *Gateway) packetError(err error) error {
	switch {
	case err == nil:
		return nil
	case session.IsUploadFailure(err):
		return nil
	case errors.Is(err, session.ErrReadFailed), errors.Is(err, session.ErrDestroyed):
		return err
	default:
		g.logger.Debug("dropping stream packet", "error", err)
		return nil
	}
}

// ID implements statusapi.Source.
func (g *Gateway) ID() string {
	if s := g.current.Load(); s != nil {
		return s.ID()
	}
	return ""
}

// Streaming implements statusapi.Source.
func (g *Gateway) Streaming() bool {
	if s := g.current.Load(); s != nil {
		return s.Streaming()
	}
	return false
}

// LastSequence implements statusapi.Source.
func (g *Gateway) LastSequence() (uint8, bool) {
	if s := g.current.Load(); s != nil {
		return s.LastSequence()
	}
	return 0, false
}

// DeviceConfig implements statusapi.Source.
func (g *Gateway) DeviceConfig() (wire.DeviceConfig, bool) {
	if s := g.current.Load(); s != nil {
		return s.DeviceConfig()
	}
	return wire.DeviceConfig{}, false
}

// Stats implements statusapi.Source.
func (g *Gateway) Stats() session.Stats {
	if s := g.current.Load(); s != nil {
		return s.Stats()
	}
	return session.Stats{}
}

// ResetStats implements statusapi.Source.
func (g *Gateway) ResetStats() {
	if s := g.current.Load(); s != nil {
		s.ResetStats()
	}
}
