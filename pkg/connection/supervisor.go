package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrGaveUp is returned by Run when MaxAttempts redials in a row failed.
var ErrGaveUp = errors.New("connection: giving up after repeated dial failures")

// State is the supervisor state.
type State uint8

const (
	// StateIdle is the state before Run.
	StateIdle State = iota

	// StateDialing indicates a dial is in progress.
	StateDialing

	// StateConnected indicates the link is being served.
	StateConnected

	// StateWaiting indicates the supervisor is waiting to redial.
	StateWaiting

	// StateStopped indicates Run has returned.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDialing:
		return "DIALING"
	case StateConnected:
		return "CONNECTED"
	case StateWaiting:
		return "WAITING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Link is one established transport connection.
type Link interface {
	// Serve runs until the link fails (non-nil error), finishes for good
	// (nil) or ctx is cancelled.
	Serve(ctx context.Context) error

	// Close releases the link.
	Close() error
}

// DialFunc establishes a Link.
type DialFunc func(ctx context.Context) (Link, error)

// Config configures a Supervisor.
type Config struct {
	// Redial enables reconnection. When false Run dials once.
	Redial bool

	// Backoff configures redial delays.
	Backoff BackoffConfig

	// DialTimeout bounds each dial (default: 30s).
	DialTimeout time.Duration

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Supervisor dials, serves and redials a transport.
type Supervisor struct {
	mu    sync.RWMutex
	state State
	links int

	cfg     Config
	backoff *Backoff
	logger  *slog.Logger

	onStateChange func(oldState, newState State)
}

// NewSupervisor creates a Supervisor.
func NewSupervisor(cfg Config) *Supervisor {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		cfg:     cfg,
		backoff: NewBackoff(cfg.Backoff),
		logger:  logger,
	}
}

// OnStateChange sets a callback for state changes. Set it before Run.
func (s *Supervisor) OnStateChange(fn func(oldState, newState State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Links returns how many links were established so far.
func (s *Supervisor) Links() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links
}

// Run dials and serves links until ctx is cancelled, a link finishes
// cleanly, or redialing gives up. Cancellation is not an error.
func (s *Supervisor) Run(ctx context.Context, dial DialFunc) error {
	defer s.setState(StateStopped)

	for {
		s.setState(StateDialing)
		dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
		link, err := dial(dialCtx)
		cancel()

		if ctx.Err() != nil {
			if link != nil {
				_ = link.Close()
			}
			return nil
		}

		if err == nil {
			s.backoff.Reset()
			s.mu.Lock()
			s.links++
			s.mu.Unlock()
			s.setState(StateConnected)

			err = link.Serve(ctx)
			if cerr := link.Close(); cerr != nil {
				s.logger.Debug("close link", "error", cerr)
			}
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				return nil
			}
			s.logger.Warn("link lost", "error", err)
		} else {
			s.logger.Warn("dial failed", "error", err, "attempt", s.backoff.Attempts()+1)
		}

		if !s.cfg.Redial {
			return err
		}

		delay, ok := s.backoff.Next()
		if !ok {
			return fmt.Errorf("%w: %w", ErrGaveUp, err)
		}
		s.setState(StateWaiting)
		s.logger.Info("redialing", "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	old := s.state
	s.state = state
	fn := s.onStateChange
	s.mu.Unlock()

	if fn != nil && old != state {
		fn(old, state)
	}
}
