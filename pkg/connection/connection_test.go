package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{})

		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}

		for i, exp := range expected {
			base := b.Current()
			if _, ok := b.Next(); !ok {
				t.Fatalf("Attempt %d: unlimited backoff gave up", i)
			}
			if base != exp {
				t.Errorf("Attempt %d: base = %v, want %v", i, base, exp)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		samples := make([]time.Duration, 10)
		for i := range samples {
			samples[i], _ = NewBackoff(BackoffConfig{}).Next()
		}

		for i, s := range samples {
			if s < time.Second || s > time.Duration(float64(time.Second)*1.25)+time.Millisecond {
				t.Errorf("Sample %d: %v out of expected range [1s, 1.25s]", i, s)
			}
		}
	})

	t.Run("NoJitter", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			Initial: 100 * time.Millisecond,
			Max:     500 * time.Millisecond,
			Jitter:  -1,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}
		for i, exp := range expected {
			got, _ := b.Next()
			if got != exp {
				t.Errorf("Attempt %d: got %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("MaxAttemptsAndReset", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{MaxAttempts: 2, Jitter: -1})

		for i := 0; i < 2; i++ {
			if _, ok := b.Next(); !ok {
				t.Fatalf("Next() %d gave up early", i)
			}
		}
		if _, ok := b.Next(); ok {
			t.Error("Next() should give up after MaxAttempts")
		}

		b.Reset()
		if b.Attempts() != 0 || b.Current() != InitialBackoff {
			t.Errorf("after Reset: attempts %d, current %v", b.Attempts(), b.Current())
		}
		if _, ok := b.Next(); !ok {
			t.Error("Next() should succeed after Reset")
		}
	})
}

type fakeLink struct {
	serve  func(ctx context.Context) error
	closed atomic.Bool
}

func (l *fakeLink) Serve(ctx context.Context) error { return l.serve(ctx) }

func (l *fakeLink) Close() error {
	l.closed.Store(true)
	return nil
}

func fastConfig(redial bool, maxAttempts int) Config {
	return Config{
		Redial: redial,
		Backoff: BackoffConfig{
			Initial:     time.Millisecond,
			Max:         5 * time.Millisecond,
			Jitter:      -1,
			MaxAttempts: maxAttempts,
		},
	}
}

func TestSupervisor(t *testing.T) {
	t.Run("CleanFinish", func(t *testing.T) {
		s := NewSupervisor(fastConfig(true, 0))
		link := &fakeLink{serve: func(context.Context) error { return nil }}

		err := s.Run(context.Background(), func(context.Context) (Link, error) { return link, nil })
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !link.closed.Load() {
			t.Error("link was not closed")
		}
		if s.State() != StateStopped || s.Links() != 1 {
			t.Errorf("state %v, links %d", s.State(), s.Links())
		}
	})

	t.Run("RedialAfterLinkLoss", func(t *testing.T) {
		s := NewSupervisor(fastConfig(true, 0))
		var dials atomic.Int32

		err := s.Run(context.Background(), func(context.Context) (Link, error) {
			n := dials.Add(1)
			switch n {
			case 1:
				return &fakeLink{serve: func(context.Context) error { return errors.New("device unplugged") }}, nil
			case 2:
				return nil, errors.New("no such device")
			default:
				return &fakeLink{serve: func(context.Context) error { return nil }}, nil
			}
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if dials.Load() != 3 {
			t.Errorf("dials = %d, want 3", dials.Load())
		}
		if s.Links() != 2 {
			t.Errorf("Links() = %d, want 2", s.Links())
		}
	})

	t.Run("NoRedial", func(t *testing.T) {
		s := NewSupervisor(fastConfig(false, 0))
		lost := errors.New("device unplugged")

		err := s.Run(context.Background(), func(context.Context) (Link, error) {
			return &fakeLink{serve: func(context.Context) error { return lost }}, nil
		})
		if !errors.Is(err, lost) {
			t.Errorf("Run() error = %v, want %v", err, lost)
		}
	})

	t.Run("GivesUp", func(t *testing.T) {
		s := NewSupervisor(fastConfig(true, 3))
		dialErr := errors.New("connection refused")
		var dials atomic.Int32

		err := s.Run(context.Background(), func(context.Context) (Link, error) {
			dials.Add(1)
			return nil, dialErr
		})
		if !errors.Is(err, ErrGaveUp) || !errors.Is(err, dialErr) {
			t.Errorf("Run() error = %v, want ErrGaveUp wrapping the dial error", err)
		}
		if dials.Load() != 4 {
			t.Errorf("dials = %d, want 4 (first dial plus 3 redials)", dials.Load())
		}
	})

	t.Run("CancelWhileServing", func(t *testing.T) {
		s := NewSupervisor(fastConfig(true, 0))
		ctx, cancel := context.WithCancel(context.Background())
		link := &fakeLink{serve: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}

		done := make(chan error, 1)
		go func() {
			done <- s.Run(ctx, func(context.Context) (Link, error) { return link, nil })
		}()

		deadline := time.After(2 * time.Second)
		for s.State() != StateConnected {
			select {
			case <-deadline:
				t.Fatal("supervisor never connected")
			case <-time.After(time.Millisecond):
			}
		}
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v, want nil on cancel", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		if !link.closed.Load() {
			t.Error("link was not closed")
		}
	})

	t.Run("StateChanges", func(t *testing.T) {
		s := NewSupervisor(fastConfig(true, 0))
		var mu sync.Mutex
		var states []State
		s.OnStateChange(func(_, newState State) {
			mu.Lock()
			states = append(states, newState)
			mu.Unlock()
		})

		first := true
		_ = s.Run(context.Background(), func(context.Context) (Link, error) {
			if first {
				first = false
				return nil, errors.New("busy")
			}
			return &fakeLink{serve: func(context.Context) error { return nil }}, nil
		})

		mu.Lock()
		defer mu.Unlock()
		want := []State{StateDialing, StateWaiting, StateDialing, StateConnected, StateStopped}
		if len(states) != len(want) {
			t.Fatalf("states = %v, want %v", states, want)
		}
		for i := range want {
			if states[i] != want[i] {
				t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
			}
		}
	})
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateIdle:      "IDLE",
		StateDialing:   "DIALING",
		StateConnected: "CONNECTED",
		StateWaiting:   "WAITING",
		StateStopped:   "STOPPED",
		State(99):      "UNKNOWN",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
