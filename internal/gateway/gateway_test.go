package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mds-bridge/mds-go/internal/devicesim"
	"github.com/mds-bridge/mds-go/pkg/backend/memdev"
	"github.com/mds-bridge/mds-go/pkg/config"
	"github.com/mds-bridge/mds-go/pkg/connection"
	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

type countingSink struct {
	mu     sync.Mutex
	chunks int
	bytes  int
	uri    string
	fail   atomic.Bool
}

func (c *countingSink) Upload(uri, _ string, data []byte) error {
	if c.fail.Load() {
		return errors.New("server unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks++
	c.bytes += len(data)
	c.uri = uri
	return nil
}

func (c *countingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chunks
}

func (c *countingSink) lastURI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uri
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Transport.Kind = config.TransportMemory
	cfg.Stream.PollTimeout = 10 * time.Millisecond
	cfg.Redial.InitialDelay = time.Millisecond
	cfg.Redial.MaxDelay = 5 * time.Millisecond
	return cfg
}

func newSimulator() *devicesim.Simulator {
	return devicesim.New(devicesim.Options{
		Device:    memdev.DefaultConfig(),
		ChunkSize: 80,
		Interval:  2 * time.Millisecond,
		Seed:      7,
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func startGateway(t *testing.T, opts Options) (*Gateway, context.CancelFunc, <-chan error) {
	t.Helper()
	g := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()
	t.Cleanup(cancel)
	return g, cancel, done
}

func TestGatewayUploadsChunks(t *testing.T) {
	cfg := testConfig()
	sim := newSimulator()
	sink := &countingSink{}
	var seen atomic.Pointer[wire.DeviceConfig]

	g, cancel, done := startGateway(t, Options{
		Config: cfg,
		Sink:   sink,
		Dial: func(context.Context) (*Transport, error) {
			return DialSimulator(sim, cfg.Transport, nil), nil
		},
		OnDeviceConfig: func(c wire.DeviceConfig) { seen.Store(&c) },
	})

	waitFor(t, func() bool { return sink.count() >= 5 })

	assert.True(t, g.Streaming())
	assert.True(t, sim.Streaming())
	require.NotNil(t, seen.Load())
	assert.Equal(t, "DEMO-0001", seen.Load().DeviceIdentifier.String())
	assert.Equal(t, memdev.DefaultConfig().DataURI, sink.lastURI())
	assert.Equal(t, uint64(0), g.Stats().SequenceAnomalies)
	assert.NotEmpty(t, g.ID())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, g.Session().Destroyed())
	assert.False(t, g.Streaming())
}

func TestGatewayDoRunsOnSessionGoroutine(t *testing.T) {
	cfg := testConfig()
	cfg.Stream.Enable = false
	sim := newSimulator()

	g, _, _ := startGateway(t, Options{
		Config: cfg,
		Dial: func(context.Context) (*Transport, error) {
			return DialSimulator(sim, cfg.Transport, nil), nil
		},
	})
	waitFor(t, func() bool { return g.State() == connection.StateConnected })
	assert.False(t, sim.Streaming())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, g.Do(ctx, func(s *session.Session) error { return s.EnableStreaming() }))
	assert.True(t, g.Streaming())
	waitFor(t, func() bool { return g.Stats().PacketsProcessed > 0 })

	require.NoError(t, g.Do(ctx, func(s *session.Session) error { return s.DisableStreaming() }))
	assert.False(t, g.Streaming())
}

func TestGatewayDoWithoutSession(t *testing.T) {
	g := New(Options{Config: testConfig()})
	err := g.Do(context.Background(), func(*session.Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotConnected)
}

// idleLink keeps the supervisor connected without serving commands.
type idleLink struct{}

func (idleLink) Serve(ctx context.Context) error { <-ctx.Done(); return nil }
func (idleLink) Close() error                    { return nil }

func TestGatewayDoFailsWhenLinkStops(t *testing.T) {
	g := New(Options{Config: testConfig()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = g.supervisor.Run(ctx, func(context.Context) (connection.Link, error) { return idleLink{}, nil })
	}()
	waitFor(t, func() bool { return g.State() == connection.StateConnected })

	l := &link{
		g:    g,
		t:    &Transport{},
		s:    session.New(nil, session.Config{}),
		cmds: make(chan command),
		done: make(chan struct{}),
	}
	g.active.Store(l)

	released := make(chan error, 1)
	go func() {
		released <- g.Do(context.Background(), func(*session.Session) error {
			t.Error("command ran on a stopped link")
			return nil
		})
	}()
	l.stop()

	select {
	case err := <-released:
		assert.ErrorIs(t, err, ErrNotConnected)
	case <-time.After(2 * time.Second):
		t.Fatal("Do blocked after the link stopped")
	}

	require.NoError(t, l.Close())
	err := g.Do(context.Background(), func(*session.Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestGatewayUploadFailureKeepsLink(t *testing.T) {
	cfg := testConfig()
	sim := newSimulator()
	sink := &countingSink{}
	sink.fail.Store(true)

	g, _, _ := startGateway(t, Options{
		Config: cfg,
		Sink:   sink,
		Dial: func(context.Context) (*Transport, error) {
			return DialSimulator(sim, cfg.Transport, nil), nil
		},
	})

	waitFor(t, func() bool { return g.Stats().UploadFailures >= 3 })
	sink.fail.Store(false)
	waitFor(t, func() bool { return sink.count() >= 1 })
	assert.Equal(t, 1, g.Links())
}

func TestGatewayRedialsAfterLinkLoss(t *testing.T) {
	cfg := testConfig()
	sim := newSimulator()
	var transports []*Transport
	var mu sync.Mutex

	g, _, _ := startGateway(t, Options{
		Config: cfg,
		Dial: func(context.Context) (*Transport, error) {
			tr := DialSimulator(sim, cfg.Transport, nil)
			mu.Lock()
			transports = append(transports, tr)
			mu.Unlock()
			return tr, nil
		},
	})

	waitFor(t, func() bool { return g.Stats().PacketsProcessed > 0 })
	first := g.Session()

	mu.Lock()
	require.NoError(t, transports[0].Closer.Close())
	mu.Unlock()

	waitFor(t, func() bool { return g.Links() >= 2 && g.Session() != first })
	waitFor(t, func() bool { return g.Stats().PacketsProcessed > 0 })
	assert.True(t, first.Destroyed())
}

func TestGatewayGivesUpWhenDialFails(t *testing.T) {
	cfg := testConfig()
	cfg.Redial.MaxAttempts = 2
	dialErr := errors.New("no such device")

	g := New(Options{
		Config: cfg,
		Dial:   func(context.Context) (*Transport, error) { return nil, dialErr },
	})
	err := g.Run(context.Background())
	assert.ErrorIs(t, err, connection.ErrGaveUp)
	assert.ErrorIs(t, err, dialErr)
	assert.Nil(t, g.Session())
}

func TestNewSinks(t *testing.T) {
	cfg := testConfig()

	s := NewSinks(cfg, testLogger())
	assert.NotNil(t, s.HTTP)
	assert.Nil(t, s.Archive)
	assert.Equal(t, s.HTTP, s.Sink(testLogger()))

	cfg.Upload.Enabled = false
	assert.Nil(t, NewSinks(cfg, testLogger()).Sink(testLogger()))

	cfg.Archive.Enabled = true
	cfg.Archive.Bucket = "chunks"
	cfg.Archive.Region = "us-east-1"
	s = NewSinks(cfg, testLogger())
	require.NotNil(t, s.Archive)
	s.DeviceConfigured(wire.DeviceConfig{DeviceIdentifier: wire.NewBoundedString("DEV-9", wire.MaxDeviceIDLen)})
	assert.Contains(t, s.Archive.Key(time.Unix(0, 0), 1), "DEV-9")
}
