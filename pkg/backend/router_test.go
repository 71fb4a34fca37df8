package backend

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mds-bridge/mds-go/pkg/wire"
)

func TestRouterFeatureResponse(t *testing.T) {
	r := NewRouter(4)
	frame := []byte{byte(wire.ReportDeviceIdentifier), 'd', 'e', 'v'}
	r.Deliver(frame)
	frame[1] = 'X' // Deliver must copy

	got, err := r.AwaitFeature(wire.ReportDeviceIdentifier, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("dev"), got)
}

func TestRouterFeatureLatestWins(t *testing.T) {
	r := NewRouter(4)
	r.Deliver([]byte{byte(wire.ReportDataURI), 'a'})
	r.Deliver([]byte{byte(wire.ReportDataURI), 'b'})

	got, err := r.AwaitFeature(wire.ReportDataURI, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestRouterExpectDiscardsStale(t *testing.T) {
	r := NewRouter(4)
	r.Deliver([]byte{byte(wire.ReportAuthorization), 'o', 'l', 'd'})
	r.Expect(wire.ReportAuthorization)

	_, err := r.AwaitFeature(wire.ReportAuthorization, 0)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRouterAwaitTimesOut(t *testing.T) {
	r := NewRouter(4)
	start := time.Now()
	_, err := r.AwaitFeature(wire.ReportSupportedFeatures, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRouterAwaitRejectsInputReport(t *testing.T) {
	r := NewRouter(4)
	_, err := r.AwaitFeature(wire.ReportStreamData, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRouterInputQueueDropsOldest(t *testing.T) {
	r := NewRouter(2)
	for seq := byte(0); seq < 4; seq++ {
		r.Deliver([]byte{byte(wire.ReportStreamData), seq})
	}

	assert.Equal(t, uint64(2), r.Dropped())
	first, err := r.NextInput(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(wire.ReportStreamData), 2}, first)
	second, err := r.NextInput(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(wire.ReportStreamData), 3}, second)
}

func TestRouterIgnoresUnknownFrames(t *testing.T) {
	r := NewRouter(2)
	r.Deliver(nil)
	r.Deliver([]byte{0x00, 1})
	r.Deliver([]byte{0x07, 1})

	_, err := r.NextInput(0)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRouterCloseWakesWaiters(t *testing.T) {
	r := NewRouter(2)
	done := make(chan error, 1)
	go func() {
		_, err := r.NextInput(-1)
		done <- err
	}()

	r.Close(io.EOF)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
}

func TestRouterReturnsBufferedDataAfterClose(t *testing.T) {
	r := NewRouter(2)
	r.Deliver([]byte{byte(wire.ReportStreamData), 9})
	r.Close(nil)

	frame, err := r.NextInput(time.Second)
	require.NoError(t, err)
	assert.Equal(t, byte(9), frame[1])

	_, err = r.NextInput(time.Second)
	assert.True(t, errors.Is(err, ErrClosed))
}
