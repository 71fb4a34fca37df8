package main

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

func TestEveryDisabledForNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		done := make(chan struct{})
		go func() {
			defer close(done)
			every(context.Background(), interval, func() { t.Error("fn called") })
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("every(%v) did not return", interval)
		}
	}
}

func TestEveryTicksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		every(ctx, time.Millisecond, func() { calls.Add(1) })
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("every did not stop on cancel")
	}
}

func TestPacketPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newPacketPrinter(&buf, false)

	pkt := &wire.StreamPacket{Sequence: 7, DataLen: 2}
	pkt.Data[0], pkt.Data[1] = 0xCA, 0xFE
	p.PacketProcessed(pkt)
	p.SequenceAnomaly(session.SequenceAnomaly{Expected: 8, Got: 10})
	p.stats(session.Stats{PacketsProcessed: 3, BytesReceived: 40, SequenceAnomalies: 1}, 2500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"Sequence:   7 (0x07)",
		"Data Len:   2 bytes",
		"ca fe",
		"Expected 8, got 10",
		"[Stats] Packets: 3, Bytes: 40, Seq errors: 1, Elapsed: 2s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}

	buf.Reset()
	newPacketPrinter(&buf, true).PacketProcessed(pkt)
	assert.Empty(t, buf.String())
}
