package log

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestCapture(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+FileExt)

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create capture: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func countEvents(t *testing.T, r *Reader) int {
	t.Helper()
	n := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			return n
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		n++
	}
}

func TestReaderIteratesInOrder(t *testing.T) {
	path := createTestCapture(t, []Event{
		{Timestamp: time.Now(), SessionID: "s-1", Layer: LayerTransport},
		{Timestamp: time.Now(), SessionID: "s-2", Layer: LayerWire},
		{Timestamp: time.Now(), SessionID: "s-3", Layer: LayerSession},
	})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	for _, want := range []string{"s-1", "s-2", "s-3"} {
		e, err := r.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if e.SessionID != want {
			t.Errorf("SessionID = %q, want %q", e.SessionID, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, SessionID: "a", Direction: DirectionIn, Layer: LayerWire, Category: CategoryReport, DeviceID: "dev-1"},
		{Timestamp: base.Add(time.Second), SessionID: "a", Direction: DirectionOut, Layer: LayerSession, Category: CategoryUpload, DeviceID: "dev-1"},
		{Timestamp: base.Add(2 * time.Second), SessionID: "b", Direction: DirectionIn, Layer: LayerSession, Category: CategoryAnomaly, DeviceID: "dev-2"},
	}
	path := createTestCapture(t, events)

	out := DirectionOut
	session := LayerSession
	anomaly := CategoryAnomaly
	start := base.Add(time.Second)
	end := base.Add(2 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"session id", Filter{SessionID: "a"}, 2},
		{"device id", Filter{DeviceID: "dev-2"}, 1},
		{"direction", Filter{Direction: &out}, 1},
		{"layer", Filter{Layer: &session}, 2},
		{"category", Filter{Category: &anomaly}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 1},
		{"combined no match", Filter{SessionID: "a", Category: &anomaly}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()
			if got := countEvents(t, r); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestStreamReader(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(Event{SessionID: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	r := NewStreamReader(&buf, Filter{})
	if n := countEvents(t, r); n != 3 {
		t.Errorf("got %d events, want 3", n)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on stream reader: %v", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing"+FileExt)); err == nil {
		t.Error("expected error for missing file")
	}
}
