package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mds-bridge/mds-go/pkg/log"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// createTestCapture writes events to a capture file in a temp directory.
func createTestCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mdslog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

// sampleEvents returns one event of each payload type for two sessions.
func sampleEvents() []log.Event {
	const sessA = "aaaaaaaa-1111-2222-3333-444444444444"
	const sessB = "bbbbbbbb-1111-2222-3333-444444444444"
	return []log.Event{
		{
			Timestamp: testTime, SessionID: sessA, Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryReport,
			Report: &log.ReportEvent{ReportID: 0x02, Size: 4, Data: []byte("DEMO")},
		},
		{
			Timestamp: testTime.Add(time.Second), SessionID: sessA, DeviceID: "DEMO",
			Direction: log.DirectionOut, Layer: log.LayerTransport, Category: log.CategoryControl,
			Report: &log.ReportEvent{ReportID: 0x05, Size: 1, Data: []byte{0x01}},
		},
		{
			Timestamp: testTime.Add(2 * time.Second), SessionID: sessA, DeviceID: "DEMO",
			Direction: log.DirectionIn, Layer: log.LayerWire, Category: log.CategoryReport,
			Packet: &log.PacketEvent{Sequence: 0, DataLen: 3, Data: []byte{0xde, 0xad, 0x01}},
		},
		{
			Timestamp: testTime.Add(3 * time.Second), SessionID: sessA, DeviceID: "DEMO",
			Direction: log.DirectionIn, Layer: log.LayerSession, Category: log.CategoryAnomaly,
			Anomaly: &log.AnomalyEvent{Expected: 1, Got: 3},
		},
		{
			Timestamp: testTime.Add(4 * time.Second), SessionID: sessA, DeviceID: "DEMO",
			Direction: log.DirectionOut, Layer: log.LayerSession, Category: log.CategoryUpload,
			Upload: &log.UploadEvent{URI: "https://chunks.example.com/DEMO", Size: 3, Success: false, Error: "status 500", Duration: 12 * time.Millisecond},
		},
		{
			Timestamp: testTime.Add(5 * time.Second), SessionID: sessB,
			Direction: log.DirectionIn, Layer: log.LayerSession, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityStream, OldState: "disabled", NewState: "enabled"},
		},
		{
			Timestamp: testTime.Add(6 * time.Second), SessionID: sessB,
			Direction: log.DirectionIn, Layer: log.LayerTransport, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerTransport, Message: "i/o error", Context: "read STREAM_DATA"},
		},
	}
}
