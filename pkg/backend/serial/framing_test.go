package serial

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/mds-bridge/mds-go/pkg/wire"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		id      wire.ReportID
		payload []byte
	}{
		{"feature request", wire.ReportDataURI, nil},
		{"stream packet", wire.ReportStreamData, []byte{0x03, 0xAA, 0xBB}},
		{"max size", wire.ReportDataURI, bytes.Repeat([]byte("u"), wire.MaxFeatureReportLen)},
		{"control", wire.ReportStreamControl, []byte{0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			if err := NewFrameWriter(buf).WriteFrame(tt.id, tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if want := LengthPrefixSize + 1 + len(tt.payload); buf.Len() != want {
				t.Errorf("frame size = %d, want %d", buf.Len(), want)
			}

			frame, err := NewFrameReader(buf).ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if wire.ReportID(frame[0]) != tt.id {
				t.Errorf("report ID = 0x%02x, want 0x%02x", frame[0], uint8(tt.id))
			}
			if !bytes.Equal(frame[1:], tt.payload) && len(tt.payload) > 0 {
				t.Errorf("payload mismatch: %x", frame[1:])
			}
		})
	}
}

func TestFrameWriterTooLarge(t *testing.T) {
	err := NewFrameWriter(io.Discard).WriteFrame(wire.ReportDataURI, make([]byte, MaxFrameSize))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestFrameReaderErrors(t *testing.T) {
	var oversized [2]byte
	binary.BigEndian.PutUint16(oversized[:], MaxFrameSize+1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"clean EOF", nil, io.EOF},
		{"partial prefix", []byte{0x00}, ErrFrameTruncated},
		{"empty frame", []byte{0x00, 0x00}, ErrFrameEmpty},
		{"oversized", oversized[:], ErrFrameTooLarge},
		{"truncated body", []byte{0x00, 0x03, 0x06}, ErrFrameTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrameReader(bytes.NewReader(tt.data)).ReadFrame()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFrameReaderSequential(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewFrameWriter(buf)
	for seq := byte(0); seq < 5; seq++ {
		if err := w.WriteFrame(wire.ReportStreamData, []byte{seq, 0xFF}); err != nil {
			t.Fatal(err)
		}
	}

	r := NewFrameReader(buf)
	for seq := byte(0); seq < 5; seq++ {
		frame, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", seq, err)
		}
		if frame[1] != seq {
			t.Errorf("frame %d has sequence %d", seq, frame[1])
		}
	}
}

// loopReader replays data forever.
type loopReader struct {
	data []byte
	off  int
}

func (l *loopReader) Read(p []byte) (int, error) {
	n := copy(p, l.data[l.off:])
	l.off = (l.off + n) % len(l.data)
	return n, nil
}

func TestFrameReaderReusesBuffer(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := NewFrameWriter(buf).WriteFrame(wire.ReportStreamData, []byte{0x01, 0xAA, 0xBB}); err != nil {
		t.Fatal(err)
	}
	r := NewFrameReader(&loopReader{data: buf.Bytes()})

	allocs := testing.AllocsPerRun(100, func() {
		if _, err := r.ReadFrame(); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Errorf("ReadFrame allocated %.1f times per frame", allocs)
	}
}

func TestFrameReaderOverwritesPreviousFrame(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewFrameWriter(buf)
	_ = w.WriteFrame(wire.ReportStreamData, []byte{0x00, 0x11})
	_ = w.WriteFrame(wire.ReportStreamData, []byte{0x01, 0x22})

	r := NewFrameReader(buf)
	first, err := r.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	kept := bytes.Clone(first)
	if _, err := r.ReadFrame(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(kept, []byte{0x06, 0x00, 0x11}) {
		t.Errorf("cloned frame changed: %x", kept)
	}
	if first[1] != 0x01 {
		t.Errorf("expected the buffer to be reused, got %x", first)
	}
}
