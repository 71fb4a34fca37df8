package serial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 2

	// MaxFrameSize is the largest frame body (report ID + payload).
	MaxFrameSize = 1 + wire.MaxFeatureReportLen
)

// Framing errors.
var (
	// ErrFrameTooLarge indicates the frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("serial: frame too large")

	// ErrFrameEmpty indicates a frame without a report ID.
	ErrFrameEmpty = errors.New("serial: frame is empty")

	// ErrFrameTruncated indicates the stream ended inside a frame.
	ErrFrameTruncated = errors.New("serial: frame truncated")
)

// FrameWriter writes [len:u16 BE][reportID][payload] frames.
type FrameWriter struct {
	mu  sync.Mutex
	w   io.Writer
	buf [LengthPrefixSize + MaxFrameSize]byte
}

// NewFrameWriter creates a frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes one report frame. Thread-safe.
func (fw *FrameWriter) WriteFrame(id wire.ReportID, payload []byte) error {
	size := 1 + len(payload)
	if size > MaxFrameSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, MaxFrameSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	// One write per frame so that frames are never interleaved on the wire.
	binary.BigEndian.PutUint16(fw.buf[:LengthPrefixSize], uint16(size))
	fw.buf[LengthPrefixSize] = byte(id)
	copy(fw.buf[LengthPrefixSize+1:], payload)
	if _, err := fw.w.Write(fw.buf[:LengthPrefixSize+size]); err != nil {
		return fmt.Errorf("serial: write frame: %w", err)
	}
	return nil
}

// FrameReader reads frames written by FrameWriter. It is not safe for
// concurrent use.
type FrameReader struct {
	r         io.Reader
	lengthBuf [LengthPrefixSize]byte
	buf       [MaxFrameSize]byte
}

// NewFrameReader creates a frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame reads one frame and returns its body ([reportID, payload...]).
// The returned slice aliases the reader's buffer and is only valid until the
// next call. io.EOF is returned only on a clean frame boundary.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(fr.r, fr.lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("serial: read length prefix: %w", err)
	}

	length := int(binary.BigEndian.Uint16(fr.lengthBuf[:]))
	if length == 0 {
		return nil, ErrFrameEmpty
	}
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, MaxFrameSize)
	}

	frame := fr.buf[:length]
	if _, err := io.ReadFull(fr.r, frame); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("serial: read frame: %w", err)
	}
	return frame, nil
}
