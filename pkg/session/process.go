package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Result tells a multiplexing caller whether Process consumed a frame.
type Result uint8

const (
	// NotMine means the frame was not stream data and was left untouched.
	NotMine Result = iota
	// Handled means the frame was stream data and went through the pipeline.
	Handled
)

func (r Result) String() string {
	if r == Handled {
		return "HANDLED"
	}
	return "NOT_MINE"
}

// Process consumes a frame from a multiplexed transport. frame[0] is the
// report ID; only stream data frames are consumed, anything else yields
// NotMine with no side effects so the caller can route it elsewhere.
//
// For a handled frame the packet is returned when one was parsed. An upload
// failure is returned together with the packet. The packet is owned by the
// session and only valid until the next processing call; copy it to keep it.
func (s *Session) Process(frame []byte) (Result, *wire.StreamPacket, error) {
	if len(frame) == 0 || wire.ReportID(frame[0]) != wire.ReportStreamData {
		return NotMine, nil, nil
	}
	if err := s.checkAlive(); err != nil {
		return Handled, nil, err
	}
	p, err := s.handlePayload(frame[1:])
	return Handled, p, err
}

// ProcessStreamData runs a stream data payload (sequence byte followed by
// chunk data) from a pre-demultiplexed transport through the pipeline.
// An empty payload is a no-op and returns (nil, nil).
func (s *Session) ProcessStreamData(payload []byte) (*wire.StreamPacket, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.handlePayload(payload)
}

// ProcessStream reads one stream packet from the backend and runs it through
// the pipeline. When no data is available the backend error is returned as
// is; test it with backend.IsNoData.
func (s *Session) ProcessStream(timeout time.Duration) (*wire.StreamPacket, error) {
	buf, err := s.readStream(timeout)
	if err != nil {
		return nil, err
	}
	return s.handlePayload(buf)
}

// ReadPacket reads and parses one stream packet from the backend and records
// its sequence number. It neither checks continuity nor uploads. The packet
// is reused by the next call, as with Process.
func (s *Session) ReadPacket(timeout time.Duration) (*wire.StreamPacket, error) {
	buf, err := s.readStream(timeout)
	if err != nil {
		return nil, err
	}
	p, err := s.parse(buf)
	if err != nil {
		s.stats.parseErrors.Add(1)
		s.observer.ParseFailed(err)
		return nil, err
	}
	s.UpdateLastSequence(p.Sequence)
	s.stats.packets.Add(1)
	s.stats.bytes.Add(uint64(p.DataLen))
	s.logPacket(p)
	return p, nil
}

func (s *Session) readStream(timeout time.Duration) ([]byte, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	if s.backend == nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, ErrNoBackend)
	}

	n, err := s.backend.Read(wire.ReportStreamData, s.packetBuf[:], timeout)
	if err != nil {
		if backend.IsNoData(err) {
			s.stats.noData.Add(1)
			return nil, err
		}
		s.stats.readErrors.Add(1)
		s.logError(log.LayerTransport, err, "read "+wire.ReportStreamData.String())
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	buf := s.packetBuf[:min(n, len(s.packetBuf))]
	s.logReport(log.DirectionIn, wire.ReportStreamData, buf)
	return buf, nil
}

// handlePayload is the packet pipeline shared by all entry points.
func (s *Session) handlePayload(payload []byte) (*wire.StreamPacket, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	pkt, err := s.parse(payload)
	if err != nil {
		s.stats.parseErrors.Add(1)
		s.observer.ParseFailed(err)
		s.logError(log.LayerWire, err, "parse stream packet")
		return nil, err
	}

	if a, bad := s.checkSequence(pkt.Sequence); bad {
		s.stats.anomalies.Add(1)
		s.logger.Warn("sequence anomaly", "expected", a.Expected, "got", a.Got)
		s.logAnomaly(a)
		s.observer.SequenceAnomaly(a)
	}
	s.UpdateLastSequence(pkt.Sequence)

	s.stats.packets.Add(1)
	s.stats.bytes.Add(uint64(pkt.DataLen))
	s.logPacket(pkt)
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logger.Debug("stream packet", "seq", pkt.Sequence, "len", pkt.DataLen)
	}
	s.observer.PacketProcessed(pkt)

	if s.sink == nil {
		return pkt, nil
	}
	return pkt, s.upload(pkt)
}

// parse decodes payload into the session's packet.
func (s *Session) parse(payload []byte) (*wire.StreamPacket, error) {
	p, err := wire.ParseStreamPacket(payload)
	if err != nil {
		return nil, err
	}
	s.pkt = p
	return &s.pkt, nil
}

func (s *Session) upload(pkt *wire.StreamPacket) error {
	var uri, auth string
	if cfg := s.config.Load(); cfg != nil {
		uri = cfg.DataURI.String()
		auth = cfg.Authorization.String()
	}

	data := pkt.Payload()
	start := time.Now()
	err := s.sink.Upload(uri, auth, data)
	elapsed := time.Since(start)

	s.logUpload(uri, len(data), elapsed, err)
	s.observer.UploadFinished(len(data), elapsed, err)
	if err != nil {
		s.stats.uploadFailures.Add(1)
		s.logger.Warn("chunk upload failed", "uri", uri, "size", len(data), "error", err)
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	s.stats.uploaded.Add(1)
	s.stats.uploadedN.Add(uint64(len(data)))
	return nil
}

// IsUploadFailure reports whether err came from the upload sink.
func IsUploadFailure(err error) bool {
	return errors.Is(err, ErrUploadFailed)
}
