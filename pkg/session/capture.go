package session

import (
	"time"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Protocol capture helpers. Each is a no-op without a protocol logger.

func (s *Session) event(dir log.Direction, layer log.Layer, cat log.Category) log.Event {
	e := log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: dir,
		Layer:     layer,
		Category:  cat,
	}
	if cfg := s.config.Load(); cfg != nil {
		e.DeviceID = cfg.DeviceIdentifier.String()
	}
	return e
}

func (s *Session) logReport(dir log.Direction, id wire.ReportID, data []byte) {
	if s.plog == nil {
		return
	}
	e := s.event(dir, log.LayerTransport, log.CategoryReport)
	e.Report = &log.ReportEvent{
		ReportID: uint8(id),
		Size:     len(data),
		Data:     append([]byte(nil), data...),
	}
	s.plog.Log(e)
}

func (s *Session) logControl(cmd []byte) {
	if s.plog == nil {
		return
	}
	e := s.event(log.DirectionOut, log.LayerTransport, log.CategoryControl)
	e.Report = &log.ReportEvent{
		ReportID: uint8(wire.ReportStreamControl),
		Size:     len(cmd),
		Data:     append([]byte(nil), cmd...),
	}
	s.plog.Log(e)
}

func (s *Session) logPacket(p *wire.StreamPacket) {
	if s.plog == nil {
		return
	}
	e := s.event(log.DirectionIn, log.LayerWire, log.CategoryReport)
	e.Packet = &log.PacketEvent{
		Sequence: p.Sequence,
		DataLen:  p.DataLen,
		Data:     append([]byte(nil), p.Payload()...),
	}
	s.plog.Log(e)
}

func (s *Session) logAnomaly(a SequenceAnomaly) {
	if s.plog == nil {
		return
	}
	e := s.event(log.DirectionIn, log.LayerSession, log.CategoryAnomaly)
	e.Anomaly = &log.AnomalyEvent{Expected: a.Expected, Got: a.Got}
	s.plog.Log(e)
}

func (s *Session) logUpload(uri string, size int, elapsed time.Duration, err error) {
	if s.plog == nil {
		return
	}
	e := s.event(log.DirectionOut, log.LayerSession, log.CategoryUpload)
	e.Upload = &log.UploadEvent{
		URI:      uri,
		Size:     size,
		Success:  err == nil,
		Duration: elapsed,
	}
	if err != nil {
		e.Upload.Error = err.Error()
	}
	s.plog.Log(e)
}

func (s *Session) logState(entity log.StateEntity, oldState, newState, reason string) {
	if s.plog == nil {
		return
	}
	e := s.event(log.DirectionIn, log.LayerSession, log.CategoryState)
	e.StateChange = &log.StateChangeEvent{
		Entity:   entity,
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	s.plog.Log(e)
}

func (s *Session) logError(layer log.Layer, err error, context string) {
	if s.plog == nil || err == nil {
		return
	}
	e := s.event(log.DirectionIn, layer, log.CategoryError)
	code := backend.Errno(err)
	e.Error = &log.ErrorEventData{
		Layer:   layer,
		Message: err.Error(),
		Code:    &code,
		Context: context,
	}
	s.plog.Log(e)
}
