package session

import (
	"fmt"

	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// EnableStreaming asks the device to start sending stream packets.
func (s *Session) EnableStreaming() error {
	if err := s.checkAlive(); err != nil {
		return err
	}
	return s.setStreaming(true)
}

// DisableStreaming asks the device to stop sending stream packets.
func (s *Session) DisableStreaming() error {
	if err := s.checkAlive(); err != nil {
		return err
	}
	return s.setStreaming(false)
}

// Streaming reports whether streaming was last enabled successfully.
func (s *Session) Streaming() bool {
	return s.streaming.Load()
}

func (s *Session) setStreaming(enable bool) error {
	if s.backend == nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, ErrNoBackend)
	}

	var cmd [1]byte
	n, err := wire.BuildStreamControl(enable, cmd[:])
	if err != nil {
		return err
	}
	if _, err := s.backend.Write(wire.ReportStreamControl, cmd[:n]); err != nil {
		s.logError(log.LayerTransport, err, "write "+wire.ReportStreamControl.String())
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	s.logControl(cmd[:n])

	old := s.streaming.Swap(enable)
	if old != enable {
		s.logState(log.StateEntityStream, streamState(old), streamState(enable), "")
	}
	s.logger.Info("stream control written", "enabled", enable)
	s.observer.StreamingChanged(enable)
	return nil
}

func streamState(enabled bool) string {
	if enabled {
		return wire.StreamModeEnabled.String()
	}
	return wire.StreamModeDisabled.String()
}
