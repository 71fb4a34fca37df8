package session

import (
	"errors"
	"fmt"

	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

var errEmptyReport = errors.New("empty report")

// ReadDeviceConfig reads the four configuration reports through the backend
// and replaces the cached configuration.
//
// Reading is best effort per field: a field whose read fails, returns no
// bytes or does not decode keeps its zero value. The call fails only when no
// backend is registered.
func (s *Session) ReadDeviceConfig() (wire.DeviceConfig, error) {
	if err := s.checkAlive(); err != nil {
		return wire.DeviceConfig{}, err
	}
	if s.backend == nil {
		return wire.DeviceConfig{}, fmt.Errorf("%w: %w", ErrReadFailed, ErrNoBackend)
	}

	cfg := wire.NewDeviceConfig()
	for _, id := range wire.ConfigReports {
		buf, err := s.readFeature(id)
		if err == nil {
			err = wire.DecodeConfigField(id, buf, &cfg)
		}
		if err != nil {
			s.logger.Warn("config field unavailable", "report", id.String(), "error", err)
			s.logError(log.LayerTransport, err, "read "+id.String())
		}
	}

	s.storeConfig(cfg)
	return cfg, nil
}

// LoadDeviceConfig builds the configuration from report payloads obtained
// out of band, keyed by report ID, and replaces the cached configuration.
// Missing or undecodable reports leave their field at its zero value.
func (s *Session) LoadDeviceConfig(reports map[wire.ReportID][]byte) wire.DeviceConfig {
	cfg := wire.NewDeviceConfig()
	for _, id := range wire.ConfigReports {
		buf, ok := reports[id]
		if !ok || len(buf) == 0 {
			continue
		}
		s.logReport(log.DirectionIn, id, buf)
		if err := wire.DecodeConfigField(id, buf, &cfg); err != nil {
			s.logger.Warn("config field unavailable", "report", id.String(), "error", err)
			s.logError(log.LayerWire, err, "decode "+id.String())
		}
	}
	s.storeConfig(cfg)
	return cfg
}

// DeviceConfig returns the cached configuration and whether one was read.
func (s *Session) DeviceConfig() (wire.DeviceConfig, bool) {
	cfg := s.config.Load()
	if cfg == nil {
		return wire.DeviceConfig{}, false
	}
	return *cfg, true
}

// SupportedFeatures reads the supported features report.
func (s *Session) SupportedFeatures() (uint32, error) {
	buf, err := s.readFeatureStrict(wire.ReportSupportedFeatures)
	if err != nil {
		return 0, err
	}
	return wire.ParseSupportedFeatures(buf)
}

// DeviceIdentifier reads the device identifier report.
func (s *Session) DeviceIdentifier() (string, error) {
	return s.readString(wire.ReportDeviceIdentifier, wire.MaxDeviceIDLen)
}

// DataURI reads the data URI report.
func (s *Session) DataURI() (string, error) {
	return s.readString(wire.ReportDataURI, wire.MaxURILen)
}

// Authorization reads the authorization report.
func (s *Session) Authorization() (string, error) {
	return s.readString(wire.ReportAuthorization, wire.MaxAuthLen)
}

func (s *Session) readString(id wire.ReportID, maxLen int) (string, error) {
	buf, err := s.readFeatureStrict(id)
	if err != nil {
		return "", err
	}
	b, err := wire.ParseBoundedString(buf, maxLen)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Session) readFeatureStrict(id wire.ReportID) ([]byte, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	if s.backend == nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, ErrNoBackend)
	}
	buf, err := s.readFeature(id)
	if err != nil && !errors.Is(err, errEmptyReport) {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadFailed, id, err)
	}
	return buf, nil
}

// readFeature reads one feature report into the session's scratch buffer.
func (s *Session) readFeature(id wire.ReportID) ([]byte, error) {
	n, err := s.backend.Read(id, s.featureBuf[:id.Capacity()], s.readTimeout)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errEmptyReport
	}
	n = min(n, id.Capacity())
	buf := s.featureBuf[:n]
	s.logReport(log.DirectionIn, id, buf)
	return buf, nil
}

func (s *Session) storeConfig(cfg wire.DeviceConfig) {
	old := s.config.Swap(&cfg)
	oldState := ""
	if old != nil {
		oldState = old.DeviceIdentifier.String()
	}
	s.logState(log.StateEntityConfig, oldState, cfg.DeviceIdentifier.String(), "")
	s.logger.Debug("device config cached",
		"device_id", cfg.DeviceIdentifier.String(),
		"data_uri", cfg.DataURI.String(),
		"features", cfg.SupportedFeatures)
}
