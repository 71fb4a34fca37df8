package gateway

import (
	"log/slog"

	"github.com/mds-bridge/mds-go/pkg/config"
	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/upload"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Sinks are the upload destinations built from the configuration.
type Sinks struct {
	// HTTP posts chunks to the device's data URI; nil when disabled.
	HTTP *upload.HTTPUploader

	// Archive copies chunks to S3; nil when disabled.
	Archive *upload.S3Archiver
}

// NewSinks builds the sinks enabled in cfg.
func NewSinks(cfg config.Config, logger *slog.Logger) Sinks {
	var s Sinks
	if cfg.Upload.Enabled {
		s.HTTP = upload.NewHTTPUploader(upload.HTTPConfig{
			Timeout: cfg.Upload.Timeout,
			Verbose: cfg.Upload.Verbose,
			DryRun:  cfg.Upload.DryRun,
			Logger:  logger.With("component", "upload"),
		})
	}
	if cfg.Archive.Enabled {
		client := upload.NewS3Client(cfg.Archive.Region, cfg.Archive.Endpoint)
		s.Archive = upload.NewS3Archiver(client, upload.S3Config{
			Bucket:  cfg.Archive.Bucket,
			Prefix:  cfg.Archive.Prefix,
			Timeout: cfg.Archive.Timeout,
			Logger:  logger.With("component", "archive"),
		})
	}
	return s
}

// Sink combines the enabled sinks. The HTTP uploader decides the result;
// archive failures are only logged. It returns nil when nothing is enabled.
func (s Sinks) Sink(logger *slog.Logger) session.Sink {
	switch {
	case s.HTTP != nil && s.Archive != nil:
		return upload.NewTee(logger, s.HTTP, s.Archive)
	case s.HTTP != nil:
		return s.HTTP
	case s.Archive != nil:
		return s.Archive
	default:
		return nil
	}
}

// DeviceConfigured updates sinks that depend on the device identity.
func (s Sinks) DeviceConfigured(cfg wire.DeviceConfig) {
	if s.Archive != nil && !cfg.DeviceIdentifier.IsEmpty() {
		s.Archive.SetDeviceID(cfg.DeviceIdentifier.String())
	}
}
