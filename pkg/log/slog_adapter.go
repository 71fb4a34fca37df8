package log

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful during development to watch a device's stream on the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a SlogAdapter that writes to logger at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}

	switch {
	case event.Report != nil:
		attrs = append(attrs,
			slog.Int("report_id", int(event.Report.ReportID)),
			slog.Int("size", event.Report.Size),
			slog.String("data", hex.EncodeToString(event.Report.Data)),
		)
	case event.Packet != nil:
		attrs = append(attrs,
			slog.Int("seq", int(event.Packet.Sequence)),
			slog.Int("data_len", event.Packet.DataLen),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Anomaly != nil:
		attrs = append(attrs,
			slog.Int("expected", int(event.Anomaly.Expected)),
			slog.Int("got", int(event.Anomaly.Got)),
		)
	case event.Upload != nil:
		attrs = append(attrs,
			slog.String("uri", event.Upload.URI),
			slog.Int("size", event.Upload.Size),
			slog.Bool("success", event.Upload.Success),
			slog.Duration("duration", event.Upload.Duration),
		)
		if event.Upload.Error != "" {
			attrs = append(attrs, slog.String("upload_error", event.Upload.Error))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), a.level, "mds", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
