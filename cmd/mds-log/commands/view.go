// Package commands implements the mds-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
}

func (f ViewFilter) capture() log.Filter {
	return log.Filter{Layer: f.Layer, Direction: f.Direction, Category: f.Category}
}

// eventType returns a short label for the populated payload of event.
func eventType(event log.Event) string {
	switch {
	case event.Report != nil:
		return wire.ReportID(event.Report.ReportID).String()
	case event.Packet != nil:
		return "Packet"
	case event.StateChange != nil:
		return "State"
	case event.Anomaly != nil:
		return "Anomaly"
	case event.Upload != nil:
		return "Upload"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sess:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	layer := event.Layer.String()
	if event.Category == log.CategoryControl {
		layer = "CTRL"
	}
	fmt.Fprintf(w, "%s [sess:%s] %-3s %s %s\n", ts, shortenID(event.SessionID), event.Direction, layer, eventType(event))

	if event.DeviceID != "" {
		fmt.Fprintf(w, "  Device: %s\n", event.DeviceID)
	}

	switch {
	case event.Report != nil:
		formatReportDetails(w, event.Report)
	case event.Packet != nil:
		formatPacketDetails(w, event.Packet)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Anomaly != nil:
		formatAnomalyDetails(w, event.Anomaly)
	case event.Upload != nil:
		formatUploadDetails(w, event.Upload)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatReportDetails(w io.Writer, r *log.ReportEvent) {
	fmt.Fprintf(w, "  Report: 0x%02x  Size: %d bytes\n", r.ReportID, r.Size)
	if len(r.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s\n", hex.EncodeToString(r.Data))
	}
}

func formatPacketDetails(w io.Writer, p *log.PacketEvent) {
	fmt.Fprintf(w, "  Sequence: %d  Length: %d\n", p.Sequence, p.DataLen)
	if len(p.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s\n", hex.EncodeToString(p.Data))
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatAnomalyDetails(w io.Writer, a *log.AnomalyEvent) {
	fmt.Fprintf(w, "  Expected: %d  Got: %d\n", a.Expected, a.Got)
}

func formatUploadDetails(w io.Writer, u *log.UploadEvent) {
	if u.URI != "" {
		fmt.Fprintf(w, "  URI: %s\n", u.URI)
	}
	status := "ok"
	if !u.Success {
		status = "failed"
	}
	fmt.Fprintf(w, "  Size: %d bytes  Result: %s", u.Size, status)
	if u.Duration > 0 {
		fmt.Fprintf(w, "  Duration: %s", formatDuration(u.Duration))
	}
	fmt.Fprintln(w)
	if u.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", u.Error)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer name (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "session":
		return log.LayerSession, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or session)", s)
	}
}

// ParseDirectionFlag parses a direction name (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "report":
		return log.CategoryReport, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "anomaly":
		return log.CategoryAnomaly, nil
	case "upload":
		return log.CategoryUpload, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be report, control, state, error, anomaly, or upload)", s)
	}
}

// RunView prints the matching events of the capture at path.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.capture())
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}
