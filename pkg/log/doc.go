// Package log provides structured protocol capture for MDS sessions.
//
// This package defines the Logger interface and Event types for recording
// what a session sees and does: raw reports at the transport layer, decoded
// packets and configuration at the wire layer, and lifecycle, sequence
// anomalies and uploads at the session layer. It is separate from
// operational logging (slog) - a capture is a complete machine-readable trace
// for debugging a device's stream after the fact.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	opts = append(opts, session.WithProtocolLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For field debugging: write to a capture file
//	fl, _ := log.NewFileLogger("/var/log/mds/gateway.mdslog")
//	opts = append(opts, session.WithProtocolLogger(fl))
//
//	// Both
//	opts = append(opts, session.WithProtocolLogger(log.NewMultiLogger(adapter, fl)))
//
// # Event Types
//
//   - Transport: report bytes read or written (ReportEvent)
//   - Wire: decoded stream packets (PacketEvent)
//   - Session: state changes, sequence anomalies, uploads and errors
//
// # File Format
//
// Capture files are a concatenation of CBOR-encoded events with integer keys,
// conventionally named *.mdslog. The mds-log tool views, filters and exports
// them.
package log
