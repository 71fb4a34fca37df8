package log

import "time"

// Event is a protocol capture event recorded at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the session that recorded the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates data flow relative to the host.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// DeviceID is the device identifier, once the configuration was read.
	DeviceID string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Report      *ReportEvent      `cbor:"10,keyasint,omitempty"` // Transport layer
	Packet      *PacketEvent      `cbor:"11,keyasint,omitempty"` // Wire layer
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Session lifecycle
	Anomaly     *AnomalyEvent     `cbor:"13,keyasint,omitempty"` // Sequence discontinuity
	Upload      *UploadEvent      `cbor:"14,keyasint,omitempty"` // Upload sink result
	Error       *ErrorEventData   `cbor:"15,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the device.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the device or the upload sink.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the backend layer (raw report bytes).
	LayerTransport Layer = 0
	// LayerWire is the codec layer (decoded packets and fields).
	LayerWire Layer = 1
	// LayerSession is the session layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryReport indicates report or packet traffic.
	CategoryReport Category = 0
	// CategoryControl indicates a stream control command.
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
	// CategoryAnomaly indicates a sequence discontinuity.
	CategoryAnomaly Category = 4
	// CategoryUpload indicates an upload sink invocation.
	CategoryUpload Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryReport:
		return "REPORT"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryAnomaly:
		return "ANOMALY"
	case CategoryUpload:
		return "UPLOAD"
	default:
		return "UNKNOWN"
	}
}

// ReportEvent captures report bytes at the transport layer.
type ReportEvent struct {
	// ReportID is the report read or written.
	ReportID uint8 `cbor:"1,keyasint"`

	// Size is the number of bytes transferred.
	Size int `cbor:"2,keyasint"`

	// Data is the raw report payload.
	Data []byte `cbor:"3,keyasint,omitempty"`
}

// PacketEvent captures a decoded stream packet.
type PacketEvent struct {
	// Sequence is the packet's 5-bit sequence number.
	Sequence uint8 `cbor:"1,keyasint"`

	// DataLen is the number of chunk bytes.
	DataLen int `cbor:"2,keyasint"`

	// Data is the chunk payload.
	Data []byte `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a session lifecycle change.
	StateEntitySession StateEntity = 0
	// StateEntityStream indicates a streaming enable/disable.
	StateEntityStream StateEntity = 1
	// StateEntityConfig indicates the cached device configuration was replaced.
	StateEntityConfig StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityStream:
		return "STREAM"
	case StateEntityConfig:
		return "CONFIG"
	default:
		return "UNKNOWN"
	}
}

// AnomalyEvent captures a sequence discontinuity.
type AnomalyEvent struct {
	// Expected is the sequence number that should have arrived.
	Expected uint8 `cbor:"1,keyasint"`

	// Got is the sequence number that arrived.
	Got uint8 `cbor:"2,keyasint"`
}

// UploadEvent captures one upload sink invocation.
type UploadEvent struct {
	// URI is the data URI the chunk was sent to.
	URI string `cbor:"1,keyasint,omitempty"`

	// Size is the chunk size in bytes.
	Size int `cbor:"2,keyasint"`

	// Success reports whether the sink accepted the chunk.
	Success bool `cbor:"3,keyasint"`

	// Error is the sink error message on failure.
	Error string `cbor:"4,keyasint,omitempty"`

	// Duration is how long the sink call took (nanoseconds).
	Duration time.Duration `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the C-style error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
