package wire

import "fmt"

// StreamMode is the payload of the stream control report.
type StreamMode uint8

const (
	// StreamModeDisabled stops the device from sending stream packets.
	StreamModeDisabled StreamMode = 0x00

	// StreamModeEnabled starts streaming.
	StreamModeEnabled StreamMode = 0x01
)

// String returns the mode name.
func (m StreamMode) String() string {
	switch m {
	case StreamModeDisabled:
		return "DISABLED"
	case StreamModeEnabled:
		return "ENABLED"
	default:
		return "UNKNOWN"
	}
}

// BuildStreamControl writes the one-byte stream control command into out[0].
// Returns the number of bytes written.
func BuildStreamControl(enable bool, out []byte) (int, error) {
	if len(out) < 1 {
		return 0, fmt.Errorf("%w: stream control needs 1 byte", ErrBufferTooSmall)
	}
	if enable {
		out[0] = byte(StreamModeEnabled)
	} else {
		out[0] = byte(StreamModeDisabled)
	}
	return 1, nil
}

// ParseStreamControl decodes a stream control command.
// Returns true for enabled, false for disabled.
func ParseStreamControl(buf []byte) (bool, error) {
	if len(buf) < 1 {
		return false, fmt.Errorf("%w: stream control needs 1 byte", ErrTooShort)
	}
	switch StreamMode(buf[0]) {
	case StreamModeEnabled:
		return true, nil
	case StreamModeDisabled:
		return false, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidStreamMode, buf[0])
	}
}
