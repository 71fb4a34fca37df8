package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// BoundedString is a string with a fixed capacity that counts a terminator,
// mirroring the NUL-terminated fields of the device reports. A BoundedString
// of capacity n holds at most n-1 bytes. The zero value is the empty string.
type BoundedString struct {
	value    string
	capacity int
}

// NewBoundedString returns s truncated to fit capacity (capacity-1 content bytes).
// Content after an embedded NUL is dropped. A capacity <= 0 yields the empty value.
func NewBoundedString(s string, capacity int) BoundedString {
	if capacity <= 0 {
		return BoundedString{}
	}
	if i := indexNUL(s); i >= 0 {
		s = s[:i]
	}
	if len(s) > capacity-1 {
		s = s[:capacity-1]
	}
	return BoundedString{value: s, capacity: capacity}
}

// String returns the content.
func (b BoundedString) String() string { return b.value }

// Len returns the content length in bytes.
func (b BoundedString) Len() int { return len(b.value) }

// Cap returns the capacity including the terminator.
func (b BoundedString) Cap() int { return b.capacity }

// IsEmpty reports whether the content is empty.
func (b BoundedString) IsEmpty() bool { return b.value == "" }

// MarshalText encodes the content.
func (b BoundedString) MarshalText() ([]byte, error) {
	return []byte(b.value), nil
}

func indexNUL(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return i
		}
	}
	return -1
}

// DeviceConfig is the configuration a device exposes through its feature reports.
// Absent fields are zero. A DeviceConfig is replaced as a whole, never merged.
type DeviceConfig struct {
	// SupportedFeatures is the supported features bitmask (currently always 0).
	SupportedFeatures uint32 `json:"supported_features"`

	// DeviceIdentifier identifies the device (capacity MaxDeviceIDLen).
	DeviceIdentifier BoundedString `json:"device_identifier"`

	// DataURI is the URI chunks are posted to (capacity MaxURILen).
	DataURI BoundedString `json:"data_uri"`

	// Authorization is the upload header in "HeaderName:HeaderValue" form (capacity MaxAuthLen).
	Authorization BoundedString `json:"authorization"`
}

// NewDeviceConfig returns an empty configuration whose string fields carry
// their report capacities.
func NewDeviceConfig() DeviceConfig {
	return DeviceConfig{
		DeviceIdentifier: BoundedString{capacity: MaxDeviceIDLen},
		DataURI:          BoundedString{capacity: MaxURILen},
		Authorization:    BoundedString{capacity: MaxAuthLen},
	}
}

// ParseSupportedFeatures decodes the little-endian supported features bitmask.
func ParseSupportedFeatures(buf []byte) (uint32, error) {
	if len(buf) < SupportedFeaturesLen {
		return 0, fmt.Errorf("%w: supported features need %d bytes, have %d",
			ErrTooShort, SupportedFeaturesLen, len(buf))
	}
	return binary.LittleEndian.Uint32(buf[:SupportedFeaturesLen]), nil
}

// EncodeSupportedFeatures writes the features bitmask into out.
func EncodeSupportedFeatures(features uint32, out []byte) (int, error) {
	if len(out) < SupportedFeaturesLen {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, SupportedFeaturesLen, len(out))
	}
	binary.LittleEndian.PutUint32(out, features)
	return SupportedFeaturesLen, nil
}

// ParseBoundedString copies up to min(len(buf), maxLen-1) bytes of buf,
// stopping at the first NUL. Short input yields a shorter string.
// It fails only when maxLen leaves no room for the terminator.
func ParseBoundedString(buf []byte, maxLen int) (BoundedString, error) {
	if maxLen <= 0 {
		return BoundedString{}, fmt.Errorf("%w: capacity %d", ErrBufferTooSmall, maxLen)
	}
	n := len(buf)
	if n > maxLen-1 {
		n = maxLen - 1
	}
	src := buf[:n]
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return BoundedString{value: string(src), capacity: maxLen}, nil
}

// DecodeConfigField decodes the feature report id into the matching field of cfg.
// On error the field is left untouched.
func DecodeConfigField(id ReportID, buf []byte, cfg *DeviceConfig) error {
	switch id {
	case ReportSupportedFeatures:
		features, err := ParseSupportedFeatures(buf)
		if err != nil {
			return err
		}
		cfg.SupportedFeatures = features
	case ReportDeviceIdentifier:
		s, err := ParseBoundedString(buf, MaxDeviceIDLen)
		if err != nil {
			return err
		}
		cfg.DeviceIdentifier = s
	case ReportDataURI:
		s, err := ParseBoundedString(buf, MaxURILen)
		if err != nil {
			return err
		}
		cfg.DataURI = s
	case ReportAuthorization:
		s, err := ParseBoundedString(buf, MaxAuthLen)
		if err != nil {
			return err
		}
		cfg.Authorization = s
	default:
		return fmt.Errorf("%w: %s (0x%02x) is not a config report", ErrUnknownReport, id, uint8(id))
	}
	return nil
}

// EncodeConfigField writes the report payload for field id of cfg into out.
// String fields are written without a terminator. Used by device-side code.
func EncodeConfigField(id ReportID, cfg *DeviceConfig, out []byte) (int, error) {
	var s string
	switch id {
	case ReportSupportedFeatures:
		return EncodeSupportedFeatures(cfg.SupportedFeatures, out)
	case ReportDeviceIdentifier:
		s = cfg.DeviceIdentifier.String()
	case ReportDataURI:
		s = cfg.DataURI.String()
	case ReportAuthorization:
		s = cfg.Authorization.String()
	default:
		return 0, fmt.Errorf("%w: %s (0x%02x) is not a config report", ErrUnknownReport, id, uint8(id))
	}
	if len(out) < len(s) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, len(s), len(out))
	}
	return copy(out, s), nil
}
