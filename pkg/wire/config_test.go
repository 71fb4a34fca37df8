package wire

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestParseSupportedFeatures(t *testing.T) {
	got, err := ParseSupportedFeatures([]byte{0x78, 0x56, 0x34, 0x12, 0xFF})
	if err != nil {
		t.Fatalf("ParseSupportedFeatures failed: %v", err)
	}
	if got != 0x12345678 {
		t.Errorf("features = 0x%08x, want 0x12345678", got)
	}

	for n := 0; n < SupportedFeaturesLen; n++ {
		if _, err := ParseSupportedFeatures(make([]byte, n)); !errors.Is(err, ErrTooShort) {
			t.Errorf("len %d: expected ErrTooShort, got %v", n, err)
		}
	}
}

func TestParseBoundedString(t *testing.T) {
	tests := []struct {
		name   string
		buf    []byte
		maxLen int
		want   string
	}{
		{"fits", []byte("device-1"), MaxDeviceIDLen, "device-1"},
		{"empty input", nil, MaxDeviceIDLen, ""},
		{"truncated to capacity minus terminator", []byte("abcdef"), 4, "abc"},
		{"stops at NUL", []byte("abc\x00def"), 16, "abc"},
		{"capacity one", []byte("abc"), 1, ""},
		{"invalid utf8 kept as bytes", []byte{0xff, 0xfe}, 8, "\xff\xfe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBoundedString(tt.buf, tt.maxLen)
			if err != nil {
				t.Fatalf("ParseBoundedString failed: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
			if got.Cap() != tt.maxLen {
				t.Errorf("Cap() = %d, want %d", got.Cap(), tt.maxLen)
			}
		})
	}
}

func TestParseBoundedStringZeroCapacity(t *testing.T) {
	if _, err := ParseBoundedString([]byte("x"), 0); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestParseBoundedStringNeverExceedsCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, maxLen := range []int{1, 2, MaxDeviceIDLen, MaxURILen} {
		for i := 0; i < 200; i++ {
			buf := make([]byte, rng.Intn(10*maxLen+1))
			rng.Read(buf)

			got, err := ParseBoundedString(buf, maxLen)
			if err != nil {
				t.Fatalf("ParseBoundedString failed: %v", err)
			}
			if got.Len() > maxLen-1 {
				t.Fatalf("maxLen %d: content length %d exceeds %d", maxLen, got.Len(), maxLen-1)
			}
			if !strings.HasPrefix(string(buf), got.String()) {
				t.Fatalf("content is not a prefix of the input")
			}
		}
	}
}

func TestNewBoundedString(t *testing.T) {
	b := NewBoundedString(strings.Repeat("x", 200), MaxAuthLen)
	if b.Len() != MaxAuthLen-1 {
		t.Errorf("Len() = %d, want %d", b.Len(), MaxAuthLen-1)
	}

	if !NewBoundedString("abc", 0).IsEmpty() {
		t.Error("zero capacity should yield the empty value")
	}

	var zero BoundedString
	if !zero.IsEmpty() || zero.Cap() != 0 {
		t.Error("zero value should be empty with capacity 0")
	}
}

func TestDecodeConfigField(t *testing.T) {
	var cfg DeviceConfig

	steps := []struct {
		id  ReportID
		buf []byte
	}{
		{ReportSupportedFeatures, []byte{0x01, 0x00, 0x00, 0x00}},
		{ReportDeviceIdentifier, []byte("DEMO-0001")},
		{ReportDataURI, []byte("https://chunks.memfault.com/api/v0/chunks/DEMO-0001")},
		{ReportAuthorization, []byte("Memfault-Project-Key:abc123")},
	}
	for _, s := range steps {
		if err := DecodeConfigField(s.id, s.buf, &cfg); err != nil {
			t.Fatalf("DecodeConfigField(%s) failed: %v", s.id, err)
		}
	}

	if cfg.SupportedFeatures != 1 {
		t.Errorf("SupportedFeatures = %d, want 1", cfg.SupportedFeatures)
	}
	if cfg.DeviceIdentifier.String() != "DEMO-0001" {
		t.Errorf("DeviceIdentifier = %q", cfg.DeviceIdentifier)
	}
	if cfg.DataURI.Cap() != MaxURILen {
		t.Errorf("DataURI capacity = %d, want %d", cfg.DataURI.Cap(), MaxURILen)
	}
	if cfg.Authorization.String() != "Memfault-Project-Key:abc123" {
		t.Errorf("Authorization = %q", cfg.Authorization)
	}
}

func TestDecodeConfigFieldErrors(t *testing.T) {
	cfg := DeviceConfig{SupportedFeatures: 7}

	if err := DecodeConfigField(ReportSupportedFeatures, []byte{1}, &cfg); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
	if cfg.SupportedFeatures != 7 {
		t.Error("failed decode must leave the field untouched")
	}

	if err := DecodeConfigField(ReportStreamData, []byte{1}, &cfg); !errors.Is(err, ErrUnknownReport) {
		t.Errorf("expected ErrUnknownReport, got %v", err)
	}
}

func TestEncodeConfigFieldRoundTrip(t *testing.T) {
	src := DeviceConfig{
		SupportedFeatures: 0xA5A5,
		DeviceIdentifier:  NewBoundedString("dev", MaxDeviceIDLen),
		DataURI:           NewBoundedString("https://example.com/chunks", MaxURILen),
		Authorization:     NewBoundedString("Key:value", MaxAuthLen),
	}

	var dst DeviceConfig
	buf := make([]byte, MaxFeatureReportLen)
	for _, id := range ConfigReports {
		n, err := EncodeConfigField(id, &src, buf)
		if err != nil {
			t.Fatalf("EncodeConfigField(%s) failed: %v", id, err)
		}
		if err := DecodeConfigField(id, buf[:n], &dst); err != nil {
			t.Fatalf("DecodeConfigField(%s) failed: %v", id, err)
		}
	}

	if dst != src {
		t.Errorf("round trip mismatch: got %+v, want %+v", dst, src)
	}
}

func TestNewDeviceConfigCapacities(t *testing.T) {
	cfg := NewDeviceConfig()
	if cfg.DeviceIdentifier.Cap() != MaxDeviceIDLen || cfg.DataURI.Cap() != MaxURILen || cfg.Authorization.Cap() != MaxAuthLen {
		t.Errorf("unexpected capacities: %d/%d/%d", cfg.DeviceIdentifier.Cap(), cfg.DataURI.Cap(), cfg.Authorization.Cap())
	}
	if !cfg.DataURI.IsEmpty() || cfg.SupportedFeatures != 0 {
		t.Error("new config must be empty")
	}
}
