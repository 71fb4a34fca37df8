// Package config loads the gateway configuration from YAML.
//
// A minimal file selects a transport; every other setting has a default:
//
//	transport:
//	  kind: serial
//	  device: /dev/ttyACM0
//
// Durations use Go syntax ("250ms", "30s").
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/upload"
)

// Transport kinds.
const (
	TransportSerial    = "serial"
	TransportWebSocket = "websocket"
	TransportMemory    = "memory"
)

// Stream consumption modes.
const (
	// StreamAuto selects push when the backend delivers frames, else pull.
	StreamAuto = "auto"

	// StreamPull reads stream reports through the backend (ProcessStream).
	StreamPull = "pull"

	// StreamPush consumes whole frames from a FrameSource (Process).
	StreamPush = "push"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the complete gateway configuration.
type Config struct {
	Transport Transport `yaml:"transport"`
	Stream    Stream    `yaml:"stream"`
	Upload    Upload    `yaml:"upload"`
	Archive   Archive   `yaml:"archive"`
	Status    Status    `yaml:"status"`
	Capture   Capture   `yaml:"capture"`
	Redial    Redial    `yaml:"redial"`
	Logging   Logging   `yaml:"logging"`
}

// Transport selects and configures the device backend.
type Transport struct {
	// Kind is serial, websocket or memory.
	Kind string `yaml:"kind"`

	// Device is the serial device path (serial only).
	Device string `yaml:"device"`

	// URL is the bridge endpoint (websocket only).
	URL string `yaml:"url"`

	// InputDepth bounds the stream frames buffered by the backend.
	InputDepth int `yaml:"input_depth"`

	// PingInterval is the WebSocket keep-alive interval; negative disables.
	PingInterval time.Duration `yaml:"ping_interval"`

	// ReadTimeout bounds each feature report read.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Stream configures packet consumption.
type Stream struct {
	// Mode is auto, pull or push.
	Mode string `yaml:"mode"`

	// PollTimeout bounds each wait for a stream packet.
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// Enable turns device streaming on at startup.
	Enable bool `yaml:"enable"`
}

// Upload configures the HTTP chunk uploader.
type Upload struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
	Verbose bool          `yaml:"verbose"`
	DryRun  bool          `yaml:"dry_run"`
}

// Archive configures the optional S3 copy of every chunk.
type Archive struct {
	Enabled  bool          `yaml:"enabled"`
	Bucket   string        `yaml:"bucket"`
	Prefix   string        `yaml:"prefix"`
	Region   string        `yaml:"region"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Status configures the HTTP status API.
type Status struct {
	// Listen is the listen address; empty disables the API.
	Listen string `yaml:"listen"`

	// Metrics mounts /metrics.
	Metrics bool `yaml:"metrics"`
}

// Capture configures the CBOR protocol capture file.
type Capture struct {
	// File is the capture path; empty disables capture.
	File string `yaml:"file"`
}

// Redial configures transport reconnection.
type Redial struct {
	Enabled      bool          `yaml:"enabled"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`

	// MaxAttempts bounds consecutive failed redials; 0 means unlimited.
	MaxAttempts int `yaml:"max_attempts"`
}

// Logging configures operational logging.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used for unset fields.
func Default() Config {
	return Config{
		Transport: Transport{
			Kind:         TransportSerial,
			InputDepth:   backend.DefaultInputDepth,
			PingInterval: 30 * time.Second,
			ReadTimeout:  session.DefaultReadTimeout,
		},
		Stream: Stream{
			Mode:        StreamAuto,
			PollTimeout: time.Second,
			Enable:      true,
		},
		Upload: Upload{
			Enabled: true,
			Timeout: upload.DefaultTimeout,
		},
		Archive: Archive{
			Prefix:  "chunks",
			Timeout: upload.DefaultTimeout,
		},
		Redial: Redial{
			Enabled:      true,
			InitialDelay: time.Second,
			MaxDelay:     60 * time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// LoadError describes a configuration file that could not be used.
type LoadError struct {
	// File is the path of the configuration file, if any.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, &LoadError{Message: "validation failed", Cause: err}
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Transport.Kind {
	case TransportSerial:
		if c.Transport.Device == "" {
			invalid("transport.device is required for the serial transport")
		}
	case TransportWebSocket:
		if !strings.HasPrefix(c.Transport.URL, "ws://") && !strings.HasPrefix(c.Transport.URL, "wss://") {
			invalid("transport.url must be a ws:// or wss:// URL, got %q", c.Transport.URL)
		}
	case TransportMemory:
	default:
		invalid("unknown transport.kind %q", c.Transport.Kind)
	}
	if c.Transport.InputDepth < 0 {
		invalid("transport.input_depth must not be negative")
	}

	switch c.Stream.Mode {
	case StreamAuto, StreamPush:
	case StreamPull:
		if c.Transport.Kind == TransportSerial {
			invalid("stream.mode pull is not supported by the serial transport")
		}
	default:
		invalid("unknown stream.mode %q", c.Stream.Mode)
	}
	if c.Stream.PollTimeout <= 0 {
		invalid("stream.poll_timeout must be positive")
	}

	if c.Upload.Timeout < 0 {
		invalid("upload.timeout must not be negative")
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		invalid("archive.bucket is required when the archive is enabled")
	}

	if c.Redial.InitialDelay < 0 || c.Redial.MaxDelay < 0 || c.Redial.MaxAttempts < 0 {
		invalid("redial delays and attempts must not be negative")
	}
	if c.Redial.MaxDelay > 0 && c.Redial.InitialDelay > c.Redial.MaxDelay {
		invalid("redial.initial_delay exceeds redial.max_delay")
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case FormatText, FormatJSON:
	default:
		invalid("unknown logging.format %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: unknown logging.level %q", ErrInvalid, s)
	}
	return level, nil
}
