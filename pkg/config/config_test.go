package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinimal(t *testing.T) {
	cfg, err := Parse([]byte("transport:\n  kind: serial\n  device: /dev/ttyACM0\n"))
	require.NoError(t, err)

	want := Default()
	want.Transport.Device = "/dev/ttyACM0"
	assert.Equal(t, want, cfg)
}

func TestParseFull(t *testing.T) {
	data := []byte(`
transport:
  kind: websocket
  url: ws://127.0.0.1:8765/mds
  input_depth: 16
  ping_interval: 10s
  read_timeout: 500ms
stream:
  mode: push
  poll_timeout: 250ms
  enable: false
upload:
  enabled: true
  timeout: 5s
  dry_run: true
archive:
  enabled: true
  bucket: chunks-archive
  region: eu-central-1
  endpoint: http://localhost:9000
status:
  listen: 127.0.0.1:9090
  metrics: true
capture:
  file: /tmp/mds.cbor
redial:
  enabled: true
  initial_delay: 100ms
  max_delay: 5s
  max_attempts: 3
logging:
  level: debug
  format: json
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, TransportWebSocket, cfg.Transport.Kind)
	assert.Equal(t, 16, cfg.Transport.InputDepth)
	assert.Equal(t, 10*time.Second, cfg.Transport.PingInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Transport.ReadTimeout)
	assert.Equal(t, StreamPush, cfg.Stream.Mode)
	assert.False(t, cfg.Stream.Enable)
	assert.True(t, cfg.Upload.DryRun)
	assert.Equal(t, "chunks-archive", cfg.Archive.Bucket)
	assert.Equal(t, "chunks", cfg.Archive.Prefix, "unset fields keep their defaults")
	assert.Equal(t, "127.0.0.1:9090", cfg.Status.Listen)
	assert.Equal(t, "/tmp/mds.cbor", cfg.Capture.File)
	assert.Equal(t, 3, cfg.Redial.MaxAttempts)
	assert.Equal(t, FormatJSON, cfg.Logging.Format)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "transport:\n  kind: memory\n  baud: 115200\n"},
		{"serial without device", "transport:\n  kind: serial\n"},
		{"websocket with http url", "transport:\n  kind: websocket\n  url: http://x\n"},
		{"unknown transport", "transport:\n  kind: bluetooth\n"},
		{"unknown stream mode", "transport:\n  kind: memory\nstream:\n  mode: poll\n"},
		{"pull over serial", "transport:\n  kind: serial\n  device: /dev/ttyACM0\nstream:\n  mode: pull\n"},
		{"zero poll timeout", "transport:\n  kind: memory\nstream:\n  poll_timeout: 0s\n"},
		{"archive without bucket", "transport:\n  kind: memory\narchive:\n  enabled: true\n"},
		{"initial delay above max", "transport:\n  kind: memory\nredial:\n  initial_delay: 2m\n  max_delay: 1m\n"},
		{"bad level", "transport:\n  kind: memory\nlogging:\n  level: loud\n"},
		{"bad format", "transport:\n  kind: memory\nlogging:\n  format: xml\n"},
		{"bad duration", "transport:\n  kind: memory\n  read_timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			var le *LoadError
			assert.True(t, errors.As(err, &le))
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Transport.Kind = "bogus"
	cfg.Stream.Mode = "bogus"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "transport.kind")
	assert.Contains(t, err.Error(), "stream.mode")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport:\n  kind: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportMemory, cfg.Transport.Kind)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, filepath.Join(dir, "missing.yaml"), le.File)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("transport:\n  kind: nope\n"), 0o644))
	_, err = Load(bad)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, bad, le.File)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Transport.Kind = TransportMemory
	cfg.Redial.InitialDelay = 250 * time.Millisecond

	data, err := Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "initial_delay: 250ms")

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("")
	assert.ErrorIs(t, err, ErrInvalid)
}
