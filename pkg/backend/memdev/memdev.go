// Package memdev provides an in-memory MDS device implementing backend.Backend.
//
// It serves the four configuration reports, honours stream control writes and
// hands out queued stream packets. Failures can be injected per report. The
// Device is a test double; Config also describes the device reported by
// internal/devicesim, which backs the gateway's simulated transport.
package memdev

import (
	"fmt"
	"sync"
	"time"

	"github.com/mds-bridge/mds-go/pkg/backend"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Config describes the simulated device.
type Config struct {
	SupportedFeatures uint32
	DeviceIdentifier  string
	DataURI           string
	Authorization     string
}

// DefaultConfig returns a plausible device configuration.
func DefaultConfig() Config {
	return Config{
		SupportedFeatures: 0,
		DeviceIdentifier:  "DEMO-0001",
		DataURI:           "https://chunks.memfault.com/api/v0/chunks/DEMO-0001",
		Authorization:     "Memfault-Project-Key:00000000000000000000000000000000",
	}
}

// Device is an in-memory MDS device. It is safe for concurrent use.
type Device struct {
	mu        sync.Mutex
	cfg       wire.DeviceConfig
	streaming bool
	nextSeq   uint8
	queue     [][]byte
	notify    chan struct{}

	readErrs  map[wire.ReportID]error
	writeErr  error
	writes    []bool
	destroyed int

	// RequireStreaming makes stream reads report no data while streaming is
	// disabled, like a real device that only emits packets once enabled.
	RequireStreaming bool
}

// New creates a device serving cfg.
func New(cfg Config) *Device {
	return &Device{
		cfg: wire.DeviceConfig{
			SupportedFeatures: cfg.SupportedFeatures,
			DeviceIdentifier:  wire.NewBoundedString(cfg.DeviceIdentifier, wire.MaxDeviceIDLen),
			DataURI:           wire.NewBoundedString(cfg.DataURI, wire.MaxURILen),
			Authorization:     wire.NewBoundedString(cfg.Authorization, wire.MaxAuthLen),
		},
		notify:   make(chan struct{}, 1),
		readErrs: make(map[wire.ReportID]error),
	}
}

// Read implements backend.Backend.
func (d *Device) Read(id wire.ReportID, buf []byte, timeout time.Duration) (int, error) {
	if id == wire.ReportStreamData {
		return d.readPacket(buf, timeout)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.readErrs[id]; err != nil {
		return 0, err
	}
	switch {
	case id.IsFeature():
		n, err := wire.EncodeConfigField(id, &d.cfg, buf)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", backend.ErrInvalidArgument, err)
		}
		return n, nil
	case id == wire.ReportStreamControl:
		return wire.BuildStreamControl(d.streaming, buf)
	default:
		return 0, fmt.Errorf("%w: report 0x%02x", backend.ErrInvalidArgument, uint8(id))
	}
}

func (d *Device) readPacket(buf []byte, timeout time.Duration) (int, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		d.mu.Lock()
		if err := d.readErrs[wire.ReportStreamData]; err != nil {
			d.mu.Unlock()
			return 0, err
		}
		if len(d.queue) > 0 && (d.streaming || !d.RequireStreaming) {
			pkt := d.queue[0]
			d.queue = d.queue[1:]
			d.mu.Unlock()
			return copy(buf, pkt), nil
		}
		d.mu.Unlock()

		if timeout == 0 {
			return 0, backend.ErrWouldBlock
		}
		select {
		case <-d.notify:
		case <-expired:
			return 0, backend.ErrTimeout
		}
	}
}

// Write implements backend.Backend. Only stream control is writable.
func (d *Device) Write(id wire.ReportID, buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.writeErr != nil {
		return 0, d.writeErr
	}
	if id != wire.ReportStreamControl {
		return 0, fmt.Errorf("%w: report %s is not writable", backend.ErrInvalidArgument, id)
	}
	enable, err := wire.ParseStreamControl(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", backend.ErrInvalidArgument, err)
	}
	d.streaming = enable
	d.writes = append(d.writes, enable)
	d.wake()
	return len(buf), nil
}

// Destroy implements backend.Backend. It counts calls.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed++
}

// Push queues data as the next stream packet, assigning the next sequence
// number. Data longer than one packet is split.
func (d *Device) Push(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		n := min(len(data), wire.MaxChunkDataLen)
		pkt := make([]byte, wire.MaxStreamPacketLen)
		l, _ := wire.EncodeStreamPacket(d.nextSeq, data[:n], pkt)
		d.queue = append(d.queue, pkt[:l])
		d.nextSeq = wire.NextSequence(d.nextSeq)
		data = data[n:]
		if len(data) == 0 {
			break
		}
	}
	d.wake()
}

// PushRaw queues a stream packet verbatim (sequence byte included).
func (d *Device) PushRaw(packet []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, append([]byte(nil), packet...))
	d.wake()
}

// SkipSequence advances the sequence counter by n without emitting packets.
func (d *Device) SkipSequence(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSeq = uint8((int(d.nextSeq) + n) & int(wire.SequenceMask))
}

// SetReadError makes reads of id fail with err. nil clears it.
func (d *Device) SetReadError(id wire.ReportID, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.readErrs, id)
		return
	}
	d.readErrs[id] = err
}

// SetWriteError makes writes fail with err. nil clears it.
func (d *Device) SetWriteError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeErr = err
}

// Streaming reports the current stream mode.
func (d *Device) Streaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streaming
}

// ControlWrites returns the stream control values written so far.
func (d *Device) ControlWrites() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bool(nil), d.writes...)
}

// Pending returns the number of queued stream packets.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// DestroyCount returns how many times Destroy was called.
func (d *Device) DestroyCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

func (d *Device) wake() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

var _ backend.Backend = (*Device)(nil)
