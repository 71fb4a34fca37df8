package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/mds-bridge/mds-go/internal/devicesim"
	"github.com/mds-bridge/mds-go/pkg/backend/memdev"
	"github.com/mds-bridge/mds-go/pkg/backend/serial"
	"github.com/mds-bridge/mds-go/pkg/backend/wsbridge"
	"github.com/mds-bridge/mds-go/pkg/config"
)

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// TransportDialer returns the DialFunc for cfg.
func TransportDialer(cfg config.Transport, logger *slog.Logger) DialFunc {
	logger = orDiscard(logger)
	switch cfg.Kind {
	case config.TransportSerial:
		return func(context.Context) (*Transport, error) {
			return DialSerial(cfg, logger)
		}
	case config.TransportWebSocket:
		return func(ctx context.Context) (*Transport, error) {
			return DialWebSocket(ctx, cfg, logger)
		}
	case config.TransportMemory:
		sim := devicesim.New(devicesim.Options{
			Device: memdev.DefaultConfig(),
			Logger: logger.With("component", "devicesim"),
		})
		return func(context.Context) (*Transport, error) {
			return DialSimulator(sim, cfg, logger), nil
		}
	default:
		return func(context.Context) (*Transport, error) {
			return nil, fmt.Errorf("gateway: unknown transport %q", cfg.Kind)
		}
	}
}

// DialSerial opens the serial device at cfg.Device. The line settings are
// expected to be configured already (e.g., with stty).
func DialSerial(cfg config.Transport, logger *slog.Logger) (*Transport, error) {
	logger = orDiscard(logger)
	f, err := os.OpenFile(cfg.Device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("gateway: open %s: %w", cfg.Device, err)
	}
	b := serial.New(f, serial.Options{
		InputDepth: cfg.InputDepth,
		Logger:     logger.With("transport", "serial"),
	})
	return &Transport{Backend: b, Closer: f}, nil
}

// DialWebSocket connects to the bridge at cfg.URL.
func DialWebSocket(ctx context.Context, cfg config.Transport, logger *slog.Logger) (*Transport, error) {
	logger = orDiscard(logger)
	conn, err := wsbridge.Dial(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	b := wsbridge.New(conn, wsbridge.Options{
		InputDepth:   cfg.InputDepth,
		PingInterval: cfg.PingInterval,
		Logger:       logger.With("transport", "websocket"),
	})
	return &Transport{Backend: b, Closer: conn}, nil
}

// DialSimulator connects to an in-process simulated device over a pipe.
func DialSimulator(sim *devicesim.Simulator, cfg config.Transport, logger *slog.Logger) *Transport {
	logger = orDiscard(logger)
	host, dev := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := sim.ServeStream(ctx, dev); err != nil {
			logger.Debug("simulated device stopped", "error", err)
		}
	}()

	b := serial.New(host, serial.Options{
		InputDepth: cfg.InputDepth,
		Logger:     logger.With("transport", "memory"),
	})
	return &Transport{Backend: b, Closer: closerFunc(func() error {
		cancel()
		_ = dev.Close()
		return host.Close()
	})}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
