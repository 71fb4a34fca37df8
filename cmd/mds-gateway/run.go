package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mds-bridge/mds-go/internal/gateway"
	"github.com/mds-bridge/mds-go/pkg/config"
	"github.com/mds-bridge/mds-go/pkg/log"
	"github.com/mds-bridge/mds-go/pkg/metrics"
	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/statusapi"
)

// transportFlags override the transport section of the configuration.
type transportFlags struct {
	kind   string
	device string
	url    string
}

func (f *transportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "transport", "t", "", "Transport: serial, websocket, memory")
	cmd.Flags().StringVarP(&f.device, "device", "d", "", "Serial device path")
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "WebSocket bridge URL")
}

func (f *transportFlags) apply(cfg *config.Config) {
	if f.kind != "" {
		cfg.Transport.Kind = f.kind
	}
	if f.device != "" {
		cfg.Transport.Device = f.device
	}
	if f.url != "" {
		cfg.Transport.URL = f.url
	}
}

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		transport   transportFlags
		interactive bool
		dryRun      bool
		capture     string
		statusAddr  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the gateway",
		Long: `Run the gateway: read the device configuration, enable streaming and
upload every chunk until interrupted. The transport is redialed when the
link fails.

Examples:
  mds-gateway run -c gateway.yaml
  mds-gateway run -t serial -d /dev/ttyACM0
  mds-gateway run -t memory --dry-run -i`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			transport.apply(&cfg)
			if dryRun {
				cfg.Upload.DryRun = true
			}
			if capture != "" {
				cfg.Capture.File = capture
			}
			if statusAddr != "" {
				cfg.Status.Listen = statusAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runGateway(cfg, interactive)
		},
	}

	transport.register(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Enable interactive command mode")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Count chunks without uploading them")
	cmd.Flags().StringVar(&capture, "capture", "", "Record protocol events to this CBOR file")
	cmd.Flags().StringVar(&statusAddr, "status", "", "Serve the status API on this address")
	return cmd
}

// newProtocolLogger opens the capture file, if configured, and mirrors
// protocol events to the operational logger at debug level.
func newProtocolLogger(cfg config.Config, logger *slog.Logger) (log.Logger, func(), error) {
	adapter := log.NewSlogAdapter(logger).WithLevel(slog.LevelDebug)
	if cfg.Capture.File == "" {
		return adapter, func() {}, nil
	}
	fl, err := log.NewFileLogger(cfg.Capture.File)
	if err != nil {
		return nil, nil, fmt.Errorf("open capture file: %w", err)
	}
	logger.Info("capturing protocol events", "file", cfg.Capture.File)
	closeFn := func() {
		if err := fl.Close(); err != nil {
			logger.Warn("close capture file", "error", err)
		}
	}
	return log.NewMultiLogger(fl, adapter), closeFn, nil
}

func runGateway(cfg config.Config, interactive bool) error {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	var console *Console
	if interactive {
		if console, err = NewConsole(); err != nil {
			return err
		}
		logger, _ = newLoggerTo(cfg.Logging, console.Stdout())
	}

	plog, closeCapture, err := newProtocolLogger(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCapture()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(metrics.WithRegistry(reg))

	sinks := gateway.NewSinks(cfg, logger)
	g := gateway.New(gateway.Options{
		Config:         cfg,
		Logger:         logger,
		Sink:           sinks.Sink(logger),
		ProtocolLogger: plog,
		Observer:       collector,
		OnDeviceConfig: sinks.DeviceConfigured,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Status.Listen != "" {
		opts := statusapi.Options{Logger: logger.With("component", "statusapi")}
		if cfg.Status.Metrics {
			opts.Gatherer = reg
		}
		l, err := net.Listen("tcp", cfg.Status.Listen)
		if err != nil {
			return fmt.Errorf("status API: %w", err)
		}
		api := statusapi.New(g, opts)
		go func() {
			if err := api.Serve(ctx, l); err != nil {
				logger.Error("status API stopped", "error", err)
			}
		}()
	}

	if console != nil {
		go console.Run(ctx, cancel, g)
	}

	logger.Info("gateway starting", "transport", cfg.Transport.Kind, "version", version)
	err = g.Run(ctx)
	printSummary(logger, g.Stats(), sinks)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printSummary(logger *slog.Logger, st session.Stats, sinks gateway.Sinks) {
	logger.Info("gateway stopped",
		"packets", st.PacketsProcessed,
		"bytes", st.BytesReceived,
		"uploaded", st.ChunksUploaded,
		"upload_failures", st.UploadFailures,
		"sequence_anomalies", st.SequenceAnomalies)
	if sinks.HTTP != nil {
		hs := sinks.HTTP.Stats()
		logger.Info("upload statistics",
			"chunks", hs.ChunksUploaded,
			"bytes", hs.BytesUploaded,
			"failures", hs.UploadFailures,
			"last_http_status", hs.LastHTTPStatus)
	}
}
