package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mds-bridge/mds-go/internal/gateway"
	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

func monitorCmd(flags *globalFlags) *cobra.Command {
	var (
		transport     transportFlags
		statsInterval time.Duration
		quiet         bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print stream packets without uploading them",
		Long: `Connect to the device, enable streaming and print every stream packet
with sequence checks. Nothing is uploaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			transport.apply(&cfg)
			cfg.Stream.Enable = true
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printer := newPacketPrinter(out, quiet)
			g := gateway.New(gateway.Options{
				Config:   cfg,
				Logger:   logger,
				Observer: printer,
				OnDeviceConfig: func(dc wire.DeviceConfig) {
					printer.deviceConfig(dc)
				},
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			start := time.Now()
			go every(ctx, statsInterval, func() {
				printer.stats(g.Stats(), time.Since(start))
			})

			err = g.Run(ctx)
			printer.stats(g.Stats(), time.Since(start))
			return err
		},
	}

	transport.register(cmd)
	cmd.Flags().DurationVar(&statsInterval, "stats-interval", 10*time.Second, "Interval between statistics lines (0 disables them)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print anomalies and statistics only")
	return cmd
}

// every calls fn every interval until ctx is done. A non-positive interval
// disables it.
func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// packetPrinter prints session events in the monitor's format.
type packetPrinter struct {
	session.NopObserver

	mu    sync.Mutex
	out   io.Writer
	quiet bool
}

func newPacketPrinter(out io.Writer, quiet bool) *packetPrinter {
	return &packetPrinter{out: out, quiet: quiet}
}

func (p *packetPrinter) PacketProcessed(pkt *wire.StreamPacket) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] MDS Stream Packet\n", time.Now().Format("15:04:05.000"))
	fmt.Fprintf(p.out, "  Sequence:   %d (0x%02X)\n", pkt.Sequence, pkt.Sequence)
	fmt.Fprintf(p.out, "  Data Len:   %d bytes\n", pkt.DataLen)
	fmt.Fprintf(p.out, "  Data:\n%s\n", indent(hex.Dump(pkt.Payload()), "    "))
}

func (p *packetPrinter) SequenceAnomaly(a session.SequenceAnomaly) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "  WARNING: Sequence error! Expected %d, got %d\n\n", a.Expected, a.Got)
}

func (p *packetPrinter) ParseFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "  WARNING: unparseable stream report: %v\n", err)
}

func (p *packetPrinter) StreamingChanged(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if enabled {
		fmt.Fprintln(p.out, "Streaming enabled. Monitoring MDS stream... (Press Ctrl+C to stop)")
	} else {
		fmt.Fprintln(p.out, "Streaming disabled.")
	}
}

func (p *packetPrinter) deviceConfig(cfg wire.DeviceConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	auth := "none"
	if !cfg.Authorization.IsEmpty() {
		auth = cfg.Authorization.String()
	}
	fmt.Fprintln(p.out, "MDS Device Configuration:")
	fmt.Fprintf(p.out, "  Device ID:   %s\n", cfg.DeviceIdentifier)
	fmt.Fprintf(p.out, "  Data URI:    %s\n", cfg.DataURI)
	fmt.Fprintf(p.out, "  Auth:        %s\n", auth)
	fmt.Fprintf(p.out, "  Features:    0x%08X\n\n", cfg.SupportedFeatures)
}

func (p *packetPrinter) stats(st session.Stats, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[Stats] Packets: %d, Bytes: %d, Seq errors: %d, Elapsed: %s\n\n",
		st.PacketsProcessed, st.BytesReceived, st.SequenceAnomalies, elapsed.Truncate(time.Second))
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
