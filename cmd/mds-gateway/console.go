package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/mds-bridge/mds-go/internal/gateway"
	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Console is the interactive command shell of a running gateway.
type Console struct {
	rl  *readline.Instance
	out io.Writer
}

// NewConsole creates the console.
func NewConsole() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mds> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is cancelled.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc, g *gateway.Gateway) {
	defer c.rl.Close()
	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		if quit := c.execute(ctx, g, strings.ToLower(fields[0])); quit {
			cancel()
			return
		}
	}
}

func (c *Console) execute(ctx context.Context, g *gateway.Gateway, cmd string) (quit bool) {
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "status", "s":
		c.cmdStatus(g)
	case "stats":
		c.cmdStats(g.Stats())
	case "reset":
		g.ResetStats()
		fmt.Fprintln(c.out, "Statistics reset")
	case "enable", "on":
		c.do(ctx, g, "Streaming enabled", func(s *session.Session) error { return s.EnableStreaming() })
	case "disable", "off":
		c.do(ctx, g, "Streaming disabled", func(s *session.Session) error { return s.DisableStreaming() })
	case "config", "cfg":
		var cfg wire.DeviceConfig
		var read bool
		c.do(ctx, g, "", func(s *session.Session) error {
			var err error
			cfg, err = s.ReadDeviceConfig()
			read = true
			return err
		})
		if read {
			c.printDeviceConfig(cfg)
		}
	case "resync":
		c.do(ctx, g, "Sequence tracking reset", func(s *session.Session) error {
			s.ResetSequence()
			return nil
		})
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) do(ctx context.Context, g *gateway.Gateway, okMsg string, fn func(*session.Session) error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := g.Do(ctx, fn); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if okMsg != "" {
		fmt.Fprintln(c.out, okMsg)
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
MDS Gateway Commands:
  status             - Show link and session status
  stats              - Show session counters
  reset              - Reset session counters
  enable             - Enable device streaming
  disable            - Disable device streaming
  config             - Re-read the device configuration
  resync             - Forget the last sequence number
  quit               - Stop the gateway`)
}

func (c *Console) cmdStatus(g *gateway.Gateway) {
	fmt.Fprintf(c.out, "Link:       %s (%d established)\n", g.State(), g.Links())
	fmt.Fprintf(c.out, "Session:    %s\n", g.ID())
	fmt.Fprintf(c.out, "Streaming:  %v\n", g.Streaming())
	if seq, ok := g.LastSequence(); ok {
		fmt.Fprintf(c.out, "Last seq:   %d\n", seq)
	} else {
		fmt.Fprintln(c.out, "Last seq:   none")
	}
	if cfg, ok := g.DeviceConfig(); ok {
		c.printDeviceConfig(cfg)
	}
}

func (c *Console) printDeviceConfig(cfg wire.DeviceConfig) {
	auth := "none"
	if !cfg.Authorization.IsEmpty() {
		name, _, _ := strings.Cut(cfg.Authorization.String(), ":")
		auth = name + ":<redacted>"
	}
	fmt.Fprintf(c.out, "Device ID:  %s\n", cfg.DeviceIdentifier)
	fmt.Fprintf(c.out, "Data URI:   %s\n", cfg.DataURI)
	fmt.Fprintf(c.out, "Auth:       %s\n", auth)
	fmt.Fprintf(c.out, "Features:   0x%08X\n", cfg.SupportedFeatures)
}

func (c *Console) cmdStats(st session.Stats) {
	fmt.Fprintf(c.out, "Packets:          %d (%d bytes)\n", st.PacketsProcessed, st.BytesReceived)
	fmt.Fprintf(c.out, "Uploaded:         %d chunks (%d bytes)\n", st.ChunksUploaded, st.BytesUploaded)
	fmt.Fprintf(c.out, "Upload failures:  %d\n", st.UploadFailures)
	fmt.Fprintf(c.out, "Seq anomalies:    %d\n", st.SequenceAnomalies)
	fmt.Fprintf(c.out, "Parse errors:     %d\n", st.ParseErrors)
	fmt.Fprintf(c.out, "Read errors:      %d (no data: %d)\n", st.ReadErrors, st.NoData)
}
