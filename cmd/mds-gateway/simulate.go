package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/mds-bridge/mds-go/internal/devicesim"
	"github.com/mds-bridge/mds-go/pkg/backend/memdev"
)

func simulateCmd(flags *globalFlags) *cobra.Command {
	var (
		listen    string
		device    memdev.Config
		chunkSize int
		interval  time.Duration
		skipEvery int
	)
	device = memdev.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve a simulated MDS device over WebSocket",
		Long: `Serve a simulated MDS device as a WebSocket bridge, for exercising the
gateway without hardware:

  mds-gateway simulate --listen 127.0.0.1:8765
  mds-gateway run -t websocket -u ws://127.0.0.1:8765/mds --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}

			sim := devicesim.New(devicesim.Options{
				Device:    device,
				ChunkSize: chunkSize,
				Interval:  interval,
				SkipEvery: skipEvery,
				Logger:    logger,
			})

			r := chi.NewRouter()
			r.Use(middleware.Recoverer)
			r.Handle("/mds", sim.Handler())

			srv := &http.Server{Addr: listen, Handler: r, ReadHeaderTimeout: 5 * time.Second}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			go func() {
				<-ctx.Done()
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("simulated device listening", "url", "ws://"+listen+"/mds", "device_id", device.DeviceIdentifier)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("simulator stopped", "packets", sim.PacketsSent(), "chunks", sim.ChunksSent())
			return nil
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "127.0.0.1:8765", "Listen address")
	cmd.Flags().StringVar(&device.DeviceIdentifier, "device-id", device.DeviceIdentifier, "Device identifier")
	cmd.Flags().StringVar(&device.DataURI, "data-uri", device.DataURI, "Data URI reported by the device")
	cmd.Flags().StringVar(&device.Authorization, "auth", device.Authorization, "Authorization header reported by the device")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", devicesim.DefaultChunkSize, "Chunk size in bytes")
	cmd.Flags().DurationVar(&interval, "interval", devicesim.DefaultInterval, "Interval between chunks")
	cmd.Flags().IntVar(&skipEvery, "skip-every", 0, "Skip a sequence number every N packets")
	return cmd
}
