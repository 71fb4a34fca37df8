// Package statusapi serves a small HTTP API describing a running gateway
// session: liveness, session status and Prometheus metrics.
//
// Routes:
//
//	GET  /healthz       liveness probe
//	GET  /status        session status as JSON
//	POST /stats/reset   zero the session counters
//	GET  /metrics       Prometheus exposition (when a Gatherer is configured)
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/upload"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// DefaultShutdownTimeout bounds graceful shutdown in Serve.
const DefaultShutdownTimeout = 5 * time.Second

// Source is the session state the API reports. *session.Session implements it.
type Source interface {
	ID() string
	Streaming() bool
	LastSequence() (uint8, bool)
	DeviceConfig() (wire.DeviceConfig, bool)
	Stats() session.Stats
	ResetStats()
}

// Options configures a Server.
type Options struct {
	// Gatherer serves /metrics. If nil, the route is not mounted.
	Gatherer prometheus.Gatherer

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Status is the /status response body.
type Status struct {
	SessionID    string        `json:"session_id"`
	Streaming    bool          `json:"streaming"`
	LastSequence *uint8        `json:"last_sequence"`
	Device       *DeviceStatus `json:"device,omitempty"`
	Stats        session.Stats `json:"stats"`
}

// DeviceStatus is the cached device configuration. The authorization value
// is never exposed, only its header name.
type DeviceStatus struct {
	SupportedFeatures uint32 `json:"supported_features"`
	DeviceIdentifier  string `json:"device_identifier"`
	DataURI           string `json:"data_uri"`
	AuthHeader        string `json:"auth_header,omitempty"`
}

// Server serves the status API.
type Server struct {
	src    Source
	router chi.Router
	logger *slog.Logger
}

// New creates a Server reporting on src.
func New(src Source, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{src: src, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/stats/reset", s.handleResetStats)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the API's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("status API listening", "addr", l.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Snapshot builds the current status.
func (s *Server) Snapshot() Status {
	st := Status{
		SessionID: s.src.ID(),
		Streaming: s.src.Streaming(),
		Stats:     s.src.Stats(),
	}
	if seq, ok := s.src.LastSequence(); ok {
		st.LastSequence = &seq
	}
	if cfg, ok := s.src.DeviceConfig(); ok {
		name, _, _ := upload.ParseAuthHeader(cfg.Authorization.String())
		st.Device = &DeviceStatus{
			SupportedFeatures: cfg.SupportedFeatures,
			DeviceIdentifier:  cfg.DeviceIdentifier.String(),
			DataURI:           cfg.DataURI.String(),
			AuthHeader:        name,
		}
	}
	return st
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Server) handleResetStats(w http.ResponseWriter, _ *http.Request) {
	s.src.ResetStats()
	s.logger.Info("session stats reset via status API")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Debug("write status response", "error", err)
	}
}
