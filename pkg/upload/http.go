package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultTracerName is the tracer used when HTTPConfig.TracerName is empty.
const DefaultTracerName = "mds-go/upload"

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upload: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upload: HTTP %d: %s", e.StatusCode, e.Body)
}

// Stats are the uploader's counters.
type Stats struct {
	ChunksUploaded uint64 `json:"chunks_uploaded"`
	BytesUploaded  uint64 `json:"bytes_uploaded"`
	UploadFailures uint64 `json:"upload_failures"`
	LastHTTPStatus int    `json:"last_http_status"`
}

// HTTPConfig configures an HTTPUploader.
type HTTPConfig struct {
	// Client is the HTTP client to use. If nil, a new client is created.
	Client *http.Client

	// Timeout bounds each request (default: DefaultTimeout).
	Timeout time.Duration

	// Verbose logs every request and response at debug level.
	Verbose bool

	// DryRun counts chunks without sending them.
	DryRun bool

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger

	// TracerName selects the OpenTelemetry tracer (default: DefaultTracerName).
	TracerName string
}

// HTTPUploader posts each chunk to its data URI with one HTTP request.
// It is safe for concurrent use.
type HTTPUploader struct {
	client *http.Client
	tracer trace.Tracer
	logger *slog.Logger
	dryRun bool

	mu      sync.Mutex
	timeout time.Duration
	verbose bool
	stats   Stats
}

// NewHTTPUploader creates an uploader.
func NewHTTPUploader(cfg HTTPConfig) *HTTPUploader {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TracerName == "" {
		cfg.TracerName = DefaultTracerName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPUploader{
		client:  cfg.Client,
		tracer:  otel.Tracer(cfg.TracerName),
		logger:  logger,
		dryRun:  cfg.DryRun,
		timeout: cfg.Timeout,
		verbose: cfg.Verbose,
	}
}

// SetTimeout changes the per-request timeout. Values <= 0 are ignored.
func (u *HTTPUploader) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.timeout = d
}

// SetVerbose enables or disables request logging.
func (u *HTTPUploader) SetVerbose(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.verbose = v
}

// Stats returns a snapshot of the counters.
func (u *HTTPUploader) Stats() Stats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}

// ResetStats zeroes the counters.
func (u *HTTPUploader) ResetStats() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stats = Stats{}
}

// Upload implements Sink.
func (u *HTTPUploader) Upload(uri, authHeader string, data []byte) error {
	return u.UploadContext(context.Background(), uri, authHeader, data)
}

// UploadContext posts data to uri. A non-empty authHeader must be a
// "Name:Value" pair and is sent as one request header.
func (u *HTTPUploader) UploadContext(ctx context.Context, uri, authHeader string, data []byte) error {
	u.mu.Lock()
	timeout, verbose := u.timeout, u.verbose
	u.mu.Unlock()

	ctx, span := u.tracer.Start(ctx, "mds.upload",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mds.data_uri", uri),
			attribute.Int("mds.chunk_size", len(data)),
		),
	)
	defer span.End()

	status, err := u.post(ctx, timeout, verbose, uri, authHeader, data)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	u.mu.Lock()
	if status != 0 {
		u.stats.LastHTTPStatus = status
	}
	if err != nil {
		u.stats.UploadFailures++
	} else {
		u.stats.ChunksUploaded++
		u.stats.BytesUploaded += uint64(len(data))
	}
	u.mu.Unlock()
	return err
}

func (u *HTTPUploader) post(ctx context.Context, timeout time.Duration, verbose bool, uri, authHeader string, data []byte) (int, error) {
	if uri == "" {
		return 0, ErrNoURI
	}
	var name, value string
	if authHeader != "" {
		var ok bool
		if name, value, ok = ParseAuthHeader(authHeader); !ok {
			return 0, ErrInvalidAuthHeader
		}
	}

	if u.dryRun {
		u.logger.Info("dry run: chunk not sent", "uri", uri, "size", len(data))
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("upload: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if name != "" {
		req.Header.Set(name, value)
	}

	if verbose {
		u.logger.Debug("POST chunk", "uri", uri, "size", len(data), "auth_header", name)
	}

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if verbose {
		u.logger.Debug("chunk response", "status", resp.StatusCode, "elapsed", time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

var _ Sink = (*HTTPUploader)(nil)
