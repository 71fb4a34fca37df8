// Package metrics exports session activity as Prometheus metrics.
//
// Collector implements session.Observer; register it on a session with
// session.Config.Observer or Session.SetObserver.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mds-bridge/mds-go/pkg/session"
	"github.com/mds-bridge/mds-go/pkg/upload"
	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "mds").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for upload duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the upload duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "mds",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Upload outcomes used as the "result" label.
const (
	ResultSuccess = "success"
	ResultHTTP    = "http_error"
	ResultError   = "error"
)

// Collector records session activity.
type Collector struct {
	session.NopObserver

	packets        prometheus.Counter
	bytes          prometheus.Counter
	anomalies      prometheus.Counter
	missing        prometheus.Counter
	parseErrors    prometheus.Counter
	uploads        *prometheus.CounterVec
	uploadBytes    prometheus.Counter
	uploadDuration prometheus.Histogram
	streaming      prometheus.Gauge
	lastSequence   prometheus.Gauge
}

// New creates a Collector and registers its metrics.
//
// Metrics collected:
//   - mds_packets_total: stream packets parsed
//   - mds_received_bytes_total: chunk bytes received
//   - mds_sequence_anomalies_total: packets that broke sequence continuity
//   - mds_missing_packets_total: packets skipped according to sequence gaps
//   - mds_parse_errors_total: stream data that could not be parsed
//   - mds_uploads_total: sink invocations by result
//   - mds_uploaded_bytes_total: chunk bytes accepted by the sink
//   - mds_upload_duration_seconds: sink latency
//   - mds_streaming: 1 while streaming is enabled
//   - mds_last_sequence: sequence number of the last packet
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}
	factory := promauto.With(cfg.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}

	return &Collector{
		packets:     counter("packets_total", "Total number of stream packets parsed"),
		bytes:       counter("received_bytes_total", "Total chunk bytes received from the device"),
		anomalies:   counter("sequence_anomalies_total", "Total number of sequence discontinuities"),
		missing:     counter("missing_packets_total", "Estimated number of packets lost in sequence gaps"),
		parseErrors: counter("parse_errors_total", "Total number of unparseable stream reports"),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "uploads_total",
			Help:        "Total number of chunk uploads by result",
			ConstLabels: cfg.ConstLabels,
		}, []string{"result"}),
		uploadBytes: counter("uploaded_bytes_total", "Total chunk bytes accepted by the upload sink"),
		uploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "upload_duration_seconds",
			Help:        "Chunk upload duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),
		streaming:    gauge("streaming", "1 while device streaming is enabled"),
		lastSequence: gauge("last_sequence", "Sequence number of the last stream packet"),
	}
}

// PacketProcessed implements session.Observer.
func (c *Collector) PacketProcessed(p *wire.StreamPacket) {
	c.packets.Inc()
	c.bytes.Add(float64(p.DataLen))
	c.lastSequence.Set(float64(p.Sequence))
}

// SequenceAnomaly implements session.Observer.
func (c *Collector) SequenceAnomaly(a session.SequenceAnomaly) {
	c.anomalies.Inc()
	c.missing.Add(float64(a.Gap()))
}

// ParseFailed implements session.Observer.
func (c *Collector) ParseFailed(error) {
	c.parseErrors.Inc()
}

// UploadFinished implements session.Observer.
func (c *Collector) UploadFinished(size int, elapsed time.Duration, err error) {
	c.uploadDuration.Observe(elapsed.Seconds())
	c.uploads.WithLabelValues(uploadResult(err)).Inc()
	if err == nil {
		c.uploadBytes.Add(float64(size))
	}
}

// StreamingChanged implements session.Observer.
func (c *Collector) StreamingChanged(enabled bool) {
	if enabled {
		c.streaming.Set(1)
	} else {
		c.streaming.Set(0)
	}
}

func uploadResult(err error) string {
	if err == nil {
		return ResultSuccess
	}
	var se *upload.StatusError
	if errors.As(err, &se) {
		return ResultHTTP
	}
	return ResultError
}

var _ session.Observer = (*Collector)(nil)
