package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the subset of the S3 client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures an S3Archiver.
type S3Config struct {
	// Bucket receives the chunk objects.
	Bucket string

	// Prefix is prepended to every key (e.g., "chunks/").
	Prefix string

	// DeviceID names the key directory. Empty selects "unknown".
	DeviceID string

	// Timeout bounds each PutObject call (default: DefaultTimeout).
	Timeout time.Duration

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// S3Archiver stores every chunk as one object under
// <prefix>/<device>/<unix-nanos>-<n>.bin.
type S3Archiver struct {
	client ObjectPutter
	cfg    S3Config
	logger *slog.Logger
	seq    atomic.Uint64
	now    func() time.Time
}

// NewS3Archiver creates an archiver writing through client.
func NewS3Archiver(client ObjectPutter, cfg S3Config) *S3Archiver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "unknown"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &S3Archiver{client: client, cfg: cfg, logger: logger, now: time.Now}
}

// SetDeviceID changes the key directory, typically once the device
// configuration was read.
func (a *S3Archiver) SetDeviceID(id string) {
	if id != "" {
		a.cfg.DeviceID = id
	}
}

// Key returns the object key for the n-th chunk stored at t.
func (a *S3Archiver) Key(t time.Time, n uint64) string {
	return path.Join(a.cfg.Prefix, a.cfg.DeviceID, fmt.Sprintf("%d-%d.bin", t.UnixNano(), n))
}

// Upload implements Sink. uri and authHeader are recorded as object metadata;
// the authorization value itself is not stored.
func (a *S3Archiver) Upload(uri, authHeader string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
	defer cancel()

	key := a.Key(a.now(), a.seq.Add(1))
	meta := map[string]string{"data-uri": uri}
	if name, _, ok := ParseAuthHeader(authHeader); ok {
		meta["auth-header"] = name
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("s3 archive %s: %w", key, err)
	}
	a.logger.Debug("chunk archived", "bucket", a.cfg.Bucket, "key", key, "size", len(data))
	return nil
}

// NewS3Client builds an S3 client from static settings. Credentials are
// taken from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
// A non-empty endpoint selects path-style addressing for S3-compatible stores.
func NewS3Client(region, endpoint string) *s3.Client {
	opts := s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "Environment",
			}, nil
		}),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

var _ Sink = (*S3Archiver)(nil)
