package upload

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiverPutsObject(t *testing.T) {
	putter := &fakePutter{}
	a := NewS3Archiver(putter, S3Config{Bucket: "diag", Prefix: "chunks/"})
	a.now = func() time.Time { return time.Unix(0, 1700000000000000000) }
	a.SetDeviceID("DEMO-0001")

	require.NoError(t, a.Upload("https://example.com/c", testAuth, testChunk))
	require.NoError(t, a.Upload("https://example.com/c", "", testChunk[:1]))

	require.Len(t, putter.inputs, 2)
	in := putter.inputs[0]
	assert.Equal(t, "diag", aws.ToString(in.Bucket))
	assert.Equal(t, "chunks/DEMO-0001/1700000000000000000-1.bin", aws.ToString(in.Key))
	assert.Equal(t, "chunks/DEMO-0001/1700000000000000000-2.bin", aws.ToString(putter.inputs[1].Key))
	assert.Equal(t, testChunk, putter.bodies[0])
	assert.Equal(t, "Memfault-Project-Key", in.Metadata["auth-header"])
	assert.NotContains(t, in.Metadata, "test_key_12345")
	assert.Equal(t, "https://example.com/c", in.Metadata["data-uri"])
}

func TestS3ArchiverDefaultDevice(t *testing.T) {
	a := NewS3Archiver(&fakePutter{}, S3Config{})
	a.SetDeviceID("")
	assert.Equal(t, "unknown/5-1.bin", a.Key(time.Unix(0, 5), 1))
}

func TestS3ArchiverError(t *testing.T) {
	a := NewS3Archiver(&fakePutter{err: errors.New("access denied")}, S3Config{Bucket: "b"})
	err := a.Upload("u", "", testChunk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client("eu-central-1", "http://localhost:9000")
	require.NotNil(t, c)
	assert.Equal(t, "eu-central-1", c.Options().Region)
	assert.True(t, c.Options().UsePathStyle)
}
