// Package source loads the raw bytes of an input location.
//
// A location is either a local path, which is memory-mapped, or an object
// reference of the form s3://bucket/key or minio://bucket/key. Inputs whose
// name ends in .gz, .zst or .lz4 are decompressed on the way in.
package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"xpug.it/packscore/internal/codec"
)

// Fetcher retrieves one object from a bucket-style store.
//
// Implementations return a *record.FileNotFoundError when the object does not
// exist.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Options configures the remote stores.
type Options struct {
	S3    S3Options
	MinIO MinIOOptions

	// Fetchers overrides the store used for a scheme ("s3", "minio").
	Fetchers map[string]Fetcher
}

// Input is a loaded location. Bytes stays valid until Close.
type Input struct {
	Location string
	Format   codec.Format
	data     []byte
	release  func() error
}

// Bytes returns the decoded contents.
func (in *Input) Bytes() []byte { return in.data }

// Close releases the underlying mapping, if any. It is safe to call twice.
func (in *Input) Close() error {
	if in.release == nil {
		return nil
	}
	release := in.release
	in.release = nil
	in.data = nil
	return release()
}

// Open loads location.
func Open(ctx context.Context, location string, opts Options) (*Input, error) {
	scheme, bucket, key, err := parseLocation(location)
	if err != nil {
		return nil, err
	}
	format := codec.Detect(location)

	if scheme == "" {
		return openLocal(location, format)
	}

	fetcher, err := opts.fetcher(ctx, scheme)
	if err != nil {
		return nil, err
	}
	body, err := fetcher.Fetch(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := codec.ReadAll(format, body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return &Input{Location: location, Format: format, data: data}, nil
}

func (o Options) fetcher(ctx context.Context, scheme string) (Fetcher, error) {
	if f, ok := o.Fetchers[scheme]; ok {
		return f, nil
	}
	switch scheme {
	case "s3":
		f, err := NewS3Fetcher(ctx, o.S3)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "minio":
		f, err := NewMinIOFetcher(o.MinIO)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported location scheme %q", scheme)
}

// parseLocation splits scheme://bucket/key. Plain paths yield an empty scheme.
func parseLocation(location string) (scheme, bucket, key string, err error) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return "", "", "", nil
	}
	scheme = strings.ToLower(scheme)
	if scheme == "file" {
		return "", "", "", fmt.Errorf("use a plain path instead of %q", location)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", "", fmt.Errorf("location %q: want %s://bucket/key", location, scheme)
	}
	return scheme, bucket, key, nil
}
