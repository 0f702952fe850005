package source

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"xpug.it/packscore/internal/record"
)

// MinIOOptions configures the minio:// scheme.
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}

// MinIOFetcher reads objects from MinIO or any S3-compatible endpoint.
type MinIOFetcher struct {
	client *minio.Client
}

// NewMinIOFetcher connects to opts.Endpoint with static credentials.
func NewMinIOFetcher(opts MinIOOptions) (*MinIOFetcher, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio: endpoint not configured")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinIOFetcher{client: client}, nil
}

// Fetch implements Fetcher. The object is stat'ed first so a missing key is
// reported before any bytes are read.
func (f *MinIOFetcher) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if _, err := f.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" || errResp.Code == "NoSuchBucket" {
			return nil, record.NewFileNotFoundError("minio://"+bucket+"/"+key, err)
		}
		return nil, fmt.Errorf("minio stat %s/%s: %w", bucket, key, err)
	}
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %s/%s: %w", bucket, key, err)
	}
	return obj, nil
}
