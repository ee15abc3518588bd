// ABOUTME: S3 compatible sharing provider using minio-go
// ABOUTME: Uploads the export and hands out a presigned download URL

package share

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPresignExpiry is how long presigned share URLs stay valid.
const DefaultPresignExpiry = 24 * time.Hour

// S3Config configures an S3Sharer.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Expiry    time.Duration
}

// S3Sharer uploads shared files to an S3 compatible bucket.
type S3Sharer struct {
	client *minio.Client
	cfg    S3Config
}

// Compile-time check that S3Sharer implements Sharer.
var _ Sharer = (*S3Sharer)(nil)

// NewS3Sharer creates a sharer for the configured bucket.
// The bucket is not contacted until the first Share.
func NewS3Sharer(cfg S3Config) (*S3Sharer, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 share requires endpoint and bucket")
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultPresignExpiry
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &S3Sharer{client: client, cfg: cfg}, nil
}

// ObjectName returns the object key used for name.
func (s *S3Sharer) ObjectName(name string) string {
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(s.cfg.Prefix, name)
}

// Share uploads data, overwriting any object of the same name, and returns a presigned GET URL.
func (s *S3Sharer) Share(ctx context.Context, name string, data []byte) (Handle, error) {
	if err := validateName(name); err != nil {
		return Handle{}, err
	}
	object := s.ObjectName(name)

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return Handle{}, fmt.Errorf("upload %s: %w", object, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, object, s.cfg.Expiry, nil)
	if err != nil {
		return Handle{}, fmt.Errorf("presign %s: %w", object, err)
	}
	return Handle{URI: u.String()}, nil
}
