package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ThiagoRGoveia/building-metadata/internal/config"
)

// Publisher uploads a finished aggregate so consumers can fetch it remotely.
type Publisher interface {
	Publish(ctx context.Context, content []byte) (string, error)
}

// MinioPublisher stores the aggregate in an S3 compatible bucket.
type MinioPublisher struct {
	client *minio.Client
	bucket string
	key    string
	region string
}

func NewMinioPublisher(cfg config.ObjectStoreConfig) (*MinioPublisher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	if cfg.ObjectKey == "" {
		return nil, fmt.Errorf("object store key is required")
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid object store endpoint %q: %w", cfg.Endpoint, err)
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}

	useSSL := cfg.UseSSL
	if u.Scheme == "https" {
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &MinioPublisher{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.ObjectKey,
		region: cfg.Region,
	}, nil
}

// Publish makes sure the bucket exists and uploads content under the
// configured key. It returns the object location as bucket/key.
func (p *MinioPublisher) Publish(ctx context.Context, content []byte) (string, error) {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
			return "", fmt.Errorf("failed to create bucket %s: %w", p.bucket, err)
		}
	}

	_, err = p.client.PutObject(ctx, p.bucket, p.key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", p.bucket, p.key, err)
	}

	return p.bucket + "/" + p.key, nil
}
