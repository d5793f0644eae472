package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"smallbiznis-backoffice/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("minio.client", fx.Provide(registerClient, NewObjectStore))

// ObjectStore stores public objects such as member avatars.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

func registerClient(c *config.Config) (*minio.Client, error) {
	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.String("bucket", c.Minio.BucketName))
	return client, nil
}

type objectStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewObjectStore(client *minio.Client, c *config.Config) ObjectStore {
	publicURL := c.Minio.PublicURL
	if publicURL == "" {
		scheme := "http"
		if c.Minio.Secure {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, c.Minio.Endpoint)
	}

	return &objectStore{
		client:    client,
		bucket:    c.Minio.BucketName,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *objectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads body under key and returns the object's public URL.
func (s *objectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}
