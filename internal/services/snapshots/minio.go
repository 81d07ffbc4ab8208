package snapshots

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"firewatch-worker-go/internal/config"
)

// MinioStore keeps snapshot objects in one bucket
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL *url.URL
	useSSL  bool
}

func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY / MINIO_SECRET_KEY not configured")
	}

	cli, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cli.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
		exists, errExists := cli.BucketExists(ctx, cfg.MinioBucket)
		if errExists != nil || !exists {
			return nil, fmt.Errorf("failed to create or verify bucket %s: %w", cfg.MinioBucket, err)
		}
	}

	var base *url.URL
	if cfg.MinioPublicURL != "" {
		base, err = url.Parse(cfg.MinioPublicURL)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_PUBLIC_URL: %w", err)
		}
	}

	log.Info().Str("endpoint", cfg.MinioEndpoint).Str("bucket", cfg.MinioBucket).Msg("MinIO snapshot store ready")

	return &MinioStore{
		client:  cli,
		bucket:  cfg.MinioBucket,
		baseURL: base,
		useSSL:  cfg.MinioUseSSL,
	}, nil
}

// SaveSnapshot uploads data under key and returns the object's URL
func (s *MinioStore) SaveSnapshot(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	return objectURL(s.baseURL, s.useSSL, s.client.EndpointURL().Host, s.bucket, key), nil
}

// objectURL prefers the public base URL; otherwise it points at the S3 endpoint
func objectURL(base *url.URL, useSSL bool, host, bucket, key string) string {
	if base != nil {
		u := *base
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + key
		return u.String()
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, host, bucket, key)
}
