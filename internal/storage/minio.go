package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/krsnavtr-code/gallery/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const (
	bucketCheckTimeout = 5 * time.Second
	defaultMinIOPort   = "9000"
)

// NewMinIOClient builds a client for the blob bucket. The endpoint may carry an
// http:// or https:// scheme, which then decides TLS instead of use_ssl.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	if endpoint == "" {
		return nil, errors.New("minio endpoint is empty")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}
	return client, nil
}

func splitEndpoint(raw string, useSSL bool) (string, bool) {
	endpoint := strings.TrimSpace(raw)
	secure := useSSL
	if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint, secure = rest, true
	} else if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, secure = rest, false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")
	if endpoint != "" && !strings.Contains(endpoint, ":") {
		endpoint += ":" + defaultMinIOPort
	}
	return endpoint, secure
}

// EnsureBucket creates the blob bucket on first start.
func EnsureBucket(ctx context.Context, client *minio.Client, cfg config.MinIOConfig, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("look up bucket %q: %w", cfg.Bucket, err)
	}
	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
	}
	log.Info("blob bucket created", zap.String("bucket", cfg.Bucket), zap.String("region", cfg.Region))
	return nil
}
