package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/banrai-farm/duriantrack/backend/internal/config"
)

const presignExpiry = 15 * time.Minute

// ErrStorageUnconfigured rejects photo operations when no bucket is set up.
// The rest of the application runs without object storage.
var ErrStorageUnconfigured = errors.New("photos: object storage not configured")

// Store wraps the object-storage bucket holding tree log photos.
type Store struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewStore connects to the configured bucket, creating it when absent.
// Returns (nil, nil) when storage is not configured.
func NewStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		logger.Info("photo bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &Store{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Enabled reports whether uploads can be accepted. Safe on a nil store.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Upload stores a photo under trees/{treeCode}/{uuid}{ext} and returns the
// object key for the tree log's image path.
func (s *Store) Upload(ctx context.Context, treeCode, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageUnconfigured
	}

	extension := strings.ToLower(filepath.Ext(filename))
	objectKey := fmt.Sprintf("trees/%s/%s%s", treeCode, uuid.NewString(), extension)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	s.logger.Debug("photo uploaded", zap.String("object_key", objectKey))
	return objectKey, nil
}

// PresignedURL returns a short-lived GET URL for a stored photo.
func (s *Store) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageUnconfigured
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignExpiry, url.Values{})
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// Remove deletes a stored photo. Missing objects are not an error.
func (s *Store) Remove(ctx context.Context, objectKey string) error {
	if !s.Enabled() {
		return ErrStorageUnconfigured
	}
	return s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}
