package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/unfit20/unfit20/pkg/config"
	"github.com/unfit20/unfit20/pkg/logging"
	"github.com/unfit20/unfit20/pkg/telemetry"
)

// Store wraps the object store client. Uploaded objects are addressed by
// purpose-namespaced keys and served through stable download URLs.
type Store struct {
	client *minio.Client
	bucket string
	public string
	logger *zap.Logger
}

// New creates a new object store client and ensures the bucket exists
func New(cfg *config.StorageConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	public := strings.TrimSuffix(cfg.PublicURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	logger := logging.WithComponent("object-store")
	logger.Info("Object store initialized", zap.String("bucket", cfg.Bucket))

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		public: public,
		logger: logger,
	}, nil
}

// PostImageKey returns a fresh storage key for a post image
func PostImageKey() string {
	return "post_images/" + uuid.New().String()
}

// ProfileImageKey returns a fresh storage key for a user's profile image
func ProfileImageKey(userID string) string {
	return "profile_images/" + userID + "/" + uuid.New().String()
}

// Put uploads an object and returns its download URL
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "storage.put")
	defer span.End()

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// URL returns the download URL for a stored object
func (s *Store) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.public, s.bucket, key)
}

// Remove deletes an object by key
func (s *Store) Remove(ctx context.Context, key string) error {
	ctx, span := telemetry.StartSpan(ctx, "storage.remove")
	defer span.End()

	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// KeyFromURL recovers the storage key from a download URL previously
// returned by URL. Unknown URLs yield an empty key.
func KeyFromURL(url string) string {
	for _, prefix := range []string{"post_images/", "profile_images/"} {
		if idx := strings.Index(url, prefix); idx >= 0 {
			return url[idx:]
		}
	}
	return ""
}
