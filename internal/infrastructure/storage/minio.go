package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioAPI is the slice of the MinIO client the store needs; it exists so
// tests can run without a real object-store server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// MinioConfig captures the settings for the object-store adapter.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base the bucket is served
	// from, e.g. "https://assets.example.com".
	PublicURL string
}

// MinioStore persists image blobs in an S3-compatible bucket.
type MinioStore struct {
	api       minioAPI
	bucket    string
	publicURL string
}

// NewMinioStore dials the object store and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return newMinioStore(ctx, client, cfg.Bucket, cfg.PublicURL)
}

func newMinioStore(ctx context.Context, api minioAPI, bucket, publicURL string) (*MinioStore, error) {
	s := &MinioStore{
		api:       api,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}

	exists, err := s.api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return s, nil
}

// Store validates the blob, then uploads it under a random key.
func (s *MinioStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	ext, err := validateImage(len(data), contentType)
	if err != nil {
		return "", err
	}

	key := uuid.NewString() + ext
	_, err = s.api.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return key, nil
}

// Delete removes the blob. Deleting an absent key is not an error.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// ResolveURL maps a key to its public bucket URL. Pure and deterministic.
func (s *MinioStore) ResolveURL(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}
