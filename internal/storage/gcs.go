package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore writes objects to a Google Cloud Storage bucket. Objects are
// expected to be publicly readable through bucket IAM.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore uses the credentials file when given and application default
// credentials otherwise.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing GCS bucket")
	}

	var (
		client *gcs.Client
		err    error
	)
	if credentialsFile == "" {
		client, err = gcs.NewClient(ctx)
	} else {
		client, err = gcs.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	}
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = immutableCacheControl

	if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gcs writer: %w", err)
	}
	return PublicGCSURL(s.bucket, key), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// PublicGCSURL is the public HTTPS address of an object.
func PublicGCSURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
