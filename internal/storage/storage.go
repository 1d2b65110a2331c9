package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"imaginarium/internal/config"
)

// Object folders.
const (
	FolderImages     = "images"
	FolderThumbnails = "thumbnails"
)

const (
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"

	// Rendered objects never change once written.
	immutableCacheControl = "public, max-age=31536000, immutable"
)

// ObjectStore persists rendered images and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// NewObjectKey builds folder/<unix>-<uuid><ext>.
func NewObjectKey(folder, ext string) string {
	return path.Join(folder, fmt.Sprintf("%d-%s%s", time.Now().Unix(), uuid.NewString(), ext))
}

// New selects the backend named by STORAGE_PROVIDER.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageProvider {
	case "gcs":
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	case "memory":
		return NewMemoryStore("memory://objects"), nil
	case "r2", "":
		return NewR2Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}
