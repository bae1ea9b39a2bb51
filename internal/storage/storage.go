// Package storage keeps generated logo images in object storage and hands
// back the public URL stored on each logo.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/raphaelgruber/logoforge/internal/config"
)

// ErrNotFound is returned by Download for missing objects.
var ErrNotFound = errors.New("object not found")

// Store uploads and downloads image objects.
type Store interface {
	// Upload writes data at objectPath and returns its public URL.
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	// Download reads the object at objectPath.
	Download(ctx context.Context, objectPath string) ([]byte, error)
}

// ObjectPath is where the original image of a logo lives.
func ObjectPath(projectID, logoID string) string {
	return path.Join(projectID, logoID, "original.png")
}

// New creates the configured store.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Storage {
	case config.StorageGCS:
		return NewGCS(ctx, cfg.GCSBucket, "")
	case config.StorageLocal:
		return NewLocal(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage)
	}
}
