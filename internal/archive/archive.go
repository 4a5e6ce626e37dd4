package archive

import (
	"context"
	"errors"
	"strings"

	"github.com/ecoforge/apiserver/config"
)

// Backend stores classified images across object-storage providers.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Bucket() string
}

// Archive wraps a backend with a stable API.
type Archive struct {
	backend Backend
}

// New constructs an Archive for the provided backend.
func New(backend Backend) *Archive {
	return &Archive{backend: backend}
}

// NewFromConfig selects a backend by cfg.Archive. An empty backend name
// yields (nil, nil): the caller skips archiving.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Archive, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Archive)) {
	case "":
		return nil, nil
	case "minio":
		backend, err := NewMinioBackend(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case "gcs":
		backend, err := NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	default:
		return nil, errors.New("unknown archive backend: " + cfg.Archive)
	}
}

// EnsureBucket ensures the configured bucket exists.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	return a.backend.EnsureBucket(ctx)
}

// Save stores one image under the given key.
func (a *Archive) Save(ctx context.Context, key string, data []byte, contentType string) error {
	return a.backend.Save(ctx, key, data, contentType)
}

// Bucket returns the configured bucket name.
func (a *Archive) Bucket() string {
	return a.backend.Bucket()
}
