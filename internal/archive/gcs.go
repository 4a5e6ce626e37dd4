package archive

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/ecoforge/apiserver/config"
	"google.golang.org/api/option"
)

// GCSBackend wraps the Google Cloud Storage SDK client and bucket name.
type GCSBackend struct {
	client    *storage.Client
	bucket    string
	projectID string
}

// NewGCSBackend constructs a GCS backend from config.
func NewGCSBackend(ctx context.Context, cfg config.GCSConfig) (*GCSBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSBackend{
		client:    client,
		bucket:    cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (g *GCSBackend) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

// Save stores one image under the given key.
func (g *GCSBackend) Save(ctx context.Context, key string, data []byte, contentType string) error {
	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Bucket returns the configured bucket name.
func (g *GCSBackend) Bucket() string {
	return g.bucket
}
