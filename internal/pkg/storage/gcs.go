package storage

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	Bucket        string
	ClientOptions []option.ClientOption
}

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
}

// NewGCS creates a client with opts.ClientOptions.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: gcs bucket is required")
	}

	client, err := gcs.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}

	return &GCSAdapter{client: client, bucket: client.Bucket(opts.Bucket)}, nil
}

func (g *GCSAdapter) Put(ctx context.Context, obj Object) error {
	w := g.bucket.Object(obj.Key).NewWriter(ctx)
	w.ContentType = obj.ContentType

	if _, err := w.Write(obj.Data); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: gcs close: %w", err)
	}
	return nil
}

func (g *GCSAdapter) Get(ctx context.Context, key string) (Object, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("storage: gcs get: %w", err)
	}
	contentType := r.Attrs.ContentType

	data, err := readAll(r, maxObjectBytes)
	if err != nil {
		return Object{}, fmt.Errorf("storage: gcs read: %w", err)
	}

	return Object{Key: key, ContentType: contentType, Data: data}, nil
}

func (g *GCSAdapter) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
