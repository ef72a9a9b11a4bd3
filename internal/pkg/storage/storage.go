// Package storage keeps uploaded blobs (avatars) in an object store. Every
// adapter is bound to one bucket and serves objects back through Get so the
// API can expose them under a single public prefix regardless of backend.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("storage: object not found")

// Object is a stored blob.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Storage stores and fetches objects in one bucket.
type Storage interface {
	io.Closer

	Put(ctx context.Context, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// PublicURL joins base and key with exactly one slash.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL is the inverse of PublicURL. ok is false when url does not
// start with base.
func KeyFromURL(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func readAll(rc io.ReadCloser, maxBytes int64) ([]byte, error) {
	defer rc.Close() //nolint:errcheck // read-only

	return io.ReadAll(io.LimitReader(rc, maxBytes))
}

// maxObjectBytes caps reads so a misconfigured key cannot exhaust memory.
const maxObjectBytes = 16 << 20
