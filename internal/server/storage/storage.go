// Package storage abstracts the durable blob store holding uploaded file
// bytes. Two implementations exist: an S3-compatible backend and an
// in-process memory backend that serves downloads as data URLs.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrPresignUnsupported is returned by backends that cannot hand out
// presigned upload URLs (the memory backend accepts direct uploads only).
var ErrPresignUnsupported = errors.New("presigned upload not supported by this backend")

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is the backing-store contract consumed by the file service.
// Implementations must be safe for concurrent use.
type ObjectStorage interface {
	// Put writes data under key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// PresignPut returns a time-limited URL authorizing one PUT of the given
	// content type to key. No bytes move through the server.
	PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)

	// PresignGet returns a time-limited URL authorizing one GET of key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// List enumerates every object under prefix, following pagination until
	// the listing is exhausted.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
