// Package storage stores rendered artifacts in an object store bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrMissingSigner indicates signed URL support is not configured.
	ErrMissingSigner = errors.New("storage: signed url signer not configured")
	// ErrBucketRequired is returned when a driver is built without a bucket.
	ErrBucketRequired = errors.New("storage: bucket is required")
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("storage: object not found")
)

// Storage is a bucket-scoped object store.
type Storage interface {
	io.Closer

	// Put stores the object under key and returns its metadata.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// SignedURL returns a time limited download URL.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
}
