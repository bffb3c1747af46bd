package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains object storage abstractions for lesion images
// (S3-compatible, MinIO-backed) and the fetcher used to read them back through
// signed URLs. Implementations avoid local disk and stream where possible.

var (
	// ErrTooLarge is returned when an object exceeds the configured size limit.
	ErrTooLarge = errors.New("object exceeds size limit")
	// ErrFetch is returned when an object cannot be read back from its URL.
	ErrFetch = errors.New("fetch object")
)

// MaxPresignExpiry is the longest lifetime S3 accepts for a signed URL.
const MaxPresignExpiry = 7 * 24 * time.Hour

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object storage collaborator.
type Storage interface {
	// EnsureBucket creates the bucket when it does not exist yet.
	EnsureBucket(ctx context.Context) error
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Fetcher downloads image bytes referenced by a URL, typically a signed URL
// produced by PresignGet.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (data []byte, contentType string, err error)
}
