// Package storage defines the disk abstraction that attachments are
// persisted against. A driver only needs seven operations; every
// implementation must keep each of them safe to retry.
package storage

import (
	"context"
	"errors"
	"time"
)

// Visibility of a stored file, decides plain vs signed URLs
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ErrNotFound is returned when a key does not exist on the disk
var ErrNotFound = errors.New("storage: key not found")

// SignedURLOptions tweak signed-URL generation for private files
type SignedURLOptions struct {
	// How long the signed URL stays valid. Zero means driver default.
	ExpiresIn time.Duration

	// Optional response header overrides encoded into the URL
	ContentType        string
	ContentDisposition string
}

// Driver is the contract a storage backend must satisfy
type Driver interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(ctx context.Context, key string) (string, error)
	GetSignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error)
	GetVisibility(ctx context.Context, key string) (Visibility, error)
}
