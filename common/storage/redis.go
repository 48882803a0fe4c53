package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redisWrapper "github.com/mediaforge/renditions/common/redis"
)

// RedisConfig configures the Redis-backed disk
type RedisConfig struct {
	// Prefix namespaces blob keys, e.g. "blob:"
	Prefix string

	// BaseURL is the prefix the serving layer exposes blobs under
	BaseURL string

	Visibility Visibility
	Secret     string
}

// RedisDriver stores rendition files as Redis values. Useful for
// small deployments and tests where no object store is available; blobs
// are stored without expiry so they survive until deleted.
type RedisDriver struct {
	client *redisWrapper.Client
	cfg    RedisConfig
}

// NewRedisDriver creates a Redis disk over the shared client wrapper
func NewRedisDriver(client *redisWrapper.Client, cfg RedisConfig) *RedisDriver {
	if cfg.Prefix == "" {
		cfg.Prefix = "blob:"
	}
	if cfg.Visibility == "" {
		cfg.Visibility = VisibilityPrivate
	}
	return &RedisDriver{client: client, cfg: cfg}
}

func (d *RedisDriver) redisKey(key string) string {
	return d.cfg.Prefix + key
}

// Put stores data under the prefixed key with no expiry
func (d *RedisDriver) Put(ctx context.Context, key string, data []byte) error {
	return d.client.SetWithExpiry(ctx, d.redisKey(key), data, 0)
}

// Get retrieves the blob stored at key
func (d *RedisDriver) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := d.client.Get(ctx, d.redisKey(key))
	if errors.Is(err, redisWrapper.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

// Delete removes the blob at key. Missing keys are not an error.
func (d *RedisDriver) Delete(ctx context.Context, key string) error {
	return d.client.Delete(ctx, d.redisKey(key))
}

// Exists reports whether a blob exists at key
func (d *RedisDriver) Exists(ctx context.Context, key string) (bool, error) {
	return d.client.Exists(ctx, d.redisKey(key))
}

// GetURL returns the plain URL for key
func (d *RedisDriver) GetURL(ctx context.Context, key string) (string, error) {
	return fmt.Sprintf("%s/%s", strings.TrimRight(d.cfg.BaseURL, "/"), key), nil
}

// GetSignedURL returns an expiring signed URL for key
func (d *RedisDriver) GetSignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error) {
	return signURL(strings.TrimRight(d.cfg.BaseURL, "/"), key, d.cfg.Secret, opts), nil
}

// GetVisibility returns the disk-wide visibility
func (d *RedisDriver) GetVisibility(ctx context.Context, key string) (Visibility, error) {
	return d.cfg.Visibility, nil
}
