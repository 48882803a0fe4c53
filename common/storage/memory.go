package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDriver is an in-memory disk used by tests and ephemeral runs
type MemoryDriver struct {
	mu         sync.RWMutex
	files      map[string][]byte
	visibility Visibility
	secret     string
}

// NewMemoryDriver creates an empty in-memory disk
func NewMemoryDriver(visibility Visibility) *MemoryDriver {
	if visibility == "" {
		visibility = VisibilityPublic
	}
	return &MemoryDriver{
		files:      make(map[string][]byte),
		visibility: visibility,
		secret:     "memory-secret",
	}
}

// Put stores a copy of data at key
func (d *MemoryDriver) Put(ctx context.Context, key string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	d.files[key] = buf
	return nil
}

// Get retrieves the data stored at key
func (d *MemoryDriver) Get(ctx context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, nil
}

// Delete removes key. Missing keys are not an error.
func (d *MemoryDriver) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, key)
	return nil
}

// Exists reports whether key is present
func (d *MemoryDriver) Exists(ctx context.Context, key string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.files[key]
	return ok, nil
}

// GetURL returns a memory:// URL for key
func (d *MemoryDriver) GetURL(ctx context.Context, key string) (string, error) {
	return "memory://" + key, nil
}

// GetSignedURL returns a signed memory:// URL for key
func (d *MemoryDriver) GetSignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error) {
	return signURL("memory:/", key, d.secret, opts), nil
}

// GetVisibility returns the disk-wide visibility
func (d *MemoryDriver) GetVisibility(ctx context.Context, key string) (Visibility, error) {
	return d.visibility, nil
}

// Len reports the number of stored files
func (d *MemoryDriver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.files)
}

// Keys returns the stored keys in no particular order
func (d *MemoryDriver) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, 0, len(d.files))
	for k := range d.files {
		keys = append(keys, k)
	}
	return keys
}
