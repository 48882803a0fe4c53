package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSConfig configures a local filesystem disk
type FSConfig struct {
	// Root directory all keys resolve under
	Root string

	// BaseURL is the public prefix files are served from
	BaseURL string

	// Visibility applies to every file on this disk
	Visibility Visibility

	// Secret signs URLs for private files
	Secret string
}

// FSDriver stores files on the local filesystem. Keys may contain
// slashes; they become subdirectories under the root.
type FSDriver struct {
	cfg FSConfig
}

// NewFSDriver creates a filesystem disk rooted at cfg.Root
func NewFSDriver(cfg FSConfig) (*FSDriver, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("fs driver requires a root directory")
	}
	if cfg.Visibility == "" {
		cfg.Visibility = VisibilityPublic
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FSDriver{cfg: cfg}, nil
}

// resolve maps a key to a path under the root, rejecting traversal
func (d *FSDriver) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(d.cfg.Root, clean), nil
}

// Put writes data at key, creating parent directories as needed
func (d *FSDriver) Put(ctx context.Context, key string, data []byte) error {
	path, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get reads the file at key
func (d *FSDriver) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := d.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the file at key. Deleting a missing file is a no-op.
func (d *FSDriver) Delete(ctx context.Context, key string) error {
	path, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a file exists at key
func (d *FSDriver) Exists(ctx context.Context, key string) (bool, error) {
	path, err := d.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return true, nil
}

// GetURL returns the plain URL for key
func (d *FSDriver) GetURL(ctx context.Context, key string) (string, error) {
	return fmt.Sprintf("%s/%s", strings.TrimRight(d.cfg.BaseURL, "/"), key), nil
}

// GetSignedURL returns an expiring signed URL for key
func (d *FSDriver) GetSignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error) {
	return signURL(strings.TrimRight(d.cfg.BaseURL, "/"), key, d.cfg.Secret, opts), nil
}

// GetVisibility returns the disk-wide visibility
func (d *FSDriver) GetVisibility(ctx context.Context, key string) (Visibility, error) {
	return d.cfg.Visibility, nil
}
