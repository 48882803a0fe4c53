package storage

import (
	"fmt"
	"sync"
)

// Registry holds the named disks configured for the process.
// Attachments pick a disk by name, falling back to the default.
type Registry struct {
	mu          sync.RWMutex
	drives      map[string]Driver
	defaultName string
}

// NewRegistry creates a registry whose Use("") resolves to defaultName
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		drives:      make(map[string]Driver),
		defaultName: defaultName,
	}
}

// Register adds a named disk, replacing any previous driver of that name
func (r *Registry) Register(name string, driver Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drives[name] = driver
}

// Use returns the disk for name, or the default disk when name is empty
func (r *Registry) Use(name string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}

	driver, ok := r.drives[name]
	if !ok {
		return nil, fmt.Errorf("unknown storage disk: %s", name)
	}
	return driver, nil
}

// Default returns the default disk
func (r *Registry) Default() (Driver, error) {
	return r.Use("")
}
