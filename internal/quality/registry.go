package quality

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrNoSuchDetector is returned when a name is not registered.
	ErrNoSuchDetector = errors.New("no such detector")
	// ErrDuplicateDetector is returned when a name is registered twice.
	ErrDuplicateDetector = errors.New("detector already registered")
)

// Registry maps detector names to detectors. It is filled once at startup
// and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	detectors map[string]Detector
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{detectors: make(map[string]Detector)}
}

// Register adds d under name.
func (r *Registry) Register(name string, d Detector) error {
	if name == "" || d == nil {
		return errors.New("detector name and implementation are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.detectors[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDetector, name)
	}
	r.detectors[name] = d
	return nil
}

// Lookup returns the detector registered under name.
func (r *Registry) Lookup(name string) (Detector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchDetector, name)
	}
	return d, nil
}

// Remove unregisters name and reports whether it was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.detectors[name]
	delete(r.detectors, name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.detectors))
	for n := range r.detectors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
