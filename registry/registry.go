// Package registry implements the process-wide algorithm lookup: a provider is registered once under both a small numeric id
// and a case-insensitive string id, and can be looked up by either. The
// underlying map is guarded by a sync.RWMutex, so concurrent Register and
// Get calls from independent archive sessions are safe.
package registry

import (
	"strings"
	"sync"

	"github.com/apack/apack/errs"
)

// Registry maps both a numeric id and a case-insensitive string id to a
// provider of type T. The zero value is not usable; construct with New.
type Registry[T any] struct {
	mu        sync.RWMutex
	byNumeric map[uint8]T
	byName    map[string]T
}

// New creates an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		byNumeric: make(map[uint8]T),
		byName:    make(map[string]T),
	}
}

// Register adds provider under numericID and name. Registration is
// idempotent: if either id already has a provider, that slot
// is left unchanged (first registration wins), though the two ids are
// tracked independently so a caller can still fill in a missing slot.
func (r *Registry[T]) Register(numericID uint8, name string, provider T) {
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byNumeric[numericID]; !ok {
		r.byNumeric[numericID] = provider
	}
	if _, ok := r.byName[key]; !ok {
		r.byName[key] = provider
	}
}

// GetByID looks up a provider by its case-insensitive string id.
func (r *Registry[T]) GetByID(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byName[strings.ToLower(name)]

	return v, ok
}

// GetByNumericID looks up a provider by its numeric id.
func (r *Registry[T]) GetByNumericID(id uint8) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byNumeric[id]

	return v, ok
}

// RequireByID looks up a provider by string id, returning errs.ErrNotFound
// if none is registered.
func (r *Registry[T]) RequireByID(name string) (T, error) {
	if v, ok := r.GetByID(name); ok {
		return v, nil
	}

	var zero T

	return zero, errs.ErrNotFound
}

// RequireByNumericID looks up a provider by numeric id, returning
// errs.ErrNotFound if none is registered.
func (r *Registry[T]) RequireByNumericID(id uint8) (T, error) {
	if v, ok := r.GetByNumericID(id); ok {
		return v, nil
	}

	var zero T

	return zero, errs.ErrNotFound
}
