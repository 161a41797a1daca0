package session

import (
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

// Factory builds the state of a new session.
type Factory[W any] func(key string) (W, error)

type entry[W any] struct {
	value    W
	lastSeen time.Time
}

// Registry keeps one workspace per session key and evicts idle ones.
type Registry[W any] struct {
	mu      sync.Mutex
	factory Factory[W]
	idle    time.Duration
	now     func() time.Time
	entries map[string]*entry[W]
}

// NewRegistry builds a registry. A non-positive idle lifetime disables eviction.
func NewRegistry[W any](factory Factory[W], idle time.Duration) (*Registry[W], error) {
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session factory is required")
	}
	return &Registry[W]{
		factory: factory,
		idle:    idle,
		now:     time.Now,
		entries: map[string]*entry[W]{},
	}, nil
}

// Workspace returns the state for key, creating it on first use.
func (r *Registry[W]) Workspace(key string) (W, error) {
	var zero W
	key = strings.TrimSpace(key)
	if key == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "session key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[key]; ok {
		e.lastSeen = now
		return e.value, nil
	}
	value, err := r.factory(key)
	if err != nil {
		return zero, err
	}
	r.entries[key] = &entry[W]{value: value, lastSeen: now}
	return value, nil
}

// Drop forgets the session state for key.
func (r *Registry[W]) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, strings.TrimSpace(key))
}

// Sweep evicts sessions idle for longer than the configured lifetime and returns how many were removed.
func (r *Registry[W]) Sweep() int {
	if r.idle <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	removed := 0
	for key, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (r *Registry[W]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
