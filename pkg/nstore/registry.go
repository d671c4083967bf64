package nstore

import (
	"fmt"
	"sync"

	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/errs"
)

// Registry maps relation names to their NStore, so callers can look a
// relation up by name instead of threading *NStore values everywhere.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*NStore
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*NStore)}
}

// Register creates and registers a new relation named name with the given
// arity, using (name) as its key prefix. Registering a name twice is an
// error.
func (r *Registry) Register(name string, arity int) (*NStore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[name]; exists {
		return nil, fmt.Errorf("%w: relation %q already registered", errs.ErrIllegalState, name)
	}
	ns, err := New(name, codec.Tuple{codec.String(name)}, arity)
	if err != nil {
		return nil, err
	}
	r.byID[name] = ns
	return ns, nil
}

// Lookup returns the relation registered under name.
func (r *Registry) Lookup(name string) (*NStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.byID[name]
	if !ok {
		return nil, fmt.Errorf("%w: no relation named %q", errs.ErrInvalidInput, name)
	}
	return ns, nil
}

// Names returns the registered relation names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byID))
	for name := range r.byID {
		out = append(out, name)
	}
	return out
}
