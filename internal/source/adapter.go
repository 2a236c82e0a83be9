// Package source defines the adapter capability for external business
// data providers and a registry keyed by adapter name, so adding a
// provider never touches a dispatch switch.
package source

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

// Query describes one lookup against an external source.
type Query struct {
	Name       string // business name, display form
	UBI        string // state business identifier, when known
	Zip        string
	Limit      int
	ActiveOnly bool
}

// Adapter fetches raw external records and shapes them into
// EnrichmentResults keyed by the directory identity scheme.
type Adapter interface {
	Name() string
	Lookup(ctx context.Context, q Query) ([]model.EnrichmentResult, error)
}

// Registry is a lookup table of adapters by name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds an adapter. Re-registering a name replaces the
// previous adapter.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, eris.Errorf("source: unknown adapter %q", name)
	}
	return a, nil
}

// Names lists registered adapter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
