// Package registry maps source names to sources.
package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/atikulmunna/quill/internal/source"
)

// RootName is the name of the distinguished, non-removable source.
const RootName = "root"

var (
	// ErrExists is returned when registering a name that is already taken.
	ErrExists = errors.New("source already registered")
	// ErrProtected is returned when unregistering the root source.
	ErrProtected = errors.New("root source cannot be unregistered")
	// ErrNotFound is returned when unregistering an unknown name.
	ErrNotFound = errors.New("source not registered")
	// ErrEmptyName is returned when registering a source without a name;
	// the empty name always resolves to root.
	ErrEmptyName = errors.New("source name is empty")
)

// Registry is a concurrency-safe name to Source mapping that always holds a
// root entry.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*source.Source
	root    *source.Source
}

// New returns a registry seeded with the root source.
func New() *Registry {
	root := source.New(RootName, source.WithTemplate(source.DefaultRootTemplate))
	return &Registry{
		sources: map[string]*source.Source{RootName: root},
		root:    root,
	}
}

// Root returns the root source.
func (r *Registry) Root() *source.Source {
	return r.root
}

// Resolve returns the source registered under name, creating and inserting a
// default source if there is none. Concurrent callers resolving the same
// unseen name all receive the same instance. An empty name resolves to root.
func (r *Registry) Resolve(name string) *source.Source {
	if name == "" {
		return r.root
	}
	if s, ok := r.Lookup(name); ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[name]; ok {
		return s
	}
	s := source.New(name)
	r.sources[name] = s
	return s
}

// Lookup returns the source registered under name without creating one.
func (r *Registry) Lookup(name string) (*source.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Register inserts s. An existing entry with the same name is kept and
// ErrExists is returned.
func (r *Registry) Register(s *source.Source) error {
	if s == nil {
		return errors.New("register nil source")
	}
	if s.Name() == "" {
		return errors.Wrap(ErrEmptyName, "register")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[s.Name()]; ok {
		return errors.Wrapf(ErrExists, "register %q", s.Name())
	}
	r.sources[s.Name()] = s
	return nil
}

// Unregister removes the source registered under name.
func (r *Registry) Unregister(name string) error {
	if name == RootName {
		return ErrProtected
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[name]; !ok {
		return errors.Wrapf(ErrNotFound, "unregister %q", name)
	}
	delete(r.sources, name)
	return nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered sources, root included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
