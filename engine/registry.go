// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

// Factory creates an engine. args carries engine specific key=value
// parameters from the launcher; factories reject keys they do not know.
type Factory func(args map[string]string) (Facade, error)

// Entry is a registered engine.
type Entry struct {
	// Name is the unique identifier for this engine.
	Name string

	// Priority determines selection order (higher = preferred). Native
	// engines register above 50, software engines below.
	Priority int

	Factory Factory

	// Available reports if the engine can run on this system.
	Available func() bool
}

var globalRegistry = NewRegistry()

// Registry holds the engines a launcher can choose from.
//
// Engines register themselves from an init function:
//
//	func init() {
//	    engine.Register("gles", 100, newGLES, glesAvailable)
//	}
//
// and launchers select one by name, or the best available:
//
//	eng, err := engine.New("", nil)
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry. Most code uses the global one.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds an engine to the global registry. A nil available means
// always available. Registering an existing name replaces it.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Engines returns the available engines of the global registry, best first.
func Engines() []string {
	return globalRegistry.Available()
}

// New creates an engine from the global registry. An empty name selects
// the best available engine.
func New(name string, args map[string]string) (Facade, error) {
	return globalRegistry.New(name, args)
}

// Register adds an engine to r.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &Entry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes an engine.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns every registered name, best first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Available returns the names of available engines, best first.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(true)
}

// Get returns a copy of the entry for name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// New creates the named engine, or the best available one that constructs
// without error when name is empty.
func (r *Registry) New(name string, args map[string]string) (Facade, error) {
	if name != "" {
		return r.newByName(name, args)
	}

	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	var errs []error
	for _, n := range names {
		f, err := r.newByName(n, args)
		if err == nil {
			return f, nil
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, ErrNoEngine
}

func (r *Registry) newByName(name string, args map[string]string) (Facade, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	if !e.Available() {
		return nil, &UnavailableError{Name: name}
	}
	return e.Factory(args)
}

// sortedNames must be called with the lock held. Equal priorities sort by
// name.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *Entry) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return strings.Compare(a.Name, b.Name)
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Errors.
var (
	// ErrNoEngine is returned when no engine is registered or available.
	ErrNoEngine = errors.New("engine: no engine available")
)

// NotFoundError indicates a named engine is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "engine: not found: " + e.Name
}

// UnavailableError indicates an engine is registered but cannot run here.
type UnavailableError struct {
	Name string
}

func (e *UnavailableError) Error() string {
	return "engine: unavailable: " + e.Name
}
