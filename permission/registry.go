package permission

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("registry frozen")
	// ErrUnknownPermission is returned by Validate for names that were never registered.
	ErrUnknownPermission = errors.New("unknown permission")
)

// Registry is the set of authority names an issuer may grant.
// Register everything, call Freeze, then share it; reads are safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	names  map[string]struct{}
	order  []string
	frozen bool
}

// NewRegistry returns an empty, unfrozen Registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// NewCatalogRegistry returns a frozen Registry holding every catalog
// permission, optionally including the deprecated ones.
func NewCatalogRegistry(includeDeprecated bool) *Registry {
	r := NewRegistry()
	perms := All(includeDeprecated)
	slices.Sort(perms)
	for _, p := range perms {
		_ = r.Register(string(p))
	}
	r.Freeze()
	return r
}

// Register adds name. Names must be non-empty, must not contain the claim
// delimiter and must not already be registered.
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if name == "" {
		return errors.New("permission name cannot be empty")
	}
	if strings.Contains(name, ",") {
		return fmt.Errorf("permission name %q contains ','", name)
	}
	if _, exists := r.names[name]; exists {
		return errors.New("permission already registered")
	}

	r.names[name] = struct{}{}
	r.order = append(r.order, name)
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Validate returns an error wrapping ErrUnknownPermission for the first
// name that is not registered.
func (r *Registry) Validate(names []string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if _, ok := r.names[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPermission, name)
		}
	}
	return nil
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
