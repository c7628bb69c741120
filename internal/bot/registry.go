package bot

import (
	"slices"
	"sync"
)

// Registry is an ordered set of modules, unique by name.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends m, or replaces the module already registered under its name
// in place.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.modules, func(existing Module) bool {
		return existing.Name() == m.Name()
	})
	if idx >= 0 {
		r.modules[idx] = m
		return
	}
	r.modules = append(r.modules, m)
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.modules)
}

// globalRegistry collects modules that register themselves from init.
var globalRegistry = NewRegistry()

// Register adds m to the modules every new Bot loads.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns the self-registered modules in registration order.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry forgets all self-registered modules. Tests use it to
// start from an empty registry.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
