package registry

import "sync"

// Registry is the shared namespace modules attach themselves to. It
// replaces the implicit global object of script-tag loading: every
// component receives the registry by reference at construction time,
// and consumers look members up lazily instead of capturing them at
// load time, so registration order within a load group does not matter.
type Registry struct {
	mu      sync.RWMutex
	members map[string]any
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{members: make(map[string]any)}
}

// Register attaches a member under name, replacing any previous value.
func (r *Registry) Register(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[name] = value
}

// Lookup returns the member registered under name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.members[name]
	return v, ok
}

// Names returns the registered member names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	return names
}

// Validate reports which of the expected members are missing. It cannot
// distinguish "module failed to load" from "module loaded but never
// registered"; the caller decides how to report that.
func (r *Registry) Validate(expected []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []string
	for _, name := range expected {
		if _, ok := r.members[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
