package advisor

import (
	"reflect"
	"sync"
)

// Registry is a class-keyed store of installed Advisors, mirroring how
// pkg/registry keys advice records by a target's type rather than by
// proxy instance. Every Proxy built over a given target type consults
// the same Registry, so an advisor installed against one proxy fires
// for any other live proxy over that type too.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type][]*Advisor
}

// NewRegistry builds an empty advisor registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[reflect.Type][]*Advisor)}
}

// Append installs a at the end of typ's advisor list.
func (r *Registry) Append(typ reflect.Type, a *Advisor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[typ] = append(r.byType[typ], a)
}

// Get returns a snapshot of typ's installed advisors, in installation
// order.
func (r *Registry) Get(typ reflect.Type) []*Advisor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	advisors := r.byType[typ]
	out := make([]*Advisor, len(advisors))
	copy(out, advisors)
	return out
}

// Clear empties the registry. Called by Weaver.Dispose.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType = make(map[reflect.Type][]*Advisor)
}
