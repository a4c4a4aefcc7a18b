package proxy

import (
	"reflect"
	"sync"

	"github.com/google/uuid"

	"aspectkit/pkg/advisor"
	"aspectkit/pkg/metadata"
	"aspectkit/pkg/pointcut"
	"aspectkit/pkg/registry"
)

// Factory holds a target, its declared interfaces, a reference to the
// shared advisor registry advisors installed through this factory are
// appended to, and the policy flags that decide which interception
// Mode Proxy() builds. Mutators refuse once Frozen is set.
type Factory struct {
	mu sync.Mutex

	target     any
	targetType reflect.Type
	beanName   string

	registry        *registry.Registry
	pointcuts       *pointcut.Registry
	metadata        *metadata.Table
	advisorRegistry *advisor.Registry
	slot            *ExposedSlot

	addedInterfaces []reflect.Type

	useClassProxy                        bool
	useAspectJStyle                      bool
	frozen                                bool
	exposed                               bool
	routeAspectJThroughPointcutEvaluator bool

	current *Proxy
}

// NewFactory builds a ProxyFactory over target, bound to the shared
// advice registry, named-pointcut registry, metadata table, advisor
// registry, and exposed proxy slot of the owning weaver.
func NewFactory(target any, reg *registry.Registry, pointcuts *pointcut.Registry, md *metadata.Table, slot *ExposedSlot, advisors *advisor.Registry) *Factory {
	return &Factory{
		target:          target,
		targetType:      reflect.TypeOf(target),
		registry:        reg,
		pointcuts:       pointcuts,
		metadata:        md,
		advisorRegistry: advisors,
		slot:            slot,
	}
}

// SetBeanName sets the bean() primitive's candidate name for this target.
func (f *Factory) SetBeanName(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return &PolicyViolationError{Op: "SetBeanName"}
	}
	f.beanName = name
	return nil
}

// SetUseClassProxy toggles the prototype-overlay interception mode.
func (f *Factory) SetUseClassProxy(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return &PolicyViolationError{Op: "SetUseClassProxy"}
	}
	f.useClassProxy = v
	return nil
}

// SetUseAspectJStyle toggles the containment-dispatch interception mode.
func (f *Factory) SetUseAspectJStyle(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return &PolicyViolationError{Op: "SetUseAspectJStyle"}
	}
	f.useAspectJStyle = v
	return nil
}

// SetRouteAspectJThroughPointcutEvaluator is an escape hatch: when set,
// ModeAspectJ evaluates the real pointcut expression instead of doing
// substring containment.
func (f *Factory) SetRouteAspectJThroughPointcutEvaluator(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return &PolicyViolationError{Op: "SetRouteAspectJThroughPointcutEvaluator"}
	}
	f.routeAspectJThroughPointcutEvaluator = v
	return nil
}

// SetExposed toggles whether produced proxies publish themselves to the
// exposed-proxy slot for the duration of each call.
func (f *Factory) SetExposed(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return &PolicyViolationError{Op: "SetExposed"}
	}
	f.exposed = v
	return nil
}

// Frozen reports whether the factory currently refuses mutators.
func (f *Factory) Frozen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frozen
}

// Freeze raises the frozen flag; this is the only mutator that always
// succeeds regardless of current state.
func (f *Factory) Freeze() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frozen = true
}

// AddAdvisor installs an advisor consulted for call-replace semantics.
// It is appended to the shared, target-type-keyed advisor registry, so
// every live proxy over this factory's target type — not just the one
// this factory produces — consults it.
func (f *Factory) AddAdvisor(a *advisor.Advisor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return &PolicyViolationError{Op: "AddAdvisor"}
	}
	f.advisorRegistry.Append(f.targetType, a)
	return nil
}

// AddInterface records a declared interface. This runtime has no way to
// synthesize an implementation of it at call time (Go does not support
// runtime interface synthesis); the set is retained purely so Proxy()
// can decide between ModeClassProxy (no interfaces declared) and
// ModeTransparent (interfaces declared).
func (f *Factory) AddInterface(iface reflect.Type) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return &PolicyViolationError{Op: "AddInterface"}
	}
	f.addedInterfaces = append(f.addedInterfaces, iface)
	return nil
}

// Proxy builds (or returns the already-built) interception handle for
// this factory's target, selecting a Mode by precedence: AspectJ style
// first, then class-proxy (or no declared interfaces), else a revocable
// transparent proxy.
func (f *Factory) Proxy() *Proxy {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		return f.current
	}

	mode := ModeTransparent
	switch {
	case f.useAspectJStyle:
		mode = ModeAspectJ
	case f.useClassProxy || len(f.addedInterfaces) == 0:
		mode = ModeClassProxy
	}

	p := &Proxy{
		ID:                           uuid.NewString(),
		Target:                       f.target,
		TargetType:                   f.targetType,
		mode:                         mode,
		exposed:                      f.exposed,
		registry:                     f.registry,
		pointcuts:                    f.pointcuts,
		metadata:                     f.metadata,
		advisorRegistry:              f.advisorRegistry,
		beanName:                     f.beanName,
		slot:                         f.slot,
		routeAspectJThroughEvaluator: f.routeAspectJThroughPointcutEvaluator,
	}
	f.current = p
	return p
}

// Dispose revokes the produced proxy (if any), clears the declared
// interface list, and resets policy flags. The shared advisor registry
// is owned and cleared by the Weaver, not by an individual factory.
func (f *Factory) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Dispose()
		f.current = nil
	}
	f.addedInterfaces = nil
	f.useClassProxy = false
	f.useAspectJStyle = false
	f.frozen = false
	f.exposed = false
	f.routeAspectJThroughPointcutEvaluator = false
}
