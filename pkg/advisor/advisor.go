// Package advisor implements the Advisor: a pair of one advice
// function and one matcher (a class filter or a method matcher), plus the
// last-execution flag decorators use to detect whether the advisor's
// matcher fired.
package advisor

import (
	"reflect"
	"sync"

	"aspectkit/pkg/joinpoint"
	"aspectkit/pkg/registry"
)

// Unset is the sentinel value Execute returns when neither matcher fires.
var Unset = struct{ unset bool }{unset: true}

// ClassFilter decides whether an advisor applies to an entire type.
type ClassFilter func(t reflect.Type) bool

// MethodMatcher decides whether an advisor applies to one call site.
type MethodMatcher func(method reflect.Value, ownerType reflect.Type, args []any) bool

// Advisor binds one advice function to one pointcut, expressed as either
// a ClassFilter or a MethodMatcher (never both).
type Advisor struct {
	advice registry.Func

	classFilter   ClassFilter
	methodMatcher MethodMatcher

	mu        sync.Mutex
	lastFired bool
}

// NewClassAdvisor builds an advisor whose matcher is a class filter.
func NewClassAdvisor(advice registry.Func, filter ClassFilter) *Advisor {
	return &Advisor{advice: advice, classFilter: filter}
}

// NewMethodAdvisor builds an advisor whose matcher is a method matcher.
func NewMethodAdvisor(advice registry.Func, matcher MethodMatcher) *Advisor {
	return &Advisor{advice: advice, methodMatcher: matcher}
}

// LastFired reports whether the most recent Execute call's matcher fired.
func (a *Advisor) LastFired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFired
}

// Execute clears lastFired, then tries the class
// filter (if any) against the join point's owner type, then the method
// matcher (if any) against its method value/owner type/args, calling the
// advice with the target as receiver on the first match. If neither
// matcher fires, Unset is returned.
func (a *Advisor) Execute(jp *joinpoint.JoinPoint, args ...any) (any, error) {
	a.setFired(false)

	if a.classFilter != nil && a.classFilter(jp.OwnerType()) {
		result, err := a.invoke(jp, args...)
		a.setFired(true)
		return result, err
	}

	if a.methodMatcher != nil && a.methodMatcher(jp.MethodValue(), jp.OwnerType(), jp.Args()) {
		result, err := a.invoke(jp, args...)
		a.setFired(true)
		return result, err
	}

	return Unset, nil
}

func (a *Advisor) invoke(jp *joinpoint.JoinPoint, args ...any) (any, error) {
	return a.advice(jp, args...)
}

func (a *Advisor) setFired(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastFired = v
}
