// Package proxy implements the ProxyFactory and the interception
// pipeline that runs at call time. Go has no dynamic property-trap
// facility, so "wrap with a dispatching proxy / revocable transparent
// proxy / prototype-overlay" collapses to one canonical dispatch
// surface: Proxy.Invoke(methodName, args...). Mode only changes which
// pointcut-matching strategy decides whether an installed advice fires
// for a given call.
package proxy

import (
	"fmt"
	"reflect"
	"sync"

	"aspectkit/pkg/advice"
	"aspectkit/pkg/advisor"
	"aspectkit/pkg/joinpoint"
	"aspectkit/pkg/metadata"
	"aspectkit/pkg/pointcut"
	"aspectkit/pkg/registry"
)

// Mode selects the interception strategy a ProxyFactory builds.
type Mode int

const (
	// ModeTransparent builds a revocable proxy: Dispose causes every
	// subsequent Invoke through it to fail.
	ModeTransparent Mode = iota
	// ModeClassProxy builds a prototype-overlay proxy, used when
	// useClassProxy is set or the target declares no interfaces. Dispose
	// revokes it the same way as every other mode.
	ModeClassProxy
	// ModeAspectJ dispatches by substring containment of the method name
	// in each record's pointcut text, unless routed through the real
	// evaluator.
	ModeAspectJ
)

// PolicyViolationError reports a mutation attempted on a frozen
// ProxyFactory.
type PolicyViolationError struct {
	Op string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("proxy: policy violation: %s on a frozen ProxyFactory", e.Op)
}

// DisposedError is returned by Invoke once the proxy handle has been
// revoked.
type DisposedError struct{ ID string }

func (e *DisposedError) Error() string {
	return fmt.Sprintf("proxy: proxy %s has been disposed", e.ID)
}

// ExposedSlot is the process-wide (here, weaver-scoped: one slot shared
// by every factory a Weaver builds) "current proxy" slot. It is only meaningful for the duration of a synchronous
// call through an exposed proxy; no cross-suspension propagation is
// guaranteed.
type ExposedSlot struct {
	mu      sync.Mutex
	current *Proxy
}

// Current returns the proxy currently executing a call through an
// exposed ProxyFactory, or nil.
func (s *ExposedSlot) Current() *Proxy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *ExposedSlot) publish(p *Proxy) func() {
	s.mu.Lock()
	prev := s.current
	s.current = p
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.current = prev
		s.mu.Unlock()
	}
}

// Proxy is one produced interception handle over a target.
type Proxy struct {
	ID         string
	Target     any
	TargetType reflect.Type

	mode     Mode
	exposed  bool
	disposed bool
	mu       sync.Mutex

	registry        *registry.Registry
	pointcuts       *pointcut.Registry
	metadata        *metadata.Table
	advisorRegistry *advisor.Registry
	beanName        string
	slot            *ExposedSlot

	routeAspectJThroughEvaluator bool
}

// Invoke is the canonical dispatch surface substituting for a literal
// dynamic proxy: it runs the five-kind interception pipeline around the
// target's methodName and returns the original method's results.
func (p *Proxy) Invoke(methodName string, args ...any) ([]any, error) {
	p.mu.Lock()
	disposed := p.disposed
	p.mu.Unlock()
	if disposed {
		return nil, &DisposedError{ID: p.ID}
	}

	var release func()
	if p.exposed {
		release = p.slot.publish(p)
		defer release()
	}

	jp := joinpoint.New(p.Target, methodName, args...)
	cand := p.candidate(methodName, args)

	if err := p.runBefore(jp, cand); err != nil {
		return nil, err
	}

	if replaced, result, err, fired := p.tryAdvisorReplace(jp, args); fired {
		p.runAfter(jp, cand)
		if err != nil {
			p.runAfterThrowing(jp, cand, err)
			return nil, err
		}
		_ = replaced
		p.runAfterReturning(jp, cand, result)
		return toSlice(result), nil
	}

	proceed := func() (any, error) { return p.callOriginal(jp) }
	for _, rec := range p.matchingRecords(registry.Around, cand) {
		next := proceed
		rec := rec
		proceed = func() (any, error) {
			return rec.Advice(jp, advice.ProceedFunc(next))
		}
	}

	result, callErr := proceed()

	defer p.runAfter(jp, cand)

	if callErr != nil {
		p.runAfterThrowing(jp, cand, callErr)
		return nil, callErr
	}

	p.runAfterReturning(jp, cand, result)
	return toSlice(result), nil
}

func (p *Proxy) candidate(methodName string, args []any) pointcut.Candidate {
	method, hasMethod := p.TargetType.MethodByName(methodName)
	return pointcut.Candidate{
		Method:     method,
		HasMethod:  hasMethod,
		OwnerType:  p.TargetType,
		ProxyType:  reflect.TypeOf(p),
		TargetType: p.TargetType,
		Args:       args,
		Bean:       p.beanName,
		Metadata:   p.metadata,
	}
}

// matchingRecords returns the kind's installed records whose pointcut
// fires for cand, under this proxy's mode. ModeAspectJ uses substring
// containment of the method name unless routed through the evaluator;
// the other modes parse and evaluate the pointcut expression against
// the call site, rather than relying on a frozen string comparison.
func (p *Proxy) matchingRecords(kind registry.Kind, cand pointcut.Candidate) []registry.Record {
	all := p.registry.Get(p.TargetType, kind)
	if len(all) == 0 {
		return nil
	}

	var out []registry.Record
	for _, rec := range all {
		if p.mode == ModeAspectJ && !p.routeAspectJThroughEvaluator {
			if cand.HasMethod && containsSubstring(rec.PointcutText, cand.Method.Name) {
				out = append(out, rec)
			}
			continue
		}

		expr, err := pointcut.Parse(rec.PointcutText, p.pointcuts)
		if err != nil {
			continue
		}
		if expr(cand) {
			out = append(out, rec)
		}
	}
	return out
}

func containsSubstring(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func (p *Proxy) runBefore(jp *joinpoint.JoinPoint, cand pointcut.Candidate) error {
	for _, rec := range p.matchingRecords(registry.Before, cand) {
		if _, err := rec.Advice(jp); err != nil {
			return err
		}
	}
	return nil
}

func (p *Proxy) runAfter(jp *joinpoint.JoinPoint, cand pointcut.Candidate) {
	for _, rec := range p.matchingRecords(registry.After, cand) {
		_, _ = rec.Advice(jp)
	}
}

func (p *Proxy) runAfterReturning(jp *joinpoint.JoinPoint, cand pointcut.Candidate, result any) {
	for _, rec := range p.matchingRecords(registry.AfterReturning, cand) {
		_, _ = rec.Advice(jp, result)
	}
}

func (p *Proxy) runAfterThrowing(jp *joinpoint.JoinPoint, cand pointcut.Candidate, err error) {
	for _, rec := range p.matchingRecords(registry.AfterThrowing, cand) {
		_, _ = rec.Advice(jp, err)
	}
}

// tryAdvisorReplace tries, in installation order, the advisors installed
// against this proxy's target type — shared with every other live proxy
// over that type, the same way advice records are class-keyed rather
// than proxy-keyed — and stops at the first whose matcher fires; that
// advisor's result REPLACES the original call.
func (p *Proxy) tryAdvisorReplace(jp *joinpoint.JoinPoint, args []any) (replaced bool, result any, err error, fired bool) {
	if p.advisorRegistry == nil {
		return false, nil, nil, false
	}
	for _, adv := range p.advisorRegistry.Get(p.TargetType) {
		out, advErr := adv.Execute(jp, args...)
		if adv.LastFired() {
			return true, out, advErr, true
		}
	}
	return false, nil, nil, false
}

func (p *Proxy) callOriginal(jp *joinpoint.JoinPoint) (any, error) {
	mv := jp.MethodValue()
	if !mv.IsValid() {
		return nil, fmt.Errorf("proxy: %s has no method %q", p.TargetType, jp.Signature())
	}

	in := make([]reflect.Value, len(jp.Args()))
	for i, a := range jp.Args() {
		if a == nil {
			in[i] = reflect.New(mv.Type().In(i)).Elem()
			continue
		}
		in[i] = reflect.ValueOf(a)
	}

	out := mv.Call(in)
	return splitResultsAndError(out)
}

func splitResultsAndError(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}

	last := out[len(out)-1]
	if last.Type().Implements(errType) {
		var err error
		if !last.IsNil() {
			err, _ = last.Interface().(error)
		}
		vals := out[:len(out)-1]
		return firstOrSlice(vals), err
	}
	return firstOrSlice(out), nil
}

func firstOrSlice(vals []reflect.Value) any {
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return vals[0].Interface()
	default:
		out := make([]any, len(vals))
		for i, v := range vals {
			out[i] = v.Interface()
		}
		return out
	}
}

func toSlice(result any) []any {
	if s, ok := result.([]any); ok {
		return s
	}
	if result == nil {
		return nil
	}
	return []any{result}
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Dispose revokes this proxy handle: any subsequent Invoke fails with
// DisposedError.
func (p *Proxy) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
}
