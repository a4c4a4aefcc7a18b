// Package weaver implements the Weaver: the top-level coordinator that
// ingests a declarative config, resolves named pointcuts and
// aspect/advisor references, orders aspects, installs proxies over
// target objects, and tears the whole graph down again.
//
// The pointcut registry, live-proxy list, and policy flags are instance
// state on *Weaver (not package-level globals), so tests can build
// independent weavers; the metadata side channel is the explicit
// weak-map-style pkg/metadata table; and aspect/advisor resolution
// prefers a direct Go value (AspectConfig.Target) over the string-keyed
// module-locator fallback (AspectConfig.Ref), which only works through
// an explicit RegisterModule call — there is no dynamic module loader in
// this runtime.
package weaver

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"aspectkit/pkg/advice"
	"aspectkit/pkg/advisor"
	"aspectkit/pkg/joinpoint"
	"aspectkit/pkg/logger"
	"aspectkit/pkg/metadata"
	"aspectkit/pkg/paramnames"
	"aspectkit/pkg/pointcut"
	"aspectkit/pkg/proxy"
	"aspectkit/pkg/registry"
)

// ReferenceError reports a missing pointcut, method, or aspect module
// during boot or weave.
type ReferenceError struct {
	Kind string // "pointcut" | "method" | "module"
	Name string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("weaver: unresolved %s reference %q", e.Kind, e.Name)
}

// PointcutConfig names a pointcut expression for global or aspect-local
// registration.
type PointcutConfig struct {
	ID         string
	Expression string
}

// AdviceConfig describes one installed advice binding. Exactly one of
// the typed Func fields (preferred, direct reference) or Method (string
// fallback, resolved reflectively off the aspect's Target) should be
// set for the advice's Type.
type AdviceConfig struct {
	Type        registry.Kind
	Method      string
	Pointcut    string
	PointcutRef string
	ArgNames    string

	Before         advice.BeforeFunc
	After          advice.AfterFunc
	AfterReturning advice.AfterReturningFunc
	AfterThrowing  advice.AfterThrowingFunc
	Around         advice.AroundFunc
}

// ClassFilterConfig names a type an advisor's class filter accepts.
type ClassFilterConfig struct {
	TypeName string
}

// MethodMatcherConfig names an owner type an advisor's method matcher
// accepts.
type MethodMatcherConfig struct {
	OwnerTypeName string
}

// AdvisorConfig binds one advice to a matcher expressed directly, not
// via a pointcut expression.
type AdvisorConfig struct {
	ID            string
	Target        any
	Ref           string
	Advice        AdviceConfig
	ClassFilter   *ClassFilterConfig
	MethodMatcher *MethodMatcherConfig
}

// AspectConfig is one aspect's configuration entity.
type AspectConfig struct {
	ID     string
	Target any // preferred: direct reference to the aspect's default export
	Ref    string

	Order    int
	HasOrder bool

	Pointcuts []PointcutConfig
	Advices   []AdviceConfig
}

// Config is the top-level configuration consumed by Boot.
type Config struct {
	Pointcuts        []PointcutConfig
	Aspects          []AspectConfig
	Advisors         []AdvisorConfig
	ProxyTargetClass bool
	UseAspectJ       bool
	Frozen           bool
	ExposeProxy      bool
}

// Weaver is an independently instantiable runtime: its pointcut
// registry, live-proxy list, and policy flags are all instance state,
// so nothing here is a package-level global.
type Weaver struct {
	mu sync.Mutex

	pointcuts *pointcut.Registry
	registry  *registry.Registry
	metadata  *metadata.Table
	advisors  *advisor.Registry
	slot      *proxy.ExposedSlot
	modules   map[string]any

	proxyTargetClass bool
	useAspectJ       bool
	frozen           bool
	exposeProxy      bool

	live []*proxy.Factory
}

// New builds an empty, independent Weaver.
func New() *Weaver {
	return &Weaver{
		pointcuts: pointcut.NewRegistry(),
		registry:  registry.New(),
		metadata:  metadata.NewTable(),
		advisors:  advisor.NewRegistry(),
		slot:      &proxy.ExposedSlot{},
		modules:   make(map[string]any),
	}
}

// RegisterModule makes target resolvable by name through an
// AspectConfig.Ref or AdvisorConfig.Ref, standing in for dynamic module
// resolution that a typed target should not attempt at runtime.
func (w *Weaver) RegisterModule(name string, target any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.modules[name] = target
}

func (w *Weaver) resolveTarget(direct any, ref string) (any, error) {
	if direct != nil {
		return direct, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	target, ok := w.modules[ref]
	if !ok {
		return nil, &ReferenceError{Kind: "module", Name: ref}
	}
	return target, nil
}

// Metadata exposes the weaver's metadata side channel, e.g. so callers
// can stamp @target/@within/@annotation keys before booting.
func (w *Weaver) Metadata() *metadata.Table { return w.metadata }

// Pointcuts exposes the weaver's named-pointcut registry.
func (w *Weaver) Pointcuts() *pointcut.Registry { return w.pointcuts }

// ExposedSlot exposes the weaver's "current proxy" slot.
func (w *Weaver) ExposedSlot() *proxy.ExposedSlot { return w.slot }

// Boot runs the six-step boot sequence: snapshot policy flags, register
// named pointcuts, install advisors, order aspects, weave each one, and
// log completion.
func (w *Weaver) Boot(cfg Config) error {
	log := logger.Get()

	// Step 1: snapshot policy flags.
	w.mu.Lock()
	w.proxyTargetClass = cfg.ProxyTargetClass
	w.useAspectJ = cfg.UseAspectJ
	w.frozen = cfg.Frozen
	w.exposeProxy = cfg.ExposeProxy
	w.mu.Unlock()

	// Step 2: register global named pointcuts.
	for _, pc := range cfg.Pointcuts {
		expr, err := pointcut.Parse(pc.Expression, w.pointcuts)
		if err != nil {
			return err
		}
		w.pointcuts.Set(pc.ID, expr)
	}

	// Step 3: advisors.
	for _, advCfg := range cfg.Advisors {
		if err := w.installAdvisor(advCfg); err != nil {
			return err
		}
	}

	// Step 4: sort aspects ascending by order, stable for ties.
	aspects := make([]AspectConfig, len(cfg.Aspects))
	copy(aspects, cfg.Aspects)
	sort.SliceStable(aspects, func(i, j int) bool {
		return orderOf(aspects[i]) < orderOf(aspects[j])
	})

	// Step 5: weave each aspect.
	for _, aspectCfg := range aspects {
		if err := w.weave(aspectCfg); err != nil {
			return err
		}
	}

	log.Infow("weaver boot complete", "aspects", len(aspects), "advisors", len(cfg.Advisors))
	return nil
}

func orderOf(a AspectConfig) int {
	if !a.HasOrder {
		return 0
	}
	return a.Order
}

// weave tags the target as an aspect, registers its local pointcuts,
// resolves each advice's pointcut text and target method, and installs
// it via pkg/advice.
func (w *Weaver) weave(cfg AspectConfig) error {
	target, err := w.resolveTarget(cfg.Target, cfg.Ref)
	if err != nil {
		return err
	}
	targetType := reflect.TypeOf(target)

	w.metadata.Set(targetType, "aspect", true)
	w.metadata.Set(targetType, "id", cfg.ID)
	w.metadata.Set(targetType, "order", orderOf(cfg))

	for _, pc := range cfg.Pointcuts {
		expr, err := pointcut.Parse(pc.Expression, w.pointcuts)
		if err != nil {
			return err
		}
		w.pointcuts.Set(pc.ID, expr)
	}

	for _, adviceCfg := range cfg.Advices {
		text, err := w.resolvePointcutText(adviceCfg)
		if err != nil {
			return err
		}
		if err := w.installAdvice(targetType, target, adviceCfg, text); err != nil {
			return err
		}
	}

	factory := proxy.NewFactory(target, w.registry, w.pointcuts, w.metadata, w.slot, w.advisors)
	_ = factory.SetUseClassProxy(w.proxyTargetClass)
	_ = factory.SetUseAspectJStyle(w.useAspectJ)
	_ = factory.SetExposed(w.exposeProxy)
	if w.frozen {
		factory.Freeze()
	}
	factory.Proxy()

	w.mu.Lock()
	w.live = append(w.live, factory)
	w.mu.Unlock()

	return nil
}

func (w *Weaver) resolvePointcutText(cfg AdviceConfig) (string, error) {
	if cfg.Pointcut != "" {
		return cfg.Pointcut, nil
	}
	if cfg.PointcutRef != "" {
		if !w.pointcuts.Has(cfg.PointcutRef) {
			return "", &ReferenceError{Kind: "pointcut", Name: cfg.PointcutRef}
		}
		return cfg.PointcutRef, nil
	}
	return "", &ReferenceError{Kind: "pointcut", Name: "(none given)"}
}

// installAdvice looks up the advice body (direct func field, else a
// method resolved reflectively off target by name, the string-fallback
// path) and applies the matching pkg/advice decorator.
func (w *Weaver) installAdvice(targetType reflect.Type, target any, cfg AdviceConfig, pointcutText string) error {
	w.checkArgNames(target, cfg)

	switch cfg.Type {
	case registry.Before:
		fn := cfg.Before
		if fn == nil {
			mv, err := w.resolveMethod(target, cfg.Method)
			if err != nil {
				return err
			}
			fn = bridgeBefore(mv)
		}
		advice.Before(w.registry, targetType, pointcutText, fn)

	case registry.After:
		fn := cfg.After
		if fn == nil {
			mv, err := w.resolveMethod(target, cfg.Method)
			if err != nil {
				return err
			}
			fn = bridgeAfter(mv)
		}
		advice.After(w.registry, targetType, pointcutText, fn)

	case registry.AfterReturning:
		fn := cfg.AfterReturning
		if fn == nil {
			mv, err := w.resolveMethod(target, cfg.Method)
			if err != nil {
				return err
			}
			fn = bridgeAfterReturning(mv)
		}
		advice.AfterReturning(w.registry, targetType, pointcutText, fn)

	case registry.AfterThrowing:
		fn := cfg.AfterThrowing
		if fn == nil {
			mv, err := w.resolveMethod(target, cfg.Method)
			if err != nil {
				return err
			}
			fn = bridgeAfterThrowing(mv)
		}
		advice.AfterThrowing(w.registry, targetType, pointcutText, fn)

	case registry.Around:
		fn := cfg.Around
		if fn == nil {
			mv, err := w.resolveMethod(target, cfg.Method)
			if err != nil {
				return err
			}
			fn = bridgeAround(mv)
		}
		advice.Around(w.registry, targetType, pointcutText, fn)

	default:
		return fmt.Errorf("weaver: unknown advice kind %v", cfg.Type)
	}
	return nil
}

// checkArgNames cross-checks a declared argNames config against the
// names pkg/paramnames discovers for the advice's method, when the
// advice is installed via the string-method fallback. A mismatch is
// logged, not fatal — discovery only needs to fail when no strategy
// succeeds at all, not when a caller's hint disagrees with it.
func (w *Weaver) checkArgNames(target any, cfg AdviceConfig) {
	if cfg.Method == "" || cfg.ArgNames == "" {
		return
	}

	discoverer := paramnames.NewDiscoverer(w.metadata)
	names, err := discoverer.GetParameterNames(target, cfg.Method)
	if err != nil {
		logger.Get().Debugw("argNames discovery failed", "method", cfg.Method, "error", err)
		return
	}

	declared := strings.Split(cfg.ArgNames, ",")
	if len(declared) != len(names) {
		logger.Get().Warnw("argNames count mismatch",
			"method", cfg.Method, "declared", cfg.ArgNames, "discovered", names)
	}
}

func (w *Weaver) resolveMethod(target any, name string) (reflect.Value, error) {
	if name == "" {
		return reflect.Value{}, &ReferenceError{Kind: "method", Name: "(empty)"}
	}
	mv := reflect.ValueOf(target).MethodByName(name)
	if !mv.IsValid() {
		return reflect.Value{}, &ReferenceError{Kind: "method", Name: name}
	}
	return mv, nil
}

func bridgeBefore(mv reflect.Value) advice.BeforeFunc {
	return func(jp *joinpoint.JoinPoint) error {
		out := mv.Call([]reflect.Value{reflect.ValueOf(jp)})
		return errFromOut(out)
	}
}

func bridgeAfter(mv reflect.Value) advice.AfterFunc {
	return func(jp *joinpoint.JoinPoint) {
		mv.Call([]reflect.Value{reflect.ValueOf(jp)})
	}
}

func bridgeAfterReturning(mv reflect.Value) advice.AfterReturningFunc {
	return func(jp *joinpoint.JoinPoint, result any) error {
		out := mv.Call([]reflect.Value{reflect.ValueOf(jp), anyValue(result, mv.Type().In(1))})
		return errFromOut(out)
	}
}

func bridgeAfterThrowing(mv reflect.Value) advice.AfterThrowingFunc {
	return func(jp *joinpoint.JoinPoint, err error) error {
		out := mv.Call([]reflect.Value{reflect.ValueOf(jp), anyValue(err, mv.Type().In(1))})
		return errFromOut(out)
	}
}

func bridgeAround(mv reflect.Value) advice.AroundFunc {
	return func(jp *joinpoint.JoinPoint, proceed advice.ProceedFunc) (any, error) {
		out := mv.Call([]reflect.Value{reflect.ValueOf(jp), reflect.ValueOf(proceed)})
		if len(out) == 0 {
			return nil, nil
		}
		if len(out) == 1 {
			return out[0].Interface(), nil
		}
		return out[0].Interface(), errFromOut(out[1:])
	}
}

func errFromOut(out []reflect.Value) error {
	if len(out) == 0 {
		return nil
	}
	last := out[len(out)-1]
	if last.IsNil() {
		return nil
	}
	err, _ := last.Interface().(error)
	return err
}

func anyValue(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

// installAdvisor resolves cfg's target and advice method, builds an
// Advisor from its class filter or method matcher, and installs it on
// the shared advisor registry for the target's type.
func (w *Weaver) installAdvisor(cfg AdvisorConfig) error {
	target, err := w.resolveTarget(cfg.Target, cfg.Ref)
	if err != nil {
		return err
	}

	mv, err := w.resolveMethod(target, cfg.Advice.Method)
	if err != nil {
		return err
	}

	adviceFn := registry.Func(func(jp *joinpoint.JoinPoint, args ...any) (any, error) {
		in := []reflect.Value{reflect.ValueOf(jp)}
		out := mv.Call(in)
		if len(out) == 0 {
			return nil, nil
		}
		return out[0].Interface(), nil
	})

	var adv *advisor.Advisor
	switch {
	case cfg.ClassFilter != nil:
		typeName := cfg.ClassFilter.TypeName
		adv = advisor.NewClassAdvisor(adviceFn, func(t reflect.Type) bool {
			return t.Name() == typeName
		})
	case cfg.MethodMatcher != nil:
		ownerName := cfg.MethodMatcher.OwnerTypeName
		adv = advisor.NewMethodAdvisor(adviceFn, func(method reflect.Value, owner reflect.Type, args []any) bool {
			return owner.Name() == ownerName
		})
	default:
		return fmt.Errorf("weaver: advisor %q declares neither a class filter nor a method matcher", cfg.ID)
	}

	// adv is appended to the shared, target-type-keyed advisor registry
	// (Factory.AddAdvisor), so it fires for any live proxy over that
	// type — including one produced by an aspect's own weave, not just
	// the standalone proxy built here.
	factory := proxy.NewFactory(target, w.registry, w.pointcuts, w.metadata, w.slot, w.advisors)
	_ = factory.AddAdvisor(adv)
	_ = factory.SetUseClassProxy(w.proxyTargetClass)
	_ = factory.SetUseAspectJStyle(w.useAspectJ)
	_ = factory.SetExposed(w.exposeProxy)
	if w.frozen {
		factory.Freeze()
	}
	factory.Proxy()

	w.mu.Lock()
	w.live = append(w.live, factory)
	w.mu.Unlock()

	return nil
}

// LiveProxies returns every proxy currently installed, for tests and
// introspection tooling.
func (w *Weaver) LiveProxies() []*proxy.Proxy {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*proxy.Proxy, 0, len(w.live))
	for _, f := range w.live {
		out = append(out, f.Proxy())
	}
	return out
}

// Dispose tears the graph down: dispose every live proxy, clear the
// live set, clear the pointcut, advice, advisor, and metadata tables,
// reset policy flags.
func (w *Weaver) Dispose() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, f := range w.live {
		f.Dispose()
	}
	w.live = nil
	w.pointcuts.Clear()
	w.registry.Clear()
	w.advisors.Clear()
	w.metadata.Clear()
	w.proxyTargetClass = false
	w.useAspectJ = false
	w.frozen = false
	w.exposeProxy = false
}
