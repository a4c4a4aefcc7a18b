package proxy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aspectkit/pkg/advice"
	"aspectkit/pkg/advisor"
	"aspectkit/pkg/joinpoint"
	"aspectkit/pkg/metadata"
	"aspectkit/pkg/pointcut"
	"aspectkit/pkg/registry"
)

type calc struct{}

func (calc) Add(a, b int) int { return a + b }

func (calc) Fail() error { return errFail }

var errFail = errors.New("boom")

func newHarness(target any) (*Factory, *registry.Registry, *pointcut.Registry) {
	reg := registry.New()
	pc := pointcut.NewRegistry()
	md := metadata.NewTable()
	slot := &ExposedSlot{}
	advisors := advisor.NewRegistry()
	f := NewFactory(target, reg, pc, md, slot, advisors)
	return f, reg, pc
}

func TestProxy_BeforeRunsAheadOfOriginal(t *testing.T) {
	f, reg, _ := newHarness(calc{})
	var order []string

	advice.Before(reg, reflect.TypeOf(calc{}), "execution(* calc.Add(..))", func(jp *joinpoint.JoinPoint) error {
		order = append(order, "before")
		return nil
	})

	p := f.Proxy()
	out, err := p.Invoke("Add", 2, 3)
	order = append(order, "after-invoke")

	require.NoError(t, err)
	assert.Equal(t, []any{5}, out)
	assert.Equal(t, []string{"before", "after-invoke"}, order)
}

func TestProxy_AfterReturningBindsResult(t *testing.T) {
	f, reg, _ := newHarness(calc{})
	var captured any

	advice.AfterReturning(reg, reflect.TypeOf(calc{}), "execution(* calc.Add(..))", func(jp *joinpoint.JoinPoint, result any) error {
		captured = result
		return nil
	})

	out, err := f.Proxy().Invoke("Add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{5}, out)
	assert.Equal(t, 5, captured)
}

func TestProxy_AfterThrowingReceivesErrorAndPropagates(t *testing.T) {
	f, reg, _ := newHarness(calc{})
	var captured error

	advice.AfterThrowing(reg, reflect.TypeOf(calc{}), "execution(* calc.Fail(..))", func(jp *joinpoint.JoinPoint, err error) error {
		captured = err
		return nil
	})

	_, err := f.Proxy().Invoke("Fail")
	assert.ErrorIs(t, err, errFail)
	assert.ErrorIs(t, captured, errFail)
}

func TestProxy_AroundWrapsProceedResult(t *testing.T) {
	f, reg, _ := newHarness(calc{})

	advice.Around(reg, reflect.TypeOf(calc{}), "execution(* calc.Add(..))", func(jp *joinpoint.JoinPoint, proceed advice.ProceedFunc) (any, error) {
		result, err := proceed()
		if err != nil {
			return nil, err
		}
		return result.(int) + 1, nil
	})

	out, err := f.Proxy().Invoke("Add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{6}, out)
}

func TestProxy_DisposeRevokesHandle(t *testing.T) {
	f, _, _ := newHarness(calc{})
	p := f.Proxy()
	p.Dispose()

	_, err := p.Invoke("Add", 1, 2)
	var disposed *DisposedError
	assert.ErrorAs(t, err, &disposed)
}

func TestFactory_FrozenRefusesMutators(t *testing.T) {
	f, _, _ := newHarness(calc{})
	f.Freeze()

	err := f.SetUseClassProxy(true)
	var violation *PolicyViolationError
	assert.ErrorAs(t, err, &violation)
}

func TestFactory_ModeSelection(t *testing.T) {
	f, _, _ := newHarness(calc{})
	p := f.Proxy()
	assert.Equal(t, ModeClassProxy, p.mode)
}

func TestProxy_AdvisorInstalledOnOneFactoryFiresThroughAnother(t *testing.T) {
	reg := registry.New()
	pc := pointcut.NewRegistry()
	md := metadata.NewTable()
	slot := &ExposedSlot{}
	advisors := advisor.NewRegistry()

	adv := advisor.NewClassAdvisor(
		func(jp *joinpoint.JoinPoint, args ...any) (any, error) { return "replaced", nil },
		func(t reflect.Type) bool { return t == reflect.TypeOf(calc{}) },
	)

	installer := NewFactory(calc{}, reg, pc, md, slot, advisors)
	require.NoError(t, installer.AddAdvisor(adv))
	installer.Proxy()

	caller := NewFactory(calc{}, reg, pc, md, slot, advisors)
	out, err := caller.Proxy().Invoke("Add", 2, 3)

	require.NoError(t, err)
	assert.Equal(t, []any{"replaced"}, out)
}
