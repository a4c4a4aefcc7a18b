package weaver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aspectkit/pkg/advice"
	"aspectkit/pkg/joinpoint"
	"aspectkit/pkg/registry"
)

type greeter struct{ log *[]string }

func (g greeter) Greet(name string) int {
	*g.log = append(*g.log, "hello "+name)
	return 0
}

type calc struct{}

func (calc) Add(a, b int) int { return a + b }

func (calc) Replacement(jp *joinpoint.JoinPoint) int { return 99 }

func TestWeaver_BootWeavesBeforeAdvice(t *testing.T) {
	var log []string
	target := greeter{log: &log}

	w := New()
	err := w.Boot(Config{
		Aspects: []AspectConfig{
			{
				ID:     "greeting",
				Target: target,
				Advices: []AdviceConfig{
					{
						Type:     registry.Before,
						Pointcut: "execution(* greeter.Greet(..))",
						Before: func(jp *joinpoint.JoinPoint) error {
							log = append(log, "before")
							return nil
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)

	proxies := w.LiveProxies()
	require.Len(t, proxies, 1)

	out, err := proxies[0].Invoke("Greet", "world")
	require.NoError(t, err)
	assert.Equal(t, []any{0}, out)
	assert.Equal(t, []string{"before", "hello world"}, log)
}

func TestWeaver_BootFailsOnMissingPointcutRef(t *testing.T) {
	w := New()
	err := w.Boot(Config{
		Aspects: []AspectConfig{
			{
				ID:     "broken",
				Target: calc{},
				Advices: []AdviceConfig{
					{Type: registry.Before, PointcutRef: "doesNotExist", Before: func(jp *joinpoint.JoinPoint) error { return nil }},
				},
			},
		},
	})
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "pointcut", refErr.Kind)
}

func TestWeaver_OrderingS6(t *testing.T) {
	var log []string
	target := calc{}

	w := New()
	err := w.Boot(Config{
		Aspects: []AspectConfig{
			{
				ID: "B", Target: target, Order: 2, HasOrder: true,
				Advices: []AdviceConfig{{
					Type: registry.Before, Pointcut: "execution(* calc.Add(..))",
					Before: func(jp *joinpoint.JoinPoint) error { log = append(log, "B"); return nil },
				}},
			},
			{
				ID: "A", Target: target, Order: 1, HasOrder: true,
				Advices: []AdviceConfig{{
					Type: registry.Before, Pointcut: "execution(* calc.Add(..))",
					Before: func(jp *joinpoint.JoinPoint) error { log = append(log, "A"); return nil },
				}},
			},
		},
	})
	require.NoError(t, err)

	proxies := w.LiveProxies()
	require.Len(t, proxies, 2)
	_, err = proxies[0].Invoke("Add", 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, log)
}

func TestWeaver_AroundProceedS4(t *testing.T) {
	target := calc{}
	w := New()
	err := w.Boot(Config{
		Aspects: []AspectConfig{{
			ID:     "timing",
			Target: target,
			Advices: []AdviceConfig{{
				Type:     registry.Around,
				Pointcut: "execution(* calc.Add(..))",
				Around: func(jp *joinpoint.JoinPoint, proceed advice.ProceedFunc) (any, error) {
					result, err := proceed()
					if err != nil {
						return nil, err
					}
					return result.(int) + 1, nil
				},
			}},
		}},
	})
	require.NoError(t, err)

	out, err := w.LiveProxies()[0].Invoke("Add", 5, 5)
	require.NoError(t, err)
	assert.Equal(t, []any{11}, out)
}

func TestWeaver_AdvisorFiresThroughAspectProxy(t *testing.T) {
	target := calc{}

	w := New()
	err := w.Boot(Config{
		Advisors: []AdvisorConfig{
			{
				ID:     "shortCircuit",
				Target: target,
				Advice: AdviceConfig{Method: "Replacement"},
				ClassFilter: &ClassFilterConfig{
					TypeName: "calc",
				},
			},
		},
		Aspects: []AspectConfig{
			{
				ID:     "noop",
				Target: target,
				Advices: []AdviceConfig{
					{Type: registry.Before, Pointcut: "execution(* calc.Add(..))",
						Before: func(jp *joinpoint.JoinPoint) error { return nil }},
				},
			},
		},
	})
	require.NoError(t, err)

	proxies := w.LiveProxies()
	require.Len(t, proxies, 2)

	// Invoking through the aspect's own live proxy — the path every real
	// caller uses — still picks up the advisor installed via
	// Config.Advisors, because both proxies consult the same
	// class-keyed advisor registry rather than a private one.
	out, err := proxies[1].Invoke("Add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{99}, out)
}

func TestWeaver_DisposeRevokesProxies(t *testing.T) {
	target := calc{}
	w := New()
	require.NoError(t, w.Boot(Config{
		Aspects: []AspectConfig{{
			ID: "noop", Target: target,
			Advices: []AdviceConfig{{
				Type: registry.After, Pointcut: "execution(* calc.Add(..))",
				After: func(jp *joinpoint.JoinPoint) {},
			}},
		}},
	}))

	p := w.LiveProxies()[0]
	w.Dispose()

	_, err := p.Invoke("Add", 1, 2)
	assert.Error(t, err)
}
