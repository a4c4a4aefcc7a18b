package pointcut

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aspectkit/pkg/metadata"
)

type greetService struct{}

func (greetService) Greet(name string) string { return "hi " + name }
func (greetService) Add(a, b int) int          { return a + b }

func methodCandidate(methodName string, args ...any) Candidate {
	typ := reflect.TypeOf(greetService{})
	m, _ := typ.MethodByName(methodName)
	return Candidate{
		Method:     m,
		HasMethod:  true,
		OwnerType:  typ,
		TargetType: typ,
		ProxyType:  typ,
		Args:       args,
		Metadata:   metadata.NewTable(),
	}
}

func TestParse_Execution(t *testing.T) {
	expr, err := Parse("execution(* greetService.Greet(..))", NewRegistry())
	require.NoError(t, err)
	assert.True(t, expr(methodCandidate("Greet", "world")))
	assert.False(t, expr(methodCandidate("Add", 1, 2)))
}

func TestParse_And(t *testing.T) {
	expr, err := Parse("execution(* greetService.Greet(..)) && within(*greetService*)", NewRegistry())
	require.NoError(t, err)
	assert.True(t, expr(methodCandidate("Greet", "world")))
}

func TestParse_Or(t *testing.T) {
	expr, err := Parse("execution(* greetService.Add(..)) || execution(* greetService.Greet(..))", NewRegistry())
	require.NoError(t, err)
	assert.True(t, expr(methodCandidate("Add", 1, 2)))
	assert.True(t, expr(methodCandidate("Greet", "world")))
}

func TestParse_Negation(t *testing.T) {
	expr, err := Parse("! execution(* greetService.Add(..))", NewRegistry())
	require.NoError(t, err)
	assert.False(t, expr(methodCandidate("Add", 1, 2)))
	assert.True(t, expr(methodCandidate("Greet", "world")))
}

func TestParse_LeftToRightStackCollapse(t *testing.T) {
	// A && B || C with A=false, B=true, C=true collapses as (A&&B)||C
	// under the mandated left-to-right, no-precedence stack machine:
	// (false&&true)||true == true.
	registry := NewRegistry()
	registry.Set("A", func(Candidate) bool { return false })
	registry.Set("B", func(Candidate) bool { return true })
	registry.Set("C", func(Candidate) bool { return true })

	expr, err := Parse("A && B || C", registry)
	require.NoError(t, err)
	assert.True(t, expr(Candidate{}))
}

func TestParse_Args(t *testing.T) {
	expr, err := Parse("args(int,int)", NewRegistry())
	require.NoError(t, err)
	assert.True(t, expr(methodCandidate("Add", 1, 2)))
	assert.False(t, expr(methodCandidate("Greet", "world")))
}

func TestParse_Bean(t *testing.T) {
	expr, err := Parse("bean(orderService)", NewRegistry())
	require.NoError(t, err)
	assert.True(t, expr(Candidate{Bean: "orderService"}))
	assert.False(t, expr(Candidate{Bean: "other"}))
}

func TestParse_AtAnnotation(t *testing.T) {
	c := methodCandidate("Greet", "world")
	c.Metadata.Set(c.OwnerType, MethodMetadataKey("Greet", "Transactional"), true)

	expr, err := Parse("@annotation(Transactional)", NewRegistry())
	require.NoError(t, err)
	assert.True(t, expr(c))

	other := methodCandidate("Add", 1, 2)
	assert.False(t, expr(other))
}

func TestParse_UnknownToken(t *testing.T) {
	_, err := Parse("fooBar(x)", NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"fooBar(x)"`)
}

func TestParse_NamedReference(t *testing.T) {
	registry := NewRegistry()
	inner, err := Parse("execution(* greetService.Greet(..))", registry)
	require.NoError(t, err)
	registry.Set("greetPointcut", inner)

	expr, err := Parse("greetPointcut", registry)
	require.NoError(t, err)
	assert.True(t, expr(methodCandidate("Greet", "world")))
}

func TestParse_Deterministic(t *testing.T) {
	expr, err := Parse("execution(* greetService.Greet(..))", NewRegistry())
	require.NoError(t, err)
	c := methodCandidate("Greet", "world")
	assert.Equal(t, expr(c), expr(c))
}
