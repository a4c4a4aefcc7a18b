// Package paramnames discovers parameter names: given a target and a
// method name, it produces either an ordered sequence of parameter
// names or reports that the names are unknown.
package paramnames

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"aspectkit/pkg/metadata"
)

// ErrUnresolvable is returned when no configured strategy can name the
// parameters of a method.
type ErrUnresolvable struct {
	Type   reflect.Type
	Method string
}

func (e *ErrUnresolvable) Error() string {
	return fmt.Sprintf("unresolvable parameter names for %s.%s", e.Type, e.Method)
}

// Strategy is one parameter-naming source. Implementations are chained by
// Discoverer; the first non-unknown answer wins.
type Strategy interface {
	Discover(target reflect.Type, methodName string) ([]string, bool)
}

// AnnotationStrategy reads a metadata value "argNames" attached to the
// target type under key methodName. If present it is split on commas and
// trimmed.
type AnnotationStrategy struct {
	Metadata *metadata.Table
}

// Discover implements Strategy.
func (s *AnnotationStrategy) Discover(target reflect.Type, methodName string) ([]string, bool) {
	if s.Metadata == nil {
		return nil, false
	}
	raw, ok := s.Metadata.Get(target, argNamesKey(methodName))
	if !ok {
		return nil, false
	}
	text, ok := raw.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, false
	}

	parts := strings.Split(text, ",")
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = strings.TrimSpace(p)
	}
	return names, true
}

func argNamesKey(methodName string) string { return methodName + "#argNames" }

// ReflectiveStrategy inspects the function's formal parameter count and
// synthesizes a name per parameter from its reflected type. Go erases
// parameter identifiers at compile time, so this derives a lower-cased,
// de-duplicated identifier from each parameter's type name instead.
type ReflectiveStrategy struct{}

// Discover implements Strategy.
func (ReflectiveStrategy) Discover(target reflect.Type, methodName string) ([]string, bool) {
	method, ok := target.MethodByName(methodName)
	if !ok {
		return nil, false
	}

	fnType := method.Type
	numIn := fnType.NumIn()
	// method.Type on a reflect.Type.MethodByName result always includes
	// the receiver as argument 0, regardless of target's kind.
	const start = 1

	names := make([]string, 0, numIn-start)
	seen := make(map[string]int)
	for i := start; i < numIn; i++ {
		base := baseNameForType(fnType.In(i))
		seen[base]++
		name := base
		if n := seen[base]; n > 1 {
			name = fmt.Sprintf("%s%d", base, n)
		}
		names = append(names, name)
	}
	return names, true
}

func baseNameForType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.Kind().String()
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// Discoverer chains strategies in fixed installation order: Annotation,
// then Reflective.
type Discoverer struct {
	strategies []Strategy
}

// NewDiscoverer builds the core discoverer with its two shipped strategies.
func NewDiscoverer(md *metadata.Table) *Discoverer {
	return &Discoverer{strategies: []Strategy{
		&AnnotationStrategy{Metadata: md},
		ReflectiveStrategy{},
	}}
}

// GetParameterNames consults strategies in order and fails with
// ErrUnresolvable if none succeeds.
func (d *Discoverer) GetParameterNames(target any, methodName string) ([]string, error) {
	targetType := reflect.TypeOf(target)
	for _, s := range d.strategies {
		if names, ok := s.Discover(targetType, methodName); ok {
			return names, nil
		}
	}
	return nil, &ErrUnresolvable{Type: targetType, Method: methodName}
}
