// Package regexpmatcher implements an ordered sequence of regular
// expressions matched against a method's name, with the literal source
// "*" matching everything unconditionally.
package regexpmatcher

import (
	"reflect"
	"regexp"
)

// Method describes the call site a RegexpMatcher is asked about.
type Method struct {
	Name               string
	Type               reflect.Type
	DeclaredParamNames []string
	Args               []any
}

// RegexpMatcher holds a compiled, ordered list of regular expressions.
type RegexpMatcher struct {
	sources  []string
	compiled []*regexp.Regexp
}

// New compiles sources in order. A source of literal "*" is kept
// uncompiled and treated specially by Matches.
func New(sources ...string) (*RegexpMatcher, error) {
	m := &RegexpMatcher{sources: append([]string(nil), sources...)}
	for _, src := range sources {
		if src == "*" {
			m.compiled = append(m.compiled, nil)
			continue
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, err
		}
		m.compiled = append(m.compiled, re)
	}
	return m, nil
}

// Matches returns true if any compiled regex matches method.Name, or
// unconditionally if any regex source is literal "*". When args are
// supplied it additionally requires each arg's run-time type name to
// match the corresponding declared parameter name.
func (m *RegexpMatcher) Matches(method Method, args ...any) bool {
	nameMatched := false
	for i, src := range m.sources {
		if src == "*" {
			nameMatched = true
			break
		}
		if m.compiled[i].MatchString(method.Name) {
			nameMatched = true
			break
		}
	}
	if !nameMatched {
		return false
	}

	if len(args) == 0 {
		return true
	}
	if len(args) != len(method.DeclaredParamNames) {
		return false
	}
	for i, arg := range args {
		if arg == nil {
			continue
		}
		if reflect.TypeOf(arg).Name() != method.DeclaredParamNames[i] {
			return false
		}
	}
	return true
}
