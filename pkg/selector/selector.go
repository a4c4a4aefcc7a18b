// Package selector implements an attribute/id/type/instance selector
// engine, used by some pointcuts to match against a class or a
// method-call site the way a CSS-like selector matches a DOM element.
package selector

import (
	"reflect"
	"regexp"
	"strings"

	"aspectkit/pkg/metadata"
)

// Target is what a SelectorMatcher evaluates: a class (for Filter) or a
// method call site (for Matches).
type Target struct {
	// ID is the candidate's identifier, matched by the "#id" form.
	ID string
	// Namespace is the candidate's namespace, matched by the "ns|Name"
	// type-selector form.
	Namespace string
	// Type is the candidate's reflect.Type.
	Type reflect.Type
	// Attributes holds the metadata key/value pairs the attribute-form
	// selector reads (attrName -> attrValue).
	Attributes map[string]string
	// DeclaredParamTypes, when Matches is evaluating a method call site,
	// are the method's declared parameter types, used by matchArguments.
	DeclaredParamTypes []reflect.Type
	// Args are the actual call arguments, used by matchArguments.
	Args []any
	// Metadata backs attribute lookups keyed by Type.
	Metadata *metadata.Table
}

// kind classifies the sub-form of a selector expression.
type kind int

const (
	kindWildcard kind = iota
	kindID
	kindInstance
	kindType
	kindAttribute
)

// SelectorMatcher evaluates one selector expression, in either static or
// dynamic ("runtime flag") mode.
type SelectorMatcher struct {
	expr    string
	runtime bool

	kind  kind
	id    string
	inst  string
	ns    string
	tname string

	attrName  string
	attrOp    string
	attrValue string
	attrFlag  string
}

// htmlReservedAttrs are always case-sensitive regardless of the `s` flag.
var htmlReservedAttrs = regexp.MustCompile(`^(id|class|role|data-.*|aria-.*)$`)

// New builds a SelectorMatcher for expr. runtime selects dynamic mode:
// method-call-site matching considers the method, owner type, and
// arguments together; static mode considers only the class or only the
// method's own attribute form.
func New(expr string, runtime bool) *SelectorMatcher {
	m := &SelectorMatcher{expr: strings.TrimSpace(expr), runtime: runtime}
	m.classify()
	return m
}

func (m *SelectorMatcher) classify() {
	e := m.expr
	switch {
	case e == "*":
		m.kind = kindWildcard
	case strings.HasPrefix(e, "#"):
		m.kind = kindID
		m.id = e[1:]
	case strings.HasPrefix(e, "&"):
		m.kind = kindInstance
		m.inst = e[1:]
	case strings.HasPrefix(e, ":"):
		m.kind = kindType
		m.tname = e[1:]
	case strings.HasPrefix(e, "|"):
		m.kind = kindType
		m.tname = e[1:]
	case strings.Contains(e, "|") && !strings.HasPrefix(e, "["):
		if idx := strings.Index(e, "|"); idx > 0 {
			m.kind = kindType
			m.ns = e[:idx]
			m.tname = e[idx+1:]
		}
	case strings.HasPrefix(e, "[") && strings.HasSuffix(e, "]"):
		m.kind = kindAttribute
		m.parseAttribute(e[1 : len(e)-1])
	default:
		m.kind = kindAttribute
		m.parseAttribute(e)
	}
}

var attrOpPattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)(?:([~|^$*]?=)(.*?))?(?:\s+([is]))?$`)

func (m *SelectorMatcher) parseAttribute(body string) {
	matches := attrOpPattern.FindStringSubmatch(strings.TrimSpace(body))
	if matches == nil {
		m.attrName = strings.TrimSpace(body)
		return
	}
	m.attrName = matches[1]
	m.attrOp = matches[2]
	m.attrValue = strings.Trim(matches[3], `"'`)
	m.attrFlag = matches[4]
}

// Filter evaluates this selector against a class candidate.
func (m *SelectorMatcher) Filter(t Target) bool {
	if m.kind == kindWildcard {
		return true
	}

	if m.runtime {
		switch m.kind {
		case kindID:
			return t.ID == m.id
		case kindInstance:
			return t.Type != nil && (t.Type.Name() == m.inst || t.Type.String() == m.inst)
		case kindType:
			return m.matchesType(t)
		}
	}

	return m.matchesAttribute(t)
}

// Matches evaluates this selector against a method call site.
func (m *SelectorMatcher) Matches(t Target) bool {
	if m.kind == kindWildcard {
		return true
	}

	ok := true
	if m.runtime && len(t.Args) >= 2 {
		ok = m.classSide(t)
	}
	if ok {
		ok = m.matchesAttribute(t)
	}
	if !ok {
		return false
	}

	return matchArguments(t)
}

func (m *SelectorMatcher) classSide(t Target) bool {
	switch m.kind {
	case kindID:
		return t.ID == m.id
	case kindInstance:
		return t.Type != nil && (t.Type.Name() == m.inst || t.Type.String() == m.inst)
	case kindType:
		return m.matchesType(t)
	default:
		return m.matchesAttribute(t)
	}
}

func (m *SelectorMatcher) matchesType(t Target) bool {
	if t.Type == nil {
		return false
	}
	if m.ns != "" && m.ns != "*" && t.Namespace != m.ns {
		return false
	}
	return t.Type.Name() == m.tname
}

func (m *SelectorMatcher) matchesAttribute(t Target) bool {
	if m.kind != kindAttribute {
		return true
	}
	if t.Attributes == nil {
		return false
	}
	actual, present := t.Attributes[m.attrName]

	if m.attrOp == "" {
		if !present {
			return false
		}
		return truthy(actual)
	}
	if !present {
		return false
	}

	caseSensitive := htmlReservedAttrs.MatchString(strings.ToLower(m.attrName)) || m.attrFlag == "s"
	cmpActual, cmpWant := actual, m.attrValue
	if !caseSensitive {
		cmpActual = strings.ToLower(cmpActual)
		cmpWant = strings.ToLower(cmpWant)
	}

	switch m.attrOp {
	case "=":
		return cmpActual == cmpWant
	case "~=":
		for _, tok := range strings.Fields(cmpActual) {
			if tok == cmpWant {
				return true
			}
		}
		return false
	case "|=":
		return cmpActual == cmpWant || strings.HasPrefix(cmpActual, cmpWant+"-")
	case "^=":
		return strings.HasPrefix(cmpActual, cmpWant)
	case "$=":
		return strings.HasSuffix(cmpActual, cmpWant)
	case "*=":
		return strings.Contains(cmpActual, cmpWant)
	default:
		return false
	}
}

func truthy(v string) bool {
	return v != "" && v != "false" && v != "0"
}

// matchArguments requires that, if arguments are supplied, each actual is
// an instance of the corresponding declared parameter type, or has a
// primitive-type name equal to that declared type.
func matchArguments(t Target) bool {
	if len(t.DeclaredParamTypes) == 0 {
		return true
	}
	if len(t.Args) != len(t.DeclaredParamTypes) {
		return false
	}
	for i, declared := range t.DeclaredParamTypes {
		actual := t.Args[i]
		if actual == nil {
			continue
		}
		actualType := reflect.TypeOf(actual)
		if actualType == declared || actualType.AssignableTo(declared) {
			continue
		}
		if actualType.Name() == declared.Name() || actualType.String() == declared.String() {
			continue
		}
		return false
	}
	return true
}
