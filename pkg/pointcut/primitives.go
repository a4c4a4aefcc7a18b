package pointcut

import (
	"reflect"
	"regexp"
	"strings"
)

type primitiveBuilder func(body string) (Expression, error)

var primitives = map[string]primitiveBuilder{
	"execution":   buildExecution,
	"within":      buildWithin,
	"this":        buildThis,
	"target":      buildTarget,
	"args":        buildArgs,
	"@target":     buildAtTarget,
	"@within":     buildAtWithin,
	"@annotation": buildAtAnnotation,
	"@args":       buildAtArgs,
	"bean":        buildBean,
}

// buildExecution matches the function candidate: pattern against the
// function's string form "returnType OwnerType.Name(paramType,...)"
// (see functionString).
func buildExecution(body string) (Expression, error) {
	re, err := compilePattern(body)
	if err != nil {
		return nil, err
	}
	return func(c Candidate) bool {
		if !c.HasMethod {
			return false
		}
		return re.MatchString(functionString(c.OwnerType, c.Method))
	}, nil
}

// buildWithin matches the owning type candidate: pattern against the
// type's string name.
func buildWithin(body string) (Expression, error) {
	re, err := compilePattern(body)
	if err != nil {
		return nil, err
	}
	return func(c Candidate) bool {
		if c.OwnerType == nil {
			return false
		}
		return re.MatchString(typeString(c.OwnerType))
	}, nil
}

// buildThis matches the proxy candidate: exact type-name equality.
func buildThis(body string) (Expression, error) {
	name := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if c.ProxyType == nil {
			return false
		}
		return typeString(c.ProxyType) == name || typeName(c.ProxyType) == name
	}, nil
}

// buildTarget matches the target candidate: exact type-name equality.
func buildTarget(body string) (Expression, error) {
	name := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if c.TargetType == nil {
			return false
		}
		return typeString(c.TargetType) == name || typeName(c.TargetType) == name
	}, nil
}

// buildArgs matches the argument-tuple candidate: length equals n, each
// actual's run-time type name equals ti or ti == "*".
func buildArgs(body string) (Expression, error) {
	parts := splitArgList(body)
	return func(c Candidate) bool {
		if len(c.Args) != len(parts) {
			return false
		}
		for i, want := range parts {
			if want == "*" {
				continue
			}
			if !argTypeNameMatches(c.Args[i], want) {
				return false
			}
		}
		return true
	}, nil
}

// buildAtTarget matches the target candidate: target's type has metadata
// key name.
func buildAtTarget(body string) (Expression, error) {
	key := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if c.TargetType == nil || c.Metadata == nil {
			return false
		}
		return c.Metadata.Has(c.TargetType, key)
	}, nil
}

// buildAtWithin matches the owner-type candidate: owner type has metadata
// key name.
func buildAtWithin(body string) (Expression, error) {
	key := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if c.OwnerType == nil || c.Metadata == nil {
			return false
		}
		return c.Metadata.Has(c.OwnerType, key)
	}, nil
}

// buildAtAnnotation matches the function candidate: function has metadata
// key name, scoped to the method name on its owner type.
func buildAtAnnotation(body string) (Expression, error) {
	key := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if !c.HasMethod || c.OwnerType == nil || c.Metadata == nil {
			return false
		}
		return c.Metadata.Has(c.OwnerType, MethodMetadataKey(c.Method.Name, key))
	}, nil
}

// buildAtArgs matches the argument-tuple candidate: length equals k, each
// actual has metadata key ni (looked up by the actual's own run-time
// type, standing in for per-argument annotation metadata).
func buildAtArgs(body string) (Expression, error) {
	parts := splitArgList(body)
	return func(c Candidate) bool {
		if c.Metadata == nil || len(c.Args) != len(parts) {
			return false
		}
		for i, key := range parts {
			arg := c.Args[i]
			if arg == nil {
				return false
			}
			if !c.Metadata.Has(reflect.TypeOf(arg), key) {
				return false
			}
		}
		return true
	}, nil
}

// buildBean matches the bean-name candidate: equals name.
func buildBean(body string) (Expression, error) {
	name := strings.TrimSpace(body)
	return func(c Candidate) bool {
		return c.Bean == name
	}, nil
}

func splitArgList(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	rawParts := strings.Split(body, ",")
	parts := make([]string, len(rawParts))
	for i, p := range rawParts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func argTypeNameMatches(actual any, want string) bool {
	if actual == nil {
		return want == "nil"
	}
	t := reflect.TypeOf(actual)
	return t.String() == want || t.Name() == want
}

// functionString renders the function's canonical string form used by
// execution()'s pattern match, AspectJ-style:
// "returnType OwnerType.Name(paramType,paramType,...)". The leading
// return-type segment is what lets a pattern's leading "*" (matched by
// execution's own * ≡ .* substitution) stand for "any return type".
func functionString(owner reflect.Type, m reflect.Method) string {
	fnType := m.Type

	params := make([]string, 0, fnType.NumIn())
	// index 0 is the receiver on an unbound reflect.Method.Type.
	for i := 1; i < fnType.NumIn(); i++ {
		params = append(params, fnType.In(i).String())
	}

	returns := make([]string, 0, fnType.NumOut())
	for i := 0; i < fnType.NumOut(); i++ {
		returns = append(returns, fnType.Out(i).String())
	}
	returnType := "void"
	if len(returns) > 0 {
		returnType = strings.Join(returns, ",")
	}

	ownerName := "?"
	if owner != nil {
		ownerName = typeName(owner)
	}
	return returnType + " " + ownerName + "." + m.Name + "(" + strings.Join(params, ",") + ")"
}

// typeName returns a type's declared name, dereferencing one level of
// pointer first. reflect.Type.Name() is empty for pointer types (they
// are unnamed composite types), but every target in this runtime is a
// pointer to a named struct — without this, execution()/within()/
// this()/target() could never match an idiomatically Go service.
func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// typeString is typeName's counterpart for within()'s pattern match
// against a type's full string form, also dereferencing one pointer
// level so "within(pkg.Type)" matches a *pkg.Type target the same way
// "within(pkg.Type)" would match pkg.Type.
func typeString(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// compilePattern converts the "*" ≡ ".*", ".." ≡ ".*" pattern language of
// execution()/within() into an anchored regexp.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	const dotPlaceholder = "\x00DOTDOT\x00"
	const starPlaceholder = "\x00STAR\x00"

	tmp := strings.ReplaceAll(pattern, "..", dotPlaceholder)
	tmp = strings.ReplaceAll(tmp, "*", starPlaceholder)
	escaped := regexp.QuoteMeta(tmp)
	escaped = strings.ReplaceAll(escaped, dotPlaceholder, ".*")
	escaped = strings.ReplaceAll(escaped, starPlaceholder, ".*")

	return regexp.Compile("^" + escaped + "$")
}
