package pointcut

import (
	"reflect"

	"aspectkit/pkg/metadata"
)

// Candidate bundles every view a primitive predicate might need for one
// call site. A single Candidate is built per interception and handed to
// the whole expression; each primitive reads only the fields relevant
// to it — a type, a function/method, or a tuple of actual arguments,
// depending on which primitives compose the expression.
type Candidate struct {
	// Method is the function being called (execution, @annotation).
	Method reflect.Method
	// HasMethod reports whether Method was populated.
	HasMethod bool

	// OwnerType is the type declaring Method (within, @within).
	OwnerType reflect.Type

	// ProxyType is the proxy's own type (this).
	ProxyType reflect.Type

	// TargetType is the underlying target's type (target, @target). In
	// this runtime it usually equals OwnerType, but is kept distinct
	// because a transparent proxy's type can differ from its target's.
	TargetType reflect.Type

	// Args is the tuple of actual call arguments (args, @args).
	Args []any

	// Bean is the bean name candidate for bean().
	Bean string

	// Metadata is the side-channel table backing every @-primitive.
	Metadata *metadata.Table
}

// MethodMetadataKey builds the metadata key method-scoped primitives
// (@annotation, argNames) look under.
func MethodMetadataKey(methodName, key string) string {
	return methodName + "#" + key
}
