// Package joinpoint defines the immutable value object describing a
// single interception event.
package joinpoint

import (
	"fmt"
	"reflect"
	"strings"
)

// JoinPoint is a snapshot of one method call. It is created per call,
// never mutated, and discarded when the call unwinds.
type JoinPoint struct {
	target     any
	methodName string
	args       []any
}

// New constructs a JoinPoint for target, optionally naming the method
// being intercepted and the actual arguments passed to it. methodName may
// be empty for class-only aspects.
func New(target any, methodName string, args ...any) *JoinPoint {
	argsCopy := make([]any, len(args))
	copy(argsCopy, args)
	return &JoinPoint{target: target, methodName: methodName, args: argsCopy}
}

// Target returns the receiving object.
func (jp *JoinPoint) Target() any { return jp.target }

// Args returns the ordered sequence of actual arguments.
func (jp *JoinPoint) Args() []any {
	out := make([]any, len(jp.args))
	copy(out, jp.args)
	return out
}

// OwnerType returns the constructor/class of target, i.e. its reflect.Type.
func (jp *JoinPoint) OwnerType() reflect.Type {
	if jp.target == nil {
		return nil
	}
	return reflect.TypeOf(jp.target)
}

// Signature returns the method name, which may be empty.
func (jp *JoinPoint) Signature() string { return jp.methodName }

// MethodValue resolves the bound method value named by Signature on
// target. The zero Value is returned if methodName is empty or target
// does not expose that method.
func (jp *JoinPoint) MethodValue() reflect.Value {
	if jp.target == nil || jp.methodName == "" {
		return reflect.Value{}
	}
	return reflect.ValueOf(jp.target).MethodByName(jp.methodName)
}

// String renders the join point as
// "<methodName>.<signature>(<args joined by ,>)" when a signature is
// present, else "<owner-type name> class". Signature is always equal to
// methodName in this data model, so the rendering does stutter the name;
// that's deliberate, not a bug.
func (jp *JoinPoint) String() string {
	if jp.methodName == "" {
		ownerName := "<nil>"
		if t := jp.OwnerType(); t != nil {
			if t.Kind() == reflect.Ptr {
				t = t.Elem()
			}
			ownerName = t.Name()
		}
		return fmt.Sprintf("%s class", ownerName)
	}

	parts := make([]string, len(jp.args))
	for i, a := range jp.args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("%s.%s(%s)", jp.methodName, jp.Signature(), strings.Join(parts, ","))
}
