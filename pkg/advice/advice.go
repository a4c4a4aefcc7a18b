// Package advice implements the five advice decorators. Go has no
// runtime prototype-chain mutation, so "installed around a target
// method" becomes: each decorator builds a registry.Func that knows how
// to bind its kind's special arguments (joinPoint, result, error,
// proceed) and appends the resulting registry.Record to the target
// class's advice bucket as its installation side effect. The actual
// call-site interception protocol (running these records in the right
// order relative to the original method) is driven by pkg/proxy at
// invocation time.
package advice

import (
	"reflect"

	"aspectkit/pkg/joinpoint"
	"aspectkit/pkg/registry"
)

// BeforeFunc runs ahead of the original method. An error aborts the call
// before the original body runs.
type BeforeFunc func(jp *joinpoint.JoinPoint) error

// AfterFunc runs in a guaranteed-release phase once the original method
// completes by any path.
type AfterFunc func(jp *joinpoint.JoinPoint)

// AfterReturningFunc runs only on normal return, and receives the result.
type AfterReturningFunc func(jp *joinpoint.JoinPoint, result any) error

// AfterThrowingFunc runs only on abrupt termination, and receives the
// error that was thrown.
type AfterThrowingFunc func(jp *joinpoint.JoinPoint, err error) error

// ProceedFunc invokes the original method with its original actuals. It
// is the "proceed" thunk appended as the around advice's final argument.
type ProceedFunc func() (any, error)

// AroundFunc runs in place of the original call; calling proceed invokes
// the original.
type AroundFunc func(jp *joinpoint.JoinPoint, proceed ProceedFunc) (any, error)

// Before builds a before-advice record for pointcutText and installs it
// on targetType's Before bucket in reg.
func Before(reg *registry.Registry, targetType reflect.Type, pointcutText string, fn BeforeFunc) registry.Record {
	rec := registry.Record{
		PointcutText: pointcutText,
		Advice: func(jp *joinpoint.JoinPoint, _ ...any) (any, error) {
			return nil, fn(jp)
		},
	}
	reg.Append(targetType, registry.Before, rec)
	return rec
}

// After builds an after-advice record for pointcutText and installs it
// on targetType's After bucket in reg.
func After(reg *registry.Registry, targetType reflect.Type, pointcutText string, fn AfterFunc) registry.Record {
	rec := registry.Record{
		PointcutText: pointcutText,
		Advice: func(jp *joinpoint.JoinPoint, _ ...any) (any, error) {
			fn(jp)
			return nil, nil
		},
	}
	reg.Append(targetType, registry.After, rec)
	return rec
}

// AfterReturning builds an afterReturning-advice record for pointcutText
// and installs it on targetType's AfterReturning bucket in reg.
func AfterReturning(reg *registry.Registry, targetType reflect.Type, pointcutText string, fn AfterReturningFunc) registry.Record {
	rec := registry.Record{
		PointcutText: pointcutText,
		Advice: func(jp *joinpoint.JoinPoint, args ...any) (any, error) {
			var result any
			if len(args) > 0 {
				result = args[0]
			}
			return nil, fn(jp, result)
		},
	}
	reg.Append(targetType, registry.AfterReturning, rec)
	return rec
}

// AfterThrowing builds an afterThrowing-advice record for pointcutText
// and installs it on targetType's AfterThrowing bucket in reg. The
// caller's error is re-propagated by the proxy after the advice runs,
// regardless of what this advice returns.
func AfterThrowing(reg *registry.Registry, targetType reflect.Type, pointcutText string, fn AfterThrowingFunc) registry.Record {
	rec := registry.Record{
		PointcutText: pointcutText,
		Advice: func(jp *joinpoint.JoinPoint, args ...any) (any, error) {
			var thrown error
			if len(args) > 0 {
				thrown, _ = args[0].(error)
			}
			return nil, fn(jp, thrown)
		},
	}
	reg.Append(targetType, registry.AfterThrowing, rec)
	return rec
}

// Around builds an around-advice record for pointcutText and installs it
// on targetType's Around bucket in reg. The advice receives a proceed
// thunk and runs instead of the original call unless it invokes proceed.
func Around(reg *registry.Registry, targetType reflect.Type, pointcutText string, fn AroundFunc) registry.Record {
	rec := registry.Record{
		PointcutText: pointcutText,
		Advice: func(jp *joinpoint.JoinPoint, args ...any) (any, error) {
			var proceed ProceedFunc
			if len(args) > 0 {
				proceed, _ = args[0].(ProceedFunc)
			}
			return fn(jp, proceed)
		},
	}
	reg.Append(targetType, registry.Around, rec)
	return rec
}
