// Package functions provides types for registering Go functions as Scheme
// procedures.
//
// Users of goscheme can define their own functions and register them via
// [goscheme.WithCustomFunction] or [goscheme.WithFunctions], making them
// available as ordinary procedures in the top-level environment.
//
// Arguments and results are Scheme values (see pkg/types): exact integers
// arrive as int, int64 or *big.Int, strings as string, lists as *types.Pair.
// Results are normalized, so returning any Go integer type is fine.
//
// # Example
//
//	result, err := goscheme.Eval(`(greet "World")`,
//	    goscheme.WithCustomFunction("greet", 1, 1, func(ctx context.Context, args ...interface{}) (interface{}, error) {
//	        return "Hello, " + args[0].(string) + "!", nil
//	    }),
//	)
//	// result == "Hello, World!"
package functions

import (
	"context"
	"io"
)

// CustomFunc is the signature for user-defined custom functions.
// args contains the evaluated procedure arguments in order.
type CustomFunc func(ctx context.Context, args ...interface{}) (interface{}, error)

// CustomFunctionDef describes a user-defined function together with its
// arity bounds.
type CustomFunctionDef struct {
	// Name is the name the procedure is bound to.
	Name string
	// MinArgs and MaxArgs bound the number of arguments. MaxArgs < 0 means
	// unlimited. Leaving both zero also means unlimited.
	MinArgs int
	MaxArgs int
	// Fn is the implementation.
	Fn CustomFunc
}

// Arity returns the effective arity bounds.
func (c CustomFunctionDef) Arity() (int, int) {
	return arity(c.MinArgs, c.MaxArgs)
}

// Host is the evaluator as seen by an AdvancedCustomFunc.
type Host interface {
	// Call applies a Scheme procedure passed as an argument. The call runs on
	// a spawned sibling evaluator, so it may be made from any goroutine.
	Call(ctx context.Context, fn interface{}, args ...interface{}) (interface{}, error)
	// Track marks c for closing when the evaluator family is cleaned up.
	Track(c io.Closer)
	// Untrack removes c from cleanup, usually because it was closed.
	Untrack(c io.Closer)
}

// AdvancedCustomFunc is like CustomFunc but also receives the Host, so the
// implementation can call procedures passed as arguments and register
// resources for cleanup.
type AdvancedCustomFunc func(ctx context.Context, host Host, args ...interface{}) (interface{}, error)

// AdvancedCustomFunctionDef is the struct counterpart of AdvancedCustomFunc.
type AdvancedCustomFunctionDef struct {
	// Name is the name the procedure is bound to.
	Name string
	// MinArgs and MaxArgs bound the number of arguments, as for
	// CustomFunctionDef.
	MinArgs int
	MaxArgs int
	// Fn is the implementation.
	Fn AdvancedCustomFunc
}

// Arity returns the effective arity bounds.
func (a AdvancedCustomFunctionDef) Arity() (int, int) {
	return arity(a.MinArgs, a.MaxArgs)
}

func arity(min, max int) (int, int) {
	if min == 0 && max == 0 {
		return 0, -1
	}
	return min, max
}

// FunctionEntry is a common marker interface implemented by both
// [CustomFunctionDef] and [AdvancedCustomFunctionDef].
// It allows mixing both kinds in a single variadic call to WithFunctions.
type FunctionEntry interface {
	isFunctionEntry()
}

func (c CustomFunctionDef) isFunctionEntry()         {}
func (a AdvancedCustomFunctionDef) isFunctionEntry() {}
