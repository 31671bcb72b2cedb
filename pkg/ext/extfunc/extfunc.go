// Package extfunc provides functional programming utilities beyond the
// standard procedure set.
package extfunc

import (
	"context"
	"sync"

	"github.com/sandrolain/goscheme/pkg/evaluator"
	"github.com/sandrolain/goscheme/pkg/ext/extutil"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/types"
)

// AllAdvanced returns all functional utility definitions. They need the
// host to call the procedures passed to them.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	return []functions.AdvancedCustomFunctionDef{
		Pipe(),
		Compose(),
		Memoize(),
	}
}

// AllEntries returns all functional utility definitions as
// [functions.FunctionEntry], suitable for spreading into
// [goscheme.WithFunctions].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(AllAdvanced())
}

func argProc(name string, v interface{}) (evaluator.Applicable, error) {
	p, ok := v.(evaluator.Applicable)
	if !ok || p.Syntactic() {
		return nil, types.NewError(types.ErrBadType, name+": expected a procedure", v)
	}
	return p, nil
}

// Pipe returns the definition for (pipe value f1 f2 ...), which threads
// value through the procedures left to right.
//
// Example:
//
//	(pipe "  hello  " string-trim string-upcase)  =>  "HELLO"
func Pipe() functions.AdvancedCustomFunctionDef {
	const name = "pipe"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(ctx context.Context, h functions.Host, args ...interface{}) (interface{}, error) {
			value := args[0]
			for _, fn := range args[1:] {
				if _, err := argProc(name, fn); err != nil {
					return nil, err
				}
				result, err := h.Call(ctx, fn, value)
				if err != nil {
					return nil, err
				}
				value = result
			}
			return value, nil
		},
	}
}

// Compose returns the definition for (compose f g ...), a procedure that
// applies the procedures right to left: ((compose f g) x) is (f (g x)).
// The procedures run on the caller's trampoline, so the composition may be
// captured by call/cc like any other procedure.
func Compose() functions.AdvancedCustomFunctionDef {
	const name = "compose"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(_ context.Context, _ functions.Host, args ...interface{}) (interface{}, error) {
			procs := make([]evaluator.Applicable, len(args))
			for i, a := range args {
				p, err := argProc(name, a)
				if err != nil {
					return nil, err
				}
				procs[i] = p
			}
			var chain func(i int, r evaluator.Result) evaluator.Result
			chain = func(i int, r evaluator.Result) evaluator.Result {
				if i < 0 {
					return r
				}
				return r.Then(evaluator.ContinueWith(func(_ *evaluator.Evaluator, v types.Value) (evaluator.Result, error) {
					return chain(i-1, evaluator.ReturnApplication(procs[i], v)), nil
				}))
			}
			last := len(procs) - 1
			return &evaluator.Primitive{
				Name:    "composition",
				MaxArgs: -1,
				Control: func(_ *evaluator.Evaluator, args []types.Value) (evaluator.Result, error) {
					return chain(last-1, evaluator.ReturnApplication(procs[last], args...)), nil
				},
			}, nil
		},
	}
}

// Memoize returns the definition for (memoize f), a procedure that caches
// the results of f keyed by the written representation of its arguments.
// Each call to memoize creates an independent cache, safe for use by forked
// threads.
func Memoize() functions.AdvancedCustomFunctionDef {
	const name = "memoize"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, _ functions.Host, args ...interface{}) (interface{}, error) {
			fn, err := argProc(name, args[0])
			if err != nil {
				return nil, err
			}
			var cache sync.Map
			return &evaluator.Primitive{
				Name:    "memoized",
				MaxArgs: -1,
				Control: func(_ *evaluator.Evaluator, args []types.Value) (evaluator.Result, error) {
					key := types.String(types.List(args...), true)
					if v, ok := cache.Load(key); ok {
						return evaluator.ReturnValue(v), nil
					}
					store := func(_ *evaluator.Evaluator, v types.Value) (evaluator.Result, error) {
						cache.Store(key, v)
						return evaluator.ReturnValue(v), nil
					}
					return evaluator.ReturnApplication(fn, args...).Then(evaluator.ContinueWith(store)), nil
				},
			}, nil
		},
	}
}
