package evaluator

import (
	"context"
	"io"

	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// customPrimitive wraps a Go function as a procedure.
func customPrimitive(def functions.CustomFunctionDef) *Primitive {
	minArgs, maxArgs := def.Arity()
	return &Primitive{
		Name:    def.Name,
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Impl: func(e *Evaluator, args []types.Value) (types.Value, error) {
			v, err := def.Fn(e.Context(), args...)
			if err != nil {
				return nil, err
			}
			return fromHost(v), nil
		},
	}
}

// advancedPrimitive wraps a Go function that needs the Host.
func advancedPrimitive(def functions.AdvancedCustomFunctionDef) *Primitive {
	minArgs, maxArgs := def.Arity()
	return &Primitive{
		Name:    def.Name,
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Impl: func(e *Evaluator, args []types.Value) (types.Value, error) {
			v, err := def.Fn(e.Context(), host{e}, args...)
			if err != nil {
				return nil, err
			}
			return fromHost(v), nil
		},
	}
}

// host exposes an evaluator to Go functions.
type host struct {
	e *Evaluator
}

func (h host) Call(ctx context.Context, fn interface{}, args ...interface{}) (interface{}, error) {
	vals := make([]types.Value, len(args))
	for i, a := range args {
		vals[i] = fromHost(a)
	}
	return h.e.Apply(ctx, fn, vals...)
}

func (h host) Track(c io.Closer) {
	h.e.family.resources.mark(c)
}

func (h host) Untrack(c io.Closer) {
	h.e.family.resources.unmark(c)
}

// fromHost converts a value returned by Go code into a Scheme value: Go
// numbers take their place in the numeric tower, nil is unspecified and
// slices become lists.
func fromHost(v interface{}) types.Value {
	switch x := v.(type) {
	case nil:
		return types.Unspecified
	case []interface{}:
		items := make([]types.Value, len(x))
		for i, item := range x {
			items[i] = fromHost(item)
		}
		return types.List(items...)
	case []string:
		items := make([]types.Value, len(x))
		for i, s := range x {
			items[i] = s
		}
		return types.List(items...)
	}
	return numeric.Normalize(v)
}
