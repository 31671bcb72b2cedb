package evaluator

import (
	"reflect"

	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// eq reports identity. Values of incomparable Go types are never eq to
// anything but themselves, which cannot be observed, so they compare false.
func eq(a, b types.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// eqv extends eq to numbers of the same exactness and equal value.
func eqv(a, b types.Value) bool {
	if numeric.IsNumber(a) && numeric.IsNumber(b) {
		return numeric.Eqv(a, b)
	}
	return eq(a, b)
}

// equal compares pairs, vectors and strings structurally. Lists are walked
// along their cdrs without recursion.
func equal(a, b types.Value) bool {
	for {
		switch x := a.(type) {
		case *types.Pair:
			y, ok := b.(*types.Pair)
			if !ok {
				return false
			}
			if x == y {
				return true
			}
			if !equal(x.Car, y.Car) {
				return false
			}
			a, b = x.Cdr, y.Cdr
			continue
		case *types.Vector:
			y, ok := b.(*types.Vector)
			if !ok || len(x.Items) != len(y.Items) {
				return false
			}
			for i := range x.Items {
				if !equal(x.Items[i], y.Items[i]) {
					return false
				}
			}
			return true
		case string, *types.MString:
			sa, _ := argString("", x)
			sb, err := argString("", b)
			return err == nil && sa == sb
		}
		return eqv(a, b)
	}
}

func equivalence(fn func(a, b types.Value) bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return fn(args[0], args[1]), nil
	}
}

func fnNot(_ *Evaluator, args []types.Value) (types.Value, error) {
	return args[0] == false, nil
}

// typeTest builds a one-argument type predicate.
func typeTest(test func(types.Value) bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return test(args[0]), nil
	}
}

func isBoolean(v types.Value) bool {
	_, ok := v.(bool)
	return ok
}

func isPair(v types.Value) bool {
	_, ok := v.(*types.Pair)
	return ok
}

func isNull(v types.Value) bool {
	return v == types.Nil
}

func isSymbol(v types.Value) bool {
	_, ok := v.(*types.Symbol)
	return ok
}

func isString(v types.Value) bool {
	switch v.(type) {
	case string, *types.MString:
		return true
	}
	return false
}

func isChar(v types.Value) bool {
	_, ok := v.(types.Char)
	return ok
}

func isVector(v types.Value) bool {
	_, ok := v.(*types.Vector)
	return ok
}

func isProcedure(v types.Value) bool {
	op, ok := v.(Applicable)
	return ok && !op.Syntactic()
}

func fnBooleanEq(_ *Evaluator, args []types.Value) (types.Value, error) {
	for _, a := range args {
		if !isBoolean(a) {
			return nil, badType("boolean=?", "boolean", a)
		}
	}
	for i := 1; i < len(args); i++ {
		if args[i] != args[0] {
			return false, nil
		}
	}
	return true, nil
}
