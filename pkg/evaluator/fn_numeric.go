package evaluator

import (
	"math"

	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// Numeric primitives are thin adapters over the numeric tower.

func arith(op numeric.Op) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return numeric.Compute(op, args)
	}
}

func compare(op numeric.CompareOp) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return numeric.Compare(op, args)
	}
}

func extremum(max bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return numeric.Extremum(max, args)
	}
}

func integerDivide(op numeric.DivOp) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return numeric.IntegerDivide(op, args[0], args[1])
	}
}

func rounding(op numeric.RoundOp) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return numeric.Round(op, args[0])
	}
}

func transcendental(fn func(float64) float64) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return numeric.Transcendental(fn, args[0])
	}
}

func unary(fn func(types.Value) (types.Value, error)) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		return fn(args[0])
	}
}

func fnExpt(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.Expt(args[0], args[1])
}

func fnLog(_ *Evaluator, args []types.Value) (types.Value, error) {
	if len(args) == 2 {
		return numeric.LogBase(args[0], args[1])
	}
	return numeric.Log(args[0])
}

func fnAtan(_ *Evaluator, args []types.Value) (types.Value, error) {
	if len(args) == 2 {
		return numeric.Atan2(args[0], args[1])
	}
	return numeric.Transcendental(math.Atan, args[0])
}

func fnSquare(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.Compute(numeric.OpMul, []types.Value{args[0], args[0]})
}

func fnExactIntegerSqrt(_ *Evaluator, args []types.Value) (Result, error) {
	s, r, err := numeric.ExactIntegerSqrt(args[0])
	if err != nil {
		return Result{}, err
	}
	return ReturnValues([]types.Value{s, r}), nil
}

func fnGcd(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.Gcd(args)
}

func fnLcm(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.Lcm(args)
}

// ── Predicates ──────────────────────────────────────────────────────────────

func fnIsNumber(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.IsNumber(args[0]), nil
}

func fnIsRational(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.IsRational(args[0]), nil
}

func fnIsInteger(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.IsInteger(args[0]), nil
}

func fnIsExactInteger(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.IsExactInteger(args[0]), nil
}

func fnIsExact(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.IsExact(args[0])
}

func fnIsInexact(_ *Evaluator, args []types.Value) (types.Value, error) {
	exact, err := numeric.IsExact(args[0])
	return !exact, err
}

func fnIsNaN(_ *Evaluator, args []types.Value) (types.Value, error) {
	if err := argNumber("nan?", args[0]); err != nil {
		return nil, err
	}
	return numeric.IsNaN(args[0]), nil
}

// signTest builds zero?, positive? and negative?. NaN satisfies none.
func signTest(want int) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		s, ok, err := numeric.Sign(args[0])
		if err != nil {
			return nil, err
		}
		return ok && s == want, nil
	}
}

func fnIsOdd(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.IsOdd(args[0])
}

func fnIsEven(_ *Evaluator, args []types.Value) (types.Value, error) {
	return numeric.IsEven(args[0])
}

// ── Conversion ──────────────────────────────────────────────────────────────

func argRadix(name string, args []types.Value) (int, error) {
	if len(args) < 2 {
		return 10, nil
	}
	r, ok := numeric.ToInt(args[1])
	if !ok {
		return 0, badType(name, "radix", args[1])
	}
	return r, nil
}

func fnNumberToString(_ *Evaluator, args []types.Value) (types.Value, error) {
	radix, err := argRadix("number->string", args)
	if err != nil {
		return nil, err
	}
	return numeric.Format(args[0], radix)
}

func fnStringToNumber(_ *Evaluator, args []types.Value) (types.Value, error) {
	s, err := argString("string->number", args[0])
	if err != nil {
		return nil, err
	}
	radix, err := argRadix("string->number", args)
	if err != nil {
		return nil, err
	}
	if v, ok := numeric.Parse(s, radix); ok {
		return v, nil
	}
	return false, nil
}
