package numeric

import (
	"math"
	"math/big"

	"github.com/sandrolain/goscheme/pkg/types"
)

// Op selects an n-ary arithmetic operation.
type Op uint8

// Arithmetic operations.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

var opNames = [...]string{"+", "-", "*", "/"}

func (op Op) String() string {
	return opNames[op]
}

var errDivByZero = types.NewError(types.ErrBadArgument, "division by zero")

// DivisionByZero returns a fresh zero-divisor condition.
func DivisionByZero() *types.Error {
	e := *errDivByZero
	return &e
}

// Compute folds op over args left to right. (+) is 0, (*) is 1, unary - and
// / negate and invert. The argument list is categorized once; the fold runs
// in that single representation, escalating to big integers only when a
// machine-word fold overflows.
func Compute(op Op, args []types.Value) (types.Value, error) {
	if len(args) == 0 {
		switch op {
		case OpAdd:
			return 0, nil
		case OpMul:
			return 1, nil
		}
		return nil, types.Errorf(types.ErrBadArgument, "%s requires at least one argument", op)
	}
	cat, err := CategorizeList(args)
	if err != nil {
		return nil, err
	}
	if op == OpDiv && cat < CatRational {
		cat = CatRational
	}
	switch cat {
	case CatInt, CatLong:
		if v, ok := computeLong(op, args); ok {
			return Pack(v), nil
		}
		return Pack(computeBig(op, args)), nil
	case CatBigInt:
		return Pack(computeBig(op, args)), nil
	case CatRational:
		r, err := computeRat(op, args)
		if err != nil {
			return nil, err
		}
		return Pack(r), nil
	case CatDecimal:
		return computeDecimal(op, args), nil
	case CatDouble:
		return computeFloat(op, args), nil
	default:
		return math.NaN(), nil
	}
}

func add64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func sub64(a, b int64) (int64, bool) {
	c := a - b
	if (c < a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (c < 0) != ((a < 0) != (b < 0)) || c/b != a {
		return 0, false
	}
	return c, true
}

// computeLong reports false on overflow; the caller redoes the fold in the
// big-integer category.
func computeLong(op Op, args []types.Value) (int64, bool) {
	acc := toInt64(args[0])
	if len(args) == 1 {
		switch op {
		case OpSub:
			if acc == math.MinInt64 {
				return 0, false
			}
			return -acc, true
		default:
			return acc, true
		}
	}
	var ok bool
	for _, a := range args[1:] {
		n := toInt64(a)
		switch op {
		case OpAdd:
			acc, ok = add64(acc, n)
		case OpSub:
			acc, ok = sub64(acc, n)
		case OpMul:
			acc, ok = mul64(acc, n)
		}
		if !ok {
			return 0, false
		}
	}
	return acc, true
}

func computeBig(op Op, args []types.Value) *big.Int {
	acc := toBig(args[0])
	if len(args) == 1 {
		if op == OpSub {
			acc.Neg(acc)
		}
		return acc
	}
	var tmp *big.Int
	for _, a := range args[1:] {
		switch n := a.(type) {
		case *big.Int:
			tmp = n
		default:
			tmp = big.NewInt(toInt64(n))
		}
		switch op {
		case OpAdd:
			acc.Add(acc, tmp)
		case OpSub:
			acc.Sub(acc, tmp)
		case OpMul:
			acc.Mul(acc, tmp)
		}
	}
	return acc
}

func computeRat(op Op, args []types.Value) (*big.Rat, error) {
	acc := toRat(args[0])
	if len(args) == 1 {
		switch op {
		case OpSub:
			acc.Neg(acc)
		case OpDiv:
			if acc.Sign() == 0 {
				return nil, DivisionByZero()
			}
			acc.Inv(acc)
		}
		return acc, nil
	}
	for _, a := range args[1:] {
		n := toRat(a)
		switch op {
		case OpAdd:
			acc.Add(acc, n)
		case OpSub:
			acc.Sub(acc, n)
		case OpMul:
			acc.Mul(acc, n)
		case OpDiv:
			if n.Sign() == 0 {
				return nil, DivisionByZero()
			}
			acc.Quo(acc, n)
		}
	}
	return acc, nil
}

func computeDecimal(op Op, args []types.Value) types.Value {
	acc := toDecimal(args[0])
	if len(args) == 1 {
		switch op {
		case OpSub:
			acc.Neg(acc)
		case OpDiv:
			if acc.Sign() == 0 {
				return math.Inf(1)
			}
			acc.Quo(new(big.Float).SetPrec(decimalPrec).SetInt64(1), acc)
		}
		return acc
	}
	for _, a := range args[1:] {
		n := toDecimal(a)
		switch op {
		case OpAdd:
			acc.Add(acc, n)
		case OpSub:
			acc.Sub(acc, n)
		case OpMul:
			acc.Mul(acc, n)
		case OpDiv:
			if n.Sign() == 0 {
				// big.Float has no NaN and panics on 0/0; answer in doubles.
				switch acc.Sign() {
				case 1:
					return math.Inf(1)
				case -1:
					return math.Inf(-1)
				}
				return math.NaN()
			}
			acc.Quo(acc, n)
		}
	}
	return acc
}

func computeFloat(op Op, args []types.Value) float64 {
	acc := mustFloat(args[0])
	if len(args) == 1 {
		switch op {
		case OpSub:
			return -acc
		case OpDiv:
			return 1 / acc
		}
		return acc
	}
	for _, a := range args[1:] {
		n := mustFloat(a)
		switch op {
		case OpAdd:
			acc += n
		case OpSub:
			acc -= n
		case OpMul:
			acc *= n
		case OpDiv:
			acc /= n
		}
	}
	return acc
}
