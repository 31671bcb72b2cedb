package numeric

import (
	"math/big"

	"github.com/sandrolain/goscheme/pkg/types"
)

// CompareOp selects a chained comparison.
type CompareOp uint8

// Comparisons.
const (
	CmpEq CompareOp = iota
	CmpLt
	CmpGt
	CmpLe
	CmpGe
)

func (op CompareOp) holds(c int) bool {
	switch op {
	case CmpEq:
		return c == 0
	case CmpLt:
		return c < 0
	case CmpGt:
		return c > 0
	case CmpLe:
		return c <= 0
	default:
		return c >= 0
	}
}

// Compare tests op over each adjacent pair of args, left to right, stopping
// at the first pair that fails. Any NaN makes the comparison false. Every
// argument is type-checked even when the result is decided early.
func Compare(op CompareOp, args []types.Value) (bool, error) {
	cat, err := CategorizeList(args)
	if err != nil {
		return false, err
	}
	if len(args) < 2 {
		return true, nil
	}
	switch cat {
	case CatInt, CatLong:
		prev := toInt64(args[0])
		for _, a := range args[1:] {
			n := toInt64(a)
			if !op.holds(cmpInt(prev, n)) {
				return false, nil
			}
			prev = n
		}
	case CatBigInt:
		prev := toBig(args[0])
		for _, a := range args[1:] {
			n := toBig(a)
			if !op.holds(prev.Cmp(n)) {
				return false, nil
			}
			prev = n
		}
	case CatRational:
		prev := toRat(args[0])
		for _, a := range args[1:] {
			n := toRat(a)
			if !op.holds(prev.Cmp(n)) {
				return false, nil
			}
			prev = n
		}
	case CatDecimal:
		prev := toDecimal(args[0])
		for _, a := range args[1:] {
			n := toDecimal(a)
			if !op.holds(prev.Cmp(n)) {
				return false, nil
			}
			prev = n
		}
	case CatDouble:
		prev := mustFloat(args[0])
		for _, a := range args[1:] {
			n := mustFloat(a)
			c := 0
			if prev < n {
				c = -1
			} else if prev > n {
				c = 1
			}
			if !op.holds(c) {
				return false, nil
			}
			prev = n
		}
	default:
		return false, nil
	}
	return true, nil
}

// Cmp compares two numbers, reporting false if either is NaN.
func Cmp(a, b types.Value) (int, bool, error) {
	args := []types.Value{a, b}
	cat, err := CategorizeList(args)
	if err != nil {
		return 0, false, err
	}
	switch cat {
	case CatInt, CatLong:
		return cmpInt(toInt64(a), toInt64(b)), true, nil
	case CatBigInt:
		return toBig(a).Cmp(toBig(b)), true, nil
	case CatRational:
		return toRat(a).Cmp(toRat(b)), true, nil
	case CatDecimal:
		return toDecimal(a).Cmp(toDecimal(b)), true, nil
	case CatDouble:
		x, y := mustFloat(a), mustFloat(b)
		switch {
		case x < y:
			return -1, true, nil
		case x > y:
			return 1, true, nil
		}
		return 0, true, nil
	}
	return 0, false, nil
}

// Eqv is numeric eqv?: same exactness and equal value.
func Eqv(a, b types.Value) bool {
	ca, cb := Categorize(a), Categorize(b)
	if ca == CatNone || cb == CatNone || ca.Exact() != cb.Exact() {
		return false
	}
	if ca == CatNaN && cb == CatNaN {
		return true
	}
	c, ok, err := Cmp(a, b)
	return err == nil && ok && c == 0
}

// Extremum returns the maximum (max true) or minimum of args. If any
// argument is inexact the result is inexact.
func Extremum(max bool, args []types.Value) (types.Value, error) {
	if len(args) == 0 {
		return nil, types.NewError(types.ErrBadArgument, "at least one argument required")
	}
	cat, err := CategorizeList(args)
	if err != nil {
		return nil, err
	}
	if cat == CatNaN {
		return mustNaN(), nil
	}
	best := args[0]
	for _, a := range args[1:] {
		c, _, _ := Cmp(a, best)
		if (max && c > 0) || (!max && c < 0) {
			best = a
		}
	}
	if !cat.Exact() && Categorize(best).Exact() {
		if cat == CatDecimal {
			return toDecimal(best), nil
		}
		return mustFloat(best), nil
	}
	return best, nil
}

func mustNaN() float64 {
	var zero float64
	return zero / zero
}

// bigOne is shared read-only.
var bigOne = big.NewInt(1)
