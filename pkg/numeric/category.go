// Package numeric implements the exact/inexact numeric tower.
//
// Numbers are plain Go values: int (machine integer, always within int32
// range after packing), int64 (machine long), *big.Int, *big.Rat, *big.Float
// (decimal) and float64. Big values are treated as immutable: every
// operation allocates its result and never modifies an argument.
//
// N-ary operations categorize their whole argument list once and then run a
// single loop over one representation. Exact results are packed back down to
// the least general representation that holds them.
package numeric

import (
	"math"
	"math/big"

	"github.com/sandrolain/goscheme/pkg/types"
)

// Category ranks representations by generality.
type Category uint8

// Categories, least general first.
const (
	CatNone Category = iota // not a number
	CatInt
	CatLong
	CatBigInt
	CatRational
	CatDecimal
	CatDouble
	CatNaN
)

var categoryNames = [...]string{"none", "int", "long", "bigint", "rational", "decimal", "double", "nan"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Exact reports whether values of the category are exact.
func (c Category) Exact() bool {
	return c >= CatInt && c <= CatRational
}

// decimalPrec is the mantissa precision used for *big.Float arithmetic.
const decimalPrec = 256

// Categorize returns the category of a single value.
func Categorize(v types.Value) Category {
	switch n := v.(type) {
	case int:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return CatInt
		}
		return CatLong
	case int64:
		return CatLong
	case *big.Int:
		return CatBigInt
	case *big.Rat:
		return CatRational
	case *big.Float:
		return CatDecimal
	case float64:
		if math.IsNaN(n) {
			return CatNaN
		}
		return CatDouble
	}
	return CatNone
}

// IsNumber reports whether v is any numeric representation.
func IsNumber(v types.Value) bool {
	return Categorize(v) != CatNone
}

// CategorizeList returns the most general category across args in one pass.
// A non-number argument is a bad-type error.
func CategorizeList(args []types.Value) (Category, error) {
	cat := CatInt
	for _, a := range args {
		c := Categorize(a)
		if c == CatNone {
			return CatNone, types.NewError(types.ErrBadType, "not a number", a)
		}
		if c > cat {
			cat = c
		}
	}
	return cat, nil
}

// Pack demotes an exact value to the least general representation that holds
// it exactly. Inexact values are returned unchanged.
func Pack(v types.Value) types.Value {
	switch n := v.(type) {
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return int64(n)
		}
		return n
	case int64:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return int(n)
		}
		return n
	case *big.Int:
		if n.IsInt64() {
			return Pack(n.Int64())
		}
		return n
	case *big.Rat:
		if n.IsInt() {
			return Pack(new(big.Int).Set(n.Num()))
		}
		return n
	}
	return v
}

// Normalize converts host numeric types (int8...uint64, float32) into the
// tower's representations. Other values pass through.
func Normalize(v types.Value) types.Value {
	switch n := v.(type) {
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return Pack(int64(n))
	case uint:
		return Pack(new(big.Int).SetUint64(uint64(n)))
	case uint64:
		return Pack(new(big.Int).SetUint64(n))
	case float32:
		return float64(n)
	case int, int64, *big.Int, *big.Rat:
		return Pack(n)
	}
	return v
}

// toInt64 converts an int or int64.
func toInt64(v types.Value) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	}
	panic(types.Internal("toInt64 on %T", v))
}

// toBig returns a fresh *big.Int for an exact integer.
func toBig(v types.Value) *big.Int {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n))
	case int64:
		return big.NewInt(n)
	case *big.Int:
		return new(big.Int).Set(n)
	}
	panic(types.Internal("toBig on %T", v))
}

// toRat returns a fresh *big.Rat for an exact number.
func toRat(v types.Value) *big.Rat {
	switch n := v.(type) {
	case int:
		return new(big.Rat).SetInt64(int64(n))
	case int64:
		return new(big.Rat).SetInt64(n)
	case *big.Int:
		return new(big.Rat).SetInt(n)
	case *big.Rat:
		return new(big.Rat).Set(n)
	}
	panic(types.Internal("toRat on %T", v))
}

// toDecimal returns a fresh *big.Float for any non-double number.
func toDecimal(v types.Value) *big.Float {
	f := new(big.Float).SetPrec(decimalPrec)
	switch n := v.(type) {
	case int:
		return f.SetInt64(int64(n))
	case int64:
		return f.SetInt64(n)
	case *big.Int:
		return f.SetInt(n)
	case *big.Rat:
		return f.SetRat(n)
	case *big.Float:
		return f.Set(n)
	case float64:
		return f.SetFloat64(n)
	}
	panic(types.Internal("toDecimal on %T", v))
}

// ToFloat converts any number to float64.
func ToFloat(v types.Value) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	case *big.Rat:
		f, _ := n.Float64()
		return f, true
	case *big.Float:
		f, _ := n.Float64()
		return f, true
	case float64:
		return n, true
	}
	return 0, false
}

func mustFloat(v types.Value) float64 {
	f, ok := ToFloat(v)
	if !ok {
		panic(types.Internal("mustFloat on %T", v))
	}
	return f
}

// ToInt converts an exact integer that fits in a Go int. It is the usual
// accessor for indices and counts.
func ToInt(v types.Value) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n), true
		}
	}
	return 0, false
}

// sign returns -1, 0 or 1 for any non-NaN number.
func sign(v types.Value) int {
	switch n := v.(type) {
	case int:
		return cmpInt(int64(n), 0)
	case int64:
		return cmpInt(n, 0)
	case *big.Int:
		return n.Sign()
	case *big.Rat:
		return n.Sign()
	case *big.Float:
		return n.Sign()
	case float64:
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		}
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
