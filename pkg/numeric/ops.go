package numeric

import (
	"math"
	"math/big"

	"github.com/sandrolain/goscheme/pkg/types"
)

// maxExptBits bounds the size of exact powers.
const maxExptBits = 1 << 24

func notNumber(v types.Value) *types.Error {
	return types.NewError(types.ErrBadType, "not a number", v)
}

func notInteger(v types.Value) *types.Error {
	return types.NewError(types.ErrBadType, "not an integer", v)
}

func domainError(op string, v types.Value) *types.Error {
	return types.NewError(types.ErrBadArgument, op+": argument out of domain", v)
}

// IsInteger reports whether v is an integer, exact or inexact.
func IsInteger(v types.Value) bool {
	switch n := v.(type) {
	case int, int64, *big.Int:
		return true
	case *big.Rat:
		return n.IsInt()
	case *big.Float:
		return n.IsInt()
	case float64:
		return !math.IsInf(n, 0) && !math.IsNaN(n) && math.Trunc(n) == n
	}
	return false
}

// IsExactInteger reports whether v is an exact integer.
func IsExactInteger(v types.Value) bool {
	switch v.(type) {
	case int, int64, *big.Int:
		return true
	}
	return false
}

// IsRational reports whether v is exact or a finite inexact number.
func IsRational(v types.Value) bool {
	switch n := v.(type) {
	case int, int64, *big.Int, *big.Rat, *big.Float:
		return true
	case float64:
		return !math.IsInf(n, 0) && !math.IsNaN(n)
	}
	return false
}

// IsExact reports whether v is an exact number.
func IsExact(v types.Value) (bool, error) {
	c := Categorize(v)
	if c == CatNone {
		return false, notNumber(v)
	}
	return c.Exact(), nil
}

// IsNaN reports whether v is the not-a-number value.
func IsNaN(v types.Value) bool {
	return Categorize(v) == CatNaN
}

// Sign returns -1, 0 or 1. NaN reports ok false.
func Sign(v types.Value) (s int, ok bool, err error) {
	switch Categorize(v) {
	case CatNone:
		return 0, false, notNumber(v)
	case CatNaN:
		return 0, false, nil
	}
	return sign(v), true, nil
}

// IsOdd reports whether the integer v is odd.
func IsOdd(v types.Value) (bool, error) {
	switch n := v.(type) {
	case int:
		return n%2 != 0, nil
	case int64:
		return n%2 != 0, nil
	case *big.Int:
		return n.Bit(0) == 1, nil
	}
	if !IsInteger(v) {
		return false, notInteger(v)
	}
	ex, err := ToExact(v)
	if err != nil {
		return false, err
	}
	return IsOdd(ex)
}

// IsEven reports whether the integer v is even.
func IsEven(v types.Value) (bool, error) {
	odd, err := IsOdd(v)
	return !odd, err
}

// DivOp selects an integer division.
type DivOp uint8

// Integer divisions.
const (
	// DivQuotient truncates toward zero.
	DivQuotient DivOp = iota
	// DivRemainder has the sign of the dividend.
	DivRemainder
	// DivModulo has the sign of the divisor.
	DivModulo
)

var divNames = [...]string{"quotient", "remainder", "modulo"}

func (op DivOp) String() string {
	return divNames[op]
}

// IntegerDivide implements quotient, remainder and modulo. Both operands must
// be integers and the divisor non-zero. Inexact integer operands give an
// inexact result.
func IntegerDivide(op DivOp, a, b types.Value) (types.Value, error) {
	for _, v := range [2]types.Value{a, b} {
		if !IsNumber(v) {
			return nil, notNumber(v)
		}
		if !IsInteger(v) {
			return nil, types.NewError(types.ErrBadType, op.String()+": not an integer", v)
		}
	}
	if sign(b) == 0 {
		return nil, DivisionByZero()
	}
	ca, cb := Categorize(a), Categorize(b)
	if !ca.Exact() || !cb.Exact() {
		x, y := mustFloat(a), mustFloat(b)
		switch op {
		case DivQuotient:
			return math.Trunc(x / y), nil
		case DivRemainder:
			return math.Mod(x, y), nil
		default:
			r := math.Mod(x, y)
			if r != 0 && (r < 0) != (y < 0) {
				r += y
			}
			return r, nil
		}
	}
	if ca == CatInt && cb == CatInt {
		x, y := a.(int), b.(int)
		switch op {
		case DivQuotient:
			return Pack(int64(x) / int64(y)), nil
		case DivRemainder:
			return x % y, nil
		default:
			r := x % y
			if r != 0 && (r < 0) != (y < 0) {
				r += y
			}
			return r, nil
		}
	}
	bx, by := exactInt(a), exactInt(b)
	q, r := new(big.Int).QuoRem(bx, by, new(big.Int))
	switch op {
	case DivQuotient:
		return Pack(q), nil
	case DivRemainder:
		return Pack(r), nil
	default:
		if r.Sign() != 0 && r.Sign() != by.Sign() {
			r.Add(r, by)
		}
		return Pack(r), nil
	}
}

// exactInt returns a fresh *big.Int for an exact integer or an integral
// rational.
func exactInt(v types.Value) *big.Int {
	if r, ok := v.(*big.Rat); ok {
		return new(big.Int).Set(r.Num())
	}
	return toBig(v)
}

// Expt raises base to power. An exact base with an exact integer exponent
// gives an exact result; (expt 0 0) and (expt x 0) for exact x are exactly 1.
// Any inexact or non-integer exponent is computed with math.Pow.
func Expt(base, power types.Value) (types.Value, error) {
	cb, cp := Categorize(base), Categorize(power)
	if cb == CatNone {
		return nil, notNumber(base)
	}
	if cp == CatNone {
		return nil, notNumber(power)
	}
	if cb == CatNaN || cp == CatNaN {
		return math.NaN(), nil
	}
	if !IsExactInteger(power) || !cb.Exact() {
		return math.Pow(mustFloat(base), mustFloat(power)), nil
	}
	e := toBig(power)
	if e.Sign() == 0 {
		return 1, nil
	}
	neg := e.Sign() < 0
	if neg {
		e.Neg(e)
	}
	if sign(base) == 0 {
		if neg {
			return nil, DivisionByZero()
		}
		return 0, nil
	}
	b := toRat(base)
	num, den := b.Num(), b.Denom()
	if num.CmpAbs(bigOne) == 0 && den.Cmp(bigOne) == 0 {
		// Powers of 1 and -1 never grow.
		if num.Sign() < 0 && e.Bit(0) == 1 {
			return -1, nil
		}
		return 1, nil
	}
	if !e.IsInt64() || int64(num.BitLen()+den.BitLen())*e.Int64() > maxExptBits {
		return nil, types.NewError(types.ErrBadArgument, "expt: result too large", base, power)
	}
	pn := new(big.Int).Exp(num, e, nil)
	pd := new(big.Int).Exp(den, e, nil)
	var r *big.Rat
	if neg {
		r = new(big.Rat).SetFrac(pd, pn)
	} else {
		r = new(big.Rat).SetFrac(pn, pd)
	}
	return Pack(r), nil
}

// Sqrt returns the square root. Exact perfect squares (and rationals whose
// parts are perfect squares) stay exact. Negative arguments are a domain
// error.
func Sqrt(v types.Value) (types.Value, error) {
	switch Categorize(v) {
	case CatNone:
		return nil, notNumber(v)
	case CatNaN:
		return v, nil
	}
	if sign(v) < 0 {
		return nil, domainError("sqrt", v)
	}
	switch n := v.(type) {
	case int, int64, *big.Int:
		b := toBig(n)
		s := new(big.Int).Sqrt(b)
		if new(big.Int).Mul(s, s).Cmp(b) == 0 {
			return Pack(s), nil
		}
	case *big.Rat:
		sn := new(big.Int).Sqrt(n.Num())
		sd := new(big.Int).Sqrt(n.Denom())
		if new(big.Int).Mul(sn, sn).Cmp(n.Num()) == 0 && new(big.Int).Mul(sd, sd).Cmp(n.Denom()) == 0 {
			return Pack(new(big.Rat).SetFrac(sn, sd)), nil
		}
	case *big.Float:
		return new(big.Float).SetPrec(decimalPrec).Sqrt(n), nil
	}
	return math.Sqrt(mustFloat(v)), nil
}

// ExactIntegerSqrt returns s and r with s*s + r = n for a non-negative exact
// integer n.
func ExactIntegerSqrt(v types.Value) (types.Value, types.Value, error) {
	if !IsExactInteger(v) {
		return nil, nil, types.NewError(types.ErrBadType, "not an exact integer", v)
	}
	if sign(v) < 0 {
		return nil, nil, domainError("exact-integer-sqrt", v)
	}
	n := toBig(v)
	s := new(big.Int).Sqrt(n)
	r := new(big.Int).Sub(n, new(big.Int).Mul(s, s))
	return Pack(s), Pack(r), nil
}

// Log returns the natural logarithm. Non-positive arguments are a domain
// error.
func Log(v types.Value) (types.Value, error) {
	switch Categorize(v) {
	case CatNone:
		return nil, notNumber(v)
	case CatNaN:
		return v, nil
	}
	if sign(v) <= 0 {
		return nil, domainError("log", v)
	}
	switch n := v.(type) {
	case *big.Int:
		return logBig(n), nil
	case *big.Rat:
		f, _ := n.Float64()
		if f == 0 || math.IsInf(f, 0) {
			return logBig(n.Num()) - logBig(n.Denom()), nil
		}
		return math.Log(f), nil
	}
	return math.Log(mustFloat(v)), nil
}

// logBig handles integers beyond the float64 range.
func logBig(n *big.Int) float64 {
	bits := n.BitLen()
	if bits < 1000 {
		f, _ := new(big.Float).SetInt(n).Float64()
		return math.Log(f)
	}
	shift := uint(bits - 64)
	top := new(big.Int).Rsh(n, shift)
	f, _ := new(big.Float).SetInt(top).Float64()
	return math.Log(f) + float64(shift)*math.Ln2
}

// LogBase returns the logarithm of v in the given base.
func LogBase(v, base types.Value) (types.Value, error) {
	lv, err := Log(v)
	if err != nil {
		return nil, err
	}
	lb, err := Log(base)
	if err != nil {
		return nil, err
	}
	return mustFloat(lv) / mustFloat(lb), nil
}

// Transcendental applies fn to v as a float64. The result is always inexact.
func Transcendental(fn func(float64) float64, v types.Value) (types.Value, error) {
	f, ok := ToFloat(v)
	if !ok {
		return nil, notNumber(v)
	}
	return fn(f), nil
}

// Atan2 is the two-argument arctangent.
func Atan2(y, x types.Value) (types.Value, error) {
	fy, ok := ToFloat(y)
	if !ok {
		return nil, notNumber(y)
	}
	fx, ok := ToFloat(x)
	if !ok {
		return nil, notNumber(x)
	}
	return math.Atan2(fy, fx), nil
}

// Abs returns the absolute value. The most negative machine integer widens to
// a big integer.
func Abs(v types.Value) (types.Value, error) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return Pack(-int64(n)), nil
		}
		return n, nil
	case int64:
		if n == math.MinInt64 {
			return new(big.Int).Neg(big.NewInt(n)), nil
		}
		if n < 0 {
			return Pack(-n), nil
		}
		return n, nil
	case *big.Int:
		return Pack(new(big.Int).Abs(n)), nil
	case *big.Rat:
		return new(big.Rat).Abs(n), nil
	case *big.Float:
		return new(big.Float).SetPrec(decimalPrec).Abs(n), nil
	case float64:
		return math.Abs(n), nil
	}
	return nil, notNumber(v)
}

// RoundOp selects a rounding mode.
type RoundOp uint8

// Rounding modes.
const (
	RoundFloor RoundOp = iota
	RoundCeiling
	RoundTruncate
	// RoundNearest rounds half to even.
	RoundNearest
)

// Round rounds v to an integer of the same exactness.
func Round(op RoundOp, v types.Value) (types.Value, error) {
	switch n := v.(type) {
	case int, int64, *big.Int:
		return n, nil
	case *big.Rat:
		return Pack(roundRat(op, n)), nil
	case *big.Float:
		r, _ := n.Rat(nil)
		return new(big.Float).SetPrec(decimalPrec).SetInt(roundRat(op, r)), nil
	case float64:
		switch op {
		case RoundFloor:
			return math.Floor(n), nil
		case RoundCeiling:
			return math.Ceil(n), nil
		case RoundTruncate:
			return math.Trunc(n), nil
		default:
			return math.RoundToEven(n), nil
		}
	}
	return nil, notNumber(v)
}

func roundRat(op RoundOp, r *big.Rat) *big.Int {
	num, den := r.Num(), r.Denom()
	// Denominators are positive, so Euclidean division floors.
	floor := new(big.Int).Div(num, den)
	switch op {
	case RoundFloor:
		return floor
	case RoundCeiling:
		if !r.IsInt() {
			floor.Add(floor, bigOne)
		}
		return floor
	case RoundTruncate:
		return new(big.Int).Quo(num, den)
	}
	frac := new(big.Rat).Sub(r, new(big.Rat).SetInt(floor))
	switch frac.Cmp(big.NewRat(1, 2)) {
	case -1:
		return floor
	case 1:
		return floor.Add(floor, bigOne)
	}
	if floor.Bit(0) == 1 {
		floor.Add(floor, bigOne)
	}
	return floor
}

// Numerator returns the numerator in lowest terms, keeping exactness.
func Numerator(v types.Value) (types.Value, error) {
	return fraction(v, true)
}

// Denominator returns the positive denominator in lowest terms.
func Denominator(v types.Value) (types.Value, error) {
	return fraction(v, false)
}

func fraction(v types.Value, num bool) (types.Value, error) {
	switch n := v.(type) {
	case int, int64, *big.Int:
		if num {
			return n, nil
		}
		return 1, nil
	case *big.Rat:
		if num {
			return Pack(new(big.Int).Set(n.Num())), nil
		}
		return Pack(new(big.Int).Set(n.Denom())), nil
	}
	if !IsNumber(v) {
		return nil, notNumber(v)
	}
	ex, err := ToExact(v)
	if err != nil {
		return nil, err
	}
	r, err := fraction(ex, num)
	if err != nil {
		return nil, err
	}
	return ToInexact(r)
}

// Gcd returns the greatest common divisor of integer args; (gcd) is 0.
func Gcd(args []types.Value) (types.Value, error) {
	return gcdLcm(args, true)
}

// Lcm returns the least common multiple of integer args; (lcm) is 1.
func Lcm(args []types.Value) (types.Value, error) {
	return gcdLcm(args, false)
}

func gcdLcm(args []types.Value, gcd bool) (types.Value, error) {
	acc := big.NewInt(0)
	if !gcd {
		acc.SetInt64(1)
	}
	exact := true
	for _, a := range args {
		if !IsNumber(a) {
			return nil, notNumber(a)
		}
		if !IsInteger(a) {
			return nil, notInteger(a)
		}
		if !Categorize(a).Exact() {
			exact = false
			ea, err := ToExact(a)
			if err != nil {
				return nil, err
			}
			a = ea
		}
		n := new(big.Int).Abs(exactInt(a))
		if gcd {
			acc.GCD(nil, nil, acc, n)
			continue
		}
		if n.Sign() == 0 {
			acc.SetInt64(0)
			continue
		}
		if acc.Sign() == 0 {
			continue
		}
		g := new(big.Int).GCD(nil, nil, acc, n)
		acc.Mul(acc, n.Quo(n, g))
	}
	if exact {
		return Pack(acc), nil
	}
	return ToInexact(Pack(acc))
}

// ToExact converts v to an exact number. Infinities and NaN have no exact
// counterpart.
func ToExact(v types.Value) (types.Value, error) {
	switch n := v.(type) {
	case int, int64, *big.Int, *big.Rat:
		return n, nil
	case *big.Float:
		r, _ := n.Rat(nil)
		return Pack(r), nil
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, types.NewError(types.ErrBadArgument, "no exact representation", n)
		}
		return Pack(new(big.Rat).SetFloat64(n)), nil
	}
	return nil, notNumber(v)
}

// ToInexact converts v to a float64. Decimals are already inexact and are
// returned unchanged.
func ToInexact(v types.Value) (types.Value, error) {
	switch n := v.(type) {
	case *big.Float, float64:
		return n, nil
	}
	f, ok := ToFloat(v)
	if !ok {
		return nil, notNumber(v)
	}
	return f, nil
}
