package numeric

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/sandrolain/goscheme/pkg/types"
)

// maxExactExponent bounds the power of ten an exact decimal may carry.
const maxExactExponent = 100000

type exactness uint8

const (
	exactDefault exactness = iota
	exactForce
	inexactForce
)

// Parse reads the external representation of a number in the given default
// radix. It reports false when s is not a number, so the reader can fall
// back to a symbol.
//
// The syntax is: any of #e #i #b #o #d #x (each at most once, in any order),
// then +inf.0, -inf.0, +nan.0, or an optionally signed integer, rational
// (n/d) or decimal. Decimals are only valid in radix 10. Trailing # digits
// read as 0 and make the number inexact.
func Parse(s string, radix int) (types.Value, bool) {
	ex := exactDefault
	sawRadix := false
	for len(s) >= 2 && s[0] == '#' {
		switch s[1] {
		case 'e', 'E', 'i', 'I':
			if ex != exactDefault {
				return nil, false
			}
			ex = exactForce
			if s[1] == 'i' || s[1] == 'I' {
				ex = inexactForce
			}
		case 'b', 'B', 'o', 'O', 'd', 'D', 'x', 'X':
			if sawRadix {
				return nil, false
			}
			sawRadix = true
			radix = radixOf(s[1])
		default:
			return nil, false
		}
		s = s[2:]
	}
	if s == "" {
		return nil, false
	}
	switch strings.ToLower(s) {
	case "+inf.0":
		return applyExactness(math.Inf(1), ex)
	case "-inf.0":
		return applyExactness(math.Inf(-1), ex)
	case "+nan.0", "-nan.0":
		return applyExactness(math.NaN(), ex)
	}
	neg := false
	body := s
	switch body[0] {
	case '+', '-':
		neg = body[0] == '-'
		body = body[1:]
	}
	if body == "" {
		return nil, false
	}
	if i := strings.IndexByte(body, '/'); i >= 0 {
		return parseRational(body[:i], body[i+1:], neg, radix, ex)
	}
	if isInteger(body, radix) {
		digits, hashed, ok := fillHashes(body)
		if !ok {
			return nil, false
		}
		n, ok := new(big.Int).SetString(digits, radix)
		if !ok {
			return nil, false
		}
		if neg {
			n.Neg(n)
		}
		if hashed && ex == exactDefault {
			ex = inexactForce
		}
		return applyExactness(Pack(n), ex)
	}
	if radix != 10 {
		return nil, false
	}
	return parseDecimal(s, ex)
}

func radixOf(c byte) int {
	switch c {
	case 'b', 'B':
		return 2
	case 'o', 'O':
		return 8
	case 'x', 'X':
		return 16
	}
	return 10
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 99
}

// isInteger reports whether s is digits of radix followed by optional '#'s.
func isInteger(s string, radix int) bool {
	if s == "" || s[0] == '#' {
		return false
	}
	hashes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '#' {
			hashes = true
			continue
		}
		if hashes || digitValue(c) >= radix {
			return false
		}
	}
	return true
}

// fillHashes replaces trailing '#' placeholders with zeros.
func fillHashes(s string) (string, bool, bool) {
	i := strings.IndexByte(s, '#')
	if i < 0 {
		return s, false, true
	}
	if i == 0 || strings.Trim(s[i:], "#") != "" {
		return "", false, false
	}
	return s[:i] + strings.Repeat("0", len(s)-i), true, true
}

func parseRational(ns, ds string, neg bool, radix int, ex exactness) (types.Value, bool) {
	if !isInteger(ns, radix) || !isInteger(ds, radix) {
		return nil, false
	}
	ns, h1, ok1 := fillHashes(ns)
	ds, h2, ok2 := fillHashes(ds)
	if !ok1 || !ok2 {
		return nil, false
	}
	if (h1 || h2) && ex == exactDefault {
		ex = inexactForce
	}
	num, ok := new(big.Int).SetString(ns, radix)
	if !ok {
		return nil, false
	}
	den, ok := new(big.Int).SetString(ds, radix)
	if !ok {
		return nil, false
	}
	if neg {
		num.Neg(num)
	}
	if den.Sign() == 0 {
		if ex != inexactForce {
			return nil, false
		}
		if num.Sign() == 0 {
			return math.NaN(), true
		}
		return math.Inf(num.Sign()), true
	}
	return applyExactness(Pack(new(big.Rat).SetFrac(num, den)), ex)
}

// parseDecimal handles digits with a point and/or an exponent marker
// (e s f d l). Exact decimals are rewritten as integer or n/10^k text and
// read again through the integer and rational paths.
func parseDecimal(s string, ex exactness) (types.Value, bool) {
	neg := false
	body := s
	switch body[0] {
	case '+', '-':
		neg = body[0] == '-'
		body = body[1:]
	}
	mant, exp := body, ""
	if i := strings.IndexAny(body, "eEsSfFdDlL"); i >= 0 {
		mant, exp = body[:i], body[i+1:]
		if exp == "" {
			return nil, false
		}
	}
	intPart, fracPart := mant, ""
	if i := strings.IndexByte(mant, '.'); i >= 0 {
		intPart, fracPart = mant[:i], mant[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, false
	}
	if (intPart != "" && intPart[0] == '#') || (intPart == "" && fracPart[0] == '#') {
		return nil, false
	}
	digits := intPart + fracPart
	for i := 0; i < len(digits); i++ {
		if digits[i] != '#' && (digits[i] < '0' || digits[i] > '9') {
			return nil, false
		}
	}
	digits, _, ok := fillHashes(digits)
	if !ok {
		return nil, false
	}
	scale := 0
	if exp != "" {
		e, err := strconv.Atoi(exp)
		if err != nil {
			return nil, false
		}
		scale = e
	}
	if ex == exactForce {
		k := scale - len(fracPart)
		if k > maxExactExponent || k < -maxExactExponent {
			return nil, false
		}
		text := digits
		if k >= 0 {
			text += strings.Repeat("0", k)
		} else {
			text += "/1" + strings.Repeat("0", -k)
		}
		if neg {
			text = "-" + text
		}
		return Parse(text, 10)
	}
	whole, frac := digits[:len(intPart)], digits[len(intPart):]
	if whole == "" {
		whole = "0"
	}
	if frac == "" {
		frac = "0"
	}
	text := whole + "." + frac + "e" + strconv.Itoa(scale)
	if neg {
		text = "-" + text
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
			return nil, false
		}
		// Outside the double range: keep the magnitude as a decimal.
		d, _, perr := big.ParseFloat(text, 10, decimalPrec, big.ToNearestEven)
		if perr != nil {
			return nil, false
		}
		return d, true
	}
	return f, true
}

// applyExactness converts v when an explicit prefix asks for it.
func applyExactness(v types.Value, ex exactness) (types.Value, bool) {
	var (
		r   types.Value
		err error
	)
	switch ex {
	case exactForce:
		r, err = ToExact(v)
	case inexactForce:
		r, err = ToInexact(v)
	default:
		return v, true
	}
	if err != nil {
		return nil, false
	}
	return r, true
}

// Format renders v in radix 2, 8, 10 or 16. Inexact numbers only have a
// radix 10 representation.
func Format(v types.Value, radix int) (string, error) {
	switch radix {
	case 2, 8, 10, 16:
	default:
		return "", types.NewError(types.ErrBadArgument, "unsupported radix", radix)
	}
	if !IsNumber(v) {
		return "", notNumber(v)
	}
	if radix == 10 {
		s, _ := types.FormatNumber(v)
		return s, nil
	}
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), radix), nil
	case int64:
		return strconv.FormatInt(n, radix), nil
	case *big.Int:
		return n.Text(radix), nil
	case *big.Rat:
		return n.Num().Text(radix) + "/" + n.Denom().Text(radix), nil
	}
	return "", types.NewError(types.ErrBadArgument, "inexact numbers are written in radix 10 only", v)
}
