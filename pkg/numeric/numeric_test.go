package numeric_test

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

func num(t *testing.T, s string) types.Value {
	t.Helper()
	v, ok := numeric.Parse(s, 10)
	if !ok {
		t.Fatalf("Parse(%q) failed", s)
	}
	return v
}

func show(v types.Value) string {
	return types.String(v, true)
}

func nums(t *testing.T, ss ...string) []types.Value {
	t.Helper()
	out := make([]types.Value, len(ss))
	for i, s := range ss {
		out[i] = num(t, s)
	}
	return out
}

func wantCode(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	var e *types.Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *types.Error with code %s", err, code)
	}
	if e.Code != code {
		t.Fatalf("code = %s, want %s", e.Code, code)
	}
}

// ── Categories and packing ─────────────────────────────────────────────────

func TestCategorize(t *testing.T) {
	tests := []struct {
		v    types.Value
		want numeric.Category
	}{
		{1, numeric.CatInt},
		{math.MaxInt32 + 1, numeric.CatLong},
		{int64(5), numeric.CatLong},
		{new(big.Int).Lsh(big.NewInt(1), 100), numeric.CatBigInt},
		{big.NewRat(1, 3), numeric.CatRational},
		{new(big.Float).SetFloat64(1.5), numeric.CatDecimal},
		{1.5, numeric.CatDouble},
		{math.NaN(), numeric.CatNaN},
		{"x", numeric.CatNone},
	}
	for _, tt := range tests {
		if got := numeric.Categorize(tt.v); got != tt.want {
			t.Errorf("Categorize(%v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestCategorizeList(t *testing.T) {
	cat, err := numeric.CategorizeList([]types.Value{1, big.NewRat(1, 2), 2.0})
	if err != nil {
		t.Fatal(err)
	}
	if cat != numeric.CatDouble {
		t.Errorf("category = %s, want double", cat)
	}
	_, err = numeric.CategorizeList([]types.Value{1, "two"})
	wantCode(t, err, types.ErrBadType)
}

func TestPackRoundTrip(t *testing.T) {
	for _, x := range []int64{0, 1, -1, math.MaxInt32, math.MinInt32, math.MaxInt32 + 1, math.MinInt32 - 1, math.MaxInt64, math.MinInt64} {
		packed := numeric.Pack(big.NewInt(x))
		want := numeric.Pack(x)
		if diff := cmp.Diff(want, packed); diff != "" {
			t.Errorf("Pack(big %d) mismatch (-want +got):\n%s", x, diff)
		}
		c1 := numeric.Categorize(packed)
		c2 := numeric.Categorize(numeric.Pack(packed))
		if c1 != c2 {
			t.Errorf("packing %d is not idempotent: %s then %s", x, c1, c2)
		}
	}
	if v := numeric.Pack(big.NewRat(6, 3)); v != 2 {
		t.Errorf("Pack(6/3) = %v, want 2", v)
	}
	if v := numeric.Pack(int64(7)); v != 7 {
		t.Errorf("Pack(int64 7) = %#v, want int 7", v)
	}
}

// ── Compute ────────────────────────────────────────────────────────────────

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		op   numeric.Op
		args []string
		want string
	}{
		{"sum", numeric.OpAdd, []string{"1", "2", "3"}, "6"},
		{"empty sum", numeric.OpAdd, nil, "0"},
		{"empty product", numeric.OpMul, nil, "1"},
		{"negate", numeric.OpSub, []string{"5"}, "-5"},
		{"invert", numeric.OpDiv, []string{"4"}, "1/4"},
		{"exact division", numeric.OpDiv, []string{"6", "3"}, "2"},
		{"rational division", numeric.OpDiv, []string{"1", "3"}, "1/3"},
		{"rational sum", numeric.OpAdd, []string{"1/2", "1/2"}, "1"},
		{"inexact contagion", numeric.OpAdd, []string{"1", "0.5"}, "1.5"},
		{"inexact integer", numeric.OpMul, []string{"2.0", "3"}, "6.0"},
		{"overflow widens", numeric.OpMul, []string{"9223372036854775807", "2"}, "18446744073709551614"},
		{"big shrinks", numeric.OpSub, []string{"18446744073709551616", "18446744073709551615"}, "1"},
		{"negate min long", numeric.OpSub, []string{"-9223372036854775808"}, "9223372036854775808"},
		{"nan", numeric.OpAdd, []string{"1", "+nan.0"}, "+nan.0"},
		{"inexact by zero", numeric.OpDiv, []string{"1.0", "0"}, "+inf.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := numeric.Compute(tt.op, nums(t, tt.args...))
			if err != nil {
				t.Fatalf("Compute error: %v", err)
			}
			if s := show(got); s != tt.want {
				t.Errorf("got %s, want %s", s, tt.want)
			}
		})
	}
}

func TestComputeErrors(t *testing.T) {
	_, err := numeric.Compute(numeric.OpDiv, nums(t, "1", "0"))
	wantCode(t, err, types.ErrBadArgument)

	_, err = numeric.Compute(numeric.OpDiv, nums(t, "0"))
	wantCode(t, err, types.ErrBadArgument)

	_, err = numeric.Compute(numeric.OpSub, nil)
	wantCode(t, err, types.ErrBadArgument)

	_, err = numeric.Compute(numeric.OpAdd, []types.Value{1, "x"})
	wantCode(t, err, types.ErrBadType)
}

func TestComputeDoesNotMutateArguments(t *testing.T) {
	b := new(big.Int).Lsh(big.NewInt(1), 80)
	r := big.NewRat(1, 3)
	if _, err := numeric.Compute(numeric.OpAdd, []types.Value{b, b}); err != nil {
		t.Fatal(err)
	}
	if _, err := numeric.Compute(numeric.OpMul, []types.Value{r, r}); err != nil {
		t.Fatal(err)
	}
	if b.Cmp(new(big.Int).Lsh(big.NewInt(1), 80)) != 0 {
		t.Errorf("big argument modified: %s", b)
	}
	if r.Cmp(big.NewRat(1, 3)) != 0 {
		t.Errorf("rational argument modified: %s", r)
	}
}

// ── Compare ────────────────────────────────────────────────────────────────

func TestCompare(t *testing.T) {
	tests := []struct {
		op   numeric.CompareOp
		args []string
		want bool
	}{
		{numeric.CmpEq, []string{"1", "1.0", "2/2"}, true},
		{numeric.CmpLt, []string{"1", "2", "3"}, true},
		{numeric.CmpLt, []string{"1", "3", "2"}, false},
		{numeric.CmpLe, []string{"1", "1", "2"}, true},
		{numeric.CmpGt, []string{"1/2", "1/3"}, true},
		{numeric.CmpGe, []string{"2", "2.5"}, false},
		{numeric.CmpEq, []string{"+nan.0", "+nan.0"}, false},
		{numeric.CmpLt, []string{"1"}, true},
		{numeric.CmpLt, []string{"99999999999999999999", "100000000000000000000"}, true},
	}
	for _, tt := range tests {
		got, err := numeric.Compare(tt.op, nums(t, tt.args...))
		if err != nil {
			t.Fatalf("Compare(%v) error: %v", tt.args, err)
		}
		if got != tt.want {
			t.Errorf("Compare(%d, %v) = %v, want %v", tt.op, tt.args, got, tt.want)
		}
	}
}

func TestCompareChecksEveryArgument(t *testing.T) {
	_, err := numeric.Compare(numeric.CmpLt, []types.Value{2, 1, "x"})
	wantCode(t, err, types.ErrBadType)
}

func TestExtremum(t *testing.T) {
	got, err := numeric.Extremum(true, nums(t, "1", "3", "2"))
	if err != nil || show(got) != "3" {
		t.Errorf("max = %v, %v; want 3", got, err)
	}
	got, err = numeric.Extremum(true, nums(t, "1", "3", "2.0"))
	if err != nil || show(got) != "3.0" {
		t.Errorf("max with inexact = %v, %v; want 3.0", show(got), err)
	}
	got, err = numeric.Extremum(false, nums(t, "1/2", "1/3"))
	if err != nil || show(got) != "1/3" {
		t.Errorf("min = %v, %v; want 1/3", show(got), err)
	}
}

// ── Integer division ───────────────────────────────────────────────────────

func TestIntegerDivide(t *testing.T) {
	tests := []struct {
		op   numeric.DivOp
		a, b string
		want string
	}{
		{numeric.DivQuotient, "7", "-2", "-3"},
		{numeric.DivRemainder, "7", "-2", "1"},
		{numeric.DivModulo, "7", "-2", "-1"},
		{numeric.DivModulo, "-7", "2", "1"},
		{numeric.DivRemainder, "-7", "2", "-1"},
		{numeric.DivQuotient, "-7", "2", "-3"},
		{numeric.DivModulo, "7.0", "-2", "-1.0"},
		{numeric.DivQuotient, "100000000000000000000", "3", "33333333333333333333"},
		{numeric.DivModulo, "-100000000000000000000", "3", "2"},
	}
	for _, tt := range tests {
		got, err := numeric.IntegerDivide(tt.op, num(t, tt.a), num(t, tt.b))
		if err != nil {
			t.Fatalf("%s %s %s: %v", tt.op, tt.a, tt.b, err)
		}
		if s := show(got); s != tt.want {
			t.Errorf("(%s %s %s) = %s, want %s", tt.op, tt.a, tt.b, s, tt.want)
		}
	}
}

func TestIntegerDivideErrors(t *testing.T) {
	_, err := numeric.IntegerDivide(numeric.DivQuotient, 1, 0)
	wantCode(t, err, types.ErrBadArgument)
	_, err = numeric.IntegerDivide(numeric.DivModulo, 1.5, 1)
	wantCode(t, err, types.ErrBadType)
}

// ── Expt, sqrt, log, abs ───────────────────────────────────────────────────

func TestExpt(t *testing.T) {
	tests := []struct {
		base, power string
		want        string
	}{
		{"2", "10", "1024"},
		{"2.0", "10", "1024.0"},
		{"0", "0", "1"},
		{"2", "-2", "1/4"},
		{"2/3", "2", "4/9"},
		{"-1", "99999999999", "-1"},
		{"4", "0.5", "2.0"},
		{"2", "100", "1267650600228229401496703205376"},
	}
	for _, tt := range tests {
		got, err := numeric.Expt(num(t, tt.base), num(t, tt.power))
		if err != nil {
			t.Fatalf("expt %s %s: %v", tt.base, tt.power, err)
		}
		if s := show(got); s != tt.want {
			t.Errorf("(expt %s %s) = %s, want %s", tt.base, tt.power, s, tt.want)
		}
	}
	_, err := numeric.Expt(0, -1)
	wantCode(t, err, types.ErrBadArgument)
}

func TestSqrtAndLog(t *testing.T) {
	got, err := numeric.Sqrt(16)
	if err != nil || got != 4 {
		t.Errorf("sqrt 16 = %v, %v", got, err)
	}
	got, err = numeric.Sqrt(big.NewRat(9, 4))
	if err != nil || show(got) != "3/2" {
		t.Errorf("sqrt 9/4 = %v, %v", show(got), err)
	}
	got, err = numeric.Sqrt(2)
	if err != nil || got.(float64) != math.Sqrt2 {
		t.Errorf("sqrt 2 = %v, %v", got, err)
	}
	_, err = numeric.Sqrt(-4)
	wantCode(t, err, types.ErrBadArgument)

	got, err = numeric.Log(1)
	if err != nil || got.(float64) != 0 {
		t.Errorf("log 1 = %v, %v", got, err)
	}
	_, err = numeric.Log(0)
	wantCode(t, err, types.ErrBadArgument)
	_, err = numeric.Log(-1.0)
	wantCode(t, err, types.ErrBadArgument)

	huge := new(big.Int).Lsh(big.NewInt(1), 5000)
	got, err = numeric.Log(huge)
	if err != nil || math.Abs(got.(float64)-5000*math.Ln2) > 1e-6 {
		t.Errorf("log 2^5000 = %v, %v", got, err)
	}
}

func TestAbs(t *testing.T) {
	got, err := numeric.Abs(int64(math.MinInt64))
	if err != nil {
		t.Fatal(err)
	}
	if show(got) != "9223372036854775808" || numeric.Categorize(got) != numeric.CatBigInt {
		t.Errorf("abs min long = %s (%s)", show(got), numeric.Categorize(got))
	}
	got, _ = numeric.Abs(-5)
	if got != 5 {
		t.Errorf("abs -5 = %v", got)
	}
	got, _ = numeric.Abs(big.NewRat(-1, 2))
	if show(got) != "1/2" {
		t.Errorf("abs -1/2 = %s", show(got))
	}
}

// ── Rounding and fractions ─────────────────────────────────────────────────

func TestRound(t *testing.T) {
	tests := []struct {
		op   numeric.RoundOp
		in   string
		want string
	}{
		{numeric.RoundFloor, "-7/2", "-4"},
		{numeric.RoundCeiling, "-7/2", "-3"},
		{numeric.RoundTruncate, "-7/2", "-3"},
		{numeric.RoundNearest, "-7/2", "-4"},
		{numeric.RoundNearest, "5/2", "2"},
		{numeric.RoundNearest, "7/3", "2"},
		{numeric.RoundNearest, "2.5", "2.0"},
		{numeric.RoundFloor, "-4.3", "-5.0"},
		{numeric.RoundCeiling, "3", "3"},
	}
	for _, tt := range tests {
		got, err := numeric.Round(tt.op, num(t, tt.in))
		if err != nil {
			t.Fatal(err)
		}
		if s := show(got); s != tt.want {
			t.Errorf("round(%d, %s) = %s, want %s", tt.op, tt.in, s, tt.want)
		}
	}
}

func TestFractions(t *testing.T) {
	n, _ := numeric.Numerator(num(t, "6/4"))
	d, _ := numeric.Denominator(num(t, "6/4"))
	if show(n) != "3" || show(d) != "2" {
		t.Errorf("6/4 = %s/%s", show(n), show(d))
	}
	d, _ = numeric.Denominator(0.5)
	if show(d) != "2.0" {
		t.Errorf("denominator 0.5 = %s", show(d))
	}
	g, _ := numeric.Gcd(nums(t, "12", "-18"))
	l, _ := numeric.Lcm(nums(t, "4", "6"))
	if show(g) != "6" || show(l) != "12" {
		t.Errorf("gcd = %s, lcm = %s", show(g), show(l))
	}
	g, _ = numeric.Gcd(nil)
	if g != 0 {
		t.Errorf("(gcd) = %v", g)
	}
}

func TestExactness(t *testing.T) {
	got, err := numeric.ToExact(0.5)
	if err != nil || show(got) != "1/2" {
		t.Errorf("exact 0.5 = %s, %v", show(got), err)
	}
	got, _ = numeric.ToExact(3.0)
	if got != 3 {
		t.Errorf("exact 3.0 = %#v", got)
	}
	_, err = numeric.ToExact(math.Inf(1))
	wantCode(t, err, types.ErrBadArgument)
	got, _ = numeric.ToInexact(big.NewRat(1, 4))
	if got != 0.25 {
		t.Errorf("inexact 1/4 = %v", got)
	}
}

// ── Parse and format ───────────────────────────────────────────────────────

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		exact bool
	}{
		{"3", "3", true},
		{"-17", "-17", true},
		{"3/4", "3/4", true},
		{"6/4", "3/2", true},
		{"#e1.5", "3/2", true},
		{"#e1.2e3", "1200", true},
		{"#e-0.25", "-1/4", true},
		{"1e10", "10000000000.0", false},
		{"#b101", "5", true},
		{"#x-ff", "-255", true},
		{"#o17", "15", true},
		{"#x#i10", "16.0", false},
		{"#i3/4", "0.75", false},
		{"-0.0", "-0.0", false},
		{".5", "0.5", false},
		{"1.", "1.0", false},
		{"12#", "120.0", false},
		{"1s2", "100.0", false},
		{"+inf.0", "+inf.0", false},
		{"-inf.0", "-inf.0", false},
		{"99999999999999999999", "99999999999999999999", true},
	}
	for _, tt := range tests {
		v, ok := numeric.Parse(tt.in, 10)
		if !ok {
			t.Errorf("Parse(%q) failed", tt.in)
			continue
		}
		if s := show(v); s != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, s, tt.want)
		}
		if ex, _ := numeric.IsExact(v); ex != tt.exact {
			t.Errorf("Parse(%q) exact = %v, want %v", tt.in, ex, tt.exact)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, s := range []string{"", "+", "-", "...", "abc", "1/0", "#e#e1", "#x#b1", "1e", "#b102", "1.5/2", "#x1.5", "1+", "#", "#q1"} {
		if v, ok := numeric.Parse(s, 10); ok {
			t.Errorf("Parse(%q) = %v, want failure", s, v)
		}
	}
}

func TestParsePrintRoundTrip(t *testing.T) {
	for _, s := range []string{"3", "3/4", "#e1.5", "1e10", "#b101", "-0.0", "123456789012345678901234567890", "1e300", "1e-300"} {
		v := num(t, s)
		printed, err := numeric.Format(v, 10)
		if err != nil {
			t.Fatal(err)
		}
		back := num(t, printed)
		if show(back) != show(v) {
			t.Errorf("%q: round trip %s -> %s", s, show(v), show(back))
		}
		e1, _ := numeric.IsExact(v)
		e2, _ := numeric.IsExact(back)
		if e1 != e2 {
			t.Errorf("%q: exactness changed in round trip", s)
		}
		if f, ok := v.(float64); ok && math.Signbit(f) != math.Signbit(back.(float64)) {
			t.Errorf("%q: sign of zero lost", s)
		}
	}
}

func TestFormatRadix(t *testing.T) {
	s, err := numeric.Format(255, 16)
	if err != nil || s != "ff" {
		t.Errorf("Format(255, 16) = %q, %v", s, err)
	}
	s, _ = numeric.Format(big.NewRat(-1, 2), 2)
	if s != "-1/10" {
		t.Errorf("Format(-1/2, 2) = %q", s)
	}
	_, err = numeric.Format(1.5, 16)
	wantCode(t, err, types.ErrBadArgument)
}
