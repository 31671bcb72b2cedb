// Package extnumeric provides statistics and numeric helpers beyond the
// standard procedure set. Exact inputs give exact results wherever the
// operation allows it (clamp, sign, mean, median, mode).
package extnumeric

import (
	"context"
	"math"
	"sort"

	"github.com/sandrolain/goscheme/pkg/ext/extutil"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// All returns all extended numeric procedure definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Clamp(),
		Sign(),
		Pi(),
		E(),
		Mean(),
		Median(),
		Variance(),
		Stddev(),
		Percentile(),
		Mode(),
	}
}

// AllEntries returns all numeric procedure definitions as
// [functions.FunctionEntry], suitable for spreading into
// [goscheme.WithFunctions].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

func number(name string, args []interface{}, i int) (types.Value, error) {
	if !numeric.IsNumber(args[i]) || numeric.IsNaN(args[i]) {
		return nil, types.NewError(types.ErrBadType, name+": expected a real number", args[i])
	}
	return args[i], nil
}

func less(a, b types.Value) bool {
	c, _, _ := numeric.Cmp(a, b)
	return c < 0
}

// Clamp returns the definition for (clamp n lo hi).
func Clamp() functions.CustomFunctionDef {
	const name = "clamp"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			vals := make([]types.Value, 3)
			for i := range vals {
				v, err := number(name, args, i)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			n, lo, hi := vals[0], vals[1], vals[2]
			if less(hi, lo) {
				return nil, types.NewError(types.ErrBadArgument, name+": empty range", lo, hi)
			}
			if less(n, lo) {
				return lo, nil
			}
			if less(hi, n) {
				return hi, nil
			}
			return n, nil
		},
	}
}

// Sign returns the definition for (sign n): -1, 0 or 1.
func Sign() functions.CustomFunctionDef {
	const name = "sign"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			n, err := number(name, args, 0)
			if err != nil {
				return nil, err
			}
			s, _, err := numeric.Sign(n)
			return s, err
		},
	}
}

func constant(name string, v float64) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: name,
		Fn: func(_ context.Context, _ ...interface{}) (interface{}, error) {
			return v, nil
		},
	}
}

// Pi returns the definition for (pi).
func Pi() functions.CustomFunctionDef {
	return constant("pi", math.Pi)
}

// E returns the definition for (e).
func E() functions.CustomFunctionDef {
	return constant("e", math.E)
}

// numbers returns argument 0, a non-empty list of real numbers.
func numbers(name string, args []interface{}) ([]types.Value, error) {
	items, err := types.ListToSlice(args[0])
	if err != nil {
		return nil, types.NewError(types.ErrBadType, name+": expected a list of numbers", args[0])
	}
	if len(items) == 0 {
		return nil, types.NewError(types.ErrBadArgument, name+": empty list")
	}
	for i := range items {
		if _, err := number(name, items, i); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func floats(nums []types.Value) []float64 {
	out := make([]float64, len(nums))
	for i, n := range nums {
		out[i], _ = numeric.ToFloat(n)
	}
	return out
}

func sorted(nums []types.Value) []types.Value {
	out := append([]types.Value(nil), nums...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func mean(nums []types.Value) (types.Value, error) {
	sum, err := numeric.Compute(numeric.OpAdd, nums)
	if err != nil {
		return nil, err
	}
	return numeric.Compute(numeric.OpDiv, []types.Value{sum, len(nums)})
}

func statistic(name string, fn func(nums []types.Value) (types.Value, error)) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			nums, err := numbers(name, args)
			if err != nil {
				return nil, err
			}
			return fn(nums)
		},
	}
}

// Mean returns the definition for (mean list).
func Mean() functions.CustomFunctionDef {
	return statistic("mean", mean)
}

// Median returns the definition for (median list).
func Median() functions.CustomFunctionDef {
	return statistic("median", func(nums []types.Value) (types.Value, error) {
		s := sorted(nums)
		mid := len(s) / 2
		if len(s)%2 == 0 {
			return mean(s[mid-1 : mid+1])
		}
		return s[mid], nil
	})
}

func variance(nums []types.Value) float64 {
	fs := floats(nums)
	sum := 0.0
	for _, n := range fs {
		sum += n
	}
	m := sum / float64(len(fs))
	v := 0.0
	for _, n := range fs {
		diff := n - m
		v += diff * diff
	}
	return v / float64(len(fs))
}

// Variance returns the definition for (variance list), the population
// variance as an inexact number.
func Variance() functions.CustomFunctionDef {
	return statistic("variance", func(nums []types.Value) (types.Value, error) {
		return variance(nums), nil
	})
}

// Stddev returns the definition for (stddev list), the population standard
// deviation.
func Stddev() functions.CustomFunctionDef {
	return statistic("stddev", func(nums []types.Value) (types.Value, error) {
		return math.Sqrt(variance(nums)), nil
	})
}

// Percentile returns the definition for (percentile list p), with p between
// 0 and 100, interpolating linearly between the closest ranks.
func Percentile() functions.CustomFunctionDef {
	const name = "percentile"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			nums, err := numbers(name, args)
			if err != nil {
				return nil, err
			}
			p, err := extutil.Float(name, args, 1)
			if err != nil {
				return nil, err
			}
			if p < 0 || p > 100 {
				return nil, types.NewError(types.ErrBadArgument, name+": p must be between 0 and 100", args[1])
			}
			s := floats(sorted(nums))
			idx := p / 100 * float64(len(s)-1)
			lo := int(math.Floor(idx))
			hi := int(math.Ceil(idx))
			if lo == hi {
				return s[lo], nil
			}
			frac := idx - float64(lo)
			return s[lo]*(1-frac) + s[hi]*frac, nil
		},
	}
}

// Mode returns the definition for (mode list), the list of the most
// frequent values in order of first appearance.
func Mode() functions.CustomFunctionDef {
	return statistic("mode", func(nums []types.Value) (types.Value, error) {
		counts := make(map[string]int)
		maxCount := 0
		for _, n := range nums {
			k := types.String(n, true)
			counts[k]++
			maxCount = max(maxCount, counts[k])
		}
		var modes []types.Value
		for _, n := range nums {
			k := types.String(n, true)
			if counts[k] == maxCount {
				modes = append(modes, n)
				counts[k] = 0
			}
		}
		return types.List(modes...), nil
	})
}
