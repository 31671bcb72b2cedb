package extlist

import (
	"context"

	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// byFn builds a procedure taking a list and a procedure that is called
// through the host on every element.
func byFn(name string, fn func(ctx context.Context, h functions.Host, items []types.Value, proc interface{}) (interface{}, error)) functions.AdvancedCustomFunctionDef {
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(ctx context.Context, h functions.Host, args ...interface{}) (interface{}, error) {
			items, err := toSlice(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(ctx, h, items, args[1])
		},
	}
}

// groups partitions items by the key proc computes for each of them,
// keeping the groups in order of first appearance.
func groups(ctx context.Context, h functions.Host, items []types.Value, proc interface{}) ([]types.Value, map[string][]types.Value, error) {
	var keys []types.Value
	byKey := make(map[string][]types.Value)
	for _, item := range items {
		k, err := h.Call(ctx, proc, item)
		if err != nil {
			return nil, nil, err
		}
		ks := key(k)
		if _, exists := byKey[ks]; !exists {
			keys = append(keys, k)
		}
		byKey[ks] = append(byKey[ks], item)
	}
	return keys, byKey, nil
}

// GroupBy returns the definition for (group-by list proc), an association
// list from each key (proc item) to the items that produced it.
func GroupBy() functions.AdvancedCustomFunctionDef {
	return byFn("group-by", func(ctx context.Context, h functions.Host, items []types.Value, proc interface{}) (interface{}, error) {
		keys, byKey, err := groups(ctx, h, items, proc)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = types.Cons(k, types.List(byKey[key(k)]...))
		}
		return out, nil
	})
}

// CountBy returns the definition for (count-by list proc), an association
// list from each key to the number of items that produced it.
func CountBy() functions.AdvancedCustomFunctionDef {
	return byFn("count-by", func(ctx context.Context, h functions.Host, items []types.Value, proc interface{}) (interface{}, error) {
		keys, byKey, err := groups(ctx, h, items, proc)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = types.Cons(k, len(byKey[key(k)]))
		}
		return out, nil
	})
}

func mapNumbers(ctx context.Context, h functions.Host, name string, items []types.Value, proc interface{}) ([]types.Value, error) {
	out := make([]types.Value, len(items))
	for i, item := range items {
		v, err := h.Call(ctx, proc, item)
		if err != nil {
			return nil, err
		}
		if !numeric.IsNumber(v) {
			return nil, types.NewError(types.ErrBadType, name+": procedure returned a non-number", v)
		}
		out[i] = v
	}
	return out, nil
}

// SumBy returns the definition for (sum-by list proc), the sum of
// (proc item) over the list.
func SumBy() functions.AdvancedCustomFunctionDef {
	const name = "sum-by"
	return byFn(name, func(ctx context.Context, h functions.Host, items []types.Value, proc interface{}) (interface{}, error) {
		nums, err := mapNumbers(ctx, h, name, items, proc)
		if err != nil {
			return nil, err
		}
		return numeric.Compute(numeric.OpAdd, nums)
	})
}

func extremeBy(name string, want int) functions.AdvancedCustomFunctionDef {
	return byFn(name, func(ctx context.Context, h functions.Host, items []types.Value, proc interface{}) (interface{}, error) {
		if len(items) == 0 {
			return false, nil
		}
		nums, err := mapNumbers(ctx, h, name, items, proc)
		if err != nil {
			return nil, err
		}
		best := 0
		for i := 1; i < len(nums); i++ {
			c, ok, err := numeric.Cmp(nums[i], nums[best])
			if err != nil {
				return nil, err
			}
			if ok && c == want {
				best = i
			}
		}
		return items[best], nil
	})
}

// MinBy returns the definition for (min-by list proc), the first item with
// the smallest (proc item), or #f for an empty list.
func MinBy() functions.AdvancedCustomFunctionDef {
	return extremeBy("min-by", -1)
}

// MaxBy returns the definition for (max-by list proc), the first item with
// the largest (proc item), or #f for an empty list.
func MaxBy() functions.AdvancedCustomFunctionDef {
	return extremeBy("max-by", 1)
}

// Accumulate returns the definition for (accumulate list proc init). Like a
// left fold, but returns every intermediate value starting with init.
func Accumulate() functions.AdvancedCustomFunctionDef {
	const name = "accumulate"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(ctx context.Context, h functions.Host, args ...interface{}) (interface{}, error) {
			items, err := toSlice(name, args, 0)
			if err != nil {
				return nil, err
			}
			acc := args[2]
			result := []interface{}{acc}
			for _, item := range items {
				if acc, err = h.Call(ctx, args[1], acc, item); err != nil {
					return nil, err
				}
				result = append(result, acc)
			}
			return result, nil
		},
	}
}
