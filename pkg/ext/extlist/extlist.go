// Package extlist provides list procedures beyond the standard set: slicing,
// chunking, set operations and grouping. Register them via
// goscheme.WithFunctions or via the top-level ext.WithList() helper.
//
// Set operations and grouping compare elements by their written
// representation, so two lists with the same elements are the same key.
package extlist

import (
	"context"

	"github.com/sandrolain/goscheme/pkg/ext/extutil"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// maxRangeItems bounds the length of a list built by range.
const maxRangeItems = 1000000

// All returns all simple list procedure definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		First(),
		Last(),
		Take(),
		Drop(),
		Slice(),
		Flatten(),
		Chunk(),
		Union(),
		Intersection(),
		Difference(),
		SymmetricDifference(),
		Range(),
		ZipLongest(),
		Window(),
	}
}

// AllAdvanced returns all list procedure definitions that call procedures.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	return []functions.AdvancedCustomFunctionDef{
		GroupBy(),
		CountBy(),
		SumBy(),
		MinBy(),
		MaxBy(),
		Accumulate(),
	}
}

// AllEntries returns all list procedure definitions (simple + advanced) as
// [functions.FunctionEntry], suitable for spreading into
// [goscheme.WithFunctions].
func AllEntries() []functions.FunctionEntry {
	return append(extutil.Entries(All()), extutil.Entries(AllAdvanced())...)
}

// ── helpers ────────────────────────────────────────────────────────────────

func toSlice(name string, args []interface{}, i int) ([]types.Value, error) {
	items, err := types.ListToSlice(args[i])
	if err != nil {
		return nil, types.NewError(types.ErrBadType, name+": expected a list", args[i])
	}
	return items, nil
}

// sublist copies items into a fresh slice, so the result does not alias the
// argument.
func sublist(items []types.Value) []interface{} {
	out := make([]interface{}, len(items))
	copy(out, items)
	return out
}

func key(v types.Value) string {
	return types.String(v, true)
}

func normaliseIndex(idx, length int) int {
	if idx < 0 {
		idx = length + idx
	}
	if idx < 0 {
		idx = 0
	}
	if idx > length {
		idx = length
	}
	return idx
}

func nonNegative(name string, args []interface{}, i int) (int, error) {
	n, err := extutil.Int(name, args, i)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, types.NewError(types.ErrBadArgument, name+": expected a non-negative integer", args[i])
	}
	return n, nil
}

func positive(name string, args []interface{}, i int) (int, error) {
	n, err := extutil.Int(name, args, i)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, types.NewError(types.ErrBadArgument, name+": expected a positive integer", args[i])
	}
	return n, nil
}

func listFn(name string, minArgs, maxArgs int, fn func(items []types.Value, args []interface{}) (interface{}, error)) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			items, err := toSlice(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(items, args)
		},
	}
}

// ── Simple procedures ──────────────────────────────────────────────────────

// First returns the definition for (first list).
func First() functions.CustomFunctionDef {
	return listFn("first", 1, 1, func(items []types.Value, args []interface{}) (interface{}, error) {
		if len(items) == 0 {
			return nil, types.NewError(types.ErrBadArgument, "first: empty list")
		}
		return items[0], nil
	})
}

// Last returns the definition for (last list).
func Last() functions.CustomFunctionDef {
	return listFn("last", 1, 1, func(items []types.Value, args []interface{}) (interface{}, error) {
		if len(items) == 0 {
			return nil, types.NewError(types.ErrBadArgument, "last: empty list")
		}
		return items[len(items)-1], nil
	})
}

// Take returns the definition for (take list n), the first n elements. A
// count past the end takes the whole list.
func Take() functions.CustomFunctionDef {
	return listFn("take", 2, 2, func(items []types.Value, args []interface{}) (interface{}, error) {
		n, err := nonNegative("take", args, 1)
		if err != nil {
			return nil, err
		}
		return sublist(items[:min(n, len(items))]), nil
	})
}

// Drop returns the definition for (drop list n), the elements after the
// first n.
func Drop() functions.CustomFunctionDef {
	return listFn("drop", 2, 2, func(items []types.Value, args []interface{}) (interface{}, error) {
		n, err := nonNegative("drop", args, 1)
		if err != nil {
			return nil, err
		}
		return sublist(items[min(n, len(items)):]), nil
	})
}

// Slice returns the definition for (list-slice list start [end]). Negative
// indices count from the end; end is exclusive.
func Slice() functions.CustomFunctionDef {
	const name = "list-slice"
	return listFn(name, 2, 3, func(items []types.Value, args []interface{}) (interface{}, error) {
		start, err := extutil.Int(name, args, 1)
		if err != nil {
			return nil, err
		}
		end := len(items)
		if extutil.Optional(args, 2) {
			if end, err = extutil.Int(name, args, 2); err != nil {
				return nil, err
			}
		}
		start = normaliseIndex(start, len(items))
		end = normaliseIndex(end, len(items))
		if start >= end {
			return types.Nil, nil
		}
		return sublist(items[start:end]), nil
	})
}

// Flatten returns the definition for (flatten list [depth]). Without a
// depth, nested lists are flattened completely.
func Flatten() functions.CustomFunctionDef {
	const name = "flatten"
	return listFn(name, 1, 2, func(items []types.Value, args []interface{}) (interface{}, error) {
		depth := -1 // unlimited
		if extutil.Optional(args, 1) {
			d, err := nonNegative(name, args, 1)
			if err != nil {
				return nil, err
			}
			depth = d
		}
		return flattenList(items, depth, []interface{}{}), nil
	})
}

func flattenList(items []types.Value, depth int, out []interface{}) []interface{} {
	for _, item := range items {
		if depth != 0 && types.IsList(item) {
			inner, _ := types.ListToSlice(item)
			nextDepth := depth - 1
			if depth < 0 {
				nextDepth = depth // keep unlimited
			}
			out = flattenList(inner, nextDepth, out)
		} else {
			out = append(out, item)
		}
	}
	return out
}

// Chunk returns the definition for (chunk list size). The last chunk may be
// shorter.
func Chunk() functions.CustomFunctionDef {
	return listFn("chunk", 2, 2, func(items []types.Value, args []interface{}) (interface{}, error) {
		size, err := positive("chunk", args, 1)
		if err != nil {
			return nil, err
		}
		chunks := []interface{}{}
		for i := 0; i < len(items); i += size {
			chunks = append(chunks, sublist(items[i:min(i+size, len(items))]))
		}
		return chunks, nil
	})
}

func twoLists(name string, fn func(a, b []types.Value) []interface{}) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			a, err := toSlice(name, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := toSlice(name, args, 1)
			if err != nil {
				return nil, err
			}
			return fn(a, b), nil
		},
	}
}

func keySet(items []types.Value) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[key(item)] = true
	}
	return set
}

// collect appends the items of src accepted by keep, skipping duplicates.
func collect(out []interface{}, seen map[string]bool, src []types.Value, keep func(string) bool) []interface{} {
	for _, item := range src {
		k := key(item)
		if seen[k] || !keep(k) {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out
}

func always(string) bool { return true }

// Union returns the definition for (union a b), the distinct elements of
// both lists in order of first appearance.
func Union() functions.CustomFunctionDef {
	return twoLists("union", func(a, b []types.Value) []interface{} {
		seen := map[string]bool{}
		out := collect([]interface{}{}, seen, a, always)
		return collect(out, seen, b, always)
	})
}

// Intersection returns the definition for (intersection a b).
func Intersection() functions.CustomFunctionDef {
	return twoLists("intersection", func(a, b []types.Value) []interface{} {
		inB := keySet(b)
		return collect([]interface{}{}, map[string]bool{}, a, func(k string) bool { return inB[k] })
	})
}

// Difference returns the definition for (difference a b), the elements of a
// not in b.
func Difference() functions.CustomFunctionDef {
	return twoLists("difference", func(a, b []types.Value) []interface{} {
		inB := keySet(b)
		return collect([]interface{}{}, map[string]bool{}, a, func(k string) bool { return !inB[k] })
	})
}

// SymmetricDifference returns the definition for
// (symmetric-difference a b), the elements in exactly one of the lists.
func SymmetricDifference() functions.CustomFunctionDef {
	return twoLists("symmetric-difference", func(a, b []types.Value) []interface{} {
		inA, inB := keySet(a), keySet(b)
		seen := map[string]bool{}
		out := collect([]interface{}{}, seen, a, func(k string) bool { return !inB[k] })
		return collect(out, seen, b, func(k string) bool { return !inA[k] })
	})
}

// Range returns the definition for (range start end [step]), the numbers
// from start up to but excluding end. Exact arguments give exact elements.
func Range() functions.CustomFunctionDef {
	const name = "range"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			var step types.Value = 1
			if extutil.Optional(args, 2) {
				step = args[2]
			}
			bounds := []types.Value{args[0], args[1], step}
			for i, b := range bounds {
				if !numeric.IsNumber(b) || numeric.IsNaN(b) {
					return nil, types.NewError(types.ErrBadType, name+": expected a real number", bounds[i])
				}
			}
			dir, _, err := numeric.Cmp(step, 0)
			if err != nil {
				return nil, err
			}
			if dir == 0 {
				return nil, types.NewError(types.ErrBadArgument, name+": step must not be zero")
			}
			result := []interface{}{}
			v := args[0]
			for {
				c, _, err := numeric.Cmp(v, args[1])
				if err != nil {
					return nil, err
				}
				if c*dir >= 0 {
					return result, nil
				}
				if len(result) >= maxRangeItems {
					return nil, types.Errorf(types.ErrBadArgument, "%s: would produce more than %d items", name, maxRangeItems)
				}
				result = append(result, v)
				if v, err = numeric.Compute(numeric.OpAdd, []types.Value{v, step}); err != nil {
					return nil, err
				}
			}
		},
	}
}

// ZipLongest returns the definition for (zip-longest a b [fill]). The
// shorter list is padded with fill, #f by default.
func ZipLongest() functions.CustomFunctionDef {
	const name = "zip-longest"
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...interface{}) (interface{}, error) {
			a1, err := toSlice(name, args, 0)
			if err != nil {
				return nil, err
			}
			a2, err := toSlice(name, args, 1)
			if err != nil {
				return nil, err
			}
			var fill types.Value = false
			if extutil.Optional(args, 2) {
				fill = args[2]
			}
			length := max(len(a1), len(a2))
			result := make([]interface{}, length)
			for i := 0; i < length; i++ {
				v1, v2 := fill, fill
				if i < len(a1) {
					v1 = a1[i]
				}
				if i < len(a2) {
					v2 = a2[i]
				}
				result[i] = []interface{}{v1, v2}
			}
			return result, nil
		},
	}
}

// Window returns the definition for (window list size step), the sliding
// windows of size elements starting every step elements.
func Window() functions.CustomFunctionDef {
	return listFn("window", 3, 3, func(items []types.Value, args []interface{}) (interface{}, error) {
		size, err := positive("window", args, 1)
		if err != nil {
			return nil, err
		}
		step, err := positive("window", args, 2)
		if err != nil {
			return nil, err
		}
		result := []interface{}{}
		for i := 0; i+size <= len(items); i += step {
			result = append(result, sublist(items[i:i+size]))
		}
		return result, nil
	})
}
