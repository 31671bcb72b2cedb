// Package extutil provides shared helpers for the ext sub-packages.
package extutil

import (
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// String returns argument i as a Go string. Both literal and mutable
// strings are accepted.
func String(name string, args []interface{}, i int) (string, error) {
	switch s := args[i].(type) {
	case string:
		return s, nil
	case *types.MString:
		return s.String(), nil
	}
	return "", types.NewError(types.ErrBadType, name+": expected a string", args[i])
}

// Int returns argument i as a Go int.
func Int(name string, args []interface{}, i int) (int, error) {
	n, ok := numeric.ToInt(args[i])
	if !ok {
		return 0, types.NewError(types.ErrBadType, name+": expected an exact integer", args[i])
	}
	return n, nil
}

// Float returns argument i, any real number, as a float64.
func Float(name string, args []interface{}, i int) (float64, error) {
	f, ok := numeric.ToFloat(args[i])
	if !ok {
		return 0, types.NewError(types.ErrBadType, name+": expected a number", args[i])
	}
	return f, nil
}

// Strings returns argument i, a proper list of strings, as a slice.
func Strings(name string, args []interface{}, i int) ([]string, error) {
	items, err := types.ListToSlice(args[i])
	if err != nil {
		return nil, types.NewError(types.ErrBadType, name+": expected a list of strings", args[i])
	}
	out := make([]string, len(items))
	for j := range items {
		if out[j], err = String(name, items, j); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Optional reports whether argument i was supplied.
func Optional(args []interface{}, i int) bool {
	return len(args) > i
}

// Entries converts definitions into [functions.FunctionEntry] values,
// suitable for spreading into WithFunctions.
func Entries[T functions.FunctionEntry](defs []T) []functions.FunctionEntry {
	out := make([]functions.FunctionEntry, len(defs))
	for i, d := range defs {
		out[i] = d
	}
	return out
}
