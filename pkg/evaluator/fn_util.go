package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// Argument accessors shared by the builtin primitives. Each reports a
// bad-type condition naming the primitive and the offending value.

func badType(name, want string, v types.Value) error {
	return types.NewError(types.ErrBadType, name+": expected "+want, v)
}

func argProc(name string, v types.Value) (Applicable, error) {
	op, ok := v.(Applicable)
	if !ok || op.Syntactic() {
		return nil, badType(name, "procedure", v)
	}
	return op, nil
}

func argIndex(name string, v types.Value) (int, error) {
	n, ok := numeric.ToInt(v)
	if !ok || n < 0 {
		return 0, badType(name, "non-negative exact integer", v)
	}
	return n, nil
}

func argNumber(name string, v types.Value) error {
	if !numeric.IsNumber(v) {
		return badType(name, "number", v)
	}
	return nil
}

func argPair(name string, v types.Value) (*types.Pair, error) {
	p, ok := v.(*types.Pair)
	if !ok {
		return nil, badType(name, "pair", v)
	}
	return p, nil
}

func argList(name string, v types.Value) ([]types.Value, error) {
	items, err := types.ListToSlice(v)
	if err != nil {
		return nil, badType(name, "list", v)
	}
	return items, nil
}

func argSymbol(name string, v types.Value) (*types.Symbol, error) {
	s, ok := v.(*types.Symbol)
	if !ok {
		return nil, badType(name, "symbol", v)
	}
	return s, nil
}

func argChar(name string, v types.Value) (types.Char, error) {
	c, ok := v.(types.Char)
	if !ok {
		return 0, badType(name, "character", v)
	}
	return c, nil
}

// argString accepts literal and mutable strings.
func argString(name string, v types.Value) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case *types.MString:
		return s.String(), nil
	}
	return "", badType(name, "string", v)
}

func argRunes(name string, v types.Value) ([]rune, error) {
	switch s := v.(type) {
	case string:
		return []rune(s), nil
	case *types.MString:
		return s.Runes, nil
	}
	return nil, badType(name, "string", v)
}

func argMString(name string, v types.Value) (*types.MString, error) {
	s, ok := v.(*types.MString)
	if !ok {
		if _, lit := v.(string); lit {
			return nil, types.NewError(types.ErrBadArgument, name+": string is immutable", v)
		}
		return nil, badType(name, "mutable string", v)
	}
	return s, nil
}

func argVector(name string, v types.Value) (*types.Vector, error) {
	vec, ok := v.(*types.Vector)
	if !ok {
		return nil, badType(name, "vector", v)
	}
	return vec, nil
}

// argRange reads optional start and end indices from args, defaulting to
// the whole of a sequence of length n.
func argRange(name string, args []types.Value, n int) (int, int, error) {
	start, end := 0, n
	var err error
	if len(args) > 0 {
		if start, err = argIndex(name, args[0]); err != nil {
			return 0, 0, err
		}
	}
	if len(args) > 1 {
		if end, err = argIndex(name, args[1]); err != nil {
			return 0, 0, err
		}
	}
	if start > end || end > n {
		return 0, 0, types.Errorf(types.ErrBadArgument, "%s: range %d..%d out of bounds for length %d", name, start, end, n)
	}
	return start, end, nil
}

func checkIndex(name string, i, n int) error {
	if i >= n {
		return types.Errorf(types.ErrBadArgument, "%s: index %d out of range for length %d", name, i, n)
	}
	return nil
}
