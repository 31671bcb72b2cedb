package evaluator

import (
	"strconv"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/sandrolain/goscheme/pkg/types"
)

// ── Strings ─────────────────────────────────────────────────────────────────

func fnStringLength(_ *Evaluator, args []types.Value) (types.Value, error) {
	r, err := argRunes("string-length", args[0])
	if err != nil {
		return nil, err
	}
	return len(r), nil
}

func fnStringRef(_ *Evaluator, args []types.Value) (types.Value, error) {
	r, err := argRunes("string-ref", args[0])
	if err != nil {
		return nil, err
	}
	i, err := argIndex("string-ref", args[1])
	if err != nil {
		return nil, err
	}
	if err := checkIndex("string-ref", i, len(r)); err != nil {
		return nil, err
	}
	return types.Char(r[i]), nil
}

func fnStringSet(_ *Evaluator, args []types.Value) (types.Value, error) {
	s, err := argMString("string-set!", args[0])
	if err != nil {
		return nil, err
	}
	i, err := argIndex("string-set!", args[1])
	if err != nil {
		return nil, err
	}
	c, err := argChar("string-set!", args[2])
	if err != nil {
		return nil, err
	}
	if err := checkIndex("string-set!", i, len(s.Runes)); err != nil {
		return nil, err
	}
	s.Runes[i] = rune(c)
	return types.Unspecified, nil
}

func fnStringFill(_ *Evaluator, args []types.Value) (types.Value, error) {
	s, err := argMString("string-fill!", args[0])
	if err != nil {
		return nil, err
	}
	c, err := argChar("string-fill!", args[1])
	if err != nil {
		return nil, err
	}
	start, end, err := argRange("string-fill!", args[2:], len(s.Runes))
	if err != nil {
		return nil, err
	}
	for i := start; i < end; i++ {
		s.Runes[i] = rune(c)
	}
	return types.Unspecified, nil
}

func fnMakeString(_ *Evaluator, args []types.Value) (types.Value, error) {
	n, err := argIndex("make-string", args[0])
	if err != nil {
		return nil, err
	}
	fill := ' '
	if len(args) > 1 {
		c, err := argChar("make-string", args[1])
		if err != nil {
			return nil, err
		}
		fill = rune(c)
	}
	return types.NewMString(strings.Repeat(string(fill), n)), nil
}

func fnString(_ *Evaluator, args []types.Value) (types.Value, error) {
	r := make([]rune, len(args))
	for i, a := range args {
		c, err := argChar("string", a)
		if err != nil {
			return nil, err
		}
		r[i] = rune(c)
	}
	return &types.MString{Runes: r}, nil
}

func fnSubstring(_ *Evaluator, args []types.Value) (types.Value, error) {
	r, err := argRunes("substring", args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := argRange("substring", args[1:], len(r))
	if err != nil {
		return nil, err
	}
	return string(r[start:end]), nil
}

func fnStringCopy(_ *Evaluator, args []types.Value) (types.Value, error) {
	r, err := argRunes("string-copy", args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := argRange("string-copy", args[1:], len(r))
	if err != nil {
		return nil, err
	}
	return &types.MString{Runes: append([]rune(nil), r[start:end]...)}, nil
}

func fnStringAppend(_ *Evaluator, args []types.Value) (types.Value, error) {
	b := acquireBuf()
	defer releaseBuf(b)
	for _, a := range args {
		s, err := argString("string-append", a)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func fnStringToList(_ *Evaluator, args []types.Value) (types.Value, error) {
	r, err := argRunes("string->list", args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := argRange("string->list", args[1:], len(r))
	if err != nil {
		return nil, err
	}
	items := make([]types.Value, 0, end-start)
	for _, c := range r[start:end] {
		items = append(items, types.Char(c))
	}
	return types.List(items...), nil
}

func fnListToString(_ *Evaluator, args []types.Value) (types.Value, error) {
	items, err := argList("list->string", args[0])
	if err != nil {
		return nil, err
	}
	r := make([]rune, len(items))
	for i, item := range items {
		c, err := argChar("list->string", item)
		if err != nil {
			return nil, err
		}
		r[i] = rune(c)
	}
	return &types.MString{Runes: r}, nil
}

// stringCompare builds the string comparison predicates. fold compares
// case-insensitively.
func stringCompare(name string, fold bool, holds func(c int) bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		strs := make([]string, len(args))
		for i, a := range args {
			s, err := argString(name, a)
			if err != nil {
				return nil, err
			}
			if fold {
				s = strings.ToLower(s)
			}
			strs[i] = s
		}
		for i := 1; i < len(strs); i++ {
			if !holds(strings.Compare(strs[i-1], strs[i])) {
				return false, nil
			}
		}
		return true, nil
	}
}

// ── Characters ──────────────────────────────────────────────────────────────

func fnCharToInteger(_ *Evaluator, args []types.Value) (types.Value, error) {
	c, err := argChar("char->integer", args[0])
	if err != nil {
		return nil, err
	}
	return int(c), nil
}

func fnIntegerToChar(_ *Evaluator, args []types.Value) (types.Value, error) {
	n, err := argIndex("integer->char", args[0])
	if err != nil {
		return nil, err
	}
	if n > unicode.MaxRune {
		return nil, types.NewError(types.ErrBadArgument, "integer->char: not a code point", args[0])
	}
	return types.Char(rune(n)), nil
}

func charCompare(name string, fold bool, holds func(c int) bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		prev := rune(-1)
		ok := true
		for i, a := range args {
			c, err := argChar(name, a)
			if err != nil {
				return nil, err
			}
			r := rune(c)
			if fold {
				r = unicode.ToLower(r)
			}
			if i > 0 && !holds(int(prev)-int(r)) {
				ok = false
			}
			prev = r
		}
		return ok, nil
	}
}

func charTest(name string, test func(rune) bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		c, err := argChar(name, args[0])
		if err != nil {
			return nil, err
		}
		return test(rune(c)), nil
	}
}

func charMap(name string, fn func(rune) rune) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		c, err := argChar(name, args[0])
		if err != nil {
			return nil, err
		}
		return types.Char(fn(rune(c))), nil
	}
}

func fnDigitValue(_ *Evaluator, args []types.Value) (types.Value, error) {
	c, err := argChar("digit-value", args[0])
	if err != nil {
		return nil, err
	}
	if !unicode.IsDigit(rune(c)) {
		return false, nil
	}
	n, err := strconv.Atoi(string(rune(c)))
	if err != nil {
		return false, nil
	}
	return n, nil
}

// ── Symbols ─────────────────────────────────────────────────────────────────

func fnSymbolToString(_ *Evaluator, args []types.Value) (types.Value, error) {
	s, err := argSymbol("symbol->string", args[0])
	if err != nil {
		return nil, err
	}
	return s.Name, nil
}

func fnStringToSymbol(_ *Evaluator, args []types.Value) (types.Value, error) {
	s, err := argString("string->symbol", args[0])
	if err != nil {
		return nil, err
	}
	return types.Intern(s), nil
}

func fnSymbolEq(_ *Evaluator, args []types.Value) (types.Value, error) {
	for _, a := range args {
		if _, err := argSymbol("symbol=?", a); err != nil {
			return nil, err
		}
	}
	for i := 1; i < len(args); i++ {
		if args[i] != args[0] {
			return false, nil
		}
	}
	return true, nil
}

var gensymCounter atomic.Int64

// fnGensym returns a fresh uninterned symbol.
func fnGensym(_ *Evaluator, args []types.Value) (types.Value, error) {
	prefix := "g"
	if len(args) > 0 {
		switch p := args[0].(type) {
		case *types.Symbol:
			prefix = p.Name
		default:
			s, err := argString("gensym", p)
			if err != nil {
				return nil, err
			}
			prefix = s
		}
	}
	return &types.Symbol{Name: prefix + strconv.FormatInt(gensymCounter.Add(1), 10)}, nil
}
