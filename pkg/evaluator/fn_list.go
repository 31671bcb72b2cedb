package evaluator

import (
	"strings"

	"github.com/sandrolain/goscheme/pkg/types"
)

// ── Pairs ───────────────────────────────────────────────────────────────────

func fnCons(_ *Evaluator, args []types.Value) (types.Value, error) {
	return types.Cons(args[0], args[1]), nil
}

func fnCar(_ *Evaluator, args []types.Value) (types.Value, error) {
	p, err := argPair("car", args[0])
	if err != nil {
		return nil, err
	}
	return p.Car, nil
}

func fnCdr(_ *Evaluator, args []types.Value) (types.Value, error) {
	p, err := argPair("cdr", args[0])
	if err != nil {
		return nil, err
	}
	return p.Cdr, nil
}

// cxrAccessors returns caar through cddddr: every c[ad]+r name with two to
// four letters between the c and the r.
func cxrAccessors() []*Primitive {
	var out []*Primitive
	paths := []string{"a", "d"}
	for n := 2; n <= 4; n++ {
		var next []string
		for _, p := range paths {
			next = append(next, p+"a", p+"d")
		}
		paths = next
		for _, p := range paths {
			name := "c" + p + "r"
			out = append(out, fn(name, 1, 1, cxr(name)))
		}
	}
	return out
}

// cxr builds the c[ad]+r accessors. path is read right to left, as the
// name is.
func cxr(name string) FunctionImpl {
	path := strings.TrimSuffix(strings.TrimPrefix(name, "c"), "r")
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		v := args[0]
		for i := len(path) - 1; i >= 0; i-- {
			p, err := argPair(name, v)
			if err != nil {
				return nil, err
			}
			if path[i] == 'a' {
				v = p.Car
			} else {
				v = p.Cdr
			}
		}
		return v, nil
	}
}

func fnSetCar(_ *Evaluator, args []types.Value) (types.Value, error) {
	p, err := argPair("set-car!", args[0])
	if err != nil {
		return nil, err
	}
	p.Car = args[1]
	return types.Unspecified, nil
}

func fnSetCdr(_ *Evaluator, args []types.Value) (types.Value, error) {
	p, err := argPair("set-cdr!", args[0])
	if err != nil {
		return nil, err
	}
	p.Cdr = args[1]
	return types.Unspecified, nil
}

// ── Lists ───────────────────────────────────────────────────────────────────

func fnList(_ *Evaluator, args []types.Value) (types.Value, error) {
	return types.List(args...), nil
}

func fnIsList(_ *Evaluator, args []types.Value) (types.Value, error) {
	return types.IsList(args[0]), nil
}

func fnMakeList(_ *Evaluator, args []types.Value) (types.Value, error) {
	n, err := argIndex("make-list", args[0])
	if err != nil {
		return nil, err
	}
	var fill types.Value = types.Unspecified
	if len(args) > 1 {
		fill = args[1]
	}
	items := make([]types.Value, n)
	for i := range items {
		items[i] = fill
	}
	return types.List(items...), nil
}

func fnLength(_ *Evaluator, args []types.Value) (types.Value, error) {
	n, err := types.Length(args[0])
	if err != nil {
		return nil, err
	}
	return n, nil
}

// fnAppend copies every argument but the last, which becomes the tail.
func fnAppend(_ *Evaluator, args []types.Value) (types.Value, error) {
	if len(args) == 0 {
		return types.Nil, nil
	}
	tail := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		items, err := argList("append", args[i])
		if err != nil {
			return nil, err
		}
		tail = types.ListWithTail(items, tail)
	}
	return tail, nil
}

func fnReverse(_ *Evaluator, args []types.Value) (types.Value, error) {
	items, err := argList("reverse", args[0])
	if err != nil {
		return nil, err
	}
	var out types.Value = types.Nil
	for _, item := range items {
		out = types.Cons(item, out)
	}
	return out, nil
}

func fnListCopy(_ *Evaluator, args []types.Value) (types.Value, error) {
	items, err := argList("list-copy", args[0])
	if err != nil {
		return args[0], nil
	}
	return types.List(items...), nil
}

func listTail(name string, list, k types.Value) (types.Value, error) {
	n, err := argIndex(name, k)
	if err != nil {
		return nil, err
	}
	for ; n > 0; n-- {
		p, ok := list.(*types.Pair)
		if !ok {
			return nil, types.NewError(types.ErrBadArgument, name+": index out of range", k)
		}
		list = p.Cdr
	}
	return list, nil
}

func fnListTail(_ *Evaluator, args []types.Value) (types.Value, error) {
	return listTail("list-tail", args[0], args[1])
}

func fnListRef(_ *Evaluator, args []types.Value) (types.Value, error) {
	tail, err := listTail("list-ref", args[0], args[1])
	if err != nil {
		return nil, err
	}
	p, ok := tail.(*types.Pair)
	if !ok {
		return nil, types.NewError(types.ErrBadArgument, "list-ref: index out of range", args[1])
	}
	return p.Car, nil
}

func fnListSet(_ *Evaluator, args []types.Value) (types.Value, error) {
	tail, err := listTail("list-set!", args[0], args[1])
	if err != nil {
		return nil, err
	}
	p, ok := tail.(*types.Pair)
	if !ok {
		return nil, types.NewError(types.ErrBadArgument, "list-set!: index out of range", args[1])
	}
	p.Car = args[2]
	return types.Unspecified, nil
}

func fnLastPair(_ *Evaluator, args []types.Value) (types.Value, error) {
	p, err := argPair("last-pair", args[0])
	if err != nil {
		return nil, err
	}
	for n := 0; n < types.MaxListLength; n++ {
		next, ok := p.Cdr.(*types.Pair)
		if !ok {
			return p, nil
		}
		p = next
	}
	return nil, types.NewError(types.ErrBadArgument, "last-pair: list too long")
}

// member builds memq, memv and member: the first tail whose car matches.
func member(name string, same func(a, b types.Value) bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		list := args[1]
		for n := 0; n < types.MaxListLength; n++ {
			p, ok := list.(*types.Pair)
			if !ok {
				if list != types.Nil {
					return nil, badType(name, "list", args[1])
				}
				return false, nil
			}
			if same(args[0], p.Car) {
				return p, nil
			}
			list = p.Cdr
		}
		return nil, types.NewError(types.ErrBadArgument, name+": list too long")
	}
}

// assoc builds assq, assv and assoc over association lists.
func assoc(name string, same func(a, b types.Value) bool) FunctionImpl {
	return func(_ *Evaluator, args []types.Value) (types.Value, error) {
		items, err := argList(name, args[1])
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			entry, err := argPair(name, item)
			if err != nil {
				return nil, err
			}
			if same(args[0], entry.Car) {
				return entry, nil
			}
		}
		return false, nil
	}
}

// ── Higher order ────────────────────────────────────────────────────────────

// transpose turns the list arguments of map and for-each into per-call
// argument slices, stopping at the shortest list.
func transpose(name string, lists []types.Value) ([][]types.Value, error) {
	cols := make([][]types.Value, len(lists))
	n := -1
	for i, l := range lists {
		items, err := argList(name, l)
		if err != nil {
			return nil, err
		}
		cols[i] = items
		if n < 0 || len(items) < n {
			n = len(items)
		}
	}
	rows := make([][]types.Value, n)
	for r := range rows {
		row := make([]types.Value, len(cols))
		for c := range cols {
			row[c] = cols[c][r]
		}
		rows[r] = row
	}
	return rows, nil
}

// mapRows applies proc to each row in turn through the trampoline, so proc
// may capture and re-enter continuations. Results accumulate in an
// immutable reversed list, which keeps every re-entry independent.
// collect receives them in order.
func mapRows(proc Applicable, rows [][]types.Value, collect func([]types.Value) types.Value) Result {
	var step func(i int, acc types.Value) Result
	step = func(i int, acc types.Value) Result {
		if i == len(rows) {
			out := make([]types.Value, i)
			for j := i - 1; j >= 0; j-- {
				p := acc.(*types.Pair)
				out[j] = p.Car
				acc = p.Cdr
			}
			return ReturnValue(collect(out))
		}
		return ReturnApplication(proc, rows[i]...).Then(continueWith(func(_ *Evaluator, v types.Value) (Result, error) {
			return step(i+1, types.Cons(v, acc)), nil
		}))
	}
	return step(0, types.Nil)
}

func fnMap(_ *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("map", args[0])
	if err != nil {
		return Result{}, err
	}
	rows, err := transpose("map", args[1:])
	if err != nil {
		return Result{}, err
	}
	return mapRows(proc, rows, func(vals []types.Value) types.Value {
		return types.List(vals...)
	}), nil
}

func fnForEach(_ *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("for-each", args[0])
	if err != nil {
		return Result{}, err
	}
	rows, err := transpose("for-each", args[1:])
	if err != nil {
		return Result{}, err
	}
	return mapRows(proc, rows, func([]types.Value) types.Value {
		return types.Unspecified
	}), nil
}
