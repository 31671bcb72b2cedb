package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/types"
)

func fnVector(_ *Evaluator, args []types.Value) (types.Value, error) {
	return &types.Vector{Items: append([]types.Value{}, args...)}, nil
}

func fnMakeVector(_ *Evaluator, args []types.Value) (types.Value, error) {
	n, err := argIndex("make-vector", args[0])
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
	return &types.Vector{Items: items}, nil
}

func fnVectorLength(_ *Evaluator, args []types.Value) (types.Value, error) {
	v, err := argVector("vector-length", args[0])
	if err != nil {
		return nil, err
	}
	return len(v.Items), nil
}

func fnVectorRef(_ *Evaluator, args []types.Value) (types.Value, error) {
	v, err := argVector("vector-ref", args[0])
	if err != nil {
		return nil, err
	}
	i, err := argIndex("vector-ref", args[1])
	if err != nil {
		return nil, err
	}
	if err := checkIndex("vector-ref", i, len(v.Items)); err != nil {
		return nil, err
	}
	return v.Items[i], nil
}

func fnVectorSet(_ *Evaluator, args []types.Value) (types.Value, error) {
	v, err := argVector("vector-set!", args[0])
	if err != nil {
		return nil, err
	}
	i, err := argIndex("vector-set!", args[1])
	if err != nil {
		return nil, err
	}
	if err := checkIndex("vector-set!", i, len(v.Items)); err != nil {
		return nil, err
	}
	v.Items[i] = args[2]
	return types.Unspecified, nil
}

func fnVectorFill(_ *Evaluator, args []types.Value) (types.Value, error) {
	v, err := argVector("vector-fill!", args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := argRange("vector-fill!", args[2:], len(v.Items))
	if err != nil {
		return nil, err
	}
	for i := start; i < end; i++ {
		v.Items[i] = args[1]
	}
	return types.Unspecified, nil
}

func fnVectorToList(_ *Evaluator, args []types.Value) (types.Value, error) {
	v, err := argVector("vector->list", args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := argRange("vector->list", args[1:], len(v.Items))
	if err != nil {
		return nil, err
	}
	return types.List(v.Items[start:end]...), nil
}

func fnListToVector(_ *Evaluator, args []types.Value) (types.Value, error) {
	items, err := argList("list->vector", args[0])
	if err != nil {
		return nil, err
	}
	return &types.Vector{Items: items}, nil
}

func fnVectorCopy(_ *Evaluator, args []types.Value) (types.Value, error) {
	v, err := argVector("vector-copy", args[0])
	if err != nil {
		return nil, err
	}
	start, end, err := argRange("vector-copy", args[1:], len(v.Items))
	if err != nil {
		return nil, err
	}
	return &types.Vector{Items: append([]types.Value{}, v.Items[start:end]...)}, nil
}

func fnVectorAppend(_ *Evaluator, args []types.Value) (types.Value, error) {
	var items []types.Value
	for _, a := range args {
		v, err := argVector("vector-append", a)
		if err != nil {
			return nil, err
		}
		items = append(items, v.Items...)
	}
	if items == nil {
		items = []types.Value{}
	}
	return &types.Vector{Items: items}, nil
}

// vectorRows transposes vector arguments the way transpose does lists.
func vectorRows(name string, vecs []types.Value) ([][]types.Value, error) {
	lists := make([]types.Value, len(vecs))
	for i, a := range vecs {
		v, err := argVector(name, a)
		if err != nil {
			return nil, err
		}
		lists[i] = types.List(v.Items...)
	}
	return transpose(name, lists)
}

func fnVectorMap(_ *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("vector-map", args[0])
	if err != nil {
		return Result{}, err
	}
	rows, err := vectorRows("vector-map", args[1:])
	if err != nil {
		return Result{}, err
	}
	return mapRows(proc, rows, func(vals []types.Value) types.Value {
		return &types.Vector{Items: vals}
	}), nil
}

func fnVectorForEach(_ *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("vector-for-each", args[0])
	if err != nil {
		return Result{}, err
	}
	rows, err := vectorRows("vector-for-each", args[1:])
	if err != nil {
		return Result{}, err
	}
	return mapRows(proc, rows, func([]types.Value) types.Value {
		return types.Unspecified
	}), nil
}
