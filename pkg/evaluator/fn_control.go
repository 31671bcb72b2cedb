package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// ── Application ─────────────────────────────────────────────────────────────

// fnApply spreads its last argument, a list, after the others.
func fnApply(_ *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("apply", args[0])
	if err != nil {
		return Result{}, err
	}
	last := len(args) - 1
	spread, err := argList("apply", args[last])
	if err != nil {
		return Result{}, err
	}
	all := make([]types.Value, 0, last-1+len(spread))
	all = append(all, args[1:last]...)
	all = append(all, spread...)
	return ReturnApplication(proc, all...), nil
}

func fnValues(_ *Evaluator, args []types.Value) (Result, error) {
	return ReturnValues(append([]types.Value{}, args...)), nil
}

func fnCallWithValues(_ *Evaluator, args []types.Value) (Result, error) {
	producer, err := argProc("call-with-values", args[0])
	if err != nil {
		return Result{}, err
	}
	consumer, err := argProc("call-with-values", args[1])
	if err != nil {
		return Result{}, err
	}
	return ReturnApplication(producer).ValuesTo(consumer), nil
}

func fnCallCC(e *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("call-with-current-continuation", args[0])
	if err != nil {
		return Result{}, err
	}
	return ReturnApplication(proc, e.CurrentContinuation()), nil
}

// ── Dynamic extents ─────────────────────────────────────────────────────────

// fnDynamicWind runs before, then thunk inside an extent that reruns before
// on re-entry and runs after on every exit.
func fnDynamicWind(_ *Evaluator, args []types.Value) (Result, error) {
	var procs [3]Applicable
	for i, a := range args {
		p, err := argProc("dynamic-wind", a)
		if err != nil {
			return Result{}, err
		}
		procs[i] = p
	}
	before, thunk, after := procs[0], procs[1], procs[2]
	return ReturnApplication(before).Then(continueWith(func(_ *Evaluator, _ types.Value) (Result, error) {
		return ReturnApplication(thunk).WithBeforeAfter(before, after), nil
	})), nil
}

// fnCatch applies thunk with handler guarding the condition types in
// filter. The handler's value becomes the value of the catch.
func fnCatch(_ *Evaluator, args []types.Value) (Result, error) {
	handler, err := argProc("catch", args[1])
	if err != nil {
		return Result{}, err
	}
	thunk, err := argProc("catch", args[2])
	if err != nil {
		return Result{}, err
	}
	return ReturnApplication(thunk).WithExceptionHandler(handler, args[0]), nil
}

func fnSynchronized(_ *Evaluator, args []types.Value) (Result, error) {
	thunk, err := argProc("synchronized", args[1])
	if err != nil {
		return Result{}, err
	}
	return ReturnApplication(thunk).WithMonitor(args[0]), nil
}

// ── Conditions ──────────────────────────────────────────────────────────────

// fnRaise signals obj. Conditions are re-raised as they are; any other
// object travels as the payload of a user-error.
func fnRaise(_ *Evaluator, args []types.Value) (types.Value, error) {
	if cond, ok := args[0].(*types.Error); ok {
		return nil, cond
	}
	cond := types.NewError(types.ErrUser, "uncaught raise", args[0])
	cond.Payload = args[0]
	return nil, cond
}

func fnError(_ *Evaluator, args []types.Value) (types.Value, error) {
	msg, err := argString("error", args[0])
	if err != nil {
		msg = types.String(args[0], false)
	}
	return nil, types.NewError(types.ErrUser, msg, args[1:]...)
}

// fnExit requests termination of the whole program. #t and no argument
// mean status 0, #f means 1.
func fnExit(_ *Evaluator, args []types.Value) (types.Value, error) {
	status := 0
	if len(args) > 0 {
		switch s := args[0].(type) {
		case bool:
			if !s {
				status = 1
			}
		default:
			n, ok := numeric.ToInt(s)
			if !ok {
				return nil, badType("exit", "exit status", s)
			}
			status = n
		}
	}
	cond := types.Errorf(types.ErrExit, "exit %d", status)
	cond.Status = status
	return nil, cond
}

func argCondition(name string, v types.Value) (*types.Error, error) {
	cond, ok := v.(*types.Error)
	if !ok {
		return nil, badType(name, "condition", v)
	}
	return cond, nil
}

func fnIsCondition(_ *Evaluator, args []types.Value) (types.Value, error) {
	_, ok := args[0].(*types.Error)
	return ok, nil
}

func fnConditionType(_ *Evaluator, args []types.Value) (types.Value, error) {
	cond, err := argCondition("condition-type", args[0])
	if err != nil {
		return nil, err
	}
	return types.Intern(string(cond.Code)), nil
}

func fnConditionMessage(_ *Evaluator, args []types.Value) (types.Value, error) {
	cond, err := argCondition("condition-message", args[0])
	if err != nil {
		return nil, err
	}
	if cond.Code == types.ErrHost && cond.Err != nil {
		return cond.Err.Error(), nil
	}
	return cond.Message, nil
}

func fnConditionIrritants(_ *Evaluator, args []types.Value) (types.Value, error) {
	cond, err := argCondition("condition-irritants", args[0])
	if err != nil {
		return nil, err
	}
	return types.List(cond.Irritants...), nil
}

// ── Evaluation ──────────────────────────────────────────────────────────────

func fnEval(e *Evaluator, args []types.Value) (Result, error) {
	env := e.family.top
	if len(args) > 1 {
		var ok bool
		if env, ok = args[1].(*Environment); !ok {
			return Result{}, badType("eval", "environment", args[1])
		}
	}
	return ReturnExpression(args[0], env), nil
}

func fnInteractionEnvironment(e *Evaluator, _ []types.Value) (types.Value, error) {
	return e.family.top, nil
}
