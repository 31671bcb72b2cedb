package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/types"
)

// Run drives the trampoline until the evaluation set up by Start finishes,
// and returns its result. A failed evaluation returns the condition and
// false; Run itself never panics.
//
// Cancellation of the evaluator's context is checked every
// cancelCheckInterval steps and ends the run with an uncatchable condition.
func (e *Evaluator) Run() (result types.Value, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			cond, isCond := r.(*types.Error)
			if !isCond {
				cond = types.Internal("panic: %v", r)
			}
			e.logger.Error("evaluator panic", "error", cond.Error())
			e.releaseMonitors()
			e.fail(cond)
			result, ok = e.Result()
		}
	}()
	ctx := e.Context()
	for n := uint32(1); e.running; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				e.releaseMonitors()
				cond := types.NewError(types.ErrExit, "evaluation cancelled").WithCause(err)
				cond.Status = 1
				e.fail(cond)
				break
			}
		}
		var err error
		if e.pending {
			err = e.receive()
		} else {
			err = e.step()
		}
		if err != nil {
			e.raise(err)
		}
	}
	return e.Result()
}

const cancelCheckInterval = 1024

// step advances the current frame when it has work of its own to do.
func (e *Evaluator) step() error {
	f := e.frame
	switch f.mode {
	case modeEvalExpr:
		return e.evalExpr(f)
	case modeEvalOperands:
		return e.evalOperands(e.own())
	case modeApply:
		return e.apply(f)
	case modeEvalSequence:
		return e.evalSequence(e.own())
	}
	return types.Internal("frame in %s mode has nothing to do", f.mode)
}

func (e *Evaluator) evalExpr(f *Frame) error {
	switch x := f.expr.(type) {
	case *types.Symbol:
		v, err := e.lookup(f.env, x, false)
		if err != nil {
			return err
		}
		e.frame = f.parent
		e.deliver(v)
		return nil
	case *types.Pair:
		f = e.own()
		f.operands = x.Cdr
		if isSimple(x.Car) {
			op, err := e.evalSimple(x.Car, f.env, true)
			if err != nil {
				return err
			}
			return e.operator(f, op)
		}
		f.mode = modeEvalOperator
		return e.pushExpr(f, x.Car, f.env)
	case types.EmptyList:
		return types.NewError(types.ErrBadSyntax, "empty combination")
	}
	e.frame = f.parent
	e.deliver(f.expr)
	return nil
}

// operator continues an application once its operator is known. Special
// forms are applied right away to their unevaluated operands.
func (e *Evaluator) operator(f *Frame, v types.Value) error {
	op, ok := v.(Applicable)
	if !ok {
		return types.NewError(types.ErrBadType, "not applicable", v)
	}
	f.operator = op
	if op.Syntactic() {
		args, err := types.ListToSlice(f.operands)
		if err != nil {
			return types.NewError(types.ErrBadSyntax, "improper form", f.expr)
		}
		f.mode = modeApply
		f.args = args
		return e.apply(f)
	}
	f.args = nil
	f.mode = modeEvalOperands
	return nil
}

// evalOperands evaluates operands left to right. Simple operands are
// evaluated in place; anything else gets a child frame.
func (e *Evaluator) evalOperands(f *Frame) error {
	for {
		p, ok := f.operands.(*types.Pair)
		if !ok {
			break
		}
		f.operands = p.Cdr
		if isSimple(p.Car) {
			v, err := e.evalSimple(p.Car, f.env, false)
			if err != nil {
				return err
			}
			f.args = append(f.args, v)
			continue
		}
		return e.pushExpr(f, p.Car, f.env)
	}
	if f.operands != types.Nil {
		return types.NewError(types.ErrBadSyntax, "improper argument list", f.expr)
	}
	f.mode = modeApply
	return nil
}

func (e *Evaluator) apply(f *Frame) error {
	r, err := f.operator.Apply(e, f.args)
	if err != nil {
		return err
	}
	return e.complete(r)
}

// evalSequence evaluates the next body expression. The last one is
// evaluated by this frame itself.
func (e *Evaluator) evalSequence(f *Frame) error {
	p, ok := f.operands.(*types.Pair)
	if !ok {
		if f.operands != types.Nil {
			return types.NewError(types.ErrBadSyntax, "improper body", f.operands)
		}
		e.frame = f.parent
		e.deliver(types.Unspecified)
		return nil
	}
	if p.Cdr == types.Nil {
		f.mode = modeEvalExpr
		f.expr = p.Car
		f.operands = nil
		return nil
	}
	f.operands = p.Cdr
	if isSimple(p.Car) {
		_, err := e.evalSimple(p.Car, f.env, false)
		return err
	}
	f.mode = modeEvalInSequence
	return e.pushExpr(f, p.Car, f.env)
}

// complete carries out the Result of applying the current frame's operator.
func (e *Evaluator) complete(r Result) error {
	switch r.kind {
	case resultJump:
		e.jump(r.target, r.values)
		return nil
	case resultTransition:
		e.runTransition(r.plan, r.pos)
		return nil
	}
	if r.extents > 1 {
		return types.Internal("more than one extent requested by a single application")
	}

	f := e.own()
	waiting := f.parent
	reuse := true
	if r.then != nil {
		f.mode = modeEvalOperands
		f.operator = r.then
		f.operands = types.Nil
		f.args = nil
		waiting = f
		reuse = false
	}
	if r.consumer != nil {
		if reuse {
			f.mode = modeExpectValues
			f.operator = r.consumer
			f.args = nil
			waiting = f
			reuse = false
		} else {
			g, err := e.push(waiting, f.env, modeExpectValues)
			if err != nil {
				return err
			}
			g.operator = r.consumer
			waiting = g
		}
	}
	if r.extent != nil {
		x, err := e.install(r.extent, waiting)
		if err != nil {
			return err
		}
		waiting = x
	}

	switch r.kind {
	case resultValue:
		e.frame = waiting
		e.deliver(r.value)
		return nil
	case resultValues:
		e.frame = waiting
		e.deliverValues(r.values)
		return nil
	}

	t := f
	if reuse {
		f.parent = waiting
		f.depth = 0
		if waiting != nil {
			f.depth = waiting.depth + 1
		}
	} else {
		var err error
		if t, err = e.push(waiting, f.env, modeEvalExpr); err != nil {
			return err
		}
	}
	t.operator = nil
	t.operands = nil
	t.args = nil
	switch r.kind {
	case resultExpression:
		t.mode = modeEvalExpr
		t.expr = r.value
		if r.env != nil {
			t.env = r.env
		}
	case resultSequence:
		t.mode = modeEvalSequence
		t.operands = r.value
		if r.env != nil {
			t.env = r.env
		}
	case resultApplication:
		t.mode = modeApply
		t.operator = r.proc
		t.args = r.values
	default:
		return types.Internal("unknown result kind %d", r.kind)
	}
	e.frame = t
	return nil
}

// receive delivers the pending value(s) to the current frame.
func (e *Evaluator) receive() error {
	f := e.frame
	if f == nil {
		e.succeed()
		return nil
	}
	switch f.mode {
	case modeEvalExpr:
		v, err := e.single()
		if err != nil {
			return err
		}
		f = e.own()
		f.expr = v
	case modeEvalOperator:
		v, err := e.single()
		if err != nil {
			return err
		}
		return e.operator(e.own(), v)
	case modeEvalOperands:
		v, err := e.single()
		if err != nil {
			return err
		}
		f = e.own()
		f.args = append(f.args, v)
	case modeApply:
		e.pending = false
	case modeEvalInSequence:
		e.pending = false
		f = e.own()
		f.mode = modeEvalSequence
	case modeExpectValues:
		vals := e.takeValues()
		f = e.own()
		f.args = vals
		f.mode = modeApply
	case modeReturnValue:
		if e.multi {
			return types.Errorf(types.ErrBadArgument, "expected one value, got %d", len(e.vals))
		}
		e.frame = f.parent
		if f.ext != nil {
			e.leave(f)
		}
	case modeReturnValues:
		e.frame = f.parent
		if f.ext != nil {
			e.leave(f)
		}
	default:
		return types.Internal("cannot deliver to frame in %s mode", f.mode)
	}
	return nil
}

// ── Pending values ──────────────────────────────────────────────────────────

func (e *Evaluator) deliver(v types.Value) {
	e.pending = true
	e.multi = false
	e.val = v
	e.vals = nil
}

func (e *Evaluator) deliverValues(vals []types.Value) {
	if len(vals) == 1 {
		e.deliver(vals[0])
		return
	}
	e.pending = true
	e.multi = true
	e.val = nil
	e.vals = vals
}

// single consumes the pending value, which must be exactly one.
func (e *Evaluator) single() (types.Value, error) {
	if e.multi {
		return nil, types.Errorf(types.ErrBadArgument, "expected one value, got %d", len(e.vals))
	}
	e.pending = false
	return e.val, nil
}

// takeValues consumes the pending values as a fresh slice.
func (e *Evaluator) takeValues() []types.Value {
	e.pending = false
	if !e.multi {
		return []types.Value{e.val}
	}
	return append([]types.Value(nil), e.vals...)
}

// ── Simple expressions ──────────────────────────────────────────────────────

// isSimple reports whether x can be evaluated without a frame: a variable
// reference or a self-evaluating datum.
func isSimple(x types.Value) bool {
	switch x.(type) {
	case *types.Pair, types.EmptyList:
		return false
	}
	return true
}

func (e *Evaluator) evalSimple(x types.Value, env *Environment, operator bool) (types.Value, error) {
	if sym, ok := x.(*types.Symbol); ok {
		return e.lookup(env, sym, operator)
	}
	return x, nil
}

// lookup resolves a variable. Special forms are only valid in operator
// position.
func (e *Evaluator) lookup(env *Environment, sym *types.Symbol, operator bool) (types.Value, error) {
	v, ok := env.Lookup(sym)
	if !ok {
		return nil, types.NewError(types.ErrUnboundVariable, "unbound variable", sym)
	}
	if v == types.Uninitialized {
		return nil, types.NewError(types.ErrNotAValue, "variable used before its definition", sym)
	}
	if !operator {
		if op, isOp := v.(Applicable); isOp && op.Syntactic() {
			return nil, types.NewError(types.ErrNotAValue, "special form used as a value", sym)
		}
	}
	return v, nil
}
