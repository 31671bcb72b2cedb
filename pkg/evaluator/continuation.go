package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/types"
)

// Continuation is a captured control state: a frame chain and the first
// extent frame reachable from it. Applying a continuation abandons the
// current control state, reconciles dynamic extents and delivers the
// arguments to the captured frame. A continuation can be applied any number
// of times, including after the evaluation that captured it has finished.
type Continuation struct {
	frame  *Frame
	extent *Frame
}

// Apply transfers control to the continuation.
func (k *Continuation) Apply(_ *Evaluator, args []types.Value) (Result, error) {
	return Result{kind: resultJump, target: k, values: args}, nil
}

// Syntactic reports false.
func (k *Continuation) Syntactic() bool {
	return false
}

func (k *Continuation) String() string {
	return "#<continuation>"
}

// CurrentContinuation captures the continuation of the application being
// performed: applying it returns from that application.
func (e *Evaluator) CurrentContinuation() *Continuation {
	f := e.frame.parent
	capture(f)
	if e.opts.Debug {
		e.logger.Debug("continuation captured", "depth", e.frame.depth)
	}
	return &Continuation{frame: f, extent: e.extent}
}

// ── Extent transitions ──────────────────────────────────────────────────────

// transitionStep exits or enters one extent frame.
type transitionStep struct {
	frame *Frame
	enter bool
}

// transition is a queued set of extent exits and entries followed by a final
// transfer of control: into a continuation, to an exception handler, or out
// of the evaluator with a condition. Steps that run thunks suspend the
// transition; it resumes through a resume frame when the thunk returns.
type transition struct {
	steps   []transitionStep
	target  *Continuation
	values  []types.Value
	handler *Frame
	cond    *types.Error
}

// resume is the internal continuation that picks a suspended transition up
// after a before or after thunk returns.
type resume struct {
	plan *transition
	pos  int
}

func (r *resume) Apply(_ *Evaluator, _ []types.Value) (Result, error) {
	return Result{kind: resultTransition, plan: r.plan, pos: r.pos}, nil
}

func (r *resume) Syntactic() bool {
	return false
}

// jump transfers control to k with vals.
func (e *Evaluator) jump(k *Continuation, vals []types.Value) {
	t := &transition{target: k, values: vals}
	t.steps = reconcile(e.extent, k.extent)
	if e.opts.Debug {
		e.logger.Debug("continuation invoked", "transitions", len(t.steps))
	}
	e.runTransition(t, 0)
}

// reconcile lists the extent frames to leave and enter when going from the
// chain starting at from to the chain starting at to. The chains are walked
// to equal length, the longer one's excess first, then in lockstep until they
// share a frame. Exits run innermost first; entries run afterwards,
// outermost first.
func reconcile(from, to *Frame) []transitionStep {
	la, lb := chainLength(from), chainLength(to)
	var exits, entries []*Frame
	for ; la > lb; la-- {
		exits = append(exits, from)
		from = from.next
	}
	for ; lb > la; lb-- {
		entries = append(entries, to)
		to = to.next
	}
	for from != to {
		exits = append(exits, from)
		entries = append(entries, to)
		from, to = from.next, to.next
	}
	steps := make([]transitionStep, 0, len(exits)+len(entries))
	for _, x := range exits {
		steps = append(steps, transitionStep{frame: x})
	}
	for i := len(entries) - 1; i >= 0; i-- {
		steps = append(steps, transitionStep{frame: entries[i], enter: true})
	}
	return steps
}

func chainLength(x *Frame) int {
	n := 0
	for ; x != nil; x = x.next {
		n++
	}
	return n
}

// runTransition executes the steps of t from pos. A step with a thunk
// installs frames that evaluate it and returns; the rest of the transition
// continues when the thunk's value reaches the resume frame.
func (e *Evaluator) runTransition(t *transition, pos int) {
	e.pending = false
	for ; pos < len(t.steps); pos++ {
		s := t.steps[pos]
		x := s.frame
		if !s.enter {
			e.extent = x.next
			switch x.ext.kind {
			case extentMonitor:
				e.family.monitors.release(x.ext.obj, e)
			case extentBeforeAfter:
				if x.ext.after != nil {
					e.runThunk(x.ext.after, x, &resume{plan: t, pos: pos + 1})
					return
				}
			}
			continue
		}
		switch x.ext.kind {
		case extentMonitor:
			if err := e.family.monitors.acquire(x.ext.obj, e); err != nil {
				e.fail(types.Wrap(err))
				return
			}
		case extentBeforeAfter:
			if x.ext.before != nil {
				e.extent = x.next
				e.runThunk(x.ext.before, x, &resume{plan: t, pos: pos + 1})
				return
			}
		}
		e.extent = x
	}
	e.finishTransition(t)
}

// runThunk evaluates thunk in the dynamic context just outside the extent
// frame x, then applies next.
func (e *Evaluator) runThunk(thunk Applicable, x *Frame, next Applicable) {
	r := child(x.parent, x.env, modeApply)
	r.operator = next
	a := child(r, x.env, modeApply)
	a.operator = thunk
	e.frame = a
}

func (e *Evaluator) finishTransition(t *transition) {
	switch {
	case t.target != nil:
		e.frame = t.target.frame
		e.extent = t.target.extent
		e.deliverValues(t.values)
	case t.handler != nil:
		h := t.handler
		e.extent = h.next
		f := child(h.parent, h.env, modeApply)
		f.operator = h.ext.handler
		f.args = []types.Value{conditionPayload(t.cond)}
		e.frame = f
	default:
		e.fail(t.cond)
	}
}

// conditionPayload is what a handler receives: the object given to raise,
// or the condition itself.
func conditionPayload(cond *types.Error) types.Value {
	if cond.Payload != nil {
		return cond.Payload
	}
	return cond
}

// ── Exceptions ──────────────────────────────────────────────────────────────

// raise propagates err along the extent chain. Monitors between here and the
// matching handler are released and after thunks run, innermost first,
// before the handler is applied. Without a handler the evaluation fails with
// the condition once the whole chain is unwound. Internal errors skip the
// thunks.
func (e *Evaluator) raise(err error) {
	cond := types.Wrap(err)
	e.pending = false
	e.trace = e.frame
	if cond.Code == types.ErrInternal {
		e.releaseMonitors()
		e.fail(cond)
		return
	}
	t := &transition{cond: cond}
	for x := e.extent; x != nil; x = x.next {
		t.steps = append(t.steps, transitionStep{frame: x})
		if x.ext.kind == extentHandler && handles(x.ext.handles, cond) {
			t.handler = x
			break
		}
	}
	if e.opts.Debug {
		e.logger.Debug("raising condition",
			"code", string(cond.Code),
			"handled", t.handler != nil,
			"extents", len(t.steps))
	}
	e.runTransition(t, 0)
}

// releaseMonitors releases every monitor held by the current extent chain.
func (e *Evaluator) releaseMonitors() {
	for x := e.extent; x != nil; x = x.next {
		if x.ext.kind == extentMonitor {
			e.family.monitors.release(x.ext.obj, e)
		}
	}
	e.extent = nil
}
