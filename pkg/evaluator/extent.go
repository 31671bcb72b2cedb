package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/types"
)

type extentKind uint8

const (
	extentMonitor extentKind = iota
	extentHandler
	extentBeforeAfter
)

func (k extentKind) String() string {
	switch k {
	case extentMonitor:
		return "monitor"
	case extentHandler:
		return "handler"
	default:
		return "before-after"
	}
}

// extent describes the dynamic-extent marker carried by an extent frame.
type extent struct {
	kind extentKind

	obj types.Value // monitor

	handler Applicable  // exception handler
	handles types.Value // condition types caught by handler

	before Applicable // before-after, either may be nil
	after  Applicable
}

// install threads a new extent frame between the computation about to start
// and parent, the frame that will receive its values. It returns the
// extent frame, which becomes the computation's parent.
func (e *Evaluator) install(x *extent, parent *Frame) (*Frame, error) {
	if x.kind == extentMonitor {
		if err := e.family.monitors.acquire(x.obj, e); err != nil {
			return nil, err
		}
	}
	f, err := e.push(parent, nil, modeReturnValues)
	if err != nil {
		if x.kind == extentMonitor {
			e.family.monitors.release(x.obj, e)
		}
		return nil, err
	}
	if parent != nil {
		f.env = parent.env
	}
	f.ext = x
	f.next = e.extent
	e.extent = f
	return f, nil
}

// leave runs the effect of returning through the extent frame x with the
// pending values. The evaluator's current frame is already x's parent.
func (e *Evaluator) leave(x *Frame) {
	e.extent = x.next
	switch x.ext.kind {
	case extentMonitor:
		e.family.monitors.release(x.ext.obj, e)
	case extentBeforeAfter:
		if x.ext.after == nil {
			return
		}
		// Evaluate the after thunk, then hand the saved values on.
		r := child(x.parent, x.env, modeApply)
		r.operator = valuesPrimitive
		r.args = e.takeValues()
		a := child(r, x.env, modeApply)
		a.operator = x.ext.after
		e.frame = a
	}
}

// handles reports whether a handler guarding filter catches cond.
func handles(filter types.Value, cond *types.Error) bool {
	switch s := filter.(type) {
	case bool:
		return s && cond.Catchable()
	case *types.Symbol:
		return cond.Matches(types.ErrorCode(s.Name))
	case string:
		return cond.Matches(types.ErrorCode(s))
	case *types.Pair:
		for p := types.Value(s); p != types.Nil; {
			pair, ok := p.(*types.Pair)
			if !ok {
				return false
			}
			if handles(pair.Car, cond) {
				return true
			}
			p = pair.Cdr
		}
	}
	return false
}
