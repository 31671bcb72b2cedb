package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/types"
)

// mode says what a frame is waiting for.
type mode uint8

const (
	modeEvalExpr       mode = iota // evaluate expr
	modeEvalOperator               // waiting for the operator value
	modeEvalOperands               // evaluating operands left to right
	modeApply                      // apply operator to args
	modeEvalSequence               // evaluate the body in operands
	modeEvalInSequence             // waiting for a non-final body expression
	modeExpectValues               // apply operator to the values received
	modeReturnValues               // pass any number of values to the parent
	modeReturnValue                // pass exactly one value to the parent
)

var modeNames = [...]string{
	modeEvalExpr:       "eval",
	modeEvalOperator:   "operator",
	modeEvalOperands:   "operands",
	modeApply:          "apply",
	modeEvalSequence:   "sequence",
	modeEvalInSequence: "in-sequence",
	modeExpectValues:   "expect-values",
	modeReturnValues:   "return-values",
	modeReturnValue:    "return-value",
}

func (m mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Frame is an activation frame. The chain of parents from the current frame
// is the evaluator's control stack.
//
// A frame reachable from a continuation is marked captured and is never
// mutated again: the evaluator clones it first (see Evaluator.own). Since a
// frame's ancestors are captured whenever it is, clones share the original
// ancestor chain.
type Frame struct {
	parent   *Frame
	env      *Environment
	mode     mode
	expr     types.Value   // pending expression
	operator Applicable    // operator being applied
	operands types.Value   // unevaluated operands, or the rest of a body
	args     []types.Value // evaluated operands
	depth    int
	topLevel bool
	captured bool

	// Extent frames only.
	ext  *extent
	next *Frame // next extent frame outward
}

// Parent returns the parent frame.
func (f *Frame) Parent() *Frame {
	return f.parent
}

// Depth returns the number of frames above the root.
func (f *Frame) Depth() int {
	return f.depth
}

// clone returns an uncaptured copy of f that shares its ancestors.
func (f *Frame) clone() *Frame {
	c := *f
	c.captured = false
	c.args = f.args[:len(f.args):len(f.args)]
	return &c
}

// child creates a frame under parent without checking the depth limit.
func child(parent *Frame, env *Environment, m mode) *Frame {
	f := &Frame{parent: parent, env: env, mode: m}
	if parent != nil {
		f.depth = parent.depth + 1
	}
	return f
}

// push creates a frame under parent, enforcing the depth limit.
func (e *Evaluator) push(parent *Frame, env *Environment, m mode) (*Frame, error) {
	f := child(parent, env, m)
	if err := e.checkDepth(f.depth); err != nil {
		return nil, err
	}
	return f, nil
}

// pushExpr makes a child of the current frame that evaluates x.
func (e *Evaluator) pushExpr(parent *Frame, x types.Value, env *Environment) error {
	f, err := e.push(parent, env, modeEvalExpr)
	if err != nil {
		return err
	}
	f.expr = x
	e.frame = f
	return nil
}

func (e *Evaluator) checkDepth(depth int) error {
	if depth > e.maxSeen {
		e.maxSeen = depth
	}
	if e.opts.MaxDepth > 0 && depth > e.opts.MaxDepth {
		return types.Errorf(types.ErrBadArgument, "frame depth limit exceeded (%d)", e.opts.MaxDepth)
	}
	return nil
}

// own returns the current frame ready for mutation, cloning it first if it
// has been captured.
func (e *Evaluator) own() *Frame {
	f := e.frame
	if !f.captured {
		return f
	}
	c := f.clone()
	e.frame = c
	return c
}

// capture freezes the chain from f to the root. Ancestors of a captured
// frame are already captured, so the walk stops at the first one.
func capture(f *Frame) {
	for ; f != nil && !f.captured; f = f.parent {
		f.captured = true
	}
}
