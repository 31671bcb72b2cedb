package evaluator

import (
	"strconv"
	"strings"

	"github.com/sandrolain/goscheme/pkg/types"
)

// Applicable is implemented by everything that can stand in operator
// position: primitives, closures, continuations and the internal
// continuations the evaluator threads through frames.
//
// Apply never evaluates nested expressions itself. It describes what should
// happen next by returning a Result, and the trampoline carries it out.
type Applicable interface {
	Apply(e *Evaluator, args []types.Value) (Result, error)
	// Syntactic reports whether operands are passed unevaluated.
	Syntactic() bool
}

type resultKind uint8

const (
	resultValue resultKind = iota
	resultValues
	resultExpression
	resultSequence
	resultApplication
	resultJump
	resultTransition
)

// Result is what an Applicable hands back to the trampoline.
type Result struct {
	kind     resultKind
	value    types.Value   // value, expression or sequence body
	values   []types.Value // multiple values or application arguments
	env      *Environment
	proc     Applicable
	then     Applicable
	consumer Applicable
	extent   *extent
	extents  int

	// jump and transition state
	target *Continuation
	plan   *transition
	pos    int
}

// ReturnValue returns a single value to the caller.
func ReturnValue(v types.Value) Result {
	return Result{kind: resultValue, value: v}
}

// ReturnValues returns zero or more values. The receiving frame must accept
// multiple values unless exactly one is returned.
func ReturnValues(vals []types.Value) Result {
	if len(vals) == 1 {
		return ReturnValue(vals[0])
	}
	return Result{kind: resultValues, values: vals}
}

// ReturnExpression asks for x to be evaluated in env in place of the current
// application. The evaluation happens in the current frame, which is what
// keeps tail calls from growing the frame chain.
func ReturnExpression(x types.Value, env *Environment) Result {
	return Result{kind: resultExpression, value: x, env: env}
}

// ReturnSequence asks for the expressions of the list body to be evaluated in
// order in env, the last one in tail position.
func ReturnSequence(body types.Value, env *Environment) Result {
	return Result{kind: resultSequence, value: body, env: env}
}

// ReturnApplication asks for proc to be applied to already evaluated args.
func ReturnApplication(proc Applicable, args ...types.Value) Result {
	return Result{kind: resultApplication, proc: proc, values: args}
}

// Then routes the single value the result produces into cont instead of the
// caller. cont is applied with that value as its only argument, and its own
// result goes to the caller.
func (r Result) Then(cont Applicable) Result {
	r.then = cont
	return r
}

// ValuesTo applies proc to however many values the result produces.
func (r Result) ValuesTo(proc Applicable) Result {
	r.consumer = proc
	return r
}

// WithMonitor runs the result while holding the monitor of obj.
func (r Result) WithMonitor(obj types.Value) Result {
	return r.within(&extent{kind: extentMonitor, obj: obj})
}

// WithExceptionHandler runs the result with handler catching conditions
// matched by handles: a condition type symbol, #t, or a list of symbols.
func (r Result) WithExceptionHandler(handler Applicable, handles types.Value) Result {
	return r.within(&extent{kind: extentHandler, handler: handler, handles: handles})
}

// WithBeforeAfter runs the result inside a dynamic extent whose before thunk
// runs on every entry by a continuation and whose after thunk runs on every
// exit. The before thunk is not run for the initial entry; the caller has
// already done so.
func (r Result) WithBeforeAfter(before, after Applicable) Result {
	return r.within(&extent{kind: extentBeforeAfter, before: before, after: after})
}

func (r Result) within(x *extent) Result {
	r.extent = x
	r.extents++
	return r
}

// MultipleValues is the final result of a top-level evaluation that returned
// other than one value.
type MultipleValues []types.Value

func (m MultipleValues) String() string {
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = types.String(v, true)
	}
	return strings.Join(parts, " ")
}

// ── Primitives ──────────────────────────────────────────────────────────────

// FunctionImpl implements a primitive that returns a plain value.
type FunctionImpl func(e *Evaluator, args []types.Value) (types.Value, error)

// ControlImpl implements a primitive that directs the trampoline.
type ControlImpl func(e *Evaluator, args []types.Value) (Result, error)

// Primitive is an applicable implemented in Go.
type Primitive struct {
	Name    string
	MinArgs int
	MaxArgs int  // -1 for unlimited
	Syntax  bool // operands are passed unevaluated
	Impl    FunctionImpl
	Control ControlImpl
}

// Apply checks the arity and runs the implementation.
func (p *Primitive) Apply(e *Evaluator, args []types.Value) (Result, error) {
	if len(args) < p.MinArgs || (p.MaxArgs >= 0 && len(args) > p.MaxArgs) {
		if p.Syntax {
			return Result{}, types.NewError(types.ErrBadSyntax, "bad "+p.Name+" form")
		}
		return Result{}, types.Errorf(types.ErrBadArgument, "%s: wrong number of arguments: %d", p.Name, len(args))
	}
	if p.Control != nil {
		return p.Control(e, args)
	}
	v, err := p.Impl(e, args)
	if err != nil {
		return Result{}, err
	}
	return ReturnValue(v), nil
}

// Syntactic reports whether p is a special form.
func (p *Primitive) Syntactic() bool {
	return p.Syntax
}

func (p *Primitive) String() string {
	if p.Syntax {
		return "#<syntax " + p.Name + ">"
	}
	return "#<primitive " + p.Name + ">"
}

// ── Closures ────────────────────────────────────────────────────────────────

// Closure is a procedure created by lambda.
type Closure struct {
	Name   string
	Params []*types.Symbol
	Rest   *types.Symbol // nil unless variadic
	Body   types.Value   // non-empty list of expressions
	Env    *Environment
}

// Apply binds the arguments in a fresh environment and evaluates the body in
// tail position.
func (c *Closure) Apply(_ *Evaluator, args []types.Value) (Result, error) {
	n := len(c.Params)
	if len(args) < n || (c.Rest == nil && len(args) > n) {
		return Result{}, types.Errorf(types.ErrBadArgument, "%s: expected %s arguments, got %d", c.label(), c.arity(), len(args))
	}
	size := n
	if c.Rest != nil {
		size++
	}
	env := newFrameEnvironment(c.Env, size)
	for i, p := range c.Params {
		env.bindings[p] = args[i]
	}
	if c.Rest != nil {
		env.bindings[c.Rest] = types.List(args[n:]...)
	}
	return ReturnSequence(c.Body, env), nil
}

// Syntactic reports false.
func (c *Closure) Syntactic() bool {
	return false
}

func (c *Closure) label() string {
	if c.Name == "" {
		return "#[anonymous procedure]"
	}
	return c.Name
}

func (c *Closure) arity() string {
	n := len(c.Params)
	if c.Rest != nil {
		return "at least " + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func (c *Closure) String() string {
	if c.Name == "" {
		return "#<procedure>"
	}
	return "#<procedure " + c.Name + ">"
}

// parseFormals validates a lambda parameter list: a symbol, a proper list of
// distinct symbols, or a dotted list ending in a symbol.
func parseFormals(formals types.Value) ([]*types.Symbol, *types.Symbol, error) {
	var params []*types.Symbol
	seen := make(map[*types.Symbol]bool)
	for {
		switch f := formals.(type) {
		case types.EmptyList:
			return params, nil, nil
		case *types.Symbol:
			if seen[f] {
				return nil, nil, types.NewError(types.ErrBadSyntax, "duplicate parameter", f)
			}
			return params, f, nil
		case *types.Pair:
			sym, ok := f.Car.(*types.Symbol)
			if !ok {
				return nil, nil, types.NewError(types.ErrBadSyntax, "parameter is not a symbol", f.Car)
			}
			if seen[sym] {
				return nil, nil, types.NewError(types.ErrBadSyntax, "duplicate parameter", sym)
			}
			seen[sym] = true
			params = append(params, sym)
			formals = f.Cdr
		default:
			return nil, nil, types.NewError(types.ErrBadSyntax, "bad parameter list", formals)
		}
	}
}
