package evaluator

import (
	"github.com/sandrolain/goscheme/pkg/types"
)

var (
	symElse            = types.Intern("else")
	symArrow           = types.Intern("=>")
	symQuote           = types.Intern("quote")
	symQuasiquote      = types.Intern("quasiquote")
	symUnquote         = types.Intern("unquote")
	symUnquoteSplicing = types.Intern("unquote-splicing")
)

// continueWith adapts a Go function into the single-value continuation of a
// Result.Then. It is how special forms resume after a subexpression has been
// evaluated by the trampoline.
type continueWith func(e *Evaluator, v types.Value) (Result, error)

// ContinueWith lets primitives defined in other packages pass a Go function
// to Result.Then.
type ContinueWith = continueWith

func (c continueWith) Apply(e *Evaluator, args []types.Value) (Result, error) {
	return c(e, args[0])
}

func (c continueWith) Syntactic() bool {
	return false
}

func badSyntax(form string, irritants ...types.Value) error {
	return types.NewError(types.ErrBadSyntax, "bad "+form+" form", irritants...)
}

// operandsFrom returns the operand list of the special form being applied,
// starting at operand i. Bodies are taken from the source form itself
// rather than rebuilt from the operand slice.
func (e *Evaluator) operandsFrom(i int) types.Value {
	v := types.Value(types.Nil)
	if p, ok := e.frame.expr.(*types.Pair); ok {
		v = p.Cdr
	}
	for ; i > 0; i-- {
		p, ok := v.(*types.Pair)
		if !ok {
			return types.Nil
		}
		v = p.Cdr
	}
	return v
}

// evalThen evaluates x and passes its value to next, taking the one-step
// shortcut for simple expressions.
func (e *Evaluator) evalThen(x types.Value, env *Environment, next continueWith) (Result, error) {
	if isSimple(x) {
		v, err := e.evalSimple(x, env, false)
		if err != nil {
			return Result{}, err
		}
		return next(e, v)
	}
	return ReturnExpression(x, env).Then(next), nil
}

// ── quote, lambda, define, set! ─────────────────────────────────────────────

func synQuote(_ *Evaluator, args []types.Value) (Result, error) {
	return ReturnValue(args[0]), nil
}

func synLambda(e *Evaluator, args []types.Value) (Result, error) {
	c, err := makeClosure("", args[0], e.operandsFrom(1), e.Environment())
	if err != nil {
		return Result{}, err
	}
	return ReturnValue(c), nil
}

func makeClosure(name string, formals, body types.Value, env *Environment) (*Closure, error) {
	params, rest, err := parseFormals(formals)
	if err != nil {
		return nil, err
	}
	if body == types.Nil {
		return nil, badSyntax("lambda", formals)
	}
	return &Closure{Name: name, Params: params, Rest: rest, Body: body, Env: env}, nil
}

// synDefine handles (define var expr), (define var) and the procedure
// shorthand (define (name . formals) body...), including curried heads.
func synDefine(e *Evaluator, args []types.Value) (Result, error) {
	env := e.Environment()
	switch target := args[0].(type) {
	case *types.Symbol:
		switch len(args) {
		case 1:
			if err := env.Bind(target, types.Unspecified); err != nil {
				return Result{}, bindingError(err, target)
			}
			return ReturnValue(target), nil
		case 2:
			return e.evalThen(args[1], env, func(_ *Evaluator, v types.Value) (Result, error) {
				if c, ok := v.(*Closure); ok && c.Name == "" {
					c.Name = target.Name
				}
				if err := env.Bind(target, v); err != nil {
					return Result{}, bindingError(err, target)
				}
				return ReturnValue(target), nil
			})
		}
		return Result{}, badSyntax("define", target)
	case *types.Pair:
		head, formals, body := target.Car, target.Cdr, e.operandsFrom(1)
		// ((name a) b) defines name as a procedure returning a procedure.
		for {
			p, ok := head.(*types.Pair)
			if !ok {
				break
			}
			inner := types.Cons(lambdaForm, types.Cons(formals, body))
			head, formals, body = p.Car, p.Cdr, types.List(inner)
		}
		name, ok := head.(*types.Symbol)
		if !ok {
			return Result{}, badSyntax("define", head)
		}
		c, err := makeClosure(name.Name, formals, body, env)
		if err != nil {
			return Result{}, err
		}
		if err := env.Bind(name, c); err != nil {
			return Result{}, bindingError(err, name)
		}
		return ReturnValue(name), nil
	}
	return Result{}, badSyntax("define", args[0])
}

func synSet(e *Evaluator, args []types.Value) (Result, error) {
	sym, ok := args[0].(*types.Symbol)
	if !ok {
		return Result{}, badSyntax("set!", args[0])
	}
	env := e.Environment()
	return e.evalThen(args[1], env, func(_ *Evaluator, v types.Value) (Result, error) {
		if _, err := env.Modify(sym, v); err != nil {
			return Result{}, bindingError(err, sym)
		}
		return ReturnValue(types.Unspecified), nil
	})
}

// ── Conditionals ────────────────────────────────────────────────────────────

func synIf(e *Evaluator, args []types.Value) (Result, error) {
	env := e.Environment()
	conseq := args[1]
	var alt types.Value = types.Unspecified
	hasAlt := len(args) == 3
	if hasAlt {
		alt = args[2]
	}
	return e.evalThen(args[0], env, func(_ *Evaluator, v types.Value) (Result, error) {
		if types.Truthy(v) {
			return ReturnExpression(conseq, env), nil
		}
		if hasAlt {
			return ReturnExpression(alt, env), nil
		}
		return ReturnValue(types.Unspecified), nil
	})
}

func synWhen(e *Evaluator, args []types.Value) (Result, error) {
	return conditionalBody(e, args[0], true)
}

func synUnless(e *Evaluator, args []types.Value) (Result, error) {
	return conditionalBody(e, args[0], false)
}

func conditionalBody(e *Evaluator, test types.Value, want bool) (Result, error) {
	env := e.Environment()
	body := e.operandsFrom(1)
	return e.evalThen(test, env, func(_ *Evaluator, v types.Value) (Result, error) {
		if types.Truthy(v) == want {
			return ReturnSequence(body, env), nil
		}
		return ReturnValue(types.Unspecified), nil
	})
}

func synAnd(e *Evaluator, args []types.Value) (Result, error) {
	return logical(e, args, e.Environment(), true)
}

func synOr(e *Evaluator, args []types.Value) (Result, error) {
	return logical(e, args, e.Environment(), false)
}

// logical evaluates and/or operands in order. The last operand is in tail
// position. and stops at the first false value, or at the first true one.
func logical(e *Evaluator, args []types.Value, env *Environment, and bool) (Result, error) {
	for len(args) > 0 {
		if len(args) == 1 {
			return ReturnExpression(args[0], env), nil
		}
		x, rest := args[0], args[1:]
		if !isSimple(x) {
			return ReturnExpression(x, env).Then(continueWith(func(e *Evaluator, v types.Value) (Result, error) {
				if types.Truthy(v) != and {
					return ReturnValue(v), nil
				}
				return logical(e, rest, env, and)
			})), nil
		}
		v, err := e.evalSimple(x, env, false)
		if err != nil {
			return Result{}, err
		}
		if types.Truthy(v) != and {
			return ReturnValue(v), nil
		}
		args = rest
	}
	return ReturnValue(and), nil
}

func synCond(e *Evaluator, args []types.Value) (Result, error) {
	return condClauses(e, args, e.Environment())
}

// condClauses tests clauses in order. Tests that are simple expressions
// are evaluated in place; the first other test suspends the walk.
func condClauses(e *Evaluator, clauses []types.Value, env *Environment) (Result, error) {
	for i, c := range clauses {
		clause, ok := c.(*types.Pair)
		if !ok {
			return Result{}, badSyntax("cond", c)
		}
		if clause.Car == symElse {
			if i != len(clauses)-1 {
				return Result{}, badSyntax("cond", c)
			}
			return ReturnSequence(clause.Cdr, env), nil
		}
		rest := clauses[i+1:]
		selected := func(e *Evaluator, v types.Value) (Result, error) {
			if !types.Truthy(v) {
				return condClauses(e, rest, env)
			}
			return clauseBody(clause.Cdr, v, env, "cond")
		}
		if !isSimple(clause.Car) {
			return ReturnExpression(clause.Car, env).Then(continueWith(selected)), nil
		}
		v, err := e.evalSimple(clause.Car, env, false)
		if err != nil {
			return Result{}, err
		}
		if types.Truthy(v) {
			return clauseBody(clause.Cdr, v, env, "cond")
		}
	}
	return ReturnValue(types.Unspecified), nil
}

// clauseBody evaluates the body of a selected cond or case clause. An empty
// body yields the test value; (=> receiver) applies receiver to it.
func clauseBody(body, v types.Value, env *Environment, form string) (Result, error) {
	p, ok := body.(*types.Pair)
	if !ok {
		if body != types.Nil {
			return Result{}, badSyntax(form, body)
		}
		return ReturnValue(v), nil
	}
	if p.Car != symArrow {
		return ReturnSequence(body, env), nil
	}
	recv, ok := p.Cdr.(*types.Pair)
	if !ok || recv.Cdr != types.Nil {
		return Result{}, badSyntax(form, body)
	}
	return ReturnExpression(recv.Car, env).Then(continueWith(func(_ *Evaluator, proc types.Value) (Result, error) {
		op, ok := proc.(Applicable)
		if !ok || op.Syntactic() {
			return Result{}, types.NewError(types.ErrBadType, "not a procedure", proc)
		}
		return ReturnApplication(op, v), nil
	})), nil
}

func synCase(e *Evaluator, args []types.Value) (Result, error) {
	env := e.Environment()
	clauses := args[1:]
	return e.evalThen(args[0], env, func(_ *Evaluator, key types.Value) (Result, error) {
		for i, c := range clauses {
			clause, ok := c.(*types.Pair)
			if !ok {
				return Result{}, badSyntax("case", c)
			}
			if clause.Car == symElse {
				if i != len(clauses)-1 {
					return Result{}, badSyntax("case", c)
				}
				return clauseBody(clause.Cdr, key, env, "case")
			}
			data, err := types.ListToSlice(clause.Car)
			if err != nil {
				return Result{}, badSyntax("case", c)
			}
			for _, d := range data {
				if eqv(key, d) {
					return clauseBody(clause.Cdr, key, env, "case")
				}
			}
		}
		return ReturnValue(types.Unspecified), nil
	})
}

// ── Sequencing and binding ──────────────────────────────────────────────────

func synBegin(e *Evaluator, _ []types.Value) (Result, error) {
	return ReturnSequence(e.operandsFrom(0), e.Environment()), nil
}

// bindingList splits ((var init) ...) into variables and init expressions.
func bindingList(form string, bindings types.Value) ([]types.Value, []types.Value, error) {
	list, err := types.ListToSlice(bindings)
	if err != nil {
		return nil, nil, badSyntax(form, bindings)
	}
	vars := make([]types.Value, len(list))
	inits := make([]types.Value, len(list))
	for i, b := range list {
		parts, err := types.ListToSlice(b)
		if err != nil || len(parts) == 0 || len(parts) > 2 {
			return nil, nil, badSyntax(form, b)
		}
		if _, ok := parts[0].(*types.Symbol); !ok {
			return nil, nil, badSyntax(form, b)
		}
		vars[i] = parts[0]
		inits[i] = types.Unspecified
		if len(parts) == 2 {
			inits[i] = parts[1]
		}
	}
	return vars, inits, nil
}

// synLet evaluates (let ((v e) ...) body...) as the application of a
// closure to the inits, and named let as the application of a closure bound
// to its name in a scope of its own.
func synLet(e *Evaluator, args []types.Value) (Result, error) {
	env := e.Environment()
	name, isNamed := args[0].(*types.Symbol)
	bindings, body := args[0], e.operandsFrom(1)
	if isNamed {
		if len(args) < 3 {
			return Result{}, badSyntax("let", name)
		}
		bindings, body = args[1], e.operandsFrom(2)
	}
	vars, inits, err := bindingList("let", bindings)
	if err != nil {
		return Result{}, err
	}
	scope := env
	label := ""
	if isNamed {
		scope = NewEnvironment(env)
		label = name.Name
	}
	c, err := makeClosure(label, types.List(vars...), body, scope)
	if err != nil {
		return Result{}, err
	}
	if isNamed {
		_ = scope.Bind(name, c)
	}
	return ReturnExpression(types.Cons(c, types.List(inits...)), env), nil
}

func synLetStar(e *Evaluator, args []types.Value) (Result, error) {
	env := e.Environment()
	body := e.operandsFrom(1)
	bindings, ok := args[0].(*types.Pair)
	if !ok {
		if args[0] != types.Nil {
			return Result{}, badSyntax("let*", args[0])
		}
		return ReturnExpression(types.Cons(letForm, types.Cons(types.Nil, body)), env), nil
	}
	if bindings.Cdr == types.Nil {
		return ReturnExpression(types.Cons(letForm, types.Cons(bindings, body)), env), nil
	}
	inner := types.Cons(letStarForm, types.Cons(bindings.Cdr, body))
	return ReturnExpression(types.List(letForm, types.List(bindings.Car), inner), env), nil
}

// synLetrec binds every variable to the uninitialized marker in a new scope,
// then assigns the inits in order and evaluates the body.
func synLetrec(e *Evaluator, args []types.Value) (Result, error) {
	vars, inits, err := bindingList("letrec", args[0])
	if err != nil {
		return Result{}, err
	}
	scope := newFrameEnvironment(e.Environment(), len(vars))
	seq := make([]types.Value, 0, len(vars))
	for i, v := range vars {
		scope.bindings[v.(*types.Symbol)] = types.Uninitialized
		seq = append(seq, types.List(setForm, v, inits[i]))
	}
	body := e.operandsFrom(1)
	if body == types.Nil {
		return Result{}, badSyntax("letrec", args[0])
	}
	return ReturnSequence(types.ListWithTail(seq, body), scope), nil
}

// synDo rewrites (do ((var init step) ...) (test res ...) body ...) into a
// named let over a fresh label.
func synDo(e *Evaluator, args []types.Value) (Result, error) {
	specs, err := types.ListToSlice(args[0])
	if err != nil {
		return Result{}, badSyntax("do", args[0])
	}
	exit, err := types.ListToSlice(args[1])
	if err != nil || len(exit) == 0 {
		return Result{}, badSyntax("do", args[1])
	}
	label := &types.Symbol{Name: "do-loop"}
	bindings := make([]types.Value, len(specs))
	steps := make([]types.Value, len(specs))
	for i, s := range specs {
		parts, err := types.ListToSlice(s)
		if err != nil || len(parts) < 2 || len(parts) > 3 {
			return Result{}, badSyntax("do", s)
		}
		if _, ok := parts[0].(*types.Symbol); !ok {
			return Result{}, badSyntax("do", s)
		}
		bindings[i] = types.List(parts[0], parts[1])
		steps[i] = parts[0]
		if len(parts) == 3 {
			steps[i] = parts[2]
		}
	}
	loop := types.Cons(label, types.List(steps...))
	cmds, err := types.ListToSlice(e.operandsFrom(2))
	if err != nil {
		return Result{}, badSyntax("do", e.operandsFrom(2))
	}
	body := types.Cons(beginForm, types.ListWithTail(cmds, types.List(loop)))
	result := types.Cons(beginForm, types.List(exit[1:]...))
	expr := types.List(letForm, label, types.List(bindings...),
		types.List(ifForm, exit[0], result, body))
	return ReturnExpression(expr, e.Environment()), nil
}

// ── Promises ────────────────────────────────────────────────────────────────

func synDelay(e *Evaluator, args []types.Value) (Result, error) {
	return ReturnValue(&Promise{expr: args[0], env: e.Environment()}), nil
}

// ── Quasiquote ──────────────────────────────────────────────────────────────

func synQuasiquote(e *Evaluator, args []types.Value) (Result, error) {
	x, err := quasi(args[0], 1)
	if err != nil {
		return Result{}, err
	}
	return ReturnExpression(x, e.Environment()), nil
}

// quasi expands a quasiquoted template at nesting depth into an expression
// built from the list primitives. The primitives are spliced in as values,
// so rebinding cons or append does not change what a template means.
func quasi(x types.Value, depth int) (types.Value, error) {
	switch t := x.(type) {
	case *types.Pair:
		if !hasUnquote(t) {
			return types.List(quoteForm, t), nil
		}
		switch t.Car {
		case symUnquote:
			arg, err := onlyOperand(t, "unquote")
			if err != nil {
				return nil, err
			}
			if depth == 1 {
				return arg, nil
			}
			inner, err := quasi(arg, depth-1)
			if err != nil {
				return nil, err
			}
			return types.List(lookupPrimitive("list"), types.List(quoteForm, symUnquote), inner), nil
		case symQuasiquote:
			arg, err := onlyOperand(t, "quasiquote")
			if err != nil {
				return nil, err
			}
			inner, err := quasi(arg, depth+1)
			if err != nil {
				return nil, err
			}
			return types.List(lookupPrimitive("list"), types.List(quoteForm, symQuasiquote), inner), nil
		}
		rest, err := quasi(t.Cdr, depth)
		if err != nil {
			return nil, err
		}
		if p, ok := t.Car.(*types.Pair); ok && p.Car == symUnquoteSplicing && depth == 1 {
			arg, err := onlyOperand(p, "unquote-splicing")
			if err != nil {
				return nil, err
			}
			return types.List(lookupPrimitive("append"), arg, rest), nil
		}
		first, err := quasi(t.Car, depth)
		if err != nil {
			return nil, err
		}
		return types.List(lookupPrimitive("cons"), first, rest), nil
	case *types.Vector:
		items, err := quasi(types.List(t.Items...), depth)
		if err != nil {
			return nil, err
		}
		return types.List(lookupPrimitive("list->vector"), items), nil
	case *types.Symbol, types.EmptyList:
		return types.List(quoteForm, t), nil
	}
	return x, nil
}

func onlyOperand(p *types.Pair, form string) (types.Value, error) {
	rest, ok := p.Cdr.(*types.Pair)
	if !ok || rest.Cdr != types.Nil {
		return nil, badSyntax(form, p)
	}
	return rest.Car, nil
}

func hasUnquote(x types.Value) bool {
	switch t := x.(type) {
	case *types.Pair:
		if t.Car == symUnquote || t.Car == symUnquoteSplicing {
			return true
		}
		return hasUnquote(t.Car) || hasUnquote(t.Cdr)
	case *types.Vector:
		for _, item := range t.Items {
			if hasUnquote(item) {
				return true
			}
		}
	}
	return false
}
