package evaluator

import (
	"errors"
	"sync"

	"github.com/sandrolain/goscheme/pkg/types"
)

// Promise is a delayed evaluation. A promise made by delay evaluates its
// expression once, on the first force. A promise made by fork is computed
// by a sibling evaluator on its own goroutine; forcing it waits for that.
type Promise struct {
	mu    sync.Mutex
	done  bool
	value types.Value
	err   *types.Error

	// delayed promises
	expr types.Value
	env  *Environment
	lazy bool // delay-force: expr yields another promise

	// forked promises: fork is the promise whose goroutine computes the
	// value, closing ready when it is known.
	fork  *Promise
	ready chan struct{}
}

func (p *Promise) String() string {
	return "#<promise>"
}

func (p *Promise) resolve(v types.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		p.done, p.value = true, v
		p.expr, p.env = nil, nil
	}
}

// state returns the promise's value or failure once it is known.
func (p *Promise) state() (types.Value, *types.Error, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err, p.done
}

// adopt makes p share the pending computation of q, so chains of
// delay-force are forced in constant space.
func (p *Promise) adopt(q *Promise) {
	q.mu.Lock()
	done, value, cond := q.done, q.value, q.err
	expr, env, lazy, fork := q.expr, q.env, q.lazy, q.fork
	q.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	if done {
		p.done, p.value, p.err = true, value, cond
		p.expr, p.env = nil, nil
		return
	}
	p.expr, p.env, p.lazy, p.fork = expr, env, lazy, fork
}

func synDelayForce(e *Evaluator, args []types.Value) (Result, error) {
	return ReturnValue(&Promise{expr: args[0], env: e.Environment(), lazy: true}), nil
}

func fnMakePromise(_ *Evaluator, args []types.Value) (types.Value, error) {
	if p, ok := args[0].(*Promise); ok {
		return p, nil
	}
	return &Promise{done: true, value: args[0]}, nil
}

func fnIsPromise(_ *Evaluator, args []types.Value) (types.Value, error) {
	_, ok := args[0].(*Promise)
	return ok, nil
}

// fnForce returns the value of a promise, computing it if needed. Forcing
// anything else returns it unchanged.
func fnForce(_ *Evaluator, args []types.Value) (Result, error) {
	p, ok := args[0].(*Promise)
	if !ok {
		return ReturnValue(args[0]), nil
	}
	if v, cond, done := p.state(); done {
		if cond != nil {
			return Result{}, cond
		}
		return ReturnValue(v), nil
	}
	p.mu.Lock()
	expr, env, lazy, fork := p.expr, p.env, p.lazy, p.fork
	p.mu.Unlock()

	if fork != nil {
		<-fork.ready
		v, cond, _ := fork.state()
		if cond != nil {
			return Result{}, cond
		}
		return ReturnValue(v), nil
	}
	return ReturnExpression(expr, env).Then(continueWith(func(_ *Evaluator, v types.Value) (Result, error) {
		// The expression may itself have forced p.
		if prev, _, done := p.state(); done {
			return ReturnValue(prev), nil
		}
		if !lazy {
			p.resolve(v)
			return ReturnValue(v), nil
		}
		q, ok := v.(*Promise)
		if !ok {
			return Result{}, types.NewError(types.ErrBadType, "delay-force: expected promise", v)
		}
		p.adopt(q)
		return ReturnApplication(forcePrimitive, p), nil
	})), nil
}

// fnFork applies thunk on a spawned sibling running on its own goroutine
// and returns a promise of its value. An exit requested by the forked
// thread is reported by Evaluator.Wait.
func fnFork(e *Evaluator, args []types.Value) (types.Value, error) {
	thunk, err := argProc("fork", args[0])
	if err != nil {
		return nil, err
	}
	p := &Promise{ready: make(chan struct{})}
	p.fork = p
	s := e.Spawn()
	ctx := e.Context()
	e.family.forks.Go(func() error {
		defer close(p.ready)
		if s.opts.Debug {
			s.logger.Debug("fork started")
		}
		v, err := s.applyTop(ctx, thunk, nil)
		if s.opts.Debug {
			s.logger.Debug("fork finished", "success", err == nil)
		}
		if err != nil {
			cond := types.Wrap(err)
			p.mu.Lock()
			p.err = cond
			p.done = true
			p.mu.Unlock()
			var exit *types.Error
			if errors.As(err, &exit) && exit.Code == types.ErrExit {
				return exit
			}
			return nil
		}
		p.resolve(v)
		return nil
	})
	return p, nil
}
