package evaluator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sandrolain/goscheme/pkg/types"
)

// Sentinel errors returned by Environment. The evaluator converts them into
// conditions.
var (
	// ErrSealed is returned when binding or modifying a sealed environment.
	ErrSealed = errors.New("environment is sealed")
	// ErrUnbound is returned by Modify when the symbol has no binding.
	ErrUnbound = errors.New("unbound variable")
)

// Environment maps symbols to values. Environments form a parent chain for
// lexical scoping.
//
// The top-level environment is shared by spawned evaluators, so every
// environment is guarded by a RWMutex.
type Environment struct {
	mu       sync.RWMutex
	bindings map[*types.Symbol]types.Value
	parent   *Environment
	sealed   bool
}

// NewEnvironment creates an empty environment whose lookups fall back to
// parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		bindings: make(map[*types.Symbol]types.Value),
		parent:   parent,
	}
}

// newFrameEnvironment creates an environment sized for n bindings.
func newFrameEnvironment(parent *Environment, n int) *Environment {
	return &Environment{
		bindings: make(map[*types.Symbol]types.Value, n),
		parent:   parent,
	}
}

// Parent returns the enclosing environment.
func (env *Environment) Parent() *Environment {
	return env.parent
}

// Lookup retrieves the value bound to sym, searching the parent chain.
func (env *Environment) Lookup(sym *types.Symbol) (types.Value, bool) {
	for e := env; e != nil; e = e.parent {
		e.mu.RLock()
		v, ok := e.bindings[sym]
		e.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// IsBound reports whether sym is bound anywhere in the chain.
func (env *Environment) IsBound(sym *types.Symbol) bool {
	_, ok := env.Lookup(sym)
	return ok
}

// Bind creates or replaces the binding of sym in this environment.
func (env *Environment) Bind(sym *types.Symbol, v types.Value) error {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.sealed {
		return ErrSealed
	}
	env.bindings[sym] = v
	return nil
}

// Modify assigns to the nearest existing binding of sym and returns the
// previous value, which is types.Uninitialized for a binding that had none.
func (env *Environment) Modify(sym *types.Symbol, v types.Value) (types.Value, error) {
	for e := env; e != nil; e = e.parent {
		e.mu.Lock()
		prev, ok := e.bindings[sym]
		if !ok {
			e.mu.Unlock()
			continue
		}
		if e.sealed {
			e.mu.Unlock()
			return nil, ErrSealed
		}
		e.bindings[sym] = v
		e.mu.Unlock()
		if prev == nil {
			prev = types.Uninitialized
		}
		return prev, nil
	}
	return nil, ErrUnbound
}

// Seal makes the environment reject Bind and Modify.
func (env *Environment) Seal() {
	env.mu.Lock()
	env.sealed = true
	env.mu.Unlock()
}

// Unseal reverses Seal.
func (env *Environment) Unseal() {
	env.mu.Lock()
	env.sealed = false
	env.mu.Unlock()
}

// Sealed reports whether the environment is sealed.
func (env *Environment) Sealed() bool {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return env.sealed
}

// String returns a string representation of the environment.
func (env *Environment) String() string {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return fmt.Sprintf("#<environment %d bindings>", len(env.bindings))
}

// bindingError converts an Environment error into a condition.
func bindingError(err error, sym *types.Symbol) error {
	switch {
	case errors.Is(err, ErrSealed):
		return types.NewError(types.ErrBadArgument, "cannot change sealed binding", sym)
	case errors.Is(err, ErrUnbound):
		return types.NewError(types.ErrUnboundVariable, "unbound variable", sym)
	}
	return err
}
