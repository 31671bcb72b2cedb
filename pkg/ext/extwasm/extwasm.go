// Package extwasm lets Scheme programs load WebAssembly modules and call
// their exported functions. Modules run on the wazero runtime, with WASI
// preview 1 available to them.
//
// A loaded module is an opaque value. Instances are tracked by the
// evaluator family, so every module still open when the family is cleaned
// up gets closed.
//
//	(define m (wasm-load "add.wasm"))
//	(wasm-call m "add" 2 3)   ; => 5
//	(wasm-close m)
package extwasm

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/sandrolain/goscheme/pkg/ext/extutil"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// Module is an instantiated WebAssembly module with its own runtime.
//
// THREAD-SAFETY AUDIT: safe.
//   - closed is guarded by mu; calls after Close report an error.
//   - wazero modules may be called from several goroutines.
type Module struct {
	name    string
	runtime wazero.Runtime
	mod     api.Module

	mu     sync.Mutex
	closed bool
}

// Instantiate compiles and instantiates the binary module code.
func Instantiate(ctx context.Context, name string, code []byte) (*Module, error) {
	r := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	compiled, err := r.CompileModule(ctx, code)
	if err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return &Module{name: name, runtime: r, mod: mod}, nil
}

// Exports returns the names of the exported functions, sorted.
func (m *Module) Exports() []string {
	defs := m.mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the exported function fn. Arguments are converted to the
// parameter types of the function; results come back as exact integers for
// integer types and as reals for float types.
func (m *Module) Call(ctx context.Context, fn string, args ...types.Value) ([]types.Value, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("module %s is closed", m.name)
	}

	f := m.mod.ExportedFunction(fn)
	if f == nil {
		return nil, fmt.Errorf("module %s has no exported function %q", m.name, fn)
	}
	def := f.Definition()
	params := def.ParamTypes()
	if len(args) != len(params) {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", fn, len(params), len(args))
	}
	stack := make([]uint64, len(params))
	for i, t := range params {
		v, err := encode(t, args[i])
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		stack[i] = v
	}
	raw, err := f.Call(ctx, stack...)
	if err != nil {
		return nil, err
	}
	results := make([]types.Value, len(raw))
	for i, t := range def.ResultTypes() {
		results[i] = decode(t, raw[i])
	}
	return results, nil
}

// Close releases the module and its runtime. Closing twice is harmless.
func (m *Module) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()
	return m.runtime.Close(context.Background())
}

func (m *Module) String() string {
	return "#<wasm-module " + m.name + ">"
}

func encode(t api.ValueType, v types.Value) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		n, ok := numeric.ToInt(v)
		if !ok || n < math.MinInt32 || n > math.MaxUint32 {
			return 0, fmt.Errorf("expected a 32-bit integer, got %s", types.String(v, true))
		}
		return api.EncodeI32(int32(n)), nil
	case api.ValueTypeI64:
		switch n := v.(type) {
		case int:
			return api.EncodeI64(int64(n)), nil
		case int64:
			return api.EncodeI64(n), nil
		}
		return 0, fmt.Errorf("expected a 64-bit integer, got %s", types.String(v, true))
	case api.ValueTypeF32:
		f, ok := numeric.ToFloat(v)
		if !ok {
			return 0, fmt.Errorf("expected a number, got %s", types.String(v, true))
		}
		return api.EncodeF32(float32(f)), nil
	case api.ValueTypeF64:
		f, ok := numeric.ToFloat(v)
		if !ok {
			return 0, fmt.Errorf("expected a number, got %s", types.String(v, true))
		}
		return api.EncodeF64(f), nil
	}
	return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
}

func decode(t api.ValueType, raw uint64) types.Value {
	switch t {
	case api.ValueTypeI32:
		return int(api.DecodeI32(raw))
	case api.ValueTypeI64:
		return numeric.Normalize(int64(raw))
	case api.ValueTypeF32:
		return float64(api.DecodeF32(raw))
	case api.ValueTypeF64:
		return api.DecodeF64(raw)
	}
	return numeric.Normalize(raw)
}

// All returns all WebAssembly procedure definitions.
func All() []functions.AdvancedCustomFunctionDef {
	return []functions.AdvancedCustomFunctionDef{
		Load(),
		InstantiateBytes(),
		Call(),
		Exports(),
		Close(),
	}
}

// AllEntries returns all definitions as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

func track(h functions.Host, m *Module) *Module {
	h.Track(m)
	return m
}

func hostError(name string, err error) error {
	return types.NewError(types.ErrHost, name+": "+err.Error()).WithCause(err)
}

func argModule(name string, args []interface{}, i int) (*Module, error) {
	m, ok := args[i].(*Module)
	if !ok {
		return nil, types.NewError(types.ErrBadType, name+": expected a wasm module", args[i])
	}
	return m, nil
}

// Load returns the definition for (wasm-load path).
func Load() functions.AdvancedCustomFunctionDef {
	const name = "wasm-load"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(ctx context.Context, h functions.Host, args ...interface{}) (interface{}, error) {
			path, err := extutil.String(name, args, 0)
			if err != nil {
				return nil, err
			}
			code, err := os.ReadFile(path)
			if err != nil {
				return nil, hostError(name, err)
			}
			m, err := Instantiate(ctx, path, code)
			if err != nil {
				return nil, hostError(name, err)
			}
			return track(h, m), nil
		},
	}
}

// InstantiateBytes returns the definition for (wasm-instantiate bytes),
// where bytes is a vector of octets holding a binary module.
func InstantiateBytes() functions.AdvancedCustomFunctionDef {
	const name = "wasm-instantiate"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(ctx context.Context, h functions.Host, args ...interface{}) (interface{}, error) {
			vec, ok := args[0].(*types.Vector)
			if !ok {
				return nil, types.NewError(types.ErrBadType, name+": expected a vector of bytes", args[0])
			}
			code := make([]byte, len(vec.Items))
			for i, item := range vec.Items {
				b, ok := numeric.ToInt(item)
				if !ok || b < 0 || b > 255 {
					return nil, types.NewError(types.ErrBadArgument, name+": not a byte", item)
				}
				code[i] = byte(b)
			}
			m, err := Instantiate(ctx, "inline", code)
			if err != nil {
				return nil, hostError(name, err)
			}
			return track(h, m), nil
		},
	}
}

// Call returns the definition for (wasm-call module export arg ...). A
// function with a single result returns it; other result counts return a
// list.
func Call() functions.AdvancedCustomFunctionDef {
	const name = "wasm-call"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: -1,
		Fn: func(ctx context.Context, _ functions.Host, args ...interface{}) (interface{}, error) {
			m, err := argModule(name, args, 0)
			if err != nil {
				return nil, err
			}
			fn, err := extutil.String(name, args, 1)
			if err != nil {
				return nil, err
			}
			results, err := m.Call(ctx, fn, args[2:]...)
			if err != nil {
				return nil, hostError(name, err)
			}
			if len(results) == 1 {
				return results[0], nil
			}
			return types.List(results...), nil
		},
	}
}

// Exports returns the definition for (wasm-exports module), the sorted list
// of exported function names.
func Exports() functions.AdvancedCustomFunctionDef {
	const name = "wasm-exports"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, _ functions.Host, args ...interface{}) (interface{}, error) {
			m, err := argModule(name, args, 0)
			if err != nil {
				return nil, err
			}
			return m.Exports(), nil
		},
	}
}

// Close returns the definition for (wasm-close module).
func Close() functions.AdvancedCustomFunctionDef {
	const name = "wasm-close"
	return functions.AdvancedCustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, h functions.Host, args ...interface{}) (interface{}, error) {
			m, err := argModule(name, args, 0)
			if err != nil {
				return nil, err
			}
			h.Untrack(m)
			if err := m.Close(); err != nil {
				return nil, hostError(name, err)
			}
			return nil, nil
		},
	}
}
