// Package goscheme provides an embeddable Scheme evaluator for Go.
//
// Evaluation runs on an explicit frame trampoline: the Go stack does not grow
// with Scheme recursion, tail calls run in constant space, and
// continuations captured with call/cc can be re-entered any number of times.
// dynamic-wind, exception handlers and monitors are dynamic extents that are
// unwound and rewound as control moves between continuations.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := goscheme.Eval("(+ 1 2)")
//
//	// Compile once, evaluate many times
//	prog, err := goscheme.Compile("(define (sq x) (* x x)) (sq 12)")
//	ev := goscheme.NewEvaluator()
//	result, err := ev.Eval(ctx, prog)
//
//	// With options
//	result, err := goscheme.Eval("(display 'hi)",
//	    goscheme.WithOutput(os.Stdout),
//	    goscheme.WithMaxDepth(100000),
//	)
//
// # More Information
//
// For detailed documentation, see:
//   - Reader: github.com/sandrolain/goscheme/pkg/parser
//   - Evaluator: github.com/sandrolain/goscheme/pkg/evaluator
//   - Numbers: github.com/sandrolain/goscheme/pkg/numeric
//   - Host functions: github.com/sandrolain/goscheme/pkg/functions
//   - Values: github.com/sandrolain/goscheme/pkg/types
package goscheme

import (
	"context"
	"fmt"
	"time"

	"github.com/sandrolain/goscheme/pkg/evaluator"
	"github.com/sandrolain/goscheme/pkg/parser"
	"github.com/sandrolain/goscheme/pkg/types"
)

// defaultTimeout bounds Eval.
const defaultTimeout = 30 * time.Second

// Version returns the current version of goscheme.
func Version() string {
	return "v0.1.0-dev"
}

// EvalOption configures an evaluator.
type EvalOption = evaluator.EvalOption

// Option re-exports, so simple callers only import this package.
var (
	WithCaching        = evaluator.WithCaching
	WithCacheSize      = evaluator.WithCacheSize
	WithCache          = evaluator.WithCache
	WithMaxDepth       = evaluator.WithMaxDepth
	WithFoldCase       = evaluator.WithFoldCase
	WithDebug          = evaluator.WithDebug
	WithLogger         = evaluator.WithLogger
	WithInput          = evaluator.WithInput
	WithOutput         = evaluator.WithOutput
	WithCustomFunction = evaluator.WithCustomFunction
	WithFunctions      = evaluator.WithFunctions
)

// Compile reads a program for repeated evaluation.
//
// Example:
//
//	prog, err := goscheme.Compile("(map car '((1) (2)))")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(src string, opts ...parser.CompileOption) (*types.Program, error) {
	return parser.Compile(src, opts...)
}

// MustCompile is like Compile but panics if the source cannot be read.
// It simplifies safe initialization of global variables.
func MustCompile(src string) *types.Program {
	prog, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("goscheme: Compile(%q): %v", src, err))
	}
	return prog
}

// NewEvaluator creates an evaluator with a fresh top-level environment.
func NewEvaluator(opts ...EvalOption) *evaluator.Evaluator {
	return evaluator.New(opts...)
}

// Eval is a convenience function that evaluates src on a fresh evaluator and
// returns the value of its last form. Forked threads are waited for and open
// resources are closed before it returns.
//
// Example:
//
//	result, err := goscheme.Eval("(let loop ((i 0)) (if (< i 10) (loop (+ i 1)) i))")
func Eval(src string, opts ...EvalOption) (types.Value, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return EvalWithContext(ctx, src, opts...)
}

// EvalWithContext evaluates src with a custom context. Cancelling ctx stops
// the evaluation.
func EvalWithContext(ctx context.Context, src string, opts ...EvalOption) (types.Value, error) {
	ev := evaluator.New(opts...)
	defer ev.Cleanup()
	v, err := ev.EvalString(ctx, src)
	if werr := ev.Wait(); err == nil && werr != nil {
		return nil, werr
	}
	return v, err
}
