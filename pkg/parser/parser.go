package parser

// Package parser implements the Scheme reader.
//
// The reader turns source text into data: numbers, strings, characters,
// symbols, lists and vectors. Programs are data, so the result of reading is
// what the evaluator consumes.
//
// # Architecture
//
// The parser consists of two components:
//   - Lexer: tokenizes an io.RuneScanner, never reading past a datum
//   - Parser: builds lists and vectors from tokens, allocating pairs from a
//     types.PairArena
//
// Input that ends inside a datum produces an error with code
// types.ErrIncomplete, which lets a REPL keep prompting for more lines.
//
// # Example
//
//	prog, err := parser.Compile("(define (sq x) (* x x)) (sq 12)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	forms := prog.Forms()

import (
	"io"
	"strings"

	"github.com/sandrolain/goscheme/pkg/types"
)

// defaultMaxDepth limits list nesting when no option is given.
const defaultMaxDepth = 10000

// Parse reads all data in src and returns them as a Program.
func Parse(src string) (*types.Program, error) {
	return Compile(src)
}

// Compile reads all data in src with the given options.
func Compile(src string, opts ...CompileOption) (*types.Program, error) {
	p := NewParser(strings.NewReader(src), opts...)
	forms, err := p.ReadAll()
	if err != nil {
		return nil, err
	}
	return types.NewProgram(forms, src), nil
}

// ReadDatum reads one datum from r. It returns types.EOF at end of input.
func ReadDatum(r io.RuneScanner, opts ...CompileOption) (types.Value, error) {
	return NewParser(r, opts...).Read()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// FoldCase folds symbols to lower case, as after #!fold-case.
	FoldCase bool
	// MaxDepth limits nesting depth to prevent stack overflow. 0 disables
	// the limit.
	MaxDepth int
}

// WithFoldCase enables case folding of symbols.
func WithFoldCase(enable bool) CompileOption {
	return func(opts *CompileOptions) {
		opts.FoldCase = enable
	}
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
