// Package types defines the data model shared by the reader, the numeric
// tower and the evaluator.
//
// This package contains type definitions for:
//   - Value: the universal evaluand and its concrete representations
//   - Symbol, Pair, Char, MString, Vector and the marker values
//   - Program: a compiled (read) source text
//   - Error: structured conditions with codes
//   - InputPort and OutputPort
//   - the printer (external representation)
package types

// Program is a read source text: the top-level data in order.
//
// A Program can be evaluated many times and by several evaluators. The data
// must not be mutated by the caller.
type Program struct {
	forms  []Value
	source string
}

// NewProgram creates a Program from already-read forms.
func NewProgram(forms []Value, source string) *Program {
	return &Program{
		forms:  forms,
		source: source,
	}
}

// Forms returns the top-level forms.
func (p *Program) Forms() []Value {
	return p.forms
}

// Source returns the original source text.
func (p *Program) Source() string {
	return p.source
}

// String returns the source text.
func (p *Program) String() string {
	return p.source
}
