package types

import (
	"sync"
)

// Value is the universal evaluand. Scheme code is data, so the reader produces
// Values and the evaluator consumes them directly.
//
// The concrete Go representations are:
//   - exact integers: int (machine integer), int64, *big.Int
//   - exact rationals: *big.Rat
//   - inexact reals: float64, *big.Float (decimal)
//   - booleans: bool
//   - characters: Char
//   - strings: string (immutable) and *MString (mutable)
//   - symbols: *Symbol
//   - lists: *Pair and Nil
//   - vectors: *Vector
//   - markers: Unspecified, Uninitialized, EOF
//   - conditions: *Error
//   - ports: *InputPort, *OutputPort
//
// Anything else is an opaque host object.
type Value = interface{}

// Symbol is an interned identifier. Two symbols with the same name are the
// same pointer, so symbols compare with ==.
type Symbol struct {
	Name string
}

// String returns the symbol name.
func (s *Symbol) String() string {
	return s.Name
}

// symbols maps names to their interned *Symbol.
var symbols sync.Map // map[string]*Symbol

// Intern returns the unique symbol for name.
func Intern(name string) *Symbol {
	if v, ok := symbols.Load(name); ok {
		return v.(*Symbol)
	}
	sym, _ := symbols.LoadOrStore(name, &Symbol{Name: name})
	return sym.(*Symbol)
}

// Pair is a mutable cons cell.
type Pair struct {
	Car Value
	Cdr Value
}

// EmptyList is the type of the empty list.
type EmptyList struct{}

// Nil is the empty list.
var Nil = EmptyList{}

// Char is a Scheme character.
type Char rune

// MString is a mutable string, as produced by make-string and string-copy.
// Literal strings are plain Go strings and cannot be modified.
type MString struct {
	Runes []rune
}

// NewMString returns a mutable copy of s.
func NewMString(s string) *MString {
	return &MString{Runes: []rune(s)}
}

// String returns the current contents.
func (m *MString) String() string {
	return string(m.Runes)
}

// Vector is a fixed-length heterogeneous array.
type Vector struct {
	Items []Value
}

type marker string

func (m marker) String() string { return string(m) }

// Markers distinguishable from every other value.
const (
	// Unspecified is the value of expressions whose value is not specified.
	Unspecified = marker("#<unspecified>")
	// Uninitialized is the value of a binding that exists but has no value yet,
	// and the result of Environment.Modify for a fresh binding.
	Uninitialized = marker("#<uninitialized>")
	// EOF is the end-of-file object.
	EOF = marker("#<eof>")
)

// arenaChunkSize is the number of pairs pre-allocated per arena chunk.
const arenaChunkSize = 128

// PairArena is a bump-pointer allocator for the pairs built by the reader.
//
// A source file turns into many small lists; allocating their cells in chunks
// keeps the reader to a handful of allocations per form. Pairs handed out by
// the arena are ordinary mutable pairs and stay valid as long as they are
// reachable.
//
// PairArena is NOT thread-safe. Each reader owns its own arena.
type PairArena struct {
	chunk []Pair
	pos   int
}

// NewPairArena allocates an arena pre-warmed with one chunk.
func NewPairArena() *PairArena {
	return &PairArena{chunk: make([]Pair, arenaChunkSize)}
}

// Cons returns a new pair allocated from the arena.
func (a *PairArena) Cons(car, cdr Value) *Pair {
	if a == nil {
		return &Pair{Car: car, Cdr: cdr}
	}
	if a.pos >= len(a.chunk) {
		a.chunk = make([]Pair, arenaChunkSize)
		a.pos = 0
	}
	p := &a.chunk[a.pos]
	a.pos++
	p.Car = car
	p.Cdr = cdr
	return p
}
