package parser_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/sandrolain/goscheme/pkg/parser"
	"github.com/sandrolain/goscheme/pkg/types"
)

// Helper functions

func readOne(t *testing.T, input string, opts ...parser.CompileOption) types.Value {
	t.Helper()
	prog, err := parser.Compile(input, opts...)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", input, err)
	}
	if len(prog.Forms()) != 1 {
		t.Fatalf("Expected one datum in %q, got %d", input, len(prog.Forms()))
	}
	return prog.Forms()[0]
}

func expectError(t *testing.T, input string, code types.ErrorCode) {
	t.Helper()
	_, err := parser.Parse(input)
	if err == nil {
		t.Fatalf("Expected error parsing %q but got none", input)
	}
	e, ok := err.(*types.Error)
	if !ok || e.Code != code {
		t.Fatalf("Parse(%q) error = %v, want code %s", input, err, code)
	}
}

// Datum tests

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"-3/6", "-1/2"},
		{"1.5", "1.5"},
		{`"hi\tthere"`, `"hi\tthere"`},
		{"#\\a", "#\\a"},
		{"#\\x41", "#\\A"},
		{"#t", "#t"},
		{"#false", "#f"},
		{"foo", "foo"},
		{"(1 2 3)", "(1 2 3)"},
		{"(1 . 2)", "(1 . 2)"},
		{"(1 2 . 3)", "(1 2 . 3)"},
		{"[a b]", "(a b)"},
		{"()", "()"},
		{"#(1 #(2))", "#(1 #(2))"},
		{"'x", "(quote x)"},
		{"`(a ,b ,@c)", "(quasiquote (a (unquote b) (unquote-splicing c)))"},
		{"(a #;(ignored) b)", "(a b)"},
		{"(a ; line\n b)", "(a b)"},
		{"+", "+"},
		{"...", "..."},
		{"-x", "-x"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := readOne(t, tt.input)
			if got := types.String(v, true); got != tt.want {
				t.Errorf("read %q printed as %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNumbersAndSymbols(t *testing.T) {
	v := readOne(t, "123456789012345678901234567890")
	if _, ok := v.(*big.Int); !ok {
		t.Errorf("big literal read as %T", v)
	}
	if v := readOne(t, "abc"); v != types.Intern("abc") {
		t.Errorf("symbol not interned: %v", v)
	}
	if v := readOne(t, "ABC", parser.WithFoldCase(true)); v != types.Intern("abc") {
		t.Errorf("fold case: got %v", v)
	}
	if v := readOne(t, "#!fold-case Hello"); v != types.Intern("hello") {
		t.Errorf("#!fold-case: got %v", v)
	}
	if v := readOne(t, "Hello"); v != types.Intern("Hello") {
		t.Errorf("case preserved by default: got %v", v)
	}
}

func TestParseProgram(t *testing.T) {
	prog, err := parser.Compile("(define x 1) ; one\n(display x) #;(skip)")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(prog.Forms()); n != 2 {
		t.Fatalf("forms = %d, want 2", n)
	}
	if prog.Source() == "" {
		t.Error("source not kept")
	}
}

func TestParseErrors(t *testing.T) {
	expectError(t, "(1 2", types.ErrIncomplete)
	expectError(t, "'", types.ErrIncomplete)
	expectError(t, "#(1", types.ErrIncomplete)
	expectError(t, ")", types.ErrRead)
	expectError(t, "(. 1)", types.ErrRead)
	expectError(t, "(1 . 2 3)", types.ErrRead)
	expectError(t, "(1]", types.ErrRead)
	expectError(t, "#\\bogus", types.ErrRead)
	expectError(t, "#q", types.ErrRead)
	if !types.IsIncomplete(func() error { _, err := parser.Parse("(a (b"); return err }()) {
		t.Error("nested unterminated list should be incomplete")
	}
}

func TestParseMaxDepth(t *testing.T) {
	src := strings.Repeat("(", 50) + strings.Repeat(")", 50)
	if _, err := parser.Compile(src, parser.WithMaxDepth(10)); err == nil {
		t.Error("expected nesting error")
	}
	if _, err := parser.Compile(src, parser.WithMaxDepth(0)); err != nil {
		t.Errorf("unlimited depth: %v", err)
	}
}

func TestReadDatumLeavesRestOfPort(t *testing.T) {
	r := strings.NewReader("(a b) rest")
	v, err := parser.ReadDatum(r)
	if err != nil {
		t.Fatal(err)
	}
	if types.String(v, true) != "(a b)" {
		t.Errorf("first datum = %s", types.String(v, true))
	}
	v, err = parser.ReadDatum(r)
	if err != nil || v != types.Intern("rest") {
		t.Errorf("second datum = %v, %v", v, err)
	}
	v, err = parser.ReadDatum(r)
	if err != nil || v != types.EOF {
		t.Errorf("at end = %v, %v", v, err)
	}
}
