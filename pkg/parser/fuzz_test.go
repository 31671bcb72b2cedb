package parser_test

import (
	"testing"

	"github.com/sandrolain/goscheme/pkg/parser"
	"github.com/sandrolain/goscheme/pkg/types"
)

// FuzzParse checks that the reader never panics and always reports failures
// as conditions.
func FuzzParse(f *testing.F) {
	seeds := []string{
		"(define (f x) (* x x))",
		"'(a . b)",
		"#(1 2 #\\a \"s\\n\")",
		"`(1 ,x ,@xs)",
		"#| nested #| comment |# |# 1/2 -0.5e3 #e1.5 #x-ff",
		"(unclosed",
		")",
		"|sym bol| #t #false",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, src string) {
		prog, err := parser.Compile(src, parser.WithMaxDepth(1000))
		if err != nil {
			if _, ok := err.(*types.Error); !ok {
				t.Fatalf("Compile(%q) returned %T, want *types.Error", src, err)
			}
			return
		}
		for _, form := range prog.Forms() {
			_ = types.String(form, true)
		}
	})
}
