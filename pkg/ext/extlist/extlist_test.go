package extlist_test

import (
	"testing"

	"github.com/sandrolain/goscheme"
	"github.com/sandrolain/goscheme/pkg/ext/extlist"
	"github.com/sandrolain/goscheme/pkg/types"
)

var opt = goscheme.WithFunctions(extlist.AllEntries()...)

func TestListFunctions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(first '(1 2 3))`, "1"},
		{`(last '(1 2 3))`, "3"},
		{`(take '(1 2 3) 2)`, "(1 2)"},
		{`(take '(1 2 3) 10)`, "(1 2 3)"},
		{`(drop '(1 2 3) 2)`, "(3)"},
		{`(drop '(1 2 3) 5)`, "()"},
		{`(list-slice '(a b c d e) 1 3)`, "(b c)"},
		{`(list-slice '(a b c d e) -2)`, "(d e)"},
		{`(list-slice '(a b c) 2 1)`, "()"},
		{`(flatten '(1 (2 (3 (4)))))`, "(1 2 3 4)"},
		{`(flatten '(1 (2 (3 (4)))) 1)`, "(1 2 (3 (4)))"},
		{`(chunk '(1 2 3 4 5) 2)`, "((1 2) (3 4) (5))"},
		{`(union '(1 2 2) '(2 3))`, "(1 2 3)"},
		{`(intersection '(1 2 3 (x)) '((x) 3 4))`, "(3 (x))"},
		{`(difference '(1 2 3) '(2))`, "(1 3)"},
		{`(symmetric-difference '(1 2 3) '(3 4))`, "(1 2 4)"},
		{`(range 0 5)`, "(0 1 2 3 4)"},
		{`(range 5 0 -2)`, "(5 3 1)"},
		{`(range 0 1 1/4)`, "(0 1/4 1/2 3/4)"},
		{`(range 0 1.0 0.5)`, "(0 0.5)"},
		{`(zip-longest '(1 2 3) '(a))`, "((1 a) (2 #f) (3 #f))"},
		{`(zip-longest '(1) '(a b) 0)`, "((1 a) (0 b))"},
		{`(window '(1 2 3 4 5) 3 1)`, "((1 2 3) (2 3 4) (3 4 5))"},
		{`(window '(1 2 3 4 5) 2 2)`, "((1 2) (3 4))"},
		{`(group-by '(1 2 3 4 5) odd?)`, "((#t 1 3 5) (#f 2 4))"},
		{`(count-by '("a" "bb" "cc" "d") string-length)`, "((1 . 2) (2 . 2))"},
		{`(sum-by '((a . 1) (b . 2)) cdr)`, "3"},
		{`(min-by '("ccc" "a" "bb") string-length)`, `"a"`},
		{`(max-by '("ccc" "a" "bbb") string-length)`, `"ccc"`},
		{`(max-by '() car)`, "#f"},
		{`(accumulate '(1 2 3) + 0)`, "(0 1 3 6)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := goscheme.Eval(tt.src, opt)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.src, err)
			}
			if got := types.String(v, true); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestListFunctionErrors(t *testing.T) {
	tests := []struct {
		src  string
		code types.ErrorCode
	}{
		{`(first '())`, types.ErrBadArgument},
		{`(take 5 1)`, types.ErrBadType},
		{`(take '(1) -1)`, types.ErrBadArgument},
		{`(chunk '(1 2) 0)`, types.ErrBadArgument},
		{`(range 0 10 0)`, types.ErrBadArgument},
		{`(range 'a 10)`, types.ErrBadType},
		{`(sum-by '(1 2) symbol?)`, types.ErrBadType},
		{`(group-by '(1 2) car)`, types.ErrBadType},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := goscheme.Eval(tt.src, opt)
			cond, ok := err.(*types.Error)
			if !ok || cond.Code != tt.code {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}
