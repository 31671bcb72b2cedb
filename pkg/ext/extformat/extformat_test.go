package extformat_test

import (
	"testing"

	"github.com/sandrolain/goscheme"
	"github.com/sandrolain/goscheme/pkg/ext/extformat"
	"github.com/sandrolain/goscheme/pkg/types"
)

var opt = goscheme.WithFunctions(extformat.AllEntries()...)

func eval(t *testing.T, src string) string {
	t.Helper()
	v, err := goscheme.Eval(src, opt)
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", src, err)
	}
	return types.String(v, true)
}

func TestCSV(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"rows", `(csv->list "a,b\n1,2\n")`, `(("a" "b") ("1" "2"))`},
		{"quoted", `(csv->list "\"x,y\",z")`, `(("x,y" "z"))`},
		{"separator char", `(csv->list "a;b" #\;)`, `(("a" "b"))`},
		{"separator string", `(csv->list "a|b" "|")`, `(("a" "b"))`},
		{"ragged", `(csv->list "a,b\nc")`, `(("a" "b") ("c"))`},
		{"records", `(csv->alist "name,age\nann,30\nbob")`, `(((name . "ann") (age . "30")) ((name . "bob") (age . "")))`},
		{"header only", `(csv->alist "name,age")`, `()`},
		{"write", `(list->csv '((a "b c" 1) ("x,y" 2.5)))`, "\"a,b c,1\\n\\\"x,y\\\",2.5\\n\""},
		{"write separator", `(list->csv '((1 2)) #\tab)`, "\"1\\t2\\n\""},
		{"round trip", `(csv->list (list->csv '(("p" "q,r"))))`, `(("p" "q,r"))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval(t, tt.src); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCSVErrors(t *testing.T) {
	tests := []struct {
		src  string
		code types.ErrorCode
	}{
		{`(csv->list 42)`, types.ErrBadType},
		{`(csv->list "a" "ab")`, types.ErrBadArgument},
		{`(csv->list "\"open")`, types.ErrBadArgument},
		{`(list->csv '(1 2))`, types.ErrBadType},
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
