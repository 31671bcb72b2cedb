package extnumeric_test

import (
	"testing"

	"github.com/sandrolain/goscheme"
	"github.com/sandrolain/goscheme/pkg/ext/extnumeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

var opt = goscheme.WithFunctions(extnumeric.AllEntries()...)

func TestNumericFunctions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(clamp 5 0 10)`, "5"},
		{`(clamp -5 0 10)`, "0"},
		{`(clamp 15 0 10.0)`, "10.0"},
		{`(clamp 1/2 0 1)`, "1/2"},
		{`(sign -7)`, "-1"},
		{`(sign 0)`, "0"},
		{`(sign 2.5)`, "1"},
		{`(> (pi) 3.14)`, "#t"},
		{`(< 2.71 (e) 2.72)`, "#t"},
		{`(mean '(1 2 3 4))`, "5/2"},
		{`(mean '(1 2.0))`, "1.5"},
		{`(median '(3 1 2))`, "2"},
		{`(median '(4 1 3 2))`, "5/2"},
		{`(variance '(2 4 4 4 5 5 7 9))`, "4.0"},
		{`(stddev '(2 4 4 4 5 5 7 9))`, "2.0"},
		{`(percentile '(1 2 3 4 5) 50)`, "3.0"},
		{`(percentile '(1 2 3 4) 50)`, "2.5"},
		{`(mode '(1 2 2 3 3))`, "(2 3)"},
		{`(mode '(7))`, "(7)"},
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

func TestNumericFunctionErrors(t *testing.T) {
	tests := []struct {
		src  string
		code types.ErrorCode
	}{
		{`(clamp 'x 0 1)`, types.ErrBadType},
		{`(clamp 1 10 0)`, types.ErrBadArgument},
		{`(mean '())`, types.ErrBadArgument},
		{`(median '(1 x))`, types.ErrBadType},
		{`(percentile '(1 2) 101)`, types.ErrBadArgument},
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
