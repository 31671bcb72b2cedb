package extwasm_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/goscheme"
	"github.com/sandrolain/goscheme/pkg/evaluator"
	"github.com/sandrolain/goscheme/pkg/ext/extwasm"
	"github.com/sandrolain/goscheme/pkg/types"
)

// addModule exports add: (i32, i32) -> i32.
var addModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func byteVector(code []byte) string {
	parts := make([]string, len(code))
	for i, b := range code {
		parts[i] = strconv.Itoa(int(b))
	}
	return "#(" + strings.Join(parts, " ") + ")"
}

func newEvaluator(t *testing.T) *evaluator.Evaluator {
	t.Helper()
	ev := goscheme.NewEvaluator(goscheme.WithFunctions(extwasm.AllEntries()...))
	t.Cleanup(ev.Cleanup)
	return ev
}

func eval(t *testing.T, ev *evaluator.Evaluator, src string) types.Value {
	t.Helper()
	v, err := ev.EvalString(context.Background(), src)
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", src, err)
	}
	return v
}

func TestModule(t *testing.T) {
	ctx := context.Background()
	m, err := extwasm.Instantiate(ctx, "add", addModule)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if diff := cmp.Diff([]string{"add"}, m.Exports()); diff != "" {
		t.Errorf("exports mismatch (-want +got):\n%s", diff)
	}
	got, err := m.Call(ctx, "add", 40, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]types.Value{42}, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if _, err := m.Call(ctx, "add", 1); err == nil {
		t.Error("expected arity error")
	}
	if _, err := m.Call(ctx, "sub", 1, 2); err == nil {
		t.Error("expected missing export error")
	}
	if _, err := m.Call(ctx, "add", "x", 2); err == nil {
		t.Error("expected type error")
	}

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Call(ctx, "add", 1, 2); err == nil {
		t.Error("call after close should fail")
	}
}

func TestInstantiateRejectsGarbage(t *testing.T) {
	if _, err := extwasm.Instantiate(context.Background(), "bad", []byte("not wasm")); err == nil {
		t.Error("expected compile error")
	}
}

func TestSchemeProcedures(t *testing.T) {
	ev := newEvaluator(t)
	eval(t, ev, "(define m (wasm-instantiate "+byteVector(addModule)+"))")

	if got := types.String(eval(t, ev, "(wasm-call m \"add\" 3 4)"), true); got != "7" {
		t.Errorf("wasm-call = %s", got)
	}
	if got := types.String(eval(t, ev, "(wasm-exports m)"), true); got != `("add")` {
		t.Errorf("wasm-exports = %s", got)
	}
	if got := types.String(eval(t, ev, "m"), true); got != "#<wasm-module inline>" {
		t.Errorf("printed as %s", got)
	}

	eval(t, ev, "(wasm-close m)")
	_, err := ev.EvalString(context.Background(), `(wasm-call m "add" 3 4)`)
	cond, ok := err.(*types.Error)
	if !ok || cond.Code != types.ErrHost {
		t.Errorf("call after close = %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.wasm")
	if err := os.WriteFile(path, addModule, 0o600); err != nil {
		t.Fatal(err)
	}
	ev := newEvaluator(t)
	v := eval(t, ev, "(wasm-call (wasm-load "+types.String(path, true)+") \"add\" 20 22)")
	if v != 42 {
		t.Errorf("got %v", v)
	}
}

func TestProcedureErrors(t *testing.T) {
	tests := []struct {
		src  string
		code types.ErrorCode
	}{
		{`(wasm-call 1 "add")`, types.ErrBadType},
		{`(wasm-instantiate "abc")`, types.ErrBadType},
		{`(wasm-instantiate #(1 2 300))`, types.ErrBadArgument},
		{`(wasm-instantiate #(1 2 3))`, types.ErrHost},
		{`(wasm-load "/nonexistent/module.wasm")`, types.ErrHost},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := newEvaluator(t).EvalString(context.Background(), tt.src)
			cond, ok := err.(*types.Error)
			if !ok || cond.Code != tt.code {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}
