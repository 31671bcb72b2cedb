package evaluator

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/goscheme/pkg/types"
)

// chain builds extent frames linked through next, outermost first, and
// returns the innermost.
func chain(base *Frame, names ...string) (*Frame, map[*Frame]string) {
	labels := map[*Frame]string{}
	x := base
	for _, name := range names {
		f := &Frame{ext: &extent{kind: extentBeforeAfter}, next: x}
		labels[f] = name
		x = f
	}
	return x, labels
}

func describe(steps []transitionStep, labels map[*Frame]string) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		dir := "exit "
		if s.enter {
			dir = "enter "
		}
		out[i] = dir + labels[s.frame]
	}
	return out
}

func TestReconcile(t *testing.T) {
	shared, sharedLabels := chain(nil, "root")
	from, fromLabels := chain(shared, "a1", "a2", "a3")
	to, toLabels := chain(shared, "b1", "b2")

	labels := map[*Frame]string{}
	for _, m := range []map[*Frame]string{sharedLabels, fromLabels, toLabels} {
		for f, name := range m {
			labels[f] = name
		}
	}

	tests := []struct {
		name     string
		from, to *Frame
		want     []string
	}{
		{"same chain", from, from, []string{}},
		{"escape outward", from, shared, []string{"exit a3", "exit a2", "exit a1"}},
		{"re-enter", shared, from, []string{"enter a1", "enter a2", "enter a3"}},
		{"sideways", from, to, []string{"exit a3", "exit a2", "exit a1", "enter b1", "enter b2"}},
		{"to empty", from, nil, []string{"exit a3", "exit a2", "exit a1", "exit root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(reconcile(tt.from, tt.to), labels)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandles(t *testing.T) {
	badType := types.NewError(types.ErrBadType, "x")
	exit := types.NewError(types.ErrExit, "exit")
	wrapped := types.Wrap(badType)

	tests := []struct {
		name string
		filter types.Value
		cond *types.Error
		want bool
	}{
		{"true catches all", true, badType, true},
		{"false catches none", false, badType, false},
		{"symbol", types.Intern("bad-type"), badType, true},
		{"other symbol", types.Intern("user-error"), badType, false},
		{"error matches any", types.Intern("error"), badType, true},
		{"list", types.List(types.Intern("user-error"), types.Intern("bad-type")), badType, true},
		{"string", "bad-type", wrapped, true},
		{"exit is never caught", true, exit, false},
		{"exit by name", types.Intern("exit"), exit, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handles(tt.filter, tt.cond); got != tt.want {
				t.Errorf("handles(%v, %s) = %v, want %v", tt.filter, tt.cond.Code, got, tt.want)
			}
		})
	}
}

func TestMonitorsAreReentrantPerEvaluator(t *testing.T) {
	ev := New()
	other := ev.Spawn()
	m := ev.family.monitors
	key := types.Intern("lock")

	for i := 0; i < 2; i++ {
		if err := m.acquire(key, ev); err != nil {
			t.Fatal(err)
		}
	}
	if n := m.holds(key, ev); n != 2 {
		t.Fatalf("holds = %d, want 2", n)
	}
	if n := m.holds(key, other); n != 0 {
		t.Fatalf("other holds = %d, want 0", n)
	}

	acquired := make(chan struct{})
	go func() {
		if err := m.acquire(key, other); err == nil {
			close(acquired)
		}
	}()

	m.release(key, ev)
	select {
	case <-acquired:
		t.Fatal("monitor acquired while still held")
	default:
	}
	m.release(key, ev)
	<-acquired
	if n := m.holds(key, other); n != 1 {
		t.Errorf("other holds = %d, want 1", n)
	}
	m.release(key, other)
}

func TestMonitorRequiresIdentity(t *testing.T) {
	ev := New()
	tests := []struct {
		name string
		obj  types.Value
		ok   bool
	}{
		{"symbol", types.Intern("lock"), true},
		{"pair", types.Cons(1, 2), true},
		{"mutable string", types.NewMString("abc"), true},
		{"slice", MultipleValues{1, 2}, false},
		{"literal string", "abc", false},
		{"fixnum", 42, false},
		{"char", types.Char('a'), false},
		{"boolean", true, false},
		{"empty list", types.Nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ev.family.monitors.acquire(tt.obj, ev)
			if (err == nil) != tt.ok {
				t.Fatalf("acquire(%v) error = %v, want ok %v", tt.obj, err, tt.ok)
			}
			if err == nil {
				ev.family.monitors.release(tt.obj, ev)
			}
		})
	}
}

func TestMonitorReacquiredOnReentry(t *testing.T) {
	lock := types.Intern("m")
	var ev *Evaluator
	ev = New(WithCustomFunction("held", 0, 0, func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return ev.family.monitors.holds(lock, ev), nil
	}))
	v, err := ev.EvalString(context.Background(), `
		(let ((k #f) (n 0) (log '()))
		  (synchronized 'm (lambda ()
		    (call/cc (lambda (c) (set! k c)))
		    (set! log (cons (held) log))))
		  (set! log (cons (held) log))
		  (if (< n 2) (begin (set! n (+ n 1)) (k #f)))
		  (reverse log))`)
	if err != nil {
		t.Fatal(err)
	}
	if got := types.String(v, true); got != "(1 0 1 0 1 0)" {
		t.Errorf("holds log = %s, want (1 0 1 0 1 0)", got)
	}
}
