package evaluator_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandrolain/goscheme/pkg/evaluator"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/types"
)

// Helper functions

func newEvaluator(t *testing.T, opts ...evaluator.EvalOption) *evaluator.Evaluator {
	t.Helper()
	opts = append([]evaluator.EvalOption{
		evaluator.WithInput(strings.NewReader("")),
		evaluator.WithOutput(&bytes.Buffer{}),
	}, opts...)
	return evaluator.New(opts...)
}

func eval(t *testing.T, ev *evaluator.Evaluator, src string) types.Value {
	t.Helper()
	v, err := ev.EvalString(context.Background(), src)
	if err != nil {
		t.Fatalf("Failed to eval %q: %v", src, err)
	}
	return v
}

func evalExpectError(t *testing.T, ev *evaluator.Evaluator, src string, code types.ErrorCode) *types.Error {
	t.Helper()
	_, err := ev.EvalString(context.Background(), src)
	if err == nil {
		t.Fatalf("Expected %s evaluating %q, got no error", code, src)
	}
	var cond *types.Error
	if !errors.As(err, &cond) {
		t.Fatalf("error %v is not a condition", err)
	}
	if cond.Code != code {
		t.Fatalf("evaluating %q: code = %s, want %s (%v)", src, cond.Code, code, cond)
	}
	return cond
}

type evalCase struct {
	name string
	src  string
	want string
}

func runEvalTests(t *testing.T, tests []evalCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := eval(t, newEvaluator(t), tt.src)
			if got := types.String(v, true); got != tt.want {
				t.Errorf("%s\n got %s\nwant %s", tt.src, got, tt.want)
			}
		})
	}
}

// ── Core forms ──────────────────────────────────────────────────────────────

func TestEvalSpecialForms(t *testing.T) {
	runEvalTests(t, []evalCase{
		{"self evaluating", `"hello"`, `"hello"`},
		{"quote", "'(a b . c)", "(a b . c)"},
		{"define returns symbol", "(define x 1)", "x"},
		{"procedure define", "(define (sq x) (* x x)) (sq 12)", "144"},
		{"curried define", "(define ((adder n) x) (+ n x)) ((adder 3) 4)", "7"},
		{"lambda rest", "((lambda (a . rest) rest) 1 2 3)", "(2 3)"},
		{"lambda variadic", "((lambda args args))", "()"},
		{"set!", "(define x 1) (set! x 5) x", "5"},
		{"if without alternative", "(if #f #f)", "#<unspecified>"},
		{"when", "(when (> 2 1) 'a 'b)", "b"},
		{"unless", "(unless (> 2 1) 'a)", "#<unspecified>"},
		{"and", "(and 1 2)", "2"},
		{"and empty", "(and)", "#t"},
		{"and short circuit", "(and #f (car '()))", "#f"},
		{"or", "(or #f 3)", "3"},
		{"or empty", "(or)", "#f"},
		{"let", "(let ((a 1) (b 2)) (+ a b))", "3"},
		{"let*", "(let* ((a 1) (b (+ a 1))) (* a b))", "2"},
		{"named let", "(let loop ((i 0) (acc 0)) (if (= i 5) acc (loop (+ i 1) (+ acc i))))", "10"},
		{"letrec", "(letrec ((ev? (lambda (n) (if (= n 0) #t (od? (- n 1))))) (od? (lambda (n) (if (= n 0) #f (ev? (- n 1)))))) (ev? 1000))", "#t"},
		{"do", "(do ((i 0 (+ i 1)) (s 0 (+ s i))) ((= i 5) s))", "10"},
		{"cond", "(cond ((> 1 2) 'a) ((< 1 2) 'b) (else 'c))", "b"},
		{"cond arrow", "(cond ((assv 2 '((1 . a) (2 . b))) => cdr) (else 'none))", "b"},
		{"cond test value", "(cond ((memv 2 '(1 2 3))))", "(2 3)"},
		{"case", "(case 3 ((1 2) 'low) ((3 4) 'mid) (else 'high))", "mid"},
		{"case else", "(case 9 ((1) 'one) (else 'other))", "other"},
		{"begin", "(begin 1 2 3)", "3"},
		{"internal define", "(let () (define a 2) (define (twice) (* a 2)) (twice))", "4"},
		{"quasiquote", "(let ((b 2) (c '(3 4))) `(a ,b ,@c))", "(a 2 3 4)"},
		{"quasiquote vector", "`#(1 ,(+ 1 1))", "#(1 2)"},
		{"quasiquote nested", "`(a `(b ,(c ,(+ 1 2))))", "(a (quasiquote (b (unquote (c 3)))))"},
		{"delay force", "(define c 0) (define p (delay (begin (set! c (+ c 1)) c))) (force p) (force p)", "1"},
		{"delay-force chain", "(define (walk n) (delay-force (if (= n 0) (delay 'end) (walk (- n 1))))) (force (walk 10000))", "end"},
		{"make-promise", "(force (make-promise 7))", "7"},
	})
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code types.ErrorCode
	}{
		{"unbound variable", "(frobnicate 1)", types.ErrUnboundVariable},
		{"set! unbound", "(set! nowhere 1)", types.ErrUnboundVariable},
		{"special form as value", "(list if)", types.ErrNotAValue},
		{"letrec before init", "(letrec ((a b) (b 1)) a)", types.ErrNotAValue},
		{"not applicable", "(1 2)", types.ErrBadType},
		{"car of non pair", "(car 1)", types.ErrBadType},
		{"cadr past end", "(cadr '(1))", types.ErrBadType},
		{"synchronize on literal", `(synchronized "abc" (lambda () 1))`, types.ErrBadArgument},
		{"synchronize on number", "(synchronized 7 (lambda () 1))", types.ErrBadArgument},
		{"wrong arity", "((lambda (x) x))", types.ErrBadArgument},
		{"bad if", "(if)", types.ErrBadSyntax},
		{"duplicate parameter", "(lambda (a a) a)", types.ErrBadSyntax},
		{"empty combination", "()", types.ErrBadSyntax},
		{"division by zero", "(/ 1 0)", types.ErrBadArgument},
		{"user error", `(error "boom" 1 2)`, types.ErrUser},
		{"raise", "(raise 'oops)", types.ErrUser},
		{"multiple values to single", "(+ 1 (values 2 3))", types.ErrBadArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalExpectError(t, newEvaluator(t), tt.src, tt.code)
		})
	}
}

// ── Builtins ────────────────────────────────────────────────────────────────

func TestEvalNumbers(t *testing.T) {
	runEvalTests(t, []evalCase{
		{"add", "(+ 1 2)", "3"},
		{"rational", "(/ 1 3)", "1/3"},
		{"inexact contagion", "(* 1.0 2)", "2.0"},
		{"int overflow to long", "(+ 2147483647 1)", "2147483648"},
		{"bigint", "(expt 2 100)", "1267650600228229401496703205376"},
		{"negative exponent", "(expt 2 -1)", "1/2"},
		{"quotient", "(quotient 17 -5)", "-3"},
		{"remainder", "(remainder 17 -5)", "2"},
		{"modulo", "(modulo 17 -5)", "-3"},
		{"modulo negative dividend", "(modulo -7 2)", "1"},
		{"exact sqrt", "(sqrt 16)", "4"},
		{"exact", "(exact 2.5)", "5/2"},
		{"inexact", "(exact->inexact 1/4)", "0.25"},
		{"max inexact", "(max 1 2.0)", "2.0"},
		{"compare chain", "(< 1 2 3)", "#t"},
		{"compare chain false", "(< 1 3 2)", "#f"},
		{"gcd", "(gcd 12 18)", "6"},
		{"number->string radix", "(number->string 255 16)", `"ff"`},
		{"string->number", `(string->number "1/2")`, "1/2"},
		{"string->number failure", `(string->number "abc")`, "#f"},
		{"exact-integer-sqrt", "(call-with-values (lambda () (exact-integer-sqrt 17)) list)", "(4 1)"},
		{"predicates", "(list (integer? 2.0) (exact? 1/2) (zero? 0) (odd? 7) (nan? 1))", "(#t #t #t #t #f)"},
	})
}

func TestEvalData(t *testing.T) {
	runEvalTests(t, []evalCase{
		{"cons", "(cons 1 2)", "(1 . 2)"},
		{"cadr", "(cadr '(1 2 3))", "2"},
		{"caddr", "(caddr '(1 2 3))", "3"},
		{"caar", "(caar '((1) 2))", "1"},
		{"cdar", "(cdar '((1 . 5) 2))", "5"},
		{"cdddr", "(cdddr '(1 2 3 4))", "(4)"},
		{"cadddr", "(cadddr '(1 2 3 4))", "4"},
		{"cddddr", "(cddddr '(1 2 3 4 5))", "(5)"},
		{"append", "(append '(1) '(2 3) 4)", "(1 2 3 . 4)"},
		{"reverse", "(reverse '(1 2 3))", "(3 2 1)"},
		{"length", "(length '(1 2 3))", "3"},
		{"list-tail", "(list-tail '(1 2 3) 1)", "(2 3)"},
		{"memq", "(memq 'c '(a b c d))", "(c d)"},
		{"member", "(member '(1) '((0) (1) (2)))", "((1) (2))"},
		{"assoc", `(assoc "b" '(("a" . 1) ("b" . 2)))`, `("b" . 2)`},
		{"map", "(map + '(1 2) '(10 20))", "(11 22)"},
		{"for-each", "(let ((s 0)) (for-each (lambda (x) (set! s (+ s x))) '(1 2 3)) s)", "6"},
		{"apply", "(apply + 1 2 '(3 4))", "10"},
		{"vector", "(let ((v (make-vector 3 0))) (vector-set! v 1 'x) v)", "#(0 x 0)"},
		{"vector-map", "(vector-map * #(1 2) #(3 4))", "#(3 8)"},
		{"vector->list", "(vector->list #(1 2 3) 1)", "(2 3)"},
		{"string-append", `(string-append "a" "b")`, `"ab"`},
		{"string-append results are independent", `(let* ((a (string-append "x" "y")) (b (string-append "zz" "w" a))) (list a b (string-append)))`, `("xy" "zzwxy" "")`},
		{"string mutation", `(let ((s (make-string 3 #\a))) (string-set! s 1 #\b) s)`, `"aba"`},
		{"substring", `(substring "hello" 1 3)`, `"el"`},
		{"string compare", `(string<? "abc" "abd")`, "#t"},
		{"symbols", `(list (symbol->string 'abc) (string->symbol "x"))`, `("abc" x)`},
		{"chars", `(list (char->integer #\A) (char-upcase #\a) (char-alphabetic? #\1))`, `(65 #\A #f)`},
		{"equal?", `(equal? '(1 #(2 "x")) (list 1 (vector 2 "x")))`, "#t"},
		{"eqv? exactness", "(eqv? 2 2.0)", "#f"},
		{"eqv? bignums", "(eqv? 100000000000000000000 100000000000000000000)", "#t"},
		{"eq? symbols", "(eq? 'a 'a)", "#t"},
		{"not", "(not 0)", "#f"},
	})
}

func TestLiteralStringsAreImmutable(t *testing.T) {
	evalExpectError(t, newEvaluator(t), `(string-set! "abc" 0 #\x)`, types.ErrBadArgument)
}

func TestLengthOfCircularList(t *testing.T) {
	evalExpectError(t, newEvaluator(t), "(define l (list 1 2)) (set-cdr! (cdr l) l) (length l)", types.ErrBadArgument)
}

// ── Tail calls and depth ────────────────────────────────────────────────────

func TestTailCallsRunInConstantSpace(t *testing.T) {
	n := "10000000"
	if testing.Short() {
		n = "100000"
	}
	ev := newEvaluator(t)
	v := eval(t, ev, "(define (loop n) (if (= n 0) 'done (loop (- n 1)))) (loop "+n+")")
	if v != types.Intern("done") {
		t.Fatalf("got %v", v)
	}
	if d := ev.MaxDepth(); d > 10 {
		t.Errorf("MaxDepth() = %d, tail calls should not grow the frame chain", d)
	}
}

func TestDeepRecursionDoesNotUseGoStack(t *testing.T) {
	ev := newEvaluator(t)
	v := eval(t, ev, "(define (count n) (if (= n 0) 0 (+ 1 (count (- n 1))))) (count 100000)")
	if types.String(v, true) != "100000" {
		t.Fatalf("got %v", v)
	}
	if ev.MaxDepth() < 100000 {
		t.Errorf("MaxDepth() = %d, want at least 100000", ev.MaxDepth())
	}
}

func TestFrameDepthLimit(t *testing.T) {
	ev := newEvaluator(t, evaluator.WithMaxDepth(1000))
	eval(t, ev, "(define (count n) (if (= n 0) 0 (+ 1 (count (- n 1)))))")
	cond := evalExpectError(t, ev, "(count 100000)", types.ErrBadArgument)
	if !strings.Contains(cond.Message, "frame depth limit exceeded") {
		t.Errorf("message = %q", cond.Message)
	}
	v := eval(t, ev, "(catch 'bad-argument (lambda (c) 'deep) (lambda () (count 100000)))")
	if v != types.Intern("deep") {
		t.Errorf("depth overflow not catchable: %v", v)
	}
}

// ── Continuations ───────────────────────────────────────────────────────────

func TestContinuations(t *testing.T) {
	runEvalTests(t, []evalCase{
		{"escape", "(+ 1 (call/cc (lambda (k) (+ 10 (k 5)))))", "6"},
		{"unused", "(+ 1 (call/cc (lambda (k) 5)))", "6"},
		{"multiple values", "(call-with-values (lambda () (call/cc (lambda (k) (k 1 2)))) list)", "(1 2)"},
		{
			"re-entry",
			`(let ((k #f) (n 0) (r '()))
			   (set! r (cons (call/cc (lambda (c) (set! k c) 0)) r))
			   (set! n (+ n 1))
			   (if (< n 3) (k n) r))`,
			"(2 1 0)",
		},
		{
			"re-entry keeps evaluated operands",
			`(let ((k #f) (n 0))
			   (let ((v (list 'a (call/cc (lambda (c) (set! k c) 0)) 'z)))
			     (set! n (+ n 1))
			     (if (< n 3) (k n) v)))`,
			"(a 2 z)",
		},
		{
			"continuations sharing frames keep their own state",
			`(let ((k1 #f) (k2 #f) (out '()) (step 0))
			   (let ((r (list 'a
			                  (call/cc (lambda (c) (set! k1 c) 0))
			                  (call/cc (lambda (c) (if (not k2) (set! k2 c)) 1)))))
			     (set! out (cons r out))
			     (set! step (+ step 1))
			     (cond ((= step 1) (k1 10))
			           ((= step 2) (k2 20))
			           ((= step 3) (k1 30))
			           (else (reverse out)))))`,
			"((a 0 1) (a 10 1) (a 0 20) (a 30 1))",
		},
		{
			"escape from map",
			"(call/cc (lambda (k) (map (lambda (x) (if (= x 2) (k 'found) x)) '(1 2 3))))",
			"found",
		},
	})
}

func TestContinuationReenteredAfterCompletion(t *testing.T) {
	ev := newEvaluator(t)
	v := eval(t, ev, `
		(define k #f)
		(define v (+ 100 (call/cc (lambda (c) (set! k c) 1))))
		(k 5)
		v`)
	if types.String(v, true) != "105" {
		t.Errorf("got %v, want 105", v)
	}
}

// ── Dynamic extents ─────────────────────────────────────────────────────────

func TestDynamicWind(t *testing.T) {
	runEvalTests(t, []evalCase{
		{
			"normal exit",
			`(let ((trace '()))
			   (define (note x) (set! trace (cons x trace)))
			   (dynamic-wind (lambda () (note 'in)) (lambda () (note 'body)) (lambda () (note 'out)))
			   (reverse trace))`,
			"(in body out)",
		},
		{
			"value passes through",
			"(dynamic-wind (lambda () 1) (lambda () 'v) (lambda () 2))",
			"v",
		},
		{
			"escape runs after",
			`(let ((trace '()))
			   (define (note x) (set! trace (cons x trace)))
			   (+ 1 (call/cc (lambda (k)
			          (dynamic-wind (lambda () (note 'in)) (lambda () (k 10)) (lambda () (note 'out))))))
			   (reverse trace))`,
			"(in out)",
		},
		{
			"re-entry runs before",
			`(let ((trace '()) (k #f) (n 0))
			   (define (note x) (set! trace (cons x trace)))
			   (dynamic-wind
			     (lambda () (note 'in))
			     (lambda () (call/cc (lambda (c) (set! k c))) (note 'body))
			     (lambda () (note 'out)))
			   (set! n (+ n 1))
			   (if (< n 2) (k #f))
			   (reverse trace))`,
			"(in body out in body out)",
		},
		{
			"nested extents unwind innermost first",
			`(let ((trace '()))
			   (define (note x) (set! trace (cons x trace)))
			   (call/cc (lambda (k)
			     (dynamic-wind (lambda () (note 'in1))
			       (lambda ()
			         (dynamic-wind (lambda () (note 'in2)) (lambda () (k 0)) (lambda () (note 'out2))))
			       (lambda () (note 'out1)))))
			   (reverse trace))`,
			"(in1 in2 out2 out1)",
		},
	})
}

func TestExceptionHandlers(t *testing.T) {
	runEvalTests(t, []evalCase{
		{"catch by type", "(catch 'bad-type (lambda (c) (condition-type c)) (lambda () (car 1)))", "bad-type"},
		{"catch any", "(catch #t (lambda (c) 'caught) (lambda () (vector-ref (vector) 0)))", "caught"},
		{"catch list", "(catch '(unbound-variable bad-type) (lambda (c) 'ok) (lambda () nope))", "ok"},
		{"division by zero", "(catch 'bad-argument (lambda (c) 'div0) (lambda () (/ 1 0)))", "div0"},
		{"raise payload", "(catch #t (lambda (x) x) (lambda () (raise 42)))", "42"},
		{"error message", `(catch 'user-error (lambda (c) (condition-message c)) (lambda () (error "boom" 1 2)))`, `"boom"`},
		{"error irritants", `(catch 'error (lambda (c) (error-object-irritants c)) (lambda () (error "boom" 1 2)))`, "(1 2)"},
		{"no error", "(catch #t (lambda (c) 'caught) (lambda () 'fine))", "fine"},
		{"inner handler wins", "(catch #t (lambda (c) 'outer) (lambda () (catch #t (lambda (c) 'inner) (lambda () (car 1)))))", "inner"},
		{"unmatched type passes", "(catch #t (lambda (c) 'outer) (lambda () (catch 'user-error (lambda (c) 'inner) (lambda () (car 1)))))", "outer"},
		{"handler runs outside its extent", "(catch #t (lambda (c) 'outer) (lambda () (catch #t (lambda (c) (car 1)) (lambda () (raise 'x)))))", "outer"},
		{
			"after thunks run before handler",
			`(let ((trace '()))
			   (define (note x) (set! trace (cons x trace)))
			   (catch 'error (lambda (c) (note 'handler))
			     (lambda ()
			       (dynamic-wind (lambda () (note 'in)) (lambda () (car '())) (lambda () (note 'out)))))
			   (reverse trace))`,
			"(in out handler)",
		},
		{
			"nested after thunks run innermost first before handler",
			`(let ((trace '()))
			   (define (note x) (set! trace (cons x trace)))
			   (catch 'error (lambda (c) (note 'h))
			     (lambda ()
			       (dynamic-wind
			         (lambda () (note 'in1))
			         (lambda ()
			           (dynamic-wind (lambda () (note 'in2)) (lambda () (car '())) (lambda () (note 'out2))))
			         (lambda () (note 'out1)))))
			   (reverse trace))`,
			"(in1 in2 out2 out1 h)",
		},
	})
}

func TestExit(t *testing.T) {
	ev := newEvaluator(t)
	cond := evalExpectError(t, ev, "(exit 3)", types.ErrExit)
	if cond.Status != 3 {
		t.Errorf("Status = %d, want 3", cond.Status)
	}
	cond = evalExpectError(t, ev, "(catch #t (lambda (c) 'no) (lambda () (exit #f)))", types.ErrExit)
	if cond.Status != 1 {
		t.Errorf("Status = %d, want 1", cond.Status)
	}
}

func TestExitRunsAfterThunks(t *testing.T) {
	var out bytes.Buffer
	ev := newEvaluator(t, evaluator.WithOutput(&out))
	cond := evalExpectError(t, ev,
		`(dynamic-wind (lambda () #f) (lambda () (exit 3)) (lambda () (display "out")))`,
		types.ErrExit)
	if cond.Status != 3 {
		t.Errorf("Status = %d, want 3", cond.Status)
	}
	if got := out.String(); got != "out" {
		t.Errorf("output = %q, want %q", got, "out")
	}
}

// ── Monitors and threads ────────────────────────────────────────────────────

func TestSynchronizedIsReentrant(t *testing.T) {
	v := eval(t, newEvaluator(t), "(synchronized 'lock (lambda () (synchronized 'lock (lambda () 42))))")
	if types.String(v, true) != "42" {
		t.Errorf("got %v", v)
	}
}

func TestFork(t *testing.T) {
	ev := newEvaluator(t)
	v := eval(t, ev, "(force (fork (lambda () (* 6 7))))")
	if types.String(v, true) != "42" {
		t.Errorf("got %v", v)
	}
	if err := ev.Wait(); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}

func TestForkedThreadsSynchronize(t *testing.T) {
	ev := newEvaluator(t)
	v := eval(t, ev, `
		(define counter 0)
		(define (bump) (synchronized 'c (lambda () (set! counter (+ counter 1)))))
		(define threads
		  (map (lambda (i) (fork (lambda () (do ((j 0 (+ j 1))) ((= j 100)) (bump)))))
		       '(1 2 3 4)))
		(for-each force threads)
		counter`)
	if types.String(v, true) != "400" {
		t.Errorf("counter = %v, want 400", v)
	}
	if err := ev.Wait(); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}

func TestEscapeReleasesMonitor(t *testing.T) {
	ev := newEvaluator(t)
	v := eval(t, ev, `
		(call/cc (lambda (k) (synchronized 'm (lambda () (k 1)))))
		(catch #t (lambda (c) #f) (lambda () (synchronized 'm (lambda () (car 1)))))
		(force (fork (lambda () (synchronized 'm (lambda () 'ok)))))`)
	if v != types.Intern("ok") {
		t.Errorf("got %v", v)
	}
}

func TestForkedFailure(t *testing.T) {
	ev := newEvaluator(t)
	evalExpectError(t, ev, "(force (fork (lambda () (car 1))))", types.ErrBadType)
	evalExpectError(t, ev, "(force (fork (lambda () (exit 4))))", types.ErrExit)
	err := ev.Wait()
	var cond *types.Error
	if !errors.As(err, &cond) || cond.Code != types.ErrExit || cond.Status != 4 {
		t.Errorf("Wait() = %v, want exit 4", err)
	}
}

// ── Environment and host ────────────────────────────────────────────────────

func TestSealedEnvironment(t *testing.T) {
	ev := newEvaluator(t)
	eval(t, ev, "(define x 1)")
	ev.TopLevel().Seal()
	evalExpectError(t, ev, "(define y 2)", types.ErrBadArgument)
	evalExpectError(t, ev, "(set! x 2)", types.ErrBadArgument)
	ev.TopLevel().Unseal()
	eval(t, ev, "(set! x 2)")
}

func TestEnvironmentModify(t *testing.T) {
	env := evaluator.NewEnvironment(nil)
	sym := types.Intern("v")
	if _, err := env.Modify(sym, 1); !errors.Is(err, evaluator.ErrUnbound) {
		t.Fatalf("Modify unbound = %v", err)
	}
	if err := env.Bind(sym, 1); err != nil {
		t.Fatal(err)
	}
	child := evaluator.NewEnvironment(env)
	prev, err := child.Modify(sym, 2)
	if err != nil || prev != 1 {
		t.Fatalf("Modify = %v, %v", prev, err)
	}
	if v, _ := env.Lookup(sym); v != 2 {
		t.Errorf("parent binding = %v, want 2", v)
	}
}

func TestCustomFunctions(t *testing.T) {
	add := func(ctx context.Context, args ...interface{}) (interface{}, error) {
		return args[0].(int) + args[1].(int), nil
	}
	twice := functions.AdvancedCustomFunctionDef{
		Name: "call-twice", MinArgs: 2, MaxArgs: 2,
		Fn: func(ctx context.Context, h functions.Host, args ...interface{}) (interface{}, error) {
			v, err := h.Call(ctx, args[0], args[1])
			if err != nil {
				return nil, err
			}
			return h.Call(ctx, args[0], v)
		},
	}
	failing := functions.CustomFunctionDef{
		Name: "fail",
		Fn: func(ctx context.Context, args ...interface{}) (interface{}, error) {
			return nil, errors.New("host failure")
		},
	}
	ev := newEvaluator(t,
		evaluator.WithCustomFunction("add2", 2, 2, add),
		evaluator.WithFunctions(twice, failing),
	)

	if v := eval(t, ev, "(add2 3 4)"); v != 7 {
		t.Errorf("add2 = %v", v)
	}
	if v := eval(t, ev, "(call-twice (lambda (x) (* x 2)) 5)"); v != 20 {
		t.Errorf("call-twice = %v", v)
	}
	evalExpectError(t, ev, "(add2 1)", types.ErrBadArgument)
	cond := evalExpectError(t, ev, "(fail 1 2 3)", types.ErrHost)
	if cond.Err == nil || cond.Err.Error() != "host failure" {
		t.Errorf("cause = %v", cond.Err)
	}
}

func TestApply(t *testing.T) {
	ev := newEvaluator(t)
	proc := eval(t, ev, "(lambda (x) (* x x))")
	v, err := ev.Apply(context.Background(), proc, 9)
	if err != nil || v != 81 {
		t.Errorf("Apply = %v, %v", v, err)
	}
	if _, err := ev.Apply(context.Background(), 3); err == nil {
		t.Error("applying a number should fail")
	}
}

func TestStartRunLifecycle(t *testing.T) {
	ev := newEvaluator(t)
	ev.Start(types.List(types.Intern("+"), 1, 2))
	if ev.Done() {
		t.Fatal("Done before Run")
	}
	v, ok := ev.Run()
	if !ok || v != 3 || !ev.Done() {
		t.Fatalf("Run = %v, %v", v, ok)
	}
	if r, success := ev.Result(); r != 3 || !success {
		t.Errorf("Result = %v, %v", r, success)
	}
}

func TestMultipleValuesAtTopLevel(t *testing.T) {
	v := eval(t, newEvaluator(t), "(values 1 2)")
	mv, ok := v.(evaluator.MultipleValues)
	if !ok || mv.String() != "1 2" {
		t.Errorf("got %#v", v)
	}
}

func TestBacktrace(t *testing.T) {
	ev := newEvaluator(t)
	evalExpectError(t, ev, "(define (f x) (+ 1 (car x))) (f 1)", types.ErrBadType)
	var buf bytes.Buffer
	if err := ev.Backtrace(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(car x)") {
		t.Errorf("backtrace missing failing expression:\n%s", buf.String())
	}
}

func TestEvalPrimitive(t *testing.T) {
	runEvalTests(t, []evalCase{
		{"eval", "(eval '(+ 1 2) (interaction-environment))", "3"},
		{"eval defines at top level", "(eval '(define z 9)) z", "9"},
	})
}

// ── I/O ─────────────────────────────────────────────────────────────────────

func TestOutput(t *testing.T) {
	var out bytes.Buffer
	ev := newEvaluator(t, evaluator.WithOutput(&out))
	eval(t, ev, `(display "hello") (write-char #\space) (write "x") (newline)`)
	if got := out.String(); got != "hello \"x\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestInput(t *testing.T) {
	ev := newEvaluator(t, evaluator.WithInput(strings.NewReader("(a b) c\nrest of line\n")))
	v := eval(t, ev, "(list (read) (read) (read-char) (read-line) (eof-object? (read-char)))")
	if got := types.String(v, true); got != `((a b) c #\newline "rest of line" #t)` {
		t.Errorf("got %s", got)
	}
}

func TestCancelledRunDropsRedirections(t *testing.T) {
	tests := []struct {
		name string
		loop string
	}{
		{"output", `(with-output-to-string (lambda () (let lp () (lp))))`},
		{"input", `(with-input-from-string "zzz" (lambda () (let lp () (lp))))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ev := newEvaluator(t,
				evaluator.WithInput(strings.NewReader("x")),
				evaluator.WithOutput(&out))
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			if _, err := ev.EvalString(ctx, tt.loop); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("EvalString() error = %v, want deadline exceeded", err)
			}
			v := eval(t, ev, `(display "hello") (read-char)`)
			if got := types.String(v, true); got != `#\x` {
				t.Errorf("read-char = %s, want #\\x", got)
			}
			if got := out.String(); got != "hello" {
				t.Errorf("output = %q, want %q", got, "hello")
			}
		})
	}
}

func TestStringPorts(t *testing.T) {
	runEvalTests(t, []evalCase{
		{"with-output-to-string", `(with-output-to-string (lambda () (display "hi") (write "x")))`, `"hi\"x\""`},
		{"output string port", `(let ((p (open-output-string))) (write 'abc p) (get-output-string p))`, `"abc"`},
		{"read from string", `(read (open-input-string "(1 2) 3"))`, "(1 2)"},
		{"peek-char", `(let ((p (open-input-string "xy"))) (list (peek-char p) (read-char p) (read-char p)))`, `(#\x #\x #\y)`},
		{"with-input-from-string", `(with-input-from-string "line one\nline two" read-line)`, `"line one"`},
		{"read-line sequence", `(let ((p (open-input-string "one\r\ntwo\nlast"))) (list (read-line p) (read-line p) (read-line p) (eof-object? (read-line p))))`, `("one" "two" "last" #t)`},
		{
			"escape restores output",
			`(let ((p (open-output-string)))
			   (call/cc (lambda (k) (with-output-to-string (lambda () (k 0)))))
			   (write 'after p)
			   (with-output-to-string (lambda () (display 'current))))`,
			`"current"`,
		},
	})
}

func TestFilePortsAndCleanup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.scm")
	if err := os.WriteFile(path, []byte("(define loaded 42)\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	quoted := types.String(path, true)

	ev := newEvaluator(t, evaluator.WithCaching(true))
	eval(t, ev, "(load "+quoted+")")
	if v := eval(t, ev, "loaded"); v != 42 {
		t.Errorf("loaded = %v", v)
	}
	eval(t, ev, "(load "+quoted+")")
	if st := ev.Cache().Stats(); st.Hits == 0 {
		t.Errorf("expected cache hits, got %+v", st)
	}

	v := eval(t, ev, "(call-with-input-file "+quoted+" read)")
	if got := types.String(v, true); got != "(define loaded 42)" {
		t.Errorf("call-with-input-file = %s", got)
	}

	out := filepath.Join(dir, "out.txt")
	eval(t, ev, "(with-output-to-file "+types.String(out, true)+" (lambda () (display \"written\")))")
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "written" {
		t.Errorf("file contents = %q, %v", data, err)
	}

	eval(t, ev, "(define p (open-input-file "+quoted+"))")
	ev.Cleanup()
	evalExpectError(t, ev, "(read-char p)", types.ErrBadArgument)
}
