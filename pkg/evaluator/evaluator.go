package evaluator

// Package evaluator implements the Scheme evaluation engine.
//
// The evaluator never uses the Go call stack to evaluate nested
// expressions. Every pending evaluation is an activation Frame, and Run is a
// trampoline that reduces the current frame one step at a time. Because the
// control stack is data, it can be captured as a first-class Continuation
// and re-entered any number of times. Frames reachable from a continuation
// are copy-on-write.
//
// Dynamic extents (monitors, exception handlers, before/after thunks) are
// extent frames threaded through the frame chain. Leaving an extent, by
// returning, by raising or by invoking a continuation, releases its monitor
// or runs its after thunk; re-entering one through a continuation
// re-acquires the monitor or runs the before thunk.
//
// # Example
//
//	ev := evaluator.New()
//	result, err := ev.EvalString(ctx, "(define (sq x) (* x x)) (sq 12)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// An Evaluator is one logical thread and is not safe for concurrent use,
// apart from Done and Result. Spawn creates a sibling that shares the
// top-level environment, the top-level ports, the monitors and the cleanup
// registry; siblings may run on their own goroutines. The fork primitive
// does exactly that and returns a promise that joins the goroutine when
// forced.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sandrolain/goscheme/pkg/cache"
	"github.com/sandrolain/goscheme/pkg/functions"
	"github.com/sandrolain/goscheme/pkg/parser"
	"github.com/sandrolain/goscheme/pkg/types"
)

// defaultMaxDepth is the default frame depth limit.
const defaultMaxDepth = 10000000

// family is the state shared by an evaluator and its spawned siblings.
type family struct {
	top       *Environment
	stdin     *types.InputPort
	stdout    *types.OutputPort
	resources *resources
	monitors  *monitors
	forks     errgroup.Group
	cache     *cache.Cache // non-nil when Caching is enabled
}

// Evaluator evaluates Scheme programs.
type Evaluator struct {
	opts   EvalOptions
	logger *slog.Logger
	family *family
	ctx    context.Context

	frame  *Frame // current frame
	extent *Frame // first extent frame reachable from frame
	trace  *Frame // frame at the last raise, for backtraces

	// Value(s) on their way to frame.
	pending bool
	multi   bool
	val     types.Value
	vals    []types.Value

	// Redirection stacks; empty means the family's ports.
	inputs  []*types.InputPort
	outputs []*types.OutputPort

	maxSeen int
	running bool

	mu      sync.Mutex
	done    bool
	success bool
	result  types.Value
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables program compilation caching in EvalString and load.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached programs.
	// Only used when Caching is true and no explicit Cache is provided.
	// Defaults to 256.
	CacheSize int
	// Cache is a custom program cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// MaxDepth limits the depth of the frame chain. 0 disables the limit.
	MaxDepth int
	// FoldCase makes the reader fold symbols to lower case.
	FoldCase bool
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Input is the top-level input port source. Defaults to os.Stdin.
	Input io.Reader
	// Output is the top-level output port sink. Defaults to os.Stdout.
	Output io.Writer
	// CustomFunctions holds user-defined functions to register with the evaluator.
	CustomFunctions []functions.CustomFunctionDef
	// AdvancedFunctions holds user-defined functions that need the Host.
	AdvancedFunctions []functions.AdvancedCustomFunctionDef
}

// New creates a root evaluator with a fresh top-level environment holding
// the builtin procedures and special forms.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: defaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Input == nil {
		options.Input = os.Stdin
	}
	if options.Output == nil {
		options.Output = os.Stdout
	}

	// Initialise program cache when caching is enabled.
	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		size := options.CacheSize
		if size <= 0 {
			size = 256
		}
		c = cache.New(size)
	}

	fam := &family{
		top:       NewEnvironment(nil),
		stdin:     types.NewInputPort("stdin", options.Input),
		stdout:    types.NewOutputPort("stdout", options.Output),
		resources: newResources(options.Logger),
		monitors:  newMonitors(),
		cache:     c,
	}
	e := &Evaluator{
		opts:   options,
		logger: options.Logger,
		family: fam,
	}
	e.installBuiltins()
	return e
}

// installBuiltins binds the builtin registry and the custom functions in the
// top-level environment.
func (e *Evaluator) installBuiltins() {
	initBuiltinFunctions()
	top := e.family.top
	for name, p := range builtinFunctions {
		_ = top.Bind(types.Intern(name), p)
	}
	for _, def := range e.opts.CustomFunctions {
		_ = top.Bind(types.Intern(def.Name), customPrimitive(def))
	}
	for _, def := range e.opts.AdvancedFunctions {
		_ = top.Bind(types.Intern(def.Name), advancedPrimitive(def))
	}
}

// Spawn creates a sibling evaluator sharing the top-level environment, the
// top-level ports, the monitors and the cleanup registry.
func (e *Evaluator) Spawn() *Evaluator {
	if e.opts.Debug {
		e.logger.Debug("spawning evaluator")
	}
	return &Evaluator{
		opts:   e.opts,
		logger: e.logger,
		family: e.family,
		ctx:    e.ctx,
	}
}

// Cache returns the program cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.family.cache
}

// TopLevel returns the top-level environment.
func (e *Evaluator) TopLevel() *Environment {
	return e.family.top
}

// Environment returns the environment of the current frame. Special forms
// use it to evaluate their operands.
func (e *Evaluator) Environment() *Environment {
	if e.frame == nil || e.frame.env == nil {
		return e.family.top
	}
	return e.frame.env
}

// Context returns the context of the current run.
func (e *Evaluator) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// ── Running ─────────────────────────────────────────────────────────────────

// Start prepares the evaluation of expr in the top-level environment.
// Call Run to perform it.
func (e *Evaluator) Start(expr types.Value) {
	e.start(&Frame{mode: modeEvalExpr, expr: expr, env: e.family.top, topLevel: true})
}

func (e *Evaluator) start(f *Frame) {
	e.frame = f
	e.extent = nil
	e.trace = nil
	e.pending = false
	e.multi = false
	e.val = nil
	e.vals = nil
	e.maxSeen = f.depth
	e.running = true
	// Redirections abandoned by a cancelled or failed run are not unwound.
	e.inputs = nil
	e.outputs = nil

	e.mu.Lock()
	e.done = false
	e.success = false
	e.result = nil
	e.mu.Unlock()
}

// succeed finishes the run with the pending values.
func (e *Evaluator) succeed() {
	var v types.Value
	if e.multi {
		v = MultipleValues(append([]types.Value(nil), e.vals...))
	} else {
		v = e.val
	}
	e.pending = false
	e.finish(v, true)
}

// fail finishes the run with a condition.
func (e *Evaluator) fail(cond *types.Error) {
	if e.trace == nil {
		e.trace = e.frame
	}
	e.finish(cond, false)
}

func (e *Evaluator) finish(v types.Value, success bool) {
	e.running = false
	e.frame = nil
	e.extent = nil
	if err := e.family.stdout.Flush(); err != nil {
		e.logger.Warn("flushing output failed", "error", err)
	}

	e.mu.Lock()
	e.done = true
	e.success = success
	e.result = v
	e.mu.Unlock()
}

// Done reports whether the last run has finished. Safe for concurrent use.
func (e *Evaluator) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Result returns the result of the last run and whether it succeeded. A
// failed run returns its *types.Error. Safe for concurrent use.
func (e *Evaluator) Result() (types.Value, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.success
}

// Eval evaluates the forms of prog in order and returns the value of the
// last one. Evaluation stops at the first form that fails, whose condition
// is returned as the error.
func (e *Evaluator) Eval(ctx context.Context, prog *types.Program) (types.Value, error) {
	if prog == nil {
		return nil, fmt.Errorf("invalid program")
	}
	e.ctx = ctx
	var result types.Value = types.Unspecified
	for _, form := range prog.Forms() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.Start(form)
		v, ok := e.Run()
		if !ok {
			return nil, v.(*types.Error)
		}
		result = v
	}
	return result, nil
}

// EvalString compiles src, through the cache when enabled, and evaluates it.
func (e *Evaluator) EvalString(ctx context.Context, src string) (types.Value, error) {
	prog, err := e.compile(src)
	if err != nil {
		return nil, err
	}
	return e.Eval(ctx, prog)
}

func (e *Evaluator) compile(src string) (*types.Program, error) {
	compile := func() (*types.Program, error) {
		return parser.Compile(src, parser.WithFoldCase(e.opts.FoldCase))
	}
	if e.family.cache == nil {
		return compile()
	}
	key := src
	if e.opts.FoldCase {
		key = "#!fold-case\n" + src
	}
	return e.family.cache.GetOrCompile(key, compile)
}

// Apply applies proc to args on a spawned sibling and returns its value.
// It is the entry point for Go code calling back into Scheme, and may be
// used while this evaluator is running.
func (e *Evaluator) Apply(ctx context.Context, proc types.Value, args ...types.Value) (types.Value, error) {
	op, ok := proc.(Applicable)
	if !ok || op.Syntactic() {
		return nil, types.NewError(types.ErrBadType, "not a procedure", proc)
	}
	return e.Spawn().applyTop(ctx, op, args)
}

// applyTop runs op on this evaluator under a root frame that accepts a
// single value.
func (e *Evaluator) applyTop(ctx context.Context, op Applicable, args []types.Value) (types.Value, error) {
	e.ctx = ctx
	root := &Frame{mode: modeReturnValue, env: e.family.top, topLevel: true}
	f := child(root, root.env, modeApply)
	f.operator = op
	f.args = args
	e.start(f)
	v, ok := e.Run()
	if !ok {
		return nil, v.(*types.Error)
	}
	return v, nil
}

// Depth returns the depth of the current frame chain.
func (e *Evaluator) Depth() int {
	if e.frame == nil {
		return 0
	}
	return e.frame.depth
}

// MaxDepth returns the deepest frame chain seen during the last run.
func (e *Evaluator) MaxDepth() int {
	return e.maxSeen
}

// Backtrace writes the current frame chain, or the chain at the point of
// the last failure, one frame per line.
func (e *Evaluator) Backtrace(w io.Writer) error {
	f := e.frame
	if f == nil {
		f = e.trace
	}
	buf := acquireBuf()
	defer releaseBuf(buf)
	for ; f != nil; f = f.parent {
		fmt.Fprintf(buf, "%4d %-13s ", f.depth, f.mode)
		switch {
		case f.ext != nil:
			buf.WriteString("[" + f.ext.kind.String() + "]")
		case f.expr != nil:
			_ = types.Write(buf, f.expr, true)
		case f.operator != nil:
			_ = types.Write(buf, f.operator, true)
		}
		if f.topLevel {
			buf.WriteString(" [top]")
		}
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Wait blocks until every forked thread of the family has finished. It
// returns the exit condition of a forked thread that called exit.
func (e *Evaluator) Wait() error {
	return e.family.forks.Wait()
}

// Cleanup closes every resource still marked for cleanup in the family,
// then flushes the top-level output. Call it once, after Wait.
func (e *Evaluator) Cleanup() {
	e.family.resources.closeAll()
	if err := e.family.stdout.Flush(); err != nil {
		e.logger.Warn("flushing output failed", "error", err)
	}
}

// ── Ports ───────────────────────────────────────────────────────────────────

func (e *Evaluator) currentInput() *types.InputPort {
	if n := len(e.inputs); n > 0 {
		return e.inputs[n-1]
	}
	return e.family.stdin
}

func (e *Evaluator) currentOutput() *types.OutputPort {
	if n := len(e.outputs); n > 0 {
		return e.outputs[n-1]
	}
	return e.family.stdout
}

// ── Options ─────────────────────────────────────────────────────────────────

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables program compilation caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached programs.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external program cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithMaxDepth sets the maximum frame chain depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithFoldCase makes the reader fold symbols to lower case.
func WithFoldCase(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.FoldCase = enabled
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithInput sets the source of the top-level input port.
func WithInput(r io.Reader) EvalOption {
	return func(opts *EvalOptions) {
		opts.Input = r
	}
}

// WithOutput sets the sink of the top-level output port.
func WithOutput(w io.Writer) EvalOption {
	return func(opts *EvalOptions) {
		opts.Output = w
	}
}

// WithCustomFunction registers a Go function as a procedure named name.
// minArgs and maxArgs bound the argument count; maxArgs < 0 means unlimited.
//
// Example:
//
//	ev := evaluator.New(evaluator.WithCustomFunction("greet", 1, 1, func(ctx context.Context, args ...interface{}) (interface{}, error) {
//	    return "Hello, " + args[0].(string) + "!", nil
//	}))
func WithCustomFunction(name string, minArgs, maxArgs int, fn functions.CustomFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, functions.CustomFunctionDef{
			Name:    name,
			MinArgs: minArgs,
			MaxArgs: maxArgs,
			Fn:      fn,
		})
	}
}

// WithFunctions registers any mix of CustomFunctionDef and
// AdvancedCustomFunctionDef entries, such as the extension libraries.
func WithFunctions(entries ...functions.FunctionEntry) EvalOption {
	return func(opts *EvalOptions) {
		for _, entry := range entries {
			switch def := entry.(type) {
			case functions.CustomFunctionDef:
				opts.CustomFunctions = append(opts.CustomFunctions, def)
			case functions.AdvancedCustomFunctionDef:
				opts.AdvancedFunctions = append(opts.AdvancedFunctions, def)
			}
		}
	}
}
