package evaluator

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/sandrolain/goscheme/pkg/parser"
	"github.com/sandrolain/goscheme/pkg/types"
)

// ── Port arguments ──────────────────────────────────────────────────────────

// inputPort returns the port in args at i, or the current input port.
func (e *Evaluator) inputPort(name string, args []types.Value, i int) (*types.InputPort, error) {
	if len(args) <= i {
		return e.currentInput(), nil
	}
	p, ok := args[i].(*types.InputPort)
	if !ok {
		return nil, badType(name, "input port", args[i])
	}
	return p, nil
}

func (e *Evaluator) outputPort(name string, args []types.Value, i int) (*types.OutputPort, error) {
	if len(args) <= i {
		return e.currentOutput(), nil
	}
	p, ok := args[i].(*types.OutputPort)
	if !ok {
		return nil, badType(name, "output port", args[i])
	}
	return p, nil
}

func fnCurrentInputPort(e *Evaluator, _ []types.Value) (types.Value, error) {
	return e.currentInput(), nil
}

func fnCurrentOutputPort(e *Evaluator, _ []types.Value) (types.Value, error) {
	return e.currentOutput(), nil
}

func isInputPort(v types.Value) bool {
	_, ok := v.(*types.InputPort)
	return ok
}

func isOutputPort(v types.Value) bool {
	_, ok := v.(*types.OutputPort)
	return ok
}

func isPort(v types.Value) bool {
	return isInputPort(v) || isOutputPort(v)
}

// ── Input ───────────────────────────────────────────────────────────────────

func fnRead(e *Evaluator, args []types.Value) (types.Value, error) {
	p, err := e.inputPort("read", args, 0)
	if err != nil {
		return nil, err
	}
	if p.Closed() {
		return nil, types.NewError(types.ErrBadArgument, "read: port is closed", p)
	}
	return parser.ReadDatum(p.RuneScanner(), parser.WithFoldCase(e.opts.FoldCase))
}

func readRune(p *types.InputPort) (types.Value, error) {
	r, _, err := p.ReadRune()
	if errors.Is(err, io.EOF) {
		return types.EOF, nil
	}
	if err != nil {
		return nil, err
	}
	return types.Char(r), nil
}

func fnReadChar(e *Evaluator, args []types.Value) (types.Value, error) {
	p, err := e.inputPort("read-char", args, 0)
	if err != nil {
		return nil, err
	}
	return readRune(p)
}

func fnPeekChar(e *Evaluator, args []types.Value) (types.Value, error) {
	p, err := e.inputPort("peek-char", args, 0)
	if err != nil {
		return nil, err
	}
	c, err := readRune(p)
	if err != nil || c == types.EOF {
		return c, err
	}
	return c, p.UnreadRune()
}

func fnReadLine(e *Evaluator, args []types.Value) (types.Value, error) {
	p, err := e.inputPort("read-line", args, 0)
	if err != nil {
		return nil, err
	}
	b := acquireBuf()
	defer releaseBuf(b)
	for {
		r, _, err := p.ReadRune()
		if errors.Is(err, io.EOF) {
			if b.Len() == 0 {
				return types.EOF, nil
			}
			return b.String(), nil
		}
		if err != nil {
			return nil, err
		}
		if r == '\n' {
			return strings.TrimSuffix(b.String(), "\r"), nil
		}
		b.WriteRune(r)
	}
}

func fnCharReady(e *Evaluator, args []types.Value) (types.Value, error) {
	p, err := e.inputPort("char-ready?", args, 0)
	if err != nil {
		return nil, err
	}
	return !p.Closed(), nil
}

func fnEOFObject(_ *Evaluator, _ []types.Value) (types.Value, error) {
	return types.EOF, nil
}

func isEOF(v types.Value) bool {
	return v == types.EOF
}

// ── Output ──────────────────────────────────────────────────────────────────

func writer(name string, quoted bool) FunctionImpl {
	return func(e *Evaluator, args []types.Value) (types.Value, error) {
		p, err := e.outputPort(name, args, 1)
		if err != nil {
			return nil, err
		}
		return types.Unspecified, p.WriteValue(args[0], quoted)
	}
}

func fnNewline(e *Evaluator, args []types.Value) (types.Value, error) {
	p, err := e.outputPort("newline", args, 0)
	if err != nil {
		return nil, err
	}
	return types.Unspecified, p.WriteString("\n")
}

func fnWriteChar(e *Evaluator, args []types.Value) (types.Value, error) {
	c, err := argChar("write-char", args[0])
	if err != nil {
		return nil, err
	}
	p, err := e.outputPort("write-char", args, 1)
	if err != nil {
		return nil, err
	}
	return types.Unspecified, p.WriteString(string(rune(c)))
}

func fnWriteString(e *Evaluator, args []types.Value) (types.Value, error) {
	s, err := argString("write-string", args[0])
	if err != nil {
		return nil, err
	}
	p, err := e.outputPort("write-string", args, 1)
	if err != nil {
		return nil, err
	}
	return types.Unspecified, p.WriteString(s)
}

func fnFlushOutput(e *Evaluator, args []types.Value) (types.Value, error) {
	p, err := e.outputPort("flush-output", args, 0)
	if err != nil {
		return nil, err
	}
	return types.Unspecified, p.Flush()
}

// ── String ports ────────────────────────────────────────────────────────────

func fnOpenInputString(_ *Evaluator, args []types.Value) (types.Value, error) {
	s, err := argString("open-input-string", args[0])
	if err != nil {
		return nil, err
	}
	return types.NewStringInputPort(s), nil
}

func fnOpenOutputString(_ *Evaluator, _ []types.Value) (types.Value, error) {
	return types.NewStringOutputPort(), nil
}

func fnGetOutputString(_ *Evaluator, args []types.Value) (types.Value, error) {
	p, ok := args[0].(*types.OutputPort)
	if !ok {
		return nil, badType("get-output-string", "output port", args[0])
	}
	s, ok := p.Contents()
	if !ok {
		return nil, badType("get-output-string", "string port", p)
	}
	return s, nil
}

// ── Files ───────────────────────────────────────────────────────────────────

// openInput opens a file port and marks it for cleanup.
func (e *Evaluator) openInput(name string, v types.Value) (*types.InputPort, error) {
	path, err := argString(name, v)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.ErrHost, name+": cannot open file", path).WithCause(err)
	}
	p := types.NewInputPort(path, f)
	e.family.resources.mark(p)
	return p, nil
}

func (e *Evaluator) openOutput(name string, v types.Value) (*types.OutputPort, error) {
	path, err := argString(name, v)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, types.NewError(types.ErrHost, name+": cannot create file", path).WithCause(err)
	}
	p := types.NewOutputPort(path, f)
	e.family.resources.mark(p)
	return p, nil
}

// closePort closes an input or output port and drops it from cleanup.
func (e *Evaluator) closePort(name string, v types.Value) error {
	c, ok := v.(io.Closer)
	if !ok || !isPort(v) {
		return badType(name, "port", v)
	}
	e.family.resources.unmark(c)
	return c.Close()
}

func fnOpenInputFile(e *Evaluator, args []types.Value) (types.Value, error) {
	return e.openInput("open-input-file", args[0])
}

func fnOpenOutputFile(e *Evaluator, args []types.Value) (types.Value, error) {
	return e.openOutput("open-output-file", args[0])
}

func closer(name string) FunctionImpl {
	return func(e *Evaluator, args []types.Value) (types.Value, error) {
		return types.Unspecified, e.closePort(name, args[0])
	}
}

// closingAfter closes port once the result's value arrives, passing the
// value on. An escape leaves the port to the cleanup registry.
func closingAfter(r Result, port types.Value) Result {
	return r.Then(continueWith(func(e *Evaluator, v types.Value) (Result, error) {
		if err := e.closePort("close-port", port); err != nil {
			return Result{}, err
		}
		return ReturnValue(v), nil
	}))
}

func fnCallWithInputFile(e *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("call-with-input-file", args[1])
	if err != nil {
		return Result{}, err
	}
	p, err := e.openInput("call-with-input-file", args[0])
	if err != nil {
		return Result{}, err
	}
	return closingAfter(ReturnApplication(proc, p), p), nil
}

func fnCallWithOutputFile(e *Evaluator, args []types.Value) (Result, error) {
	proc, err := argProc("call-with-output-file", args[1])
	if err != nil {
		return Result{}, err
	}
	p, err := e.openOutput("call-with-output-file", args[0])
	if err != nil {
		return Result{}, err
	}
	return closingAfter(ReturnApplication(proc, p), p), nil
}

// ── Redirection ─────────────────────────────────────────────────────────────

// redirectInput applies thunk with p as the current input port. The port is
// pushed now and popped or pushed again whenever control leaves or
// re-enters the thunk.
func (e *Evaluator) redirectInput(thunk Applicable, p *types.InputPort) Result {
	push := &Primitive{Name: "push-input", Impl: func(e *Evaluator, _ []types.Value) (types.Value, error) {
		e.inputs = append(e.inputs, p)
		return types.Unspecified, nil
	}}
	pop := &Primitive{Name: "pop-input", Impl: func(e *Evaluator, _ []types.Value) (types.Value, error) {
		if n := len(e.inputs); n > 0 {
			e.inputs = e.inputs[:n-1]
		}
		return types.Unspecified, nil
	}}
	e.inputs = append(e.inputs, p)
	return ReturnApplication(thunk).WithBeforeAfter(push, pop)
}

func (e *Evaluator) redirectOutput(thunk Applicable, p *types.OutputPort) Result {
	push := &Primitive{Name: "push-output", Impl: func(e *Evaluator, _ []types.Value) (types.Value, error) {
		e.outputs = append(e.outputs, p)
		return types.Unspecified, nil
	}}
	pop := &Primitive{Name: "pop-output", Impl: func(e *Evaluator, _ []types.Value) (types.Value, error) {
		if n := len(e.outputs); n > 0 {
			e.outputs = e.outputs[:n-1]
		}
		return types.Unspecified, p.Flush()
	}}
	e.outputs = append(e.outputs, p)
	return ReturnApplication(thunk).WithBeforeAfter(push, pop)
}

func fnWithInputFromFile(e *Evaluator, args []types.Value) (Result, error) {
	thunk, err := argProc("with-input-from-file", args[1])
	if err != nil {
		return Result{}, err
	}
	p, err := e.openInput("with-input-from-file", args[0])
	if err != nil {
		return Result{}, err
	}
	return closingAfter(e.redirectInput(thunk, p), p), nil
}

func fnWithOutputToFile(e *Evaluator, args []types.Value) (Result, error) {
	thunk, err := argProc("with-output-to-file", args[1])
	if err != nil {
		return Result{}, err
	}
	p, err := e.openOutput("with-output-to-file", args[0])
	if err != nil {
		return Result{}, err
	}
	return closingAfter(e.redirectOutput(thunk, p), p), nil
}

func fnWithInputFromString(e *Evaluator, args []types.Value) (Result, error) {
	s, err := argString("with-input-from-string", args[0])
	if err != nil {
		return Result{}, err
	}
	thunk, err := argProc("with-input-from-string", args[1])
	if err != nil {
		return Result{}, err
	}
	return e.redirectInput(thunk, types.NewStringInputPort(s)), nil
}

// fnWithOutputToString returns everything thunk wrote to the current
// output port.
func fnWithOutputToString(e *Evaluator, args []types.Value) (Result, error) {
	thunk, err := argProc("with-output-to-string", args[0])
	if err != nil {
		return Result{}, err
	}
	p := types.NewStringOutputPort()
	return e.redirectOutput(thunk, p).Then(continueWith(func(_ *Evaluator, _ types.Value) (Result, error) {
		s, _ := p.Contents()
		return ReturnValue(s), nil
	})), nil
}

// ── Loading ─────────────────────────────────────────────────────────────────

// fnLoad evaluates the forms of a source file in the top-level
// environment. Compiled programs go through the cache when it is enabled.
func fnLoad(e *Evaluator, args []types.Value) (Result, error) {
	path, err := argString("load", args[0])
	if err != nil {
		return Result{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, types.NewError(types.ErrHost, "load: cannot read file", path).WithCause(err)
	}
	prog, err := e.compile(string(src))
	if err != nil {
		return Result{}, err
	}
	if e.opts.Debug {
		e.logger.Debug("loading file", "path", path, "forms", len(prog.Forms()))
	}
	return ReturnSequence(types.List(prog.Forms()...), e.family.top), nil
}
