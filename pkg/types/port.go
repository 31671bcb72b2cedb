package types

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// InputPort is a character source. Reading is not synchronized; a port is
// expected to be used by one evaluator at a time.
type InputPort struct {
	Name   string
	r      io.RuneScanner
	closer io.Closer
	closed bool
}

// NewInputPort wraps r. If r is also an io.Closer, closing the port closes it.
func NewInputPort(name string, r io.Reader) *InputPort {
	rs, ok := r.(io.RuneScanner)
	if !ok {
		rs = bufio.NewReader(r)
	}
	c, _ := r.(io.Closer)
	return &InputPort{Name: name, r: rs, closer: c}
}

// NewStringInputPort returns a port reading from s.
func NewStringInputPort(s string) *InputPort {
	return &InputPort{Name: "string", r: strings.NewReader(s)}
}

// RuneScanner exposes the underlying scanner, e.g. for the datum reader.
func (p *InputPort) RuneScanner() io.RuneScanner {
	return p.r
}

// ReadRune reads one character.
func (p *InputPort) ReadRune() (rune, int, error) {
	if p.closed {
		return 0, 0, NewError(ErrBadArgument, "port is closed", p)
	}
	return p.r.ReadRune()
}

// UnreadRune pushes back the last character read.
func (p *InputPort) UnreadRune() error {
	return p.r.UnreadRune()
}

// Close closes the port and its underlying reader. Closing twice is a no-op.
func (p *InputPort) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// Closed reports whether Close was called.
func (p *InputPort) Closed() bool {
	return p.closed
}

func (p *InputPort) String() string {
	return "#<input-port " + p.Name + ">"
}

// OutputPort is a character sink. Writes go through a bufio.Writer which is
// flushed on Flush and Close. The mutex serializes writers, since the
// top-level output port is shared by spawned evaluators.
type OutputPort struct {
	Name   string
	mu     sync.Mutex
	w      *bufio.Writer
	buf    *strings.Builder
	closer io.Closer
	closed bool
}

// NewOutputPort wraps w. If w is also an io.Closer, closing the port closes it.
func NewOutputPort(name string, w io.Writer) *OutputPort {
	c, _ := w.(io.Closer)
	return &OutputPort{Name: name, w: bufio.NewWriter(w), closer: c}
}

// NewStringOutputPort returns a port accumulating into a string.
func NewStringOutputPort() *OutputPort {
	b := &strings.Builder{}
	return &OutputPort{Name: "string", w: bufio.NewWriter(b), buf: b}
}

// WriteValue renders v onto the port.
func (p *OutputPort) WriteValue(v Value, quoted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return NewError(ErrBadArgument, "port is closed", p)
	}
	return Write(p.w, v, quoted)
}

// WriteString writes s verbatim.
func (p *OutputPort) WriteString(s string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return NewError(ErrBadArgument, "port is closed", p)
	}
	_, err := p.w.WriteString(s)
	return err
}

// Flush pushes buffered output to the underlying writer.
func (p *OutputPort) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w.Flush()
}

// Contents returns the accumulated text of a string port.
func (p *OutputPort) Contents() (string, bool) {
	if p.buf == nil {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.w.Flush()
	return p.buf.String(), true
}

// Close flushes and closes the port. Closing twice is a no-op.
func (p *OutputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.w.Flush()
	if p.closer != nil {
		if cerr := p.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *OutputPort) String() string {
	return "#<output-port " + p.Name + ">"
}
