package types

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// String renders v in its external representation. quoted selects write
// (strings and characters in read syntax) over display.
func String(v Value, quoted bool) string {
	var b strings.Builder
	_ = Write(&b, v, quoted)
	return b.String()
}

// Write renders v to w. It is used for output primitives and diagnostics,
// never on the evaluator's hot path.
func Write(w io.Writer, v Value, quoted bool) error {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	p := printer{w: bw, quoted: quoted}
	p.print(v)
	if !ok {
		return bw.Flush()
	}
	return nil
}

type printer struct {
	w      *bufio.Writer
	quoted bool
}

var charNames = map[Char]string{
	' ':    "space",
	'\n':   "newline",
	'\t':   "tab",
	'\r':   "return",
	0:      "nul",
	0x7f:   "delete",
	0x07:   "alarm",
	0x08:   "backspace",
	0x1b:   "escape",
	0x0c:   "page",
	0xfeff: "bom",
}

func (p *printer) print(v Value) {
	if s, ok := FormatNumber(v); ok {
		p.w.WriteString(s)
		return
	}
	switch x := v.(type) {
	case bool:
		if x {
			p.w.WriteString("#t")
		} else {
			p.w.WriteString("#f")
		}
	case EmptyList:
		p.w.WriteString("()")
	case *Pair:
		p.printList(x)
	case *Symbol:
		p.w.WriteString(x.Name)
	case string:
		p.printString(x)
	case *MString:
		p.printString(x.String())
	case Char:
		if !p.quoted {
			p.w.WriteRune(rune(x))
			return
		}
		p.w.WriteString(`#\`)
		if name, ok := charNames[x]; ok {
			p.w.WriteString(name)
		} else if x < 0x20 {
			fmt.Fprintf(p.w, "x%x", int(x))
		} else {
			p.w.WriteRune(rune(x))
		}
	case *Vector:
		p.w.WriteString("#(")
		for i, item := range x.Items {
			if i > 0 {
				p.w.WriteByte(' ')
			}
			p.print(item)
		}
		p.w.WriteByte(')')
	case marker:
		p.w.WriteString(string(x))
	case *Error:
		fmt.Fprintf(p.w, "#<condition %s: %s>", x.Code, x.Message)
	case fmt.Stringer:
		p.w.WriteString(x.String())
	case nil:
		p.w.WriteString("#<null>")
	default:
		fmt.Fprintf(p.w, "#<%T>", v)
	}
}

func (p *printer) printList(x *Pair) {
	p.w.WriteByte('(')
	p.print(x.Car)
	n := 1
	for {
		switch next := x.Cdr.(type) {
		case EmptyList:
			p.w.WriteByte(')')
			return
		case *Pair:
			if n >= MaxListLength {
				p.w.WriteString(" ...)")
				return
			}
			p.w.WriteByte(' ')
			p.print(next.Car)
			x = next
			n++
		default:
			p.w.WriteString(" . ")
			p.print(next)
			p.w.WriteByte(')')
			return
		}
	}
}

func (p *printer) printString(s string) {
	if !p.quoted {
		p.w.WriteString(s)
		return
	}
	p.w.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			p.w.WriteString(`\"`)
		case '\\':
			p.w.WriteString(`\\`)
		case '\n':
			p.w.WriteString(`\n`)
		case '\t':
			p.w.WriteString(`\t`)
		case '\r':
			p.w.WriteString(`\r`)
		default:
			p.w.WriteRune(r)
		}
	}
	p.w.WriteByte('"')
}

// FormatNumber renders a number in radix 10. It reports false when v is not
// one of the numeric representations.
func FormatNumber(v Value) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case *big.Int:
		return n.String(), true
	case *big.Rat:
		if n.IsInt() {
			return n.Num().String(), true
		}
		return n.RatString(), true
	case float64:
		return FormatFloat(n), true
	case *big.Float:
		if n.IsInf() {
			if n.Sign() < 0 {
				return "-inf.0", true
			}
			return "+inf.0", true
		}
		return withPoint(n.Text('g', -1)), true
	}
	return "", false
}

// FormatFloat renders an inexact real so that reading it back yields the same
// value and exactness: integral values keep a trailing ".0".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "+nan.0"
	case math.IsInf(f, 1):
		return "+inf.0"
	case math.IsInf(f, -1):
		return "-inf.0"
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-7 && abs < 1e21) {
		return withPoint(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return withPoint(strconv.FormatFloat(f, 'e', -1, 64))
}

func withPoint(s string) string {
	if strings.ContainsAny(s, ".eEn") {
		return s
	}
	return s + ".0"
}
