package parser

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/goscheme/pkg/types"
)

const eof = -1

// Lexer converts Scheme source into a sequence of tokens.
// The implementation follows Rob Pike's "Lexical Scanning in Go" technique,
// reading from an io.RuneScanner so that the same lexer serves source strings
// and input ports. It never reads more than one rune past the end of a
// token, and that rune is pushed back, so a port is left positioned right
// after the datum that was read.
type Lexer struct {
	r        io.RuneScanner
	text     []rune // runes of the current token
	start    int    // start offset of current token
	current  int    // current offset
	width    int    // width of last rune read, 0 after backup
	err      error  // first error encountered
	foldCase bool
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.RuneScanner) *Lexer {
	return &Lexer{r: r}
}

// NewStringLexer creates a lexer over a source string.
func NewStringLexer(input string) *Lexer {
	return NewLexer(strings.NewReader(input))
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls.
func (l *Lexer) Next() Token {
	for {
		l.skipWhitespace()
		if l.err != nil {
			return l.errorToken()
		}

		ch := l.nextRune()
		switch ch {
		case eof:
			return l.eof()
		case '(', '[':
			return l.newToken(TokenParenOpen)
		case ')', ']':
			return l.newToken(TokenParenClose)
		case '\'':
			return l.newToken(TokenQuote)
		case '`':
			return l.newToken(TokenQuasiquote)
		case ',':
			if l.acceptRune('@') {
				return l.newToken(TokenUnquoteSplicing)
			}
			return l.newToken(TokenUnquote)
		case '"':
			return l.scanString()
		case '|':
			return l.scanBarSymbol()
		case '#':
			if t, ok := l.scanHash(); ok {
				return t
			}
			continue
		}

		l.acceptUntilDelimiter()
		if len(l.text) == 1 && l.text[0] == '.' {
			return l.newToken(TokenDot)
		}
		return l.newToken(TokenAtom)
	}
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// FoldCase reports whether symbols are currently folded to lower case.
func (l *Lexer) FoldCase() bool {
	return l.foldCase
}

// scanHash handles the '#' dispatch. It reports false when it consumed
// something that produces no token (block comments, directives).
func (l *Lexer) scanHash() (Token, bool) {
	switch l.nextRune() {
	case '|':
		if l.skipBlockComment() {
			l.ignore()
			return Token{}, false
		}
		return l.errorToken(), true
	case ';':
		return l.newToken(TokenDatumComment), true
	case '(':
		return l.newToken(TokenVectorOpen), true
	case '\\':
		return l.scanChar(), true
	case '!':
		l.acceptUntilDelimiter()
		switch strings.ToLower(string(l.text)) {
		case "#!fold-case":
			l.foldCase = true
		case "#!no-fold-case":
			l.foldCase = false
		default:
			return l.fail(types.ErrRead, "unknown directive"), true
		}
		l.ignore()
		return Token{}, false
	case eof:
		return l.fail(types.ErrRead, "bad # syntax"), true
	}
	l.acceptUntilDelimiter()
	switch strings.ToLower(string(l.text)) {
	case "#t", "#true", "#f", "#false":
		return l.newToken(TokenBoolean), true
	}
	return l.newToken(TokenAtom), true
}

// scanString reads a string literal. The opening quote has been consumed;
// the token value is the decoded contents.
func (l *Lexer) scanString() Token {
	var b strings.Builder
	for {
		ch := l.nextRune()
		switch ch {
		case '"':
			t := l.newToken(TokenString)
			t.Value = b.String()
			return t
		case eof:
			return l.fail(types.ErrIncomplete, "unterminated string literal")
		case '\\':
			esc := l.nextRune()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'a':
				b.WriteByte(7)
			case 'b':
				b.WriteByte(8)
			case '0':
				b.WriteByte(0)
			case '\\', '"', '|':
				b.WriteRune(esc)
			case 'x', 'X':
				r, ok := l.scanHexEscape()
				if !ok {
					return l.fail(types.ErrRead, "bad \\x escape in string")
				}
				b.WriteRune(r)
			case '\n', ' ', '\t', '\r':
				// Line continuation: the rest of the line and the leading
				// whitespace of the next one are dropped.
				for esc == ' ' || esc == '\t' || esc == '\r' {
					esc = l.nextRune()
				}
				switch esc {
				case '\n':
					l.acceptAll(isIntraline)
				case eof:
					return l.fail(types.ErrIncomplete, "unterminated string literal")
				default:
					return l.fail(types.ErrRead, "bad line continuation in string")
				}
			case eof:
				return l.fail(types.ErrIncomplete, "unterminated string literal")
			default:
				return l.fail(types.ErrRead, "unknown string escape \\"+string(esc))
			}
		default:
			b.WriteRune(ch)
		}
	}
}

// scanHexEscape reads hex digits up to the terminating ';'.
func (l *Lexer) scanHexEscape() (rune, bool) {
	var digits strings.Builder
	for {
		ch := l.nextRune()
		if ch == ';' {
			break
		}
		if ch == eof || !isHexDigit(ch) {
			return 0, false
		}
		digits.WriteRune(ch)
	}
	n, err := strconv.ParseUint(digits.String(), 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

// scanBarSymbol reads |...| symbols. The token value is the symbol name.
func (l *Lexer) scanBarSymbol() Token {
	var b strings.Builder
	for {
		ch := l.nextRune()
		switch ch {
		case '|':
			t := l.newToken(TokenSymbol)
			t.Value = b.String()
			return t
		case eof:
			return l.fail(types.ErrIncomplete, "unterminated |symbol|")
		case '\\':
			esc := l.nextRune()
			switch esc {
			case 'x', 'X':
				r, ok := l.scanHexEscape()
				if !ok {
					return l.fail(types.ErrRead, "bad \\x escape in symbol")
				}
				b.WriteRune(r)
			case eof:
				return l.fail(types.ErrIncomplete, "unterminated |symbol|")
			default:
				b.WriteRune(esc)
			}
		default:
			b.WriteRune(ch)
		}
	}
}

// scanChar reads a character literal after "#\". The token value is the
// text following the backslash.
func (l *Lexer) scanChar() Token {
	if l.nextRune() == eof {
		return l.fail(types.ErrIncomplete, "unterminated character literal")
	}
	l.acceptUntilDelimiter()
	t := l.newToken(TokenChar)
	t.Value = t.Value[2:]
	return t
}

// skipBlockComment skips a possibly nested #| ... |# comment whose opening
// has been consumed.
func (l *Lexer) skipBlockComment() bool {
	depth := 1
	for depth > 0 {
		switch l.nextRune() {
		case eof:
			l.fail(types.ErrIncomplete, "unterminated block comment")
			return false
		case '|':
			if l.acceptRune('#') {
				depth--
			}
		case '#':
			if l.acceptRune('|') {
				depth++
			}
		}
	}
	return true
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) fail(code types.ErrorCode, message string) Token {
	if l.err == nil {
		l.err = types.NewError(code, message).WithPosition(l.start)
	}
	return l.errorToken()
}

func (l *Lexer) errorToken() Token {
	return Token{
		Type:     TokenError,
		Value:    string(l.text),
		Position: l.start,
	}
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    string(l.text),
		Position: l.start,
	}
	l.ignore()
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil {
		l.width = 0
		return eof
	}
	r, w, err := l.r.ReadRune()
	if err != nil {
		l.width = 0
		if !errors.Is(err, io.EOF) {
			l.err = types.Wrap(err)
		}
		return eof
	}
	l.width = w
	l.current += w
	l.text = append(l.text, r)
	return r
}

// backup pushes back the last rune read. Only one rune can be pushed back.
func (l *Lexer) backup() {
	if l.width == 0 {
		return
	}
	_ = l.r.UnreadRune()
	l.current -= l.width
	l.text = l.text[:len(l.text)-1]
	l.width = 0
}

func (l *Lexer) ignore() {
	l.text = l.text[:0]
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) acceptUntilDelimiter() {
	l.acceptAll(func(c rune) bool {
		return c != eof && !isDelimiter(c)
	})
}

// skipWhitespace skips whitespace and line comments.
func (l *Lexer) skipWhitespace() {
	for l.err == nil {
		l.acceptAll(isWhitespace)
		l.ignore()
		if !l.acceptRune(';') {
			return
		}
		l.acceptAll(func(c rune) bool {
			return c != eof && c != '\n'
		})
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isIntraline(r rune) bool {
	return r == ' ' || r == '\t'
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '"', ';':
		return true
	}
	return isWhitespace(r)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
