package parser

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/goscheme/pkg/numeric"
	"github.com/sandrolain/goscheme/pkg/types"
)

// Parser reads Scheme data from a token stream. Reading is pull-driven: the
// parser asks the lexer for exactly the tokens of one datum, so it can read
// from interactive ports without blocking on input past the datum's end.
type Parser struct {
	lexer *Lexer
	arena *types.PairArena
	opts  CompileOptions
	depth int
}

// NewParser creates a parser reading from r.
func NewParser(r io.RuneScanner, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	l := NewLexer(r)
	l.foldCase = options.FoldCase
	return &Parser{
		lexer: l,
		arena: types.NewPairArena(),
		opts:  options,
	}
}

// Read returns the next datum, or types.EOF when the input is exhausted.
// Input that ends inside a datum yields an ErrIncomplete error.
func (p *Parser) Read() (types.Value, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenEOF {
		return types.EOF, nil
	}
	return p.parseDatum(tok)
}

// ReadAll reads data until the end of input.
func (p *Parser) ReadAll() ([]types.Value, error) {
	var forms []types.Value
	for {
		v, err := p.Read()
		if err != nil {
			return nil, err
		}
		if v == types.EOF {
			return forms, nil
		}
		forms = append(forms, v)
	}
}

// next returns the next token, skipping datum comments.
func (p *Parser) next() (Token, error) {
	for {
		tok := p.lexer.Next()
		switch tok.Type {
		case TokenError:
			return tok, p.lexer.Error()
		case TokenDatumComment:
			inner, err := p.next()
			if err != nil {
				return inner, err
			}
			if inner.Type == TokenEOF {
				return inner, p.incomplete(tok, "datum comment without datum")
			}
			if _, err := p.parseDatum(inner); err != nil {
				return inner, err
			}
			continue
		}
		return tok, nil
	}
}

// parseDatum parses the datum starting with tok.
func (p *Parser) parseDatum(tok Token) (types.Value, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, p.incomplete(tok, "unexpected end of input")
	case TokenParenOpen:
		return p.parseList(tok)
	case TokenVectorOpen:
		return p.parseVector(tok)
	case TokenParenClose:
		return nil, p.error(tok, "unexpected "+tok.Value)
	case TokenDot:
		return nil, p.error(tok, "unexpected dot")
	case TokenQuote, TokenQuasiquote, TokenUnquote, TokenUnquoteSplicing:
		return p.parseAbbreviation(tok)
	case TokenString:
		return tok.Value, nil
	case TokenSymbol:
		return types.Intern(tok.Value), nil
	case TokenBoolean:
		v := strings.ToLower(tok.Value)
		return v == "#t" || v == "#true", nil
	case TokenChar:
		return p.parseChar(tok)
	case TokenAtom:
		return p.parseAtom(tok)
	}
	return nil, p.error(tok, "unexpected token "+tok.Type.String())
}

func (p *Parser) enter(tok Token) error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return p.error(tok, "nesting too deep")
	}
	return nil
}

// parseList parses the rest of a list, including dotted tails.
func (p *Parser) parseList(open Token) (types.Value, error) {
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	closer := closerFor(open.Value)
	var items []types.Value
	var tail types.Value = types.Nil
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenEOF:
			return nil, p.incomplete(tok, "unterminated list")
		case TokenParenClose:
			if tok.Value != closer {
				return nil, p.error(tok, "mismatched "+tok.Value)
			}
			return p.build(items, tail), nil
		case TokenDot:
			if len(items) == 0 {
				return nil, p.error(tok, "dot at start of list")
			}
			last, err := p.next()
			if err != nil {
				return nil, err
			}
			if tail, err = p.parseDatum(last); err != nil {
				return nil, err
			}
			end, err := p.next()
			if err != nil {
				return nil, err
			}
			switch {
			case end.Type == TokenEOF:
				return nil, p.incomplete(end, "unterminated list")
			case end.Type != TokenParenClose || end.Value != closer:
				return nil, p.error(end, "bad dotted list")
			}
			return p.build(items, tail), nil
		default:
			v, err := p.parseDatum(tok)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
}

func (p *Parser) build(items []types.Value, tail types.Value) types.Value {
	for i := len(items) - 1; i >= 0; i-- {
		tail = p.arena.Cons(items[i], tail)
	}
	return tail
}

func (p *Parser) parseVector(open Token) (types.Value, error) {
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	items := []types.Value{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenEOF:
			return nil, p.incomplete(tok, "unterminated vector")
		case TokenParenClose:
			if tok.Value != ")" {
				return nil, p.error(tok, "mismatched "+tok.Value)
			}
			return &types.Vector{Items: items}, nil
		default:
			v, err := p.parseDatum(tok)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
}

func (p *Parser) parseAbbreviation(tok Token) (types.Value, error) {
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	inner, err := p.next()
	if err != nil {
		return nil, err
	}
	if inner.Type == TokenEOF {
		return nil, p.incomplete(inner, "nothing after "+tok.Type.String())
	}
	v, err := p.parseDatum(inner)
	if err != nil {
		return nil, err
	}
	sym := types.Intern(abbreviations[tok.Type])
	return p.arena.Cons(sym, p.arena.Cons(v, types.Nil)), nil
}

func (p *Parser) parseChar(tok Token) (types.Value, error) {
	text := tok.Value
	if utf8.RuneCountInString(text) == 1 {
		r, _ := utf8.DecodeRuneInString(text)
		return types.Char(r), nil
	}
	if r, ok := charNames[strings.ToLower(text)]; ok {
		return types.Char(r), nil
	}
	if text[0] == 'x' || text[0] == 'U' || text[0] == 'u' {
		n, err := strconv.ParseUint(text[1:], 16, 32)
		if err == nil && utf8.ValidRune(rune(n)) {
			return types.Char(rune(n)), nil
		}
	}
	return nil, p.error(tok, "unknown character name #\\"+text)
}

func (p *Parser) parseAtom(tok Token) (types.Value, error) {
	if v, ok := numeric.Parse(tok.Value, 10); ok {
		return v, nil
	}
	if strings.HasPrefix(tok.Value, "#") {
		return nil, p.error(tok, "bad # syntax "+tok.Value)
	}
	name := tok.Value
	if p.lexer.foldCase {
		name = strings.ToLower(name)
	}
	return types.Intern(name), nil
}

func (p *Parser) error(tok Token, message string) error {
	return types.NewError(types.ErrRead, message).WithPosition(tok.Position)
}

func (p *Parser) incomplete(tok Token, message string) error {
	return types.NewError(types.ErrIncomplete, message).WithPosition(tok.Position)
}
