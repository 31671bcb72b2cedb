package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenAtom    // number or symbol, decided by the parser
	TokenSymbol  // |symbol with spaces|
	TokenString  // "hello"
	TokenChar    // #\a, #\space, #\x41
	TokenBoolean // #t, #f, #true, #false

	// Grouping symbols
	TokenParenOpen  // ( or [
	TokenParenClose // ) or ]
	TokenVectorOpen // #(
	TokenDot        // .

	// Abbreviations
	TokenQuote           // '
	TokenQuasiquote      // `
	TokenUnquote         // ,
	TokenUnquoteSplicing // ,@

	// Comments
	TokenDatumComment // #;
)

var tokenNames = [...]string{
	TokenEOF:             "(eof)",
	TokenError:           "(error)",
	TokenAtom:            "(atom)",
	TokenSymbol:          "(symbol)",
	TokenString:          "(string)",
	TokenChar:            "(char)",
	TokenBoolean:         "(boolean)",
	TokenParenOpen:       "(",
	TokenParenClose:      ")",
	TokenVectorOpen:      "#(",
	TokenDot:             ".",
	TokenQuote:           "'",
	TokenQuasiquote:      "`",
	TokenUnquote:         ",",
	TokenUnquoteSplicing: ",@",
	TokenDatumComment:    "#;",
}

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return "(unknown)"
}

// Token represents a lexical token.
type Token struct {
	Type     TokenType
	Value    string // token text; decoded contents for strings and characters
	Position int    // byte offset in the input
}

// abbreviations maps quote-like tokens to the symbol they expand to.
var abbreviations = map[TokenType]string{
	TokenQuote:           "quote",
	TokenQuasiquote:      "quasiquote",
	TokenUnquote:         "unquote",
	TokenUnquoteSplicing: "unquote-splicing",
}

// charNames maps character names to runes.
var charNames = map[string]rune{
	"space":     ' ',
	"newline":   '\n',
	"linefeed":  '\n',
	"tab":       '\t',
	"nul":       0,
	"null":      0,
	"return":    '\r',
	"alarm":     7,
	"backspace": 8,
	"delete":    127,
	"rubout":    127,
	"escape":    27,
	"altmode":   27,
	"page":      12,
}

// closerFor returns the closing bracket matching an opening one.
func closerFor(open string) string {
	if open == "[" {
		return "]"
	}
	return ")"
}
