// token.go: lexical token kinds and the positioned Token record.
package libcel

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Literals & identifiers
	IDENT
	NULL
	TRUE
	FALSE
	INT
	UINT
	DOUBLE
	STRING
	BYTES

	// Punctuation
	LROUND   // "("
	RROUND   // ")"
	LSQUARE  // "["
	RSQUARE  // "]"
	LCURLY   // "{"
	RCURLY   // "}"
	PERIOD   // "."
	COMMA    // ","
	COLON    // ":"
	QUESTION // "?"

	// Operators
	PLUS       // "+"
	MINUS      // "-"
	MULT       // "*"
	DIV        // "/"
	MOD        // "%"
	EQ         // "=="
	NEQ        // "!="
	LESS       // "<"
	LESS_EQ    // "<="
	GREATER    // ">"
	GREATER_EQ // ">="
	AND        // "&&"
	OR         // "||"
	BANG       // "!"
	IN         // "in"
)

var tokenTypeNames = map[TokenType]string{
	EOF:        "EOF",
	IDENT:      "identifier",
	NULL:       "null",
	TRUE:       "true",
	FALSE:      "false",
	INT:        "int literal",
	UINT:       "uint literal",
	DOUBLE:     "double literal",
	STRING:     "string literal",
	BYTES:      "bytes literal",
	LROUND:     "'('",
	RROUND:     "')'",
	LSQUARE:    "'['",
	RSQUARE:    "']'",
	LCURLY:     "'{'",
	RCURLY:     "'}'",
	PERIOD:     "'.'",
	COMMA:      "','",
	COLON:      "':'",
	QUESTION:   "'?'",
	PLUS:       "'+'",
	MINUS:      "'-'",
	MULT:       "'*'",
	DIV:        "'/'",
	MOD:        "'%'",
	EQ:         "'=='",
	NEQ:        "'!='",
	LESS:       "'<'",
	LESS_EQ:    "'<='",
	GREATER:    "'>'",
	GREATER_EQ: "'>='",
	AND:        "'&&'",
	OR:         "'||'",
	BANG:       "'!'",
	IN:         "'in'",
}

// String returns a diagnostic-friendly name for the token type.
func (tt TokenType) String() string {
	if s, ok := tokenTypeNames[tt]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a lexical token with optional literal value.
//
// Lexeme is the raw source slice; Literal carries the decoded payload for
// literal tokens (float64 for INT/UINT/DOUBLE, string for STRING/BYTES,
// bool for TRUE/FALSE, nil otherwise). Line and Col are 1-based and refer
// to the first character of the lexeme.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Col     int
}

// describe renders a token for "unexpected token" diagnostics.
func (t Token) describe() string {
	if t.Type == EOF {
		return "end of input"
	}
	if t.Lexeme != "" {
		return fmt.Sprintf("%q", t.Lexeme)
	}
	return t.Type.String()
}
