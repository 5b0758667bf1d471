// lexer.go: stateful scanner producing positioned tokens on demand.
//
// The lexer owns all character-level concerns: whitespace and newline
// bookkeeping (CR and CRLF both count as a single newline), identifier and
// keyword recognition, numeric literal classification (int/uint/double),
// and the four string literal forms (plain, raw, triple-quoted, raw+triple)
// plus bytes literals. Escape sequences are decoded here; decoded payloads
// travel on Token.Literal while Token.Lexeme keeps the raw source slice.
//
// Tokens are produced one at a time through Next, with Peek(n) exposing an
// on-demand lookahead queue so the parser can inspect upcoming tokens
// without consuming them.
package libcel

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// keywords that are reserved identifiers.
var keywords = map[string]TokenType{
	"null":  NULL,
	"true":  TRUE,
	"false": FALSE,
	"in":    IN,
}

// Lexer scans an expression source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based line of the next unread character
	col    int // 1-based column of the next unread character
	prevCR bool

	queue []Token // lookahead buffer filled on demand by Peek

	// precise token start position
	tokLine int
	tokCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:  src,
		line: 1,
		col:  1,
	}
}

// Next returns the next token, consuming it.
func (l *Lexer) Next() (Token, error) {
	if len(l.queue) > 0 {
		tok := l.queue[0]
		l.queue = l.queue[1:]
		return tok, nil
	}
	return l.scanToken()
}

// Scan drains the lexer and returns every remaining token, EOF included.
// Convenience for callers that want the whole stream up front; the parser
// uses Next/Peek instead.
func (l *Lexer) Scan() ([]Token, error) {
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Type == EOF {
			return out, nil
		}
	}
}

// Peek returns the n-th upcoming token (1-indexed) without consuming it.
// Once the scanner reaches end of input it reports the EOF token for every
// position past the end.
func (l *Lexer) Peek(n int) (Token, error) {
	if n < 1 {
		n = 1
	}
	for len(l.queue) < n {
		if k := len(l.queue); k > 0 && l.queue[k-1].Type == EOF {
			return l.queue[k-1], nil
		}
		tok, err := l.scanToken()
		if err != nil {
			return Token{}, err
		}
		l.queue = append(l.queue, tok)
	}
	return l.queue[n-1], nil
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peekByte() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekByteN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

// advance consumes one byte. Columns count characters, so UTF-8
// continuation bytes do not move the column; CR and CRLF advance the line
// exactly once and reset the column to 1.
func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	switch {
	case ch == '\n':
		if l.prevCR {
			l.prevCR = false
		} else {
			l.line++
			l.col = 1
		}
	case ch == '\r':
		l.line++
		l.col = 1
		l.prevCR = true
	default:
		l.prevCR = false
		if ch < 0x80 || ch >= 0xC0 {
			l.col++
		}
	}
	return ch, true
}

func (l *Lexer) rewindToStart() {
	l.cur = l.start
	l.line = l.tokLine
	l.col = l.tokCol
}

func (l *Lexer) make(tt TokenType, lit interface{}) Token {
	return Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Line:    l.tokLine,
		Col:     l.tokCol,
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		b, ok := l.peekByte()
		if !ok {
			return
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

// helpers

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isOctal(b byte) bool { return b >= '0' && b <= '7' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	default:
		return int(b-'A') + 10
	}
}

// ----- errors -----

func (l *Lexer) err(msg string) error {
	return &SyntaxError{Line: l.line, Col: l.col, Msg: msg}
}

func (l *Lexer) errAtStart(msg string, incomplete bool) error {
	return &SyntaxError{Line: l.tokLine, Col: l.tokCol, Msg: msg, incomplete: incomplete}
}

// ----- scanners -----

// scanIdentifier parses [A-Za-z_][A-Za-z0-9_]*
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peekByte()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses decimal integers, hex integers, and floats, starting at
// l.start (which is either a digit or a '.' followed by a digit). A u/U
// suffix on an integral form marks the token unsigned; a fractional part or
// exponent marks it non-integral.
func (l *Lexer) scanNumber() (Token, error) {
	// hexadecimal: 0x / 0X, integral only
	if b, ok := l.peekByte(); ok && b == '0' {
		if b2, ok2 := l.peekByteN(1); ok2 && (b2 == 'x' || b2 == 'X') {
			l.advance()
			l.advance()
			digits := 0
			for {
				b, ok := l.peekByte()
				if !ok || !isHex(b) {
					break
				}
				l.advance()
				digits++
			}
			if digits == 0 {
				return Token{}, l.err("malformed hexadecimal literal")
			}
			body := l.src[l.start+2 : l.cur]
			v, convErr := strconv.ParseUint(body, 16, 64)
			if convErr != nil {
				return Token{}, l.errAtStart("hexadecimal literal out of range", false)
			}
			if b, ok := l.peekByte(); ok && (b == 'u' || b == 'U') {
				l.advance()
				return l.make(UINT, float64(v)), nil
			}
			return l.make(INT, float64(v)), nil
		}
	}

	for {
		b, ok := l.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	// fractional part: '.' is consumed only when a digit follows
	sawDot := false
	if b, ok := l.peekByte(); ok && b == '.' {
		if b2, ok2 := l.peekByteN(1); ok2 && isDigit(b2) {
			l.advance()
			sawDot = true
			for {
				b, ok := l.peekByte()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}

	// exponent
	sawExp := false
	if b, ok := l.peekByte(); ok && (b == 'e' || b == 'E') {
		save, saveCol := l.cur, l.col
		l.advance()
		if b2, ok := l.peekByte(); ok && (b2 == '+' || b2 == '-') {
			l.advance()
		}
		if b3, ok := l.peekByte(); ok && isDigit(b3) {
			sawExp = true
			for {
				b4, ok := l.peekByte()
				if !ok || !isDigit(b4) {
					break
				}
				l.advance()
			}
		} else {
			l.cur, l.col = save, saveCol
		}
	}

	if !sawDot && !sawExp {
		numEnd := l.cur
		unsigned := false
		if b, ok := l.peekByte(); ok && (b == 'u' || b == 'U') {
			l.advance()
			unsigned = true
		}
		v, convErr := strconv.ParseFloat(l.src[l.start:numEnd], 64)
		if convErr != nil {
			return Token{}, l.errAtStart("integer literal out of range", false)
		}
		if unsigned {
			return l.make(UINT, v), nil
		}
		return l.make(INT, v), nil
	}

	v, convErr := strconv.ParseFloat(l.src[l.start:l.cur], 64)
	if convErr != nil {
		return Token{}, l.errAtStart("numeric literal out of range", false)
	}
	return l.make(DOUBLE, v), nil
}

// scanString parses a string or bytes literal. The r/R and b/B prefix
// letters have already been consumed; l.cur sits on the opening quote.
func (l *Lexer) scanString(raw, isBytes bool) (Token, error) {
	q, _ := l.advance()
	triple := false
	if b1, ok1 := l.peekByte(); ok1 && b1 == q {
		if b2, ok2 := l.peekByteN(1); ok2 && b2 == q {
			l.advance()
			l.advance()
			triple = true
		}
	}

	var out []byte
	for {
		if l.isAtEnd() {
			// an open triple-quoted literal may legitimately continue on
			// the next input line; a single-line literal cannot
			return Token{}, l.errAtStart("string literal was not terminated", triple)
		}
		b, _ := l.peekByte()

		if b == q {
			if !triple {
				l.advance()
				break
			}
			if b2, ok2 := l.peekByteN(1); ok2 && b2 == q {
				if b3, ok3 := l.peekByteN(2); ok3 && b3 == q {
					l.advance()
					l.advance()
					l.advance()
					break
				}
			}
			l.advance()
			out = append(out, q)
			continue
		}

		if !triple && (b == '\n' || b == '\r') {
			return Token{}, l.errAtStart("string literal was not terminated", false)
		}

		if b == '\\' {
			l.advance()
			if raw {
				// raw mode: the backslash and the following character pass
				// through verbatim
				out = append(out, '\\')
				if c2, ok := l.peekByte(); ok {
					if !triple && (c2 == '\n' || c2 == '\r') {
						return Token{}, l.errAtStart("string literal was not terminated", false)
					}
					l.advance()
					out = append(out, c2)
				}
				continue
			}
			out = l.decodeEscape(out, isBytes)
			continue
		}

		l.advance()
		out = append(out, b)
	}

	tt := STRING
	if isBytes {
		tt = BYTES
	}
	return l.make(tt, string(out)), nil
}

// decodeEscape consumes one escape sequence (the backslash is already
// consumed) and appends its decoded form to out. Sequences outside the
// decoding table pass through literally, backslash included.
func (l *Lexer) decodeEscape(out []byte, isBytes bool) []byte {
	esc, ok := l.advance()
	if !ok {
		return append(out, '\\')
	}
	switch esc {
	case '\\':
		return append(out, '\\')
	case '"':
		return append(out, '"')
	case '\'':
		return append(out, '\'')
	case '`':
		return append(out, '`')
	case '?':
		return append(out, '?')
	case 'a':
		return append(out, 0x07)
	case 'b':
		return append(out, 0x08)
	case 'f':
		return append(out, 0x0C)
	case 'n':
		return append(out, '\n')
	case 'r':
		return append(out, '\r')
	case 't':
		return append(out, '\t')
	case 'v':
		return append(out, 0x0B)
	case 'x':
		h1, ok1 := l.peekByte()
		h2, ok2 := l.peekByteN(1)
		if !ok1 || !ok2 || !isHex(h1) || !isHex(h2) {
			return append(out, '\\', esc)
		}
		l.advance()
		l.advance()
		v := hexVal(h1)<<4 | hexVal(h2)
		if isBytes {
			return append(out, byte(v))
		}
		return utf8.AppendRune(out, rune(v))
	case 'u':
		return l.decodeUnicodeEscape(out, esc, 4)
	case 'U':
		return l.decodeUnicodeEscape(out, esc, 8)
	case '0', '1', '2', '3':
		o2, ok2 := l.peekByte()
		o3, ok3 := l.peekByteN(1)
		if !ok2 || !ok3 || !isOctal(o2) || !isOctal(o3) {
			return append(out, '\\', esc)
		}
		l.advance()
		l.advance()
		v := int(esc-'0')<<6 | int(o2-'0')<<3 | int(o3-'0')
		if isBytes {
			return append(out, byte(v))
		}
		return utf8.AppendRune(out, rune(v))
	default:
		return append(out, '\\', esc)
	}
}

// decodeUnicodeEscape handles \uHHHH and \UHHHHHHHH. Sequences with too few
// hex digits or an invalid code point pass through literally.
func (l *Lexer) decodeUnicodeEscape(out []byte, esc byte, digits int) []byte {
	v := 0
	for i := 0; i < digits; i++ {
		b, ok := l.peekByteN(i)
		if !ok || !isHex(b) {
			return append(out, '\\', esc)
		}
		v = v<<4 | hexVal(b)
	}
	r := rune(v)
	if r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
		return append(out, '\\', esc)
	}
	for i := 0; i < digits; i++ {
		l.advance()
	}
	return utf8.AppendRune(out, r)
}

// stringPrefix inspects an identifier-leading character for the r/R raw and
// b/B bytes string prefixes. It reports how many prefix letters to consume
// and the flags they set; n is 0 when the characters do not introduce a
// string literal.
func (l *Lexer) stringPrefix(ch byte) (n int, raw, isBytes bool) {
	mark := func(b byte) bool {
		switch b {
		case 'r', 'R':
			if raw {
				return false
			}
			raw = true
			return true
		case 'b', 'B':
			if isBytes {
				return false
			}
			isBytes = true
			return true
		}
		return false
	}
	if !mark(ch) {
		return 0, false, false
	}
	if b, ok := l.peekByte(); ok && (b == '"' || b == '\'') {
		return 1, raw, isBytes
	}
	if b, ok := l.peekByte(); ok && mark(b) {
		if b2, ok2 := l.peekByteN(1); ok2 && (b2 == '"' || b2 == '\'') {
			return 2, raw, isBytes
		}
	}
	return 0, false, false
}

// ----- main scanner -----

func (l *Lexer) scanToken() (Token, error) {
	l.skipWhitespace()
	l.tokLine = l.line
	l.tokCol = l.col
	l.start = l.cur

	if l.isAtEnd() {
		return l.make(EOF, nil), nil
	}

	ch, _ := l.advance()

	// single-char tokens & punctuation
	switch ch {
	case '(':
		return l.make(LROUND, nil), nil
	case ')':
		return l.make(RROUND, nil), nil
	case '[':
		return l.make(LSQUARE, nil), nil
	case ']':
		return l.make(RSQUARE, nil), nil
	case '{':
		return l.make(LCURLY, nil), nil
	case '}':
		return l.make(RCURLY, nil), nil
	case ',':
		return l.make(COMMA, nil), nil
	case ':':
		return l.make(COLON, nil), nil
	case '?':
		return l.make(QUESTION, nil), nil
	case '+':
		return l.make(PLUS, nil), nil
	case '-':
		return l.make(MINUS, nil), nil
	case '*':
		return l.make(MULT, nil), nil
	case '/':
		return l.make(DIV, nil), nil
	case '%':
		return l.make(MOD, nil), nil
	}

	// '.' : either a leading-dot float or PERIOD
	if ch == '.' {
		if b, ok := l.peekByte(); ok && isDigit(b) {
			l.rewindToStart()
			return l.scanNumber()
		}
		return l.make(PERIOD, nil), nil
	}

	// two-char operators
	switch ch {
	case '=':
		if b, ok := l.peekByte(); ok && b == '=' {
			l.advance()
			return l.make(EQ, nil), nil
		}
		return Token{}, l.errAtStart("unexpected character '=' (did you mean '=='?)", false)
	case '!':
		if b, ok := l.peekByte(); ok && b == '=' {
			l.advance()
			return l.make(NEQ, nil), nil
		}
		return l.make(BANG, nil), nil
	case '<':
		if b, ok := l.peekByte(); ok && b == '=' {
			l.advance()
			return l.make(LESS_EQ, nil), nil
		}
		return l.make(LESS, nil), nil
	case '>':
		if b, ok := l.peekByte(); ok && b == '=' {
			l.advance()
			return l.make(GREATER_EQ, nil), nil
		}
		return l.make(GREATER, nil), nil
	case '&':
		if b, ok := l.peekByte(); ok && b == '&' {
			l.advance()
			return l.make(AND, nil), nil
		}
		return Token{}, l.errAtStart("unexpected character '&' (did you mean '&&'?)", false)
	case '|':
		if b, ok := l.peekByte(); ok && b == '|' {
			l.advance()
			return l.make(OR, nil), nil
		}
		return Token{}, l.errAtStart("unexpected character '|' (did you mean '||'?)", false)
	}

	// strings & bytes
	if ch == '"' || ch == '\'' {
		l.rewindToStart()
		return l.scanString(false, false)
	}

	// identifiers, keywords, and prefixed strings
	if isAlpha(ch) {
		if n, raw, isBytes := l.stringPrefix(ch); n > 0 {
			for i := 1; i < n; i++ {
				l.advance()
			}
			return l.scanString(raw, isBytes)
		}
		lex := l.scanIdentifier()
		if tt, ok := keywords[lex]; ok {
			switch tt {
			case NULL:
				return l.make(NULL, nil), nil
			case TRUE:
				return l.make(TRUE, true), nil
			case FALSE:
				return l.make(FALSE, false), nil
			default:
				return l.make(tt, nil), nil
			}
		}
		return l.make(IDENT, lex), nil
	}

	// numbers
	if isDigit(ch) {
		l.rewindToStart()
		return l.scanNumber()
	}

	return Token{}, l.errAtStart(fmt.Sprintf("unexpected character %q", ch), false)
}
