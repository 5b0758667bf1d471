// parser.go — recursive-descent parser producing the immutable AST.
//
// OVERVIEW
// --------
// This module implements the precedence-climbing parser for the expression
// language. It pulls tokens on demand from the lexer (see lexer.go) and
// builds the Node tree defined in ast.go in a single pass. On any grammar
// violation it raises a positioned *SyntaxError and returns no partial
// tree.
//
// Precedence, low to high:
//
//	conditional  ?:            right-associative
//	logical or   ||
//	logical and  &&
//	relational   < <= > >= == != in   left-fold, non-chaining
//	additive     + -
//	multiplicative * / %
//	unary        ! -           prefix, repeatable
//	postfix      .field  .method(args)  [index]
//	primary      literal, identifier, (expr), [list], {map/struct},
//	             Type{...}, leading-dot select/call
//
// Disambiguation handled here:
//   - a method call whose name is one of map/filter/all/exists/existsOne is
//     marked as a macro; argument shape is validated at evaluation time.
//   - inside '{...}', a first entry of the form `ident :` makes the literal
//     an untyped struct; anything else (including an empty body) makes it a
//     map. A type name before the brace always makes it a struct.
//   - a dotted identifier chain ending in '{' is a qualified struct type
//     name (a.b.C{...}); the chain is confirmed through the lexer's
//     lookahead queue before anything is consumed.
//   - list, map, and struct literals allow one optional trailing comma.
//   - has(e.f) collapses into the selection with its presence flag set;
//     any other has(...) argument shape stays an ordinary registry call.
//
// Dependencies
// ------------
//   - lexer.go (Token stream via Next/Peek)
//   - ast.go (node types)
//   - errors.go (*SyntaxError, incomplete marking)
package libcel

import (
	"fmt"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Parse parses a complete expression and returns its AST root. Trailing
// tokens after a well-formed expression are a syntax error.
func Parse(src string) (Node, error) {
	p := &parser{lx: NewLexer(src)}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	tok, err := p.lx.Next()
	if err != nil {
		return nil, err
	}
	if tok.Type != EOF {
		return nil, p.errAt(tok, fmt.Sprintf("unexpected %s after expression", tok.describe()))
	}
	return node, nil
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
///////////////////////////// PRIVATE IMPLEMENTATION ///////////////////////////
////////////////////////////////////////////////////////////////////////////////

// macroNames are the call names recognized as iteration macros when they
// appear in method position.
var macroNames = map[string]bool{
	"map":       true,
	"filter":    true,
	"all":       true,
	"exists":    true,
	"existsOne": true,
}

type parser struct {
	lx *Lexer
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) peek() (Token, error)       { return p.lx.Peek(1) }
func (p *parser) peekN(n int) (Token, error) { return p.lx.Peek(n) }
func (p *parser) advance() (Token, error)    { return p.lx.Next() }

// accept consumes the upcoming token when it has kind tt.
func (p *parser) accept(tt TokenType) (bool, error) {
	tok, err := p.lx.Peek(1)
	if err != nil {
		return false, err
	}
	if tok.Type != tt {
		return false, nil
	}
	_, err = p.lx.Next()
	return true, err
}

// need consumes the upcoming token, failing with a positioned error unless
// it has kind tt.
func (p *parser) need(tt TokenType, msg string) (Token, error) {
	tok, err := p.lx.Peek(1)
	if err != nil {
		return Token{}, err
	}
	if tok.Type != tt {
		return Token{}, p.errAt(tok, fmt.Sprintf("%s, found %s", msg, tok.describe()))
	}
	return p.lx.Next()
}

// errAt builds a positioned syntax error. Errors raised at end of input are
// marked incomplete so interactive callers can prompt for continuation.
func (p *parser) errAt(tok Token, msg string) error {
	return &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: msg, incomplete: tok.Type == EOF}
}

// ─────────────────────────────── precedence ladder ──────────────────────────

func (p *parser) parseExpr() (Node, error) { return p.parseConditional() }

// conditional: or ('?' or ':' conditional)?   right-associative; the middle
// operand binds at the or level, so a nested ternary there needs parens.
func (p *parser) parseConditional() (Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	ok, err := p.accept(QUESTION)
	if err != nil {
		return nil, err
	}
	if !ok {
		return cond, nil
	}
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "expected ':' in conditional expression"); err != nil {
		return nil, err
	}
	els, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &ConditionalNode{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.accept(OR)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: OpOr, Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.accept(AND)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: OpAnd, Left: left, Right: right}
	}
}

var relationOps = map[TokenType]BinaryOp{
	LESS:       OpLt,
	LESS_EQ:    OpLe,
	GREATER:    OpGt,
	GREATER_EQ: OpGe,
	EQ:         OpEq,
	NEQ:        OpNe,
	IN:         OpIn,
}

func (p *parser) parseRelation() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		op, ok := relationOps[tok.Type]
		if !ok {
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op BinaryOp
		switch tok.Type {
		case PLUS:
			op = OpAdd
		case MINUS:
			op = OpSub
		default:
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op BinaryOp
		switch tok.Type {
		case MULT:
			op = OpMul
		case DIV:
			op = OpDiv
		case MOD:
			op = OpMod
		default:
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case BANG:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: OpNot, Operand: operand}, nil
	case MINUS:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: OpNegate, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// ─────────────────────────────── postfix & primary ──────────────────────────

func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case PERIOD:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.need(IDENT, "expected field or method name after '.'")
			if err != nil {
				return nil, err
			}
			isCall, err := p.accept(LROUND)
			if err != nil {
				return nil, err
			}
			if isCall {
				args, err := p.parseCallArgs()
				if err != nil {
					return nil, err
				}
				node = &CallNode{
					Target: node,
					Name:   name.Lexeme,
					Args:   args,
					Macro:  macroNames[name.Lexeme],
				}
			} else {
				node = &SelectNode{Operand: node, Field: name.Lexeme}
			}
		case LSQUARE:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RSQUARE, "expected ']' after index expression"); err != nil {
				return nil, err
			}
			node = &IndexNode{Operand: node, Index: idx}
		default:
			return node, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case INT:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: intVal(tok.Literal.(float64), VTInt)}, nil
	case UINT:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: intVal(tok.Literal.(float64), VTUint)}, nil
	case DOUBLE:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: Double(tok.Literal.(float64))}, nil
	case STRING:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: Str(tok.Literal.(string))}, nil
	case BYTES:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: Bytes(tok.Literal.(string))}, nil
	case TRUE:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: Bool(true)}, nil
	case FALSE:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: Bool(false)}, nil
	case NULL:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralNode{Value: Null}, nil

	case IDENT:
		return p.parseIdentLed(tok)

	case LROUND:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND, "expected ')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case LSQUARE:
		return p.parseListLiteral()

	case LCURLY:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseBraceBody("", false)

	case PERIOD:
		// leading-dot selection or call against the top-level bindings
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.need(IDENT, "expected identifier after leading '.'")
		if err != nil {
			return nil, err
		}
		isCall, err := p.accept(LROUND)
		if err != nil {
			return nil, err
		}
		if isCall {
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return &CallNode{Name: name.Lexeme, Args: args}, nil
		}
		return &SelectNode{Field: name.Lexeme}, nil

	case EOF:
		return nil, p.errAt(tok, "unexpected end of input, expected an expression")
	default:
		return nil, p.errAt(tok, fmt.Sprintf("unexpected %s, expected an expression", tok.describe()))
	}
}

// parseIdentLed handles the three identifier-led primaries: a qualified
// struct literal (a.b.C{...}), a free function call, or a plain reference.
func (p *parser) parseIdentLed(tok Token) (Node, error) {
	typeName, chainLen, isStruct, err := p.structTypeNameAhead()
	if err != nil {
		return nil, err
	}
	if isStruct {
		for i := 0; i < chainLen; i++ {
			if _, err := p.advance(); err != nil {
				return nil, err
			}
		}
		if _, err := p.advance(); err != nil { // '{'
			return nil, err
		}
		return p.parseBraceBody(typeName, true)
	}

	nxt, err := p.peekN(2)
	if err != nil {
		return nil, err
	}
	if nxt.Type == LROUND {
		if _, err := p.advance(); err != nil { // identifier
			return nil, err
		}
		if _, err := p.advance(); err != nil { // '('
			return nil, err
		}
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		// has(e.f) is the presence-test form of the selection
		if tok.Lexeme == "has" && len(args) == 1 {
			if sel, ok := args[0].(*SelectNode); ok && !sel.Presence {
				return &SelectNode{Operand: sel.Operand, Field: sel.Field, Presence: true}, nil
			}
		}
		return &CallNode{Name: tok.Lexeme, Args: args}, nil
	}

	if _, err := p.advance(); err != nil {
		return nil, err
	}
	return &IdentNode{Name: tok.Lexeme}, nil
}

// structTypeNameAhead scans the lookahead queue for IDENT ('.' IDENT)* '{'.
// It reports the dotted type name and how many tokens the chain spans
// (excluding the '{'); nothing is consumed.
func (p *parser) structTypeNameAhead() (string, int, bool, error) {
	first, err := p.peekN(1)
	if err != nil {
		return "", 0, false, err
	}
	parts := []string{first.Lexeme}
	n := 2
	for {
		t, err := p.peekN(n)
		if err != nil {
			return "", 0, false, err
		}
		if t.Type == LCURLY {
			return strings.Join(parts, "."), n - 1, true, nil
		}
		if t.Type != PERIOD {
			return "", 0, false, nil
		}
		id, err := p.peekN(n + 1)
		if err != nil {
			return "", 0, false, err
		}
		if id.Type != IDENT {
			return "", 0, false, nil
		}
		parts = append(parts, id.Lexeme)
		n += 2
	}
}

// parseCallArgs parses a comma-separated argument list; the '(' is already
// consumed. Call argument lists take no trailing comma.
func (p *parser) parseCallArgs() ([]Node, error) {
	ok, err := p.accept(RROUND)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	var args []Node
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		more, err := p.accept(COMMA)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	if _, err := p.need(RROUND, "expected ')' after call arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseListLiteral parses '[' elements? ']' with one optional trailing
// comma.
func (p *parser) parseListLiteral() (Node, error) {
	if _, err := p.advance(); err != nil { // '['
		return nil, err
	}
	var elems []Node
	for {
		done, err := p.accept(RSQUARE)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		more, err := p.accept(COMMA)
		if err != nil {
			return nil, err
		}
		if more {
			continue
		}
		if _, err := p.need(RSQUARE, "expected ']' or ',' in list literal"); err != nil {
			return nil, err
		}
		break
	}
	return &ListNode{Elements: elems}, nil
}

// parseBraceBody parses the body after '{' has been consumed. With a type
// name the literal is always a struct. Otherwise a first entry of the form
// `ident :` selects the untyped struct form, and anything else (including
// an empty body) selects the map form.
func (p *parser) parseBraceBody(typeName string, typed bool) (Node, error) {
	structForm := typed
	if !typed {
		t1, err := p.peekN(1)
		if err != nil {
			return nil, err
		}
		t2, err := p.peekN(2)
		if err != nil {
			return nil, err
		}
		structForm = t1.Type == IDENT && t2.Type == COLON
	}

	if structForm {
		var fields []string
		var values []Node
		for {
			done, err := p.accept(RCURLY)
			if err != nil {
				return nil, err
			}
			if done {
				break
			}
			name, err := p.need(IDENT, "expected field name in struct literal")
			if err != nil {
				return nil, err
			}
			if _, err := p.need(COLON, "expected ':' after field name"); err != nil {
				return nil, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, name.Lexeme)
			values = append(values, v)
			more, err := p.accept(COMMA)
			if err != nil {
				return nil, err
			}
			if more {
				continue
			}
			if _, err := p.need(RCURLY, "expected '}' or ',' in struct literal"); err != nil {
				return nil, err
			}
			break
		}
		return &StructNode{TypeName: typeName, Fields: fields, Values: values}, nil
	}

	var keys []Node
	var values []Node
	for {
		done, err := p.accept(RCURLY)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(COLON, "expected ':' after map key"); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		values = append(values, v)
		more, err := p.accept(COMMA)
		if err != nil {
			return nil, err
		}
		if more {
			continue
		}
		if _, err := p.need(RCURLY, "expected '}' or ',' in map literal"); err != nil {
			return nil, err
		}
		break
	}
	return &MapNode{Keys: keys, Values: values}, nil
}
