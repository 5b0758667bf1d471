// parser_test.go
package libcel

import (
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func mustParse(t *testing.T, src string) Node {
	t.Helper()
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v\nsource:\n%s", err, src)
	}
	return node
}

func mustParseErr(t *testing.T, src string) error {
	t.Helper()
	node, err := Parse(src)
	if err == nil {
		t.Fatalf("Parse(%q) succeeded with %#v, want error", src, node)
	}
	return err
}

func asBinary(t *testing.T, n Node, op BinaryOp) *BinaryNode {
	t.Helper()
	b, ok := n.(*BinaryNode)
	if !ok {
		t.Fatalf("node is %T, want *BinaryNode", n)
	}
	if b.Op != op {
		t.Fatalf("operator %s, want %s", b.Op, op)
	}
	return b
}

func asIdent(t *testing.T, n Node, name string) {
	t.Helper()
	id, ok := n.(*IdentNode)
	if !ok {
		t.Fatalf("node is %T, want *IdentNode", n)
	}
	if id.Name != name {
		t.Fatalf("identifier %q, want %q", id.Name, name)
	}
}

func asCall(t *testing.T, n Node, name string) *CallNode {
	t.Helper()
	c, ok := n.(*CallNode)
	if !ok {
		t.Fatalf("node is %T, want *CallNode", n)
	}
	if c.Name != name {
		t.Fatalf("call name %q, want %q", c.Name, name)
	}
	return c
}

func asSelect(t *testing.T, n Node, field string) *SelectNode {
	t.Helper()
	s, ok := n.(*SelectNode)
	if !ok {
		t.Fatalf("node is %T, want *SelectNode", n)
	}
	if s.Field != field {
		t.Fatalf("field %q, want %q", s.Field, field)
	}
	return s
}

// --- precedence ------------------------------------------------------------

func Test_Parser_Precedence_MulBindsTighterThanAdd(t *testing.T) {
	root := asBinary(t, mustParse(t, `1 + 2 * 3`), OpAdd)
	asBinary(t, root.Right, OpMul)
}

func Test_Parser_Precedence_AddBindsTighterThanCompare(t *testing.T) {
	root := asBinary(t, mustParse(t, `1 + 2 == 3`), OpEq)
	asBinary(t, root.Left, OpAdd)
}

func Test_Parser_Precedence_AndBindsTighterThanOr(t *testing.T) {
	root := asBinary(t, mustParse(t, `a || b && c`), OpOr)
	asIdent(t, root.Left, "a")
	asBinary(t, root.Right, OpAnd)
}

func Test_Parser_Relational_LeftFold(t *testing.T) {
	// a < b == c groups as (a < b) == c
	root := asBinary(t, mustParse(t, `a < b == c`), OpEq)
	asBinary(t, root.Left, OpLt)
	asIdent(t, root.Right, "c")

	root = asBinary(t, mustParse(t, `a in b in c`), OpIn)
	asBinary(t, root.Left, OpIn)
}

func Test_Parser_Conditional_RightAssociative(t *testing.T) {
	root, ok := mustParse(t, `a ? b : c ? d : e`).(*ConditionalNode)
	if !ok {
		t.Fatalf("root is not a conditional")
	}
	asIdent(t, root.Cond, "a")
	asIdent(t, root.Then, "b")
	nested, ok := root.Else.(*ConditionalNode)
	if !ok {
		t.Fatalf("else branch is %T, want nested conditional", root.Else)
	}
	asIdent(t, nested.Cond, "c")
}

func Test_Parser_Conditional_MiddleNeedsParens(t *testing.T) {
	mustParseErr(t, `a ? b ? c : d : e`)
	root, ok := mustParse(t, `a ? (b ? c : d) : e`).(*ConditionalNode)
	if !ok || root == nil {
		t.Fatalf("parenthesized middle should parse")
	}
}

func Test_Parser_Unary_Repeatable(t *testing.T) {
	outer, ok := mustParse(t, `!!ok`).(*UnaryNode)
	if !ok || outer.Op != OpNot {
		t.Fatalf("outer node %#v", outer)
	}
	inner, ok := outer.Operand.(*UnaryNode)
	if !ok || inner.Op != OpNot {
		t.Fatalf("inner node %#v", inner)
	}
	asIdent(t, inner.Operand, "ok")

	neg, ok := mustParse(t, `--x`).(*UnaryNode)
	if !ok || neg.Op != OpNegate {
		t.Fatalf("negation node %#v", neg)
	}
}

func Test_Parser_Parentheses_Group(t *testing.T) {
	root := asBinary(t, mustParse(t, `(1 + 2) * 3`), OpMul)
	asBinary(t, root.Left, OpAdd)
}

// --- postfix ---------------------------------------------------------------

func Test_Parser_Postfix_Chain(t *testing.T) {
	// a.b[0].c(1).d
	root := asSelect(t, mustParse(t, `a.b[0].c(1).d`), "d")
	call, ok := root.Operand.(*CallNode)
	if !ok || call.Name != "c" || len(call.Args) != 1 {
		t.Fatalf("call link = %#v", root.Operand)
	}
	idx, ok := call.Target.(*IndexNode)
	if !ok {
		t.Fatalf("index link = %#v", call.Target)
	}
	sel := asSelect(t, idx.Operand, "b")
	asIdent(t, sel.Operand, "a")
}

func Test_Parser_MethodCall_HasTarget(t *testing.T) {
	c := asCall(t, mustParse(t, `s.contains("x")`), "contains")
	if c.Target == nil {
		t.Fatalf("method call lost its target")
	}
	if c.Macro {
		t.Fatalf("contains is not a macro")
	}
}

func Test_Parser_FreeCall_HasNoTarget(t *testing.T) {
	c := asCall(t, mustParse(t, `size(xs)`), "size")
	if c.Target != nil {
		t.Fatalf("free call has a target: %#v", c.Target)
	}
}

// --- macros ----------------------------------------------------------------

func Test_Parser_Macro_MarkedInMethodPosition(t *testing.T) {
	for _, name := range []string{"map", "filter", "all", "exists", "existsOne"} {
		c := asCall(t, mustParse(t, `xs.`+name+`(x, x)`), name)
		if !c.Macro {
			t.Fatalf("%s in method position not marked as macro", name)
		}
	}
}

func Test_Parser_Macro_FreeCallIsNotMacro(t *testing.T) {
	c := asCall(t, mustParse(t, `map(x, y)`), "map")
	if c.Macro {
		t.Fatalf("free map() wrongly marked as macro")
	}
}

func Test_Parser_Macro_OtherMethodsNotMarked(t *testing.T) {
	c := asCall(t, mustParse(t, `xs.mapping(x, y)`), "mapping")
	if c.Macro {
		t.Fatalf("mapping wrongly marked as macro")
	}
}

// --- has() -----------------------------------------------------------------

func Test_Parser_Has_BecomesPresenceSelect(t *testing.T) {
	sel := asSelect(t, mustParse(t, `has(a.b)`), "b")
	if !sel.Presence {
		t.Fatalf("presence flag not set")
	}
	asIdent(t, sel.Operand, "a")

	// chains transform only the outermost selection
	outer := asSelect(t, mustParse(t, `has(a.b.c)`), "c")
	if !outer.Presence {
		t.Fatalf("presence flag not set on chain")
	}
	inner := asSelect(t, outer.Operand, "b")
	if inner.Presence {
		t.Fatalf("inner selection must stay a plain select")
	}
}

func Test_Parser_Has_OtherShapesStayCalls(t *testing.T) {
	for _, src := range []string{`has(a)`, `has(a[0])`, `has(a.b, c)`, `has()`} {
		c, ok := mustParse(t, src).(*CallNode)
		if !ok {
			t.Fatalf("%s: node is not a call", src)
		}
		if c.Name != "has" {
			t.Fatalf("%s: call name %q", src, c.Name)
		}
	}
}

// --- literals --------------------------------------------------------------

func Test_Parser_ListLiteral(t *testing.T) {
	l, ok := mustParse(t, `[1, 2, 3,]`).(*ListNode)
	if !ok || len(l.Elements) != 3 {
		t.Fatalf("list = %#v", l)
	}
	empty, ok := mustParse(t, `[]`).(*ListNode)
	if !ok || len(empty.Elements) != 0 {
		t.Fatalf("empty list = %#v", empty)
	}
	mustParseErr(t, `[,]`)
}

func Test_Parser_EmptyBraces_AreAMap(t *testing.T) {
	m, ok := mustParse(t, `{}`).(*MapNode)
	if !ok || len(m.Keys) != 0 {
		t.Fatalf("empty braces = %#v", m)
	}
}

func Test_Parser_MapLiteral_ExpressionKeys(t *testing.T) {
	m, ok := mustParse(t, `{"a": 1, "b": 2,}`).(*MapNode)
	if !ok || len(m.Keys) != 2 {
		t.Fatalf("map = %#v", m)
	}
}

func Test_Parser_StructLiteral_Untyped(t *testing.T) {
	s, ok := mustParse(t, `{a: 1, b: 2}`).(*StructNode)
	if !ok {
		t.Fatalf("identifier-keyed braces should be a struct")
	}
	if s.TypeName != "" {
		t.Fatalf("untyped struct has type name %q", s.TypeName)
	}
	if len(s.Fields) != 2 || s.Fields[0] != "a" || s.Fields[1] != "b" {
		t.Fatalf("fields = %v", s.Fields)
	}
}

func Test_Parser_StructLiteral_Typed(t *testing.T) {
	s, ok := mustParse(t, `Person{name: "Ada", age: 36,}`).(*StructNode)
	if !ok || s.TypeName != "Person" {
		t.Fatalf("struct = %#v", s)
	}
	empty, ok := mustParse(t, `Person{}`).(*StructNode)
	if !ok || empty.TypeName != "Person" || len(empty.Fields) != 0 {
		t.Fatalf("empty typed struct = %#v", empty)
	}
}

func Test_Parser_StructLiteral_QualifiedTypeName(t *testing.T) {
	s, ok := mustParse(t, `pkg.sub.Person{name: "Ada"}`).(*StructNode)
	if !ok || s.TypeName != "pkg.sub.Person" {
		t.Fatalf("struct = %#v", s)
	}
}

func Test_Parser_QualifiedName_WithoutBrace_IsSelect(t *testing.T) {
	sel := asSelect(t, mustParse(t, `pkg.sub.value`), "value")
	inner := asSelect(t, sel.Operand, "sub")
	asIdent(t, inner.Operand, "pkg")
}

func Test_Parser_StructLiteral_RejectsNonIdentifierFields(t *testing.T) {
	mustParseErr(t, `{a: 1, "b": 2}`)
}

func Test_Parser_CallArgs_NoTrailingComma(t *testing.T) {
	mustParseErr(t, `f(1, 2,)`)
}

func Test_Parser_LeadingDot(t *testing.T) {
	sel := asSelect(t, mustParse(t, `.name`), "name")
	if sel.Operand != nil {
		t.Fatalf("leading-dot select has an operand: %#v", sel.Operand)
	}
	c := asCall(t, mustParse(t, `.f(1)`), "f")
	if c.Target != nil || len(c.Args) != 1 {
		t.Fatalf("leading-dot call = %#v", c)
	}
}

// --- errors ----------------------------------------------------------------

func Test_Parser_Errors_IncompleteAtEndOfInput(t *testing.T) {
	for _, src := range []string{`(1 + 2`, `[1, 2`, `{"a": 1`, `a &&`, `1 +`, `x ? y`, `a.`} {
		err := mustParseErr(t, src)
		if !IsIncomplete(err) {
			t.Fatalf("%q: error not marked incomplete: %v", src, err)
		}
	}
}

func Test_Parser_Errors_CompleteInputNotIncomplete(t *testing.T) {
	for _, src := range []string{`)`, `1 2`, `f(1, 2,)`, `a ? b ? c : d : e`} {
		err := mustParseErr(t, src)
		if IsIncomplete(err) {
			t.Fatalf("%q: error wrongly marked incomplete: %v", src, err)
		}
	}
}

func Test_Parser_Errors_ArePositioned(t *testing.T) {
	err := mustParseErr(t, `1 + + 2`)
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("error %T, want *SyntaxError", err)
	}
	if se.Line != 1 || se.Col != 5 {
		t.Fatalf("error at %d:%d, want 1:5", se.Line, se.Col)
	}
	if !strings.Contains(err.Error(), "SYNTAX ERROR at 1:5") {
		t.Fatalf("rendered error = %q", err.Error())
	}
}

func Test_Parser_Errors_TrailingTokens(t *testing.T) {
	err := mustParseErr(t, `1 + 2 extra`)
	if !strings.Contains(err.Error(), "after expression") {
		t.Fatalf("error = %v", err)
	}
}
