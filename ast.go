// ast.go: immutable expression tree built by the parser.
//
// Nodes form a closed set; the interpreter switches over them exhaustively.
// A node is never mutated after construction and every child belongs to
// exactly one parent, so a parsed tree can be shared freely across
// concurrent evaluations.
package libcel

// Node is the interface for all expression AST nodes.
type Node interface {
	nodeType() string
}

// UnaryOp identifies a prefix operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota // !x
	OpNegate             // -x
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNegate:
		return "-"
	default:
		return "?"
	}
}

// BinaryOp identifies an infix operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpAnd
	OpOr
)

var binaryOpNames = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpIn:  "in",
	OpAnd: "&&",
	OpOr:  "||",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// LiteralNode represents a literal value; the literal kind travels on the
// Value tag (null, bool, int, uint, double, string, bytes).
type LiteralNode struct {
	Value Value
}

func (n *LiteralNode) nodeType() string { return "Literal" }

// IdentNode represents a variable reference.
type IdentNode struct {
	Name string
}

func (n *IdentNode) nodeType() string { return "Ident" }

// SelectNode represents field access (e.g., msg.sender). A nil Operand
// selects against the top-level bindings (leading-dot form). When Presence
// is set the node is a presence test: absence of the field yields false
// instead of an error.
type SelectNode struct {
	Operand  Node
	Field    string
	Presence bool
}

func (n *SelectNode) nodeType() string { return "Select" }

// IndexNode represents index access (e.g., list[0], map["key"]).
type IndexNode struct {
	Operand Node
	Index   Node
}

func (n *IndexNode) nodeType() string { return "Index" }

// CallNode represents a function or method call. A nil Target is a free
// function call; otherwise the call dispatches as a method on the evaluated
// target. Macro marks the five iteration macros (map, filter, all, exists,
// existsOne), whose arguments are not evaluated eagerly.
type CallNode struct {
	Target Node
	Name   string
	Args   []Node
	Macro  bool
}

func (n *CallNode) nodeType() string { return "Call" }

// ListNode represents a list literal (e.g., [1, 2, 3]).
type ListNode struct {
	Elements []Node
}

func (n *ListNode) nodeType() string { return "List" }

// MapNode represents a map literal (e.g., {"key": "value"}). Keys are
// arbitrary expressions; Keys and Values run in parallel.
type MapNode struct {
	Keys   []Node
	Values []Node
}

func (n *MapNode) nodeType() string { return "Map" }

// StructNode represents a struct literal (e.g., Person{name: "Ada"}).
// TypeName is empty for the untyped form {name: "Ada"}. Fields and Values
// run in parallel.
type StructNode struct {
	TypeName string
	Fields   []string
	Values   []Node
}

func (n *StructNode) nodeType() string { return "Struct" }

// ComprehensionNode is the generalized fold the iteration macros
// specialize: it evaluates Init into an accumulator named AccuVar, then for
// each element of Range rebinds LoopVar, evaluates Cond, and recomputes the
// accumulator via Step whenever Cond is exactly true; Result is evaluated
// last against the final accumulator. The grammar produces no
// ComprehensionNode directly; hosts can construct one to evaluate custom
// folds over the same scoping rules as the macros.
type ComprehensionNode struct {
	LoopVar string
	Range   Node
	AccuVar string
	Init    Node
	Cond    Node
	Step    Node
	Result  Node
}

func (n *ComprehensionNode) nodeType() string { return "Comprehension" }

// UnaryNode represents a prefix operation (e.g., -x, !ok).
type UnaryNode struct {
	Op      UnaryOp
	Operand Node
}

func (n *UnaryNode) nodeType() string { return "Unary" }

// BinaryNode represents an infix operation (e.g., a + b, x == y, a && b).
type BinaryNode struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (n *BinaryNode) nodeType() string { return "Binary" }

// ConditionalNode represents the ternary form cond ? then : else. Only the
// selected branch is evaluated.
type ConditionalNode struct {
	Cond Node
	Then Node
	Else Node
}

func (n *ConditionalNode) nodeType() string { return "Conditional" }
