// interpreter_ops.go — operator semantics for the evaluator.
//
// This file:
//  - Implements unary `!` and `-`.
//  - Implements the binary operators: short-circuit `&&`/`||`, arithmetic
//    with mixed numeric tags, total-order comparisons, equality, and `in`
//    membership across lists, maps, structs, and strings.
//  - Owns the numeric result-tag rule: an operation touching a double yields
//    a double, unsigned op unsigned stays unsigned, everything else is int.
//    Division is the exception and always yields a double.
//
// Node dispatch and the collection forms are in interpreter.go.

package libcel

import (
	"math"
	"strings"
)

/* ========================== UNARY OPERATORS ========================== */

func (ip *Interpreter) evalUnary(n *UnaryNode) (Value, error) {
	v, err := ip.eval(n.Operand)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case OpNot:
		if v.Tag != VTBool {
			return Null, errEvalf("operator '!' expects a boolean, got %s", v.TypeName())
		}
		return Bool(!v.Data.(bool)), nil
	case OpNegate:
		if !v.isNumeric() {
			return Null, errEvalf("operator '-' expects a number, got %s", v.TypeName())
		}
		if v.Tag == VTDouble {
			return Double(-v.num()), nil
		}
		// negating an unsigned value lands in signed territory
		return intVal(-v.num(), VTInt), nil
	default:
		return Null, errEvalf("unknown unary operator %s", n.Op)
	}
}

/* ========================== BINARY OPERATORS ========================== */

func (ip *Interpreter) evalBinary(n *BinaryNode) (Value, error) {
	if n.Op == OpAnd || n.Op == OpOr {
		return ip.evalLogical(n)
	}
	left, err := ip.eval(n.Left)
	if err != nil {
		return Null, err
	}
	right, err := ip.eval(n.Right)
	if err != nil {
		return Null, err
	}
	switch n.Op {
	case OpAdd:
		return evalAdd(left, right)
	case OpSub:
		if !left.isNumeric() || !right.isNumeric() {
			return Null, errEvalf("operator '-' expects numbers, got %s and %s", left.TypeName(), right.TypeName())
		}
		return numResult(left, right, left.num()-right.num()), nil
	case OpMul:
		return evalMul(left, right)
	case OpDiv:
		return evalDiv(left, right)
	case OpMod:
		return evalMod(left, right)
	case OpEq:
		return Bool(Equal(left, right)), nil
	case OpNe:
		return Bool(!Equal(left, right)), nil
	case OpLt, OpLe, OpGt, OpGe:
		return evalOrdered(n.Op, left, right)
	case OpIn:
		return evalIn(left, right)
	default:
		return Null, errEvalf("unknown binary operator %s", n.Op)
	}
}

// evalLogical short-circuits: the right operand is untouched when the left
// already decides the result. Both operands must be booleans.
func (ip *Interpreter) evalLogical(n *BinaryNode) (Value, error) {
	left, err := ip.eval(n.Left)
	if err != nil {
		return Null, err
	}
	if left.Tag != VTBool {
		return Null, errEvalf("operator '%s' expects boolean operands, got %s", n.Op, left.TypeName())
	}
	lb := left.Data.(bool)
	if n.Op == OpAnd && !lb {
		return Bool(false), nil
	}
	if n.Op == OpOr && lb {
		return Bool(true), nil
	}
	right, err := ip.eval(n.Right)
	if err != nil {
		return Null, err
	}
	if right.Tag != VTBool {
		return Null, errEvalf("operator '%s' expects boolean operands, got %s", n.Op, right.TypeName())
	}
	return Bool(right.Data.(bool)), nil
}

/* ========================== ARITHMETIC ========================== */

// numResult applies the result-tag rule to a computed numeric value.
func numResult(a, b Value, f float64) Value {
	if a.Tag == VTDouble || b.Tag == VTDouble {
		return Double(f)
	}
	if a.Tag == VTUint && b.Tag == VTUint {
		return intVal(f, VTUint)
	}
	return intVal(f, VTInt)
}

// evalAdd handles numeric addition, string concatenation (either side a
// string pulls the other in via its plain text form), and list concatenation.
func evalAdd(a, b Value) (Value, error) {
	if a.Tag == VTString || b.Tag == VTString {
		return Str(plainString(a) + plainString(b)), nil
	}
	if a.Tag == VTList && b.Tag == VTList {
		xs := a.Data.([]Value)
		ys := b.Data.([]Value)
		out := make([]Value, 0, len(xs)+len(ys))
		out = append(out, xs...)
		out = append(out, ys...)
		return List(out), nil
	}
	if a.Tag == VTBytes && b.Tag == VTBytes {
		return Bytes(a.Data.(string) + b.Data.(string)), nil
	}
	if a.isNumeric() && b.isNumeric() {
		return numResult(a, b, a.num()+b.num()), nil
	}
	return Null, errEvalf("cannot add %s and %s", a.TypeName(), b.TypeName())
}

// evalMul handles numeric multiplication plus string and list repetition,
// with the repeat count on either side.
func evalMul(a, b Value) (Value, error) {
	if a.isNumeric() && b.isNumeric() {
		return numResult(a, b, a.num()*b.num()), nil
	}
	if a.Tag == VTString && b.isNumeric() {
		return repeatString(a.Data.(string), b)
	}
	if b.Tag == VTString && a.isNumeric() {
		return repeatString(b.Data.(string), a)
	}
	if a.Tag == VTList && b.isNumeric() {
		return repeatList(a.Data.([]Value), b)
	}
	if b.Tag == VTList && a.isNumeric() {
		return repeatList(b.Data.([]Value), a)
	}
	return Null, errEvalf("cannot multiply %s and %s", a.TypeName(), b.TypeName())
}

func repeatCount(v Value) (int, error) {
	n := int(v.num())
	if n < 0 {
		return 0, errEvalf("repeat count must not be negative, got %d", n)
	}
	return n, nil
}

func repeatString(s string, count Value) (Value, error) {
	n, err := repeatCount(count)
	if err != nil {
		return Null, err
	}
	return Str(strings.Repeat(s, n)), nil
}

func repeatList(xs []Value, count Value) (Value, error) {
	n, err := repeatCount(count)
	if err != nil {
		return Null, err
	}
	out := make([]Value, 0, len(xs)*n)
	for i := 0; i < n; i++ {
		out = append(out, xs...)
	}
	return List(out), nil
}

// evalDiv always produces a double, so 10 / 2 is 5.0 rather than 5.
func evalDiv(a, b Value) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Null, errEvalf("operator '/' expects numbers, got %s and %s", a.TypeName(), b.TypeName())
	}
	if b.num() == 0 {
		return Null, errEvalf("division by zero")
	}
	return Double(a.num() / b.num()), nil
}

func evalMod(a, b Value) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Null, errEvalf("operator '%%' expects numbers, got %s and %s", a.TypeName(), b.TypeName())
	}
	if b.num() == 0 {
		return Null, errEvalf("modulo by zero")
	}
	return numResult(a, b, math.Mod(a.num(), b.num())), nil
}

/* ========================== COMPARISONS ========================== */

// evalOrdered answers <, <=, >, >= through the total order in Compare.
// Incomparable pairs raise an evaluation error.
func evalOrdered(op BinaryOp, a, b Value) (Value, error) {
	c, err := Compare(a, b)
	if err != nil {
		return Null, errEvalf("%s", err)
	}
	switch op {
	case OpLt:
		return Bool(c < 0), nil
	case OpLe:
		return Bool(c <= 0), nil
	case OpGt:
		return Bool(c > 0), nil
	default:
		return Bool(c >= 0), nil
	}
}

/* ========================== MEMBERSHIP ========================== */

// evalIn searches the right operand for the left. Lists compare elements by
// deep equality, maps test keys, structs test field names, and strings test
// substring containment.
func evalIn(a, b Value) (Value, error) {
	switch b.Tag {
	case VTList:
		for _, e := range b.Data.([]Value) {
			if Equal(a, e) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case VTMap:
		return Bool(b.Data.(*MapValue).Has(a)), nil
	case VTStruct:
		if a.Tag != VTString {
			return Bool(false), nil
		}
		return Bool(b.Data.(*StructValue).Has(a.Data.(string))), nil
	case VTString:
		if a.Tag != VTString {
			return Null, errEvalf("operator 'in' on a string expects a string left operand, got %s", a.TypeName())
		}
		return Bool(strings.Contains(b.Data.(string), a.Data.(string))), nil
	default:
		return Null, errEvalf("operator 'in' cannot search a %s", b.TypeName())
	}
}
