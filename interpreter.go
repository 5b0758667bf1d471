// interpreter.go — the tree-walking evaluator.
//
// OVERVIEW
// ========
// An Interpreter owns a mutable variable environment (name → Value) and a
// function Registry, and walks an AST produced by Parse. Evaluation is a
// single recursive switch over node kinds; there is no bytecode stage and no
// caching between calls.
//
// Scoping is deliberately flat: macros and comprehensions bind their loop and
// accumulator variables directly in the environment, saving whatever the name
// held before and restoring it on the way out (including the error path, via
// defer). Outer bindings shadowed by a loop variable therefore reappear the
// moment the macro finishes.
//
// Concurrency: a single *Interpreter is not safe for concurrent use. Program
// hands each Evaluate call its own Interpreter over a private copy of the
// bindings, which is how concurrent evaluation of one compiled Program stays
// race-free.
//
// Operator semantics (arithmetic, comparison, membership) live in
// interpreter_ops.go.

package libcel

////////////////////////////////////////////////////////////////////////////////
//                                 PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Interpreter evaluates AST nodes against a variable environment and a
// function registry.
type Interpreter struct {
	env map[string]Value
	reg Registry
}

// NewInterpreter returns an interpreter over the given registry and initial
// variable bindings. The bindings map is copied, so later mutation by the
// caller does not leak into the evaluation. A nil registry defaults to
// NewStdRegistry().
func NewInterpreter(reg Registry, bindings map[string]Value) *Interpreter {
	if reg == nil {
		reg = NewStdRegistry()
	}
	env := make(map[string]Value, len(bindings))
	for k, v := range bindings {
		env[k] = v
	}
	return &Interpreter{env: env, reg: reg}
}

// Eval evaluates a node and returns its value. Errors are *EvaluationError
// except for registry failures, which surface as *RegistryError.
func (ip *Interpreter) Eval(n Node) (Value, error) {
	return ip.eval(n)
}

//// END_OF_PUBLIC ////

/* ========================== NODE DISPATCH ========================== */

func (ip *Interpreter) eval(n Node) (Value, error) {
	switch node := n.(type) {
	case *LiteralNode:
		return node.Value, nil
	case *IdentNode:
		v, ok := ip.env[node.Name]
		if !ok {
			return Null, errEvalf("undefined variable %q", node.Name)
		}
		return v, nil
	case *SelectNode:
		return ip.evalSelect(node)
	case *IndexNode:
		return ip.evalIndex(node)
	case *CallNode:
		if node.Macro {
			return ip.evalMacro(node)
		}
		return ip.evalCall(node)
	case *ListNode:
		return ip.evalList(node)
	case *MapNode:
		return ip.evalMap(node)
	case *StructNode:
		return ip.evalStruct(node)
	case *ComprehensionNode:
		return ip.evalComprehension(node)
	case *UnaryNode:
		return ip.evalUnary(node)
	case *BinaryNode:
		return ip.evalBinary(node)
	case *ConditionalNode:
		return ip.evalConditional(node)
	case nil:
		return Null, errEvalf("cannot evaluate an empty expression")
	default:
		return Null, errEvalf("cannot evaluate %s node", n.nodeType())
	}
}

/* ========================== SELECT AND INDEX ========================== */

// evalSelect resolves `operand.field` and the presence form `has(operand.field)`.
// A nil operand means the field is looked up in the variable environment
// itself (the leading-dot form and has(name) both take this path).
func (ip *Interpreter) evalSelect(n *SelectNode) (Value, error) {
	if n.Operand == nil {
		v, ok := ip.env[n.Field]
		if n.Presence {
			return Bool(ok), nil
		}
		if !ok {
			return Null, errEvalf("undefined variable %q", n.Field)
		}
		return v, nil
	}
	target, err := ip.eval(n.Operand)
	if err != nil {
		return Null, err
	}
	switch target.Tag {
	case VTNull:
		if n.Presence {
			return Bool(false), nil
		}
		return Null, errEvalf("cannot select field %q from null", n.Field)
	case VTMap:
		m := target.Data.(*MapValue)
		v, ok := m.Get(Str(n.Field))
		if n.Presence {
			return Bool(ok), nil
		}
		if !ok {
			return Null, errEvalf("no such key %q in map", n.Field)
		}
		return v, nil
	case VTStruct:
		s := target.Data.(*StructValue)
		v, ok := s.Get(n.Field)
		if n.Presence {
			return Bool(ok), nil
		}
		if !ok {
			return Null, errEvalf("no such field %q in struct %s", n.Field, structLabel(s))
		}
		return v, nil
	default:
		return Null, errEvalf("cannot select field %q from %s", n.Field, target.TypeName())
	}
}

func (ip *Interpreter) evalIndex(n *IndexNode) (Value, error) {
	target, err := ip.eval(n.Operand)
	if err != nil {
		return Null, err
	}
	idx, err := ip.eval(n.Index)
	if err != nil {
		return Null, err
	}
	switch target.Tag {
	case VTList:
		xs := target.Data.([]Value)
		i, err := listIndex(idx, len(xs))
		if err != nil {
			return Null, err
		}
		return xs[i], nil
	case VTMap:
		m := target.Data.(*MapValue)
		v, ok := m.Get(idx)
		if !ok {
			return Null, errEvalf("no such key %s in map", FormatValue(idx))
		}
		return v, nil
	case VTStruct:
		if idx.Tag != VTString {
			return Null, errEvalf("struct field name must be a string, got %s", idx.TypeName())
		}
		s := target.Data.(*StructValue)
		name := idx.Data.(string)
		v, ok := s.Get(name)
		if !ok {
			return Null, errEvalf("no such field %q in struct %s", name, structLabel(s))
		}
		return v, nil
	case VTString:
		// rune-wise, so multi-byte text indexes by character
		runes := []rune(target.Data.(string))
		i, err := listIndex(idx, len(runes))
		if err != nil {
			return Null, err
		}
		return Str(string(runes[i])), nil
	case VTBytes:
		b := target.Data.(string)
		i, err := listIndex(idx, len(b))
		if err != nil {
			return Null, err
		}
		return Bytes(b[i : i+1]), nil
	default:
		return Null, errEvalf("type %s is not indexable", target.TypeName())
	}
}

// listIndex validates a numeric index against a length and returns it as an int.
func listIndex(idx Value, length int) (int, error) {
	if !idx.isNumeric() {
		return 0, errEvalf("index must be numeric, got %s", idx.TypeName())
	}
	i := int(idx.num())
	if i < 0 || i >= length {
		return 0, errEvalf("index %d out of range (length %d)", i, length)
	}
	return i, nil
}

func structLabel(s *StructValue) string {
	if s.TypeName == "" {
		return "{}"
	}
	return s.TypeName
}

/* ========================== CALLS AND MACROS ========================== */

// evalCall dispatches a non-macro call through the registry. The target (for
// method calls) evaluates first, then the arguments left to right; any error
// aborts the call before the registry sees it.
func (ip *Interpreter) evalCall(n *CallNode) (Value, error) {
	var target Value
	hasTarget := n.Target != nil
	if hasTarget {
		v, err := ip.eval(n.Target)
		if err != nil {
			return Null, err
		}
		target = v
	}
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := ip.eval(a)
		if err != nil {
			return Null, err
		}
		args = append(args, v)
	}
	if hasTarget {
		v, err := ip.reg.CallMethod(target, n.Name, args)
		return v, wrapRegistryErr(err)
	}
	v, err := ip.reg.CallFunction(n.Name, args)
	return v, wrapRegistryErr(err)
}

// evalMacro runs one of the five collection macros. The loop variable binds
// directly in the environment; restore runs deferred so an outer binding of
// the same name survives even when the body raises.
func (ip *Interpreter) evalMacro(n *CallNode) (Value, error) {
	if len(n.Args) != 2 {
		return Null, errEvalf("macro %s takes a variable and an expression, got %d arguments", n.Name, len(n.Args))
	}
	loopIdent, ok := n.Args[0].(*IdentNode)
	if !ok {
		return Null, errEvalf("macro %s: first argument must be a bare identifier", n.Name)
	}
	target, err := ip.eval(n.Target)
	if err != nil {
		return Null, err
	}
	if target.Tag != VTList {
		return Null, errEvalf("macro %s requires a list target, got %s", n.Name, target.TypeName())
	}
	xs := target.Data.([]Value)
	body := n.Args[1]
	loopVar := loopIdent.Name

	saved, had := ip.env[loopVar]
	defer ip.restore(loopVar, saved, had)

	switch n.Name {
	case "map":
		out := make([]Value, 0, len(xs))
		for _, e := range xs {
			ip.env[loopVar] = e
			v, err := ip.eval(body)
			if err != nil {
				return Null, err
			}
			out = append(out, v)
		}
		return List(out), nil
	case "filter":
		out := make([]Value, 0, len(xs))
		for _, e := range xs {
			ip.env[loopVar] = e
			v, err := ip.eval(body)
			if err != nil {
				return Null, err
			}
			if v.isTrue() {
				out = append(out, e)
			}
		}
		return List(out), nil
	case "all":
		for _, e := range xs {
			ip.env[loopVar] = e
			v, err := ip.eval(body)
			if err != nil {
				return Null, err
			}
			if !v.isTrue() {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	case "exists":
		for _, e := range xs {
			ip.env[loopVar] = e
			v, err := ip.eval(body)
			if err != nil {
				return Null, err
			}
			if v.isTrue() {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case "existsOne":
		count := 0
		for _, e := range xs {
			ip.env[loopVar] = e
			v, err := ip.eval(body)
			if err != nil {
				return Null, err
			}
			if v.isTrue() {
				count++
				if count > 1 {
					return Bool(false), nil
				}
			}
		}
		return Bool(count == 1), nil
	default:
		return Null, errEvalf("unknown macro %s", n.Name)
	}
}

// evalComprehension drives the generic fold form: accumulate Init through
// Step for every range element passing Cond, then evaluate Result with the
// final accumulator bound.
func (ip *Interpreter) evalComprehension(n *ComprehensionNode) (Value, error) {
	rangeVal, err := ip.eval(n.Range)
	if err != nil {
		return Null, err
	}
	if rangeVal.Tag != VTList {
		return Null, errEvalf("comprehension range must be a list, got %s", rangeVal.TypeName())
	}
	accu, err := ip.eval(n.Init)
	if err != nil {
		return Null, err
	}
	xs := rangeVal.Data.([]Value)

	savedLoop, hadLoop := ip.env[n.LoopVar]
	savedAccu, hadAccu := ip.env[n.AccuVar]
	defer ip.restore(n.LoopVar, savedLoop, hadLoop)
	defer ip.restore(n.AccuVar, savedAccu, hadAccu)

	ip.env[n.AccuVar] = accu
	for _, e := range xs {
		ip.env[n.LoopVar] = e
		cond, err := ip.eval(n.Cond)
		if err != nil {
			return Null, err
		}
		if cond.isTrue() {
			step, err := ip.eval(n.Step)
			if err != nil {
				return Null, err
			}
			ip.env[n.AccuVar] = step
		}
	}
	return ip.eval(n.Result)
}

// restore puts a saved binding back, or removes the name if it was unbound.
func (ip *Interpreter) restore(name string, saved Value, had bool) {
	if had {
		ip.env[name] = saved
	} else {
		delete(ip.env, name)
	}
}

/* ========================== LITERAL FORMS ========================== */

func (ip *Interpreter) evalList(n *ListNode) (Value, error) {
	out := make([]Value, 0, len(n.Elements))
	for _, e := range n.Elements {
		v, err := ip.eval(e)
		if err != nil {
			return Null, err
		}
		out = append(out, v)
	}
	return List(out), nil
}

func (ip *Interpreter) evalMap(n *MapNode) (Value, error) {
	m := NewMapValue()
	for i := range n.Keys {
		k, err := ip.eval(n.Keys[i])
		if err != nil {
			return Null, err
		}
		v, err := ip.eval(n.Values[i])
		if err != nil {
			return Null, err
		}
		// duplicate keys keep the last value
		m.Set(k, v)
	}
	return Map(m), nil
}

func (ip *Interpreter) evalStruct(n *StructNode) (Value, error) {
	s := NewStructValue(n.TypeName)
	for i, name := range n.Fields {
		v, err := ip.eval(n.Values[i])
		if err != nil {
			return Null, err
		}
		s.Set(name, v)
	}
	return Struct(s), nil
}

/* ========================== CONTROL FORMS ========================== */

func (ip *Interpreter) evalConditional(n *ConditionalNode) (Value, error) {
	cond, err := ip.eval(n.Cond)
	if err != nil {
		return Null, err
	}
	if cond.Tag != VTBool {
		return Null, errEvalf("conditional expects a boolean condition, got %s", cond.TypeName())
	}
	if cond.Data.(bool) {
		return ip.eval(n.Then)
	}
	return ip.eval(n.Else)
}
