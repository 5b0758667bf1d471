package libcel

import (
	"strings"
	"testing"
)

// Registry-level tests for the string builtins; the same methods are
// exercised through full expressions in interpreter_test.go.

func callStr(t *testing.T, target Value, name string, args ...Value) Value {
	t.Helper()
	v, err := NewStdRegistry().CallMethod(target, name, args)
	if err != nil {
		t.Fatalf("%s.%s(...): %v", FormatValue(target), name, err)
	}
	return v
}

func callStrErr(t *testing.T, target Value, name string, args ...Value) error {
	t.Helper()
	v, err := NewStdRegistry().CallMethod(target, name, args)
	if err == nil {
		t.Fatalf("%s.%s(...) = %s, want error", FormatValue(target), name, FormatValue(v))
	}
	return err
}

func Test_Builtin_Strings_Predicates(t *testing.T) {
	wantEq(t, callStr(t, Str("hello"), "contains", Str("ell")), Bool(true))
	wantEq(t, callStr(t, Str("hello"), "contains", Str("elk")), Bool(false))
	wantEq(t, callStr(t, Str("hello"), "startsWith", Str("he")), Bool(true))
	wantEq(t, callStr(t, Str("hello"), "startsWith", Str("lo")), Bool(false))
	wantEq(t, callStr(t, Str("hello"), "endsWith", Str("lo")), Bool(true))
	wantEq(t, callStr(t, Str("hello"), "endsWith", Str("he")), Bool(false))
	wantEq(t, callStr(t, Str(""), "contains", Str("")), Bool(true))
}

func Test_Builtin_Strings_PredicateShapes(t *testing.T) {
	// non-string receivers and arguments are the registry's errors to raise
	callStrErr(t, Int(5), "contains", Str("x"))
	callStrErr(t, Str("x"), "contains", Int(5))
	callStrErr(t, Str("x"), "contains")
	callStrErr(t, Str("x"), "contains", Str("a"), Str("b"))
	callStrErr(t, Bytes("x"), "startsWith", Str("x"))
}

func Test_Builtin_Strings_CaseAndTrim(t *testing.T) {
	wantEq(t, callStr(t, Str("HeLLo"), "toLower"), Str("hello"))
	wantEq(t, callStr(t, Str("HeLLo"), "toUpper"), Str("HELLO"))
	wantEq(t, callStr(t, Str(" \t x \n "), "trim"), Str("x"))
	wantEq(t, callStr(t, Str("ÉCOLE"), "toLower"), Str("école"))
	callStrErr(t, Str("x"), "trim", Str("y"))
}

func Test_Builtin_Strings_Replace(t *testing.T) {
	wantEq(t, callStr(t, Str("a-b-c"), "replace", Str("-"), Str("+")), Str("a+b+c"))
	wantEq(t, callStr(t, Str("a-b-c"), "replace", Str("-"), Str("+"), Int(1)), Str("a+b-c"))
	wantEq(t, callStr(t, Str("aaa"), "replace", Str("a"), Str("")), Str(""))
	// literal replacement only, no pattern syntax
	wantEq(t, callStr(t, Str("a.b"), "replace", Str("."), Str("!")), Str("a!b"))
	callStrErr(t, Str("x"), "replace", Str("a"))
	callStrErr(t, Str("x"), "replace", Str("a"), Str("b"), Str("c"), Str("d"))
}

func Test_Builtin_Strings_Split(t *testing.T) {
	wantEq(t, callStr(t, Str("a,b,c"), "split", Str(",")),
		List([]Value{Str("a"), Str("b"), Str("c")}))
	wantEq(t, callStr(t, Str("a,b,c"), "split", Str(","), Int(2)),
		List([]Value{Str("a"), Str("b,c")}))
	wantEq(t, callStr(t, Str("abc"), "split", Str("-")),
		List([]Value{Str("abc")}))
	callStrErr(t, Str("x"), "split")
	callStrErr(t, Str("x"), "split", Int(1))
}

func Test_Builtin_Strings_IndexOf(t *testing.T) {
	wantEq(t, callStr(t, Str("héllo"), "indexOf", Str("llo")), Int(2))
	wantEq(t, callStr(t, Str("abcabc"), "indexOf", Str("c"), Int(3)), Int(5))
	wantEq(t, callStr(t, Str("abc"), "indexOf", Str("z")), Int(-1))
	wantEq(t, callStr(t, Str("abc"), "indexOf", Str("")), Int(0))

	err := callStrErr(t, Str("abc"), "indexOf", Str("a"), Int(9))
	if !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("indexOf offset error = %v", err)
	}
}

func Test_Builtin_Strings_MatchesMethod(t *testing.T) {
	wantEq(t, callStr(t, Str("foobar"), "matches", Str("o+b")), Bool(true))
	wantEq(t, callStr(t, Str("foobar"), "matches", Str("^bar")), Bool(false))
	callStrErr(t, Str("x"), "matches", Str("("))
}
