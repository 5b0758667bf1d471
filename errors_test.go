package libcel

import (
	"strings"
	"testing"
)

func mustContain(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", sub, s)
	}
}

func Test_Errors_Prefixes(t *testing.T) {
	se := &SyntaxError{Line: 2, Col: 7, Msg: "expected ')'"}
	if se.Error() != "SYNTAX ERROR at 2:7: expected ')'" {
		t.Fatalf("syntax error = %q", se.Error())
	}
	ee := &EvaluationError{Msg: "division by zero"}
	if ee.Error() != "EVALUATION ERROR: division by zero" {
		t.Fatalf("evaluation error = %q", ee.Error())
	}
	re := &RegistryError{Msg: "unknown function \"f\""}
	if re.Error() != "REGISTRY ERROR: unknown function \"f\"" {
		t.Fatalf("registry error = %q", re.Error())
	}
}

func Test_Errors_IsIncomplete(t *testing.T) {
	if IsIncomplete(&SyntaxError{Msg: "x"}) {
		t.Fatalf("plain syntax error read as incomplete")
	}
	if IsIncomplete(&EvaluationError{Msg: "x"}) {
		t.Fatalf("evaluation error read as incomplete")
	}
	_, err := Parse(`(1 + 2`)
	if !IsIncomplete(err) {
		t.Fatalf("truncated input not incomplete: %v", err)
	}
}

func Test_ErrorWrap_ShowsCaretAndContext(t *testing.T) {
	// three lines; the stray ')' on line 2 is the error
	src := "1 +\n2 ) +\n3"
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	msg := WrapErrorWithSource(err, src).Error()

	mustContain(t, msg, "SYNTAX ERROR at 2:3")
	mustContain(t, msg, "   1 | 1 +")
	mustContain(t, msg, "   2 | 2 ) +")
	mustContain(t, msg, "   3 | 3")
	mustContain(t, msg, "^")
}

func Test_ErrorWrap_CaretColumn(t *testing.T) {
	src := `size("abc") + (2 * 3`
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	se := err.(*SyntaxError)
	msg := WrapErrorWithSource(err, src).Error()
	lines := strings.Split(msg, "\n")
	var caretLine string
	for _, ln := range lines {
		if strings.Contains(ln, "^") {
			caretLine = ln
			break
		}
	}
	if caretLine == "" {
		t.Fatalf("no caret line in:\n%s", msg)
	}
	// "     | " plus col-1 spaces puts the caret under the error column
	wantPad := len("     | ") + se.Col - 1
	if got := strings.Index(caretLine, "^"); got != wantPad {
		t.Fatalf("caret at offset %d, want %d\n--- output ---\n%s", got, wantPad, msg)
	}
}

func Test_ErrorWrap_WithName(t *testing.T) {
	src := `1 +`
	_, err := Parse(src)
	msg := WrapErrorWithName(err, "policy.cel", src).Error()
	mustContain(t, msg, "SYNTAX ERROR in policy.cel at")
}

func Test_ErrorWrap_LeavesOtherErrorsAlone(t *testing.T) {
	ee := &EvaluationError{Msg: "nope"}
	if got := WrapErrorWithSource(ee, "src"); got != error(ee) {
		t.Fatalf("evaluation error was wrapped: %v", got)
	}
}
