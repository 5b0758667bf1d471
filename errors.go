// errors.go: the error taxonomy and caret-snippet rendering
//
// What this file does
// -------------------
// This module defines the three error kinds the engine can surface and turns
// positioned syntax errors into readable snippets with a caret pointing at
// the offending column:
//
//	SYNTAX ERROR at 1:14: expected ')'
//
//	   1 | size("abc") + (2 * 3
//	     |              ^
//
// The snippet includes up to one line of context before and after the error,
// numbers the lines, and places a caret under the 1-based column.
//
// Error kinds
// -----------
//   - *SyntaxError:     lexer/parser failures; carries 1-based Line and Col.
//   - *EvaluationError: interpreter failures (type mismatches, division by
//     zero, out-of-range indexes, undefined variables, ...).
//   - *RegistryError:   function/method dispatch failures, propagated
//     verbatim from the Registry.
//
// A *SyntaxError raised at end of input is marked incomplete; interactive
// callers can test it with IsIncomplete and prompt for continuation lines
// instead of reporting a hard failure.
package libcel

import (
	"errors"
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// SyntaxError reports a lexing or parsing failure at a source position.
// Line and Col are 1-based.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string

	// incomplete marks errors caused by running out of input, such as an
	// unterminated triple-quoted string or a missing closing delimiter at
	// EOF. See IsIncomplete.
	incomplete bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SYNTAX ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// EvaluationError reports a runtime failure raised by the interpreter.
type EvaluationError struct {
	Msg string
}

func (e *EvaluationError) Error() string {
	return "EVALUATION ERROR: " + e.Msg
}

// RegistryError reports a failed function or method dispatch. Registry
// implementations return it for unknown names and invalid argument shapes;
// the interpreter propagates it verbatim.
type RegistryError struct {
	Msg string
}

func (e *RegistryError) Error() string {
	return "REGISTRY ERROR: " + e.Msg
}

// IsIncomplete reports whether err is, or wraps, a *SyntaxError caused by
// truncated input, meaning the source could still become valid with more
// text. REPLs use this to decide between a continuation prompt and an
// error report.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.incomplete
}

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of the provided source. It recognizes *SyntaxError and leaves
// other errors untouched.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with an optional source name
// (typically a file path) included in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	se, ok := err.(*SyntaxError)
	if !ok {
		return err
	}
	return fmt.Errorf("%s", prettyErrorStringLabeled(src, "SYNTAX ERROR", srcName, se.Line, se.Col, se.Msg))
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: helpers & rendering
   =========================== */

func errEvalf(format string, args ...interface{}) error {
	return &EvaluationError{Msg: fmt.Sprintf(format, args...)}
}

func errRegistryf(format string, args ...interface{}) error {
	return &RegistryError{Msg: fmt.Sprintf(format, args...)}
}

// prettyErrorStringLabeled builds a snippet with a header and a caret.
// It shows at most one previous and one next line when available.
// Coordinates are treated as 1-based and clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
