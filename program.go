// program.go — SINGLE PUBLIC ENTRY POINT for embedding the engine.
//
// OVERVIEW
// ========
// Hosts normally touch exactly two things: Compile, which parses a source
// expression once, and Program.Evaluate, which runs the compiled expression
// against a set of variable bindings. A Program is immutable after Compile;
// every Evaluate call builds a fresh Interpreter over its own copy of the
// bindings, so one Program may be shared and evaluated from many goroutines
// at once (the registry must be concurrency-safe, which StdRegistry is once
// populated).
//
// The convenience Eval compiles and runs in one shot, converting plain Go
// values into engine values via FromNative. Use it for throwaway expressions;
// for hot paths compile once and keep the Program.

package libcel

import "fmt"

////////////////////////////////////////////////////////////////////////////////
//                                 PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Program is a compiled expression ready for repeated evaluation.
type Program struct {
	source string
	ast    Node
	reg    Registry
}

// Option configures Compile.
type Option func(*Program)

// WithRegistry makes the program dispatch calls through reg instead of a
// fresh NewStdRegistry().
func WithRegistry(reg Registry) Option {
	return func(p *Program) { p.reg = reg }
}

// Compile parses src and returns a reusable Program. Parse failures come back
// as *SyntaxError.
func Compile(src string, opts ...Option) (*Program, error) {
	ast, err := Parse(src)
	if err != nil {
		return nil, err
	}
	p := &Program{source: src, ast: ast}
	for _, opt := range opts {
		opt(p)
	}
	if p.reg == nil {
		p.reg = NewStdRegistry()
	}
	return p, nil
}

// MustCompile is Compile for expressions known good at build time; it panics
// on error.
func MustCompile(src string, opts ...Option) *Program {
	p, err := Compile(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("libcel: MustCompile(%q): %v", src, err))
	}
	return p
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.source }

// AST returns the parsed tree. Callers must treat it as read-only.
func (p *Program) AST() Node { return p.ast }

// Evaluate runs the program against the given bindings. The bindings map is
// copied per call, so concurrent Evaluate calls never share mutable state.
func (p *Program) Evaluate(bindings map[string]Value) (Value, error) {
	ip := NewInterpreter(p.reg, bindings)
	return ip.Eval(p.ast)
}

// Eval compiles and evaluates src in one step. Bindings hold plain Go values
// and are converted with FromNative.
func Eval(src string, bindings map[string]interface{}, opts ...Option) (Value, error) {
	prog, err := Compile(src, opts...)
	if err != nil {
		return Null, err
	}
	env := make(map[string]Value, len(bindings))
	for name, v := range bindings {
		cv, err := FromNative(v)
		if err != nil {
			return Null, fmt.Errorf("binding %q: %w", name, err)
		}
		env[name] = cv
	}
	return prog.Evaluate(env)
}

//// END_OF_PUBLIC ////
