// registry.go — the host function table.
//
// OVERVIEW
// ========
// The interpreter never implements a function call itself: every non-macro
// call is handed to a Registry, the single extension point hosts use to
// expose their own functions and methods to expressions. A Registry answers
// two questions, free-function dispatch (`f(args)`) and method dispatch
// (`target.f(args)`), and nothing else.
//
// StdRegistry is the batteries-included implementation: a pair of name maps
// preloaded with the core builtins (conversions, size, type, matches, and the
// string helpers from builtin_strings.go) that hosts can extend with Register
// and RegisterMethod. Hosts with stronger needs (namespacing, overload
// resolution, per-call auth) implement Registry directly.
//
// Error contract: a failure inside a registry function keeps its message
// verbatim but surfaces as *RegistryError, so callers can tell host failures
// apart from evaluation errors.

package libcel

import "errors"

////////////////////////////////////////////////////////////////////////////////
//                                 PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Registry dispatches the function and method calls an expression makes.
// Implementations must be safe for concurrent use when the same registry is
// shared by concurrent evaluations.
type Registry interface {
	// CallFunction runs a free function, e.g. size(x).
	CallFunction(name string, args []Value) (Value, error)
	// CallMethod runs a method on its evaluated target, e.g. s.contains(x).
	CallMethod(target Value, name string, args []Value) (Value, error)
}

// FunctionImpl is a host-supplied free function.
type FunctionImpl func(args []Value) (Value, error)

// MethodImpl is a host-supplied method; target is the evaluated receiver.
type MethodImpl func(target Value, args []Value) (Value, error)

// StdRegistry is a map-backed Registry preloaded with the standard builtins.
// Register/RegisterMethod must not race with evaluation; populate the
// registry first, then share it freely (lookups are read-only).
type StdRegistry struct {
	funcs   map[string]FunctionImpl
	methods map[string]MethodImpl
}

// NewStdRegistry returns a registry with the core and string builtins
// installed.
func NewStdRegistry() *StdRegistry {
	r := &StdRegistry{
		funcs:   make(map[string]FunctionImpl),
		methods: make(map[string]MethodImpl),
	}
	registerCoreBuiltins(r)
	registerStringBuiltins(r)
	return r
}

// Register adds (or replaces) a free function.
func (r *StdRegistry) Register(name string, fn FunctionImpl) {
	r.funcs[name] = fn
}

// RegisterMethod adds (or replaces) a method.
func (r *StdRegistry) RegisterMethod(name string, fn MethodImpl) {
	r.methods[name] = fn
}

// CallFunction implements Registry.
func (r *StdRegistry) CallFunction(name string, args []Value) (Value, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return Null, errRegistryf("unknown function %q", name)
	}
	v, err := fn(args)
	if err != nil {
		return Null, wrapRegistryErr(err)
	}
	return v, nil
}

// CallMethod implements Registry.
func (r *StdRegistry) CallMethod(target Value, name string, args []Value) (Value, error) {
	fn, ok := r.methods[name]
	if !ok {
		return Null, errRegistryf("unknown method %q on %s", name, target.TypeName())
	}
	v, err := fn(target, args)
	if err != nil {
		return Null, wrapRegistryErr(err)
	}
	return v, nil
}

//// END_OF_PUBLIC ////

// wrapRegistryErr tags a host error as *RegistryError without touching its
// message. Already-tagged errors pass through unchanged.
func wrapRegistryErr(err error) error {
	if err == nil {
		return nil
	}
	var re *RegistryError
	if errors.As(err, &re) {
		return err
	}
	return &RegistryError{Msg: err.Error()}
}
