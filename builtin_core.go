package libcel

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ---- core built-ins ----------------------------------------------------
//
// The functions every StdRegistry starts with: size, the type conversions,
// type introspection, RE2 matching, and max/min over the total order.
// Registration is plain Register/RegisterMethod so hosts can replace any of
// them after NewStdRegistry.

func registerCoreBuiltins(r *StdRegistry) {
	// size(x) -> int (characters of a string, bytes of a bytes value,
	// elements of a list, entries of a map, fields of a struct, 0 for null)
	r.Register("size", func(args []Value) (Value, error) {
		if err := wantArgs("size", args, 1); err != nil {
			return Null, err
		}
		return sizeOf(args[0])
	})
	r.RegisterMethod("size", func(target Value, args []Value) (Value, error) {
		if err := wantArgs("size", args, 0); err != nil {
			return Null, err
		}
		return sizeOf(target)
	})

	// type(x) -> string name of the runtime type
	r.Register("type", func(args []Value) (Value, error) {
		if err := wantArgs("type", args, 1); err != nil {
			return Null, err
		}
		return Str(args[0].TypeName()), nil
	})

	// int(x) -> int (truncates doubles, parses strings)
	r.Register("int", func(args []Value) (Value, error) {
		if err := wantArgs("int", args, 1); err != nil {
			return Null, err
		}
		v := args[0]
		switch {
		case v.isNumeric():
			return intVal(math.Trunc(v.num()), VTInt), nil
		case v.Tag == VTString:
			n, err := strconv.ParseInt(strings.TrimSpace(v.Data.(string)), 10, 64)
			if err != nil {
				return Null, fmt.Errorf("int: cannot parse %q", v.Data.(string))
			}
			return Int(n), nil
		case v.Tag == VTBool:
			if v.Data.(bool) {
				return Int(1), nil
			}
			return Int(0), nil
		default:
			return Null, fmt.Errorf("int: cannot convert %s", v.TypeName())
		}
	})

	// uint(x) -> uint (rejects negative input)
	r.Register("uint", func(args []Value) (Value, error) {
		if err := wantArgs("uint", args, 1); err != nil {
			return Null, err
		}
		v := args[0]
		switch {
		case v.isNumeric():
			f := math.Trunc(v.num())
			if f < 0 {
				return Null, fmt.Errorf("uint: negative value %s", FormatValue(v))
			}
			return intVal(f, VTUint), nil
		case v.Tag == VTString:
			n, err := strconv.ParseUint(strings.TrimSpace(v.Data.(string)), 10, 64)
			if err != nil {
				return Null, fmt.Errorf("uint: cannot parse %q", v.Data.(string))
			}
			return Uint(n), nil
		default:
			return Null, fmt.Errorf("uint: cannot convert %s", v.TypeName())
		}
	})

	// double(x) -> double
	r.Register("double", func(args []Value) (Value, error) {
		if err := wantArgs("double", args, 1); err != nil {
			return Null, err
		}
		v := args[0]
		switch {
		case v.isNumeric():
			return Double(v.num()), nil
		case v.Tag == VTString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Data.(string)), 64)
			if err != nil {
				return Null, fmt.Errorf("double: cannot parse %q", v.Data.(string))
			}
			return Double(f), nil
		default:
			return Null, fmt.Errorf("double: cannot convert %s", v.TypeName())
		}
	})

	// string(x) -> string (bytes decode as text, numbers drop their suffix)
	r.Register("string", func(args []Value) (Value, error) {
		if err := wantArgs("string", args, 1); err != nil {
			return Null, err
		}
		return Str(toText(args[0])), nil
	})

	// bool(x) -> bool (accepts "true"/"false")
	r.Register("bool", func(args []Value) (Value, error) {
		if err := wantArgs("bool", args, 1); err != nil {
			return Null, err
		}
		v := args[0]
		switch v.Tag {
		case VTBool:
			return v, nil
		case VTString:
			switch v.Data.(string) {
			case "true":
				return Bool(true), nil
			case "false":
				return Bool(false), nil
			}
			return Null, fmt.Errorf("bool: cannot parse %q", v.Data.(string))
		default:
			return Null, fmt.Errorf("bool: cannot convert %s", v.TypeName())
		}
	})

	// has(container, key) -> bool. The two-argument dynamic form of the
	// presence test: key presence in a map, field presence in a struct,
	// element membership in a list. The one-argument has(e.f) never reaches
	// the registry; the parser folds it into the selection.
	r.Register("has", func(args []Value) (Value, error) {
		if err := wantArgs("has", args, 2); err != nil {
			return Null, err
		}
		container, key := args[0], args[1]
		switch container.Tag {
		case VTMap:
			return Bool(container.Data.(*MapValue).Has(key)), nil
		case VTStruct:
			if key.Tag != VTString {
				return Bool(false), nil
			}
			return Bool(container.Data.(*StructValue).Has(key.Data.(string))), nil
		case VTList:
			for _, e := range container.Data.([]Value) {
				if Equal(e, key) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		case VTNull:
			return Bool(false), nil
		default:
			return Null, fmt.Errorf("has: cannot test presence in %s", container.TypeName())
		}
	})

	// matches(s, pattern) -> bool (RE2 syntax)
	r.Register("matches", func(args []Value) (Value, error) {
		if err := wantArgs("matches", args, 2); err != nil {
			return Null, err
		}
		return matchPattern(args[0], args[1])
	})

	// max(x, ...) / min(x, ...) over the comparison order
	r.Register("max", func(args []Value) (Value, error) {
		return pickExtreme("max", args, func(c int) bool { return c > 0 })
	})
	r.Register("min", func(args []Value) (Value, error) {
		return pickExtreme("min", args, func(c int) bool { return c < 0 })
	})
}

// wantArgs checks an exact argument count.
func wantArgs(name string, args []Value, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s expects %d argument(s), got %d", name, want, len(args))
	}
	return nil
}

func sizeOf(v Value) (Value, error) {
	switch v.Tag {
	case VTNull:
		return Int(0), nil
	case VTString:
		return Int(int64(utf8.RuneCountInString(v.Data.(string)))), nil
	case VTBytes:
		return Int(int64(len(v.Data.(string)))), nil
	case VTList:
		return Int(int64(len(v.Data.([]Value)))), nil
	case VTMap:
		return Int(int64(v.Data.(*MapValue).Len())), nil
	case VTStruct:
		return Int(int64(v.Data.(*StructValue).Len())), nil
	default:
		return Null, fmt.Errorf("size: %s has no size", v.TypeName())
	}
}

// toText renders a value the way string() sees it: text stays text, numbers
// print without tag suffixes, everything else takes its literal form.
func toText(v Value) string {
	switch v.Tag {
	case VTString, VTBytes:
		return v.Data.(string)
	case VTInt, VTUint:
		return strconv.FormatFloat(v.num(), 'f', -1, 64)
	case VTDouble:
		return strconv.FormatFloat(v.num(), 'g', -1, 64)
	default:
		return FormatValue(v)
	}
}

func matchPattern(s, pattern Value) (Value, error) {
	if s.Tag != VTString {
		return Null, fmt.Errorf("matches: subject must be a string, got %s", s.TypeName())
	}
	if pattern.Tag != VTString {
		return Null, fmt.Errorf("matches: pattern must be a string, got %s", pattern.TypeName())
	}
	re, err := regexp.Compile(pattern.Data.(string))
	if err != nil {
		return Null, fmt.Errorf("matches: bad pattern: %v", err)
	}
	return Bool(re.MatchString(s.Data.(string))), nil
}

func pickExtreme(name string, args []Value, better func(int) bool) (Value, error) {
	if len(args) == 0 {
		return Null, fmt.Errorf("%s expects at least one argument", name)
	}
	best := args[0]
	for _, v := range args[1:] {
		c, err := Compare(v, best)
		if err != nil {
			return Null, fmt.Errorf("%s: %v", name, err)
		}
		if better(c) {
			best = v
		}
	}
	return best, nil
}
