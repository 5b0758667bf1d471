package libcel

import (
	"fmt"
	"strings"
)

// ---- string built-ins ---------------------------------------------------
//
// Methods on string receivers. Index arithmetic is rune-based throughout so
// multi-byte text behaves the same as indexing does.

func registerStringBuiltins(r *StdRegistry) {
	// s.contains(sub) -> bool
	r.RegisterMethod("contains", func(target Value, args []Value) (Value, error) {
		s, sub, err := stringPair("contains", target, args)
		if err != nil {
			return Null, err
		}
		return Bool(strings.Contains(s, sub)), nil
	})

	// s.startsWith(prefix) -> bool
	r.RegisterMethod("startsWith", func(target Value, args []Value) (Value, error) {
		s, prefix, err := stringPair("startsWith", target, args)
		if err != nil {
			return Null, err
		}
		return Bool(strings.HasPrefix(s, prefix)), nil
	})

	// s.endsWith(suffix) -> bool
	r.RegisterMethod("endsWith", func(target Value, args []Value) (Value, error) {
		s, suffix, err := stringPair("endsWith", target, args)
		if err != nil {
			return Null, err
		}
		return Bool(strings.HasSuffix(s, suffix)), nil
	})

	// s.toLower() / s.toUpper() / s.trim()
	r.RegisterMethod("toLower", func(target Value, args []Value) (Value, error) {
		s, err := stringOnly("toLower", target, args)
		if err != nil {
			return Null, err
		}
		return Str(strings.ToLower(s)), nil
	})
	r.RegisterMethod("toUpper", func(target Value, args []Value) (Value, error) {
		s, err := stringOnly("toUpper", target, args)
		if err != nil {
			return Null, err
		}
		return Str(strings.ToUpper(s)), nil
	})
	r.RegisterMethod("trim", func(target Value, args []Value) (Value, error) {
		s, err := stringOnly("trim", target, args)
		if err != nil {
			return Null, err
		}
		return Str(strings.TrimSpace(s)), nil
	})

	// s.replace(old, new) / s.replace(old, new, limit)
	r.RegisterMethod("replace", func(target Value, args []Value) (Value, error) {
		s, err := stringReceiver("replace", target)
		if err != nil {
			return Null, err
		}
		if len(args) != 2 && len(args) != 3 {
			return Null, fmt.Errorf("replace expects 2 or 3 arguments, got %d", len(args))
		}
		old, err := stringArg("replace", args[0])
		if err != nil {
			return Null, err
		}
		repl, err := stringArg("replace", args[1])
		if err != nil {
			return Null, err
		}
		limit := -1
		if len(args) == 3 {
			if !args[2].isNumeric() {
				return Null, fmt.Errorf("replace: limit must be numeric, got %s", args[2].TypeName())
			}
			limit = int(args[2].num())
		}
		return Str(strings.Replace(s, old, repl, limit)), nil
	})

	// s.split(sep) / s.split(sep, limit)
	r.RegisterMethod("split", func(target Value, args []Value) (Value, error) {
		s, err := stringReceiver("split", target)
		if err != nil {
			return Null, err
		}
		if len(args) != 1 && len(args) != 2 {
			return Null, fmt.Errorf("split expects 1 or 2 arguments, got %d", len(args))
		}
		sep, err := stringArg("split", args[0])
		if err != nil {
			return Null, err
		}
		limit := -1
		if len(args) == 2 {
			if !args[1].isNumeric() {
				return Null, fmt.Errorf("split: limit must be numeric, got %s", args[1].TypeName())
			}
			limit = int(args[1].num())
		}
		parts := strings.SplitN(s, sep, limit)
		out := make([]Value, 0, len(parts))
		for _, p := range parts {
			out = append(out, Str(p))
		}
		return List(out), nil
	})

	// s.indexOf(sub) / s.indexOf(sub, from) -> rune index, -1 when absent
	r.RegisterMethod("indexOf", func(target Value, args []Value) (Value, error) {
		s, err := stringReceiver("indexOf", target)
		if err != nil {
			return Null, err
		}
		if len(args) != 1 && len(args) != 2 {
			return Null, fmt.Errorf("indexOf expects 1 or 2 arguments, got %d", len(args))
		}
		sub, err := stringArg("indexOf", args[0])
		if err != nil {
			return Null, err
		}
		runes := []rune(s)
		from := 0
		if len(args) == 2 {
			if !args[1].isNumeric() {
				return Null, fmt.Errorf("indexOf: offset must be numeric, got %s", args[1].TypeName())
			}
			from = int(args[1].num())
			if from < 0 || from > len(runes) {
				return Null, fmt.Errorf("indexOf: offset %d out of range (length %d)", from, len(runes))
			}
		}
		byteOff := strings.Index(string(runes[from:]), sub)
		if byteOff < 0 {
			return Int(-1), nil
		}
		// back from byte offset to rune index
		runeOff := len([]rune(string(runes[from:])[:byteOff]))
		return Int(int64(from + runeOff)), nil
	})

	// s.matches(pattern) -> bool
	r.RegisterMethod("matches", func(target Value, args []Value) (Value, error) {
		if err := wantArgs("matches", args, 1); err != nil {
			return Null, err
		}
		return matchPattern(target, args[0])
	})
}

func stringReceiver(name string, target Value) (string, error) {
	if target.Tag != VTString {
		return "", fmt.Errorf("%s: receiver must be a string, got %s", name, target.TypeName())
	}
	return target.Data.(string), nil
}

func stringArg(name string, v Value) (string, error) {
	if v.Tag != VTString {
		return "", fmt.Errorf("%s: argument must be a string, got %s", name, v.TypeName())
	}
	return v.Data.(string), nil
}

func stringOnly(name string, target Value, args []Value) (string, error) {
	if err := wantArgs(name, args, 0); err != nil {
		return "", err
	}
	return stringReceiver(name, target)
}

func stringPair(name string, target Value, args []Value) (string, string, error) {
	if err := wantArgs(name, args, 1); err != nil {
		return "", "", err
	}
	s, err := stringReceiver(name, target)
	if err != nil {
		return "", "", err
	}
	arg, err := stringArg(name, args[0])
	if err != nil {
		return "", "", err
	}
	return s, arg, nil
}
