// value.go: the runtime value model.
//
// Values form a tagged union. All three numeric kinds share one float64
// representation and differ only by tag: int and uint are integral, double
// is non-integral, and uint additionally rejects negative inputs at
// conversion time. Bytes values hold decoded text under a bytes tag. Maps
// preserve insertion order for enumeration and look keys up by deep
// equality; structs are string-keyed field sequences with an optional type
// name.
package libcel

import (
	"fmt"
	"sort"
	"strings"
)

// ValueTag enumerates all runtime kinds a Value may hold.
// The tag determines what Value.Data carries (see Value docs).
type ValueTag int

const (
	VTNull   ValueTag = iota // null (no payload)
	VTBool                   // bool
	VTInt                    // float64, integral
	VTUint                   // float64, integral and non-negative
	VTDouble                 // float64
	VTString                 // string
	VTBytes                  // string (decoded byte content)
	VTList                   // []Value
	VTMap                    // *MapValue (ordered, value keys)
	VTStruct                 // *StructValue (ordered fields, optional type name)
)

var valueTagNames = [...]string{
	VTNull:   "null",
	VTBool:   "bool",
	VTInt:    "int",
	VTUint:   "uint",
	VTDouble: "double",
	VTString: "string",
	VTBytes:  "bytes",
	VTList:   "list",
	VTMap:    "map",
	VTStruct: "struct",
}

func (t ValueTag) String() string {
	if int(t) < len(valueTagNames) {
		return valueTagNames[t]
	}
	return "unknown"
}

// Value is the universal runtime carrier used by the interpreter.
//
// Fields:
//   - Tag  — discriminant indicating which case is active.
//   - Data — Go value appropriate for Tag (float64 for the numeric tags,
//     string for VTString/VTBytes, []Value for VTList, *MapValue for VTMap,
//     *StructValue for VTStruct, nil for VTNull).
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// TypeName reports the classifier name for the value's kind
// (null, bool, int, uint, double, string, bytes, list, map, struct).
func (v Value) TypeName() string { return v.Tag.String() }

// String renders the display form (see FormatValue).
func (v Value) String() string { return FormatValue(v) }

// Null is the singleton null Value.
var Null = Value{Tag: VTNull}

// Primitive constructors.
func Bool(b bool) Value     { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value     { return Value{Tag: VTInt, Data: float64(n)} }
func Uint(n uint64) Value   { return Value{Tag: VTUint, Data: float64(n)} }
func Double(f float64) Value { return Value{Tag: VTDouble, Data: f} }
func Str(s string) Value    { return Value{Tag: VTString, Data: s} }
func Bytes(s string) Value  { return Value{Tag: VTBytes, Data: s} }
func List(xs []Value) Value { return Value{Tag: VTList, Data: xs} }

// Map wraps an ordered MapValue as a runtime value.
func Map(m *MapValue) Value { return Value{Tag: VTMap, Data: m} }

// Struct wraps a StructValue as a runtime value.
func Struct(s *StructValue) Value { return Value{Tag: VTStruct, Data: s} }

// intVal builds an integral value carrying the given tag.
func intVal(f float64, tag ValueTag) Value { return Value{Tag: tag, Data: f} }

func (v Value) isNumeric() bool {
	return v.Tag == VTInt || v.Tag == VTUint || v.Tag == VTDouble
}

// num returns the float64 payload; callers must have checked isNumeric.
func (v Value) num() float64 { return v.Data.(float64) }

func (v Value) isTrue() bool {
	return v.Tag == VTBool && v.Data.(bool)
}

// MapEntry is one key/value pair of a MapValue.
type MapEntry struct {
	Key Value
	Val Value
}

// MapValue is an ordered mapping with arbitrary value keys. Insertion order
// is the enumeration order but carries no semantic weight; key lookup uses
// deep equality.
type MapValue struct {
	Entries []MapEntry
}

// NewMapValue returns an empty ordered map.
func NewMapValue() *MapValue { return &MapValue{} }

// Get looks up a key by deep equality.
func (m *MapValue) Get(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if Equal(e.Key, key) {
			return e.Val, true
		}
	}
	return Null, false
}

// Has reports key presence by deep equality.
func (m *MapValue) Has(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Set replaces the value of a deep-equal key, or appends a new entry.
func (m *MapValue) Set(key, val Value) {
	for i, e := range m.Entries {
		if Equal(e.Key, key) {
			m.Entries[i].Val = val
			return
		}
	}
	m.Entries = append(m.Entries, MapEntry{Key: key, Val: val})
}

// Len returns the entry count.
func (m *MapValue) Len() int { return len(m.Entries) }

// StructField is one named field of a StructValue.
type StructField struct {
	Name string
	Val  Value
}

// StructValue is an ordered sequence of named fields with an optional type
// name. The untyped literal form {a: 1} leaves TypeName empty.
type StructValue struct {
	TypeName string
	Fields   []StructField
}

// NewStructValue returns an empty struct with the given type name
// (empty for the untyped form).
func NewStructValue(typeName string) *StructValue {
	return &StructValue{TypeName: typeName}
}

// Get looks up a field by name.
func (s *StructValue) Get(name string) (Value, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Val, true
		}
	}
	return Null, false
}

// Has reports field presence.
func (s *StructValue) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Set replaces a field value or appends a new field.
func (s *StructValue) Set(name string, val Value) {
	for i, f := range s.Fields {
		if f.Name == name {
			s.Fields[i].Val = val
			return
		}
	}
	s.Fields = append(s.Fields, StructField{Name: name, Val: val})
}

// Len returns the field count.
func (s *StructValue) Len() int { return len(s.Fields) }

// Equal reports deep structural equality. It never raises: a kind mismatch
// other than between the numeric tags yields false. Lists are equal iff
// element-wise equal at the same length; maps and structs compare by key
// set regardless of insertion order; structs additionally require the same
// type name.
func Equal(a, b Value) bool {
	if a.isNumeric() && b.isNumeric() {
		return a.num() == b.num()
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNull:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTString, VTBytes:
		return a.Data.(string) == b.Data.(string)
	case VTList:
		xs, ys := a.Data.([]Value), b.Data.([]Value)
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}
		return true
	case VTMap:
		ma, mb := a.Data.(*MapValue), b.Data.(*MapValue)
		if ma.Len() != mb.Len() {
			return false
		}
		for _, e := range ma.Entries {
			other, ok := mb.Get(e.Key)
			if !ok || !Equal(e.Val, other) {
				return false
			}
		}
		return true
	case VTStruct:
		sa, sb := a.Data.(*StructValue), b.Data.(*StructValue)
		if sa.TypeName != sb.TypeName || sa.Len() != sb.Len() {
			return false
		}
		for _, f := range sa.Fields {
			other, ok := sb.Get(f.Name)
			if !ok || !Equal(f.Val, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare applies the total order used by <, <=, >, >=, max, and min:
// null orders before any non-null value; numerics compare by value; strings
// and bytes compare lexicographically within their kind; booleans order
// false before true; lists compare element-wise and then by length. Any
// other pairing is not comparable and returns an error.
func Compare(a, b Value) (int, error) {
	if a.Tag == VTNull || b.Tag == VTNull {
		switch {
		case a.Tag == VTNull && b.Tag == VTNull:
			return 0, nil
		case a.Tag == VTNull:
			return -1, nil
		default:
			return 1, nil
		}
	}
	if a.isNumeric() && b.isNumeric() {
		x, y := a.num(), b.num()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Tag != b.Tag {
		return 0, fmt.Errorf("values of type %s and %s are not comparable", a.TypeName(), b.TypeName())
	}
	switch a.Tag {
	case VTString, VTBytes:
		return strings.Compare(a.Data.(string), b.Data.(string)), nil
	case VTBool:
		x, y := a.Data.(bool), b.Data.(bool)
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	case VTList:
		xs, ys := a.Data.([]Value), b.Data.([]Value)
		n := len(xs)
		if len(ys) < n {
			n = len(ys)
		}
		for i := 0; i < n; i++ {
			c, err := Compare(xs[i], ys[i])
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		switch {
		case len(xs) < len(ys):
			return -1, nil
		case len(xs) > len(ys):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("values of type %s are not comparable", a.TypeName())
	}
}

// FromNative converts host data into a runtime value. Supported inputs:
// nil, bool, all Go integer and float types, string, []byte, []interface{},
// map[string]interface{} (keys sorted for deterministic enumeration),
// map[interface{}]interface{}, []Value, and Value itself.
func FromNative(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Uint(uint64(x)), nil
	case uint8:
		return Uint(uint64(x)), nil
	case uint16:
		return Uint(uint64(x)), nil
	case uint32:
		return Uint(uint64(x)), nil
	case uint64:
		return Uint(x), nil
	case float32:
		return Double(float64(x)), nil
	case float64:
		return Double(x), nil
	case string:
		return Str(x), nil
	case []byte:
		return Bytes(string(x)), nil
	case []Value:
		return List(x), nil
	case []interface{}:
		out := make([]Value, 0, len(x))
		for _, e := range x {
			ev, err := FromNative(e)
			if err != nil {
				return Null, err
			}
			out = append(out, ev)
		}
		return List(out), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapValue()
		for _, k := range keys {
			ev, err := FromNative(x[k])
			if err != nil {
				return Null, err
			}
			m.Set(Str(k), ev)
		}
		return Map(m), nil
	case map[interface{}]interface{}:
		m := NewMapValue()
		for k, e := range x {
			kv, err := FromNative(k)
			if err != nil {
				return Null, err
			}
			ev, err := FromNative(e)
			if err != nil {
				return Null, err
			}
			m.Set(kv, ev)
		}
		return Map(m), nil
	default:
		return Null, fmt.Errorf("cannot convert %T to a runtime value", v)
	}
}

// ToNative converts a runtime value back into plain Go data: float64 for
// double, int64/uint64 for the integral tags, []byte for bytes,
// []interface{} for lists, and map[string]interface{} for maps and structs
// (map keys are rendered with their plain string form, so non-string map
// keys lose their kind).
func ToNative(v Value) interface{} {
	switch v.Tag {
	case VTNull:
		return nil
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return int64(v.num())
	case VTUint:
		return uint64(v.num())
	case VTDouble:
		return v.num()
	case VTString:
		return v.Data.(string)
	case VTBytes:
		return []byte(v.Data.(string))
	case VTList:
		xs := v.Data.([]Value)
		out := make([]interface{}, 0, len(xs))
		for _, e := range xs {
			out = append(out, ToNative(e))
		}
		return out
	case VTMap:
		m := v.Data.(*MapValue)
		out := make(map[string]interface{}, m.Len())
		for _, e := range m.Entries {
			out[plainString(e.Key)] = ToNative(e.Val)
		}
		return out
	case VTStruct:
		s := v.Data.(*StructValue)
		out := make(map[string]interface{}, s.Len())
		for _, f := range s.Fields {
			out[f.Name] = ToNative(f.Val)
		}
		return out
	default:
		return nil
	}
}
