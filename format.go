// format.go: display and plain-string rendering of runtime values.
package libcel

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatValue renders the display form of a value, the shape the REPL
// prints: strings quoted, bytes with a b prefix, uints with a u suffix,
// and lists/maps/structs in literal syntax.
func FormatValue(v Value) string {
	switch v.Tag {
	case VTNull:
		return "null"
	case VTBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case VTInt:
		return strconv.FormatFloat(v.num(), 'f', -1, 64)
	case VTUint:
		return strconv.FormatFloat(v.num(), 'f', -1, 64) + "u"
	case VTDouble:
		return strconv.FormatFloat(v.num(), 'g', -1, 64)
	case VTString:
		return quoteString(v.Data.(string))
	case VTBytes:
		return quoteBytes(v.Data.(string))
	case VTList:
		xs := v.Data.([]Value)
		parts := make([]string, 0, len(xs))
		for _, e := range xs {
			parts = append(parts, FormatValue(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case VTMap:
		m := v.Data.(*MapValue)
		parts := make([]string, 0, m.Len())
		for _, e := range m.Entries {
			parts = append(parts, FormatValue(e.Key)+": "+FormatValue(e.Val))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case VTStruct:
		s := v.Data.(*StructValue)
		parts := make([]string, 0, s.Len())
		for _, f := range s.Fields {
			parts = append(parts, f.Name+": "+FormatValue(f.Val))
		}
		return s.TypeName + "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<unknown>"
	}
}

// plainString renders the unquoted string form used by the string()
// conversion and by '+' stringification: strings and bytes yield their raw
// text, everything else its display form.
func plainString(v Value) string {
	switch v.Tag {
	case VTString, VTBytes:
		return v.Data.(string)
	default:
		return FormatValue(v)
	}
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// quoteBytes renders bytes content byte-wise, escaping anything outside
// printable ASCII as \xHH.
func quoteBytes(s string) string {
	var b strings.Builder
	b.WriteString(`b"`)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7F:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
