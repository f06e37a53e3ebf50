package tomledit

import (
	"strconv"
	"strings"
)

// Kind is the type of a TOML value.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBool
	KindDatetime
	KindArray
	KindInlineTable
)

// String returns the TOML name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindDatetime:
		return "datetime"
	case KindArray:
		return "array"
	case KindInlineTable:
		return "inline table"
	default:
		return "unknown"
	}
}

// StringStyle is the quoting used by a string value in the source.
type StringStyle int

const (
	StyleBasic StringStyle = iota
	StyleLiteral
	StyleMultilineBasic
	StyleMultilineLiteral
)

// Value is a TOML value that keeps the exact text it was parsed from.
// Scalars carry their raw token; arrays and inline tables carry their
// elements together with the whitespace and comments between them.
type Value struct {
	kind Kind
	raw  string

	str   string
	style StringStyle
	b     bool
	i     int64
	f     float64

	elems   []*element
	trailer string
}

// element is one member of an array or inline table.
type element struct {
	pre   string
	key   *key // inline tables only
	eq    string
	value *Value
	post  string
	comma bool
}

// Kind returns the value's kind.
func (v *Value) Kind() Kind { return v.kind }

// AsString returns the decoded string if v is a string.
func (v *Value) AsString() (string, bool) {
	if v == nil || v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// StringStyle returns the quoting style of a string value.
func (v *Value) StringStyle() StringStyle { return v.style }

// AsBool returns the boolean if v is a boolean.
func (v *Value) AsBool() (bool, bool) {
	if v == nil || v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInteger returns the integer if v is an integer.
func (v *Value) AsInteger() (int64, bool) {
	if v == nil || v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the float if v is a float.
func (v *Value) AsFloat() (float64, bool) {
	if v == nil || v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// Items returns the elements of an array, or nil for other kinds.
func (v *Value) Items() []*Value {
	if v == nil || v.kind != KindArray {
		return nil
	}
	items := make([]*Value, len(v.elems))
	for i, e := range v.elems {
		items[i] = e.value
	}
	return items
}

// Strings returns the string elements of an array. ok is false when v is
// not an array or holds a non-string element.
func (v *Value) Strings() (out []string, ok bool) {
	if v == nil || v.kind != KindArray {
		return nil, false
	}
	for _, e := range v.elems {
		s, isStr := e.value.AsString()
		if !isStr {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Raw returns the exact source text of the value.
func (v *Value) Raw() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v *Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindArray:
		sb.WriteByte('[')
		v.writeElems(sb)
		sb.WriteByte(']')
	case KindInlineTable:
		sb.WriteByte('{')
		v.writeElems(sb)
		sb.WriteByte('}')
	default:
		sb.WriteString(v.raw)
	}
}

func (v *Value) writeElems(sb *strings.Builder) {
	for _, e := range v.elems {
		sb.WriteString(e.pre)
		if e.key != nil {
			sb.WriteString(e.key.raw)
			sb.WriteString(e.eq)
		}
		e.value.writeTo(sb)
		sb.WriteString(e.post)
		if e.comma {
			sb.WriteByte(',')
		}
	}
	sb.WriteString(v.trailer)
}

// NewString returns a basic (double-quoted) string value.
func NewString(s string) *Value {
	return &Value{kind: KindString, raw: quoteBasic(s), str: s, style: StyleBasic}
}

// NewLiteralString returns a literal (single-quoted) string value. It falls
// back to a basic string when s cannot be written literally.
func NewLiteralString(s string) *Value {
	if !literalSafe(s) {
		return NewString(s)
	}
	return &Value{kind: KindString, raw: "'" + s + "'", str: s, style: StyleLiteral}
}

// NewStringLike returns a string value holding s quoted the way prev was,
// when that style can represent s.
func NewStringLike(prev *Value, s string) *Value {
	if prev != nil && prev.kind == KindString && prev.style == StyleLiteral {
		return NewLiteralString(s)
	}
	return NewString(s)
}

// NewBool returns a boolean value.
func NewBool(b bool) *Value {
	return &Value{kind: KindBool, raw: strconv.FormatBool(b), b: b}
}

// NewInteger returns a decimal integer value.
func NewInteger(i int64) *Value {
	return &Value{kind: KindInteger, raw: strconv.FormatInt(i, 10), i: i}
}

func literalSafe(s string) bool {
	for _, r := range s {
		if r == '\'' || r == '\n' || r == '\r' || (r < 0x20 && r != '\t') || r == 0x7f {
			return false
		}
	}
	return true
}

func quoteBasic(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(`\u`)
				hex := strconv.FormatInt(int64(r), 16)
				sb.WriteString(strings.Repeat("0", 4-len(hex)))
				sb.WriteString(hex)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// clone deep-copies v so a caller-provided value is never shared between
// two slots of a document.
func (v *Value) clone() *Value {
	c := *v
	if v.elems != nil {
		c.elems = make([]*element, len(v.elems))
		for i, e := range v.elems {
			ce := *e
			ce.value = e.value.clone()
			c.elems[i] = &ce
		}
	}
	return &c
}
