// Package canonical implements deterministic serialization of audit records
// for hashing. Two logically identical records always encode to byte-identical
// strings, independent of map ordering or the representation the payload
// arrived in, so any implementation can recompute a digest and get the same
// answer.
package canonical

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DigestField is excluded from the canonical form of a record: a digest
// cannot cover itself.
const DigestField = "digest_sha256"

// Kind discriminates the Value union.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a tagged JSON value. Payloads are modeled as this union rather
// than native Go maps so canonicalization is well-defined regardless of how
// the event was built.
type Value struct {
	kind Kind
	b    bool
	num  string // number lexeme, preserved verbatim
	str  string
	arr  []Value
	obj  Object
}

// Object maps field names to values. Encoding sorts keys, so insertion order
// never matters.
type Object map[string]Value

// Constructors.

func Null() Value             { return Value{kind: KindNull} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func String(s string) Value   { return Value{kind: KindString, str: s} }
func Int(n int64) Value       { return Value{kind: KindNumber, num: strconv.FormatInt(n, 10)} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// Number wraps a JSON number lexeme. The lexeme is kept as-is ("1.0" stays
// "1.0") so re-parsing a canonical string and encoding it again is a no-op.
func Number(lexeme json.Number) Value {
	return Value{kind: KindNumber, num: string(lexeme)}
}

// Float formats f with the shortest representation that round-trips.
func Float(f float64) Value {
	return Value{kind: KindNumber, num: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Obj wraps an Object as a Value. A nil Object encodes as an empty object.
func Obj(o Object) Value {
	if o == nil {
		o = Object{}
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the discriminator.
func (v Value) Kind() Kind { return v.kind }

// Accessors. Each returns the zero value when the kind does not match.

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsString() string { return v.str }
func (v Value) AsNumber() json.Number {
	return json.Number(v.num)
}
func (v Value) AsArray() []Value { return v.arr }
func (v Value) AsObject() Object { return v.obj }

// IsNull reports whether the value is the explicit null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Clone deep-copies the value. Redaction mutates copies, never originals.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	case KindObject:
		obj := make(Object, len(v.obj))
		for k, e := range v.obj {
			obj[k] = e.Clone()
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return v
	}
}

// Clone deep-copies the object.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v.Clone()
	}
	return out
}

// Encode serializes the value to its canonical UTF-8 string form: object keys
// sorted lexicographically at every nesting level, no insignificant
// whitespace, number lexemes verbatim.
func Encode(v Value) string {
	var sb strings.Builder
	encode(&sb, v)
	return sb.String()
}

// EncodeRecord canonicalizes a full record, dropping the digest field at the
// top level. Absent fields must be normalized to explicit nulls by the caller
// before encoding.
func EncodeRecord(record Object) string {
	if _, ok := record[DigestField]; ok {
		record = record.Clone()
		delete(record, DigestField)
	}
	return Encode(Obj(record))
}

func encode(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindNumber:
		sb.WriteString(v.num)
	case KindString:
		encodeString(sb, v.str)
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			encode(sb, e)
		}
		sb.WriteByte(']')
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeString(sb, k)
			sb.WriteByte(':')
			encode(sb, v.obj[k])
		}
		sb.WriteByte('}')
	}
}

// encodeString writes a JSON string with a fixed escape set: quote, backslash
// and control characters only. Everything else is raw UTF-8, so the encoding
// does not depend on any host library's optional escaping (e.g. of '<').
func encodeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}

// Parse decodes a JSON document into a Value, preserving number lexemes.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) {
		return Value{}, fmt.Errorf("canonical: input is not valid UTF-8")
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("canonical: %w", err)
	}
	if dec.More() {
		return Value{}, fmt.Errorf("canonical: trailing data after document")
	}
	return fromAny(raw)
}

// ParseObject decodes a JSON object into an Object.
func ParseObject(data []byte) (Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if v.kind != KindObject {
		return nil, fmt.Errorf("canonical: document is not an object")
	}
	return v.obj, nil
}

// FromAny converts decoded JSON (as produced by encoding/json with UseNumber)
// into a Value. Unknown Go types are rejected rather than guessed at.
func FromAny(raw any) (Value, error) {
	return fromAny(raw)
}

func fromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case float64:
		return Float(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			v, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]any:
		obj := make(Object, len(t))
		for k, e := range t {
			v, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			obj[k] = v
		}
		return Obj(obj), nil
	default:
		return Value{}, fmt.Errorf("canonical: unsupported type %T", raw)
	}
}

// MarshalJSON makes Value usable in API responses. The output is the
// canonical encoding, which is itself valid JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(Encode(v)), nil
}

// UnmarshalJSON parses JSON into the union, preserving number lexemes.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON encodes the object canonically.
func (o Object) MarshalJSON() ([]byte, error) {
	return []byte(Encode(Obj(o))), nil
}

// UnmarshalJSON parses a JSON object.
func (o *Object) UnmarshalJSON(data []byte) error {
	parsed, err := ParseObject(data)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
