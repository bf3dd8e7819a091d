package masking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which variant of the Value union is populated.
type Kind uint8

const (
	// KindNull is an absent value (JSON null, SQL NULL).
	KindNull Kind = iota
	// KindScalar is a leaf: string, number, bool, time, bytes or any other non-container.
	KindScalar
	// KindMapping is an ordered string-keyed mapping.
	KindMapping
	// KindSequence is an ordered list of values.
	KindSequence
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is structured data of unknown shape: a null, a scalar, an ordered
// mapping or a sequence. The zero Value is null.
//
// Values are treated as immutable once built; the engine always produces
// new containers instead of modifying its input.
type Value struct {
	kind   Kind
	scalar any
	fields *orderedmap.OrderedMap[string, Value]
	items  []Value
}

// Field is a single key/value entry of a mapping.
type Field struct {
	Key   string
	Value Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Scalar wraps a leaf value. A nil argument yields Null.
func Scalar(v any) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindScalar, scalar: v}
}

// String is shorthand for Scalar with a string.
func String(s string) Value { return Value{kind: KindScalar, scalar: s} }

// Mapping builds an ordered mapping. A repeated key replaces the earlier
// value and keeps the position of its first occurrence.
func Mapping(fields ...Field) Value {
	om := orderedmap.New[string, Value]()
	for _, f := range fields {
		om.Set(f.Key, f.Value)
	}
	return Value{kind: KindMapping, fields: om}
}

// Sequence builds an ordered list.
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, items: items}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Raw returns the wrapped scalar, or nil for any other kind.
func (v Value) Raw() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Len returns the number of entries of a mapping or sequence, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindMapping:
		return v.fields.Len()
	case KindSequence:
		return len(v.items)
	default:
		return 0
	}
}

// Keys returns mapping keys in order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, v.fields.Len())
	for pair := v.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get looks up a mapping key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	return v.fields.Get(key)
}

// Fields returns mapping entries in order.
func (v Value) Fields() []Field {
	if v.kind != KindMapping {
		return nil
	}
	out := make([]Field, 0, v.fields.Len())
	for pair := v.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Field{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// Items returns a copy of the sequence elements.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Truncate returns a sequence holding at most n leading elements.
// Other kinds, and n <= 0, return v unchanged.
func (v Value) Truncate(n int) Value {
	if v.kind != KindSequence || n <= 0 || n >= len(v.items) {
		return v
	}
	return Sequence(v.items[:n:n]...)
}

// FromAny converts plain Go data into a Value. Keys of Go maps are taken in
// sorted order since Go maps carry none.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *orderedmap.OrderedMap[string, any]:
		if t == nil {
			return Null()
		}
		om := orderedmap.New[string, Value]()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			om.Set(pair.Key, FromAny(pair.Value))
		}
		return Value{kind: KindMapping, fields: om}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: FromAny(t[k])})
		}
		return Mapping(fields...)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return FromAny(m)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return Sequence(items...)
	case []map[string]any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return Sequence(items...)
	case []string:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = String(e)
		}
		return Sequence(items...)
	default:
		return Scalar(t)
	}
}

// MarshalJSON encodes v with mapping keys in their stored order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindScalar:
		b, err := json.Marshal(v.scalar)
		if err != nil {
			return fmt.Errorf("encode scalar %T: %w", v.scalar, err)
		}
		buf.Write(b)
	case KindMapping:
		buf.WriteByte('{')
		first := true
		for pair := v.fields.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := pair.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

// UnmarshalJSON decodes any JSON document into v, keeping object key order
// and leaving numbers as json.Number.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	decoded, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level JSON value")
	}
	*v = decoded
	return nil
}

// ParseJSON decodes a JSON document into a Value.
func ParseJSON(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			om := orderedmap.New[string, Value]()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				child, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				om.Set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindMapping, fields: om}, nil
		case '[':
			items := []Value{}
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, child)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Sequence(items...), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case nil:
		return Null(), nil
	default:
		return Scalar(t), nil
	}
}
