package point

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind enumerates the payload value variants.
type Kind int

const (
	// KindNull is an explicit JSON null.
	KindNull Kind = iota
	// KindString is a string value.
	KindString
	// KindNumber is a float64 value.
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindList is an ordered list of values.
	KindList
	// KindMap is a nested string-keyed map.
	KindMap
)

// Value is a payload field value: a closed union over the JSON scalar
// and container types. Handling it by Kind keeps the formatter
// exhaustive instead of switching on interface{} shapes.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

// Null creates a null value.
func Null() Value { return Value{kind: KindNull} }

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List creates a list value.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// Map creates a map value.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string content and whether the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric content and whether the value is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the boolean content and whether the value is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsList returns the list content and whether the value is a list.
func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// AsMap returns the map content and whether the value is a map.
func (v Value) AsMap() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// MarshalJSON serializes the value as plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON parses plain JSON into the matching variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode payload value: %w", err)
	}
	parsed, err := fromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromInterface(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("payload number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case []interface{}:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			val, err := fromInterface(item)
			if err != nil {
				return Value{}, err
			}
			list = append(list, val)
		}
		return List(list...), nil
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			val, err := fromInterface(item)
			if err != nil {
				return Value{}, err
			}
			m[k] = val
		}
		return Map(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported payload value type %T", raw)
	}
}

// Payload is the stored field set of a point.
type Payload map[string]Value

// Text returns the "text" payload field when it is a string.
func (p Payload) Text() (string, bool) {
	v, ok := p["text"]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Keys returns the payload field names in sorted order.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
