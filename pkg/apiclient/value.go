package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueType identifies the variant held by a Value.
type ValueType int

const (
	NullValue ValueType = iota
	StringValue
	NumberValue
	BoolValue
	ArrayValue
	ObjectValue
)

func (t ValueType) String() string {
	switch t {
	case NullValue:
		return "null"
	case StringValue:
		return "string"
	case NumberValue:
		return "number"
	case BoolValue:
		return "bool"
	case ArrayValue:
		return "array"
	case ObjectValue:
		return "object"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Value is a closed JSON value tree used for request parameters.
// The zero Value is null.
type Value struct {
	typ   ValueType
	str   string
	num   float64
	isInt bool
	i     int64
	b     bool
	arr   []Value
	obj   Params
}

func Null() Value           { return Value{} }
func String(s string) Value { return Value{typ: StringValue, str: s} }
func Bool(b bool) Value     { return Value{typ: BoolValue, b: b} }
func Int(i int64) Value     { return Value{typ: NumberValue, isInt: true, i: i, num: float64(i)} }
func Float(f float64) Value { return Value{typ: NumberValue, num: f} }
func Object(p Params) Value { return Value{typ: ObjectValue, obj: p} }
func Array(vs ...Value) Value {
	return Value{typ: ArrayValue, arr: append([]Value(nil), vs...)}
}

// Type reports the variant held by v.
func (v Value) Type() ValueType { return v.typ }

// Items returns a copy of the elements of an array value.
func (v Value) Items() []Value {
	if v.typ != ArrayValue {
		return nil
	}
	return append([]Value(nil), v.arr...)
}

// Fields returns the members of an object value.
func (v Value) Fields() Params {
	if v.typ != ObjectValue {
		return Params{}
	}
	return v.obj
}

// Text renders v the way it appears in a query string: strings verbatim,
// numbers in shortest decimal form, booleans as true/false, null as the
// empty string and composites as compact JSON.
func (v Value) Text() string {
	switch v.typ {
	case StringValue:
		return v.str
	case NumberValue:
		return v.numberText()
	case BoolValue:
		return strconv.FormatBool(v.b)
	case ArrayValue, ObjectValue:
		raw, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return ""
	}
}

func (v Value) numberText() string {
	if v.isInt {
		return strconv.FormatInt(v.i, 10)
	}
	abs := math.Abs(v.num)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.FormatFloat(v.num, format, -1, 64)
}

// MarshalJSON encodes v. NaN and infinities cannot be represented and fail.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case NullValue:
		return []byte("null"), nil
	case StringValue:
		return json.Marshal(v.str)
	case NumberValue:
		if !v.isInt && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
			return nil, fmt.Errorf("unsupported number %v", v.num)
		}
		return []byte(v.numberText()), nil
	case BoolValue:
		return []byte(strconv.FormatBool(v.b)), nil
	case ArrayValue:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			raw, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case ObjectValue:
		return v.obj.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown value type %d", int(v.typ))
	}
}

// UnmarshalJSON decodes any JSON document into v, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected trailing data")
	}
	*v = out
	return nil
}

// Equal reports whether two values hold the same JSON data. Object members
// are compared without regard to order.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case NullValue:
		return true
	case StringValue:
		return v.str == o.str
	case NumberValue:
		if v.isInt && o.isInt {
			return v.i == o.i
		}
		return v.num == o.num
	case BoolValue:
		return v.b == o.b
	case ArrayValue:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case ObjectValue:
		return v.obj.Equal(o.obj)
	}
	return false
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", t, err)
		}
		return Float(f), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{typ: ArrayValue, arr: items}, nil
		case '{':
			p, err := decodeObject(dec)
			if err != nil {
				return Value{}, err
			}
			return Object(p), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// decodeObject reads members until the closing brace; the opening brace
// must already have been consumed.
func decodeObject(dec *json.Decoder) (Params, error) {
	var p Params
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Params{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Params{}, fmt.Errorf("object key is %T, not string", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Params{}, err
		}
		p.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return Params{}, err
	}
	return p, nil
}
