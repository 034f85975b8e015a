package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Params is an ordered, string-keyed parameter bag. The zero value is an
// empty bag ready to use.
type Params struct {
	entries []param
}

type param struct {
	key string
	val Value
}

// NewParams builds a bag from alternating key/value pairs, e.g.
// NewParams("q", String("go"), "page", Int(2)).
func NewParams(kv ...any) (Params, error) {
	if len(kv)%2 != 0 {
		return Params{}, errors.New("params: odd number of arguments")
	}
	var p Params
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return Params{}, fmt.Errorf("params: key at %d is %T, not string", i, kv[i])
		}
		val, ok := kv[i+1].(Value)
		if !ok {
			return Params{}, fmt.Errorf("params: value for %q is %T, not Value", key, kv[i+1])
		}
		p.Set(key, val)
	}
	return p, nil
}

// ParamsFrom converts any JSON-serializable Go value whose encoding is an
// object (a struct, a map with string keys) into a Params bag. A nil value
// yields an empty bag.
func ParamsFrom(v any) (Params, error) {
	switch t := v.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return t, nil
	case *Params:
		if t == nil {
			return Params{}, nil
		}
		return *t, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return Params{}, fmt.Errorf("params: encode %T: %w", v, err)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Params{}, nil
	}

	var p Params
	if err := p.UnmarshalJSON(raw); err != nil {
		return Params{}, fmt.Errorf("params: %T is not an object: %w", v, err)
	}
	return p, nil
}

// Set adds key or replaces its value, keeping the original position.
func (p *Params) Set(key string, v Value) *Params {
	for i := range p.entries {
		if p.entries[i].key == key {
			p.entries[i].val = v
			return p
		}
	}
	p.entries = append(p.entries, param{key: key, val: v})
	return p
}

// Get returns the value stored under key.
func (p Params) Get(key string) (Value, bool) {
	for _, e := range p.entries {
		if e.key == key {
			return e.val, true
		}
	}
	return Value{}, false
}

// Len returns the number of entries.
func (p Params) Len() int { return len(p.entries) }

// Keys returns the keys in insertion order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Each calls fn for every entry in insertion order.
func (p Params) Each(fn func(key string, v Value)) {
	for _, e := range p.entries {
		fn(e.key, e.val)
	}
}

// Equal reports whether both bags hold the same keys with equal values.
func (p Params) Equal(o Params) bool {
	if len(p.entries) != len(o.entries) {
		return false
	}
	for _, e := range p.entries {
		ov, ok := o.Get(e.key)
		if !ok || !e.val.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the bag as a JSON object in insertion order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := e.val.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", e.key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, replacing the current contents.
func (p *Params) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	if v.Type() != ObjectValue {
		return fmt.Errorf("expected object, got %s", v.Type())
	}
	*p = v.obj
	return nil
}
