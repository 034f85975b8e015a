package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
)

// Decoder turns a successful response body into T.
type Decoder[T any] func(body []byte) (T, error)

// JSONDecoder decodes the body as JSON into T and rejects bodies that do not
// fit it: an empty body, a null where T cannot hold one, an object missing a
// required struct field, or an object sharing no member with a struct.
// Struct fields are required unless tagged omitempty/omitzero or declared as
// pointers. Unknown members are ignored.
func JSONDecoder[T any]() Decoder[T] {
	return func(body []byte) (T, error) {
		var out T
		if err := json.Unmarshal(body, &out); err != nil {
			var zero T
			return zero, err
		}
		if err := checkShape(reflect.TypeOf(&out).Elem(), body, ""); err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}

// StrictJSONDecoder is JSONDecoder that also rejects unknown object members
// and trailing data.
func StrictJSONDecoder[T any]() Decoder[T] {
	return func(body []byte) (T, error) {
		var out T
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out); err != nil {
			var zero T
			return zero, err
		}
		if dec.More() {
			var zero T
			return zero, errors.New("unexpected trailing data after JSON document")
		}
		if err := checkShape(reflect.TypeOf(&out).Elem(), body, ""); err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}

// RawDecoder returns the body unchanged.
func RawDecoder() Decoder[[]byte] {
	return func(body []byte) ([]byte, error) {
		return append([]byte(nil), body...), nil
	}
}

// StringDecoder returns the body as text.
func StringDecoder() Decoder[string] {
	return func(body []byte) (string, error) {
		return string(body), nil
	}
}

// Erase adapts a typed decoder for callers that handle heterogeneous results.
func Erase[T any](dec Decoder[T]) Decoder[any] {
	return func(body []byte) (any, error) {
		v, err := dec(body)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
