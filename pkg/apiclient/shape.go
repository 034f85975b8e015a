package apiclient

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// shapeField is a struct member as encoding/json sees it.
type shapeField struct {
	name     string
	typ      reflect.Type
	required bool
	quoted   bool
}

// checkShape walks raw alongside t and reports the first place where the
// document cannot stand for a value of t. raw must already have been
// unmarshalled into t successfully.
func checkShape(t reflect.Type, raw []byte, path string) error {
	if customDecoding(t) {
		return nil
	}
	null := isNull(raw)

	switch t.Kind() {
	case reflect.Pointer:
		if null {
			return nil
		}
		return checkShape(t.Elem(), raw, path)
	case reflect.Interface:
		return nil
	case reflect.Slice:
		if null || t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		for i, item := range items {
			if err := checkShape(t.Elem(), item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if null || t.Key().Kind() != reflect.String {
			return nil
		}
		var members map[string]json.RawMessage
		if err := json.Unmarshal(raw, &members); err != nil {
			return nil
		}
		for k, v := range members {
			if err := checkShape(t.Elem(), v, joinPath(path, k)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		if null {
			return fmt.Errorf("null where %s expects %s", describe(path), t)
		}
		return checkStruct(t, raw, path)
	default:
		if null {
			return fmt.Errorf("null where %s expects %s", describe(path), t)
		}
		return nil
	}
}

func checkStruct(t reflect.Type, raw []byte, path string) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil
	}

	fields := structFields(t)
	matched := 0
	for _, f := range fields {
		val, ok := lookupMember(members, f.name)
		if !ok {
			if f.required {
				return fmt.Errorf("missing required field %s", joinPath(path, f.name))
			}
			continue
		}
		matched++
		if f.quoted || (isNull(val) && !f.required) {
			continue
		}
		if err := checkShape(f.typ, val, joinPath(path, f.name)); err != nil {
			return err
		}
	}
	if len(members) > 0 && len(fields) > 0 && matched == 0 {
		return fmt.Errorf("object at %s shares no field with %s", describe(path), t)
	}
	return nil
}

// structFields lists the JSON members of t, promoting untagged embedded
// structs the way encoding/json does.
func structFields(t reflect.Type) []shapeField {
	var out []shapeField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for _, inner := range structFields(ft) {
					if sf.Type.Kind() == reflect.Pointer {
						inner.required = false
					}
					out = append(out, inner)
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		optional := sf.Type.Kind() == reflect.Pointer
		quoted := false
		for _, opt := range strings.Split(opts, ",") {
			switch opt {
			case "omitempty", "omitzero":
				optional = true
			case "string":
				quoted = true
			}
		}
		out = append(out, shapeField{
			name:     name,
			typ:      sf.Type,
			required: !optional,
			quoted:   quoted,
		})
	}
	return out
}

// lookupMember matches keys like encoding/json: exact first, then
// case-insensitively.
func lookupMember(members map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if v, ok := members[name]; ok {
		return v, true
	}
	for k, v := range members {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func customDecoding(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(jsonUnmarshalerType) || reflect.PointerTo(t).Implements(jsonUnmarshalerType) ||
		t.Implements(textUnmarshalerType) || reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func describe(path string) string {
	if path == "" {
		return "document"
	}
	return path
}
