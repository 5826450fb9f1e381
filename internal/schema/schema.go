// Package schema implements the minimal JSON-Schema subset used for
// pre-dispatch validation of capability inputs: type, required, enum and
// minLength. Anything richer belongs in the adapter itself.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// Validate checks args against a minimal JSON-Schema-like map. It returns a
// *core.ValidationError describing the first violation, or nil.
func Validate(args map[string]any, schema map[string]any) error {
	if schema == nil {
		return nil
	}

	for _, name := range requiredFields(schema) {
		if _, ok := args[name]; !ok {
			return &core.ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for name, value := range args {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue // extra fields are allowed
		}
		if err := validateValue(name, value, prop); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(field string, value any, prop map[string]any) error {
	wantType, _ := prop["type"].(string)
	if wantType != "" && !matchesType(value, wantType) {
		return &core.ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("expected type %s, got %T", wantType, value),
		}
	}

	if s, ok := value.(string); ok {
		if min, ok := intOption(prop, "minLength"); ok && len(strings.TrimSpace(s)) < min {
			return &core.ValidationError{
				Field:   field,
				Value:   value,
				Message: fmt.Sprintf("must be at least %d characters", min),
			}
		}
	}

	if enum, ok := prop["enum"].([]any); ok && len(enum) > 0 {
		for _, allowed := range enum {
			if reflect.DeepEqual(value, allowed) {
				return nil
			}
		}
		return &core.ValidationError{Field: field, Value: value, Message: "value not in enum"}
	}

	return nil
}

// FromStruct derives a schema from a struct's exported fields. Field names
// come from json tags; a "description" tag becomes the property description;
// pointer or omitempty fields are optional.
func FromStruct(v any) map[string]any {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	props := map[string]any{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}

		prop := map[string]any{"type": jsonType(f.Type)}
		if desc := f.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		props[name] = prop

		optional := f.Type.Kind() == reflect.Ptr || strings.Contains(opts, "omitempty")
		if !optional {
			required = append(required, name)
		}
	}

	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func intOption(prop map[string]any, key string) (int, bool) {
	switch v := prop[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func matchesType(value any, want string) bool {
	if value == nil {
		return true
	}
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			// JSON numbers decode as float64
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}
