// Package schema provides JSON Schema generation and validation for tool inputs.
package schema

import (
	"reflect"
	"strings"
)

// Schema describes the shape of a tool's input object.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Description string             `json:"description,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// Generate creates a Schema from a Go value.
func Generate(v any) (*Schema, error) {
	return GenerateFromType(reflect.TypeOf(v))
}

// GenerateFromType creates a Schema from a reflect.Type.
//
// Struct fields map to object properties named by their json tag. A
// jsonschema tag marks fields required and carries descriptions:
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"required,description=Search query"`
//	}
func GenerateFromType(t reflect.Type) (*Schema, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return generateStruct(t)
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Slice, reflect.Array:
		items, err := GenerateFromType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		return &Schema{Type: "object"}, nil
	default:
		return &Schema{}, nil
	}
}

func generateStruct(t reflect.Type) (*Schema, error) {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			if base, _, _ := strings.Cut(jsonTag, ","); base != "" {
				name = base
			}
		}

		prop, err := GenerateFromType(field.Type)
		if err != nil {
			return nil, err
		}

		applyTag(field.Tag.Get("jsonschema"), prop, s, name)
		s.Properties[name] = prop
	}

	return s, nil
}

// applyTag parses a jsonschema struct tag into the property schema,
// recording required fields on the enclosing object schema.
func applyTag(tag string, prop *Schema, obj *Schema, name string) {
	if tag == "" {
		return
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "required":
			obj.Required = append(obj.Required, name)
		case strings.HasPrefix(part, "description="):
			prop.Description = strings.TrimPrefix(part, "description=")
		}
	}
}
