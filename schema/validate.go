package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ValidationError describes one schema violation.
type ValidationError struct {
	Path    string // JSON path to the invalid field (e.g. "query")
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString("validation failed:")
	for _, err := range e {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate checks JSON data against the schema. Required fields must be
// present; present fields must match their declared type. Fields the
// schema does not know are ignored.
func (s *Schema) Validate(data json.RawMessage) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid JSON: %s", err)}
	}

	var errs ValidationErrors
	s.check("", value, &errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Schema) check(path string, value any, errs *ValidationErrors) {
	if value == nil {
		return
	}

	switch s.Type {
	case "object":
		s.checkObject(path, value, errs)
	case "array":
		s.checkArray(path, value, errs)
	case "string":
		if _, ok := value.(string); !ok {
			*errs = append(*errs, typeError(path, "string", value))
		}
	case "integer":
		num, ok := value.(float64)
		if !ok {
			*errs = append(*errs, typeError(path, "integer", value))
		} else if num != float64(int64(num)) {
			*errs = append(*errs, &ValidationError{Path: path, Message: "expected integer, got decimal number"})
		}
	case "number":
		if _, ok := value.(float64); !ok {
			*errs = append(*errs, typeError(path, "number", value))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			*errs = append(*errs, typeError(path, "boolean", value))
		}
	}
}

func (s *Schema) checkObject(path string, value any, errs *ValidationErrors) {
	obj, ok := value.(map[string]any)
	if !ok {
		*errs = append(*errs, typeError(path, "object", value))
		return
	}

	for _, req := range s.Required {
		if _, exists := obj[req]; !exists {
			*errs = append(*errs, &ValidationError{
				Path:    joinPath(path, req),
				Message: "required field is missing",
			})
		}
	}

	for name, prop := range s.Properties {
		if val, exists := obj[name]; exists {
			prop.check(joinPath(path, name), val, errs)
		}
	}
}

func (s *Schema) checkArray(path string, value any, errs *ValidationErrors) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		*errs = append(*errs, typeError(path, "array", value))
		return
	}

	if s.Items == nil {
		return
	}

	for i := 0; i < rv.Len(); i++ {
		s.Items.check(fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface(), errs)
	}
}

func typeError(path, want string, got any) *ValidationError {
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf("expected %s, got %T", want, got),
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
