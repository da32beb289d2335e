// Package schema generates JSON Schemas from Go structs and validates
// tool arguments against them before a handler runs.
//
// # Generation
//
// A tool's input struct declares its schema through tags:
//
//	type SearchInput struct {
//	    Query string `json:"query" jsonschema:"required,description=Query string"`
//	}
//
//	s, err := schema.Generate(SearchInput{})
//
// The json tag controls the property name, `json:"-"` excludes a field,
// and the jsonschema tag contributes "required" and "description=...".
// Strings, integers, floats, booleans, slices, maps, and nested structs
// map to their JSON Schema counterparts; pointers are dereferenced.
//
// # Validation
//
// Validate checks raw argument JSON against the schema: every required
// property must be present and every present property must match its
// declared type. Properties the schema does not declare are ignored, so
// callers may send extra fields without failing the call.
//
//	if err := s.Validate(args); err != nil {
//	    // err lists each violation with its JSON path
//	}
package schema
