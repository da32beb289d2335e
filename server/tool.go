package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/opensupplyhub/os-hub-mcp/protocol"
	"github.com/opensupplyhub/os-hub-mcp/schema"
)

// Tool represents a callable operation exposed to clients. Handlers
// produce a text report; the dispatch layer wraps it as text content.
type Tool struct {
	name        string
	description string
	inputType   reflect.Type
	inputSchema *schema.Schema
	handler     any
	hasContext  bool
}

// ToolBuilder provides a fluent API for building tools.
type ToolBuilder struct {
	tool   *Tool
	server *Server
	err    error
}

// Description sets the tool description.
func (b *ToolBuilder) Description(desc string) *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.description = desc
	return b
}

// Handler sets the tool handler function and registers the tool.
// Handler signature must be one of:
//   - func(input T) (string, error)
//   - func(ctx context.Context, input T) (string, error)
//
// The input struct's json tags define the tool's schema; fields tagged
// `jsonschema:"required"` must be present in every call.
func (b *ToolBuilder) Handler(fn any) *ToolBuilder {
	if b.err != nil {
		return b
	}

	if err := b.validateHandler(fn); err != nil {
		b.err = err
		return b
	}

	b.tool.handler = fn
	b.server.registerTool(b.tool)
	return b
}

// Err returns the first error encountered while building.
func (b *ToolBuilder) Err() error {
	return b.err
}

// validateHandler validates the handler function signature.
func (b *ToolBuilder) validateHandler(fn any) error {
	fnType := reflect.TypeOf(fn)

	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %v", fnType)
	}

	// Check number of inputs
	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return fmt.Errorf("handler must have 1 or 2 parameters, got %d", numIn)
	}

	// Check for context as first param
	var inputParamIdx int
	if numIn == 2 {
		if !fnType.In(0).Implements(reflect.TypeOf((*context.Context)(nil)).Elem()) {
			return fmt.Errorf("first parameter must be context.Context when using 2 parameters")
		}
		b.tool.hasContext = true
		inputParamIdx = 1
	} else {
		inputParamIdx = 0
	}

	// Store input type
	inputType := fnType.In(inputParamIdx)
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	b.tool.inputType = inputType

	// Generate input schema
	inputSchema, err := schema.GenerateFromType(inputType)
	if err != nil {
		return fmt.Errorf("failed to generate input schema: %w", err)
	}
	b.tool.inputSchema = inputSchema

	// Check outputs
	if fnType.NumOut() != 2 {
		return fmt.Errorf("handler must return (string, error), got %d return values", fnType.NumOut())
	}

	if fnType.Out(0).Kind() != reflect.String {
		return fmt.Errorf("first return value must be string, got %s", fnType.Out(0))
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("second return value must be error")
	}

	return nil
}

// Execute validates the JSON input against the tool's schema and runs
// the handler. Absent arguments are treated as an empty object so that
// required-field checks still fire.
func (t *Tool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	if err := t.inputSchema.Validate(input); err != nil {
		return "", protocol.NewInvalidParams(fmt.Sprintf("invalid arguments for tool %q: %v", t.name, err))
	}

	inputPtr := reflect.New(t.inputType)
	if err := json.Unmarshal(input, inputPtr.Interface()); err != nil {
		return "", protocol.NewInvalidParams(fmt.Sprintf("invalid arguments for tool %q: %v", t.name, err))
	}

	fnVal := reflect.ValueOf(t.handler)
	var args []reflect.Value

	if t.hasContext {
		args = append(args, reflect.ValueOf(ctx))
	}

	args = append(args, inputPtr.Elem())

	results := fnVal.Call(args)

	text := results[0].String()
	errVal := results[1].Interface()

	if errVal != nil {
		return "", errVal.(error)
	}

	return text, nil
}
