// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// A Tool is a piece of code that enables the system to interact with
// external systems to perform an action, or set of actions, outside of
// knowledge and scope of the model.
type Tool struct {
	// A list of `FunctionDeclarations` available to the model that can
	// be used for function calling.
	//
	// The model or system does not execute the function. Instead the defined
	// function may be returned as a [FunctionCall] with arguments to the
	// client side for execution. A [ChatSession] executes the call with the
	// matching handler and replies with a [FunctionResponse].
	FunctionDeclarations []*FunctionDeclaration
}

// A ToolHandler executes a function call requested by the model.
// Its result is sent back to the model as a [FunctionResponse].
type ToolHandler func(ctx context.Context, args map[string]any) (map[string]any, error)

// FunctionDeclaration is structured representation of a function declaration as defined by the
// [OpenAPI 3.03 specification](https://spec.openapis.org/oas/v3.0.3). Included
// in this declaration are the function name and parameters.
// Combine FunctionDeclarations into Tools for use in a [ChatSession].
type FunctionDeclaration struct {
	// Required. The name of the function.
	// Must be a-z, A-Z, 0-9, or contain underscores and dashes, with a maximum
	// length of 63.
	Name string
	// Required. A brief description of the function.
	Description string
	// Optional. Describes the parameters to this function.
	Parameters *Schema
	// If set, the handler a ChatSession calls when the model requests this
	// function. A handler registered with [ChatSession.RegisterFunction]
	// takes precedence.
	Handler ToolHandler
}

// NewCallableFunctionDeclaration creates a [FunctionDeclaration] from a Go
// function. When added to a [ChatSession], the function will be called
// automatically when the model requests it.
//
// This function infers the schema ([FunctionDeclaration.Parameters]) from the
// function. See [FunctionSchema] for the restrictions.
// The function may take a context.Context as its first parameter. It may return
// nothing, a value, an error, or a value and an error. A returned map[string]any
// is sent to the model as is; any other value v is sent as {"result": v}.
//
// Parameter names are not available to the program. They can be supplied
// as arguments. If omitted, the names "p0", "p1", ... are used.
func NewCallableFunctionDeclaration(name, description string, function any, paramNames ...string) (*FunctionDeclaration, error) {
	schema, err := FunctionSchema(function, paramNames...)
	if err != nil {
		return nil, err
	}
	h, err := reflectHandler(function, paramNames)
	if err != nil {
		return nil, err
	}
	return &FunctionDeclaration{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Handler:     h,
	}, nil
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

func reflectHandler(function any, paramNames []string) (ToolHandler, error) {
	t, err := funcType(function)
	if err != nil {
		return nil, err
	}
	switch {
	case t.NumOut() > 2:
		return nil, errors.New("function returns too many values")
	case t.NumOut() == 2 && t.Out(1) != errorType:
		return nil, errors.New("second return value of function must be error")
	}
	fv := reflect.ValueOf(function)
	takesContext := t.NumIn() > 0 && t.In(0) == contextType
	params := schemaParams(t)

	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		var in []reflect.Value
		if takesContext {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, pt := range params {
			name := paramName(i, paramNames)
			raw, ok := args[name]
			if !ok {
				return nil, fmt.Errorf("missing argument %q", name)
			}
			v, err := convertArg(raw, pt)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", name, err)
			}
			in = append(in, v)
		}
		return handlerResult(fv.Call(in))
	}, nil
}

// convertArg converts a JSON-shaped argument value into a value of type t.
func convertArg(raw any, t reflect.Type) (reflect.Value, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(t)
	if err := json.Unmarshal(b, p.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return p.Elem(), nil
}

func handlerResult(out []reflect.Value) (map[string]any, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return nil, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return map[string]any{}, nil
	}
	if m, ok := out[0].Interface().(map[string]any); ok {
		return m, nil
	}
	v, err := jsonValue(out[0].Interface())
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": v}, nil
}

// jsonValue converts v to the generic form produced by decoding JSON, so that
// structs and typed slices can be carried in a protobuf Struct.
func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var g any
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, err
	}
	return g, nil
}

// validateTools checks that every declared function has a unique, non-empty name.
func validateTools(tools []*Tool) error {
	seen := map[string]bool{}
	for _, tool := range tools {
		if tool == nil {
			continue
		}
		for _, fd := range tool.FunctionDeclarations {
			if fd == nil || fd.Name == "" {
				return &ConfigurationError{Field: "Tools", Reason: "function declaration without a name"}
			}
			if seen[fd.Name] {
				return &ConfigurationError{Field: "Tools", Reason: fmt.Sprintf("duplicate function %q", fd.Name)}
			}
			seen[fd.Name] = true
		}
	}
	return nil
}
