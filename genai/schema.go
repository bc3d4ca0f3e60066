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
	"errors"
	"fmt"
	"reflect"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
)

// Type contains the list of OpenAPI data types as defined by
// https://spec.openapis.org/oas/v3.0.3#data-types
type Type int32

const (
	// TypeUnspecified means not specified, should not be used.
	TypeUnspecified Type = 0
	// TypeString means string type.
	TypeString Type = 1
	// TypeNumber means number type.
	TypeNumber Type = 2
	// TypeInteger means integer type.
	TypeInteger Type = 3
	// TypeBoolean means boolean type.
	TypeBoolean Type = 4
	// TypeArray means array type.
	TypeArray Type = 5
	// TypeObject means object type.
	TypeObject Type = 6
)

func (v Type) String() string { return pb.Type(v).String() }

// Schema is used to define the format of input/output data. Represents a select
// subset of an [OpenAPI 3.0 schema object](https://spec.openapis.org/oas/v3.0.3#schema).
type Schema struct {
	// Required. Data type.
	Type Type
	// Optional. The format of the data. This is used only for primitive datatypes.
	// Supported formats:
	//  for NUMBER type: float, double
	//  for INTEGER type: int32, int64
	Format string
	// Optional. A brief description of the parameter.
	Description string
	// Optional. Indicates if the value may be null.
	Nullable bool
	// Optional. Possible values of the element of Type.STRING with enum format.
	Enum []string
	// Optional. Schema of the elements of Type.ARRAY.
	Items *Schema
	// Optional. Properties of Type.OBJECT.
	Properties map[string]*Schema
	// Optional. Required properties of Type.OBJECT.
	Required []string
}

// FunctionSchema returns a Schema for a Go function.
// Not all functions can be represented as Schemas.
// At present, variadic functions are not supported, and parameters
// must be of builtin, pointer, slice or array type.
// A leading context.Context parameter is not part of the schema.
//
// Parameter names are not available to the program. They can be supplied
// as arguments. If omitted, the names "p0", "p1", ... are used.
func FunctionSchema(function any, paramNames ...string) (*Schema, error) {
	t, err := funcType(function)
	if err != nil {
		return nil, err
	}
	params := map[string]*Schema{}
	var req []string
	for i, in := range schemaParams(t) {
		name := paramName(i, paramNames)
		s, err := typeSchema(in)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		params[name] = s
		// All parameters are required.
		req = append(req, name)
	}
	return &Schema{
		Type:       TypeObject,
		Properties: params,
		Required:   req,
	}, nil
}

func funcType(function any) (reflect.Type, error) {
	t := reflect.TypeOf(function)
	if t == nil || t.Kind() != reflect.Func {
		return nil, fmt.Errorf("value of type %T is not a function", function)
	}
	if t.IsVariadic() {
		return nil, errors.New("variadic functions not supported")
	}
	return t, nil
}

// schemaParams returns the parameter types of t that the model supplies.
func schemaParams(t reflect.Type) []reflect.Type {
	var ins []reflect.Type
	for i := 0; i < t.NumIn(); i++ {
		if i == 0 && t.In(0) == contextType {
			continue
		}
		ins = append(ins, t.In(i))
	}
	return ins
}

func paramName(i int, names []string) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("p%d", i)
}

func typeSchema(t reflect.Type) (_ *Schema, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%s: %w", t, err)
		}
	}()
	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeBoolean}, nil
	case reflect.String:
		return &Schema{Type: TypeString}, nil
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return &Schema{Type: TypeInteger, Format: "int64"}, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return &Schema{Type: TypeInteger, Format: "int32"}, nil
	case reflect.Float32:
		return &Schema{Type: TypeNumber, Format: "float"}, nil
	case reflect.Float64, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return &Schema{Type: TypeNumber, Format: "double"}, nil
	case reflect.Slice, reflect.Array:
		elemSchema, err := typeSchema(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: TypeArray, Items: elemSchema}, nil
	case reflect.Pointer:
		// Treat a *T as a nullable T.
		s, err := typeSchema(t.Elem())
		if err != nil {
			return nil, err
		}
		s.Nullable = true
		return s, nil
	default:
		return nil, errors.New("not supported")
	}
}
