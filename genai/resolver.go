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
	"fmt"
)

// FunctionCallPolicy says which of the function calls in a response a
// ChatSession executes.
type FunctionCallPolicy int

const (
	// FunctionCallsFirst executes only the first function call of a response.
	FunctionCallsFirst FunctionCallPolicy = iota
	// FunctionCallsAll executes every function call of a response, in order,
	// and answers them together in one turn.
	FunctionCallsAll
)

func (p FunctionCallPolicy) String() string {
	switch p {
	case FunctionCallsFirst:
		return "FunctionCallsFirst"
	case FunctionCallsAll:
		return "FunctionCallsAll"
	default:
		return fmt.Sprintf("FunctionCallPolicy(%d)", int(p))
	}
}

// DefaultMaxToolRounds is the number of rounds of function calls a
// ChatSession runs for one message when MaxToolRounds is zero.
const DefaultMaxToolRounds = 10

// functionResolver finds the function calls in a response and answers them.
type functionResolver struct {
	policy   FunctionCallPolicy
	handlers map[string]ToolHandler
	tools    []*Tool
}

// lookup returns the handler for the named function. Handlers registered
// with the session take precedence over those in the declarations.
func (r *functionResolver) lookup(name string) (ToolHandler, bool) {
	if h, ok := r.handlers[name]; ok && h != nil {
		return h, true
	}
	for _, t := range r.tools {
		if t == nil {
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			if fd != nil && fd.Name == name && fd.Handler != nil {
				return fd.Handler, true
			}
		}
	}
	return nil, false
}

// automatic reports whether any handler is available. Without one, function
// calls are left to the caller.
func (r *functionResolver) automatic() bool {
	for _, h := range r.handlers {
		if h != nil {
			return true
		}
	}
	for _, t := range r.tools {
		if t == nil {
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			if fd != nil && fd.Handler != nil {
				return true
			}
		}
	}
	return false
}

// calls returns the function calls of resp to execute.
func (r *functionResolver) calls(resp *GenerateContentResponse) []FunctionCall {
	fcs := resp.FunctionCalls()
	if r.policy == FunctionCallsFirst && len(fcs) > 1 {
		fcs = fcs[:1]
	}
	return fcs
}

// respond runs the handlers for calls in order and returns a user turn
// holding their results.
func (r *functionResolver) respond(ctx context.Context, calls []FunctionCall) (*Content, error) {
	parts := make([]Part, 0, len(calls))
	for _, fc := range calls {
		h, ok := r.lookup(fc.Name)
		if !ok {
			return nil, &UnknownToolError{Name: fc.Name}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := h(ctx, fc.Args)
		if err != nil {
			return nil, &ToolError{Name: fc.Name, Err: err}
		}
		if res == nil {
			res = map[string]any{}
		}
		parts = append(parts, FunctionResponse{Name: fc.Name, Response: res})
	}
	return &Content{Role: roleUser, Parts: parts}, nil
}
