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
	"errors"
	"strings"
	"testing"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"
)

type ctxKey struct{}

type point struct {
	X, Y int
}

func TestCallableFunctionDeclaration(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	for _, test := range []struct {
		name     string
		function any
		params   []string
		args     map[string]any
		want     map[string]any
	}{
		{
			name:     "value",
			function: func(a int, b string) string { return strings.Repeat(b, a) },
			params:   []string{"a", "b"},
			args:     map[string]any{"a": 2.0, "b": "x"},
			want:     map[string]any{"result": "xx"},
		},
		{
			name: "context",
			function: func(ctx context.Context) (string, error) {
				return ctx.Value(ctxKey{}).(string), nil
			},
			args: map[string]any{},
			want: map[string]any{"result": "v"},
		},
		{
			name:     "default names",
			function: func(a, b float64) float64 { return a + b },
			args:     map[string]any{"p0": 1.5, "p1": 2.0},
			want:     map[string]any{"result": 3.5},
		},
		{
			name:     "struct",
			function: func(x, y int) point { return point{x, y} },
			params:   []string{"x", "y"},
			args:     map[string]any{"x": 1.0, "y": 2.0},
			want:     map[string]any{"result": map[string]any{"X": 1.0, "Y": 2.0}},
		},
		{
			name:     "slice",
			function: func(xs []int) []int { return append(xs, 0) },
			params:   []string{"xs"},
			args:     map[string]any{"xs": []any{3.0}},
			want:     map[string]any{"result": []any{3.0, 0.0}},
		},
		{
			name:     "map",
			function: func() map[string]any { return map[string]any{"ok": true} },
			args:     map[string]any{},
			want:     map[string]any{"ok": true},
		},
		{
			name:     "no result",
			function: func(s string) {},
			args:     map[string]any{"p0": "s"},
			want:     map[string]any{},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			fd, err := NewCallableFunctionDeclaration("f", "a function", test.function, test.params...)
			if err != nil {
				t.Fatal(err)
			}
			if fd.Handler == nil {
				t.Fatal("no handler")
			}
			got, err := fd.Handler(ctx, test.args)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestCallableFunctionErrors(t *testing.T) {
	errBoom := errors.New("boom")
	fd, err := NewCallableFunctionDeclaration("f", "", func(n int) (int, error) {
		if n < 0 {
			return 0, errBoom
		}
		return n, nil
	}, "n")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := fd.Handler(ctx, map[string]any{"n": -1.0}); !errors.Is(err, errBoom) {
		t.Errorf("got %v, want %v", err, errBoom)
	}
	if _, err := fd.Handler(ctx, map[string]any{}); err == nil || !strings.Contains(err.Error(), "missing argument") {
		t.Errorf("got %v, want missing argument error", err)
	}
	if _, err := fd.Handler(ctx, map[string]any{"n": "three"}); err == nil {
		t.Error("got nil, want error for a string argument")
	}

	for _, f := range []any{
		func() (int, int) { return 0, 0 },
		func() (int, error, bool) { return 0, nil, false },
		func(x ...int) {},
		"not a function",
	} {
		if _, err := NewCallableFunctionDeclaration("f", "", f); err == nil {
			t.Errorf("%T: got nil, want error", f)
		}
	}
}

func TestFunctionDeclarationToProto(t *testing.T) {
	fd, err := NewCallableFunctionDeclaration("CurrentWeather", "Get the current weather in a given location",
		func(location string, unit *string) string { return "" }, "location", "unit")
	if err != nil {
		t.Fatal(err)
	}
	got := (&Tool{FunctionDeclarations: []*FunctionDeclaration{fd}}).toProto()
	// The handler stays on the client.
	want := &pb.Tool{FunctionDeclarations: []*pb.FunctionDeclaration{{
		Name:        "CurrentWeather",
		Description: "Get the current weather in a given location",
		Parameters: &pb.Schema{
			Type: pb.Type_OBJECT,
			Properties: map[string]*pb.Schema{
				"location": {Type: pb.Type_STRING},
				"unit":     {Type: pb.Type_STRING, Nullable: true},
			},
			Required: []string{"location", "unit"},
		},
	}}}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestValidateTools(t *testing.T) {
	f := &FunctionDeclaration{Name: "f"}
	for _, test := range []struct {
		tools []*Tool
		ok    bool
	}{
		{nil, true},
		{[]*Tool{nil, {FunctionDeclarations: []*FunctionDeclaration{f}}}, true},
		{[]*Tool{{FunctionDeclarations: []*FunctionDeclaration{f, {Name: "g"}}}}, true},
		{[]*Tool{{FunctionDeclarations: []*FunctionDeclaration{{}}}}, false},
		{[]*Tool{{FunctionDeclarations: []*FunctionDeclaration{nil}}}, false},
		{[]*Tool{{FunctionDeclarations: []*FunctionDeclaration{f}}, {FunctionDeclarations: []*FunctionDeclaration{f}}}, false},
	} {
		err := validateTools(test.tools)
		if got := err == nil; got != test.ok {
			t.Errorf("%v: got error %v", test.tools, err)
			continue
		}
		var cerr *ConfigurationError
		if err != nil && !errors.As(err, &cerr) {
			t.Errorf("got %T, want *ConfigurationError", err)
		}
	}
}

func TestResolverLookup(t *testing.T) {
	called := ""
	handler := func(name string) ToolHandler {
		return func(context.Context, map[string]any) (map[string]any, error) {
			called = name
			return nil, nil
		}
	}
	r := &functionResolver{
		handlers: map[string]ToolHandler{"f": handler("session")},
		tools: []*Tool{{FunctionDeclarations: []*FunctionDeclaration{
			{Name: "f", Handler: handler("declared f")},
			{Name: "g", Handler: handler("declared g")},
			{Name: "h"},
		}}},
	}
	if !r.automatic() {
		t.Fatal("automatic() = false with handlers")
	}
	for name, want := range map[string]string{"f": "session", "g": "declared g"} {
		h, ok := r.lookup(name)
		if !ok {
			t.Fatalf("%s: no handler", name)
		}
		h(context.Background(), nil)
		if called != want {
			t.Errorf("%s: called %q, want %q", name, called, want)
		}
	}
	if _, ok := r.lookup("h"); ok {
		t.Error("found a handler for a declaration without one")
	}
	resp, err := r.respond(context.Background(), []FunctionCall{{Name: "g"}})
	if err != nil {
		t.Fatal(err)
	}
	want := &Content{Role: roleUser, Parts: []Part{FunctionResponse{Name: "g", Response: map[string]any{}}}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
	if (&functionResolver{tools: []*Tool{{FunctionDeclarations: []*FunctionDeclaration{{Name: "h"}}}}}).automatic() {
		t.Error("automatic() = true without handlers")
	}
}

func TestFunctionCallPolicyString(t *testing.T) {
	if got := FunctionCallsAll.String(); got != "FunctionCallsAll" {
		t.Errorf("got %q", got)
	}
	if got := FunctionCallPolicy(7).String(); got != "FunctionCallPolicy(7)" {
		t.Errorf("got %q", got)
	}
}
