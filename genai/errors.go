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
	"fmt"
	"io"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
)

// An InvalidContentError reports a malformed Content, such as one with no parts.
type InvalidContentError struct {
	Reason string
}

func (e *InvalidContentError) Error() string {
	return "genai: invalid content: " + e.Reason
}

// An InvalidHistoryError reports a chat history whose roles do not alternate.
type InvalidHistoryError struct {
	// Index of the offending entry.
	Index  int
	Reason string
}

func (e *InvalidHistoryError) Error() string {
	return fmt.Sprintf("genai: invalid history at entry %d: %s", e.Index, e.Reason)
}

// A ConfigurationError reports contradictory or out-of-range model settings.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("genai: bad configuration: %s: %s", e.Field, e.Reason)
}

// A TransportError wraps a failure reported by the [Transport], such as a
// network error, an error status from the backend, or a timeout.
//
// Use [errors.As] to get at the underlying error. For the default transport
// this is often a *googleapi.Error, which in turn wraps an *apierror.APIError
// with structured details.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "genai: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// An UnknownToolError is returned when the model calls a function for which no
// handler is registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("genai: no handler for function %q", e.Name)
}

// A ToolLoopExceededError is returned when the model keeps requesting
// function calls after MaxRounds rounds of tool execution.
type ToolLoopExceededError struct {
	MaxRounds int
}

func (e *ToolLoopExceededError) Error() string {
	return fmt.Sprintf("genai: model still calling functions after %d rounds", e.MaxRounds)
}

// A ToolError wraps an error returned by a function handler.
type ToolError struct {
	Name string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("genai: function %q: %v", e.Name, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// A BlockedError indicates that the model's response was blocked.
// There can be two underlying causes: the prompt or a candidate response.
type BlockedError struct {
	// If non-nil, the model's response was blocked.
	// Consult the Candidate and SafetyRatings fields for details.
	Candidate *Candidate

	// If non-nil, there was a problem with the prompt.
	PromptFeedback *PromptFeedback
}

func (e *BlockedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blocked: ")
	if e.Candidate != nil {
		fmt.Fprintf(&b, "candidate: %s", e.Candidate.FinishReason)
	}
	if e.PromptFeedback != nil {
		if e.Candidate != nil {
			fmt.Fprintf(&b, ", ")
		}
		fmt.Fprintf(&b, "prompt: %v", e.PromptFeedback.BlockReason)
	}
	return b.String()
}

// transportError wraps err in a *TransportError. If err is a googleapi.Error,
// the parsed apierror.APIError is attached to it first so that errors.As
// finds the structured details. Cancellation, io.EOF, and errors that are
// already TransportErrors or InvalidContentErrors are returned unchanged.
func transportError(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var (
		terr *TransportError
		cerr *InvalidContentError
	)
	if errors.As(err, &terr) || errors.As(err, &cerr) || errors.Is(err, context.Canceled) {
		return err
	}
	var herr *googleapi.Error
	if apiError, ok := apierror.ParseError(err, false); ok && errors.As(err, &herr) {
		herr.Wrap(apiError)
	}
	return &TransportError{Err: err}
}
