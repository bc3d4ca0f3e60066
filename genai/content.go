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
	"fmt"
	"strings"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// Content is the base structured datatype containing multi-part content of a message.
type Content struct {
	// Ordered Parts that constitute a single message.
	Parts []Part
	// The producer of the content. Must be either "user" or "model".
	//
	// Required for entries in a chat history. It may be left empty for a
	// single prompt sent with GenerativeModel.GenerateContent.
	Role string
}

// A Part is a piece of model content.
// A Part can be one of the following types:
//   - Text
//   - Blob
//   - FileData
//   - FunctionCall
//   - FunctionResponse
//
// Parts are values. Once placed in a Content they must not be modified.
type Part interface {
	toPart() (*pb.Part, error)
}

// Text is a piece of text, like a question or phrase.
type Text string

// Blob contains raw media bytes.
//
// Text should not be sent as raw bytes, use the Text type.
type Blob struct {
	// The IANA standard MIME type of the source data.
	MIMEType string
	// Raw bytes.
	Data []byte
}

// ImageData is a convenience function for creating an image
// Blob for input to a model.
// The format should be the second part of the MIME type, after "image/".
// For example, for a PNG image, pass "png".
func ImageData(format string, data []byte) Blob {
	return Blob{
		MIMEType: "image/" + format,
		Data:     data,
	}
}

// FileData is URI based data.
type FileData struct {
	// The IANA standard MIME type of the source data.
	// Optional.
	MIMEType string
	// URI of an uploaded file.
	URI string
}

// FunctionCall is a predicted function call returned from the model that
// contains a string representing the [FunctionDeclaration.Name] and a
// structured JSON object containing the parameters and their values.
type FunctionCall struct {
	// The name of the function to call.
	Name string
	// The function parameters and values.
	Args map[string]any
}

// FunctionResponse is the result output from a [FunctionCall]. It contains
// the name of the function that was called and a structured JSON object
// with the function's output. It is sent back to the model as context for
// the next turn.
type FunctionResponse struct {
	// The name of the function that was called.
	Name string
	// The function's output.
	Response map[string]any
}

// NewContent builds a Content from parts after checking that it is well formed.
// The role must be "user", "model" or empty.
//
// It returns an *InvalidContentError if parts is empty, contains a nil Part,
// or mixes FunctionResponse parts with parts of other kinds. A turn that
// answers a function call must contain nothing else.
func NewContent(role string, parts ...Part) (*Content, error) {
	c := &Content{Role: role, Parts: append([]Part(nil), parts...)}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewUserContent returns a *Content with a "user" role set and one or more
// parts. It does not validate the parts; that happens when the content is
// sent.
func NewUserContent(parts ...Part) *Content {
	content := &Content{Role: roleUser, Parts: []Part{}}
	content.Parts = append(content.Parts, parts...)
	return content
}

func (c *Content) validate() error {
	if c == nil {
		return &InvalidContentError{Reason: "nil content"}
	}
	switch c.Role {
	case "", roleUser, roleModel:
	default:
		return &InvalidContentError{Reason: fmt.Sprintf("unknown role %q", c.Role)}
	}
	if len(c.Parts) == 0 {
		return &InvalidContentError{Reason: "no parts"}
	}
	nresp := 0
	for i, p := range c.Parts {
		if p == nil || isNilPart(p) {
			return &InvalidContentError{Reason: fmt.Sprintf("part %d is nil", i)}
		}
		if isFunctionResponse(p) {
			nresp++
		}
	}
	if nresp > 0 && nresp != len(c.Parts) {
		return &InvalidContentError{Reason: "function responses mixed with other parts"}
	}
	return nil
}

// isContinuation reports whether c carries only function responses.
// Such a turn may follow another user turn in a history.
func (c *Content) isContinuation() bool {
	if c == nil || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if !isFunctionResponse(p) {
			return false
		}
	}
	return true
}

// isNilPart reports whether p is a nil pointer to one of the part types.
func isNilPart(p Part) bool {
	switch p := p.(type) {
	case *Text:
		return p == nil
	case *Blob:
		return p == nil
	case *FileData:
		return p == nil
	case *FunctionCall:
		return p == nil
	case *FunctionResponse:
		return p == nil
	}
	return false
}

func isFunctionResponse(p Part) bool {
	switch p.(type) {
	case FunctionResponse, *FunctionResponse:
		return true
	}
	return false
}

// asFunctionCall returns the FunctionCall held by p, if any.
func asFunctionCall(p Part) (FunctionCall, bool) {
	switch fc := p.(type) {
	case FunctionCall:
		return fc, true
	case *FunctionCall:
		if fc != nil {
			return *fc, true
		}
	}
	return FunctionCall{}, false
}

// text returns the concatenation of the Text parts of c.
func (c *Content) text() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Parts {
		if t, ok := p.(Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func (c *Content) clone() *Content {
	if c == nil {
		return nil
	}
	return &Content{Role: c.Role, Parts: append([]Part(nil), c.Parts...)}
}
