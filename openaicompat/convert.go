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

package openaicompat

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/genaichat/chat-go/genai"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// chatRequest converts req to a chat completion request.
func chatRequest(req *genai.GenerateContentRequest) (openai.ChatCompletionRequest, error) {
	creq := openai.ChatCompletionRequest{
		Model: strings.TrimPrefix(req.Model, "models/"),
	}
	if si := req.SystemInstruction; si != nil {
		creq.Messages = append(creq.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: textOf(si.Parts),
		})
	}
	var ids callIDs
	for _, c := range req.Contents {
		msgs, err := ids.messages(c)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		creq.Messages = append(creq.Messages, msgs...)
	}
	setConfig(&creq, req.GenerationConfig)
	for _, t := range req.Tools {
		if t == nil {
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			creq.Tools = append(creq.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        fd.Name,
					Description: fd.Description,
					Parameters:  parameters(fd.Parameters),
				},
			})
		}
	}
	if tc := req.ToolConfig; tc != nil && tc.FunctionCallingConfig != nil {
		creq.ToolChoice = toolChoice(tc.FunctionCallingConfig)
	}
	return creq, nil
}

// callIDs assigns ids to the function calls of a conversation, so that each
// function response can name the call it answers. The Content model matches
// responses to calls by name and order, and so does callIDs.
type callIDs struct {
	n int
	// Unanswered calls, by function name.
	pending map[string][]string
}

func (ids *callIDs) next(name string) string {
	ids.n++
	id := fmt.Sprintf("call_%d", ids.n)
	if ids.pending == nil {
		ids.pending = map[string][]string{}
	}
	ids.pending[name] = append(ids.pending[name], id)
	return id
}

// answer returns the id of the oldest unanswered call to name.
func (ids *callIDs) answer(name string) (string, bool) {
	q := ids.pending[name]
	if len(q) == 0 {
		return "", false
	}
	ids.pending[name] = q[1:]
	return q[0], true
}

// messages converts one turn to chat messages. A model turn becomes one
// assistant message. A turn of function responses becomes one tool message
// per response. Any other turn becomes a user message.
func (ids *callIDs) messages(c *genai.Content) ([]openai.ChatCompletionMessage, error) {
	if c.Role == "model" {
		return []openai.ChatCompletionMessage{ids.assistant(c.Parts)}, nil
	}
	if frs := functionResponses(c.Parts); len(frs) > 0 {
		var msgs []openai.ChatCompletionMessage
		for _, fr := range frs {
			id, ok := ids.answer(fr.Name)
			if !ok {
				// The call is not in the conversation, as when a chat
				// history keeps only the answers. Restate it.
				call := ids.assistant([]genai.Part{genai.FunctionCall{Name: fr.Name}})
				msgs = append(msgs, call)
				id, _ = ids.answer(fr.Name)
			}
			content, err := json.Marshal(fr.Response)
			if err != nil {
				return nil, &genai.InvalidContentError{Reason: fmt.Sprintf("function %q response: %v", fr.Name, err)}
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: id,
				Content:    string(content),
			})
		}
		return msgs, nil
	}
	m, err := userMessage(c.Parts)
	if err != nil {
		return nil, err
	}
	return []openai.ChatCompletionMessage{m}, nil
}

func (ids *callIDs) assistant(parts []genai.Part) openai.ChatCompletionMessage {
	m := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: textOf(parts),
	}
	for _, p := range parts {
		fc, ok := asFunctionCall(p)
		if !ok {
			continue
		}
		args := []byte("{}")
		if len(fc.Args) > 0 {
			// Args came from decoded JSON, so they encode.
			args, _ = json.Marshal(fc.Args)
		}
		m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
			ID:   ids.next(fc.Name),
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      fc.Name,
				Arguments: string(args),
			},
		})
	}
	return m
}

// userMessage converts text and image parts. Text alone is sent as a plain
// string; with images, the parts are sent as a list.
func userMessage(parts []genai.Part) (openai.ChatCompletionMessage, error) {
	m := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	var multi []openai.ChatMessagePart
	hasImage := false
	for _, p := range parts {
		switch p := p.(type) {
		case genai.Text:
			multi = append(multi, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: string(p)})
		case genai.Blob, *genai.Blob:
			b := deref[genai.Blob](p)
			if !strings.HasPrefix(b.MIMEType, "image/") {
				return m, &genai.InvalidContentError{Reason: fmt.Sprintf("unsupported media type %q", b.MIMEType)}
			}
			url := "data:" + b.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
			multi = append(multi, imagePart(url))
			hasImage = true
		case genai.FileData, *genai.FileData:
			f := deref[genai.FileData](p)
			if f.URI == "" {
				return m, &genai.InvalidContentError{Reason: "file data without a URI"}
			}
			if f.MIMEType != "" && !strings.HasPrefix(f.MIMEType, "image/") {
				return m, &genai.InvalidContentError{Reason: fmt.Sprintf("unsupported media type %q", f.MIMEType)}
			}
			multi = append(multi, imagePart(f.URI))
			hasImage = true
		default:
			return m, &genai.InvalidContentError{Reason: fmt.Sprintf("part of type %T in a user turn", p)}
		}
	}
	if hasImage {
		m.MultiContent = multi
	} else {
		m.Content = textOf(parts)
	}
	return m, nil
}

func imagePart(url string) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type:     openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
	}
}

// deref returns the T held by p, which is either a T or a *T.
// A nil *T yields the zero T.
func deref[T any](p genai.Part) T {
	if v, ok := any(p).(*T); ok {
		if v == nil {
			var z T
			return z
		}
		return *v
	}
	return any(p).(T)
}

func textOf(parts []genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func asFunctionCall(p genai.Part) (genai.FunctionCall, bool) {
	switch p := p.(type) {
	case genai.FunctionCall:
		return p, true
	case *genai.FunctionCall:
		if p != nil {
			return *p, true
		}
	}
	return genai.FunctionCall{}, false
}

// functionResponses returns the parts if they are all function responses.
func functionResponses(parts []genai.Part) []genai.FunctionResponse {
	var frs []genai.FunctionResponse
	for _, p := range parts {
		switch p := p.(type) {
		case genai.FunctionResponse:
			frs = append(frs, p)
		case *genai.FunctionResponse:
			if p == nil {
				return nil
			}
			frs = append(frs, *p)
		default:
			return nil
		}
	}
	return frs
}

// zero stands in for a zero temperature or top-p, which the client would
// otherwise omit from the request.
const zero = math.SmallestNonzeroFloat32

func setConfig(creq *openai.ChatCompletionRequest, gc *genai.GenerationConfig) {
	if gc == nil {
		return
	}
	if gc.Temperature != nil {
		creq.Temperature = nonZero(*gc.Temperature)
	}
	if gc.TopP != nil {
		creq.TopP = nonZero(*gc.TopP)
	}
	if gc.MaxOutputTokens != nil {
		// max_tokens is understood by more servers than max_completion_tokens.
		creq.MaxTokens = int(*gc.MaxOutputTokens)
	}
	if gc.CandidateCount != nil {
		creq.N = int(*gc.CandidateCount)
	}
	creq.Stop = gc.StopSequences
	if gc.ResponseMIMEType == "application/json" {
		if gc.ResponseSchema == nil {
			creq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
		} else {
			def := definition(gc.ResponseSchema)
			creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "response",
					Schema: &def,
				},
			}
		}
	}
}

func nonZero(f float32) float32 {
	if f == 0 {
		return zero
	}
	return f
}

func toolChoice(fcc *genai.FunctionCallingConfig) any {
	switch fcc.Mode {
	case genai.FunctionCallingAuto:
		return "auto"
	case genai.FunctionCallingNone:
		return "none"
	case genai.FunctionCallingAny:
		if len(fcc.AllowedFunctionNames) == 1 {
			return openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: fcc.AllowedFunctionNames[0]},
			}
		}
		return "required"
	}
	return nil
}

// parameters returns the parameter schema of a function. Functions without
// parameters take an empty object.
func parameters(s *genai.Schema) *jsonschema.Definition {
	if s == nil {
		return &jsonschema.Definition{Type: jsonschema.Object, Properties: map[string]jsonschema.Definition{}}
	}
	def := definition(s)
	return &def
}

var dataTypes = map[genai.Type]jsonschema.DataType{
	genai.TypeString:  jsonschema.String,
	genai.TypeNumber:  jsonschema.Number,
	genai.TypeInteger: jsonschema.Integer,
	genai.TypeBoolean: jsonschema.Boolean,
	genai.TypeArray:   jsonschema.Array,
	genai.TypeObject:  jsonschema.Object,
}

func definition(s *genai.Schema) jsonschema.Definition {
	def := jsonschema.Definition{
		Type:        dataTypes[s.Type],
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Nullable:    s.Nullable,
	}
	if s.Items != nil {
		items := definition(s.Items)
		def.Items = &items
	}
	if len(s.Properties) > 0 {
		def.Properties = map[string]jsonschema.Definition{}
		for name, p := range s.Properties {
			def.Properties[name] = definition(p)
		}
	}
	return def
}

// responseFromChat converts a complete chat completion.
func responseFromChat(res openai.ChatCompletionResponse) (*genai.GenerateContentResponse, error) {
	resp := &genai.GenerateContentResponse{}
	for _, ch := range res.Choices {
		var parts []genai.Part
		if ch.Message.Content != "" {
			parts = append(parts, genai.Text(ch.Message.Content))
		}
		for _, tc := range ch.Message.ToolCalls {
			args, err := decodeArgs(tc.Function.Arguments)
			if err != nil {
				return nil, err
			}
			parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
		}
		c := &genai.Candidate{
			Index:        int32(ch.Index),
			FinishReason: finishReason(ch.FinishReason),
		}
		if len(parts) > 0 {
			c.Content = &genai.Content{Role: "model", Parts: parts}
		}
		resp.Candidates = append(resp.Candidates, c)
	}
	if res.Usage.TotalTokens > 0 {
		resp.UsageMetadata = usage(res.Usage)
	}
	return resp, nil
}

func decodeArgs(s string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(s), &args); err != nil {
		return nil, fmt.Errorf("openaicompat: function arguments %q: %w", s, err)
	}
	return args, nil
}

func finishReason(r openai.FinishReason) genai.FinishReason {
	switch r {
	case "", openai.FinishReasonNull:
		return genai.FinishReasonUnspecified
	case openai.FinishReasonStop, openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return genai.FinishReasonStop
	case openai.FinishReasonLength:
		return genai.FinishReasonMaxTokens
	case openai.FinishReasonContentFilter:
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonOther
	}
}

func usage(u openai.Usage) *genai.UsageMetadata {
	return &genai.UsageMetadata{
		PromptTokenCount:     int32(u.PromptTokens),
		CandidatesTokenCount: int32(u.CompletionTokens),
		TotalTokenCount:      int32(u.TotalTokens),
	}
}
