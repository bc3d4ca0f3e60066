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

// Package openaicompat provides a [genai.Transport] for backends that serve
// the OpenAI chat completions protocol, such as OpenAI itself, Azure OpenAI,
// or a local vLLM or Ollama server.
//
// Use it with [genai.NewGenerativeModel]:
//
//	t := openaicompat.New(openai.NewClient(os.Getenv("OPENAI_API_KEY")))
//	model := genai.NewGenerativeModel(t, "gpt-4o-mini")
//	cs, err := model.StartChat()
//
// The protocol has no counterpart for safety settings, top-k sampling, or
// citation metadata; those settings are ignored and those fields are left
// empty.
package openaicompat

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/genaichat/chat-go/genai"
	"github.com/sashabaranov/go-openai"
)

// Transport sends generation requests with an OpenAI client.
// It is safe for concurrent use.
type Transport struct {
	c *openai.Client
}

var _ genai.Transport = (*Transport)(nil)

// New returns a Transport that uses c.
func New(c *openai.Client) *Transport {
	return &Transport{c: c}
}

// NewWithBaseURL returns a Transport for the server at baseURL, which
// should include the API version, as in "http://localhost:11434/v1".
// An empty baseURL means the OpenAI API.
func NewWithBaseURL(apiKey, baseURL string) *Transport {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return New(openai.NewClientWithConfig(cfg))
}

// GenerateContent implements [genai.Transport].
func (t *Transport) GenerateContent(ctx context.Context, req *genai.GenerateContentRequest) (*genai.GenerateContentResponse, error) {
	creq, err := chatRequest(req)
	if err != nil {
		return nil, err
	}
	res, err := t.c.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, err
	}
	return responseFromChat(res)
}

// StreamGenerateContent implements [genai.Transport].
// Text arrives as it is generated. A function call is delivered whole, in
// the fragment that ends its choice.
func (t *Transport) StreamGenerateContent(ctx context.Context, req *genai.GenerateContentRequest) (genai.ResponseStream, error) {
	creq, err := chatRequest(req)
	if err != nil {
		return nil, err
	}
	creq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	s, err := t.c.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, err
	}
	return &stream{s: s, calls: map[int]*callBuilder{}}, nil
}

// stream converts chat completion chunks into response fragments.
type stream struct {
	s *openai.ChatCompletionStream
	// Function calls being assembled, by choice index.
	calls map[int]*callBuilder
	done  bool
}

func (s *stream) Recv() (*genai.GenerateContentResponse, error) {
	for !s.done {
		chunk, err := s.s.Recv()
		if errors.Is(err, io.EOF) {
			s.close()
			// Calls of a choice the server never finished.
			if resp := s.flush(); resp != nil {
				return resp, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			s.close()
			return nil, err
		}
		resp, err := s.fragment(chunk)
		if err != nil {
			s.close()
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, io.EOF
}

func (s *stream) close() {
	if !s.done {
		s.done = true
		s.s.Close()
	}
}

// fragment returns the response fragment for chunk, or nil if the chunk
// carries nothing to report.
func (s *stream) fragment(chunk openai.ChatCompletionStreamResponse) (*genai.GenerateContentResponse, error) {
	resp := &genai.GenerateContentResponse{}
	for _, ch := range chunk.Choices {
		var parts []genai.Part
		if ch.Delta.Content != "" {
			parts = append(parts, genai.Text(ch.Delta.Content))
		}
		if len(ch.Delta.ToolCalls) > 0 {
			b := s.calls[ch.Index]
			if b == nil {
				b = &callBuilder{}
				s.calls[ch.Index] = b
			}
			b.add(ch.Delta.ToolCalls)
		}
		if ch.FinishReason != "" {
			if b := s.calls[ch.Index]; b != nil {
				delete(s.calls, ch.Index)
				fcs, err := b.calls()
				if err != nil {
					return nil, err
				}
				parts = append(parts, fcs...)
			}
		}
		if len(parts) == 0 && ch.FinishReason == "" {
			continue
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
	if chunk.Usage != nil {
		resp.UsageMetadata = usage(*chunk.Usage)
	}
	if len(resp.Candidates) == 0 && resp.UsageMetadata == nil {
		return nil, nil
	}
	return resp, nil
}

// flush returns a fragment with the function calls still being assembled.
func (s *stream) flush() *genai.GenerateContentResponse {
	if len(s.calls) == 0 {
		return nil
	}
	resp := &genai.GenerateContentResponse{}
	for i, b := range s.calls {
		fcs, err := b.calls()
		if err != nil || len(fcs) == 0 {
			continue
		}
		resp.Candidates = append(resp.Candidates, &genai.Candidate{
			Index:   int32(i),
			Content: &genai.Content{Role: "model", Parts: fcs},
		})
	}
	s.calls = map[int]*callBuilder{}
	if len(resp.Candidates) == 0 {
		return nil
	}
	return resp
}

// callBuilder assembles the tool calls of one choice from stream deltas.
// The arguments of a call may be split across many deltas.
type callBuilder struct {
	order []int
	names map[int]string
	args  map[int]*strings.Builder
}

func (b *callBuilder) add(deltas []openai.ToolCall) {
	if b.names == nil {
		b.names = map[int]string{}
		b.args = map[int]*strings.Builder{}
	}
	for i, d := range deltas {
		idx := i
		if d.Index != nil {
			idx = *d.Index
		}
		if _, ok := b.args[idx]; !ok {
			b.order = append(b.order, idx)
			b.args[idx] = &strings.Builder{}
		}
		if d.Function.Name != "" {
			b.names[idx] = d.Function.Name
		}
		b.args[idx].WriteString(d.Function.Arguments)
	}
}

func (b *callBuilder) calls() ([]genai.Part, error) {
	var parts []genai.Part
	for _, idx := range b.order {
		args, err := decodeArgs(b.args[idx].String())
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.FunctionCall{Name: b.names[idx], Args: args})
	}
	return parts, nil
}
