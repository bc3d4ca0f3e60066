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
)

// CountTokens counts the number of tokens in the content.
// The count includes the model's system instruction and tools, which are
// sent with the content.
//
// Counting is done by the backend. A model created with NewGenerativeModel
// can count tokens only if its Transport is also a [TokenCounter].
func (m *GenerativeModel) CountTokens(ctx context.Context, parts ...Part) (*CountTokensResponse, error) {
	tc, ok := m.t.(TokenCounter)
	if !ok {
		return nil, errors.New("genai: transport cannot count tokens")
	}
	req, err := m.buildRequest(nil, NewUserContent(parts...))
	if err != nil {
		return nil, err
	}
	res, err := tc.CountTokens(ctx, req)
	if err != nil {
		return nil, transportError(err)
	}
	return res, nil
}

// CountTokens counts the tokens of the chat history followed by parts,
// which is what the next SendMessage with parts would send.
// With no parts, it counts the history alone.
func (cs *ChatSession) CountTokens(ctx context.Context, parts ...Part) (*CountTokensResponse, error) {
	tc, ok := cs.m.t.(TokenCounter)
	if !ok {
		return nil, errors.New("genai: transport cannot count tokens")
	}
	history, turns := cs.history, []*Content{NewUserContent(parts...)}
	if len(parts) == 0 {
		n := len(history)
		history, turns = history[:max(n-1, 0)], history[max(n-1, 0):]
	}
	req, err := cs.m.buildRequest(history, turns...)
	if err != nil {
		return nil, err
	}
	res, err := tc.CountTokens(ctx, req)
	if err != nil {
		return nil, transportError(err)
	}
	return res, nil
}
