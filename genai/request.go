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

import "fmt"

// GenerateContentRequest is what a [Transport] sends to the backend.
// It is assembled by a GenerativeModel from its settings and the
// conversation so far; transports must not modify it.
type GenerateContentRequest struct {
	// Full model name, such as "models/gemini-1.5-flash".
	Model string
	// The conversation, oldest first. The last entry is the newest turn.
	Contents          []*Content
	SystemInstruction *Content
	GenerationConfig  *GenerationConfig
	SafetySettings    []*SafetySetting
	Tools             []*Tool
	ToolConfig        *ToolConfig
}

// buildRequest returns the request for history followed by turns, carrying
// the model's settings unchanged. It does no I/O.
func (m *GenerativeModel) buildRequest(history []*Content, turns ...*Content) (*GenerateContentRequest, error) {
	if err := m.GenerationConfig.validate(); err != nil {
		return nil, err
	}
	if err := m.ToolConfig.validate(); err != nil {
		return nil, err
	}
	if err := validateTools(m.Tools); err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, &InvalidContentError{Reason: "nothing to send"}
	}
	for _, t := range turns {
		if err := t.validate(); err != nil {
			return nil, err
		}
	}
	if m.SystemInstruction != nil {
		if err := m.SystemInstruction.validate(); err != nil {
			return nil, fmt.Errorf("system instruction: %w", err)
		}
	}
	contents := make([]*Content, 0, len(history)+len(turns))
	contents = append(contents, history...)
	contents = append(contents, turns...)
	gc := m.GenerationConfig
	return &GenerateContentRequest{
		Model:             m.fullName,
		Contents:          contents,
		SystemInstruction: m.SystemInstruction,
		GenerationConfig:  &gc,
		SafetySettings:    m.SafetySettings,
		Tools:             m.Tools,
		ToolConfig:        m.ToolConfig,
	}, nil
}
