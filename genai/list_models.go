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

	gl "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"google.golang.org/api/iterator"
)

// ModelInfo is information about a language model.
type ModelInfo struct {
	// The resource name of the Model, such as "models/gemini-1.5-flash".
	Name string
	// The name of the base model, such as "gemini-1.5-flash".
	BaseModelID string
	// The version number of the model.
	Version string
	// The human-readable name of the model.
	DisplayName string
	// A short description of the model.
	Description string
	// Maximum number of input tokens allowed for this model.
	InputTokenLimit int32
	// Maximum number of output tokens available for this model.
	OutputTokenLimit int32
	// The model's supported generation methods, such as "generateContent".
	SupportedGenerationMethods []string
	// Default values of the generation settings. Nil if not reported.
	Temperature *float32
	TopP        *float32
	TopK        *int32
}

func (ModelInfo) fromProto(p *pb.Model) *ModelInfo {
	if p == nil {
		return nil
	}
	return &ModelInfo{
		Name:                       p.Name,
		BaseModelID:                p.BaseModelId,
		Version:                    p.Version,
		DisplayName:                p.DisplayName,
		Description:                p.Description,
		InputTokenLimit:            p.InputTokenLimit,
		OutputTokenLimit:           p.OutputTokenLimit,
		SupportedGenerationMethods: p.SupportedGenerationMethods,
		Temperature:                p.Temperature,
		TopP:                       p.TopP,
		TopK:                       p.TopK,
	}
}

// ListModels lists the models available to the client.
func (c *Client) ListModels(ctx context.Context) *ModelInfoIterator {
	return &ModelInfoIterator{
		it: c.mc.ListModels(ctx, &pb.ListModelsRequest{}),
	}
}

// A ModelInfoIterator iterates over ModelInfos.
type ModelInfoIterator struct {
	it *gl.ModelIterator
}

// Next returns the next result. Its second return value is iterator.Done if there are no more
// results. Once Next returns Done, all subsequent calls will return Done.
func (it *ModelInfoIterator) Next() (*ModelInfo, error) {
	m, err := it.it.Next()
	if err == iterator.Done {
		return nil, err
	}
	if err != nil {
		return nil, transportError(err)
	}
	return (ModelInfo{}).fromProto(m), nil
}

// PageInfo supports pagination. See the google.golang.org/api/iterator package for details.
func (it *ModelInfoIterator) PageInfo() *iterator.PageInfo {
	return it.it.PageInfo()
}

// Info returns information about the model.
// It is available only for models created with [Client.GenerativeModel].
func (m *GenerativeModel) Info(ctx context.Context) (*ModelInfo, error) {
	if m.mc == nil {
		return nil, errors.New("genai: model information needs a Client")
	}
	res, err := m.mc.GetModel(ctx, &pb.GetModelRequest{Name: m.fullName})
	if err != nil {
		return nil, transportError(err)
	}
	return (ModelInfo{}).fromProto(res), nil
}
