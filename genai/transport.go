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

	gl "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
)

// A Transport carries generation requests to a model backend.
//
// The package provides one Transport, created by [NewClient]. Other
// implementations can be used with [NewGenerativeModel].
type Transport interface {
	// GenerateContent sends req and waits for the complete response.
	GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error)
	// StreamGenerateContent sends req and returns a stream of partial responses.
	StreamGenerateContent(ctx context.Context, req *GenerateContentRequest) (ResponseStream, error)
}

// A ResponseStream yields the partial responses of a streamed generation.
// Recv returns io.EOF after the last response. Canceling the context passed
// to StreamGenerateContent stops the stream.
type ResponseStream interface {
	Recv() (*GenerateContentResponse, error)
}

// A TokenCounter is a Transport that can also count tokens.
type TokenCounter interface {
	CountTokens(ctx context.Context, req *GenerateContentRequest) (*CountTokensResponse, error)
}

// restTransport is the Transport backed by the generativelanguage REST client.
type restTransport struct {
	c *gl.GenerativeClient
}

func (t *restTransport) GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	preq, err := req.toProto()
	if err != nil {
		return nil, err
	}
	res, err := t.c.GenerateContent(ctx, preq)
	if err != nil {
		return nil, transportError(err)
	}
	return (GenerateContentResponse{}).fromProto(res), nil
}

func (t *restTransport) StreamGenerateContent(ctx context.Context, req *GenerateContentRequest) (ResponseStream, error) {
	preq, err := req.toProto()
	if err != nil {
		return nil, err
	}
	sc, err := t.c.StreamGenerateContent(ctx, preq)
	if err != nil {
		return nil, transportError(err)
	}
	return &restStream{sc: sc}, nil
}

func (t *restTransport) CountTokens(ctx context.Context, req *GenerateContentRequest) (*CountTokensResponse, error) {
	preq, err := req.toProto()
	if err != nil {
		return nil, err
	}
	res, err := t.c.CountTokens(ctx, &pb.CountTokensRequest{
		Model:                  req.Model,
		GenerateContentRequest: preq,
	})
	if err != nil {
		return nil, transportError(err)
	}
	return &CountTokensResponse{TotalTokens: res.TotalTokens}, nil
}

type restStream struct {
	sc pb.GenerativeService_StreamGenerateContentClient
}

// Recv returns io.EOF unwrapped so callers can detect the end of the stream.
func (s *restStream) Recv() (*GenerateContentResponse, error) {
	res, err := s.sc.Recv()
	if err != nil {
		return nil, transportError(err)
	}
	return (GenerateContentResponse{}).fromProto(res), nil
}
