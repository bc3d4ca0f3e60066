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
	"io"
)

// A fakeRound is the scripted reply to one request: the fragments of the
// response, then either io.EOF or err.
type fakeRound struct {
	frags []*GenerateContentResponse
	err   error
}

// fakeTransport replies to requests with scripted rounds, in order.
// Blocking calls get the fragments merged into one response.
type fakeTransport struct {
	rounds []fakeRound
	// If set, called for requests after the scripted rounds are used up.
	more func(req *GenerateContentRequest) fakeRound
	reqs []*GenerateContentRequest
	// Number of tokens reported by CountTokens.
	tokens int32
}

var errNoMoreRounds = errors.New("fake transport: no more rounds")

func (f *fakeTransport) nextRound(req *GenerateContentRequest) fakeRound {
	f.reqs = append(f.reqs, req)
	if len(f.rounds) > 0 {
		r := f.rounds[0]
		f.rounds = f.rounds[1:]
		return r
	}
	if f.more != nil {
		return f.more(req)
	}
	return fakeRound{err: errNoMoreRounds}
}

func (f *fakeTransport) GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := f.nextRound(req)
	if r.err != nil {
		return nil, r.err
	}
	var merged *GenerateContentResponse
	for _, fr := range r.frags {
		merged = joinResponses(merged, fr)
	}
	if merged == nil {
		merged = &GenerateContentResponse{}
	}
	return merged, nil
}

func (f *fakeTransport) StreamGenerateContent(ctx context.Context, req *GenerateContentRequest) (ResponseStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &fakeStream{ctx: ctx, round: f.nextRound(req)}, nil
}

func (f *fakeTransport) CountTokens(ctx context.Context, req *GenerateContentRequest) (*CountTokensResponse, error) {
	f.reqs = append(f.reqs, req)
	return &CountTokensResponse{TotalTokens: f.tokens}, nil
}

type fakeStream struct {
	ctx   context.Context
	round fakeRound
	i     int
}

func (s *fakeStream) Recv() (*GenerateContentResponse, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if s.i < len(s.round.frags) {
		s.i++
		return s.round.frags[s.i-1], nil
	}
	if s.round.err != nil {
		return nil, s.round.err
	}
	return nil, io.EOF
}

// blockingTransport is a Transport without token counting.
type blockingTransport struct {
	Transport
}

func textResponse(s string) *GenerateContentResponse {
	return &GenerateContentResponse{
		Candidates: []*Candidate{{
			Content: &Content{Role: roleModel, Parts: []Part{Text(s)}},
		}},
	}
}

func callResponse(calls ...FunctionCall) *GenerateContentResponse {
	parts := make([]Part, len(calls))
	for i, fc := range calls {
		parts[i] = fc
	}
	return &GenerateContentResponse{
		Candidates: []*Candidate{{
			Content: &Content{Role: roleModel, Parts: parts},
		}},
	}
}

func textRound(texts ...string) fakeRound {
	var r fakeRound
	for _, s := range texts {
		r.frags = append(r.frags, textResponse(s))
	}
	return r
}

func callRound(calls ...FunctionCall) fakeRound {
	return fakeRound{frags: []*GenerateContentResponse{callResponse(calls...)}}
}

// observed records the callbacks of a StreamObserver.
type observed struct {
	fragments []string
	completed []*GenerateContentResponse
	errs      []error
}

func (o *observed) observer() StreamFuncs {
	return StreamFuncs{
		Fragment: func(r *GenerateContentResponse) { o.fragments = append(o.fragments, r.Text()) },
		Complete: func(r *GenerateContentResponse) { o.completed = append(o.completed, r) },
		Error:    func(err error) { o.errs = append(o.errs, err) },
	}
}
