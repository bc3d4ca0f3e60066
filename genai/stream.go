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

	"google.golang.org/api/iterator"
)

// A StreamObserver is told about the progress of a streamed generation.
//
// OnFragment is called for each partial response, in the order they arrive.
// Exactly one of OnComplete and OnError is called, once, after the last
// fragment. If the stream's context is canceled, neither is called.
type StreamObserver interface {
	OnFragment(*GenerateContentResponse)
	OnComplete(*GenerateContentResponse)
	OnError(error)
}

// StreamFuncs is a StreamObserver made of functions.
// Nil functions are not called.
type StreamFuncs struct {
	Fragment func(*GenerateContentResponse)
	Complete func(*GenerateContentResponse)
	Error    func(error)
}

func (f StreamFuncs) OnFragment(r *GenerateContentResponse) {
	if f.Fragment != nil {
		f.Fragment(r)
	}
}

func (f StreamFuncs) OnComplete(r *GenerateContentResponse) {
	if f.Complete != nil {
		f.Complete(r)
	}
}

func (f StreamFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

type streamState int

const (
	streamIdle streamState = iota
	streamStreaming
	streamCompleted
	streamFailed
	streamCanceled
)

var streamStateNames = [...]string{"idle", "streaming", "completed", "failed", "canceled"}

func (s streamState) String() string {
	if s >= 0 && int(s) < len(streamStateNames) {
		return streamStateNames[s]
	}
	return fmt.Sprintf("streamState(%d)", int(s))
}

func (s streamState) terminal() bool {
	return s >= streamCompleted
}

// streamAggregator merges the fragments of a stream and tells its observer
// about them. Once it reaches a terminal state it ignores further calls.
type streamAggregator struct {
	state  streamState
	merged *GenerateContentResponse
	obs    StreamObserver
}

func (a *streamAggregator) add(resp *GenerateContentResponse) {
	if a.state.terminal() {
		return
	}
	a.state = streamStreaming
	a.merged = joinResponses(a.merged, resp)
	if a.obs != nil {
		a.obs.OnFragment(resp)
	}
}

// nextRound starts a new round of generation after function calls were
// answered. Only the last round contributes to the merged response.
func (a *streamAggregator) nextRound() {
	if a.state.terminal() {
		return
	}
	a.merged = nil
}

func (a *streamAggregator) complete() {
	if a.state.terminal() {
		return
	}
	a.state = streamCompleted
	if a.merged == nil {
		a.merged = &GenerateContentResponse{}
	}
	if a.obs != nil {
		a.obs.OnComplete(a.merged)
	}
}

func (a *streamAggregator) fail(err error) {
	if a.state.terminal() {
		return
	}
	a.state = streamFailed
	a.merged = nil
	if a.obs != nil {
		a.obs.OnError(err)
	}
}

func (a *streamAggregator) cancel() {
	if a.state.terminal() {
		return
	}
	a.state = streamCanceled
	a.merged = nil
}

// GenerateContentResponseIterator is an iterator over GenerateContentResponse.
//
// When it belongs to a ChatSession whose functions are called automatically,
// the iterator keeps going across rounds of function calls: it returns the
// fragments of every round, and the merged response of the last one.
type GenerateContentResponseIterator struct {
	ctx    context.Context
	m      *GenerativeModel
	req    *GenerateContentRequest
	send   *chatSend // nil unless the iterator belongs to a ChatSession
	stream ResponseStream
	agg    streamAggregator

	pending error // reported by the first call to Next
	err     error // set once the stream has ended
}

func newResponseIterator(ctx context.Context, m *GenerativeModel, req *GenerateContentRequest, send *chatSend) *GenerateContentResponseIterator {
	return &GenerateContentResponseIterator{ctx: ctx, m: m, req: req, send: send}
}

func failedIterator(err error) *GenerateContentResponseIterator {
	return &GenerateContentResponseIterator{pending: err}
}

// Next returns the next response.
// At the end of the stream it returns iterator.Done, and
// [GenerateContentResponseIterator.MergedResponse] holds the merged result.
// If the stream's context is canceled, Next returns context.Canceled.
// Once Next returns an error, it returns the same error on every later call.
func (iter *GenerateContentResponseIterator) Next() (*GenerateContentResponse, error) {
	if iter.err != nil {
		return nil, iter.err
	}
	if iter.pending != nil {
		iter.finish(iter.pending)
		return nil, iter.err
	}
	resp, err := iter.next()
	if err != nil {
		iter.finish(err)
		return nil, iter.err
	}
	return resp, nil
}

func (iter *GenerateContentResponseIterator) next() (*GenerateContentResponse, error) {
	for {
		if err := iter.ctx.Err(); err != nil {
			return nil, transportError(err)
		}
		if iter.stream == nil {
			s, err := iter.m.t.StreamGenerateContent(iter.ctx, iter.req)
			if err != nil {
				return nil, transportError(err)
			}
			iter.stream = s
		}
		resp, err := iter.stream.Recv()
		if err == io.EOF {
			more, err := iter.nextRound()
			if err != nil {
				return nil, err
			}
			if !more {
				return nil, iterator.Done
			}
			continue
		}
		if err != nil {
			return nil, transportError(err)
		}
		// A fragment that arrives after cancellation is dropped.
		if err := iter.ctx.Err(); err != nil {
			return nil, transportError(err)
		}
		if resp == nil {
			continue
		}
		if err := checkResponse(resp); err != nil {
			return nil, err
		}
		iter.agg.add(resp)
		return resp, nil
	}
}

// nextRound is called at the end of each stream. It reports whether the
// model's function calls were answered, in which case another stream follows.
func (iter *GenerateContentResponseIterator) nextRound() (bool, error) {
	if iter.send == nil {
		return false, nil
	}
	req, err := iter.send.next(iter.ctx, iter.agg.merged)
	if err != nil || req == nil {
		return false, err
	}
	iter.req = req
	iter.stream = nil
	iter.agg.nextRound()
	return true, nil
}

// finish moves the aggregator to its terminal state and records err for
// later calls to Next.
func (iter *GenerateContentResponseIterator) finish(err error) {
	if err == iterator.Done && iter.send != nil {
		if cerr := iter.send.commit(iter.agg.merged); cerr != nil {
			err = cerr
		}
	}
	switch {
	case err == iterator.Done:
		iter.agg.complete()
	case errors.Is(err, context.Canceled):
		iter.agg.cancel()
		if iter.send != nil {
			iter.send.canceled()
		}
	default:
		iter.agg.fail(err)
		if iter.send != nil {
			iter.send.failed(err)
		}
	}
	iter.err = err
}

// MergedResponse returns the result of combining all the responses seen so far.
//
// After iteration completes, the merged response is the same as
// the response from the equivalent call to GenerateContent or
// ChatSession.SendMessage. After a failure it is nil.
func (iter *GenerateContentResponseIterator) MergedResponse() *GenerateContentResponse {
	return iter.agg.merged
}

// Drain reads the rest of the stream, passing each response to obs, and
// returns the merged response. Responses already returned by Next are not
// passed to obs.
//
// obs.OnComplete or obs.OnError is called before Drain returns, unless the
// stream's context was canceled. That holds even if Next already reached the
// end of the stream.
func (iter *GenerateContentResponseIterator) Drain(obs StreamObserver) (*GenerateContentResponse, error) {
	if iter.err != nil {
		return iter.drained(obs)
	}
	iter.agg.obs = obs
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			return iter.MergedResponse(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// drained reports the end of a stream that ended before Drain was called.
func (iter *GenerateContentResponseIterator) drained(obs StreamObserver) (*GenerateContentResponse, error) {
	if iter.err == iterator.Done {
		if obs != nil {
			obs.OnComplete(iter.MergedResponse())
		}
		return iter.MergedResponse(), nil
	}
	if obs != nil && !errors.Is(iter.err, context.Canceled) {
		obs.OnError(iter.err)
	}
	return nil, iter.err
}

// joinResponses merges the two responses, which should be the result of a streaming call.
// The first argument is modified; the second is not.
func joinResponses(dest, src *GenerateContentResponse) *GenerateContentResponse {
	if dest == nil {
		return src.clone()
	}
	dest.Candidates = joinCandidateLists(dest.Candidates, src.Candidates)
	if dest.PromptFeedback == nil {
		dest.PromptFeedback = src.PromptFeedback
	}
	// Usage is reported as a running total, so the last one wins.
	if src.UsageMetadata != nil {
		dest.UsageMetadata = src.UsageMetadata
	}
	return dest
}

func joinCandidateLists(dest, src []*Candidate) []*Candidate {
	indexToDestCandidate := map[int32]*Candidate{}
	for _, d := range dest {
		indexToDestCandidate[d.Index] = d
	}
	for _, s := range src {
		if s == nil {
			continue
		}
		d := indexToDestCandidate[s.Index]
		if d == nil {
			d = s.clone()
			dest = append(dest, d)
			indexToDestCandidate[d.Index] = d
			continue
		}
		d.Content = joinContent(d.Content, s.Content)
		// Take the last of these.
		if s.FinishReason != FinishReasonUnspecified {
			d.FinishReason = s.FinishReason
		}
		if s.SafetyRatings != nil {
			d.SafetyRatings = s.SafetyRatings
		}
		if s.TokenCount != 0 {
			d.TokenCount = s.TokenCount
		}
		d.CitationMetadata = joinCitationMetadata(d.CitationMetadata, s.CitationMetadata)
	}
	return dest
}

func joinCitationMetadata(dest, src *CitationMetadata) *CitationMetadata {
	if dest == nil {
		return src
	}
	if src == nil {
		return dest
	}
	return &CitationMetadata{
		CitationSources: append(append([]*CitationSource(nil), dest.CitationSources...), src.CitationSources...),
	}
}

func joinContent(dest, src *Content) *Content {
	if dest == nil {
		return src.clone()
	}
	if src == nil {
		return dest
	}
	if dest.Role == "" {
		dest.Role = src.Role
	}
	dest.Parts = joinParts(dest.Parts, src.Parts)
	return dest
}

func joinParts(dest, src []Part) []Part {
	return mergeTexts(append(dest, src...))
}

// mergeTexts concatenates adjacent Text parts. Other parts keep their order.
func mergeTexts(in []Part) []Part {
	var out []Part
	i := 0
	for i < len(in) {
		if t, ok := in[i].(Text); ok {
			texts := []string{string(t)}
			var j int
			for j = i + 1; j < len(in); j++ {
				if t, ok := in[j].(Text); ok {
					texts = append(texts, string(t))
				} else {
					break
				}
			}
			// j is just after the last Text.
			out = append(out, Text(strings.Join(texts, "")))
			i = j
		} else {
			out = append(out, in[i])
			i++
		}
	}
	return out
}

// clone copies r deeply enough that merging into the copy leaves r unchanged.
func (r *GenerateContentResponse) clone() *GenerateContentResponse {
	if r == nil {
		return nil
	}
	c := *r
	c.Candidates = nil
	for _, cand := range r.Candidates {
		c.Candidates = append(c.Candidates, cand.clone())
	}
	return &c
}

func (c *Candidate) clone() *Candidate {
	if c == nil {
		return nil
	}
	cc := *c
	cc.Content = c.Content.clone()
	return &cc
}
