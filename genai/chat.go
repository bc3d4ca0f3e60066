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
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// ErrNoContent is returned by a ChatSession when the model's final response
// has no content to add to the history.
var ErrNoContent = errors.New("genai: response has no content")

// ErrSendInProgress is returned when a message is sent in a ChatSession
// while another message of the same session is still in progress.
var ErrSendInProgress = errors.New("genai: chat session is busy with another message")

// A ChatSession provides interactive chat.
//
// A ChatSession is not safe for concurrent use: send one message at a time.
// A send that starts while another is in progress fails with
// ErrSendInProgress. A streamed message is in progress until its iterator
// returns an error, including iterator.Done.
// A message that fails, or whose context is canceled, leaves the history
// as it was.
type ChatSession struct {
	m       *GenerativeModel
	busy    atomic.Bool
	history []*Content
	// handlers registered with RegisterFunction
	handlers map[string]ToolHandler

	// MaxToolRounds limits the rounds of function calls for one message.
	// If the model still calls functions after that many rounds, the send fails
	// with a *ToolLoopExceededError. Zero means DefaultMaxToolRounds.
	MaxToolRounds int

	// FunctionCallPolicy says which function calls of a response are executed.
	FunctionCallPolicy FunctionCallPolicy

	// RecordFunctionCalls makes the model turns that call functions part of
	// the history. By default only the function responses and the final
	// answer are kept.
	RecordFunctionCalls bool
}

// StartChat starts a chat session with the given history.
//
// The history must start with a user turn, and user and model turns must
// alternate, except that a turn holding only FunctionResponse parts may
// follow a user turn. Otherwise StartChat returns an *InvalidHistoryError.
// The session keeps its own copy of history.
func (m *GenerativeModel) StartChat(history ...*Content) (*ChatSession, error) {
	if err := validateHistory(history); err != nil {
		return nil, err
	}
	h := make([]*Content, len(history))
	for i, c := range history {
		h[i] = c.clone()
	}
	return &ChatSession{m: m, history: h}, nil
}

func validateHistory(history []*Content) error {
	for i, c := range history {
		if c == nil {
			return &InvalidHistoryError{Index: i, Reason: "nil entry"}
		}
		if err := c.validate(); err != nil {
			var cerr *InvalidContentError
			if errors.As(err, &cerr) {
				return &InvalidHistoryError{Index: i, Reason: cerr.Reason}
			}
			return &InvalidHistoryError{Index: i, Reason: err.Error()}
		}
		switch c.Role {
		case roleUser, roleModel:
		default:
			return &InvalidHistoryError{Index: i, Reason: "entry has no role"}
		}
		if i == 0 {
			if c.Role != roleUser {
				return &InvalidHistoryError{Index: i, Reason: "history must start with a user turn"}
			}
			continue
		}
		prev := history[i-1].Role
		switch {
		case prev == roleModel && c.Role == roleModel:
			return &InvalidHistoryError{Index: i, Reason: "two model turns in a row"}
		case prev == roleUser && c.Role == roleUser && !c.isContinuation():
			return &InvalidHistoryError{Index: i, Reason: "two user turns in a row"}
		}
	}
	return nil
}

// History returns a copy of the conversation so far, oldest first.
func (cs *ChatSession) History() []*Content {
	h := make([]*Content, len(cs.history))
	for i, c := range cs.history {
		h[i] = c.clone()
	}
	return h
}

// RegisterFunction sets the handler for calls to the named function.
// It takes precedence over a handler in the model's FunctionDeclarations.
// A nil handler removes the registration.
//
// Once any handler is available, a ChatSession answers function calls
// itself and resubmits until the model replies without calling a function.
// A call to a function with no handler then fails the send with an
// *UnknownToolError. Without handlers, function calls are returned to the
// caller, who answers them by sending FunctionResponse parts.
func (cs *ChatSession) RegisterFunction(name string, h ToolHandler) {
	if h == nil {
		delete(cs.handlers, name)
		return
	}
	if cs.handlers == nil {
		cs.handlers = map[string]ToolHandler{}
	}
	cs.handlers[name] = h
}

func (cs *ChatSession) maxToolRounds() int {
	if cs.MaxToolRounds <= 0 {
		return DefaultMaxToolRounds
	}
	return cs.MaxToolRounds
}

// SendMessage sends a request to the model as part of a chat session.
// If the model calls functions that the session can answer, SendMessage
// answers them and returns the response to the last round.
func (cs *ChatSession) SendMessage(ctx context.Context, parts ...Part) (*GenerateContentResponse, error) {
	if !cs.busy.CompareAndSwap(false, true) {
		return nil, ErrSendInProgress
	}
	defer cs.busy.Store(false)
	s := cs.newSend(parts)
	req, err := s.request()
	for err == nil {
		var resp *GenerateContentResponse
		resp, err = cs.m.generateContent(ctx, req)
		if err != nil {
			break
		}
		var next *GenerateContentRequest
		next, err = s.next(ctx, resp)
		if err != nil {
			break
		}
		if next == nil {
			if err = s.commit(resp); err != nil {
				break
			}
			return resp, nil
		}
		req = next
	}
	if errors.Is(err, context.Canceled) {
		s.canceled()
	} else {
		s.failed(err)
	}
	return nil, err
}

// SendMessageStream is like SendMessage, but with a streaming request.
// The history is updated when the iterator returns iterator.Done.
func (cs *ChatSession) SendMessageStream(ctx context.Context, parts ...Part) *GenerateContentResponseIterator {
	if !cs.busy.CompareAndSwap(false, true) {
		return failedIterator(ErrSendInProgress)
	}
	s := cs.newSend(parts)
	req, err := s.request()
	if err != nil {
		s.failed(err)
		return failedIterator(err)
	}
	return newResponseIterator(ctx, cs.m, req, s)
}

// A chatSend is one message sent in a ChatSession, together with the rounds
// of function calls it leads to.
type chatSend struct {
	cs       *ChatSession
	id       string
	log      logr.Logger
	resolver *functionResolver
	rounds   int
	// Turns following the history in each request.
	sent []*Content
	// Turns added to the history on success, before the final answer.
	pending []*Content
}

func (cs *ChatSession) newSend(parts []Part) *chatSend {
	id := uuid.NewString()
	turn := NewUserContent(parts...)
	s := &chatSend{
		cs:  cs,
		id:  id,
		log: cs.m.Logger.WithValues("send", id),
		resolver: &functionResolver{
			policy:   cs.FunctionCallPolicy,
			handlers: cs.handlers,
			tools:    cs.m.Tools,
		},
		sent:    []*Content{turn},
		pending: []*Content{turn},
	}
	s.log.V(1).Info("sending message", "model", cs.m.fullName, "history", len(cs.history))
	return s
}

func (s *chatSend) request() (*GenerateContentRequest, error) {
	return s.cs.m.buildRequest(s.cs.history, s.sent...)
}

// next inspects the response to a round. If the model called functions and
// the session can answer them, it runs the handlers and returns the request
// for the next round. Otherwise it returns nil.
func (s *chatSend) next(ctx context.Context, resp *GenerateContentResponse) (*GenerateContentRequest, error) {
	if !s.resolver.automatic() {
		return nil, nil
	}
	calls := s.resolver.calls(resp)
	if len(calls) == 0 {
		return nil, nil
	}
	if limit := s.cs.maxToolRounds(); s.rounds >= limit {
		return nil, &ToolLoopExceededError{MaxRounds: limit}
	}
	s.rounds++
	names := make([]string, len(calls))
	for i, fc := range calls {
		names[i] = fc.Name
	}
	s.log.V(1).Info("calling functions", "round", s.rounds, "functions", names)

	turn := callTurn(resp, calls)
	answer, err := s.resolver.respond(ctx, calls)
	if err != nil {
		return nil, err
	}
	s.sent = append(s.sent, turn, answer)
	if s.cs.RecordFunctionCalls {
		s.pending = append(s.pending, turn)
	}
	s.pending = append(s.pending, answer)
	return s.request()
}

// commit adds the pending turns and the model's answer in resp to the history.
func (s *chatSend) commit(resp *GenerateContentResponse) error {
	answer := modelTurn(resp)
	if answer == nil || len(answer.Parts) == 0 {
		return ErrNoContent
	}
	s.cs.history = append(s.cs.history, s.pending...)
	s.cs.history = append(s.cs.history, answer)
	s.log.V(1).Info("message complete", "added", len(s.pending)+1, "rounds", s.rounds)
	s.done()
	return nil
}

func (s *chatSend) failed(err error) {
	s.log.V(1).Info("message failed", "error", err.Error(), "rounds", s.rounds)
	s.done()
}

func (s *chatSend) canceled() {
	s.log.V(1).Info("message canceled", "rounds", s.rounds)
	s.done()
}

// done ends the send, so that the session accepts another one.
func (s *chatSend) done() {
	s.cs.busy.Store(false)
}

// callTurn returns the model turn to resubmit with the answers to calls: the
// parts of resp that are not function calls, followed by calls. Calls the
// session did not run are left out, since every call sent needs an answer.
func callTurn(resp *GenerateContentResponse, calls []FunctionCall) *Content {
	c := &Content{Role: roleModel}
	if t := modelTurn(resp); t != nil {
		for _, p := range t.Parts {
			if _, ok := asFunctionCall(p); !ok {
				c.Parts = append(c.Parts, p)
			}
		}
	}
	for _, fc := range calls {
		c.Parts = append(c.Parts, fc)
	}
	return c
}

// modelTurn returns the content of the first candidate of resp as a model turn.
func modelTurn(resp *GenerateContentResponse) *Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	c := resp.Candidates[0].Content.clone()
	c.Role = roleModel
	return c
}
