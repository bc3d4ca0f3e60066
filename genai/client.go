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
	"reflect"
	"strings"

	gl "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"github.com/genaichat/chat-go/internal"
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"
	"google.golang.org/api/option"
)

// A Client is a Google generative AI client.
type Client struct {
	c      *gl.GenerativeClient
	mc     *gl.ModelClient
	logger logr.Logger
}

// NewClient creates a new Google generative AI client.
//
// Clients should be reused instead of created as needed. The methods of Client
// are safe for concurrent use by multiple goroutines.
//
// You may configure the client by passing in options from the [google.golang.org/api/option]
// package. A credential must be among them: there is no default key.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	if !hasAuthOption(opts) {
		return nil, errors.New(`You need an auth option to use this client.
for an API Key: Visit https://ai.google.dev to get one, put it in an environment variable like GEMINI_API_KEY,
then pass it as an option:
    genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
(If you're doing that already, then maybe the environment variable is empty or unset.)
Import the option package as "google.golang.org/api/option".`)
	}
	var logger logr.Logger
	if lo, ok := optionOfType[*loggerOption](opts); ok {
		logger = lo.logger
	}
	ci, hasClientInfo := optionOfType[*clientInfo](opts)
	opts = withoutCustomOptions(opts)

	c, err := gl.NewGenerativeRESTClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating generative client: %w", err)
	}
	mc, err := gl.NewModelRESTClient(ctx, opts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	kv := []string{"gccl", internal.Version, "genai-go", internal.Version}
	if hasClientInfo {
		kv = append(kv, ci.key, ci.value)
	}
	c.SetGoogleClientInfo(kv...)
	mc.SetGoogleClientInfo(kv...)
	return &Client{c: c, mc: mc, logger: logger}, nil
}

// hasAuthOption reports whether an option will supply a credential.
// The option types are unexported, so they are recognized by name.
func hasAuthOption(opts []option.ClientOption) bool {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		v := reflect.ValueOf(opt)
		switch v.Type().String() {
		case "option.withAPIKey":
			return v.String() != ""
		case "option.withHTTPClient",
			"option.withTokenSource",
			"option.withCredFile",
			"option.withCredentialsJSON",
			"*option.withCreds",
			"option.withAuthCredentials":
			return true
		}
	}
	return false
}

// Close closes the client.
func (c *Client) Close() error {
	var err error
	for _, closer := range []interface{ Close() error }{c.c, c.mc} {
		if cerr := closer.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}
	return err
}

// WithClientInfo sets request information identifying the
// product that is calling this client.
func WithClientInfo(key, value string) option.ClientOption {
	return &clientInfo{key: key, value: value}
}

type clientInfo struct {
	option.ClientOption
	key, value string
}

// WithLogger sets the logger the client and the models and chat sessions
// created from it write to. By default nothing is logged.
// Chat sessions log each send at verbosity 1.
func WithLogger(l logr.Logger) option.ClientOption {
	return &loggerOption{logger: l}
}

type loggerOption struct {
	option.ClientOption
	logger logr.Logger
}

// optionOfType returns the first value of opts that has type T,
// along with true. If there is no option of that type, it returns
// the zero value for T and false.
func optionOfType[T option.ClientOption](opts []option.ClientOption) (T, bool) {
	for _, opt := range opts {
		if opt, ok := opt.(T); ok {
			return opt, true
		}
	}
	var z T
	return z, false
}

// withoutCustomOptions removes the options defined in this package, which the
// generated clients do not understand.
func withoutCustomOptions(opts []option.ClientOption) []option.ClientOption {
	var out []option.ClientOption
	for _, opt := range opts {
		switch opt.(type) {
		case *clientInfo, *loggerOption:
		default:
			out = append(out, opt)
		}
	}
	return out
}

// GenerativeModel is a model that can generate text.
// Create one with [Client.GenerativeModel] or [NewGenerativeModel], then
// configure it by setting the exported fields.
//
// The fields are read on every request. Do not change them while a request
// made with the model, or a ChatSession started from it, is in progress.
type GenerativeModel struct {
	t        Transport
	mc       *gl.ModelClient
	fullName string

	GenerationConfig
	SafetySettings []*SafetySetting
	Tools          []*Tool
	ToolConfig     *ToolConfig // configuration for tools
	// SystemInstruction (also known as "system prompt") is a more forceful prompt to the model.
	// The model will adhere the instructions more strongly than if they appeared in a normal prompt.
	SystemInstruction *Content

	// Logger receives the model's log output. The zero Logger discards it.
	Logger logr.Logger
}

// GenerativeModel creates a new instance of the named generative model.
// For instance, "gemini-1.5-flash" or "models/gemini-1.5-flash".
//
// GenerativeModel does not check that the model exists; use
// [GenerativeModel.Info] for that.
func (c *Client) GenerativeModel(name string) *GenerativeModel {
	m := NewGenerativeModel(&restTransport{c: c.c}, name)
	m.mc = c.mc
	m.Logger = c.logger
	return m
}

// NewGenerativeModel returns a model that sends its requests through t.
// It is the way to use this package with a backend other than the
// Google AI service, or with a fake one in tests.
func NewGenerativeModel(t Transport, name string) *GenerativeModel {
	return &GenerativeModel{
		t:        t,
		fullName: fullModelName(name),
	}
}

// Name returns the full name of the model, such as "models/gemini-1.5-flash".
func (m *GenerativeModel) Name() string {
	return m.fullName
}

func fullModelName(name string) string {
	if strings.ContainsRune(name, '/') {
		return name
	}
	return "models/" + name
}

// GenerateContent produces a single request and response.
// The parts make up one user turn; no history is involved.
func (m *GenerativeModel) GenerateContent(ctx context.Context, parts ...Part) (*GenerateContentResponse, error) {
	req, err := m.buildRequest(nil, NewUserContent(parts...))
	if err != nil {
		return nil, err
	}
	return m.generateContent(ctx, req)
}

// generateContent sends req and waits for the full response.
func (m *GenerativeModel) generateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	resp, err := m.t.GenerateContent(ctx, req)
	if err != nil {
		return nil, transportError(err)
	}
	if resp == nil {
		return nil, &TransportError{Err: errors.New("transport returned no response")}
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GenerateContentStream returns an iterator that enumerates responses.
// The parts make up one user turn; no history is involved.
func (m *GenerativeModel) GenerateContentStream(ctx context.Context, parts ...Part) *GenerateContentResponseIterator {
	req, err := m.buildRequest(nil, NewUserContent(parts...))
	if err != nil {
		return failedIterator(err)
	}
	return newResponseIterator(ctx, m, req, nil)
}
