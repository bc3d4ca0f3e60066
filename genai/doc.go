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

// Package genai drives conversations with generative AI models.
//
// It builds requests from a model's settings and a chat history, sends them
// in blocking or streaming mode, merges streamed responses, and runs the
// function calls the model asks for.
//
// NOTE: The default client uses the v1beta version of the Google AI API.
//
// # Getting started
//
// Reading the [examples] is the best way to learn how to use this package.
//
// # Authorization
//
// [NewClient] needs a credential, usually an API key passed with
// option.WithAPIKey. There is no process-wide key.
// See the [setup tutorial] for details.
//
// Any other backend can be used by implementing [Transport] and passing it
// to [NewGenerativeModel]. Package openaicompat provides one for servers that
// speak the OpenAI chat completions protocol.
//
// # Chat
//
// A [ChatSession] keeps the history of a conversation. Each message sent
// adds the user's turn and the model's answer to the history together, and
// only if the send succeeds.
//
// # Streaming
//
// GenerateContentStream and SendMessageStream return an iterator over
// partial responses. Call Next for each one, or pass a [StreamObserver] to
// Drain to be called back instead. The merged response is available from
// MergedResponse.
//
// # Tools
//
// Gemini can call functions if you tell it about them.
// Create FunctionDeclarations, add them to a Tool, and install the Tool in a Model.
// When used in a ChatSession, the content returned from a model may include FunctionCall
// parts. Your code performs the requested call and sends back a FunctionResponse.
// See the example for Tool.
//
// To have the session call a Go function for you, set FunctionDeclaration.Handler
// or call ChatSession.RegisterFunction. The session will look for FunctionCalls,
// invoke the handler, and reply with a FunctionResponse, for at most
// ChatSession.MaxToolRounds rounds. Your code will see only the final result.
//
// The NewCallableFunctionDeclaration function will infer the schema for a function you supply,
// and create a FunctionDeclaration that exposes that function for automatic calling.
// See the example for NewCallableFunctionDeclaration.
//
// # Errors
//
// Errors are typed: *InvalidContentError, *InvalidHistoryError and
// *ConfigurationError report misuse; *TransportError wraps failures of the
// backend; *UnknownToolError, *ToolError and *ToolLoopExceededError report
// problems with function calling; *BlockedError reports a response blocked
// for safety. Use [errors.As] to examine them. A *TransportError from the
// default client often wraps a *googleapi.Error, whose details can be read
// with apierror.
//
// [examples]: https://pkg.go.dev/github.com/genaichat/chat-go/genai#pkg-examples
// [setup tutorial]: https://ai.google.dev/tutorials/setup
package genai
