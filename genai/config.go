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
	"fmt"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
)

// GenerationConfig holds configuration options for model generation and outputs.
// Unset (nil) fields take the backend's default.
type GenerationConfig struct {
	// Optional. Number of generated responses to return.
	CandidateCount *int32
	// Optional. The set of character sequences (up to 5) that will stop output
	// generation. If specified, the API will stop at the first appearance of a
	// stop sequence. The stop sequence will not be included as part of the
	// response.
	StopSequences []string
	// Optional. The maximum number of tokens to include in a candidate.
	MaxOutputTokens *int32
	// Optional. Controls the randomness of the output. Must be non-negative.
	Temperature *float32
	// Optional. The maximum cumulative probability of tokens to consider when
	// sampling. Must be in the range [0, 1].
	TopP *float32
	// Optional. The maximum number of tokens to consider when sampling.
	TopK *int32
	// Optional. Output response mimetype of the generated candidate text.
	// Supported mimetype:
	// `text/plain`: (default) Text output.
	// `application/json`: JSON response in the candidates.
	ResponseMIMEType string
	// Optional. Output response schema of the generated candidate text.
	// Requires ResponseMIMEType to be `application/json`.
	ResponseSchema *Schema
}

// SetCandidateCount sets the CandidateCount field.
func (c *GenerationConfig) SetCandidateCount(x int32) { c.CandidateCount = &x }

// SetMaxOutputTokens sets the MaxOutputTokens field.
func (c *GenerationConfig) SetMaxOutputTokens(x int32) { c.MaxOutputTokens = &x }

// SetTemperature sets the Temperature field.
func (c *GenerationConfig) SetTemperature(x float32) { c.Temperature = &x }

// SetTopP sets the TopP field.
func (c *GenerationConfig) SetTopP(x float32) { c.TopP = &x }

// SetTopK sets the TopK field.
func (c *GenerationConfig) SetTopK(x int32) { c.TopK = &x }

// Ptr returns a pointer to its argument.
// It can be used to initialize pointer fields:
//
//	model.Temperature = genai.Ptr[float32](0.1)
func Ptr[T any](t T) *T { return &t }

const mimeTypeJSON = "application/json"

// validate reports contradictory or out-of-range options.
func (c *GenerationConfig) validate() error {
	switch {
	case c.ResponseSchema != nil && c.ResponseMIMEType != mimeTypeJSON:
		return &ConfigurationError{Field: "ResponseSchema",
			Reason: fmt.Sprintf("requires ResponseMIMEType %q, got %q", mimeTypeJSON, c.ResponseMIMEType)}
	case c.Temperature != nil && *c.Temperature < 0:
		return &ConfigurationError{Field: "Temperature", Reason: "must be non-negative"}
	case c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1):
		return &ConfigurationError{Field: "TopP", Reason: "must be between 0 and 1"}
	case c.TopK != nil && *c.TopK < 0:
		return &ConfigurationError{Field: "TopK", Reason: "must be non-negative"}
	case c.MaxOutputTokens != nil && *c.MaxOutputTokens < 0:
		return &ConfigurationError{Field: "MaxOutputTokens", Reason: "must be non-negative"}
	case c.CandidateCount != nil && *c.CandidateCount < 0:
		return &ConfigurationError{Field: "CandidateCount", Reason: "must be non-negative"}
	}
	return nil
}

// HarmCategory specifies the category of a rating.
type HarmCategory int32

const (
	// HarmCategoryUnspecified means category is unspecified.
	HarmCategoryUnspecified HarmCategory = 0
	// HarmCategoryHarassment is harassment content.
	HarmCategoryHarassment HarmCategory = 7
	// HarmCategoryHateSpeech is hate speech and content.
	HarmCategoryHateSpeech HarmCategory = 8
	// HarmCategorySexuallyExplicit is sexually explicit content.
	HarmCategorySexuallyExplicit HarmCategory = 9
	// HarmCategoryDangerousContent is dangerous content.
	HarmCategoryDangerousContent HarmCategory = 10
)

func (v HarmCategory) String() string { return pb.HarmCategory(v).String() }

// HarmBlockThreshold specifies block at and beyond a specified harm probability.
type HarmBlockThreshold int32

const (
	// HarmBlockUnspecified means threshold is unspecified.
	HarmBlockUnspecified HarmBlockThreshold = 0
	// HarmBlockLowAndAbove means content with NEGLIGIBLE will be allowed.
	HarmBlockLowAndAbove HarmBlockThreshold = 1
	// HarmBlockMediumAndAbove means content with NEGLIGIBLE and LOW will be allowed.
	HarmBlockMediumAndAbove HarmBlockThreshold = 2
	// HarmBlockOnlyHigh means content with NEGLIGIBLE, LOW, and MEDIUM will be allowed.
	HarmBlockOnlyHigh HarmBlockThreshold = 3
	// HarmBlockNone means all content will be allowed.
	HarmBlockNone HarmBlockThreshold = 4
)

func (v HarmBlockThreshold) String() string { return pb.SafetySetting_HarmBlockThreshold(v).String() }

// HarmProbability specifies the probability that a piece of content is harmful.
type HarmProbability int32

const (
	// HarmProbabilityUnspecified means probability is unspecified.
	HarmProbabilityUnspecified HarmProbability = 0
	// HarmProbabilityNegligible means content has a negligible chance of being unsafe.
	HarmProbabilityNegligible HarmProbability = 1
	// HarmProbabilityLow means content has a low chance of being unsafe.
	HarmProbabilityLow HarmProbability = 2
	// HarmProbabilityMedium means content has a medium chance of being unsafe.
	HarmProbabilityMedium HarmProbability = 3
	// HarmProbabilityHigh means content has a high chance of being unsafe.
	HarmProbabilityHigh HarmProbability = 4
)

func (v HarmProbability) String() string { return pb.SafetyRating_HarmProbability(v).String() }

// SafetySetting affects the safety-blocking behavior.
// Passing a safety setting for a category changes the allowed probability that
// content is blocked.
type SafetySetting struct {
	// Required. The category for this setting.
	Category HarmCategory
	// Required. Controls the probability threshold at which harm is blocked.
	Threshold HarmBlockThreshold
}

// SafetyRating is the safety rating for a piece of content.
type SafetyRating struct {
	// Required. The category for this rating.
	Category HarmCategory
	// Required. The probability of harm for this content.
	Probability HarmProbability
	// Was this content blocked because of this rating?
	Blocked bool
}

// FunctionCallingMode specifies how the model may call functions.
type FunctionCallingMode int32

const (
	// FunctionCallingUnspecified is the unspecified function calling mode.
	// The backend treats it as FunctionCallingAuto.
	FunctionCallingUnspecified FunctionCallingMode = 0
	// FunctionCallingAuto lets the model decide between a function call
	// and a natural language response.
	FunctionCallingAuto FunctionCallingMode = 1
	// FunctionCallingAny constrains the model to always predict a function call.
	// If AllowedFunctionNames is set, the call is limited to one of them.
	FunctionCallingAny FunctionCallingMode = 2
	// FunctionCallingNone means the model will not predict any function call.
	FunctionCallingNone FunctionCallingMode = 3
)

func (v FunctionCallingMode) String() string { return pb.FunctionCallingConfig_Mode(v).String() }

// FunctionCallingConfig holds configuration for function calling.
type FunctionCallingConfig struct {
	// Specifies the mode in which function calling should execute.
	Mode FunctionCallingMode
	// A set of function names that limits the functions the model will call.
	// Must only be set when Mode is FunctionCallingAny.
	AllowedFunctionNames []string
}

// ToolConfig configures tools.
type ToolConfig struct {
	// Optional. Function calling config.
	FunctionCallingConfig *FunctionCallingConfig
}

func (tc *ToolConfig) validate() error {
	if tc == nil || tc.FunctionCallingConfig == nil {
		return nil
	}
	fcc := tc.FunctionCallingConfig
	if len(fcc.AllowedFunctionNames) > 0 && fcc.Mode != FunctionCallingAny {
		return &ConfigurationError{Field: "ToolConfig",
			Reason: fmt.Sprintf("AllowedFunctionNames requires mode ANY, got %s", fcc.Mode)}
	}
	return nil
}
