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

// Conversions between the genai value types and the generativelanguage protos.

import (
	"fmt"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/genaichat/chat-go/internal/support"
	"google.golang.org/protobuf/types/known/structpb"
)

func (r *GenerateContentRequest) toProto() (*pb.GenerateContentRequest, error) {
	contents, err := support.TransformSliceErr(r.Contents, (*Content).toProto)
	if err != nil {
		return nil, err
	}
	var sys *pb.Content
	if r.SystemInstruction != nil {
		if sys, err = r.SystemInstruction.toProto(); err != nil {
			return nil, err
		}
	}
	return &pb.GenerateContentRequest{
		Model:             r.Model,
		Contents:          contents,
		SystemInstruction: sys,
		GenerationConfig:  r.GenerationConfig.toProto(),
		SafetySettings:    support.TransformSlice(r.SafetySettings, (*SafetySetting).toProto),
		Tools:             support.TransformSlice(r.Tools, (*Tool).toProto),
		ToolConfig:        r.ToolConfig.toProto(),
	}, nil
}

func (c *Content) toProto() (*pb.Content, error) {
	if c == nil {
		return nil, nil
	}
	parts, err := support.TransformSliceErr(c.Parts, partToProto)
	if err != nil {
		return nil, err
	}
	return &pb.Content{Role: c.Role, Parts: parts}, nil
}

func partToProto(p Part) (*pb.Part, error) {
	if p == nil {
		return nil, &InvalidContentError{Reason: "nil part"}
	}
	return p.toPart()
}

func (t Text) toPart() (*pb.Part, error) {
	return &pb.Part{Data: &pb.Part_Text{Text: string(t)}}, nil
}

func (b Blob) toPart() (*pb.Part, error) {
	return &pb.Part{Data: &pb.Part_InlineData{
		InlineData: &pb.Blob{MimeType: b.MIMEType, Data: b.Data},
	}}, nil
}

func (f FileData) toPart() (*pb.Part, error) {
	return &pb.Part{Data: &pb.Part_FileData{
		FileData: &pb.FileData{MimeType: f.MIMEType, FileUri: f.URI},
	}}, nil
}

func (f FunctionCall) toPart() (*pb.Part, error) {
	args, err := structpb.NewStruct(f.Args)
	if err != nil {
		return nil, &InvalidContentError{Reason: fmt.Sprintf("arguments of function call %q: %v", f.Name, err)}
	}
	return &pb.Part{Data: &pb.Part_FunctionCall{
		FunctionCall: &pb.FunctionCall{Name: f.Name, Args: args},
	}}, nil
}

func (f FunctionResponse) toPart() (*pb.Part, error) {
	resp, err := structpb.NewStruct(f.Response)
	if err != nil {
		return nil, &InvalidContentError{Reason: fmt.Sprintf("response of function %q: %v", f.Name, err)}
	}
	return &pb.Part{Data: &pb.Part_FunctionResponse{
		FunctionResponse: &pb.FunctionResponse{Name: f.Name, Response: resp},
	}}, nil
}

func (c *GenerationConfig) toProto() *pb.GenerationConfig {
	if c == nil {
		return nil
	}
	return &pb.GenerationConfig{
		CandidateCount:   c.CandidateCount,
		StopSequences:    c.StopSequences,
		MaxOutputTokens:  c.MaxOutputTokens,
		Temperature:      c.Temperature,
		TopP:             c.TopP,
		TopK:             c.TopK,
		ResponseMimeType: c.ResponseMIMEType,
		ResponseSchema:   c.ResponseSchema.toProto(),
	}
}

func (s *SafetySetting) toProto() *pb.SafetySetting {
	if s == nil {
		return nil
	}
	return &pb.SafetySetting{
		Category:  pb.HarmCategory(s.Category),
		Threshold: pb.SafetySetting_HarmBlockThreshold(s.Threshold),
	}
}

func (v *Tool) toProto() *pb.Tool {
	if v == nil {
		return nil
	}
	return &pb.Tool{
		FunctionDeclarations: support.TransformSlice(v.FunctionDeclarations, (*FunctionDeclaration).toProto),
	}
}

func (v *FunctionDeclaration) toProto() *pb.FunctionDeclaration {
	if v == nil {
		return nil
	}
	return &pb.FunctionDeclaration{
		Name:        v.Name,
		Description: v.Description,
		Parameters:  v.Parameters.toProto(),
	}
}

func (v *ToolConfig) toProto() *pb.ToolConfig {
	if v == nil || v.FunctionCallingConfig == nil {
		return nil
	}
	return &pb.ToolConfig{
		FunctionCallingConfig: &pb.FunctionCallingConfig{
			Mode:                 pb.FunctionCallingConfig_Mode(v.FunctionCallingConfig.Mode),
			AllowedFunctionNames: v.FunctionCallingConfig.AllowedFunctionNames,
		},
	}
}

func (v *Schema) toProto() *pb.Schema {
	if v == nil {
		return nil
	}
	return &pb.Schema{
		Type:        pb.Type(v.Type),
		Format:      v.Format,
		Description: v.Description,
		Nullable:    v.Nullable,
		Enum:        v.Enum,
		Items:       v.Items.toProto(),
		Properties:  support.TransformMapValues(v.Properties, (*Schema).toProto),
		Required:    v.Required,
	}
}

func (Schema) fromProto(p *pb.Schema) *Schema {
	if p == nil {
		return nil
	}
	return &Schema{
		Type:        Type(p.Type),
		Format:      p.Format,
		Description: p.Description,
		Nullable:    p.Nullable,
		Enum:        p.Enum,
		Items:       (Schema{}).fromProto(p.Items),
		Properties:  support.TransformMapValues(p.Properties, (Schema{}).fromProto),
		Required:    p.Required,
	}
}

func (GenerateContentResponse) fromProto(p *pb.GenerateContentResponse) *GenerateContentResponse {
	if p == nil {
		return nil
	}
	return &GenerateContentResponse{
		Candidates:     support.TransformSlice(p.Candidates, (Candidate{}).fromProto),
		PromptFeedback: (PromptFeedback{}).fromProto(p.PromptFeedback),
		UsageMetadata:  (UsageMetadata{}).fromProto(p.UsageMetadata),
	}
}

func (Candidate) fromProto(p *pb.Candidate) *Candidate {
	if p == nil {
		return nil
	}
	return &Candidate{
		Index:            support.DerefOrZero(p.Index),
		Content:          (Content{}).fromProto(p.Content),
		FinishReason:     FinishReason(p.FinishReason),
		SafetyRatings:    support.TransformSlice(p.SafetyRatings, (SafetyRating{}).fromProto),
		CitationMetadata: (CitationMetadata{}).fromProto(p.CitationMetadata),
		TokenCount:       p.TokenCount,
	}
}

func (Content) fromProto(p *pb.Content) *Content {
	if p == nil {
		return nil
	}
	var parts []Part
	for _, pp := range p.Parts {
		if part := partFromProto(pp); part != nil {
			parts = append(parts, part)
		}
	}
	return &Content{Role: p.Role, Parts: parts}
}

// partFromProto returns nil for kinds of parts this package does not model,
// such as executable code.
func partFromProto(p *pb.Part) Part {
	switch d := p.GetData().(type) {
	case *pb.Part_Text:
		return Text(d.Text)
	case *pb.Part_InlineData:
		return Blob{MIMEType: d.InlineData.GetMimeType(), Data: d.InlineData.GetData()}
	case *pb.Part_FileData:
		return FileData{MIMEType: d.FileData.GetMimeType(), URI: d.FileData.GetFileUri()}
	case *pb.Part_FunctionCall:
		return FunctionCall{Name: d.FunctionCall.GetName(), Args: d.FunctionCall.GetArgs().AsMap()}
	case *pb.Part_FunctionResponse:
		return FunctionResponse{Name: d.FunctionResponse.GetName(), Response: d.FunctionResponse.GetResponse().AsMap()}
	default:
		return nil
	}
}

func (SafetyRating) fromProto(p *pb.SafetyRating) *SafetyRating {
	if p == nil {
		return nil
	}
	return &SafetyRating{
		Category:    HarmCategory(p.Category),
		Probability: HarmProbability(p.Probability),
		Blocked:     p.Blocked,
	}
}

func (CitationMetadata) fromProto(p *pb.CitationMetadata) *CitationMetadata {
	if p == nil {
		return nil
	}
	return &CitationMetadata{
		CitationSources: support.TransformSlice(p.CitationSources, (CitationSource{}).fromProto),
	}
}

func (CitationSource) fromProto(p *pb.CitationSource) *CitationSource {
	if p == nil {
		return nil
	}
	return &CitationSource{
		StartIndex: p.StartIndex,
		EndIndex:   p.EndIndex,
		URI:        p.Uri,
		License:    support.DerefOrZero(p.License),
	}
}

func (PromptFeedback) fromProto(p *pb.GenerateContentResponse_PromptFeedback) *PromptFeedback {
	if p == nil {
		return nil
	}
	return &PromptFeedback{
		BlockReason:   BlockReason(p.BlockReason),
		SafetyRatings: support.TransformSlice(p.SafetyRatings, (SafetyRating{}).fromProto),
	}
}

func (UsageMetadata) fromProto(p *pb.GenerateContentResponse_UsageMetadata) *UsageMetadata {
	if p == nil {
		return nil
	}
	return &UsageMetadata{
		PromptTokenCount:     p.PromptTokenCount,
		CandidatesTokenCount: p.CandidatesTokenCount,
		TotalTokenCount:      p.TotalTokenCount,
	}
}
