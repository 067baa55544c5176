// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// BuildRequest places the instruction first, when present, followed by the
// attachments in order. Sizes are not checked; the remote service rejects
// what it cannot accept.
func BuildRequest(instruction string, attachments ...model.Attachment) *model.ModelRequest {
	parts := make([]model.RequestPart, 0, len(attachments)+1)
	if instruction != "" {
		parts = append(parts, model.RequestPart{Text: instruction})
	}
	for i := range attachments {
		a := attachments[i]
		parts = append(parts, model.RequestPart{Attachment: &a})
	}
	return &model.ModelRequest{Parts: parts}
}

// PromptData is the data available to prompt templates.
type PromptData struct {
	Text     string
	Question string
}

// RenderPrompt executes tmpl with the text and question found in the context.
func RenderPrompt(tmpl *template.Template, context cor.Context) (string, error) {
	if tmpl == nil {
		return "", nil
	}
	data := PromptData{}
	if v, ok := context.Get(ParamText).(string); ok {
		data.Text = v
	}
	if v, ok := context.Get(ParamQuestion).(string); ok {
		data.Question = v
	}
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buffer.String(), nil
}

// RequestBuilder renders its prompt and attaches the upload, if any, to
// produce a *model.ModelRequest. A remote reference published under
// ParamReference takes the place of the local upload.
type RequestBuilder struct {
	cor.BaseCommand
	prompt *template.Template
}

// NewRequestBuilder renders prompt and attaches the upload.
func NewRequestBuilder(name string, prompt *template.Template) *RequestBuilder {
	out := &RequestBuilder{BaseCommand: *cor.NewBaseCommand(name), prompt: prompt}
	out.WithParams(ParamUpload, ParamRequest)
	return out
}

// IsExecutable does not require an upload; text only prompts are valid.
func (c *RequestBuilder) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute prefers a GCS reference over the local upload.
func (c *RequestBuilder) Execute(context cor.Context) {
	instruction, err := RenderPrompt(c.prompt, context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	var attachments []model.Attachment
	if ref, ok := context.Get(ParamReference).(*model.Attachment); ok && ref != nil {
		attachments = append(attachments, *ref)
	} else if upload, ok := context.Get(c.GetInputParam()).(*UploadedFile); ok && upload != nil {
		data, err := os.ReadFile(upload.Path)
		if err != nil {
			c.Fail(context, fmt.Errorf("failed to read upload %s: %w", upload.Name, err))
			return
		}
		attachments = append(attachments, model.Attachment{MIMEType: upload.MIMEType, Data: data})
	}
	c.Succeed(context, BuildRequest(instruction, attachments...))
}
