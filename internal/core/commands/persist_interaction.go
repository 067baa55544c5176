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
	"log/slog"
	"os"
	"strings"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/classifier"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
)

// PersistInteraction records the outcome of the chain. Recording failures
// are logged and counted but never fail the chain, so the caller still gets
// its answer.
type PersistInteraction struct {
	cor.BaseCommand
	recorder  services.InteractionRecorder
	section   string
	modelUsed string
}

// NewPersistInteraction records one interaction per successful request.
func NewPersistInteraction(name string, recorder services.InteractionRecorder, section string, modelUsed string) *PersistInteraction {
	out := &PersistInteraction{
		BaseCommand: *cor.NewBaseCommand(name),
		recorder:    recorder,
		section:     section,
		modelUsed:   modelUsed,
	}
	out.WithParams(ParamResponse, ParamInteraction)
	return out
}

// IsExecutable requires a model response or a classifier description.
func (s *PersistInteraction) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil &&
		(context.Get(ParamResponse) != nil || context.Get(ParamDescription) != nil)
}

// text returns the response text, the stored error text for a failed call,
// or the classifier sentence.
func (s *PersistInteraction) text(context cor.Context) string {
	if resp, ok := context.Get(ParamResponse).(model.ModelResponse); ok {
		return resp.Value()
	}
	if d, ok := context.Get(ParamDescription).(*classifier.Description); ok && d != nil {
		return d.Sentence
	}
	return ""
}

// Interaction builds the row for the current context.
func (s *PersistInteraction) Interaction(context cor.Context) *model.Interaction {
	interaction := model.NewInteraction(s.section, s.modelUsed)
	text := s.text(context)
	switch s.section {
	case model.SectionCaption:
		interaction.Caption = text
	case model.SectionVQA:
		interaction.Answer = text
		if q, ok := context.Get(ParamQuestion).(string); ok {
			interaction.Question = q
		}
	default:
		interaction.Summary = text
	}
	if upload, ok := context.Get(ParamUpload).(*UploadedFile); ok && upload != nil && strings.HasPrefix(upload.MIMEType, "image/") {
		if data, err := os.ReadFile(upload.Path); err == nil {
			interaction.ImageData = data
		}
	}
	return interaction
}

// Execute records the interaction. A store failure is logged, not returned.
func (s *PersistInteraction) Execute(context cor.Context) {
	interaction := s.Interaction(context)
	context.Add(s.GetOutputParam(), interaction)
	if err := s.recorder.Record(context.GetContext(), interaction); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		slog.ErrorContext(context.GetContext(), "failed to record interaction",
			"id", interaction.Id, "section", interaction.Section, "error", err)
		return
	}
	s.GetSuccessCounter().Add(context.GetContext(), 1)
}
