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

package workflow

import (
	"text/template"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/classifier"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
)

// ImagePromptWorkflow sends one image with a prompt and records the answer
// under its section: summary, caption or VQA. For VQA the question is read
// from commands.ParamQuestion.
type ImagePromptWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewImagePromptWorkflow builds a single image prompt and persists the answer under section.
func NewImagePromptWorkflow(
	name string,
	section string,
	generator cloud.ContentGenerator,
	prompt *template.Template,
	recorder services.InteractionRecorder,
	modelUsed string) *ImagePromptWorkflow {

	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	chain := cor.NewBaseChain(name)
	upload := commands.NewUploadToTempFile("upload-to-temp-file", "image/jpeg")
	upload.WithParams(commands.ParamUpload, commands.ParamUpload)
	chain.AddCommand(upload)
	chain.AddCommand(commands.NewRequestBuilder("build-image-request", prompt))
	chain.AddCommand(commands.NewContentGenerator("generate-"+section, generator, commands.DefaultImageText))
	chain.AddCommand(commands.NewPersistInteraction("persist-interaction", recorder, section, modelUsed))
	return &ImagePromptWorkflow{BaseCommand: *cor.NewBaseCommand(name), chain: chain}
}

// Execute runs the chain.
func (w *ImagePromptWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// ClipCaptionWorkflow describes an image with the local similarity
// classifier and records it as an image summary.
type ClipCaptionWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewClipCaptionWorkflow describes images locally and persists the caption.
func NewClipCaptionWorkflow(name string, describer classifier.Describer, recorder services.InteractionRecorder) *ClipCaptionWorkflow {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	chain := cor.NewBaseChain(name)
	upload := commands.NewUploadToTempFile("upload-to-temp-file", "image/jpeg")
	upload.WithParams(commands.ParamUpload, commands.ParamUpload)
	chain.AddCommand(upload)
	chain.AddCommand(commands.NewClipDescribe("clip-describe", describer))
	chain.AddCommand(commands.NewPersistInteraction("persist-interaction", recorder, model.SectionImageSummary, model.ModelClipGPT2))
	return &ClipCaptionWorkflow{BaseCommand: *cor.NewBaseCommand(name), chain: chain}
}

// Execute runs the classifier chain.
func (w *ClipCaptionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// ImageSummariesWorkflow summarizes the story images in parallel. The input
// under commands.ParamUploads has one entry per slot, nil when the slot was
// left empty; the output under commands.ParamSummaries keeps that order.
type ImageSummariesWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewImageSummariesWorkflow summarizes the image slots concurrently.
func NewImageSummariesWorkflow(name string, generator cloud.ContentGenerator, instruction string, numberOfWorkers int) *ImageSummariesWorkflow {
	chain := cor.NewBaseChain(name)
	upload := commands.NewUploadToTempFile("upload-to-temp-file", "image/jpeg")
	upload.WithParams(commands.ParamUploads, commands.ParamUploads)
	chain.AddCommand(upload)
	chain.AddCommand(commands.NewImageSummaryExtractor(
		"extract-image-summaries",
		commands.NewContentGenerator("generate-image-summary", generator, commands.DefaultImageText),
		instruction,
		numberOfWorkers))
	return &ImageSummariesWorkflow{BaseCommand: *cor.NewBaseCommand(name), chain: chain}
}

// Execute runs the chain.
func (w *ImageSummariesWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
