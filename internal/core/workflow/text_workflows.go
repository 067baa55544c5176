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
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
)

// StorySeparator joins the image summaries inside the story prompt.
const StorySeparator = "\n\n"

// StoryWorkflow turns image summaries into one short story. The summaries
// are read from commands.ParamSummaries and the outcome is left under
// commands.ParamResponse. A response without text means the model gave no
// story.
type StoryWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewStoryWorkflow builds the story chain: prompt, generate.
func NewStoryWorkflow(name string, generator cloud.ContentGenerator, prompt *template.Template) *StoryWorkflow {
	out := &StoryWorkflow{BaseCommand: *cor.NewBaseCommand(name)}
	out.WithParams(commands.ParamSummaries, commands.ParamResponse)
	out.chain = cor.NewBaseChain(name).
		AddCommand(commands.NewRequestBuilder("build-story-request", prompt)).
		AddCommand(commands.NewContentGenerator("generate-story", generator, ""))
	return out
}

// Execute joins the summaries into the prompt text and runs the chain.
func (w *StoryWorkflow) Execute(context cor.Context) {
	summaries := context.Get(w.GetInputParam()).([]string)
	context.Add(commands.ParamText, strings.Join(summaries, StorySeparator))
	w.chain.Execute(context)
}

// TextSummaryWorkflow produces both the short and the bullet point summary
// of commands.ParamText and stores them in the history. The responses are
// left under commands.ParamShortResponse and commands.ParamPointsResponse.
type TextSummaryWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewTextSummaryWorkflow builds the short and points summaries from the
// same text, then saves both to store.
func NewTextSummaryWorkflow(name string, generator cloud.ContentGenerator, prompts *Prompts, store commands.TextSummarySaver) *TextSummaryWorkflow {
	shortRequest := commands.NewRequestBuilder("build-short-request", prompts.TextShort)
	shortRequest.WithParams(commands.ParamUpload, commands.ParamShortRequest)
	shortSummary := commands.NewContentGenerator("generate-short-summary", generator, commands.DefaultText)
	shortSummary.WithParams(commands.ParamShortRequest, commands.ParamShortResponse)

	pointsRequest := commands.NewRequestBuilder("build-points-request", prompts.TextPoints)
	pointsRequest.WithParams(commands.ParamUpload, commands.ParamPointsRequest)
	pointsSummary := commands.NewContentGenerator("generate-points-summary", generator, commands.DefaultText)
	pointsSummary.WithParams(commands.ParamPointsRequest, commands.ParamPointsResponse)

	chain := cor.NewBaseChain(name).
		AddCommand(shortRequest).
		AddCommand(shortSummary).
		AddCommand(pointsRequest).
		AddCommand(pointsSummary)
	if store != nil {
		chain.AddCommand(commands.NewSaveTextSummary("save-text-summary", store))
	}
	out := &TextSummaryWorkflow{BaseCommand: *cor.NewBaseCommand(name), chain: chain}
	out.WithParams(commands.ParamText, commands.ParamTextSummary)
	return out
}

// Execute runs the chain.
func (w *TextSummaryWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
