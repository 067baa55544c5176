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

// Package workflow assembles commands into the chains served by the HTTP
// handlers and the background listeners. Every chain is built once at
// startup and executed with a fresh cor.Context per request.
package workflow

import (
	"fmt"
	"text/template"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
)

// Prompt texts used when the configuration leaves a template empty.
const (
	DefaultVideoSummaryPrompt = "Summarize this video in 3-5 lines. Return a clean summary only."
	DefaultVideoNotesPrompt   = "Create a point-wise list of the key information and important points from this video. Format as short, clear bullet points. Return only the bullet points without explanations."
	DefaultImageSummaryPrompt = "Describe the following image in 6-8 sentences:"
	DefaultCaptionPrompt      = "Generate a short caption for the following image:"
	DefaultQuestionPrompt     = "Answer this question based on the image: {{.Question}}"
	DefaultStoryPrompt        = "Create a connected short story based on these descriptions:\n\n in simple language{{.Text}}"
	DefaultTextShortPrompt    = "Provide a short summary of the following text:\n\n{{.Text}}"
	DefaultTextPointsPrompt   = "Summarize the following text into clear bullet points:\n\n{{.Text}}\n\nFormat it as:\n- Point 1\n- Point 2\n- Point 3"
)

// Prompts holds the parsed prompt templates.
type Prompts struct {
	VideoSummary *template.Template
	VideoNotes   *template.Template
	ImageSummary *template.Template
	Caption      *template.Template
	Question     *template.Template
	Story        *template.Template
	TextShort    *template.Template
	TextPoints   *template.Template
	// ImageStory is sent verbatim with every story image. Empty sends the
	// image alone.
	ImageStory string
}

func parse(name, text, fallback string) (*template.Template, error) {
	if text == "" {
		text = fallback
	}
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s prompt template: %w", name, err)
	}
	return tmpl, nil
}

// NewPrompts parses the configured templates, filling gaps with defaults.
func NewPrompts(in cloud.PromptTemplates) (*Prompts, error) {
	out := &Prompts{ImageStory: in.ImageStory}
	specs := []struct {
		name, text, fallback string
		target               **template.Template
	}{
		{"video_summary", in.VideoSummary, DefaultVideoSummaryPrompt, &out.VideoSummary},
		{"video_notes", in.VideoNotes, DefaultVideoNotesPrompt, &out.VideoNotes},
		{"image_summary", in.ImageSummary, DefaultImageSummaryPrompt, &out.ImageSummary},
		{"caption", in.Caption, DefaultCaptionPrompt, &out.Caption},
		{"question", in.Question, DefaultQuestionPrompt, &out.Question},
		{"story", in.Story, DefaultStoryPrompt, &out.Story},
		{"text_short", in.TextShort, DefaultTextShortPrompt, &out.TextShort},
		{"text_points", in.TextPoints, DefaultTextPointsPrompt, &out.TextPoints},
	}
	for _, s := range specs {
		tmpl, err := parse(s.name, s.text, s.fallback)
		if err != nil {
			return nil, err
		}
		*s.target = tmpl
	}
	return out, nil
}
