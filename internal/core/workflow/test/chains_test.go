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

package workflow_test

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-media-summarizer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func cloudPromptsWithStory(story string) cloud.PromptTemplates {
	return cloud.PromptTemplates{Story: story}
}

func TestPromptsFallBackToDefaults(t *testing.T) {
	defaults, err := workflow.NewPrompts(cloudPromptsWithStory(""))
	require.NoError(t, err)
	assert.Equal(t, "story", defaults.Story.Name())

	_, err = workflow.NewPrompts(cloudPromptsWithStory("{{.Text"))
	assert.Error(t, err)
}

func TestVideoSummaryChain(t *testing.T) {
	traceCtx, span := tracer.Start(ctx, "video-summary-test")
	defer span.End()

	fake := &test.FakeGenerator{Text: "A dog chases a ball."}
	recorder := &memoryRecorder{}
	video := workflow.NewVideoAnalysisWorkflow("video-summary", workflow.VideoAnalysisOptions{
		Mode:      workflow.VideoSummary,
		Generator: fake,
		Prompt:    prompts.VideoSummary,
		Frames:    fakeFrameSource{total: 250},
		Recorder:  recorder,
		ModelUsed: model.ModelGemini,
	})

	chainCtx := cor.NewContextWith(traceCtx)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamUpload, test.FileHeader(t, "file", "clip.mp4", []byte("....ftypisom fake mp4")))
	video.Execute(chainCtx)

	for k, err := range chainCtx.GetErrors() {
		logger.Error("chain error", "command", k, "error", err)
	}
	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed to execute video summary test")
	}
	require.NoError(t, chainCtx.Err())

	resp := chainCtx.Get(commands.ParamResponse).(model.ModelResponse)
	assert.Equal(t, "A dog chases a ball.", resp.Value())
	assert.Equal(t, []string{"Summarize this video in 3-5 lines. Return a clean summary only."}, fake.LastPrompt())

	frames := chainCtx.Get(commands.ParamFrames).([]*model.VideoFrame)
	assert.Len(t, frames, commands.DefaultKeyFrameCount)
	assert.Equal(t, 200, frames[4].Index)

	require.Len(t, recorder.saved, 1)
	assert.Equal(t, model.SectionVideoSummary, recorder.saved[0].Section)
	assert.Equal(t, "A dog chases a ball.", recorder.saved[0].Summary)
}

func TestVideoNotesSkipFrames(t *testing.T) {
	fake := &test.FakeGenerator{Text: "- point"}
	recorder := &memoryRecorder{}
	notes := workflow.NewVideoAnalysisWorkflow("video-notes", workflow.VideoAnalysisOptions{
		Mode:      workflow.VideoNotes,
		Generator: fake,
		Prompt:    prompts.VideoNotes,
		Frames:    fakeFrameSource{total: 10},
		Recorder:  recorder,
		ModelUsed: model.ModelGemini,
	})

	chainCtx := cor.NewContextWith(ctx)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamUpload, test.FileHeader(t, "file", "clip.mp4", []byte("video")))
	notes.Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	assert.Nil(t, chainCtx.Get(commands.ParamFrames))
	require.Len(t, recorder.saved, 1)
	assert.Equal(t, model.SectionVideoNotes, recorder.saved[0].Section)
}

func TestImagePromptChainAnswersQuestion(t *testing.T) {
	fake := &test.FakeGenerator{Text: "It is a square."}
	recorder := &memoryRecorder{}
	vqa := workflow.NewImagePromptWorkflow("vqa", model.SectionVQA, fake, prompts.Question, recorder, model.ModelGemini)

	chainCtx := cor.NewContextWith(ctx)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamUpload, test.FileHeader(t, "file", "shape.jpg", test.TinyJPEG()))
	chainCtx.Add(commands.ParamQuestion, "What shape is this?")
	vqa.Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	assert.Equal(t, []string{"Answer this question based on the image: What shape is this?"}, fake.LastPrompt())
	require.Len(t, recorder.saved, 1)
	saved := recorder.saved[0]
	assert.Equal(t, "What shape is this?", saved.Question)
	assert.Equal(t, "It is a square.", saved.Answer)
	assert.Equal(t, test.TinyJPEG(), saved.ImageData)
}

func TestImageSummariesChain(t *testing.T) {
	fake := &test.FakeGenerator{Text: "a gradient"}
	summaries := workflow.NewImageSummariesWorkflow("image-summaries", fake, prompts.ImageStory, config.Application.ThreadPoolSize)

	chainCtx := cor.NewContextWith(ctx)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamUploads, []*multipart.FileHeader{
		test.FileHeader(t, "image1", "1.jpg", test.TinyJPEG()),
		nil,
		test.FileHeader(t, "image3", "3.jpg", test.TinyJPEG()),
		nil,
	})
	summaries.Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	assert.Equal(t, []string{"a gradient", "Image 2: No image uploaded.", "a gradient", "Image 4: No image uploaded."},
		chainCtx.Get(commands.ParamSummaries))
	assert.Equal(t, 2, fake.Calls())
	assert.Empty(t, fake.LastPrompt())
}

func TestStoryChain(t *testing.T) {
	fake := &test.FakeGenerator{Text: "Once upon a time."}
	story := workflow.NewStoryWorkflow("story", fake, prompts.Story)

	chainCtx := cor.NewContextWith(ctx)
	chainCtx.Add(commands.ParamSummaries, []string{"A", "B", "C", "D"})
	story.Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	assert.Equal(t, "Once upon a time.", chainCtx.Get(commands.ParamResponse).(model.ModelResponse).Text)
	assert.Equal(t,
		[]string{"Create a connected short story based on these descriptions:\n\n in simple languageA\n\nB\n\nC\n\nD"},
		fake.LastPrompt())
}

func TestTextSummaryChain(t *testing.T) {
	fake := &test.FakeGenerator{Text: "summary"}
	store := services.NewMemoryTextStore()
	text := workflow.NewTextSummaryWorkflow("text-summary", fake, prompts, store)

	chainCtx := cor.NewContextWith(ctx)
	chainCtx.Add(commands.ParamText, "The quick brown fox.")
	text.Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	require.Equal(t, 2, fake.Calls())
	assert.Equal(t, []string{"Summarize the following text into clear bullet points:\n\nThe quick brown fox.\n\nFormat it as:\n- Point 1\n- Point 2\n- Point 3"}, fake.LastPrompt())
	assert.Equal(t, "summary", chainCtx.Get(commands.ParamShortResponse).(model.ModelResponse).Text)
	assert.Equal(t, "summary", chainCtx.Get(commands.ParamPointsResponse).(model.ModelResponse).Text)

	history, err := store.ListTextSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "The quick brown fox.", history[0].OriginalText)
}
