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

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
)

// VideoMode selects what the video workflow asks the model for.
type VideoMode string

const (
	VideoSummary VideoMode = "summary"
	VideoNotes   VideoMode = "notes"
)

// Section returns the interaction section recorded for the mode.
func (m VideoMode) Section() string {
	if m == VideoNotes {
		return model.SectionVideoNotes
	}
	return model.SectionVideoSummary
}

// VideoAnalysisOptions configures a VideoAnalysisWorkflow. Archive and
// Frames are optional; key frames are only sampled in summary mode.
type VideoAnalysisOptions struct {
	Mode      VideoMode
	Generator cloud.ContentGenerator
	Prompt    *template.Template
	Frames    commands.FrameSource
	KeyFrames int
	Archive   commands.ObjectStore
	Recorder  services.InteractionRecorder
	ModelUsed string
}

// VideoAnalysisWorkflow summarizes or takes notes on one video. The input is
// the upload under commands.ParamUpload, either a *multipart.FileHeader or
// an already downloaded *commands.UploadedFile. The result is left under
// commands.ParamResponse and, in summary mode, the key frames under
// commands.ParamFrames.
type VideoAnalysisWorkflow struct {
	cor.BaseCommand
	mode  VideoMode
	chain cor.Chain
}

// NewVideoAnalysisWorkflow assembles the chain for opts.Mode.
func NewVideoAnalysisWorkflow(name string, opts VideoAnalysisOptions) *VideoAnalysisWorkflow {
	if opts.Mode == "" {
		opts.Mode = VideoSummary
	}
	if opts.Recorder == nil {
		opts.Recorder = services.NopRecorder{}
	}
	out := &VideoAnalysisWorkflow{BaseCommand: *cor.NewBaseCommand(name), mode: opts.Mode}

	chain := cor.NewBaseChain(name)
	upload := commands.NewUploadToTempFile("upload-to-temp-file", "video/mp4")
	upload.WithParams(commands.ParamUpload, commands.ParamUpload)
	chain.AddCommand(upload)
	if opts.Archive != nil {
		chain.AddCommand(commands.NewArchiveUpload("archive-upload", opts.Archive, "videos"))
	}
	chain.AddCommand(commands.NewRequestBuilder("build-video-request", opts.Prompt))
	chain.AddCommand(commands.NewContentGenerator("generate-video-"+string(opts.Mode), opts.Generator, commands.DefaultVideoText))
	if opts.Mode == VideoSummary && opts.Frames != nil {
		chain.AddCommand(commands.NewFrameSampler("sample-key-frames", opts.Frames, opts.KeyFrames))
	}
	chain.AddCommand(commands.NewPersistInteraction("persist-interaction", opts.Recorder, opts.Mode.Section(), opts.ModelUsed))
	out.chain = chain
	return out
}

// IsExecutable requires an upload, which lets the ingestion chain skip
// objects its trigger ignored.
func (v *VideoAnalysisWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(commands.ParamUpload) != nil
}

// Execute runs the chain on the upload under ParamUpload.
func (v *VideoAnalysisWorkflow) Execute(context cor.Context) {
	v.chain.Execute(context)
}
