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
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
)

// VideoIngestionWorkflow summarizes videos dropped into a bucket. It is fed
// the JSON of a storage notification under cor.CtxIn by a Pub/Sub listener.
// With referenceObjects set the model reads the object from Cloud Storage
// directly, which only the Vertex AI backend supports; key frames are always
// sampled from the downloaded copy.
type VideoIngestionWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewVideoIngestionWorkflow turns a storage trigger into an upload and hands
// it to analysis. With referenceObjects the object is passed by URI.
func NewVideoIngestionWorkflow(name string, opener commands.ObjectOpener, referenceObjects bool, analysis *VideoAnalysisWorkflow) *VideoIngestionWorkflow {
	chain := cor.NewBaseChain(name).
		AddCommand(commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object")).
		AddCommand(commands.NewGCSToTempFile("gcs-to-temp-file", opener))
	if referenceObjects {
		chain.AddCommand(commands.NewMediaReference("media-reference"))
	}
	chain.AddCommand(analysis)
	return &VideoIngestionWorkflow{BaseCommand: *cor.NewBaseCommand(name), chain: chain}
}

// IsExecutable only needs a bound Go context. The trigger is checked by the chain.
func (w *VideoIngestionWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs the ingestion chain.
func (w *VideoIngestionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
