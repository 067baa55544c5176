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
	"fmt"
	"net/http"
	"os"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/classifier"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// ClipDescribe captions the uploaded image with the similarity classifier.
// The sentence is also published as a ModelResponse so the chain's output
// has the same shape as the generative routes.
type ClipDescribe struct {
	cor.BaseCommand
	describer classifier.Describer
}

// NewClipDescribe describes the uploaded image with describer.
func NewClipDescribe(name string, describer classifier.Describer) *ClipDescribe {
	out := &ClipDescribe{BaseCommand: *cor.NewBaseCommand(name), describer: describer}
	out.WithParams(ParamUpload, ParamDescription)
	return out
}

// Execute also leaves the sentence as a ModelResponse for persistence.
func (c *ClipDescribe) Execute(context cor.Context) {
	upload := context.Get(c.GetInputParam()).(*UploadedFile)
	data, err := os.ReadFile(upload.Path)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to read upload %s: %w", upload.Name, err))
		return
	}
	description, err := c.describer.Describe(context.GetContext(), data)
	if err != nil {
		c.Fail(context, fmt.Errorf("classification failed: %w", err))
		return
	}
	context.Add(ParamResponse, model.ModelResponse{StatusCode: http.StatusOK, Text: description.Sentence})
	c.Succeed(context, description)
}
