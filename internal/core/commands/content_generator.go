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
	goctx "context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// ContentGenerator sends a *model.ModelRequest to a model and stores the
// extracted model.ModelResponse. Remote failures are carried inside the
// response and are not chain errors.
type ContentGenerator struct {
	cor.BaseCommand
	generator          cloud.ContentGenerator
	defaultText        string
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewContentGenerator calls generator with the request in the context.
// defaultText replaces an empty reply.
func NewContentGenerator(name string, generator cloud.ContentGenerator, defaultText string) *ContentGenerator {
	out := &ContentGenerator{
		BaseCommand: *cor.NewBaseCommand(name),
		generator:   generator,
		defaultText: defaultText,
	}
	out.inputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.genai.token.input", out.GetName()))
	out.outputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.genai.token.output", out.GetName()))
	out.retryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.genai.retry", out.GetName()))
	out.WithParams(ParamRequest, ParamResponse)
	return out
}

// Generate runs request through the model and extracts the response.
func (c *ContentGenerator) Generate(ctx goctx.Context, request *model.ModelRequest) model.ModelResponse {
	resp, err := cloud.GenerateMultiModalResponse(ctx, c.inputTokenCounter, c.outputTokenCounter, c.retryCounter, 0, c.generator, request.Contents())
	out := ExtractResponse(resp, err, c.defaultText)
	if !out.OK() {
		c.GetErrorCounter().Add(ctx, 1)
		slog.WarnContext(ctx, "model request failed", "command", c.GetName(), "status", out.StatusCode, "error", out.Error)
	}
	return out
}

// Execute always leaves a ModelResponse under the output key, failed calls included.
func (c *ContentGenerator) Execute(context cor.Context) {
	request := context.Get(c.GetInputParam()).(*model.ModelRequest)
	response := c.Generate(context.GetContext(), request)
	context.Add(c.GetOutputParam(), response)
	if response.OK() {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
	}
}
