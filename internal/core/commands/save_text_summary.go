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
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// Context keys of the text summary chain, which runs two generators.
const (
	ParamShortRequest   = "__SHORT_REQUEST__"
	ParamShortResponse  = "__SHORT_RESPONSE__"
	ParamPointsRequest  = "__POINTS_REQUEST__"
	ParamPointsResponse = "__POINTS_RESPONSE__"
	ParamTextSummary    = "__TEXT_SUMMARY__" // *model.TextSummary
)

// TextSummarySaver is the write side of the text summary history.
type TextSummarySaver interface {
	SaveTextSummary(ctx goctx.Context, summary *model.TextSummary) error
}

// SaveTextSummary assembles the history row from the short and points
// responses present in the context and stores it. A storage failure is
// logged and the summaries are still returned.
type SaveTextSummary struct {
	cor.BaseCommand
	store TextSummarySaver
}

// NewSaveTextSummary saves the text and its two summaries to store.
func NewSaveTextSummary(name string, store TextSummarySaver) *SaveTextSummary {
	out := &SaveTextSummary{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.WithParams(ParamText, ParamTextSummary)
	return out
}

func responseValue(context cor.Context, key string) string {
	if resp, ok := cor.Value[model.ModelResponse](context, key); ok {
		return resp.Value()
	}
	return ""
}

// Execute saves the row. A store failure is logged, not returned.
func (c *SaveTextSummary) Execute(context cor.Context) {
	summary := &model.TextSummary{
		OriginalText:  context.Get(c.GetInputParam()).(string),
		ShortSummary:  responseValue(context, ParamShortResponse),
		PointsSummary: responseValue(context, ParamPointsResponse),
		CreatedAt:     time.Now(),
	}
	context.Add(c.GetOutputParam(), summary)
	if err := c.store.SaveTextSummary(context.GetContext(), summary); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.ErrorContext(context.GetContext(), "failed to save text summary", "error", err)
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
