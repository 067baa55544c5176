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

package cloud

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Embedder turns text into a vector for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenAIEmbedder calls EmbedContent on a genai embedding model.
type GenAIEmbedder struct {
	models     *genai.Models
	model      string
	dimensions int32
	taskType   string
}

// NewGenAIEmbedder wraps the genai models client for text embeddings.
//
// Inputs:
//   - models: The genai Models service.
//   - model: The embedding model name.
//   - dimensions: The requested output dimensionality.
//
// Outputs:
//   - *GenAIEmbedder: The embedder.
func NewGenAIEmbedder(models *genai.Models, model string, dimensions int32) *GenAIEmbedder {
	return &GenAIEmbedder{models: models, model: model, dimensions: dimensions, taskType: "SEMANTIC_SIMILARITY"}
}

// Embed returns the embedding of text.
//
// Inputs:
//   - ctx: The request context.
//   - text: The text to embed.
//
// Outputs:
//   - []float32: The embedding values.
//   - error: A remote failure or an empty response.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(e.dimensions)
	}
	resp, err := e.models.EmbedContent(ctx, e.model, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("embedding response was empty")
	}
	return resp.Embeddings[0].Values, nil
}
