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

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// EmbeddingStore is the vector side of PostgresStore.
type EmbeddingStore interface {
	PendingEmbeddings(ctx context.Context, limit int) ([]*PendingEmbedding, error)
	SetEmbedding(ctx context.Context, id string, embedding []float32) error
	SearchInteractions(ctx context.Context, embedding []float32, limit int) ([]*model.InteractionMatch, error)
}

// SearchService finds past interactions similar to a free text query.
type SearchService struct {
	Embedder cloud.Embedder
	Store    EmbeddingStore
}

// FindInteractions embeds query and returns up to maxResults interactions
// ordered by cosine similarity.
func (s *SearchService) FindInteractions(ctx context.Context, query string, maxResults int) ([]*model.InteractionMatch, error) {
	embedding, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.Store.SearchInteractions(ctx, embedding, maxResults)
}

// EmbedPending embeds up to limit interactions without an embedding and
// returns how many were stored. A failing row is logged and skipped.
func (s *SearchService) EmbedPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.Store.PendingEmbeddings(ctx, limit)
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, p := range pending {
		if p.Text == "" {
			continue
		}
		embedding, err := s.Embedder.Embed(ctx, p.Text)
		if err != nil {
			slog.WarnContext(ctx, "failed to embed interaction", "id", p.Id, "error", err)
			continue
		}
		if err := s.Store.SetEmbedding(ctx, p.Id, embedding); err != nil {
			slog.WarnContext(ctx, "failed to store embedding", "id", p.Id, "error", err)
			continue
		}
		stored++
	}
	return stored, nil
}
