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
	goctx "context"
	"time"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultEmbeddingBatchSize bounds the interactions embedded per tick.
const DefaultEmbeddingBatchSize = 50

// PendingEmbedder embeds interactions that have no embedding yet.
type PendingEmbedder interface {
	EmbedPending(ctx goctx.Context, limit int) (int, error)
}

// InteractionEmbeddingWorkflow is a background job that periodically embeds
// recorded interactions so they can be found by semantic search.
type InteractionEmbeddingWorkflow struct {
	cor.BaseCommand
	embedder  PendingEmbedder
	batchSize int
}

// NewInteractionEmbeddingWorkflow embeds at most batchSize pending interactions per run.
func NewInteractionEmbeddingWorkflow(embedder PendingEmbedder, batchSize int) *InteractionEmbeddingWorkflow {
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &InteractionEmbeddingWorkflow{
		BaseCommand: *cor.NewBaseCommand("interaction-embedding-generator"),
		embedder:    embedder,
		batchSize:   batchSize,
	}
}

// StartTimer runs the workflow every interval until ctx is cancelled.
func (m *InteractionEmbeddingWorkflow) StartTimer(ctx goctx.Context, interval time.Duration) {
	tracer := otel.Tracer("embedding-batch")
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.RunOnce(ctx, tracer)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RunOnce executes a single batch under its own span.
func (m *InteractionEmbeddingWorkflow) RunOnce(ctx goctx.Context, tracer trace.Tracer) {
	traceCtx, span := tracer.Start(ctx, "interaction-embeddings")
	defer span.End()

	chainCtx := cor.NewContextWith(traceCtx)
	defer chainCtx.Close()
	m.Execute(chainCtx)

	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed to execute embedding batch")
	} else {
		span.SetStatus(codes.Ok, "executed embeddings")
	}
}

// IsExecutable always holds; the job needs no input.
func (m *InteractionEmbeddingWorkflow) IsExecutable(_ cor.Context) bool {
	return true
}

// Execute embeds one batch and outputs the number of embeddings stored.
func (m *InteractionEmbeddingWorkflow) Execute(context cor.Context) {
	stored, err := m.embedder.EmbedPending(context.GetContext(), m.batchSize)
	if err != nil {
		m.Fail(context, err)
		return
	}
	trace.SpanFromContext(context.GetContext()).SetAttributes(attribute.Int("embeddings.stored", stored))
	m.Succeed(context, stored)
}
