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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/pgvector/pgvector-go"
)

// DBTX is the subset of *pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore records interactions and the text summary history, and keeps
// interaction embeddings in a pgvector column for semantic search.
type PostgresStore struct {
	db                  DBTX
	embeddingDimensions int
}

// NewPostgresStore uses db for every query. embeddingDimensions must match
// the vector column.
func NewPostgresStore(db DBTX, embeddingDimensions int) *PostgresStore {
	if embeddingDimensions <= 0 {
		embeddingDimensions = 768
	}
	return &PostgresStore{db: db, embeddingDimensions: embeddingDimensions}
}

// InitSchema creates the vector extension and both tables when missing.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	statements := []string{
		QryCreateExtension,
		fmt.Sprintf(QryCreateInteractions, s.embeddingDimensions),
		QryCreateTextHistory,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create database schema: %w", err)
		}
	}
	return nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Record inserts the interaction. Its embedding is filled in later.
func (s *PostgresStore) Record(ctx context.Context, in *model.Interaction) error {
	_, err := s.db.Exec(ctx, QryInsertInteraction,
		in.Id, in.ImageData,
		nullable(in.Summary), nullable(in.Caption), nullable(in.Question), nullable(in.Answer),
		in.Section, in.ModelUsed, in.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert interaction %s: %w", in.Id, err)
	}
	return nil
}

// SaveTextSummary inserts the row and sets its generated id.
func (s *PostgresStore) SaveTextSummary(ctx context.Context, summary *model.TextSummary) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRow(ctx, QryInsertTextSummary,
		summary.OriginalText, summary.ShortSummary, summary.PointsSummary, summary.CreatedAt).Scan(&summary.Id)
	if err != nil {
		return fmt.Errorf("failed to insert text summary: %w", err)
	}
	return nil
}

// ListTextSummaries returns the history newest first.
func (s *PostgresStore) ListTextSummaries(ctx context.Context) ([]*model.TextSummary, error) {
	rows, err := s.db.Query(ctx, QryListTextSummaries)
	if err != nil {
		return nil, fmt.Errorf("failed to query text summaries: %w", err)
	}
	defer rows.Close()

	out := make([]*model.TextSummary, 0)
	for rows.Next() {
		var short, points *string
		r := &model.TextSummary{}
		if err := rows.Scan(&r.Id, &r.OriginalText, &short, &points, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan text summary: %w", err)
		}
		if short != nil {
			r.ShortSummary = *short
		}
		if points != nil {
			r.PointsSummary = *points
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteTextSummary removes a history row; ErrNotFound when it did not exist.
func (s *PostgresStore) DeleteTextSummary(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, QryDeleteTextSummary, id)
	if err != nil {
		return fmt.Errorf("failed to delete text summary %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingEmbedding is an interaction that has no embedding yet.
type PendingEmbedding struct {
	Id        string
	Section   string
	ModelUsed string
	Text      string
}

// PendingEmbeddings returns up to limit interactions lacking an embedding,
// oldest first. Text joins the interaction's textual fields.
func (s *PostgresStore) PendingEmbeddings(ctx context.Context, limit int) ([]*PendingEmbedding, error) {
	rows, err := s.db.Query(ctx, QryPendingEmbeddings, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending embeddings: %w", err)
	}
	defer rows.Close()

	out := make([]*PendingEmbedding, 0)
	for rows.Next() {
		var summary, caption, question, answer string
		p := &PendingEmbedding{}
		if err := rows.Scan(&p.Id, &summary, &caption, &question, &answer, &p.Section, &p.ModelUsed); err != nil {
			return nil, fmt.Errorf("failed to scan pending embedding: %w", err)
		}
		p.Text = joinNonEmpty(summary, caption, question, answer)
		out = append(out, p)
	}
	return out, rows.Err()
}

func joinNonEmpty(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

// SetEmbedding stores the embedding of an interaction summary.
func (s *PostgresStore) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	tag, err := s.db.Exec(ctx, QrySetEmbedding, id, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchInteractions orders interactions by cosine distance to embedding.
func (s *PostgresStore) SearchInteractions(ctx context.Context, embedding []float32, limit int) ([]*model.InteractionMatch, error) {
	rows, err := s.db.Query(ctx, QrySearchInteractions, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search interactions: %w", err)
	}
	defer rows.Close()

	out := make([]*model.InteractionMatch, 0)
	for rows.Next() {
		m := &model.InteractionMatch{}
		if err := rows.Scan(&m.Id, &m.Section, &m.ModelUsed, &m.Summary, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// IsNotFound reports whether err means the row did not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
