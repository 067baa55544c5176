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

// Package api exposes the summarization workflows over HTTP with gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
)

// Messages returned with 400 responses.
const (
	ErrNoFileUploaded      = "No file uploaded"
	ErrNoSelectedFile      = "No selected file"
	ErrNoFilePart          = "No file part"
	ErrNoImagesUploaded    = "No images uploaded"
	ErrNoTextProvided      = "No text provided"
	ErrNoFileOrQuestion    = "No file or question provided"
	ErrInvalidSummaries    = "Invalid summaries data"
	ErrInvalidRequest      = "Invalid request"
	ErrStoryFailed         = "Failed to generate story"
	ErrNoQueryProvided     = "No query provided"
	ErrInvalidId           = "Invalid id"
	ErrNotConfigured       = "not configured"
	MsgDeletedSuccessfully = "Deleted successfully"
)

// SignedURLTTL is how long archive links stay valid.
const SignedURLTTL = 15 * time.Minute

// InteractionSearcher finds interactions similar to a query.
type InteractionSearcher interface {
	FindInteractions(ctx context.Context, query string, maxResults int) ([]*model.InteractionMatch, error)
}

// StatsSource reports interaction counts per section and model.
type StatsSource interface {
	SectionStats(ctx context.Context) ([]*model.SectionCount, error)
}

// URLSigner hands out temporary links to archived uploads.
type URLSigner interface {
	SignedURL(ctx context.Context, name string, expires time.Duration) (string, error)
}

// Handlers serves every route. The workflows are required; History,
// Search, Stats and Archive may be nil, in which case their routes answer
// 503.
type Handlers struct {
	VideoSummary   cor.Command
	VideoNotes     cor.Command
	ClipCaption    cor.Command
	ImageSummary   cor.Command
	Caption        cor.Command
	Question       cor.Command
	ImageSummaries cor.Command
	Story          cor.Command
	TextSummary    cor.Command

	History services.TextSummaryStore
	Search  InteractionSearcher
	Stats   StatsSource
	Archive URLSigner
}

// Register adds the routes to r. Each path is registered once.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/summarize_video", h.SummarizeVideo)
	r.POST("/notes", h.Notes)

	r.POST("/generate_summary_from_clip_gpt2", h.ClipSummary)
	r.POST("/generate_caption", h.GenerateCaption)
	r.POST("/ask_question", h.AskQuestion)
	r.POST("/generate_summaries", h.GenerateSummaries)
	r.POST("/generate_story", h.GenerateStory)

	r.POST("/summarize", h.Summarize)
	r.GET("/get_text_summary_history", h.TextSummaryHistory)
	r.DELETE("/delete_text_summary/:id", h.DeleteTextSummary)
	r.GET("/search_interactions", h.SearchInteractions)

	Dashboard(r.Group("/api/v1"), h.Stats, h.Archive)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " " + ErrNotConfigured})
}

// execute runs command on a fresh context bound to the request. The caller
// closes the returned context once the response is built.
func execute(c *gin.Context, command cor.Command, inputs map[string]interface{}) (cor.Context, error) {
	chainCtx := cor.NewContextWith(c.Request.Context())
	for k, v := range inputs {
		chainCtx.Add(k, v)
	}
	command.Execute(chainCtx)
	err := chainCtx.Err()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "workflow failed", "workflow", command.GetName(), "error", err)
	}
	return chainCtx, err
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// response returns the value the workflow left under key.
func response(chainCtx cor.Context, key string, defaultText string) model.ModelResponse {
	if resp, ok := cor.Value[model.ModelResponse](chainCtx, key); ok {
		return resp
	}
	return model.ModelResponse{StatusCode: http.StatusOK, Text: defaultText}
}
