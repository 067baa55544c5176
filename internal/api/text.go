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

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
)

// Summary types accepted by /summarize.
const (
	SummaryShort  = "short"
	SummaryPoints = "points"
	SummaryBoth   = "both"
)

// DefaultSearchCount is used when /search_interactions has no count.
const DefaultSearchCount = 5

// SummarizeRequest is the JSON body of /summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Summarize handles both a JSON text body and a multipart image upload.
func (h *Handlers) Summarize(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, ok := formFile(c, "file", ErrNoFileUploaded)
		if !ok {
			return
		}
		runImage(c, h.ImageSummary, map[string]interface{}{commands.ParamUpload: header})
		return
	}
	if c.ContentType() != gin.MIMEJSON {
		badRequest(c, ErrInvalidRequest)
		return
	}

	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(c, ErrNoTextProvided)
		return
	}
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if req.Type == "" {
		req.Type = SummaryShort
	}

	chainCtx, err := execute(c, h.TextSummary, map[string]interface{}{commands.ParamText: req.Text})
	defer chainCtx.Close()
	if err != nil {
		serverError(c, err)
		return
	}
	short := response(chainCtx, commands.ParamShortResponse, commands.DefaultText).Value()
	points := response(chainCtx, commands.ParamPointsResponse, commands.DefaultText).Value()
	switch req.Type {
	case SummaryShort:
		c.JSON(http.StatusOK, gin.H{"summary": short})
	case SummaryPoints:
		c.JSON(http.StatusOK, gin.H{"summary": points})
	default:
		c.JSON(http.StatusOK, gin.H{"short_summary": short, "points_summary": points})
	}
}

// TextSummaryHistory lists the saved text summaries, newest first.
func (h *Handlers) TextSummaryHistory(c *gin.Context) {
	if h.History == nil {
		notConfigured(c, "history")
		return
	}
	rows, err := h.History.ListTextSummaries(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	out := make([]model.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Entry())
	}
	c.JSON(http.StatusOK, out)
}

// DeleteTextSummary answers 200 even when the row did not exist.
func (h *Handlers) DeleteTextSummary(c *gin.Context) {
	if h.History == nil {
		notConfigured(c, "history")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, ErrInvalidId)
		return
	}
	if err := h.History.DeleteTextSummary(c.Request.Context(), id); err != nil && !errors.Is(err, services.ErrNotFound) {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": MsgDeletedSuccessfully})
}

// SearchInteractions ranks stored interactions against the "q" parameter.
// "count" defaults to DefaultSearchCount.
func (h *Handlers) SearchInteractions(c *gin.Context) {
	if h.Search == nil {
		notConfigured(c, "search")
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, ErrNoQueryProvided)
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(DefaultSearchCount)))
	if err != nil || count <= 0 {
		count = DefaultSearchCount
	}
	matches, err := h.Search.FindInteractions(c.Request.Context(), query, count)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}
