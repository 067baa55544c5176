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
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// formFile returns the named upload or writes the 400 reply.
func formFile(c *gin.Context, field string, missing string) (*multipart.FileHeader, bool) {
	header, err := c.FormFile(field)
	if err != nil || header == nil {
		badRequest(c, missing)
		return nil, false
	}
	if header.Filename == "" {
		badRequest(c, ErrNoSelectedFile)
		return nil, false
	}
	return header, true
}

// SummarizeVideo returns the summary and base64 key frames of the upload.
func (h *Handlers) SummarizeVideo(c *gin.Context) {
	header, ok := formFile(c, "file", ErrNoFileUploaded)
	if !ok {
		return
	}
	chainCtx, err := execute(c, h.VideoSummary, map[string]interface{}{commands.ParamUpload: header})
	defer chainCtx.Close()
	if err != nil {
		serverError(c, err)
		return
	}

	keyframes := make([]string, 0, commands.DefaultKeyFrameCount)
	if frames, ok := cor.Value[[]*model.VideoFrame](chainCtx, commands.ParamFrames); ok {
		for _, f := range frames {
			keyframes = append(keyframes, f.Base64())
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":   response(chainCtx, commands.ParamResponse, commands.DefaultVideoText).Value(),
		"keyframes": keyframes,
	})
}

// Notes returns bullet notes for the uploaded video.
func (h *Handlers) Notes(c *gin.Context) {
	header, ok := formFile(c, "file", ErrNoFileUploaded)
	if !ok {
		return
	}
	chainCtx, err := execute(c, h.VideoNotes, map[string]interface{}{commands.ParamUpload: header})
	defer chainCtx.Close()
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": response(chainCtx, commands.ParamResponse, commands.DefaultVideoText).Value()})
}
