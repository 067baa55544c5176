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
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
)

// StoryImageSlots is the number of images accepted by /generate_summaries.
const StoryImageSlots = 4

// StoryRequest is the body of /generate_story.
type StoryRequest struct {
	Summaries []string `json:"summaries"`
}

// runImage executes an image workflow and replies {result}.
func runImage(c *gin.Context, command cor.Command, inputs map[string]interface{}) {
	chainCtx, err := execute(c, command, inputs)
	defer chainCtx.Close()
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": response(chainCtx, commands.ParamResponse, commands.DefaultImageText).Value()})
}

// ClipSummary describes the uploaded image with the local CLIP classifier.
func (h *Handlers) ClipSummary(c *gin.Context) {
	header, ok := formFile(c, "file", ErrNoFilePart)
	if !ok {
		return
	}
	runImage(c, h.ClipCaption, map[string]interface{}{commands.ParamUpload: header})
}

// GenerateCaption captions the uploaded image.
func (h *Handlers) GenerateCaption(c *gin.Context) {
	header, ok := formFile(c, "file", ErrNoFileUploaded)
	if !ok {
		return
	}
	runImage(c, h.Caption, map[string]interface{}{commands.ParamUpload: header})
}

// AskQuestion answers the "question" form field about the uploaded image.
func (h *Handlers) AskQuestion(c *gin.Context) {
	header, err := c.FormFile("file")
	question := strings.TrimSpace(c.PostForm("question"))
	if err != nil || header == nil || header.Filename == "" || question == "" {
		badRequest(c, ErrNoFileOrQuestion)
		return
	}
	runImage(c, h.Question, map[string]interface{}{
		commands.ParamUpload:   header,
		commands.ParamQuestion: question,
	})
}

// GenerateSummaries summarizes up to four images. image1 is required and
// empty slots are answered with a placeholder.
func (h *Handlers) GenerateSummaries(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["image1"]) == 0 {
		badRequest(c, ErrNoImagesUploaded)
		return
	}
	headers := make([]*multipart.FileHeader, StoryImageSlots)
	for i := range headers {
		if files := form.File["image"+strconv.Itoa(i+1)]; len(files) > 0 {
			headers[i] = files[0]
		}
	}

	chainCtx, err := execute(c, h.ImageSummaries, map[string]interface{}{commands.ParamUploads: headers})
	defer chainCtx.Close()
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": chainCtx.Get(commands.ParamSummaries)})
}

// GenerateStory writes a story from exactly four image summaries.
func (h *Handlers) GenerateStory(c *gin.Context) {
	var req StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Summaries) < StoryImageSlots {
		badRequest(c, ErrInvalidSummaries)
		return
	}

	chainCtx, err := execute(c, h.Story, map[string]interface{}{commands.ParamSummaries: req.Summaries})
	defer chainCtx.Close()
	if err != nil {
		serverError(c, err)
		return
	}
	resp := response(chainCtx, commands.ParamResponse, "")
	if !resp.OK() || resp.Text == "" {
		msg := resp.Message
		if msg == "" {
			msg = ErrStoryFailed
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"story": resp.Text})
}
