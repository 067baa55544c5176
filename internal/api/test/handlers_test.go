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

package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/api"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/classifier"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-media-summarizer/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeFrames struct{}

func (fakeFrames) FrameCount(context.Context, string) (int, error) { return 10, nil }

func (fakeFrames) ReadFrame(_ context.Context, _ string, index int) ([]byte, error) {
	return []byte{byte(index)}, nil
}

type brokenFrames struct{}

func (brokenFrames) FrameCount(context.Context, string) (int, error) {
	return 0, errors.New("invalid data found when processing input")
}

func (brokenFrames) ReadFrame(context.Context, string, int) ([]byte, error) {
	return nil, errors.New("unreachable")
}

type fakeDescriber struct{}

func (fakeDescriber) Describe(context.Context, []byte) (*classifier.Description, error) {
	return &classifier.Description{Sentence: "This image shows a dog."}, nil
}

type fakeSearch struct{ query string }

func (f *fakeSearch) FindInteractions(_ context.Context, query string, maxResults int) ([]*model.InteractionMatch, error) {
	f.query = query
	out := make([]*model.InteractionMatch, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		out = append(out, &model.InteractionMatch{Id: "m", Similarity: 0.5})
	}
	return out, nil
}

type fakeStats struct{}

func (fakeStats) SectionStats(context.Context) ([]*model.SectionCount, error) {
	return []*model.SectionCount{{Section: model.SectionVQA, ModelUsed: model.ModelGemini, Count: 3}}, nil
}

type fakeSigner struct{}

func (fakeSigner) SignedURL(_ context.Context, name string, _ time.Duration) (string, error) {
	return "https://signed.example/" + name, nil
}

type fixture struct {
	router    *gin.Engine
	generator *test.FakeGenerator
	history   *services.MemoryTextStore
}

func newFixture(t *testing.T, text string) *fixture {
	return newFixtureWith(t, text, fakeFrames{})
}

func newFixtureWith(t *testing.T, text string, frames commands.FrameSource) *fixture {
	prompts, err := workflow.NewPrompts(cloud.PromptTemplates{})
	assert.NoError(t, err)
	gen := &test.FakeGenerator{Text: text}
	history := services.NewMemoryTextStore()
	video := func(mode workflow.VideoMode) *workflow.VideoAnalysisWorkflow {
		tmpl := prompts.VideoSummary
		if mode == workflow.VideoNotes {
			tmpl = prompts.VideoNotes
		}
		return workflow.NewVideoAnalysisWorkflow("video-"+string(mode), workflow.VideoAnalysisOptions{
			Mode: mode, Generator: gen, Prompt: tmpl, Frames: frames, ModelUsed: model.ModelGemini,
		})
	}
	h := &api.Handlers{
		VideoSummary:   video(workflow.VideoSummary),
		VideoNotes:     video(workflow.VideoNotes),
		ClipCaption:    workflow.NewClipCaptionWorkflow("clip", fakeDescriber{}, nil),
		ImageSummary:   workflow.NewImagePromptWorkflow("image", model.SectionImageSummary, gen, prompts.ImageSummary, nil, model.ModelGemini),
		Caption:        workflow.NewImagePromptWorkflow("caption", model.SectionCaption, gen, prompts.Caption, nil, model.ModelGemini),
		Question:       workflow.NewImagePromptWorkflow("vqa", model.SectionVQA, gen, prompts.Question, nil, model.ModelGemini),
		ImageSummaries: workflow.NewImageSummariesWorkflow("summaries", gen, prompts.ImageStory, 2),
		Story:          workflow.NewStoryWorkflow("story", gen, prompts.Story),
		TextSummary:    workflow.NewTextSummaryWorkflow("text", gen, prompts, history),
		History:        history,
		Search:         &fakeSearch{},
		Stats:          fakeStats{},
		Archive:        fakeSigner{},
	}
	r := gin.New()
	h.Register(r)
	return &fixture{router: r, generator: gen, history: history}
}

type part struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...part) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		assert.NoError(t, err)
		_, err = fw.Write(f.data)
		assert.NoError(t, err)
	}
	for k, v := range fields {
		assert.NoError(t, w.WriteField(k, v))
	}
	assert.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(method, path string, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(f *fixture, req *http.Request) (int, map[string]interface{}) {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "")
	code, body := serve(f, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestSummarizeVideo(t *testing.T) {
	f := newFixture(t, "A short clip.")
	code, body := serve(f, multipartRequest(t, "/summarize_video", nil, part{"file", "clip.mp4", []byte("not really a video")}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "A short clip.", body["summary"])
	keyframes := body["keyframes"].([]interface{})
	assert.Len(t, keyframes, 5)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{2}), keyframes[1])
}

func TestSummarizeUnreadableVideo(t *testing.T) {
	f := newFixtureWith(t, "A short clip.", brokenFrames{})
	code, body := serve(f, multipartRequest(t, "/summarize_video", nil, part{"file", "clip.mp4", []byte("not really a video")}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "A short clip.", body["summary"])
	assert.Equal(t, []interface{}{}, body["keyframes"])
	assert.Equal(t, 1, f.generator.Calls())
}

func TestVideoRoutesRequireFile(t *testing.T) {
	f := newFixture(t, "")
	for _, path := range []string{"/summarize_video", "/notes", "/generate_caption"} {
		code, body := serve(f, multipartRequest(t, path, map[string]string{"x": "y"}))
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.Equal(t, api.ErrNoFileUploaded, body["error"], path)
	}
	assert.Equal(t, 0, f.generator.Calls())
}

func TestNotes(t *testing.T) {
	f := newFixture(t, "- point")
	code, body := serve(f, multipartRequest(t, "/notes", nil, part{"file", "clip.mp4", []byte("video")}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "- point", body["notes"])
	assert.Nil(t, body["keyframes"])
}

func TestRemoteErrorIsEmbedded(t *testing.T) {
	f := newFixture(t, "")
	f.generator.Err = &cloud.StatusError{Code: http.StatusBadRequest, Message: "bad image"}
	code, body := serve(f, multipartRequest(t, "/generate_caption", nil, part{"file", "a.jpg", test.TinyJPEG()}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Error: 400 - bad image", body["result"])
}

func TestClipRoute(t *testing.T) {
	f := newFixture(t, "")
	code, body := serve(f, multipartRequest(t, "/generate_summary_from_clip_gpt2", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrNoFilePart, body["error"])

	code, body = serve(f, multipartRequest(t, "/generate_summary_from_clip_gpt2", nil, part{"file", "a.jpg", test.TinyJPEG()}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "This image shows a dog.", body["result"])
}

func TestAskQuestion(t *testing.T) {
	f := newFixture(t, "Two.")
	code, body := serve(f, multipartRequest(t, "/ask_question", nil, part{"file", "a.jpg", test.TinyJPEG()}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrNoFileOrQuestion, body["error"])

	code, body = serve(f, multipartRequest(t, "/ask_question", map[string]string{"question": "How many dogs?"}, part{"file", "a.jpg", test.TinyJPEG()}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Two.", body["result"])
	assert.Contains(t, f.generator.LastPrompt()[0], "How many dogs?")
}

func TestGenerateSummaries(t *testing.T) {
	f := newFixture(t, "A picture.")
	code, body := serve(f, multipartRequest(t, "/generate_summaries", nil, part{"image2", "b.jpg", test.TinyJPEG()}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrNoImagesUploaded, body["error"])

	code, body = serve(f, multipartRequest(t, "/generate_summaries", nil,
		part{"image1", "a.jpg", test.TinyJPEG()},
		part{"image3", "c.jpg", test.TinyJPEG()}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{
		"A picture.",
		"Image 2: No image uploaded.",
		"A picture.",
		"Image 4: No image uploaded.",
	}, body["summaries"])
}

func TestGenerateStory(t *testing.T) {
	f := newFixture(t, "Once upon a time.")
	code, body := serve(f, jsonRequest(http.MethodPost, "/generate_story", `{"summaries":["a","b"]}`))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrInvalidSummaries, body["error"])
	assert.Equal(t, 0, f.generator.Calls())

	code, body = serve(f, jsonRequest(http.MethodPost, "/generate_story", `{"summaries":["a","b","c","d"]}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Once upon a time.", body["story"])
}

func TestGenerateStoryFailure(t *testing.T) {
	f := newFixture(t, "")
	code, body := serve(f, jsonRequest(http.MethodPost, "/generate_story", `{"summaries":["a","b","c","d"]}`))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, api.ErrStoryFailed, body["error"])

	f.generator.Err = &cloud.StatusError{Code: http.StatusBadRequest, Message: "blocked"}
	code, body = serve(f, jsonRequest(http.MethodPost, "/generate_story", `{"summaries":["a","b","c","d"]}`))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "blocked", body["error"])
}

func TestSummarizeText(t *testing.T) {
	f := newFixture(t, "Summary.")
	code, body := serve(f, jsonRequest(http.MethodPost, "/summarize", `{"text":"  "}`))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrNoTextProvided, body["error"])

	code, body = serve(f, jsonRequest(http.MethodPost, "/summarize", `{"text":"long text"}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Summary.", body["summary"])

	code, body = serve(f, jsonRequest(http.MethodPost, "/summarize", `{"text":"long text","type":"both"}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Summary.", body["short_summary"])
	assert.Equal(t, "Summary.", body["points_summary"])

	rows, err := f.history.ListTextSummaries(context.Background())
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSummarizeTextTypeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t, "Summary.")
	for _, kind := range []string{"POINTS", " Short "} {
		code, body := serve(f, jsonRequest(http.MethodPost, "/summarize", `{"text":"long text","type":"`+kind+`"}`))
		assert.Equal(t, http.StatusOK, code, kind)
		assert.Equal(t, "Summary.", body["summary"], kind)
		assert.NotContains(t, body, "short_summary", kind)
	}
}

func TestSummarizeImageAndInvalid(t *testing.T) {
	f := newFixture(t, "An image.")
	code, body := serve(f, multipartRequest(t, "/summarize", nil, part{"file", "a.jpg", test.TinyJPEG()}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "An image.", body["result"])

	req := httptest.NewRequest(http.MethodPost, "/summarize", bytes.NewBufferString("text"))
	req.Header.Set("Content-Type", "text/plain")
	code, body = serve(f, req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrInvalidRequest, body["error"])
}

func TestHistoryAndDelete(t *testing.T) {
	f := newFixture(t, "S")
	assert.NoError(t, f.history.SaveTextSummary(context.Background(), &model.TextSummary{
		OriginalText: "t",
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_text_summary_history", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var rows []model.HistoryEntry
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
	assert.Equal(t, "2024-01-02 03:04:05", rows[0].Timestamp)

	path := "/delete_text_summary/" + strconv.FormatInt(rows[0].Id, 10)
	code, body := serve(f, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, api.MsgDeletedSuccessfully, body["message"])

	code, _ = serve(f, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusOK, code)

	code, body = serve(f, httptest.NewRequest(http.MethodDelete, "/delete_text_summary/abc", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrInvalidId, body["error"])
}

func TestSearchAndDashboard(t *testing.T) {
	f := newFixture(t, "")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search_interactions?q=dogs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var matches []model.InteractionMatch
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	assert.Len(t, matches, api.DefaultSearchCount)

	code, body := serve(f, httptest.NewRequest(http.MethodGet, "/search_interactions", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.ErrNoQueryProvided, body["error"])

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":3`)

	code, body = serve(f, httptest.NewRequest(http.MethodGet, "/api/v1/archive/clip.mp4/url", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://signed.example/clip.mp4", body["url"])
}

func TestUnconfiguredServices(t *testing.T) {
	r := gin.New()
	(&api.Handlers{}).Register(r)
	for _, path := range []string{"/get_text_summary_history", "/search_interactions?q=x", "/api/v1/stats", "/api/v1/archive/a/url"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}
