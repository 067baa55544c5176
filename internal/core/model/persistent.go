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

package model

import (
	"time"

	"github.com/google/uuid"
)

// Interaction sections.
const (
	SectionImageSummary = "image_summarization"
	SectionVQA          = "VQA"
	SectionCaption      = "caption_generation"
	SectionVideoSummary = "video_summarization"
	SectionVideoNotes   = "video_notes"
)

// Model identifiers stored with each interaction.
const (
	ModelGemini   = "GEMINI"
	ModelClipGPT2 = "CLIP-GPT2"
	ModelOpenAI   = "OPENAI"
)

// HistoryTimeFormat is the layout used when history rows are rendered.
const HistoryTimeFormat = "2006-01-02 15:04:05"

// Interaction is a single request/response pair. Rows are append only.
type Interaction struct {
	Id        string    `json:"id" bigquery:"id"`
	ImageData []byte    `json:"-" bigquery:"image_data"`
	Summary   string    `json:"summary,omitempty" bigquery:"summary"`
	Caption   string    `json:"caption,omitempty" bigquery:"caption"`
	Question  string    `json:"question,omitempty" bigquery:"question"`
	Answer    string    `json:"answer,omitempty" bigquery:"answer"`
	Section   string    `json:"section" bigquery:"section"`
	ModelUsed string    `json:"model_used" bigquery:"model_used"`
	Timestamp time.Time `json:"timestamp" bigquery:"timestamp"`
}

// NewInteraction stamps the creation time and assigns a random v4 id.
func NewInteraction(section string, modelUsed string) *Interaction {
	return &Interaction{
		Id:        uuid.NewString(),
		Section:   section,
		ModelUsed: modelUsed,
		Timestamp: time.Now().UTC(),
	}
}

// TextSummary is a row of the text summarization history.
type TextSummary struct {
	Id            int64     `json:"id"`
	OriginalText  string    `json:"text"`
	ShortSummary  string    `json:"short_summary"`
	PointsSummary string    `json:"points_summary"`
	CreatedAt     time.Time `json:"-"`
}

// HistoryEntry is the rendering of a TextSummary returned by the history route.
type HistoryEntry struct {
	Id            int64  `json:"id"`
	Text          string `json:"text"`
	ShortSummary  string `json:"short_summary"`
	PointsSummary string `json:"points_summary"`
	Timestamp     string `json:"timestamp"`
}

// Entry renders the row; a missing creation time renders as "".
func (s *TextSummary) Entry() HistoryEntry {
	out := HistoryEntry{
		Id:            s.Id,
		Text:          s.OriginalText,
		ShortSummary:  s.ShortSummary,
		PointsSummary: s.PointsSummary,
	}
	if !s.CreatedAt.IsZero() {
		out.Timestamp = s.CreatedAt.Format(HistoryTimeFormat)
	}
	return out
}

// SectionCount is one row of the archive statistics.
type SectionCount struct {
	Section   string `json:"section" bigquery:"section"`
	ModelUsed string `json:"model_used" bigquery:"model_used"`
	Count     int64  `json:"count" bigquery:"count"`
}
