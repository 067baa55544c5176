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

// Package model defines the data passed between commands and stored by the
// recorders. The types in this file live only for the duration of a request.
package model

import (
	"encoding/base64"
	"net/http"

	"google.golang.org/genai"
)

// VideoFrame is a JPEG encoded key frame taken from an uploaded video.
type VideoFrame struct {
	Index int    // Position of the frame in the source video.
	Data  []byte // JPEG bytes.
}

// Base64 returns the frame in the transport encoding used by the HTTP replies.
func (f *VideoFrame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// DecodeVideoFrame reverses Base64.
func DecodeVideoFrame(index int, encoded string) (*VideoFrame, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return &VideoFrame{Index: index, Data: data}, nil
}

// Attachment is a binary request part tagged with its media type. When
// FileURI is set the model fetches the content itself and Data is unused.
type Attachment struct {
	MIMEType string
	Data     []byte
	FileURI  string
}

// RequestPart is either a text instruction or an attachment, never both.
type RequestPart struct {
	Text       string
	Attachment *Attachment
}

// ModelRequest is the ordered list of parts sent to a generative model.
type ModelRequest struct {
	Parts []RequestPart
}

// Contents converts the request into a single user turn, keeping part order.
func (r *ModelRequest) Contents() []*genai.Content {
	parts := make([]*genai.Part, 0, len(r.Parts))
	for _, p := range r.Parts {
		switch {
		case p.Attachment != nil && p.Attachment.FileURI != "":
			parts = append(parts, genai.NewPartFromURI(p.Attachment.FileURI, p.Attachment.MIMEType))
			continue
		case p.Attachment != nil:
			parts = append(parts, genai.NewPartFromBytes(p.Attachment.Data, p.Attachment.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// ModelResponse is the outcome of a remote call. Text is authoritative when
// StatusCode is 200, Error otherwise.
type ModelResponse struct {
	StatusCode int    `json:"status_code"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
	// Message is the remote error message as received, possibly empty.
	Message string `json:"-"`
}

// OK reports whether the remote call succeeded.
func (r ModelResponse) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Value returns whichever of Text or Error is meaningful.
func (r ModelResponse) Value() string {
	if r.OK() {
		return r.Text
	}
	return r.Error
}

// Classification is one scored label from a similarity pass.
type Classification struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Selected bool    `json:"selected"`
}

// InteractionMatch is a semantic search hit over recorded interactions.
type InteractionMatch struct {
	Id         string  `json:"id"`
	Section    string  `json:"section"`
	ModelUsed  string  `json:"model_used"`
	Summary    string  `json:"summary"`
	Similarity float64 `json:"similarity"`
}
