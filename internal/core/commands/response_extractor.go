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

package commands

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"google.golang.org/genai"
)

// Default texts used when a successful response carries no text.
const (
	DefaultVideoText = "No result available"
	DefaultImageText = "No response available"
	DefaultText      = "No summary available"
	unknownError     = "Unknown error"
)

// ExtractResponse never fails. Remote errors become an error string carrying
// the remote status, other errors a 500, and a success without text the
// supplied default.
func ExtractResponse(resp *genai.GenerateContentResponse, err error, defaultText string) model.ModelResponse {
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return remoteError(apiErr.Code, apiErr.Message)
		}
		var statusErr *cloud.StatusError
		if errors.As(err, &statusErr) {
			return remoteError(statusErr.Code, statusErr.Message)
		}
		return model.ModelResponse{StatusCode: http.StatusInternalServerError, Error: fmt.Sprintf("Error: %v", err), Message: err.Error()}
	}
	return model.ModelResponse{StatusCode: http.StatusOK, Text: firstText(resp, defaultText)}
}

func remoteError(code int, message string) model.ModelResponse {
	text := message
	if text == "" {
		text = unknownError
	}
	return model.ModelResponse{StatusCode: code, Error: fmt.Sprintf("Error: %d - %s", code, text), Message: message}
}

func firstText(resp *genai.GenerateContentResponse, defaultText string) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return defaultText
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return defaultText
	}
	part := candidate.Content.Parts[0]
	if part == nil || part.Text == "" {
		return defaultText
	}
	return part.Text
}
