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

package cloud

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// OpenAIGenerator adapts an OpenAI compatible chat completion endpoint to the
// ContentGenerator interface. Inline image parts are sent as data URLs; other
// binary parts are rejected because chat completions cannot carry them.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	system      string
	limiter     *rate.Limiter
}

// NewOpenAIGenerator builds a ContentGenerator backed by the OpenAI chat
// completions API.
//
// Inputs:
//   - values: The agent model settings. A positive RateLimit caps requests
//     per second.
//
// Outputs:
//   - *OpenAIGenerator: A generator ready to serve requests.
func NewOpenAIGenerator(values AgentModel) *OpenAIGenerator {
	cfg := openai.DefaultConfig(values.APIKey)
	if values.BaseURL != "" {
		cfg.BaseURL = values.BaseURL
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if values.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Second), values.RateLimit)
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       values.Model,
		maxTokens:   int(values.MaxTokens),
		temperature: values.Temperature,
		system:      values.SystemInstructions,
		limiter:     limiter,
	}
}

// GenerateContent converts the genai contents to chat messages, waits for the
// rate limiter and wraps the completion as a genai response.
//
// Inputs:
//   - ctx: The request context.
//   - content: The prompt parts, text and inline images.
//
// Outputs:
//   - *genai.GenerateContentResponse: One candidate holding the reply text.
//   - error: A *StatusError when the API answered with an HTTP error.
func (o *OpenAIGenerator) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	messages, err := ToChatMessages(o.system, content)
	if err != nil {
		return nil, err
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &StatusError{Code: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return nil, err
	}
	return FromChatCompletion(resp), nil
}

// ToChatMessages converts genai contents into chat messages, preserving part
// order inside each message.
func ToChatMessages(system string, content []*genai.Content) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(content)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, c := range content {
		if c == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		if c.Role == genai.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		parts := make([]openai.ChatMessagePart, 0, len(c.Parts))
		for _, p := range c.Parts {
			switch {
			case p == nil:
			case p.FileData != nil:
				return nil, fmt.Errorf("openai provider cannot fetch %s", p.FileData.FileURI)
			case p.InlineData != nil:
				if !strings.HasPrefix(p.InlineData.MIMEType, "image/") {
					return nil, fmt.Errorf("openai provider cannot send %s attachments", p.InlineData.MIMEType)
				}
				url := fmt.Sprintf("data:%s;base64,%s", p.InlineData.MIMEType, base64.StdEncoding.EncodeToString(p.InlineData.Data))
				parts = append(parts, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
				})
			case p.Text != "":
				parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
			}
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return messages, nil
}

// FromChatCompletion maps a chat completion into the genai response shape so
// the same extraction logic serves both providers.
func FromChatCompletion(resp openai.ChatCompletionResponse) *genai.GenerateContentResponse {
	out := &genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
		},
	}
	for _, choice := range resp.Choices {
		out.Candidates = append(out.Candidates, &genai.Candidate{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: choice.Message.Content}},
			},
		})
	}
	return out
}
