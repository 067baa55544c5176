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

package classifier

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// Description is the outcome of Describe.
type Description struct {
	Sentence string                 `json:"sentence"`
	Content  []model.Classification `json:"content"`
	Context  []model.Classification `json:"context"`
}

// Classifier scores an image against the content and context passes. Text
// embeddings for each pass are resolved once at construction.
type Classifier struct {
	images  ImageEncoder
	content passEmbeddings
	context passEmbeddings
}

type passEmbeddings struct {
	Pass
	vectors [][]float32
}

// New embeds the candidate phrases once so Describe only has to encode the
// image.
func New(ctx context.Context, images ImageEncoder, text TextEncoder) (*Classifier, error) {
	content, err := embedPass(ctx, text, ContentPass)
	if err != nil {
		return nil, err
	}
	contexts, err := embedPass(ctx, text, ContextPass)
	if err != nil {
		return nil, err
	}
	return &Classifier{images: images, content: content, context: contexts}, nil
}

func embedPass(ctx context.Context, text TextEncoder, p Pass) (passEmbeddings, error) {
	vectors, err := text.EncodeText(ctx, p.Phrases())
	if err != nil {
		return passEmbeddings{}, fmt.Errorf("%s pass: %w", p.Name, err)
	}
	return passEmbeddings{Pass: p, vectors: vectors}, nil
}

func (p passEmbeddings) classify(image []float32) []model.Classification {
	sims := make([]float64, len(p.vectors))
	for i, v := range p.vectors {
		sims[i] = CosineSimilarity(image, v)
	}
	return Select(p.Vocabulary, Softmax(sims, LogitScale), p.TopK, p.Threshold)
}

// Classify runs both passes over an existing image embedding.
func (c *Classifier) Classify(embedding []float32) *Description {
	content := c.content.classify(embedding)
	contexts := c.context.classify(embedding)
	return &Description{
		Sentence: ComposeSentence(Selected(content), Selected(contexts)),
		Content:  content,
		Context:  contexts,
	}
}

// Describe embeds image and classifies it.
func (c *Classifier) Describe(ctx context.Context, image []byte) (*Description, error) {
	embedding, err := c.images.EncodeImage(ctx, image)
	if err != nil {
		return nil, err
	}
	return c.Classify(embedding), nil
}
