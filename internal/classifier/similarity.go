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

// Package classifier labels an image against fixed phrase vocabularies using
// CLIP style embeddings and turns the selected labels into a sentence.
//
// Scores are cosine similarities scaled by LogitScale and normalised with a
// softmax over each vocabulary. A label is selected when it ranks in the top k
// of its pass and its probability is strictly above the pass threshold.
package classifier

import (
	"math"
	"sort"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// LogitScale is the temperature CLIP applies to similarities before softmax.
const LogitScale = 100.0

// CosineSimilarity returns the cosine of the angle between a and b. Zero
// vectors and mismatched lengths score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Softmax returns exp(scale*s - max) normalised to sum to one.
func Softmax(scores []float64, scale float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s*scale > maxScore {
			maxScore = s * scale
		}
	}
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s*scale - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Select ranks labels by score, highest first, and marks the entries in the
// top k whose score exceeds threshold. Ties keep vocabulary order.
func Select(labels []string, scores []float64, k int, threshold float64) []model.Classification {
	n := min(len(labels), len(scores))
	out := make([]model.Classification, n)
	for i := 0; i < n; i++ {
		out[i] = model.Classification{Label: labels[i], Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Selected = i < k && out[i].Score > threshold
	}
	return out
}

// Selected returns the labels of the selected entries in rank order.
func Selected(in []model.Classification) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c.Selected {
			out = append(out, c.Label)
		}
	}
	return out
}
