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

package classifier_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/classifier"
	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, classifier.CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, classifier.CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, classifier.CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, classifier.CosineSimilarity([]float32{1}, []float32{1, 1}))
}

func TestSoftmaxIsStable(t *testing.T) {
	probs := classifier.Softmax([]float64{1000, 999, 998}, classifier.LogitScale)
	var sum float64
	for _, p := range probs {
		assert.False(t, math.IsNaN(p))
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[0], probs[1])

	uniform := classifier.Softmax([]float64{0.2, 0.2, 0.2, 0.2}, classifier.LogitScale)
	for _, p := range uniform {
		assert.InDelta(t, 0.25, p, 1e-9)
	}
	assert.Empty(t, classifier.Softmax(nil, 1))
}

func TestSelectTopKOverThreshold(t *testing.T) {
	labels := []string{"a", "b", "c", "d"}
	scores := []float64{0.05, 0.5, 0.3, 0.15}

	ranked := classifier.Select(labels, scores, 3, 0.10)
	assert.Equal(t, []string{"b", "c", "d", "a"}, []string{ranked[0].Label, ranked[1].Label, ranked[2].Label, ranked[3].Label})
	assert.Equal(t, []string{"b", "c", "d"}, classifier.Selected(ranked))

	assert.Equal(t, []string{"b", "c"}, classifier.Selected(classifier.Select(labels, scores, 2, 0.10)))
	assert.Equal(t, []string{"b", "c"}, classifier.Selected(classifier.Select(labels, scores, 3, 0.15)))
	assert.Empty(t, classifier.Selected(classifier.Select(labels, scores, 3, 0.5)))
}

func TestComposeSentence(t *testing.T) {
	assert.Equal(t, "This image shows a scene.", classifier.ComposeSentence(nil, nil))
	assert.Equal(t, "This image shows a car.", classifier.ComposeSentence([]string{"car"}, nil))
	assert.Equal(t, "This image shows a person and a car in a city.",
		classifier.ComposeSentence([]string{"person", "car", "building"}, []string{"in a city", "at night"}))
	assert.Equal(t, "This image shows a scene at daytime.", classifier.ComposeSentence(nil, []string{"at daytime"}))
}

func TestPassPhrases(t *testing.T) {
	assert.Equal(t, "a photo of indoor scene", classifier.ContentPass.Phrases()[8])
	assert.Equal(t, "a photo in a formal setting", classifier.ContextPass.Phrases()[4])
	assert.Len(t, classifier.ContentPass.Vocabulary, 10)
	assert.Len(t, classifier.ContextPass.Vocabulary, 6)
}

// oneHotTable gives every phrase of both passes its own axis.
func oneHotTable() (classifier.PhraseTable, int) {
	phrases := append(classifier.ContentPass.Phrases(), classifier.ContextPass.Phrases()...)
	table := make(classifier.PhraseTable)
	for i, p := range phrases {
		v := make([]float32, len(phrases))
		v[i] = 1
		table[p] = v
	}
	return table, len(phrases)
}

type fixedImage []float32

func (f fixedImage) EncodeImage(context.Context, []byte) ([]float32, error) {
	return f, nil
}

func TestDescribe(t *testing.T) {
	table, dim := oneHotTable()
	embedding := make([]float32, dim)
	embedding[2] = 1
	embedding[len(classifier.ContentPass.Vocabulary)+1] = 1

	c, err := classifier.New(context.Background(), fixedImage(embedding), table)
	assert.NoError(t, err)

	d, err := c.Describe(context.Background(), []byte("ignored"))
	assert.NoError(t, err)
	assert.Equal(t, "This image shows a car at night.", d.Sentence)
	assert.Equal(t, "car", d.Content[0].Label)
	assert.True(t, d.Content[0].Selected)
	assert.False(t, d.Content[1].Selected)
	assert.Equal(t, "at night", d.Context[0].Label)
}

func TestNewFailsOnMissingPhrase(t *testing.T) {
	_, err := classifier.New(context.Background(), fixedImage(nil), classifier.PhraseTable{})
	assert.ErrorIs(t, err, classifier.ErrUnknownPhrase)
}

func TestLoadPhraseTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"a photo of car": [0.5, 0.5]}`), 0o600))

	table, err := classifier.LoadPhraseTable(path)
	assert.NoError(t, err)
	vectors, err := table.EncodeText(context.Background(), []string{"a photo of car"})
	assert.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vectors[0])

	_, err = classifier.LoadPhraseTable(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLazyInitialisesOnce(t *testing.T) {
	table, dim := oneHotTable()
	var calls atomic.Int32
	lazy := classifier.NewLazy(func() (*classifier.Classifier, error) {
		calls.Add(1)
		return classifier.New(context.Background(), fixedImage(make([]float32, dim)), table)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lazy.Describe(context.Background(), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestLazyErrorIsSticky(t *testing.T) {
	boom := errors.New("model missing")
	var calls atomic.Int32
	lazy := classifier.NewLazy(func() (*classifier.Classifier, error) {
		calls.Add(1)
		return nil, boom
	})
	_, err := lazy.Describe(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	_, err = lazy.Describe(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPreprocessShapeAndNormalisation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.White)
		}
	}
	pixels := classifier.Preprocess(img, 4)
	assert.Len(t, pixels, 3*4*4)
	assert.InDelta(t, (1-0.48145466)/0.26862954, pixels[0], 1e-3)
	assert.InDelta(t, (1-0.40821073)/0.27577711, pixels[len(pixels)-1], 1e-3)
}
