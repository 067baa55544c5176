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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"
)

// ImageEncoder maps an encoded image to its embedding.
type ImageEncoder interface {
	EncodeImage(ctx context.Context, data []byte) ([]float32, error)
}

// TextEncoder maps phrases to embeddings, in input order.
type TextEncoder interface {
	EncodeText(ctx context.Context, phrases []string) ([][]float32, error)
}

// Normalisation constants of the CLIP image processor.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// ONNXImageEncoder runs a CLIP vision tower exported to ONNX. The session
// binds fixed input and output tensors, so Run calls are serialised.
type ONNXImageEncoder struct {
	mu           sync.Mutex
	size         int
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

type ONNXOptions struct {
	ModelPath         string
	SharedLibraryPath string
	InputName         string
	OutputName        string
	ImageSize         int
	EmbeddingSize     int64
}

// NewONNXImageEncoder initializes the ONNX runtime and opens a session for
// the CLIP vision model named in opts.
func NewONNXImageEncoder(opts ONNXOptions) (*ONNXImageEncoder, error) {
	if opts.ImageSize <= 0 {
		opts.ImageSize = 224
	}
	if opts.InputName == "" {
		opts.InputName = "pixel_values"
	}
	if opts.OutputName == "" {
		opts.OutputName = "image_embeds"
	}
	if opts.EmbeddingSize <= 0 {
		opts.EmbeddingSize = 512
	}
	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	side := int64(opts.ImageSize)
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, side, side))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, opts.EmbeddingSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &ONNXImageEncoder{
		size:         opts.ImageSize,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// EncodeImage decodes data, resizes it to the model input and returns the
// image embedding.
func (e *ONNXImageEncoder) EncodeImage(ctx context.Context, data []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	pixels := Preprocess(img, e.size)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.inputTensor.GetData(), pixels)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	out := make([]float32, len(e.outputTensor.GetData()))
	copy(out, e.outputTensor.GetData())
	return out, nil
}

// Close destroys the session and the runtime environment.
func (e *ONNXImageEncoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
	_ = ort.DestroyEnvironment()
}

// Preprocess scales the shorter side of img to size, centre crops a size x
// size square and returns CHW float32 pixels normalised with the CLIP mean
// and standard deviation.
func Preprocess(img image.Image, size int) []float32 {
	b := img.Bounds()
	w, h := uint(0), uint(0)
	if b.Dx() < b.Dy() {
		w = uint(size)
	} else {
		h = uint(size)
	}
	scaled := resize.Resize(w, h, img, resize.Lanczos3)

	sb := scaled.Bounds()
	x0 := sb.Min.X + (sb.Dx()-size)/2
	y0 := sb.Min.Y + (sb.Dy()-size)/2

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := scaled.At(x0+x, y0+y).RGBA()
			i := y*size + x
			out[i] = (float32(r)/65535.0 - clipMean[0]) / clipStd[0]
			out[plane+i] = (float32(g)/65535.0 - clipMean[1]) / clipStd[1]
			out[2*plane+i] = (float32(bl)/65535.0 - clipMean[2]) / clipStd[2]
		}
	}
	return out
}

// ErrUnknownPhrase is returned when a phrase has no precomputed embedding.
var ErrUnknownPhrase = errors.New("phrase has no embedding")

// PhraseTable serves text embeddings computed offline by the CLIP text tower.
// The vocabularies are fixed, so the table is loaded once from JSON of the
// form {"a photo of car": [0.1, ...], ...}.
type PhraseTable map[string][]float32

// LoadPhraseTable reads precomputed phrase embeddings from a JSON file.
func LoadPhraseTable(path string) (PhraseTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read phrase table: %w", err)
	}
	table := make(PhraseTable)
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse phrase table: %w", err)
	}
	return table, nil
}

// EncodeText looks up each phrase. Unknown phrases are an error.
func (t PhraseTable) EncodeText(_ context.Context, phrases []string) ([][]float32, error) {
	out := make([][]float32, len(phrases))
	for i, p := range phrases {
		v, ok := t[p]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPhrase, p)
		}
		out[i] = v
	}
	return out, nil
}
