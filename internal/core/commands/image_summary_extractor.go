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
	goctx "context"
	"fmt"
	"os"
	"sync"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ImageSummaryExtractor summarizes a fixed set of image slots in parallel.
// Results keep slot order; an empty slot yields a placeholder and a failed
// call yields the extracted error text, so the output always has one entry
// per slot.
type ImageSummaryExtractor struct {
	cor.BaseCommand
	generator       *ContentGenerator
	instruction     string
	numberOfWorkers int
}

// NewImageSummaryExtractor runs generator over the image slots with numberOfWorkers goroutines.
func NewImageSummaryExtractor(name string, generator *ContentGenerator, instruction string, numberOfWorkers int) *ImageSummaryExtractor {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	out := &ImageSummaryExtractor{
		BaseCommand:     *cor.NewBaseCommand(name),
		generator:       generator,
		instruction:     instruction,
		numberOfWorkers: numberOfWorkers,
	}
	out.WithParams(ParamUploads, ParamSummaries)
	return out
}

// MissingImageText is the placeholder for slot i (1 based).
func MissingImageText(slot int) string {
	return fmt.Sprintf("Image %d: No image uploaded.", slot)
}

type imageJob struct {
	slot   int
	ctx    goctx.Context
	span   trace.Span
	upload *UploadedFile
}

type imageResult struct {
	slot  int
	value string
	err   error
}

// Execute keeps the slot order in the output.
func (s *ImageSummaryExtractor) Execute(context cor.Context) {
	uploads := context.Get(s.GetInputParam()).([]*UploadedFile)

	jobs := make(chan *imageJob, len(uploads))
	results := make(chan *imageResult, len(uploads))

	var wg sync.WaitGroup
	for w := 0; w < s.numberOfWorkers; w++ {
		wg.Add(1)
		go s.worker(jobs, results, &wg)
	}

	for i, upload := range uploads {
		jobCtx, span := s.Tracer.Start(context.GetContext(), fmt.Sprintf("%s_image_%d", s.GetName(), i+1))
		span.SetAttributes(attribute.Int("slot", i+1), attribute.Bool("uploaded", upload != nil))
		jobs <- &imageJob{slot: i, ctx: jobCtx, span: span, upload: upload}
	}
	close(jobs)
	wg.Wait()
	close(results)

	summaries := make([]string, len(uploads))
	for r := range results {
		if r.err != nil {
			s.Fail(context, r.err)
			continue
		}
		summaries[r.slot] = r.value
	}
	if !context.HasErrors() {
		s.Succeed(context, summaries)
	}
}

func (s *ImageSummaryExtractor) worker(jobs <-chan *imageJob, results chan<- *imageResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		results <- s.summarize(j)
	}
}

func (s *ImageSummaryExtractor) summarize(j *imageJob) *imageResult {
	defer j.span.End()
	if j.upload == nil {
		j.span.SetStatus(codes.Ok, "empty slot")
		return &imageResult{slot: j.slot, value: MissingImageText(j.slot + 1)}
	}
	data, err := os.ReadFile(j.upload.Path)
	if err != nil {
		j.span.SetStatus(codes.Error, "read failed")
		return &imageResult{slot: j.slot, err: fmt.Errorf("failed to read image %d: %w", j.slot+1, err)}
	}
	request := BuildRequest(s.instruction, model.Attachment{MIMEType: j.upload.MIMEType, Data: data})
	response := s.generator.Generate(j.ctx, request)
	if response.OK() {
		j.span.SetStatus(codes.Ok, "summarized")
	} else {
		j.span.SetStatus(codes.Error, response.Error)
	}
	return &imageResult{slot: j.slot, value: response.Value()}
}
