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
	"bytes"
	goctx "context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FrameSource reads the frames of a local video.
type FrameSource interface {
	FrameCount(ctx goctx.Context, path string) (int, error)
	ReadFrame(ctx goctx.Context, path string, index int) ([]byte, error)
}

// FFmpegFrameSource shells out to ffprobe for the frame total and to ffmpeg
// for single JPEG frames.
type FFmpegFrameSource struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegFrameSource falls back to ffmpeg and ffprobe on PATH.
func NewFFmpegFrameSource(ffmpegPath, ffprobePath string) *FFmpegFrameSource {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegFrameSource{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// FrameCount counts the packets of the first video stream.
func (s *FFmpegFrameSource) FrameCount(ctx goctx.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, s.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("error running ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(out)), ","))
	if text == "" || text == "N/A" {
		return 0, nil
	}
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", text, err)
	}
	return count, nil
}

// ReadFrame decodes frame index as JPEG.
func (s *FFmpegFrameSource) ReadFrame(ctx goctx.Context, path string, index int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.FFmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, index),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("error running ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("no frame decoded")
	}
	return stdout.Bytes(), nil
}

// SampleIndices returns n frame positions spaced max(total/n, 1) apart. A
// video reporting no frames is read n times at position 0.
func SampleIndices(total int, n int) []int {
	if n <= 0 {
		return nil
	}
	interval := max(total/n, 1)
	out := make([]int, n)
	if total <= 0 {
		return out
	}
	for i := range out {
		out[i] = i * interval
	}
	return out
}

// SampleFrames reads the frames at SampleIndices. Frames that fail to decode
// are skipped, so fewer than n frames may be returned. Only a failure to
// count frames is an error.
func SampleFrames(ctx goctx.Context, source FrameSource, path string, n int) ([]*model.VideoFrame, error) {
	total, err := source.FrameCount(ctx, path)
	if err != nil {
		return nil, err
	}
	frames := make([]*model.VideoFrame, 0, n)
	for _, index := range SampleIndices(total, n) {
		if ctx.Err() != nil {
			return frames, ctx.Err()
		}
		data, err := source.ReadFrame(ctx, path, index)
		if err != nil {
			slog.DebugContext(ctx, "skipping undecodable frame", "path", path, "index", index, "error", err)
			continue
		}
		frames = append(frames, &model.VideoFrame{Index: index, Data: data})
	}
	return frames, nil
}

// FrameSampler extracts key frames from the uploaded video.
type FrameSampler struct {
	cor.BaseCommand
	source FrameSource
	count  int
}

// NewFrameSampler samples count frames, DefaultKeyFrameCount when count <= 0.
func NewFrameSampler(name string, source FrameSource, count int) *FrameSampler {
	if count <= 0 {
		count = DefaultKeyFrameCount
	}
	out := &FrameSampler{BaseCommand: *cor.NewBaseCommand(name), source: source, count: count}
	out.WithParams(ParamUpload, ParamFrames)
	return out
}

// Execute emits an empty frame list when the video cannot be read, and fails
// only when the request is cancelled.
func (c *FrameSampler) Execute(context cor.Context) {
	upload := context.Get(c.GetInputParam()).(*UploadedFile)
	frames, err := SampleFrames(context.GetContext(), c.source, upload.Path, c.count)
	if err != nil {
		if ctxErr := context.GetContext().Err(); ctxErr != nil {
			c.Fail(context, fmt.Errorf("failed to sample frames: %w", ctxErr))
			return
		}
		// An unreadable video still gets its summary, only without key frames.
		slog.WarnContext(context.GetContext(), "failed to sample frames", "path", upload.Path, "error", err)
		frames = []*model.VideoFrame{}
	}
	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.Int("frames.requested", c.count),
		attribute.Int("frames.decoded", len(frames)),
	)
	c.Succeed(context, frames)
}
