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
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
)

// ObjectOpener is the read side of Cloud Storage.
type ObjectOpener interface {
	Open(ctx goctx.Context, bucket string, name string) (io.ReadCloser, error)
}

// GCSToTempFile downloads the object named by the trigger into a temp file
// and publishes it as the upload for the rest of the chain.
type GCSToTempFile struct {
	cor.BaseCommand
	opener ObjectOpener
}

// NewGCSToTempFile downloads the object with opener.
func NewGCSToTempFile(name string, opener ObjectOpener) *GCSToTempFile {
	out := &GCSToTempFile{BaseCommand: *cor.NewBaseCommand(name), opener: opener}
	out.WithParams(cloud.GetGCSObjectName(), ParamUpload)
	return out
}

// Execute downloads the object into a tracked temp file.
func (c *GCSToTempFile) Execute(context cor.Context) {
	msg := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	reader, err := c.opener.Open(context.GetContext(), msg.Bucket, msg.Name)
	if err != nil {
		c.Fail(context, err)
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.WarnContext(context.GetContext(), "failed to close GCS reader", "object", msg.URI(), "error", err)
		}
	}()

	tempFile, err := os.CreateTemp("", TempFilePrefix+"*"+filepath.Ext(msg.Name))
	if err != nil {
		c.Fail(context, fmt.Errorf("could not create temp file: %w", err))
		return
	}
	context.AddTempFile(tempFile.Name())

	written, err := io.Copy(tempFile, reader)
	_ = tempFile.Close()
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to copy %s to local file, %d bytes written: %w", msg.URI(), written, err))
		return
	}

	slog.InfoContext(context.GetContext(), "downloaded object", "object", msg.URI(), "file", tempFile.Name(), "bytes", written)
	c.Succeed(context, &UploadedFile{Path: tempFile.Name(), Name: filepath.Base(msg.Name), MIMEType: msg.MIMEType})
}
