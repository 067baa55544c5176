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
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
)

// sniffLength is enough for filetype to recognise every supported format.
const sniffLength = 261

// UploadToTempFile spools multipart uploads to temp files registered with
// the context. The input is either a *multipart.FileHeader, producing an
// *UploadedFile, or a []*multipart.FileHeader with nil slots, producing a
// []*UploadedFile of the same length. Files already on disk pass through.
type UploadToTempFile struct {
	cor.BaseCommand
	defaultMIMEType string
}

// NewUploadToTempFile copies multipart uploads to temp files.
func NewUploadToTempFile(name string, defaultMIMEType string) *UploadToTempFile {
	return &UploadToTempFile{BaseCommand: *cor.NewBaseCommand(name), defaultMIMEType: defaultMIMEType}
}

// Execute accepts a single header, a slot list of headers or an already
// spooled file.
func (c *UploadToTempFile) Execute(context cor.Context) {
	switch in := context.Get(c.GetInputParam()).(type) {
	case *UploadedFile:
		c.Succeed(context, in)
	case *multipart.FileHeader:
		upload, err := c.spool(context, in)
		if err != nil {
			c.Fail(context, err)
			return
		}
		c.Succeed(context, upload)
	case []*multipart.FileHeader:
		out := make([]*UploadedFile, len(in))
		for i, header := range in {
			if header == nil {
				continue
			}
			upload, err := c.spool(context, header)
			if err != nil {
				c.Fail(context, err)
				return
			}
			out[i] = upload
		}
		c.Succeed(context, out)
	default:
		c.Fail(context, fmt.Errorf("unsupported upload input %T", in))
	}
}

func (c *UploadToTempFile) spool(context cor.Context, header *multipart.FileHeader) (*UploadedFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer src.Close()

	tempFile, err := os.CreateTemp("", TempFilePrefix+"*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, fmt.Errorf("could not create temp file: %w", err)
	}
	context.AddTempFile(tempFile.Name())
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, src); err != nil {
		return nil, fmt.Errorf("failed to spool upload %s: %w", header.Filename, err)
	}
	return &UploadedFile{
		Path:     tempFile.Name(),
		Name:     header.Filename,
		MIMEType: c.detectMIMEType(tempFile.Name()),
	}, nil
}

// detectMIMEType sniffs the file header and falls back to the default type.
func (c *UploadToTempFile) detectMIMEType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return c.defaultMIMEType
	}
	defer f.Close()
	head := make([]byte, sniffLength)
	n, _ := io.ReadFull(f, head)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return c.defaultMIMEType
	}
	return kind.MIME.Value
}
