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
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
)

// ObjectStore is the write side of the upload archive.
type ObjectStore interface {
	Store(ctx goctx.Context, name string, contentType string, r io.Reader) error
}

// ArchiveUpload copies the upload into the archive bucket under
// <prefix>/<date>/<uuid><ext>. Archiving is best effort: a failure is logged
// and the chain continues without ParamArchived.
type ArchiveUpload struct {
	cor.BaseCommand
	store  ObjectStore
	prefix string
}

// NewArchiveUpload copies uploads into store under prefix.
func NewArchiveUpload(name string, store ObjectStore, prefix string) *ArchiveUpload {
	out := &ArchiveUpload{BaseCommand: *cor.NewBaseCommand(name), store: store, prefix: prefix}
	out.WithParams(ParamUpload, ParamArchived)
	return out
}

// ObjectName derives the archive name for an upload.
func ObjectName(prefix string, upload *UploadedFile, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s%s", prefix, now.UTC().Format("2006-01-02"), uuid.NewString(), filepath.Ext(upload.Name))
}

// Execute logs archive failures without failing the chain.
func (c *ArchiveUpload) Execute(context cor.Context) {
	upload := context.Get(c.GetInputParam()).(*UploadedFile)
	name := ObjectName(c.prefix, upload, time.Now())

	f, err := os.Open(upload.Path)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.WarnContext(context.GetContext(), "failed to open upload for archiving", "path", upload.Path, "error", err)
		return
	}
	defer f.Close()

	if err := c.store.Store(context.GetContext(), name, upload.MIMEType, f); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.WarnContext(context.GetContext(), "failed to archive upload", "object", name, "error", err)
		return
	}
	slog.InfoContext(context.GetContext(), "archived upload", "object", name)
	c.Succeed(context, name)
}
