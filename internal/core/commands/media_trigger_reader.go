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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
)

// MediaTriggerToGCSObject parses a storage notification. Objects that are
// not videos are ignored without error so the message is acknowledged and
// the rest of the chain is skipped.
type MediaTriggerToGCSObject struct {
	cor.BaseCommand
}

// NewMediaTriggerToGCSObject decodes a storage notification.
func NewMediaTriggerToGCSObject(name string) *MediaTriggerToGCSObject {
	out := &MediaTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
	out.WithParams(cor.CtxIn, cloud.GetGCSObjectName())
	return out
}

// Execute ignores objects that are not videos.
func (c *MediaTriggerToGCSObject) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("unexpected trigger payload %T", context.Get(c.GetInputParam())))
		return
	}

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	if !msg.IsVideo() {
		slog.InfoContext(context.GetContext(), "ignoring non video object", "object", msg.URI(), "content_type", msg.MIMEType)
		return
	}
	c.Succeed(context, msg)
}
