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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/workflow"
)

// VideoTopic names the subscription carrying finalize notifications for
// uploaded videos.
const VideoTopic = "VideoTopic"

// SetupListeners attaches the ingestion workflow to the video subscription
// and starts it. On Vertex AI the model reads the object straight from
// Cloud Storage instead of receiving the bytes inline.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, opener commands.ObjectOpener, analysis *workflow.VideoAnalysisWorkflow) {
	listener, ok := cloudClients.PubSubListeners[VideoTopic]
	if !ok {
		slog.Info("no video topic subscription configured, ingestion is disabled")
		return
	}
	referenceObjects := config.GenAI.Backend == cloud.BackendVertex
	listener.SetCommand(workflow.NewVideoIngestionWorkflow("video-ingestion", opener, referenceObjects, analysis))
	listener.Listen(ctx)
}
