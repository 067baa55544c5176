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
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/api"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/classifier"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/workflow"
)

// EmbeddingInterval is how often recorded interactions are embedded.
const EmbeddingInterval = time.Minute

// StateManager holds the shared dependencies of the server.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	classifier *classifier.Lazy
	encoder    *classifier.ONNXImageEncoder
	handlers   *api.Handlers
}

var state = &StateManager{}

// SetupOS points the configuration loader at ./configs. The runtime
// defaults to "local" unless GCP_RUNTIME is already set.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads, overrides from the environment and validates the
// configuration once. An invalid configuration stops the process.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		config.ApplyEnvironment()
		if err := config.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// Close releases the image encoder and the cloud clients.
func (s *StateManager) Close() {
	if s.encoder != nil {
		s.encoder.Close()
	}
	if s.cloud != nil {
		s.cloud.Close()
	}
}

// modelUsed is the identifier recorded with every generated interaction.
func modelUsed(config *cloud.Config) string {
	if config.AgentModels[config.Application.DefaultModel].Provider == cloud.ProviderOpenAI {
		return model.ModelOpenAI
	}
	return model.ModelGemini
}

// newClassifier defers loading the ONNX session and phrase table until the
// first CLIP request.
func newClassifier(ctx context.Context, config *cloud.Config) *classifier.Lazy {
	return classifier.NewLazy(func() (*classifier.Classifier, error) {
		phrases, err := classifier.LoadPhraseTable(config.Classifier.PhraseTablePath)
		if err != nil {
			return nil, err
		}
		encoder, err := classifier.NewONNXImageEncoder(classifier.ONNXOptions{
			ModelPath:         config.Classifier.ModelPath,
			SharedLibraryPath: config.Classifier.SharedLibraryPath,
			InputName:         config.Classifier.InputName,
			OutputName:        config.Classifier.OutputName,
			ImageSize:         config.Classifier.ImageSize,
			EmbeddingSize:     config.Classifier.EmbeddingSize,
		})
		if err != nil {
			return nil, err
		}
		state.encoder = encoder
		return classifier.New(ctx, encoder, phrases)
	})
}

// InitState creates the clients and stores, builds every workflow and starts
// the background jobs.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	prompts, err := workflow.NewPrompts(config.PromptTemplates)
	if err != nil {
		return err
	}
	generator := cloudClients.AgentModels[config.Application.DefaultModel]
	used := modelUsed(config)

	handlers := &api.Handlers{}
	recorders := services.MultiRecorder{}

	var pg *services.PostgresStore
	if cloudClients.DBPool != nil {
		pg = services.NewPostgresStore(cloudClients.DBPool, int(config.GenAI.EmbeddingDimensions))
		if err := pg.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		recorders = append(recorders, pg)
		handlers.History = pg
	} else {
		slog.Info("no database configured, text summary history is kept in memory")
		handlers.History = services.NewMemoryTextStore()
	}

	if cloudClients.BiqQueryClient != nil && config.BigQueryDataSource.DatasetName != "" {
		bq := &services.BigQueryArchive{
			BigqueryClient:   cloudClients.BiqQueryClient,
			DatasetName:      config.BigQueryDataSource.DatasetName,
			InteractionTable: config.BigQueryDataSource.InteractionTable,
		}
		recorders = append(recorders, bq)
		handlers.Stats = bq
	}

	var recorder services.InteractionRecorder = services.NopRecorder{}
	if len(recorders) > 0 {
		recorder = recorders
	}

	var archive *services.UploadArchive
	if cloudClients.StorageClient != nil {
		archive = &services.UploadArchive{
			StorageClient: cloudClients.StorageClient,
			IAMClient:     cloudClients.IAMClient,
			SignerEmail:   config.Application.SignerServiceAccountEmail,
			Bucket:        config.Storage.ArchiveBucket,
		}
		if config.Storage.ArchiveBucket != "" {
			handlers.Archive = archive
		}
	}

	state.classifier = newClassifier(ctx, config)
	frames := commands.NewFFmpegFrameSource(config.FFmpeg.FFmpegPath, config.FFmpeg.FFprobePath)

	videoOptions := func(mode workflow.VideoMode) workflow.VideoAnalysisOptions {
		opts := workflow.VideoAnalysisOptions{
			Mode:      mode,
			Generator: generator,
			Prompt:    prompts.VideoSummary,
			Frames:    frames,
			KeyFrames: config.FFmpeg.KeyFrames,
			Recorder:  recorder,
			ModelUsed: used,
		}
		if mode == workflow.VideoNotes {
			opts.Prompt = prompts.VideoNotes
		}
		if handlers.Archive != nil {
			opts.Archive = archive
		}
		return opts
	}

	handlers.VideoSummary = workflow.NewVideoAnalysisWorkflow("video-summary", videoOptions(workflow.VideoSummary))
	handlers.VideoNotes = workflow.NewVideoAnalysisWorkflow("video-notes", videoOptions(workflow.VideoNotes))
	handlers.ClipCaption = workflow.NewClipCaptionWorkflow("clip-caption", state.classifier, recorder)
	handlers.ImageSummary = workflow.NewImagePromptWorkflow("image-summary", model.SectionImageSummary, generator, prompts.ImageSummary, recorder, used)
	handlers.Caption = workflow.NewImagePromptWorkflow("image-caption", model.SectionCaption, generator, prompts.Caption, recorder, used)
	handlers.Question = workflow.NewImagePromptWorkflow("image-question", model.SectionVQA, generator, prompts.Question, recorder, used)
	handlers.ImageSummaries = workflow.NewImageSummariesWorkflow("image-summaries", generator, prompts.ImageStory, config.Application.ThreadPoolSize)
	handlers.Story = workflow.NewStoryWorkflow("story", generator, prompts.Story)
	handlers.TextSummary = workflow.NewTextSummaryWorkflow("text-summary", generator, prompts, handlers.History)

	if pg != nil && cloudClients.Embedder != nil {
		search := &services.SearchService{Embedder: cloudClients.Embedder, Store: pg}
		handlers.Search = search
		workflow.NewInteractionEmbeddingWorkflow(search, workflow.DefaultEmbeddingBatchSize).StartTimer(ctx, EmbeddingInterval)
	}
	state.handlers = handlers

	if archive != nil {
		// Ingestion always runs the summary mode and never re-archives.
		opts := videoOptions(workflow.VideoSummary)
		opts.Archive = nil
		SetupListeners(ctx, config, cloudClients, archive, workflow.NewVideoAnalysisWorkflow("video-ingestion-summary", opts))
	}
	return nil
}
