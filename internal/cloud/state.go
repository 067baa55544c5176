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

package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/genai"
)

// ServiceClients holds every external client the server uses. The genai
// client and agent models are always present. The Google Cloud clients exist
// only when a project is configured, and DBPool only when a DSN is set.
type ServiceClients struct {
	GenAIClient     *genai.Client
	AgentModels     map[string]ContentGenerator
	Embedder        Embedder
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	BiqQueryClient  *bigquery.Client
	IAMClient       *credentials.IamCredentialsClient
	DBPool          *pgxpool.Pool
	PubSubListeners map[string]*PubSubListener
}

// Close shuts down every client that was opened. Close errors are ignored.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
	if c.DBPool != nil {
		c.DBPool.Close()
	}
}

// NewGenAIClient selects the Gemini API or Vertex AI backend from config.
func NewGenAIClient(ctx context.Context, config *Config) (*genai.Client, error) {
	cc := &genai.ClientConfig{APIKey: config.GenAI.APIKey, Backend: genai.BackendGeminiAPI}
	if config.GenAI.Backend == BackendVertex {
		cc = &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

// NewAgentModels builds one ContentGenerator per configured agent model.
func NewAgentModels(config *Config, client *genai.Client) map[string]ContentGenerator {
	agentModels := make(map[string]ContentGenerator)
	for name, values := range config.AgentModels {
		if values.Provider == ProviderOpenAI {
			agentModels[name] = NewOpenAIGenerator(values)
			continue
		}
		generation := &genai.GenerateContentConfig{
			MaxOutputTokens: values.MaxTokens,
			SafetySettings:  DefaultSafetySettings,
		}
		if values.Temperature > 0 {
			generation.Temperature = genai.Ptr(values.Temperature)
		}
		if values.TopP > 0 {
			generation.TopP = genai.Ptr(values.TopP)
		}
		if values.TopK > 0 {
			generation.TopK = genai.Ptr(values.TopK)
		}
		if values.SystemInstructions != "" {
			generation.SystemInstruction = genai.NewContentFromText(values.SystemInstructions, genai.RoleUser)
		}
		agentModels[name] = NewQuotaAwareModel(generation, values.Model, client.Models, values.RateLimit)
	}
	return agentModels
}

// NewCloudServiceClients opens the clients the configuration asks for. The
// database pool needs a DSN. Storage, Pub/Sub and BigQuery need a Google
// project and stay nil without one.
//
// Inputs:
//   - ctx: The context used to dial the services.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The opened clients.
//   - error: The first client that failed to open. Clients already opened
//     are closed before returning.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	gc, err := NewGenAIClient(ctx, config)
	if err != nil {
		return nil, err
	}
	clients := &ServiceClients{
		GenAIClient:     gc,
		AgentModels:     NewAgentModels(config, gc),
		PubSubListeners: make(map[string]*PubSubListener),
	}
	if config.GenAI.EmbeddingModel != "" {
		clients.Embedder = NewGenAIEmbedder(gc.Models, config.GenAI.EmbeddingModel, config.GenAI.EmbeddingDimensions)
	}

	if config.Database.DSN != "" {
		pool, err := pgxpool.New(ctx, config.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		clients.DBPool = pool
	}

	project := config.Application.GoogleProjectId
	if project == "" {
		slog.Info("no google project configured, cloud storage, pub/sub and bigquery are disabled")
		return clients, nil
	}

	if clients.StorageClient, err = storage.NewClient(ctx); err != nil {
		clients.Close()
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if clients.PubsubClient, err = pubsub.NewClient(ctx, project); err != nil {
		clients.Close()
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	if clients.BiqQueryClient, err = bigquery.NewClient(ctx, project); err != nil {
		clients.Close()
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	if config.Application.SignerServiceAccountEmail != "" {
		if clients.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
			clients.Close()
			return nil, fmt.Errorf("failed to create iam credentials client: %w", err)
		}
	}

	// Commands are attached once the workflows are built.
	for key, values := range config.TopicSubscriptions {
		clients.PubSubListeners[key] = NewPubSubListener(clients.PubsubClient, values, config.Application.ThreadPoolSize)
	}
	return clients, nil
}
