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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the clients built from it.
//
// Structs:
//   - GenAI: Backend selection and credentials for the generative language API.
//   - AgentModel: A named generation model, either genai or an OpenAI compatible endpoint.
//   - PromptTemplates: Prompt text for every summarization mode.
//   - FFmpeg: Paths and sampling parameters for key frame extraction.
//   - Classifier: Locations of the CLIP encoder and its phrase table.
//   - Database: Postgres connection settings for the interaction store.
//   - BigQueryDataSource: Dataset and table for the interaction archive.
//   - Storage: Bucket used to archive uploads.
//   - TopicSubscription: Pub/Sub subscription that feeds video ingestion.
//   - Config: The top-level struct aggregating all of the above.
package cloud

import (
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"

	ProviderGenAI  = "genai"
	ProviderOpenAI = "openai"

	// EnvGeminiAPIKey overrides genai.api_key when present.
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// ErrMissingAPIKey is returned by Validate when the gemini backend is selected
// without a key.
var ErrMissingAPIKey = errors.New("genai.api_key is required for the gemini backend")

// DefaultSafetySettings leaves every harm category unblocked; the service
// summarizes user content and must not silently drop responses.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

type GenAI struct {
	Backend             string `toml:"backend"`              // "gemini" (API key) or "vertex" (project credentials).
	APIKey              string `toml:"api_key"`              // Mandatory for the gemini backend.
	EmbeddingModel      string `toml:"embedding_model"`      // Model used to embed interaction summaries.
	EmbeddingDimensions int32  `toml:"embedding_dimensions"` // Width of the pgvector column.
}

type AgentModel struct {
	Provider           string  `toml:"provider"` // "genai" (default) or "openai".
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	RateLimit          int     `toml:"rate_limit"` // Burst of requests per second.
	APIKey             string  `toml:"api_key"`    // OpenAI provider only.
	BaseURL            string  `toml:"base_url"`   // OpenAI provider only.
}

type PromptTemplates struct {
	VideoSummary string `toml:"video_summary"`
	VideoNotes   string `toml:"video_notes"`
	ImageSummary string `toml:"image_summary"`
	ImageStory   string `toml:"image_story"` // Instruction sent with each story image; empty sends the image alone.
	Caption      string `toml:"caption"`
	Question     string `toml:"question"` // Go template, {{.Question}}.
	Story        string `toml:"story"`
	TextShort    string `toml:"text_short"`  // Go template, {{.Text}}.
	TextPoints   string `toml:"text_points"` // Go template, {{.Text}}.
}

type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
	KeyFrames   int    `toml:"key_frames"`
}

type Classifier struct {
	ModelPath         string `toml:"model_path"`          // CLIP vision tower exported to ONNX.
	SharedLibraryPath string `toml:"shared_library_path"` // onnxruntime shared library, optional.
	PhraseTablePath   string `toml:"phrase_table_path"`   // JSON map of phrase -> text embedding.
	ImageSize         int    `toml:"image_size"`
	InputName         string `toml:"input_name"`
	OutputName        string `toml:"output_name"`
	EmbeddingSize     int64  `toml:"embedding_size"`
}

type Database struct {
	DSN string `toml:"dsn"`
}

type BigQueryDataSource struct {
	DatasetName      string `toml:"dataset"`
	InteractionTable string `toml:"interaction_table"`
}

type Storage struct {
	ArchiveBucket string `toml:"archive_bucket"`
}

type TopicSubscription struct {
	Name             string `toml:"name"` // Subscription id.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		ListenAddr                string `toml:"listen_addr"`
		LogFormat                 string `toml:"log_format"` // "json" (default) or "console".
		DefaultModel              string `toml:"default_model"`
	} `toml:"application"`
	Telemetry struct {
		Enabled     bool    `toml:"enabled"`
		SampleRatio float64 `toml:"sample_ratio"` // Fraction of root traces exported; 0 or >= 1 keeps all.
	} `toml:"telemetry"`
	GenAI              GenAI                        `toml:"genai"`
	AgentModels        map[string]AgentModel        `toml:"agent_models"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	FFmpeg             FFmpeg                       `toml:"ffmpeg"`
	Classifier         Classifier                   `toml:"classifier"`
	Database           Database                     `toml:"database"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	Storage            Storage                      `toml:"storage"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
}

// NewConfig returns a Config with the maps initialized so TOML decoding can
// fill them.
//
// Outputs:
//   - *Config: An empty configuration.
func NewConfig() *Config {
	return &Config{
		AgentModels:        make(map[string]AgentModel),
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
}

// ApplyEnvironment copies secrets supplied through the environment over the
// file based values.
func (c *Config) ApplyEnvironment() {
	if key := os.Getenv(EnvGeminiAPIKey); key != "" {
		c.GenAI.APIKey = key
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	switch c.GenAI.Backend {
	case "", BackendGemini:
		if c.GenAI.APIKey == "" {
			return ErrMissingAPIKey
		}
	case BackendVertex:
		if c.Application.GoogleProjectId == "" {
			return errors.New("application.google_project_id is required for the vertex backend")
		}
	default:
		return fmt.Errorf("unknown genai backend %q", c.GenAI.Backend)
	}
	if _, ok := c.AgentModels[c.Application.DefaultModel]; !ok {
		return fmt.Errorf("application.default_model %q is not defined in agent_models", c.Application.DefaultModel)
	}
	for name, m := range c.AgentModels {
		if m.Provider == ProviderOpenAI && m.APIKey == "" {
			return fmt.Errorf("agent_models.%s: api_key is required for the openai provider", name)
		}
	}
	return nil
}
