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

package cloud_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadConfigAppliesRuntimeOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.toml", `
[application]
name = "summarizer"
thread_pool_size = 2
default_model = "default"

[agent_models.default]
model = "gemini-1.5-flash"
rate_limit = 5
`)
	writeFile(t, dir, ".env.local.toml", `
[application]
thread_pool_size = 8
`)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "local")

	config := cloud.NewConfig()
	assert.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, "summarizer", config.Application.Name)
	assert.Equal(t, 8, config.Application.ThreadPoolSize)
	assert.Equal(t, "gemini-1.5-flash", config.AgentModels["default"].Model)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.toml", "[application\nname=")
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "missing")

	assert.Error(t, cloud.LoadConfig(cloud.NewConfig()))
}

func validConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.GenAI.APIKey = "key"
	config.Application.DefaultModel = "default"
	config.AgentModels["default"] = cloud.AgentModel{Model: "gemini-1.5-flash"}
	return config
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	noKey := validConfig()
	noKey.GenAI.APIKey = ""
	assert.ErrorIs(t, noKey.Validate(), cloud.ErrMissingAPIKey)

	vertex := validConfig()
	vertex.GenAI.Backend = cloud.BackendVertex
	vertex.GenAI.APIKey = ""
	assert.Error(t, vertex.Validate())
	vertex.Application.GoogleProjectId = "project"
	assert.NoError(t, vertex.Validate())

	unknown := validConfig()
	unknown.GenAI.Backend = "other"
	assert.Error(t, unknown.Validate())

	missingModel := validConfig()
	missingModel.Application.DefaultModel = "absent"
	assert.Error(t, missingModel.Validate())

	openai := validConfig()
	openai.AgentModels["gpt"] = cloud.AgentModel{Provider: cloud.ProviderOpenAI, Model: "gpt-4o-mini"}
	assert.Error(t, openai.Validate())
}

func TestApplyEnvironmentOverridesKey(t *testing.T) {
	t.Setenv(cloud.EnvGeminiAPIKey, "from-env")
	config := validConfig()
	config.ApplyEnvironment()
	assert.Equal(t, "from-env", config.GenAI.APIKey)
}
