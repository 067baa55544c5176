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

package services_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/services"
	"github.com/zeebo/assert"
)

func TestMemoryTextStore(t *testing.T) {
	ctx := context.Background()
	store := services.NewMemoryTextStore()

	first := &model.TextSummary{OriginalText: "one"}
	second := &model.TextSummary{OriginalText: "two"}
	assert.NoError(t, store.SaveTextSummary(ctx, first))
	assert.NoError(t, store.SaveTextSummary(ctx, second))
	assert.Equal(t, first.Id, int64(1))
	assert.Equal(t, second.Id, int64(2))

	list, err := store.ListTextSummaries(ctx)
	assert.NoError(t, err)
	assert.Equal(t, len(list), 2)
	assert.Equal(t, list[0].OriginalText, "two")

	assert.NoError(t, store.DeleteTextSummary(ctx, 1))
	assert.True(t, services.IsNotFound(store.DeleteTextSummary(ctx, 1)))

	list, err = store.ListTextSummaries(ctx)
	assert.NoError(t, err)
	assert.Equal(t, len(list), 1)
	assert.Equal(t, list[0].Id, int64(2))
}
