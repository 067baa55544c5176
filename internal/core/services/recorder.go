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

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

// InteractionRecorder persists interactions. Implementations are append only.
type InteractionRecorder interface {
	Record(ctx context.Context, interaction *model.Interaction) error
}

// TextSummaryStore keeps the text summarization history.
type TextSummaryStore interface {
	SaveTextSummary(ctx context.Context, summary *model.TextSummary) error
	ListTextSummaries(ctx context.Context) ([]*model.TextSummary, error)
	DeleteTextSummary(ctx context.Context, id int64) error
}

// MultiRecorder records to every recorder and joins their errors.
type MultiRecorder []InteractionRecorder

// Record writes to every recorder and joins their errors.
func (m MultiRecorder) Record(ctx context.Context, interaction *model.Interaction) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, interaction); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", r, err))
		}
	}
	return errors.Join(errs...)
}

// NopRecorder discards interactions. It is used when no store is configured.
type NopRecorder struct{}

// Record does nothing.
func (NopRecorder) Record(context.Context, *model.Interaction) error { return nil }
