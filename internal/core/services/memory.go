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
	"slices"
	"sync"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// MemoryTextStore keeps the text summary history in process. It backs the
// history routes when no database is configured and is lost on restart.
type MemoryTextStore struct {
	mu      sync.RWMutex
	nextId  int64
	entries []*model.TextSummary
}

// NewMemoryTextStore returns an empty store.
func NewMemoryTextStore() *MemoryTextStore {
	return &MemoryTextStore{}
}

// SaveTextSummary assigns the next id and stores a copy.
func (m *MemoryTextStore) SaveTextSummary(_ context.Context, summary *model.TextSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextId++
	summary.Id = m.nextId
	stored := *summary
	m.entries = append(m.entries, &stored)
	return nil
}

// ListTextSummaries returns copies, newest first.
func (m *MemoryTextStore) ListTextSummaries(context.Context) ([]*model.TextSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.TextSummary, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		entry := *m.entries[i]
		out = append(out, &entry)
	}
	return out, nil
}

// DeleteTextSummary returns ErrNotFound for an unknown id.
func (m *MemoryTextStore) DeleteTextSummary(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.entries, func(s *model.TextSummary) bool { return s.Id == id })
	if i < 0 {
		return ErrNotFound
	}
	m.entries = slices.Delete(m.entries, i, i+1)
	return nil
}
