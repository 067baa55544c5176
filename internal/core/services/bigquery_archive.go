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
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
	"google.golang.org/api/iterator"
)

// BigQueryArchive streams interactions into a BigQuery table for reporting.
type BigQueryArchive struct {
	BigqueryClient   *bigquery.Client
	DatasetName      string
	InteractionTable string
}

// GetFQN returns the table name in standard SQL form.
func (s *BigQueryArchive) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.InteractionTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Record streams the interaction into the archive table.
func (s *BigQueryArchive) Record(ctx context.Context, interaction *model.Interaction) error {
	inserter := s.BigqueryClient.Dataset(s.DatasetName).Table(s.InteractionTable).Inserter()
	if err := inserter.Put(ctx, interaction); err != nil {
		return fmt.Errorf("bigquery insert failed for interaction %s: %w", interaction.Id, err)
	}
	return nil
}

// SectionStats counts archived interactions per section and model.
func (s *BigQueryArchive) SectionStats(ctx context.Context) ([]*model.SectionCount, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QrySectionStats, s.GetFQN()))
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	out := make([]*model.SectionCount, 0)
	for {
		row := &model.SectionCount{}
		err := itr.Next(row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}
