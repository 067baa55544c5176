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

// Postgres statements. %d is the embedding width.
const (
	QryCreateExtension = "CREATE EXTENSION IF NOT EXISTS vector"

	QryCreateInteractions = `CREATE TABLE IF NOT EXISTS image_summary_interactions (
	id TEXT PRIMARY KEY,
	image_data BYTEA,
	summary TEXT,
	caption TEXT,
	question TEXT,
	answer TEXT,
	section TEXT NOT NULL,
	model_used TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	embedding vector(%d)
)`

	QryCreateTextHistory = `CREATE TABLE IF NOT EXISTS text_summarization_history (
	id BIGSERIAL PRIMARY KEY,
	original_text TEXT NOT NULL,
	short_summary TEXT,
	points_summary TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	QryInsertInteraction = `INSERT INTO image_summary_interactions
	(id, image_data, summary, caption, question, answer, section, model_used, timestamp)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	QryInsertTextSummary = `INSERT INTO text_summarization_history
	(original_text, short_summary, points_summary, created_at)
	VALUES ($1, $2, $3, $4) RETURNING id`

	QryListTextSummaries = `SELECT id, original_text, short_summary, points_summary, created_at
	FROM text_summarization_history ORDER BY created_at DESC, id DESC`

	QryDeleteTextSummary = "DELETE FROM text_summarization_history WHERE id = $1"

	QryPendingEmbeddings = `SELECT id, COALESCE(summary, ''), COALESCE(caption, ''), COALESCE(question, ''), COALESCE(answer, ''), section, model_used
	FROM image_summary_interactions
	WHERE embedding IS NULL AND COALESCE(summary, caption, question, answer) IS NOT NULL
	ORDER BY timestamp LIMIT $1`

	QrySetEmbedding = "UPDATE image_summary_interactions SET embedding = $2 WHERE id = $1"

	QrySearchInteractions = `SELECT id, section, model_used,
	COALESCE(NULLIF(summary, ''), NULLIF(caption, ''), answer, ''),
	1 - (embedding <=> $1) AS similarity
	FROM image_summary_interactions
	WHERE embedding IS NOT NULL
	ORDER BY embedding <=> $1
	LIMIT $2`
)

// BigQuery statements.
const (
	QrySectionStats = "SELECT section, model_used, COUNT(*) AS count FROM `%s` GROUP BY section, model_used ORDER BY section, model_used"
)
