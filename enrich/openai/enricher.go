// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package openai implements enrich.Enricher using OpenAI-compatible
// embedding APIs via langchaingo.
package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/bulkindex/core"
	"github.com/poiesic/bulkindex/enrich"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Enricher attaches an embedding vector to each record, computed from the
// record's field values.
type Enricher struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ enrich.Enricher = (*Enricher)(nil)

// newEnricher is an internal constructor that returns the concrete type.
func newEnricher(config *enrich.Config) (*Enricher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Enricher{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-enricher"),
	}, nil
}

// NewEnricher creates an enricher using the provided configuration.
//
// Returns enrich.Enricher interface to enforce abstraction.
func NewEnricher(config *enrich.Config) (enrich.Enricher, error) {
	return newEnricher(config)
}

// Enrich computes an embedding for the record's joined field values and
// stores it in record.Vector.
func (e *Enricher) Enrich(ctx context.Context, record *core.Record) error {
	text := record.Text()
	if text == "" {
		return nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil
	}

	record.Vector = vectors[0]
	return nil
}
