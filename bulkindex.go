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

package bulkindex

import (
	"log/slog"

	"github.com/poiesic/bulkindex/enrich"
	"github.com/poiesic/bulkindex/enrich/openai"
	"github.com/poiesic/bulkindex/ingest"
	"github.com/poiesic/bulkindex/sink/badger"
)

// Loader bundles an open store with the pieces a bulk load needs. It is the
// top-level entry point for embedding the loader in another program.
type Loader struct {
	backend  *badger.Backend
	store    *badger.Store
	enricher enrich.Enricher
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	inMemory     bool
	enrichConfig *enrich.Config
}

// WithInMemory opens the store without touching disk. Intended for tests.
func WithInMemory() LoaderOption {
	return func(o *loaderOptions) {
		o.inMemory = true
	}
}

// WithEnrichment attaches an embedding enricher to every pipeline the
// Loader creates. Loads without this option index records as-is.
func WithEnrichment(config *enrich.Config) LoaderOption {
	return func(o *loaderOptions) {
		o.enrichConfig = config
	}
}

func OpenLoader(filePath string, opts ...LoaderOption) (*Loader, error) {
	options := &loaderOptions{}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	store := badger.NewStore(backend)

	var enricher enrich.Enricher
	if options.enrichConfig != nil {
		enricher, err = openai.NewEnricher(options.enrichConfig)
		if err != nil {
			store.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Loader{
		backend:  backend,
		store:    store,
		enricher: enricher,
		logger:   slog.Default(),
	}, nil
}

func (l *Loader) Close() error {
	if err := l.store.Close(); err != nil {
		l.logger.Error("error closing store", "err", err)
		return err
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Store exposes the underlying index registry.
func (l *Loader) Store() *badger.Store {
	return l.store
}

// CreateIndex creates an empty index with the given field names.
func (l *Loader) CreateIndex(name string, fieldNames []string) error {
	return l.store.CreateIndex(name, fieldNames)
}

// NewPipeline builds an ingest pipeline over the Loader's store. The
// Loader's enricher, if any, is applied unless the caller overrides it.
func (l *Loader) NewPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	if l.enricher != nil {
		opts = append([]ingest.Option{ingest.WithEnricher(l.enricher)}, opts...)
	}
	return ingest.NewPipeline(l.store, opts...)
}
