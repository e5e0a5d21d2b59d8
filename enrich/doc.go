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


// Package enrich provides the optional per-record enrichment step that runs
// between parsing and appending during a bulk load.
//
// An Enricher derives additional data for a record, currently an embedding
// vector computed from the record's field values. The ingestion pipeline
// treats enrichers as external collaborators: an enrichment failure aborts
// the load the same way a parse or sink failure does.
//
// Implementation packages:
//
//   - enrich/openai: production implementation using OpenAI-compatible
//     embedding APIs via langchaingo
//   - enrich/mock: deterministic test double
//
// Implementations must be thread-safe: chunks of one bulk load enrich
// records concurrently.
package enrich
