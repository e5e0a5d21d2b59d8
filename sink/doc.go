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


// Package sink defines the record sink abstraction that ingestion appends to.
//
// A Sink is one index: it resolves header field names against the index
// schema and accepts record appends, either as a lazy batch or one at a
// time. A Registry looks Sinks up by index name.
//
// Implementations must be thread-safe: independent chunks of one bulk load
// append concurrently, and no append order is guaranteed between them.
//
// The BadgerDB implementation lives in sink/badger. Tests can use the
// in-memory helpers from that package or any hand-rolled Sink.
package sink
