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


package ingest

import (
	"sync"
	"sync/atomic"

	"github.com/poiesic/bulkindex/core"
)

// ingestContext is the shared per-request state of one bulk load: the
// resolved header, the success counter, the sticky first error, and the
// completion barrier. It is the only mutable state that crosses chunk
// boundaries besides the explicit fragment handoff.
type ingestContext struct {
	delim  byte
	fields []core.FieldDef

	// added counts records parsed and handed to the sink.
	added atomic.Uint64

	// maxSeq is the highest committed batch sequence observed.
	maxSeq atomic.Uint64

	// inFlight is the completion barrier. Every chunk registers one
	// participant at construction and arrives exactly once when its whole
	// obligation, batch plus stitch, is complete.
	inFlight sync.WaitGroup

	mu  sync.Mutex
	err error
}

// setError records err as the load's outcome unless an error is already set.
// The first error wins; later errors are dropped.
func (c *ingestContext) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// firstError returns the sticky error, or nil.
func (c *ingestContext) firstError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// failed reports whether the error slot has been set.
func (c *ingestContext) failed() bool {
	return c.firstError() != nil
}

// noteSequence advances the observed committed sequence monotonically.
func (c *ingestContext) noteSequence(seq uint64) {
	for {
		cur := c.maxSeq.Load()
		if seq <= cur || c.maxSeq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
