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
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/bulkindex/core"
	"github.com/poiesic/bulkindex/csv"
	"github.com/poiesic/bulkindex/enrich"
	"github.com/poiesic/bulkindex/sink"
	"golang.org/x/sync/semaphore"
)

// boundaryState tracks the rendezvous at a chunk's trailing boundary.
// Exactly one transition path reaches boundaryStitched, so the stitch runs
// exactly once no matter which half of the spanning record arrives first.
type boundaryState uint8

const (
	boundaryEmpty boundaryState = iota
	boundaryHasTrailing
	boundaryHasLeading
	boundaryStitched
)

// chunk is one contiguous slice of the input stream and the job that parses
// it. The chunk owns its buffer; the only bytes that leave it are the
// leading fragment handed to the predecessor.
type chunk struct {
	ictx     *ingestContext
	snk      sink.Sink
	enricher enrich.Enricher
	permits  *semaphore.Weighted

	buf          []byte
	globalOffset int64

	// prev is the job handling the chunk just before this one.
	// Severed after the leading fragment handoff so finished chunks can be
	// released.
	prev *chunk

	mu            sync.Mutex
	state         boundaryState
	trailingStart int
	nextLeading   []byte
	failed        bool
}

// newChunk constructs a chunk, acquiring a flow-control permit and
// registering with the completion barrier. Acquisition blocks when too many
// chunks are already in flight; that is the backpressure that keeps the
// splitter from outrunning indexing.
func newChunk(ctx context.Context, ictx *ingestContext, snk sink.Sink, enricher enrich.Enricher, permits *semaphore.Weighted, buf []byte, globalOffset int64, prev *chunk) (*chunk, error) {
	if err := permits.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	ictx.inFlight.Add(1)
	return &chunk{
		ictx:          ictx,
		snk:           snk,
		enricher:      enricher,
		permits:       permits,
		buf:           buf,
		globalOffset:  globalOffset,
		prev:          prev,
		trailingStart: -1,
	}, nil
}

// run parses the chunk: hand the leading fragment to the predecessor, append
// all whole records as one batch, then resolve the trailing fragment. The
// stitch of the record spanning past this chunk's end happens in finish,
// on whichever goroutine completes the boundary rendezvous.
func (c *chunk) run(ctx context.Context) {
	start := 0
	if c.prev != nil {
		i := bytes.IndexByte(c.buf, csv.Newline)
		if i < 0 {
			// Hard error: every chunk must contain at least one record
			// delimiter, which requires the chunk size to exceed the
			// largest record. The whole buffer still belongs to the
			// predecessor's record, and this chunk still drains.
			c.ictx.setError(core.AtOffset(c.globalOffset,
				fmt.Errorf("%w: chunk length %d", ErrNoDelimiter, len(c.buf))))
			prev := c.prev
			c.prev = nil
			prev.deliverLeading(ctx, c.buf)
			c.resolveTrailing(ctx, len(c.buf), true)
			return
		}
		start = i + 1
		prev := c.prev
		c.prev = nil
		prev.deliverLeading(ctx, c.buf[:start])
	}

	parser := csv.NewParser(c.ictx.delim, c.ictx.fields, c.buf, start, c.globalOffset)
	failed := false

	seq, err := c.snk.AppendBatch(ctx, func(yield func(*core.Record) bool) {
		for {
			record, perr := parser.Next()
			if perr != nil {
				c.ictx.setError(perr)
				failed = true
				return
			}
			if record == nil {
				return
			}
			if c.enricher != nil {
				if eerr := c.enricher.Enrich(ctx, record); eerr != nil {
					c.ictx.setError(core.AtOffset(parser.GlobalRecordStart(),
						fmt.Errorf("enriching record: %w", eerr)))
					failed = true
					return
				}
			}
			c.ictx.added.Add(1)
			if !yield(record) {
				return
			}
		}
	})
	if err != nil {
		c.ictx.setError(core.AtOffset(parser.GlobalRecordStart(),
			fmt.Errorf("appending batch: %w", err)))
		failed = true
	}
	if !failed {
		c.ictx.noteSequence(seq)
	}

	c.resolveTrailing(ctx, parser.RecordStart(), failed)
}

// deliverLeading hands this chunk the leading fragment of its successor:
// the bytes up to and including the successor's first record delimiter, or
// an empty fragment at end of stream.
func (c *chunk) deliverLeading(ctx context.Context, fragment []byte) {
	c.mu.Lock()
	switch c.state {
	case boundaryEmpty:
		c.nextLeading = fragment
		c.state = boundaryHasLeading
		c.mu.Unlock()
	case boundaryHasTrailing:
		c.nextLeading = fragment
		c.state = boundaryStitched
		c.mu.Unlock()
		c.finish(ctx)
	default:
		c.mu.Unlock()
		panic("bulkindex: leading fragment delivered twice")
	}
}

// resolveTrailing records where this chunk's last, incomplete record begins.
// With failed set the boundary still resolves, but no stitched record is
// appended; the chunk's remaining bytes are covered by the sticky error.
func (c *chunk) resolveTrailing(ctx context.Context, start int, failed bool) {
	c.mu.Lock()
	c.trailingStart = start
	c.failed = failed
	switch c.state {
	case boundaryEmpty:
		c.state = boundaryHasTrailing
		c.mu.Unlock()
	case boundaryHasLeading:
		c.state = boundaryStitched
		c.mu.Unlock()
		c.finish(ctx)
	default:
		c.mu.Unlock()
		panic("bulkindex: trailing fragment resolved twice")
	}
}

// finish completes the chunk's whole obligation: perform the stitch if one
// is due, then release the permit and arrive at the barrier. Runs exactly
// once per chunk, on whichever side completed the rendezvous.
func (c *chunk) finish(ctx context.Context) {
	defer func() {
		c.buf = nil
		c.nextLeading = nil
		c.permits.Release(1)
		c.ictx.inFlight.Done()
	}()
	if !c.failed {
		c.stitch(ctx)
	}
}

// stitch reconstructs and appends the one record that spans past this
// chunk's end, from the trailing fragment and the successor's leading
// fragment.
func (c *chunk) stitch(ctx context.Context) {
	trailing := c.buf[c.trailingStart:]
	if len(trailing)+len(c.nextLeading) == 0 {
		return
	}

	stitched := make([]byte, 0, len(trailing)+len(c.nextLeading))
	stitched = append(stitched, trailing...)
	stitched = append(stitched, c.nextLeading...)
	offset := c.globalOffset + int64(c.trailingStart)

	parser := csv.NewParser(c.ictx.delim, c.ictx.fields, stitched, 0, offset)
	record, err := parser.Next()
	if err != nil {
		c.ictx.setError(err)
		return
	}
	if record == nil {
		c.ictx.setError(core.AtOffset(offset,
			fmt.Errorf("%w: record starting at offset %d", ErrMissingTerminator, offset)))
		return
	}

	if c.enricher != nil {
		if err := c.enricher.Enrich(ctx, record); err != nil {
			c.ictx.setError(core.AtOffset(offset, fmt.Errorf("enriching record: %w", err)))
			return
		}
	}

	c.ictx.added.Add(1)
	if err := c.snk.AppendOne(ctx, record); err != nil {
		c.ictx.setError(core.AtOffset(offset, fmt.Errorf("appending stitched record: %w", err)))
	}
}
