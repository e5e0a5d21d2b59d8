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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/poiesic/bulkindex/core"
	"github.com/poiesic/bulkindex/csv"
)

// Result is the aggregate outcome of one successful bulk load.
type Result struct {
	// SequenceID marks the durable write position in the sink covering
	// every batch of this load.
	SequenceID uint64

	// IndexedCount is the number of records appended.
	IndexedCount uint64
}

// Ingest bulk-loads one payload: a delimiter byte, a header naming the
// target index and its fields, and a body of delimiter-separated records.
//
// The body is read into fixed-size chunks dispatched to the worker pool;
// Ingest blocks on permit acquisition when too many chunks are in flight,
// and on the completion barrier before returning. Once an error is
// recorded, no new chunks are produced, but every dispatched chunk still
// runs to completion so the barrier always advances.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader) (*Result, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	header, err := csv.ReadHeader(br)
	if err != nil {
		return nil, err
	}

	snk, err := p.registry.Index(header.IndexName)
	if err != nil {
		return nil, err
	}

	fields := make([]core.FieldDef, len(header.FieldNames))
	for i, name := range header.FieldNames {
		if fields[i], err = snk.ResolveField(name); err != nil {
			return nil, err
		}
	}

	ictx := &ingestContext{
		delim:  header.Delim,
		fields: fields,
	}

	p.logger.Debug("starting bulk load",
		"index", header.IndexName, "fields", len(fields), "chunkSize", p.chunkSize)

	// Split the body into chunks. Submission is strictly ordered: a chunk's
	// leading fragment can only reach its predecessor after the predecessor
	// has been dispatched, because the handoff happens inside the
	// successor's own job.
	globalOffset := header.Len
	var prev *chunk
	for !ictx.failed() {
		buf := make([]byte, p.chunkSize)
		n, rerr := io.ReadFull(br, buf)
		if rerr != nil && !errors.Is(rerr, io.EOF) && !errors.Is(rerr, io.ErrUnexpectedEOF) {
			ictx.setError(core.AtOffset(globalOffset+int64(n),
				fmt.Errorf("reading stream: %w", rerr)))
			break
		}
		if n == 0 {
			// End of stream exactly on the previous chunk boundary.
			break
		}

		c, cerr := newChunk(ctx, ictx, snk, p.enricher, p.permits, buf[:n], globalOffset, prev)
		if cerr != nil {
			ictx.setError(cerr)
			break
		}
		if serr := p.pool.Submit(func() { c.run(ctx) }); serr != nil {
			// The chunk already holds a permit and a barrier registration,
			// so it must still run.
			p.logger.Error("submitting chunk job, running inline", "err", serr)
			c.run(ctx)
		}
		prev = c
		globalOffset += int64(n)

		if rerr != nil {
			// Short read: that was the final chunk.
			break
		}
	}

	// Deliver the terminal zero-length leading fragment so the last chunk
	// can resolve its trailing fragment, even when the loop stopped early
	// on an error.
	if prev != nil {
		prev.deliverLeading(ctx, nil)
	}

	// Completion barrier: every chunk's batch and stitch work.
	ictx.inFlight.Wait()

	if err := ictx.firstError(); err != nil {
		return nil, err
	}
	return &Result{
		SequenceID:   ictx.maxSeq.Load(),
		IndexedCount: ictx.added.Load(),
	}, nil
}
