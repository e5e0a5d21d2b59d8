package sink

import (
	"context"
	"iter"

	"github.com/poiesic/bulkindex/core"
)

// Sink is the durable append target for one index.
// Implementations must be thread-safe and tolerate concurrent appends
// from independent chunks.
type Sink interface {
	// ResolveField resolves a header field name against the index schema.
	// Returns ErrUnknownField if the schema does not contain the name.
	ResolveField(name string) (core.FieldDef, error)

	// AppendBatch appends a finite lazy sequence of records as one batch.
	// The sequence is consumed exactly once, in order; producers stop
	// yielding when they hit an error of their own. Returns the committed
	// sink sequence position covering the batch.
	AppendBatch(ctx context.Context, records iter.Seq[*core.Record]) (uint64, error)

	// AppendOne appends a single record outside any batch.
	AppendOne(ctx context.Context, record *core.Record) error

	// Close releases per-index resources. The Sink must not be used afterwards.
	Close() error
}

// Registry looks up sinks by index name.
type Registry interface {
	// Index returns the sink for the named index.
	// Returns ErrUnknownIndex if the index does not exist.
	Index(name string) (Sink, error)
}
