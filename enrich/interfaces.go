package enrich

import (
	"context"

	"github.com/poiesic/bulkindex/core"
)

// Enricher derives additional data for a parsed record before it is
// appended to the sink. Implementations must be thread-safe.
type Enricher interface {
	// Enrich mutates record in place, typically populating its Vector.
	// An error aborts the bulk load that produced the record.
	Enrich(ctx context.Context, record *core.Record) error
}
