package ingest

import (
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/bulkindex/enrich"
	"github.com/poiesic/bulkindex/sink"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultChunkSize is the fixed buffer size the splitter reads the
	// stream into. A chunk must always contain at least one record
	// delimiter, so the chunk size bounds the largest loadable record.
	DefaultChunkSize = 512 * 1024

	// DefaultMaxInFlight is the default capacity of the permit pool
	// bounding concurrently in-flight chunks.
	DefaultMaxInFlight = 64

	// minInFlight is the smallest workable permit pool: a chunk's permit is
	// released only after its successor has been dispatched and the stitch
	// has run, so a single permit could never make progress.
	minInFlight = 2
)

// Pipeline runs bulk loads against a sink registry.
// A Pipeline may be reused for many loads; concurrent loads share the
// worker pool and the permit pool.
type Pipeline struct {
	registry    sink.Registry
	enricher    enrich.Enricher
	pool        *ants.Pool
	permits     *semaphore.Weighted
	chunkSize   int
	maxInFlight int
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunkSize sets the chunk buffer size in bytes.
// Default is DefaultChunkSize. Values below 16 are raised to 16.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 16 {
			size = 16
		}
		p.chunkSize = size
		return nil
	}
}

// WithMaxInFlight sets the capacity of the permit pool.
// Default is DefaultMaxInFlight, minimum 2.
func WithMaxInFlight(n int) Option {
	return func(p *Pipeline) error {
		if n < minInFlight {
			n = minInFlight
		}
		p.maxInFlight = n
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent chunk parsing.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithEnricher sets an optional per-record enrichment step.
// Default is none.
func WithEnricher(enricher enrich.Enricher) Option {
	return func(p *Pipeline) error {
		p.enricher = enricher
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a bulk-load pipeline over the given sink registry.
func NewPipeline(registry sink.Registry, opts ...Option) (*Pipeline, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		registry:    registry,
		pool:        pool,
		chunkSize:   DefaultChunkSize,
		maxInFlight: DefaultMaxInFlight,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.permits = semaphore.NewWeighted(int64(p.maxInFlight))

	return p, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
