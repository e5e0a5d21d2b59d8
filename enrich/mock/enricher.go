// Package mock provides a deterministic test double for enrich.Enricher.
package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/bulkindex/core"
)

// MockEnricher is a test double for enrich.Enricher.
// It allows custom behavior injection via a function field.
type MockEnricher struct {
	// EnrichFunc is called by Enrich if set.
	// If nil, uses default deterministic behavior.
	EnrichFunc func(ctx context.Context, record *core.Record) error

	callCount atomic.Int64
}

// NewMockEnricher creates a mock enricher with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via CallCount().
func NewMockEnricher() *MockEnricher {
	return &MockEnricher{}
}

// Enrich attaches a deterministic vector derived from the record's text.
func (m *MockEnricher) Enrich(ctx context.Context, record *core.Record) error {
	m.callCount.Add(1)

	if m.EnrichFunc != nil {
		return m.EnrichFunc(ctx, record)
	}

	record.Vector = generateDeterministicVector(record.Text(), 8)
	return nil
}

// CallCount returns the number of times Enrich was called.
func (m *MockEnricher) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and any injected behavior.
func (m *MockEnricher) Reset() {
	m.callCount.Store(0)
	m.EnrichFunc = nil
}

// generateDeterministicVector creates a deterministic vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
