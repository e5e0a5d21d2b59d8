package ingest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/bulkindex/core"
	"github.com/poiesic/bulkindex/csv"
	"github.com/poiesic/bulkindex/enrich/mock"
	"github.com/poiesic/bulkindex/sink"
	"github.com/poiesic/bulkindex/sink/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySink implements sink.Sink in memory with failure injection and
// concurrency instrumentation.
type memorySink struct {
	schema *sink.Schema

	// failOnValue makes appends fail for any record containing the value.
	failOnValue map[string]error

	// appendDelay slows appends down to widen concurrency windows.
	appendDelay time.Duration

	mu          sync.Mutex
	records     []*core.Record
	seq         uint64
	inFlight    int
	maxInFlight int
}

var errAppendFailed = errors.New("append failed")

func newMemorySink(t *testing.T, fieldNames ...string) *memorySink {
	schema, err := sink.NewSchema("idx", fieldNames)
	require.NoError(t, err)
	return &memorySink{schema: schema, failOnValue: make(map[string]error)}
}

func (s *memorySink) ResolveField(name string) (core.FieldDef, error) {
	return s.schema.Resolve(name)
}

func (s *memorySink) enter() {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()
}

func (s *memorySink) exit() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *memorySink) appendOne(record *core.Record) error {
	for _, f := range record.Fields {
		if err, ok := s.failOnValue[f.Value]; ok {
			return err
		}
	}
	s.mu.Lock()
	s.seq++
	record.Id = core.ID(s.seq)
	s.records = append(s.records, record)
	s.mu.Unlock()
	return nil
}

func (s *memorySink) AppendBatch(ctx context.Context, records iter.Seq[*core.Record]) (uint64, error) {
	s.enter()
	defer s.exit()
	if s.appendDelay > 0 {
		time.Sleep(s.appendDelay)
	}
	for record := range records {
		if err := s.appendOne(record); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq, nil
}

func (s *memorySink) AppendOne(ctx context.Context, record *core.Record) error {
	s.enter()
	defer s.exit()
	return s.appendOne(record)
}

func (s *memorySink) Close() error { return nil }

// values returns the sorted joined field values of all appended records.
func (s *memorySink) values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.Text()
	}
	sort.Strings(out)
	return out
}

// singleRegistry serves one sink for any index name it was built with.
type singleRegistry struct {
	name string
	snk  sink.Sink
}

func (r *singleRegistry) Index(name string) (sink.Sink, error) {
	if name != r.name {
		return nil, fmt.Errorf("%w: %q", sink.ErrUnknownIndex, name)
	}
	return r.snk, nil
}

func newTestPipeline(t *testing.T, snk sink.Sink, opts ...Option) *Pipeline {
	p, err := NewPipeline(&singleRegistry{name: "idx", snk: snk}, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func payload(body string) string {
	return ",idx\nname,age\n" + body
}

const testHeaderLen = int64(len("idx\nname,age\n"))

func TestIngest_SingleChunk(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	result, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\nbob,25\n")))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.IndexedCount)
	assert.Equal(t, uint64(2), result.SequenceID)
	assert.Equal(t, []string{"alice 30", "bob 25"}, snk.values())
}

func TestIngest_EmptyBody(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	result, err := p.Ingest(context.Background(), strings.NewReader(payload("")))
	require.NoError(t, err)
	assert.Zero(t, result.IndexedCount)
	assert.Zero(t, result.SequenceID)
}

func TestIngest_TabDelimited(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	result, err := p.Ingest(context.Background(),
		strings.NewReader("\tidx\nname\tage\nalice\t30\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.IndexedCount)
}

func TestIngest_HeaderFieldOrderOverridesSchema(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	_, err := p.Ingest(context.Background(),
		strings.NewReader(",idx\nage,name\n30,alice\n"))
	require.NoError(t, err)

	require.Len(t, snk.records, 1)
	name, ok := snk.records[0].Value("name")
	require.True(t, ok)
	assert.Equal(t, "alice", name)
}

func TestIngest_MissingTerminator(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	_, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\nbo")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTerminator)

	var oe *core.OffsetError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, testHeaderLen+9, oe.Offset)
}

// The record set reconstructed from any chunking must equal the set obtained
// by parsing the whole stream as a single chunk.
func TestIngest_ChunkSizeEquivalence(t *testing.T) {
	var body strings.Builder
	want := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&body, "user%04d,%d\n", i, 20+i%60)
		want = append(want, fmt.Sprintf("user%04d %d", i, 20+i%60))
	}
	sort.Strings(want)

	// Chunk sizes chosen to exercise boundaries landing on every position of
	// a record, including exactly on newlines and exact multiples of the
	// body length. The longest record is 12 bytes, so every chunk of 16 or
	// more bytes is guaranteed a delimiter.
	for _, chunkSize := range []int{16, 17, 19, 23, 31, 64, 100, 127, 1024, 1 << 20} {
		t.Run(fmt.Sprintf("chunkSize=%d", chunkSize), func(t *testing.T) {
			snk := newMemorySink(t, "name", "age")
			p := newTestPipeline(t, snk, WithChunkSize(chunkSize))

			result, err := p.Ingest(context.Background(), strings.NewReader(payload(body.String())))
			require.NoError(t, err)
			assert.Equal(t, uint64(200), result.IndexedCount)
			assert.Equal(t, want, snk.values())
		})
	}
}

func TestIngest_StitchAcrossBoundary(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	// Body "alice,30\nbob,25\n": an 11-byte chunk splits "bob,25" into
	// "bo" + "b,25\n", forcing one stitched record.
	p := newTestPipeline(t, snk, WithChunkSize(11))

	result, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\nbob,25\n")))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.IndexedCount)
	assert.Equal(t, []string{"alice 30", "bob 25"}, snk.values())
}

func TestIngest_BoundaryExactlyOnNewline(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	// A 9-byte chunk ends exactly on the newline after "alice,30\n".
	p := newTestPipeline(t, snk, WithChunkSize(9))

	result, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\nbob,25\n")))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.IndexedCount)
	assert.Equal(t, []string{"alice 30", "bob 25"}, snk.values())
}

func TestIngest_ChunkWithoutDelimiter(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk, WithChunkSize(16))

	// One record far larger than the chunk size: the second chunk contains
	// no newline at all. This is a hard error, but the load must still
	// drain and return.
	body := "alice," + strings.Repeat("x", 100) + "\n"
	_, err := p.Ingest(context.Background(), strings.NewReader(payload(body)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDelimiter)
}

func TestIngest_FieldCountMismatch(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	_, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\nbob\n")))
	require.Error(t, err)
	assert.ErrorIs(t, err, csv.ErrFieldCount)
}

func TestIngest_UnknownField(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	_, err := p.Ingest(context.Background(),
		strings.NewReader(",idx\nname,height\nalice,30\n"))
	assert.ErrorIs(t, err, sink.ErrUnknownField)
}

func TestIngest_UnknownIndex(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	_, err := p.Ingest(context.Background(), strings.NewReader(",other\nname\nalice\n"))
	assert.ErrorIs(t, err, sink.ErrUnknownIndex)
}

func TestIngest_BadDelimiter(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	p := newTestPipeline(t, snk)

	_, err := p.Ingest(context.Background(), strings.NewReader(";idx\nname\nalice\n"))
	assert.ErrorIs(t, err, csv.ErrBadDelimiter)
}

func TestIngest_SinkFailure(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	snk.failOnValue["user0100"] = errAppendFailed
	p := newTestPipeline(t, snk, WithChunkSize(64))

	var body strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&body, "user%04d,30\n", i)
	}

	_, err := p.Ingest(context.Background(), strings.NewReader(payload(body.String())))
	require.Error(t, err)
	assert.ErrorIs(t, err, errAppendFailed)
}

// Two failures injected into different chunks must surface as exactly one
// error, whichever chunk loses the race.
func TestIngest_FirstErrorWins(t *testing.T) {
	err1 := fmt.Errorf("%w: first", errAppendFailed)
	err2 := fmt.Errorf("%w: second", errAppendFailed)

	for i := 0; i < 10; i++ {
		snk := newMemorySink(t, "name", "age")
		snk.failOnValue["user0010"] = err1
		snk.failOnValue["user0190"] = err2
		p := newTestPipeline(t, snk, WithChunkSize(64))

		var body strings.Builder
		for j := 0; j < 200; j++ {
			fmt.Fprintf(&body, "user%04d,30\n", j)
		}

		_, err := p.Ingest(context.Background(), strings.NewReader(payload(body.String())))
		require.Error(t, err)
		assert.ErrorIs(t, err, errAppendFailed)
		// Exactly one of the two, never a mix.
		assert.NotEqual(t, errors.Is(err, err1), errors.Is(err, err2))
	}
}

// With permit pool capacity K, no more than K chunks can be inside the sink
// concurrently.
func TestIngest_InFlightBound(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	snk.appendDelay = 2 * time.Millisecond
	p := newTestPipeline(t, snk, WithChunkSize(32), WithMaxInFlight(2), WithPoolSize(8))

	var body strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&body, "user%04d,30\n", i)
	}

	_, err := p.Ingest(context.Background(), strings.NewReader(payload(body.String())))
	require.NoError(t, err)

	snk.mu.Lock()
	defer snk.mu.Unlock()
	assert.LessOrEqual(t, snk.maxInFlight, 2)
}

// After Ingest returns, every chunk job and stitch must be finished: no
// append may still be in flight.
func TestIngest_QuiescentAfterReturn(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	snk.appendDelay = time.Millisecond
	p := newTestPipeline(t, snk, WithChunkSize(32), WithPoolSize(4))

	var body strings.Builder
	want := 0
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&body, "user%04d,30\n", i)
		want++
	}

	result, err := p.Ingest(context.Background(), strings.NewReader(payload(body.String())))
	require.NoError(t, err)

	snk.mu.Lock()
	defer snk.mu.Unlock()
	assert.Zero(t, snk.inFlight)
	assert.Equal(t, want, len(snk.records))
	assert.Equal(t, uint64(want), result.IndexedCount)
}

func TestIngest_Enrichment(t *testing.T) {
	snk := newMemorySink(t, "name", "age")
	enricher := mock.NewMockEnricher()
	p := newTestPipeline(t, snk, WithChunkSize(11), WithEnricher(enricher))

	result, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\nbob,25\n")))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.IndexedCount)
	assert.Equal(t, 2, enricher.CallCount())
	for _, r := range snk.records {
		assert.NotEmpty(t, r.Vector)
	}
}

func TestIngest_EnrichmentFailure(t *testing.T) {
	errEnrich := errors.New("embedding service down")
	snk := newMemorySink(t, "name", "age")
	enricher := mock.NewMockEnricher()
	enricher.EnrichFunc = func(ctx context.Context, record *core.Record) error {
		return errEnrich
	}
	p := newTestPipeline(t, snk, WithEnricher(enricher))

	_, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\n")))
	require.Error(t, err)
	assert.ErrorIs(t, err, errEnrich)
	assert.Empty(t, snk.records)
}

func TestIngest_BadgerEndToEnd(t *testing.T) {
	store, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})
	require.NoError(t, store.CreateIndex("idx", []string{"name", "age"}))

	p, err := NewPipeline(store, WithChunkSize(11))
	require.NoError(t, err)
	t.Cleanup(p.Release)

	result, err := p.Ingest(context.Background(), strings.NewReader(payload("alice,30\nbob,25\n")))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.IndexedCount)
	assert.NotZero(t, result.SequenceID)

	idx, err := store.OpenIndex("idx")
	require.NoError(t, err)
	var names []string
	require.NoError(t, idx.Records(func(r *core.Record) error {
		name, _ := r.Value("name")
		names = append(names, name)
		return nil
	}))
	sort.Strings(names)
	assert.Equal(t, []string{"alice", "bob"}, names)
}
