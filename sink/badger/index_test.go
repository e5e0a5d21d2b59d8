package badger

import (
	"context"
	"iter"
	"path/filepath"
	"testing"

	"github.com/poiesic/bulkindex/core"
	"github.com/poiesic/bulkindex/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})
	return store
}

func recordSeq(records ...*core.Record) iter.Seq[*core.Record] {
	return func(yield func(*core.Record) bool) {
		for _, r := range records {
			if !yield(r) {
				return
			}
		}
	}
}

func makeTestRecord(name, age string) *core.Record {
	return &core.Record{Fields: []core.FieldValue{
		{Name: "name", Value: name},
		{Name: "age", Value: age},
	}}
}

func TestStore_CreateAndOpenIndex(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.CreateIndex("idx", []string{"name", "age"}))

	idx, err := store.Index("idx")
	require.NoError(t, err)

	def, err := idx.ResolveField("name")
	require.NoError(t, err)
	assert.Equal(t, "name", def.Name)

	_, err = idx.ResolveField("height")
	assert.ErrorIs(t, err, sink.ErrUnknownField)
}

func TestStore_CreateIndex_Duplicate(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.CreateIndex("idx", []string{"name"}))
	err := store.CreateIndex("idx", []string{"other"})
	assert.ErrorIs(t, err, sink.ErrIndexExists)
}

func TestStore_UnknownIndex(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Index("missing")
	assert.ErrorIs(t, err, sink.ErrUnknownIndex)
}

func TestIndex_AppendBatch(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.CreateIndex("idx", []string{"name", "age"}))

	idx, err := store.OpenIndex("idx")
	require.NoError(t, err)

	seq, err := idx.AppendBatch(context.Background(), recordSeq(
		makeTestRecord("alice", "30"),
		makeTestRecord("bob", "25"),
	))
	require.NoError(t, err)
	assert.NotZero(t, seq)
	assert.Equal(t, seq, idx.Committed())

	var got []*core.Record
	require.NoError(t, idx.Records(func(r *core.Record) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 2)
	for _, r := range got {
		assert.NotZero(t, r.Id)
		assert.False(t, r.InsertedAt.IsZero())
	}
}

func TestIndex_AppendBatch_SequenceAdvances(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.CreateIndex("idx", []string{"name", "age"}))

	idx, err := store.OpenIndex("idx")
	require.NoError(t, err)

	seq1, err := idx.AppendBatch(context.Background(), recordSeq(makeTestRecord("alice", "30")))
	require.NoError(t, err)
	seq2, err := idx.AppendBatch(context.Background(), recordSeq(makeTestRecord("bob", "25")))
	require.NoError(t, err)
	assert.Greater(t, seq2, seq1)
}

func TestIndex_AppendBatch_Empty(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.CreateIndex("idx", []string{"name", "age"}))

	idx, err := store.OpenIndex("idx")
	require.NoError(t, err)

	seq, err := idx.AppendBatch(context.Background(), recordSeq())
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestIndex_AppendOne(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.CreateIndex("idx", []string{"name", "age"}))

	idx, err := store.OpenIndex("idx")
	require.NoError(t, err)

	record := makeTestRecord("carol", "41")
	require.NoError(t, idx.AppendOne(context.Background(), record))
	assert.NotZero(t, record.Id)
	assert.Equal(t, uint64(record.Id), idx.Committed())
}

func TestStore_Persistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	store := NewStore(backend)
	require.NoError(t, store.CreateIndex("idx", []string{"name", "age"}))

	idx, err := store.OpenIndex("idx")
	require.NoError(t, err)
	_, err = idx.AppendBatch(context.Background(), recordSeq(makeTestRecord("alice", "30")))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, backend.Close())

	// Reopen: schema and records must survive.
	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	store = NewStore(backend)
	defer store.Close()

	idx, err = store.OpenIndex("idx")
	require.NoError(t, err)

	var count int
	var name string
	require.NoError(t, idx.Records(func(r *core.Record) error {
		count++
		name, _ = r.Value("name")
		return nil
	}))
	assert.Equal(t, 1, count)
	assert.Equal(t, "alice", name)
}
