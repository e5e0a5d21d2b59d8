package badger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bulkindex/core"
	"github.com/poiesic/bulkindex/sink"
)

// Index implements sink.Sink on top of a BadgerDB backend.
// Record IDs come from a per-index badger sequence; the largest committed ID
// is the index's durable sequence position.
type Index struct {
	backend   *Backend
	schema    *sink.Schema
	idSeq     *badger.Sequence
	committed atomic.Uint64
	logger    *slog.Logger
}

var _ sink.Sink = (*Index)(nil)

// newIndex opens the named index, loading its schema from storage.
// Returns sink.ErrUnknownIndex if the schema key is absent.
func newIndex(backend *Backend, name string) (*Index, error) {
	var schema *sink.Schema
	err := backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSchemaKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %q", sink.ErrUnknownIndex, name)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			schema, err = sink.UnmarshalSchema(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	idSeq, err := backend.GetSequence(makeRecordSeqName(name))
	if err != nil {
		return nil, err
	}

	return &Index{
		backend: backend,
		schema:  schema,
		idSeq:   idSeq,
		logger:  slog.Default(),
	}, nil
}

// Close releases the record ID sequence.
func (x *Index) Close() error {
	return x.idSeq.Release()
}

// Name returns the index name.
func (x *Index) Name() string {
	return x.schema.IndexName
}

// Committed returns the largest record ID committed through this Index.
func (x *Index) Committed() uint64 {
	return x.committed.Load()
}

// ResolveField resolves a field name against the index schema.
func (x *Index) ResolveField(name string) (core.FieldDef, error) {
	return x.schema.Resolve(name)
}

// AppendBatch appends the lazily-produced records as one batch.
// Oversized batches are committed in segments when badger's transaction
// limit is reached; the returned sequence position covers the whole batch.
func (x *Index) AppendBatch(ctx context.Context, records iter.Seq[*core.Record]) (uint64, error) {
	tx := x.backend.db.NewTransaction(true)
	defer func() { tx.Discard() }()

	var last uint64
	now := time.Now().UTC()
	for record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return 0, err
		}
		id, err := x.nextID()
		if err != nil {
			return 0, err
		}
		record.Id = core.ID(id)
		record.InsertedAt = now

		key := makeRecordKey(x.schema.IndexName, record.Id)
		value := sink.MarshalRecord(record)
		err = tx.Set(key, value)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err = tx.Commit(); err != nil {
				return 0, err
			}
			x.noteCommitted(last)
			tx = x.backend.db.NewTransaction(true)
			err = tx.Set(key, value)
		}
		if err != nil {
			return 0, err
		}
		last = id
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	x.noteCommitted(last)
	return last, nil
}

// AppendOne appends a single record outside any batch.
func (x *Index) AppendOne(ctx context.Context, record *core.Record) error {
	if err := core.ValidateRecord(record); err != nil {
		return err
	}
	id, err := x.nextID()
	if err != nil {
		return err
	}
	record.Id = core.ID(id)
	record.InsertedAt = time.Now().UTC()

	err = x.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRecordKey(x.schema.IndexName, record.Id), sink.MarshalRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	x.noteCommitted(id)
	return nil
}

// Records iterates all stored records of the index in key order.
// Iteration stops at the first error returned by fn.
func (x *Index) Records(fn func(*core.Record) error) error {
	return x.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(x.schema.IndexName)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record *core.Record
			err := it.Item().Value(func(val []byte) error {
				var err error
				record, err = sink.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// nextID draws the next record ID, skipping badger's initial zero.
func (x *Index) nextID() (uint64, error) {
	id, err := x.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if id == 0 {
		id, err = x.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

// noteCommitted advances the committed position monotonically.
func (x *Index) noteCommitted(id uint64) {
	for {
		cur := x.committed.Load()
		if id <= cur || x.committed.CompareAndSwap(cur, id) {
			return
		}
	}
}
