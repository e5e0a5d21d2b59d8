package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bulkindex/sink"
)

// Store implements sink.Registry over one BadgerDB backend.
// Open indexes are cached so that all appends to one index share the same
// record ID sequence.
type Store struct {
	backend *Backend
	logger  *slog.Logger

	mu   sync.Mutex
	open map[string]*Index
}

var _ sink.Registry = (*Store)(nil)

// NewStore creates a Store over the given backend.
func NewStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default(),
		open:    make(map[string]*Index),
	}
}

// Index returns the sink for the named index, opening it on first use.
func (s *Store) Index(name string) (sink.Sink, error) {
	idx, err := s.index(name)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// OpenIndex is like Index but returns the concrete type.
func (s *Store) OpenIndex(name string) (*Index, error) {
	return s.index(name)
}

func (s *Store) index(name string) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.open[name]; ok {
		return idx, nil
	}
	idx, err := newIndex(s.backend, name)
	if err != nil {
		return nil, err
	}
	s.open[name] = idx
	return idx, nil
}

// CreateIndex registers a new index schema from ordered field names.
// Returns sink.ErrIndexExists if the index is already registered.
func (s *Store) CreateIndex(name string, fieldNames []string) error {
	schema, err := sink.NewSchema(name, fieldNames)
	if err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSchemaKey(name)
		_, err := tx.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %q", sink.ErrIndexExists, name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, sink.MarshalSchema(schema)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close closes all open indexes. The backend is closed by its owner.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, idx := range s.open {
		if err := idx.Close(); err != nil {
			s.logger.Error("error closing index", "index", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		delete(s.open, name)
	}
	return firstErr
}
