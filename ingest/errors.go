package ingest

import "errors"

var (
	// ErrRegistryRequired is returned when a sink registry is not provided.
	ErrRegistryRequired = errors.New("sink registry required")

	// ErrMissingTerminator indicates a record whose trailing newline never arrived.
	ErrMissingTerminator = errors.New("record is missing the trailing newline")

	// ErrNoDelimiter indicates a chunk that contains no record delimiter at all.
	// The chunk size must exceed the largest expected record.
	ErrNoDelimiter = errors.New("entire chunk is a subset of one record")
)
