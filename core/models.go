package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FieldDef describes one field of an index schema.
// The Id is content-based so the same (index, field) pair always resolves
// to the same descriptor across restarts.
type FieldDef struct {
	Id   ID
	Name string
}

// NewFieldDef creates a field descriptor for the given index and field name.
func NewFieldDef(indexName, fieldName string) FieldDef {
	return FieldDef{
		Id:   IDFromContent(indexName + "/" + fieldName),
		Name: fieldName,
	}
}

// FieldValue is one named field value of a record.
type FieldValue struct {
	Name  string
	Value string
}

// Record is one structured unit parsed from delimited text,
// corresponding to one unit appended to the sink.
type Record struct {
	Id         ID
	Fields     []FieldValue
	Vector     []float32 // Optional derived embedding (populated by an enricher)
	InsertedAt time.Time
}

// Value returns the value of the named field and whether it is present.
func (r *Record) Value(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Text returns all field values joined by a single space, in field order.
// Enrichers use this as the embedding input.
func (r *Record) Text() string {
	var n int
	for _, f := range r.Fields {
		n += len(f.Value) + 1
	}
	if n == 0 {
		return ""
	}
	buf := make([]byte, 0, n-1)
	for i, f := range r.Fields {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, f.Value...)
	}
	return string(buf)
}
