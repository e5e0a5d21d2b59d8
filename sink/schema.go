package sink

import (
	"fmt"

	"github.com/poiesic/bulkindex/core"
)

// Schema is the flat ordered field list of one index.
type Schema struct {
	IndexName string
	Fields    []core.FieldDef
}

// NewSchema builds a schema for the named index from field names.
func NewSchema(indexName string, fieldNames []string) (*Schema, error) {
	if err := core.ValidateIndexName(indexName); err != nil {
		return nil, err
	}
	fields := make([]core.FieldDef, len(fieldNames))
	seen := make(map[string]struct{}, len(fieldNames))
	for i, name := range fieldNames {
		if name == "" {
			return nil, fmt.Errorf("field %d of index %q has an empty name", i, indexName)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate field %q in index %q", name, indexName)
		}
		seen[name] = struct{}{}
		fields[i] = core.NewFieldDef(indexName, name)
	}
	return &Schema{IndexName: indexName, Fields: fields}, nil
}

// Resolve returns the field descriptor for name.
// Returns ErrUnknownField if the schema does not contain it.
func (s *Schema) Resolve(name string) (core.FieldDef, error) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return core.FieldDef{}, fmt.Errorf("%w: %q in index %q", ErrUnknownField, name, s.IndexName)
}
