package badger

import (
	"fmt"

	"github.com/poiesic/bulkindex/core"
)

// Key prefixes for different data types
const (
	schemaPrefix    = "idxsch"
	recordPrefix    = "idxrec"
	recordIDSeqName = "idxrecseq"
)

// makeSchemaKey generates the key holding an index schema.
func makeSchemaKey(indexName string) []byte {
	return []byte(fmt.Sprintf("%s:%s", schemaPrefix, indexName))
}

// makeRecordKey generates a key for a record of an index by ID.
func makeRecordKey(indexName string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", recordPrefix, indexName, id))
}

// makeRecordPrefix generates the iteration prefix covering all records of an index.
func makeRecordPrefix(indexName string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordPrefix, indexName))
}

// makeRecordSeqName generates the name of the per-index record ID sequence.
func makeRecordSeqName(indexName string) string {
	return fmt.Sprintf("%s:%s", recordIDSeqName, indexName)
}
