// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sink

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/bulkindex/core"
)

// Hand-written MUS serializers for the stored record and schema shapes.
// Timestamps are stored as Unix microseconds.

type fieldValueSer struct{}

func (fieldValueSer) Marshal(v core.FieldValue, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.Value, bs[n:])
	return
}

func (fieldValueSer) Unmarshal(bs []byte) (v core.FieldValue, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Value, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (fieldValueSer) Size(v core.FieldValue) (size int) {
	return ord.String.Size(v.Name) + ord.String.Size(v.Value)
}

func (s fieldValueSer) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

var (
	fieldValuesMUS = ord.NewSliceSer[core.FieldValue](fieldValueSer{})
	vectorMUS      = ord.NewSliceSer[float32](raw.Float32)
)

type recordSer struct{}

// RecordMUS serializes core.Record for storage.
var RecordMUS = recordSer{}

func (recordSer) Marshal(r core.Record, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(r.Id), bs)
	n += fieldValuesMUS.Marshal(r.Fields, bs[n:])
	n += vectorMUS.Marshal(r.Vector, bs[n:])
	n += varint.Int64.Marshal(r.InsertedAt.UnixMicro(), bs[n:])
	return
}

func (recordSer) Unmarshal(bs []byte) (r core.Record, n int, err error) {
	var id uint64
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	r.Id = core.ID(id)
	var n1 int
	r.Fields, n1, err = fieldValuesMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.InsertedAt = time.UnixMicro(micros).UTC()
	return
}

func (recordSer) Size(r core.Record) (size int) {
	size = varint.Uint64.Size(uint64(r.Id))
	size += fieldValuesMUS.Size(r.Fields)
	size += vectorMUS.Size(r.Vector)
	size += varint.Int64.Size(r.InsertedAt.UnixMicro())
	return
}

func (recordSer) Skip(bs []byte) (n int, err error) {
	n, err = varint.Uint64.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = fieldValuesMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

type fieldDefSer struct{}

func (fieldDefSer) Marshal(f core.FieldDef, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(f.Id), bs)
	n += ord.String.Marshal(f.Name, bs[n:])
	return
}

func (fieldDefSer) Unmarshal(bs []byte) (f core.FieldDef, n int, err error) {
	var id uint64
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	f.Id = core.ID(id)
	var n1 int
	f.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (fieldDefSer) Size(f core.FieldDef) (size int) {
	return varint.Uint64.Size(uint64(f.Id)) + ord.String.Size(f.Name)
}

func (fieldDefSer) Skip(bs []byte) (n int, err error) {
	n, err = varint.Uint64.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

var fieldDefsMUS = ord.NewSliceSer[core.FieldDef](fieldDefSer{})

type schemaSer struct{}

// SchemaMUS serializes Schema for storage.
var SchemaMUS = schemaSer{}

func (schemaSer) Marshal(s Schema, bs []byte) (n int) {
	n = ord.String.Marshal(s.IndexName, bs)
	n += fieldDefsMUS.Marshal(s.Fields, bs[n:])
	return
}

func (schemaSer) Unmarshal(bs []byte) (s Schema, n int, err error) {
	s.IndexName, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	s.Fields, n1, err = fieldDefsMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (schemaSer) Size(s Schema) (size int) {
	return ord.String.Size(s.IndexName) + fieldDefsMUS.Size(s.Fields)
}

func (schemaSer) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = fieldDefsMUS.Skip(bs[n:])
	n += n1
	return
}

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(record *core.Record) []byte {
	buf := make([]byte, RecordMUS.Size(*record))
	RecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*core.Record, error) {
	record, _, err := RecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalSchema serializes a Schema to bytes.
func MarshalSchema(schema *Schema) []byte {
	buf := make([]byte, SchemaMUS.Size(*schema))
	SchemaMUS.Marshal(*schema, buf)
	return buf
}

// UnmarshalSchema deserializes a Schema from bytes.
func UnmarshalSchema(data []byte) (*Schema, error) {
	schema, _, err := SchemaMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &schema, nil
}
