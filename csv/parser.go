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


package csv

import (
	"fmt"

	"github.com/poiesic/bulkindex/core"
)

// Newline terminates records and header lines.
const Newline = byte('\n')

// Parser parses whole records out of one in-memory buffer.
//
// A record is len(fields) delimiter-separated values terminated by a newline.
// There is no escaping grammar: a delimiter byte inside a value is not
// representable.
//
// The parser stops, without error, at the first record whose terminating
// newline lies beyond the end of the buffer; RecordStart then reports where
// that incomplete record begins.
type Parser struct {
	delim        byte
	fields       []core.FieldDef
	buf          []byte
	pos          int
	recordStart  int
	globalOffset int64
}

// NewParser creates a parser over buf starting at start.
// globalOffset is the position of buf[0] in the overall stream and is used
// in error messages only.
func NewParser(delim byte, fields []core.FieldDef, buf []byte, start int, globalOffset int64) *Parser {
	return &Parser{
		delim:        delim,
		fields:       fields,
		buf:          buf,
		pos:          start,
		recordStart:  start,
		globalOffset: globalOffset,
	}
}

// Next parses and returns the next complete record.
// It returns (nil, nil) when the remaining bytes cannot form a complete
// record; the caller reads RecordStart to learn where the leftover begins.
func (p *Parser) Next() (*core.Record, error) {
	p.recordStart = p.pos
	if p.pos >= len(p.buf) {
		return nil, nil
	}

	values := make([]string, 0, len(p.fields))
	valueStart := p.pos
	for i := p.pos; i < len(p.buf); i++ {
		switch p.buf[i] {
		case p.delim:
			values = append(values, string(p.buf[valueStart:i]))
			valueStart = i + 1
		case Newline:
			values = append(values, string(p.buf[valueStart:i]))
			if len(values) != len(p.fields) {
				return nil, core.AtOffset(p.globalOffset+int64(p.recordStart),
					fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(values), len(p.fields)))
			}
			p.pos = i + 1
			fieldValues := make([]core.FieldValue, len(values))
			for j, v := range values {
				fieldValues[j] = core.FieldValue{Name: p.fields[j].Name, Value: v}
			}
			return &core.Record{Fields: fieldValues}, nil
		}
	}

	// Ran out of buffer mid-record.
	return nil, nil
}

// RecordStart is the buffer offset where the last incomplete record begins,
// or len(buf) when the buffer ended exactly on a record boundary.
func (p *Parser) RecordStart() int {
	return p.recordStart
}

// GlobalRecordStart is RecordStart translated to a stream-global offset.
func (p *Parser) GlobalRecordStart() int64 {
	return p.globalOffset + int64(p.recordStart)
}
