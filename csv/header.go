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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/bulkindex/core"
)

// Header is the parsed prelude of a bulk-load payload: one delimiter byte,
// the target index name terminated by a newline, and the delimiter-separated
// field names terminated by a newline.
type Header struct {
	Delim      byte
	IndexName  string
	FieldNames []string

	// Len is the number of header bytes after the delimiter byte.
	// Body offsets continue from here.
	Len int64
}

// ReadHeader consumes and parses the payload header from r.
func ReadHeader(r io.ByteReader) (*Header, error) {
	delim, err := r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty payload", ErrTruncatedHeader)
		}
		return nil, err
	}
	if delim != ',' && delim != '\t' {
		return nil, fmt.Errorf("%w: got 0x%02x", ErrBadDelimiter, delim)
	}

	h := &Header{Delim: delim}

	indexName, err := readLine(r, h)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateIndexName(indexName); err != nil {
		return nil, err
	}
	h.IndexName = indexName

	fieldLine, err := readLine(r, h)
	if err != nil {
		return nil, err
	}
	h.FieldNames = strings.Split(fieldLine, string(delim))
	if len(h.FieldNames) == 1 && h.FieldNames[0] == "" {
		return nil, ErrNoFields
	}

	return h, nil
}

func readLine(r io.ByteReader, h *Header) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrTruncatedHeader
			}
			return "", err
		}
		h.Len++
		if b == Newline {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}
