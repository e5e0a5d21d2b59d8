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


package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrNoFields indicates a record carries no field values.
	ErrNoFields = errors.New("record has no fields")

	// ErrEmptyFieldName indicates a field value with an empty name.
	ErrEmptyFieldName = errors.New("field name cannot be empty")

	// ErrInvalidIndexName indicates an index name failed validation.
	ErrInvalidIndexName = errors.New("invalid index name")
)

// OffsetError tags an error with the global byte offset in the input stream
// where it was detected. Offsets count from the first header byte.
type OffsetError struct {
	Offset int64
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e *OffsetError) Unwrap() error {
	return e.Err
}

// AtOffset wraps err with the given global byte offset.
func AtOffset(offset int64, err error) error {
	return &OffsetError{Offset: offset, Err: err}
}

