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

import "fmt"

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - at least one field value
//   - every field value has a non-empty name
//
// NOT validated (populated by the sink or enrichers):
//   - Vector (can be empty until an enricher runs)
//   - ID (0 is valid before assignment from a database sequence)
//   - InsertedAt (set by the sink at append time)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if len(record.Fields) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrNoFields)
	}

	for _, f := range record.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyFieldName)
		}
	}

	return nil
}

// ValidateIndexName validates an index name.
// Index names are simple ASCII identifiers; they appear verbatim in the
// request header and in storage keys.
func ValidateIndexName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidIndexName)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.' {
			continue
		}
		return fmt.Errorf("%w: %q contains byte %q", ErrInvalidIndexName, name, c)
	}
	return nil
}
