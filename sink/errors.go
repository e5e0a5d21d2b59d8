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

import "errors"

var (
	// ErrUnknownIndex indicates the named index does not exist.
	ErrUnknownIndex = errors.New("unknown index")

	// ErrIndexExists indicates an attempt to create an index that already exists.
	ErrIndexExists = errors.New("index already exists")

	// ErrUnknownField indicates a header field name that is not part of the index schema.
	ErrUnknownField = errors.New("unknown field")

	// ErrSinkClosed indicates that the sink backend is closed.
	ErrSinkClosed = errors.New("sink is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
