// Copyright 2025 Poiesic Systems
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


package search

import (
	"errors"
	"fmt"

	"github.com/poiesic/idrak/core"
)

var (
	// ErrStoreRequired is returned when an embedding store is not provided.
	ErrStoreRequired = errors.New("embedding store required")

	// ErrAmbiguousQuery is returned when a query names both text and a note.
	ErrAmbiguousQuery = fmt.Errorf("%w: query must set exactly one of text or note id", core.ErrInvalidRequest)

	// ErrEmptyQuery is returned when a query names neither text nor a note.
	ErrEmptyQuery = fmt.Errorf("%w: query text or note id is required", core.ErrInvalidRequest)
)
