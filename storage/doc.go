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


// Package storage provides the storage abstraction layer for Idrak.
//
// NoteRepository decouples the note store from the retrieval engine.
// Two backends implement it:
//
//   - storage/badger: embedded BadgerDB, used by the CLI and in tests
//   - storage/mongo: MongoDB, for deployments sharing a document store
//
// # Update semantics
//
// Updates report an UpdateResult with matched and modified counts, so
// callers can tell "not found" (Matched == 0) from "found but
// unchanged" (Modified == 0) from "modified".
//
// # Embeddings
//
// Embeddings are written independently of the text fields. No
// transaction spans both, so a reader may see an embedding computed
// from older text; core.IsEmbeddingStale detects that case.
//
// # Serialization
//
// Values are BSON documents (go.mongodb.org/mongo-driver/bson). Times
// are therefore stored with millisecond precision.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
