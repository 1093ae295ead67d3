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


package storage

import (
	"fmt"

	"github.com/poiesic/idrak/core"
	"go.mongodb.org/mongo-driver/bson"
)

// Values are encoded as BSON documents, the same representation the
// mongo backend stores, so a note moves between backends unchanged.

// MarshalNote serializes a Note to bytes. The embedding is not part of
// the note record; use MarshalEmbedding for it.
func MarshalNote(note *core.Note) ([]byte, error) {
	record := *note
	record.Embedding = nil
	data, err := bson.Marshal(&record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalNote deserializes a Note. Nil slices come back empty and
// stored tasks in any legacy shape come back canonical.
func UnmarshalNote(data []byte) (*core.Note, error) {
	var note core.Note
	if err := bson.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	note.Tasks = core.CleanTasks(note.Tasks)
	return &note, nil
}

// MarshalEmbedding serializes an Embedding to bytes.
func MarshalEmbedding(embedding *core.Embedding) ([]byte, error) {
	data, err := bson.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalEmbedding deserializes an Embedding.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	var embedding core.Embedding
	if err := bson.Unmarshal(data, &embedding); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &embedding, nil
}

// MarshalID serializes an ID for index values.
func MarshalID(id core.ID) []byte {
	return []byte(id)
}

// UnmarshalID reads an ID written by MarshalID.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty id", ErrSerializationFailed)
	}
	return core.ID(data), nil
}
