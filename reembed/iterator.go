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


package reembed

import (
	"context"
	"strings"

	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// DefaultBatchSize is the default number of notes embedded per request.
const DefaultBatchSize = 100

// NoteIterator walks one owner's notes in batches.
type NoteIterator struct {
	repo      storage.NoteRepository
	batchSize int
	force     bool
}

// NewNoteIterator creates a new note iterator. Unless force is set only
// notes whose embedding is missing or stale are visited.
func NewNoteIterator(repo storage.NoteRepository, batchSize int, force bool) *NoteIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &NoteIterator{
		repo:      repo,
		batchSize: batchSize,
		force:     force,
	}
}

// Selection is one listing of an owner's notes split by what needs
// embedding. Total and Skipped come from the same listing as Notes.
type Selection struct {
	Notes   []*core.Note
	Total   int
	Skipped int
}

// Select lists the owner's notes once and keeps those that need
// embedding, most recently updated first. Notes without text to embed
// are counted in Skipped.
func (it *NoteIterator) Select(ctx context.Context, owner string) (Selection, error) {
	notes, err := it.repo.ListNotes(ctx, owner)
	if err != nil {
		return Selection{}, err
	}

	selection := Selection{
		Notes: make([]*core.Note, 0, len(notes)),
		Total: len(notes),
	}
	for _, note := range notes {
		if strings.TrimSpace(core.EmbeddingText(note)) == "" {
			selection.Skipped++
			continue
		}
		if it.force || core.IsEmbeddingStale(note) {
			selection.Notes = append(selection.Notes, note)
		}
	}
	return selection, nil
}

// Batches splits notes into slices of at most the configured batch size.
func (it *NoteIterator) Batches(notes []*core.Note) [][]*core.Note {
	var batches [][]*core.Note
	for i := 0; i < len(notes); i += it.batchSize {
		end := min(i+it.batchSize, len(notes))
		batches = append(batches, notes[i:end])
	}
	return batches
}

// ForEach calls fn for each batch of notes. Iteration stops on the
// first error from fn. Context cancellation is checked between batches.
func (it *NoteIterator) ForEach(ctx context.Context, notes []*core.Note, fn func([]*core.Note) error) error {
	for _, batch := range it.Batches(notes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}
