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


// Package embedding reads and writes note embeddings on top of a
// storage.NoteRepository and produces new vectors through ai.Embedder.
package embedding

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// Store is the embedding view of the note store.
type Store struct {
	repository storage.NoteRepository
	embedder   ai.Embedder
	model      string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "embedding")
		return nil
	}
}

// NewStore creates a new embedding store.
func NewStore(repository storage.NoteRepository, provider ai.AIProvider, opts ...Option) (*Store, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Store{
		repository: repository,
		embedder:   provider.Embedder(),
		model:      provider.EmbeddingModel(),
		logger:     slog.Default().With("component", "embedding"),
		now:        time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Candidates returns owner's embedded notes, most recently updated
// first, skipping excludeID when it is set. Candidate notes are
// redacted.
func (s *Store) Candidates(ctx context.Context, owner string, excludeID core.ID) ([]core.Candidate, error) {
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}

	notes, err := s.repository.ListEmbedded(ctx, owner)
	if err != nil {
		s.logger.Error("error listing embedded notes", "owner", owner, "err", err)
		return nil, core.Upstream(err)
	}

	candidates := make([]core.Candidate, 0, len(notes))
	for _, note := range notes {
		if !note.HasEmbedding() || (!excludeID.IsZero() && note.Id == excludeID) {
			continue
		}
		candidates = append(candidates, core.Candidate{
			Id:     note.Id,
			Vector: note.Embedding.Vector,
			Note:   note.Redacted(),
		})
	}
	return candidates, nil
}

// SetEmbedding stores a caller-supplied vector. The source text is not
// known, so no content hash is recorded.
func (s *Store) SetEmbedding(ctx context.Context, owner string, id core.ID, vector []float32) error {
	return s.store(ctx, owner, id, &core.Embedding{
		Vector:    vector,
		UpdatedAt: s.now(),
	})
}

// Get returns the stored embedding of a note.
func (s *Store) Get(ctx context.Context, owner string, id core.ID) (*core.Embedding, error) {
	note, err := s.note(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if !note.HasEmbedding() {
		return nil, core.NotFound("note %s has no embedding", id)
	}
	return note.Embedding, nil
}

// Exists reports whether the note exists and carries an embedding.
func (s *Store) Exists(ctx context.Context, owner string, id core.ID) (bool, error) {
	_, err := s.Get(ctx, owner, id)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EmbedText embeds text. When id is set the vector is also stored on
// that note together with the hash of text.
func (s *Store) EmbedText(ctx context.Context, owner, text string, id core.ID) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.Invalid("text to embed cannot be empty")
	}
	if !id.IsZero() {
		if err := core.ValidateOwner(owner); err != nil {
			return nil, err
		}
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding", "err", err)
		return nil, core.Upstream(err)
	}
	if len(vector) == 0 {
		return nil, core.Upstream(errEmptyVector)
	}

	if !id.IsZero() {
		err := s.store(ctx, owner, id, &core.Embedding{
			Vector:      vector,
			ContentHash: core.ContentHash(text),
			Model:       s.model,
			UpdatedAt:   s.now(),
		})
		if err != nil {
			return nil, err
		}
	}
	return vector, nil
}

// EmbedNote embeds the note's current text and stores the result.
func (s *Store) EmbedNote(ctx context.Context, owner string, id core.ID) (*core.Embedding, error) {
	note, err := s.note(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	text := core.EmbeddingText(note)
	if text == "" {
		return nil, core.Invalid("note %s has no text to embed", id)
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding", "id", id, "err", err)
		return nil, core.Upstream(err)
	}
	if len(vector) == 0 {
		return nil, core.Upstream(errEmptyVector)
	}

	embedding := &core.Embedding{
		Vector:      vector,
		ContentHash: core.ContentHash(text),
		Model:       s.model,
		UpdatedAt:   s.now(),
	}
	if err := s.store(ctx, owner, id, embedding); err != nil {
		return nil, err
	}
	return embedding, nil
}

// IsStale reports whether note needs a new embedding.
func (s *Store) IsStale(note *core.Note) bool {
	return core.IsEmbeddingStale(note)
}

func (s *Store) note(ctx context.Context, owner string, id core.ID) (*core.Note, error) {
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}
	if id.IsZero() {
		return nil, core.ErrEmptyID
	}
	note, err := s.repository.GetNote(ctx, owner, id)
	if err != nil {
		return nil, core.Upstream(err)
	}
	return note, nil
}

func (s *Store) store(ctx context.Context, owner string, id core.ID, embedding *core.Embedding) error {
	if err := core.ValidateOwner(owner); err != nil {
		return err
	}
	if id.IsZero() {
		return core.ErrEmptyID
	}
	if err := core.ValidateVector(embedding.Vector); err != nil {
		return err
	}

	result, err := s.repository.SetEmbedding(ctx, owner, id, embedding)
	if err != nil {
		s.logger.Error("error storing embedding", "id", id, "err", err)
		return core.Upstream(err)
	}
	if !result.Found() {
		return core.NotFound("note %s", id)
	}
	s.logger.Debug("stored embedding", "id", id, "dimensions", len(embedding.Vector), "changed", result.Changed())
	return nil
}
