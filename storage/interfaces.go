package storage

import (
	"context"
	"slices"

	"github.com/poiesic/idrak/core"
)

// NoteRepository stores notes and their embeddings, scoped by owner.
// Every lookup takes the owner so one user can never observe another
// user's notes. Implementations must be thread-safe.
type NoteRepository interface {
	// AddNote inserts a note. A zero Id is replaced by a new one; zero
	// timestamps are set to now. Tags are stored as given, so callers
	// normalize first; blank tasks are dropped. Returns ErrDuplicateKey
	// if the id exists.
	AddNote(ctx context.Context, note *core.Note) (*core.Note, error)

	// GetNote retrieves a note with its embedding, if any.
	// Returns ErrNotFound if the note doesn't exist for owner.
	GetNote(ctx context.Context, owner string, id core.ID) (*core.Note, error)

	// GetNotes retrieves notes by id in the order given.
	// Missing ids are skipped without error.
	GetNotes(ctx context.Context, owner string, ids ...core.ID) ([]*core.Note, error)

	// ListNotes returns all of owner's notes, most recently updated first.
	ListNotes(ctx context.Context, owner string) ([]*core.Note, error)

	// ListNotesByTag returns owner's notes carrying tag exactly, most
	// recently updated first.
	ListNotesByTag(ctx context.Context, owner, tag string) ([]*core.Note, error)

	// ListEmbedded returns owner's notes that have an embedding, most
	// recently updated first, with Embedding populated.
	ListEmbedded(ctx context.Context, owner string) ([]*core.Note, error)

	// UpdateNote applies the non-nil fields of update. UpdatedAt moves
	// only when something changed. Matched is 0 when the note does not
	// exist for owner; Modified is 0 when every value was already set.
	UpdateNote(ctx context.Context, owner string, id core.ID, update NoteUpdate) (UpdateResult, error)

	// SetEmbedding replaces the note's embedding without touching its
	// text fields or UpdatedAt.
	SetEmbedding(ctx context.Context, owner string, id core.ID, embedding *core.Embedding) (UpdateResult, error)

	// Close releases resources held by the repository.
	Close() error
}

// UpdateResult reports how many records matched and how many changed,
// which separates "not found" from "found but unchanged".
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Found reports whether the target record existed.
func (r UpdateResult) Found() bool {
	return r.Matched > 0
}

// Changed reports whether the target record was modified.
func (r UpdateResult) Changed() bool {
	return r.Modified > 0
}

// NoteUpdate lists the fields to overwrite. Nil fields are left alone.
type NoteUpdate struct {
	Title      *string
	Transcript *string
	Summary    *string
	IsTimeline *bool
	Tags       *[]string
	Tasks      *[]core.Task
}

// IsEmpty reports whether the update sets nothing.
func (u NoteUpdate) IsEmpty() bool {
	return u.Title == nil && u.Transcript == nil && u.Summary == nil &&
		u.IsTimeline == nil && u.Tags == nil && u.Tasks == nil
}

// Apply writes the update into note and reports whether any value
// differs from what was there.
func (u NoteUpdate) Apply(note *core.Note) bool {
	changed := false
	if u.Title != nil && *u.Title != note.Title {
		note.Title = *u.Title
		changed = true
	}
	if u.Transcript != nil && *u.Transcript != note.Transcript {
		note.Transcript = *u.Transcript
		changed = true
	}
	if u.Summary != nil && *u.Summary != note.Summary {
		note.Summary = *u.Summary
		changed = true
	}
	if u.IsTimeline != nil && *u.IsTimeline != note.IsTimeline {
		note.IsTimeline = *u.IsTimeline
		changed = true
	}
	if u.Tags != nil && !slices.Equal(*u.Tags, note.Tags) {
		note.Tags = append([]string{}, *u.Tags...)
		changed = true
	}
	if u.Tasks != nil {
		if tasks := core.CleanTasks(*u.Tasks); !slices.Equal(tasks, note.Tasks) {
			note.Tasks = tasks
			changed = true
		}
	}
	return changed
}
