package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// NoteRepository implements storage.NoteRepository for BadgerDB.
//
// Each note occupies three kinds of keys: the note record, an entry in
// the owner's update-time index, and an optional embedding record.
type NoteRepository struct {
	backend *Backend
}

var _ storage.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(backend *Backend) (*NoteRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &NoteRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *NoteRepository) Close() error {
	return nil
}

// storedTime matches the precision the BSON codec keeps.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// AddNote inserts a note.
func (r *NoteRepository) AddNote(ctx context.Context, note *core.Note) (*core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidateOwner(note.Owner); err != nil {
		return nil, err
	}

	record := note.Clone()
	if record.Id.IsZero() {
		record.Id = core.NewID()
	}
	now := storedTime(time.Now())
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	record.CreatedAt = storedTime(record.CreatedAt)
	record.UpdatedAt = storedTime(record.UpdatedAt)
	if record.Tags == nil {
		record.Tags = []string{}
	}
	record.Tasks = core.CleanTasks(record.Tasks)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeNoteKey(record.Owner, record.Id)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := r.writeNote(tx, record); err != nil {
			return err
		}
		if err := tx.Set(makeNoteDateKey(record.Owner, record.UpdatedAt, record.Id), storage.MarshalID(record.Id)); err != nil {
			return err
		}
		if record.Embedding != nil {
			if err := r.writeEmbedding(tx, record.Owner, record.Id, record.Embedding); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetNote retrieves a single note by id.
func (r *NoteRepository) GetNote(ctx context.Context, owner string, id core.ID) (*core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result *core.Note
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readNote(tx, owner, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetNotes retrieves multiple notes by id.
func (r *NoteRepository) GetNotes(ctx context.Context, owner string, ids ...core.ID) ([]*core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]*core.Note, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			note, err := r.readNote(tx, owner, id)
			if err != nil {
				return err
			}
			if note != nil {
				result = append(result, note)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListNotes returns all of owner's notes, most recently updated first.
func (r *NoteRepository) ListNotes(ctx context.Context, owner string) ([]*core.Note, error) {
	return r.scanRecent(ctx, owner, func(*core.Note) bool { return true })
}

// ListNotesByTag returns owner's notes carrying tag.
func (r *NoteRepository) ListNotesByTag(ctx context.Context, owner, tag string) ([]*core.Note, error) {
	return r.scanRecent(ctx, owner, func(n *core.Note) bool { return n.HasTag(tag) })
}

// ListEmbedded returns owner's notes that have an embedding.
func (r *NoteRepository) ListEmbedded(ctx context.Context, owner string) ([]*core.Note, error) {
	return r.scanRecent(ctx, owner, func(n *core.Note) bool { return n.HasEmbedding() })
}

// UpdateNote applies update and moves the note in the time index when
// anything changed.
func (r *NoteRepository) UpdateNote(ctx context.Context, owner string, id core.ID, update storage.NoteUpdate) (storage.UpdateResult, error) {
	var result storage.UpdateResult
	if err := ctx.Err(); err != nil {
		return result, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		note, err := r.readRecord(tx, owner, id)
		if err != nil {
			return err
		}
		if note == nil {
			return nil
		}
		result.Matched = 1

		oldUpdatedAt := note.UpdatedAt
		if !update.Apply(note) {
			return nil
		}
		result.Modified = 1

		// Keep the index strictly ordered even if two updates land in
		// the same millisecond.
		note.UpdatedAt = storedTime(time.Now())
		if !note.UpdatedAt.After(oldUpdatedAt) {
			note.UpdatedAt = oldUpdatedAt.Add(time.Millisecond)
		}

		if err := tx.Delete(makeNoteDateKey(owner, oldUpdatedAt, id)); err != nil {
			return err
		}
		if err := tx.Set(makeNoteDateKey(owner, note.UpdatedAt, id), storage.MarshalID(id)); err != nil {
			return err
		}
		if err := r.writeNote(tx, note); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	return result, nil
}

// SetEmbedding replaces the note's embedding. A nil embedding removes it.
func (r *NoteRepository) SetEmbedding(ctx context.Context, owner string, id core.ID, embedding *core.Embedding) (storage.UpdateResult, error) {
	var result storage.UpdateResult
	if err := ctx.Err(); err != nil {
		return result, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		note, err := r.readRecord(tx, owner, id)
		if err != nil {
			return err
		}
		if note == nil {
			return nil
		}
		result.Matched = 1

		current, err := r.readEmbedding(tx, owner, id)
		if err != nil {
			return err
		}
		if embeddingsEqual(current, embedding) {
			return nil
		}
		result.Modified = 1

		if embedding == nil {
			if err := tx.Delete(makeEmbeddingKey(owner, id)); err != nil {
				return err
			}
		} else if err := r.writeEmbedding(tx, owner, id, embedding); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	return result, nil
}

// Helper methods

// scanRecent walks the owner's update-time index newest first and
// collects the notes accepted by keep.
func (r *NoteRepository) scanRecent(ctx context.Context, owner string, keep func(*core.Note) bool) ([]*core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := []*core.Note{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false

		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makeNoteDatePrefix(owner)
		startKey := makeNoteDateSeekKey(owner)

		for iter.Seek(startKey); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var noteID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				noteID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			note, err := r.readNote(tx, owner, noteID)
			if err != nil {
				return err
			}
			if note != nil && keep(note) {
				results = append(results, note)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// readNote reads a note record and attaches its embedding.
// Returns nil without error when the note doesn't exist.
func (r *NoteRepository) readNote(tx *badger.Txn, owner string, id core.ID) (*core.Note, error) {
	note, err := r.readRecord(tx, owner, id)
	if err != nil || note == nil {
		return nil, err
	}
	note.Embedding, err = r.readEmbedding(tx, owner, id)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// readRecord reads the note record alone.
func (r *NoteRepository) readRecord(tx *badger.Txn, owner string, id core.ID) (*core.Note, error) {
	item, err := tx.Get(makeNoteKey(owner, id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var note *core.Note
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		note, unmarshalErr = storage.UnmarshalNote(val)
		return unmarshalErr
	})
	return note, err
}

func (r *NoteRepository) readEmbedding(tx *badger.Txn, owner string, id core.ID) (*core.Embedding, error) {
	item, err := tx.Get(makeEmbeddingKey(owner, id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var embedding *core.Embedding
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		embedding, unmarshalErr = storage.UnmarshalEmbedding(val)
		return unmarshalErr
	})
	return embedding, err
}

func (r *NoteRepository) writeNote(tx *badger.Txn, note *core.Note) error {
	value, err := storage.MarshalNote(note)
	if err != nil {
		return err
	}
	return tx.Set(makeNoteKey(note.Owner, note.Id), value)
}

func (r *NoteRepository) writeEmbedding(tx *badger.Txn, owner string, id core.ID, embedding *core.Embedding) error {
	record := *embedding
	record.UpdatedAt = storedTime(record.UpdatedAt)
	value, err := storage.MarshalEmbedding(&record)
	if err != nil {
		return err
	}
	return tx.Set(makeEmbeddingKey(owner, id), value)
}

// embeddingsEqual compares two embeddings by content.
func embeddingsEqual(a, b *core.Embedding) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ContentHash == b.ContentHash &&
		a.Model == b.Model &&
		slices.Equal(a.Vector, b.Vector)
}
