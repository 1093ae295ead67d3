package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateNote checks a note before it is inserted.
func ValidateNote(note *Note) error {
	if note == nil {
		return Invalid("note is nil")
	}

	if strings.TrimSpace(note.Owner) == "" {
		return ErrEmptyOwner
	}

	if strings.TrimSpace(note.Transcript) == "" {
		return ErrEmptyTranscript
	}

	if !note.CreatedAt.IsZero() && !IsValidTimestamp(note.CreatedAt) {
		return Invalid("created_at cannot be in the future")
	}

	return nil
}

// ValidateOwner rejects blank owners.
func ValidateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return ErrEmptyOwner
	}
	return nil
}

// ValidateVector rejects empty embedding vectors.
func ValidateVector(vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: embedding vector cannot be empty", ErrInvalidRequest)
	}
	return nil
}

// IsValidTimestamp allows a little clock skew between hosts.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().Add(time.Minute))
}
