package search

import (
	"strings"

	"github.com/poiesic/idrak/core"
)

// QuerySpec selects where the query vector comes from. Exactly one of
// Text and NoteID must be set.
type QuerySpec struct {
	// Text is embedded with the embedding service.
	Text string
	// NoteID reuses that note's stored embedding; the note itself is
	// excluded from the results.
	NoteID core.ID
}

// TextQuery builds a free text query.
func TextQuery(text string) QuerySpec {
	return QuerySpec{Text: text}
}

// NoteQuery builds a reference-note query.
func NoteQuery(id core.ID) QuerySpec {
	return QuerySpec{NoteID: id}
}

// Validate checks that exactly one variant is set.
func (q QuerySpec) Validate() error {
	hasText := strings.TrimSpace(q.Text) != ""
	hasNote := !q.NoteID.IsZero()
	switch {
	case hasText && hasNote:
		return ErrAmbiguousQuery
	case !hasText && !hasNote:
		return ErrEmptyQuery
	}
	return nil
}

// IsReference reports whether the query uses a stored note embedding.
func (q QuerySpec) IsReference() bool {
	return !q.NoteID.IsZero()
}

func (q QuerySpec) String() string {
	if q.IsReference() {
		return "note:" + q.NoteID.String()
	}
	return q.Text
}
