package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	const canonical = "0b5f4a3e-8c1d-4e2f-9a6b-7c8d9e0f1a2b"

	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"canonical", canonical, ID(canonical), false},
		{"upper case", strings.ToUpper(canonical), ID(canonical), false},
		{"padded", "  " + canonical + "\n", ID(canonical), false},
		{"braced", "{" + canonical + "}", ID(canonical), false},
		{"urn", "urn:uuid:" + canonical, ID(canonical), false},
		{"empty", "", "", true},
		{"whitespace", "   ", "", true},
		{"not a uuid", "507f1f77bcf86cd799439011", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEqual(t, a, b)

	parsed, err := ParseID(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed, "NewID must already be canonical")
	assert.False(t, a.IsZero())
	assert.True(t, ID("").IsZero())
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash("groceries\nbuy milk")
	h2 := ContentHash("groceries\nbuy milk")
	h3 := ContentHash("groceries\nbuy eggs")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestEmbeddingText(t *testing.T) {
	tests := []struct {
		name string
		note *Note
		want string
	}{
		{
			name: "title and summary",
			note: &Note{Title: "Groceries", Summary: "Buy milk.", Transcript: "uh buy milk"},
			want: "Groceries\nBuy milk.",
		},
		{
			name: "falls back to transcript",
			note: &Note{Title: "Groceries", Transcript: "uh buy milk"},
			want: "Groceries\nuh buy milk",
		},
		{
			name: "no title",
			note: &Note{Summary: "Buy milk."},
			want: "Buy milk.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbeddingText(tt.note))
		})
	}
}

func TestIsEmbeddingStale(t *testing.T) {
	note := &Note{Title: "Trip", Summary: "Pack bags."}
	assert.True(t, IsEmbeddingStale(note), "no embedding")

	note.Embedding = &Embedding{Vector: []float32{1}}
	assert.True(t, IsEmbeddingStale(note), "no content hash")

	note.Embedding.ContentHash = ContentHash(EmbeddingText(note))
	assert.False(t, IsEmbeddingStale(note))

	note.Summary = "Pack bags and passports."
	assert.True(t, IsEmbeddingStale(note), "summary edited after embedding")
}

func TestNoteRedacted(t *testing.T) {
	note := &Note{
		Id:        NewID(),
		Title:     "Voice memo",
		Tags:      []string{"work"},
		Tasks:     []Task{{Text: "call bob"}},
		Audio:     "UklGRg==",
		Embedding: &Embedding{Vector: []float32{0.1, 0.2}},
	}

	redacted := note.Redacted()
	assert.Empty(t, redacted.Audio)
	assert.Nil(t, redacted.Embedding)
	assert.Equal(t, note.Title, redacted.Title)

	// the original is untouched and does not share slices
	assert.Equal(t, "UklGRg==", note.Audio)
	redacted.Tags[0] = "home"
	assert.Equal(t, "work", note.Tags[0])

	var nilNote *Note
	assert.Nil(t, nilNote.Redacted())
}

func TestNoteHasTag(t *testing.T) {
	note := &Note{Tags: []string{"work", "ideas"}}
	assert.True(t, note.HasTag("ideas"))
	assert.False(t, note.HasTag("Ideas"))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"invalid", Invalid("bad %s", "input"), KindInvalidRequest},
		{"empty owner", ErrEmptyOwner, KindInvalidRequest},
		{"not found", NotFound("note %s", "x"), KindNotFound},
		{"format", ErrUpstreamFormat, KindUpstreamFormat},
		{"unclassified", errors.New("connection reset"), KindUpstreamFailure},
		{"wrapped upstream", Upstream(errors.New("boom")), KindUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUpstream(t *testing.T) {
	assert.NoError(t, Upstream(nil))

	cause := errors.New("dial tcp: refused")
	err := Upstream(cause)
	assert.True(t, errors.Is(err, ErrUpstreamFailure))
	assert.True(t, errors.Is(err, cause))

	notFound := NotFound("note")
	assert.Same(t, notFound, Upstream(notFound), "classified errors pass through")
}
