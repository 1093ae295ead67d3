package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/idrak/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMarshalNote(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	note := &core.Note{
		Id:         core.NewID(),
		Owner:      "alice",
		CreatedAt:  now,
		UpdatedAt:  now,
		Title:      "Groceries",
		Transcript: "buy milk and eggs",
		Summary:    "Shopping list.",
		IsTimeline: true,
		Tags:       []string{"Personal"},
		Tasks:      []core.Task{{Text: "buy milk", Completed: true}},
		Embedding:  &core.Embedding{Vector: []float32{0.5}},
		Audio:      "UklGRg==",
	}

	data, err := MarshalNote(note)
	require.NoError(t, err)
	require.NotNil(t, note.Embedding, "marshaling must not mutate the input")

	decoded, err := UnmarshalNote(data)
	require.NoError(t, err)

	assert.Nil(t, decoded.Embedding, "embedding is stored separately")
	assert.Equal(t, note.Id, decoded.Id)
	assert.Equal(t, note.Tasks, decoded.Tasks)
	assert.Equal(t, note.Audio, decoded.Audio)
	assert.True(t, note.CreatedAt.Equal(decoded.CreatedAt))
}

func TestUnmarshalNote_EmptySlices(t *testing.T) {
	data, err := MarshalNote(&core.Note{Id: core.NewID(), Owner: "bob"})
	require.NoError(t, err)

	decoded, err := UnmarshalNote(data)
	require.NoError(t, err)
	assert.NotNil(t, decoded.Tags)
	assert.NotNil(t, decoded.Tasks)
	assert.Empty(t, decoded.Tags)
	assert.Empty(t, decoded.Tasks)
}

func TestUnmarshalNote_LegacyTaskShapes(t *testing.T) {
	tests := []struct {
		name  string
		tasks bson.A
		want  []core.Task
	}{
		{
			name:  "bare label",
			tasks: bson.A{"buy milk"},
			want:  []core.Task{{Text: "buy milk"}},
		},
		{
			name:  "legacy task key keeps completed",
			tasks: bson.A{bson.M{"task": "call mom", "completed": true}},
			want:  []core.Task{{Text: "call mom", Completed: true}},
		},
		{
			name: "mixed shapes in order",
			tasks: bson.A{
				bson.M{"text": "file taxes"},
				"  water plants ",
				bson.M{"task": "pay rent", "completed": true},
			},
			want: []core.Task{{Text: "file taxes"}, {Text: "water plants"}, {Text: "pay rent", Completed: true}},
		},
		{
			name:  "blank and null entries dropped",
			tasks: bson.A{"", "   ", nil, bson.M{"text": " "}, "keep"},
			want:  []core.Task{{Text: "keep"}},
		},
		{
			name:  "non-boolean completed leaves the task open",
			tasks: bson.A{bson.M{"text": "x", "completed": "yes"}},
			want:  []core.Task{{Text: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(bson.M{"_id": "n1", "owner": "alice", "tasks": tt.tasks})
			require.NoError(t, err)

			decoded, err := UnmarshalNote(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded.Tasks)
		})
	}
}

func TestMarshalEmbedding_PreservesFloat32(t *testing.T) {
	embedding := &core.Embedding{
		Vector:      []float32{0.1, -0.333333, 1e-7, 0.987654321},
		ContentHash: core.ContentHash("x"),
		Model:       "text-embedding-3-small",
		UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	data, err := MarshalEmbedding(embedding)
	require.NoError(t, err)

	decoded, err := UnmarshalEmbedding(data)
	require.NoError(t, err)
	assert.Equal(t, embedding.Vector, decoded.Vector)
	assert.Equal(t, embedding.ContentHash, decoded.ContentHash)
}

func TestUnmarshal_Invalid(t *testing.T) {
	garbage := []byte{0x01, 0x02, 0x03}

	_, err := UnmarshalNote(garbage)
	assert.True(t, errors.Is(err, ErrSerializationFailed))

	_, err = UnmarshalEmbedding(garbage)
	assert.True(t, errors.Is(err, ErrSerializationFailed))

	_, err = UnmarshalID(nil)
	assert.True(t, errors.Is(err, ErrSerializationFailed))
}

func TestErrNotFoundIsCoreNotFound(t *testing.T) {
	assert.True(t, errors.Is(ErrNotFound, core.ErrNotFound))
	assert.Equal(t, core.KindNotFound, core.KindOf(ErrNotFound))
}

func TestNoteUpdateApply(t *testing.T) {
	str := func(s string) *string { return &s }

	base := func() *core.Note {
		return &core.Note{
			Title:   "Old",
			Summary: "Same",
			Tags:    []string{"a"},
			Tasks:   []core.Task{{Text: "x"}},
		}
	}

	tests := []struct {
		name        string
		update      NoteUpdate
		wantChanged bool
		check       func(t *testing.T, n *core.Note)
	}{
		{
			name:        "empty update",
			update:      NoteUpdate{},
			wantChanged: false,
		},
		{
			name:        "identical values",
			update:      NoteUpdate{Title: str("Old"), Summary: str("Same"), Tags: &[]string{"a"}},
			wantChanged: false,
		},
		{
			name:        "new title",
			update:      NoteUpdate{Title: str("New")},
			wantChanged: true,
			check: func(t *testing.T, n *core.Note) {
				assert.Equal(t, "New", n.Title)
				assert.Equal(t, "Same", n.Summary)
			},
		},
		{
			name:        "task toggled",
			update:      NoteUpdate{Tasks: &[]core.Task{{Text: "x", Completed: true}}},
			wantChanged: true,
			check: func(t *testing.T, n *core.Note) {
				assert.True(t, n.Tasks[0].Completed)
			},
		},
		{
			name:        "tags cleared",
			update:      NoteUpdate{Tags: &[]string{}},
			wantChanged: true,
			check: func(t *testing.T, n *core.Note) {
				assert.NotNil(t, n.Tags)
				assert.Empty(t, n.Tags)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := base()
			assert.Equal(t, tt.wantChanged, tt.update.Apply(note))
			if tt.check != nil {
				tt.check(t, note)
			}
		})
	}

	assert.True(t, NoteUpdate{}.IsEmpty())
	assert.False(t, NoteUpdate{Title: str("x")}.IsEmpty())
}
