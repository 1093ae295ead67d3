package idrak

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/ai/mock"
	"github.com/poiesic/idrak/assistant"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/search"
	"github.com/poiesic/idrak/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "alice"

type fixture struct {
	svc      *Service
	provider *mock.MockProvider
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), mock.NewMockCompleter(""), mock.NewMockCompleter(""))
	svc, err := New(repo, provider, opts...)
	require.NoError(t, err)
	return &fixture{svc: svc, provider: provider}
}

func (f *fixture) save(t *testing.T, in NoteInput) *core.Note {
	t.Helper()
	if in.Owner == "" {
		in.Owner = owner
	}
	if in.Transcript == "" {
		in.Transcript = "transcript of " + in.Title
	}
	note, err := f.svc.SaveNote(context.Background(), in)
	require.NoError(t, err)
	return note
}

func TestNew_Validation(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	_, err = New(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = New(repo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = New(repo, mock.NewMockProvider(), WithTopicMaxTokens(0))
	assert.Error(t, err)

	_, err = New(repo, mock.NewMockProvider(), WithPolicy(assistant.Policy{MaxHistoryTurns: -1}))
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestOpenBadger(t *testing.T) {
	t.Run("creates store and closes it", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes")
		svc, err := OpenBadger(path, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		assert.NotNil(t, svc.Repository())
		assert.NotNil(t, svc.Searcher())

		_, err = svc.SaveNote(context.Background(), NoteInput{Owner: owner, Transcript: "hello"})
		require.NoError(t, err)
		assert.NoError(t, svc.Close())
	})

	t.Run("default provider from config", func(t *testing.T) {
		svc, err := OpenBadger(t.TempDir(), WithAIConfig(ai.NewConfig(ai.WithAPIToken("test"))))
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-small", svc.Provider().EmbeddingModel())
		assert.NoError(t, svc.Close())
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		svc, err := OpenBadger(file, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("invalid AI config", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithEmbeddingModel(""))
		svc, err := OpenBadger(t.TempDir(), WithAIConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
}

func TestService_SaveNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note := f.save(t, NoteInput{
		Title: "Errands",
		Tags:  []string{" Personal ", "Personal", ""},
		Tasks: []core.RawTask{
			core.TaskLabel(" buy milk "),
			core.TaskRecord(core.Task{Text: "call mom", Completed: true}),
			core.TaskLabel("  "),
		},
		Audio: "UklGRg==",
	})

	assert.False(t, note.Id.IsZero())
	assert.Equal(t, []string{"Personal"}, note.Tags)
	assert.Equal(t, []core.Task{{Text: "buy milk"}, {Text: "call mom", Completed: true}}, note.Tasks)

	got, err := f.svc.GetNote(ctx, owner, note.Id)
	require.NoError(t, err)
	assert.Equal(t, note.Tasks, got.Tasks)
	assert.Equal(t, "UklGRg==", got.Audio, "details keep the audio payload")

	tests := []struct {
		name  string
		input NoteInput
	}{
		{name: "missing owner", input: NoteInput{Transcript: "x"}},
		{name: "missing transcript", input: NoteInput{Owner: owner, Transcript: "  "}},
		{name: "duplicate id", input: NoteInput{Id: note.Id, Owner: owner, Transcript: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SaveNote(ctx, tt.input)
			assert.Equal(t, core.KindInvalidRequest, core.KindOf(err))
		})
	}
}

func TestService_SaveExtraction(t *testing.T) {
	f := newFixture(t)
	f.provider.GetMockCompleter().Response = `{"title": "Dentist", "summary": "Book a cleaning.",
		"is_timeline": false, "tasks": ["book appointment"], "tags": ["Health"]}`

	ctx := context.Background()
	transcript := "I need to book a dentist appointment"
	ex, err := f.svc.Extract(ctx, transcript)
	require.NoError(t, err)

	note, err := f.svc.SaveNote(ctx, NoteFromExtraction(owner, transcript, ex))
	require.NoError(t, err)
	assert.Equal(t, "Dentist", note.Title)
	assert.Equal(t, transcript, note.Transcript)
	assert.Equal(t, []core.Task{{Text: "book appointment"}}, note.Tasks)
	assert.Equal(t, []string{"Health"}, note.Tags)
}

func TestService_UpdateNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	note := f.save(t, NoteInput{Title: "Old", Summary: "Same"})

	title := "New"
	same := "Same"
	blank := " "
	tasks := []core.RawTask{core.TaskLabel("first"), core.TaskLabel("")}

	t.Run("modified", func(t *testing.T) {
		result, err := f.svc.UpdateNote(ctx, owner, note.Id, NoteChanges{Title: &title, Tasks: &tasks})
		require.NoError(t, err)
		assert.True(t, result.Found())
		assert.True(t, result.Changed())

		got, err := f.svc.GetNote(ctx, owner, note.Id)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, []core.Task{{Text: "first"}}, got.Tasks)
	})

	t.Run("unchanged", func(t *testing.T) {
		result, err := f.svc.UpdateNote(ctx, owner, note.Id, NoteChanges{Summary: &same})
		require.NoError(t, err)
		assert.True(t, result.Found())
		assert.False(t, result.Changed())
	})

	t.Run("foreign owner", func(t *testing.T) {
		result, err := f.svc.UpdateNote(ctx, "bob", note.Id, NoteChanges{Title: &title})
		assert.Equal(t, core.KindNotFound, core.KindOf(err))
		assert.False(t, result.Found())
	})

	t.Run("blank transcript", func(t *testing.T) {
		_, err := f.svc.UpdateNote(ctx, owner, note.Id, NoteChanges{Transcript: &blank})
		assert.ErrorIs(t, err, core.ErrEmptyTranscript)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := f.svc.UpdateNote(ctx, owner, "", NoteChanges{Title: &title})
		assert.ErrorIs(t, err, core.ErrEmptyID)
	})
}

func TestService_SetTaskCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	note := f.save(t, NoteInput{Title: "Chores", Tasks: []core.RawTask{
		core.TaskLabel("dishes"),
		core.TaskLabel("laundry"),
	}})

	result, err := f.svc.SetTaskCompleted(ctx, owner, note.Id, 1, true)
	require.NoError(t, err)
	assert.True(t, result.Changed())

	got, err := f.svc.GetNote(ctx, owner, note.Id)
	require.NoError(t, err)
	assert.Equal(t, []core.Task{{Text: "dishes"}, {Text: "laundry", Completed: true}}, got.Tasks)

	result, err = f.svc.SetTaskCompleted(ctx, owner, note.Id, 1, true)
	require.NoError(t, err)
	assert.False(t, result.Changed())

	_, err = f.svc.SetTaskCompleted(ctx, owner, note.Id, 2, true)
	assert.Equal(t, core.KindInvalidRequest, core.KindOf(err))

	_, err = f.svc.SetTaskCompleted(ctx, owner, core.NewID(), 0, true)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestService_NotesByTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	f.save(t, NoteInput{Title: "a", Tags: []string{"Work"}, Audio: "AAAA", CreatedAt: base})
	f.save(t, NoteInput{Title: "b", Tags: []string{"Personal"}, CreatedAt: base.Add(time.Minute)})
	f.save(t, NoteInput{Title: "c", Tags: []string{"Work", "Personal"}, CreatedAt: base.Add(2 * time.Minute)})
	f.save(t, NoteInput{Owner: "bob", Title: "d", Tags: []string{"Work"}})

	notes, err := f.svc.NotesByTag(ctx, owner, "Work")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "c", notes[0].Title, "most recent first")
	assert.Equal(t, "a", notes[1].Title)
	assert.Empty(t, notes[1].Audio)

	_, err = f.svc.NotesByTag(ctx, owner, " ")
	assert.Equal(t, core.KindInvalidRequest, core.KindOf(err))
}

func TestService_SearchAndRelated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dentist := f.save(t, NoteInput{Title: "Dentist", Summary: "Teeth cleaning"})
	groceries := f.save(t, NoteInput{Title: "Groceries", Summary: "Milk and eggs"})
	f.save(t, NoteInput{Title: "Unembedded", Summary: "never embedded"})

	for _, n := range []*core.Note{dentist, groceries} {
		emb, err := f.svc.EmbedNote(ctx, owner, n.Id)
		require.NoError(t, err)
		assert.Equal(t, core.ContentHash(core.EmbeddingText(n)), emb.ContentHash)
	}

	results, err := f.svc.Search(ctx, owner, search.TextQuery(core.EmbeddingText(dentist)), search.DefaultK)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, dentist.Id, results[0].Note.Id, "identical text ranks first")
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	related, err := f.svc.Related(ctx, owner, dentist.Id, search.DefaultK)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, groceries.Id, related[0].Note.Id, "the reference note is excluded")

	vector, err := f.svc.EmbedText(ctx, owner, "free text", "")
	require.NoError(t, err)
	assert.Len(t, vector, mock.DefaultDimensions)
}

func TestService_SynthesizeTopic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.save(t, NoteInput{Title: "Run", Summary: "5k in the park"})
	b := f.save(t, NoteInput{Title: "Gym", Summary: "Leg day"})

	f.provider.GetMockTopicCompleter().Response = `Common Topic: "Fitness".`
	label, err := f.svc.SynthesizeTopic(ctx, owner, []core.ID{a.Id, b.Id})
	require.NoError(t, err)
	assert.Equal(t, "Fitness", label)
	assert.Zero(t, f.provider.GetMockCompleter().CallCount(), "topics use their own completer")
}

func TestService_Ask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.save(t, NoteInput{Title: "Dentist", Summary: "Appointment on Friday"})
	f.provider.GetMockCompleter().Response = "  On Friday.  "

	corpus, err := f.svc.BuildCorpusContext(ctx, owner)
	require.NoError(t, err)
	assert.Contains(t, corpus, "Title: Dentist")

	answer, history, err := f.svc.Ask(ctx, owner, nil, "When is the dentist?")
	require.NoError(t, err)
	assert.Equal(t, "On Friday.", answer)
	require.Len(t, history, 2)
	assert.Equal(t, ai.RoleUser, history[0].Role)
	assert.Equal(t, ai.RoleAssistant, history[1].Role)

	call, ok := f.provider.GetMockCompleter().LastCall()
	require.True(t, ok)
	assert.Contains(t, call.Messages[len(call.Messages)-1].Content, "Title: Dentist")
}
