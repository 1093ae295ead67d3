package idrak

import (
	"time"

	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// NoteInput is a note as submitted by a client. Tasks may use either
// accepted shape; they are normalized before the note is stored.
type NoteInput struct {
	Id         core.ID
	Owner      string
	CreatedAt  time.Time
	Title      string
	Transcript string
	Summary    string
	IsTimeline bool
	Tags       []string
	Tasks      []core.RawTask
	Audio      string
}

// NoteFromExtraction builds the input for saving a transcript together
// with its extraction.
func NoteFromExtraction(owner, transcript string, ex *core.Extraction) NoteInput {
	in := NoteInput{
		Owner:      owner,
		Transcript: transcript,
	}
	if ex != nil {
		in.Title = ex.Title
		in.Summary = ex.Summary
		in.IsTimeline = ex.IsTimeline
		in.Tags = ex.Tags
		in.Tasks = core.RawTasks(ex.Tasks)
	}
	return in
}

func (in NoteInput) note() *core.Note {
	return &core.Note{
		Id:         in.Id,
		Owner:      in.Owner,
		CreatedAt:  in.CreatedAt,
		Title:      in.Title,
		Transcript: in.Transcript,
		Summary:    in.Summary,
		IsTimeline: in.IsTimeline,
		Tags:       core.NormalizeTags(in.Tags),
		Tasks:      core.NormalizeTasks(in.Tasks),
		Audio:      in.Audio,
	}
}

// NoteChanges lists the fields a client wants to overwrite. Nil fields
// are left alone.
type NoteChanges struct {
	Title      *string
	Transcript *string
	Summary    *string
	IsTimeline *bool
	Tags       *[]string
	Tasks      *[]core.RawTask
}

func (c NoteChanges) update() storage.NoteUpdate {
	update := storage.NoteUpdate{
		Title:      c.Title,
		Transcript: c.Transcript,
		Summary:    c.Summary,
		IsTimeline: c.IsTimeline,
	}
	if c.Tags != nil {
		tags := core.NormalizeTags(*c.Tags)
		update.Tags = &tags
	}
	if c.Tasks != nil {
		tasks := core.NormalizeTasks(*c.Tasks)
		update.Tasks = &tasks
	}
	return update
}
