package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// RawTask is a task as it arrives from a caller or from the extraction
// model: either a bare label or a structured {text, completed} record.
// The legacy record key "task" is accepted as an alias of "text".
type RawTask struct {
	Text       string
	Completed  bool
	Structured bool
}

// TaskLabel wraps a bare label.
func TaskLabel(text string) RawTask {
	return RawTask{Text: text}
}

// TaskRecord wraps an already structured task.
func TaskRecord(t Task) RawTask {
	return RawTask{Text: t.Text, Completed: t.Completed, Structured: true}
}

// UnmarshalJSON accepts a string, an object with a text (or task) key,
// or any other value, which is kept as its compact JSON text.
func (r *RawTask) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = RawTask{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.Text)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		raw, ok := fields["text"]
		if !ok {
			raw, ok = fields["task"]
		}
		var text string
		if ok && json.Unmarshal(raw, &text) == nil {
			r.Text = text
			r.Structured = true
			if c, ok := fields["completed"]; ok {
				// a non-boolean completed value leaves the task open
				_ = json.Unmarshal(c, &r.Completed)
			}
			return nil
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	r.Text = buf.String()
	return nil
}

// UnmarshalBSONValue is the stored counterpart of UnmarshalJSON: a
// string, a document with a text (or task) key, or any other value,
// which is kept as its printed form.
func (r *RawTask) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*r = RawTask{}
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		return nil
	case bson.TypeString:
		text, ok := raw.StringValueOK()
		if !ok {
			return errors.New("malformed task string")
		}
		r.Text = text
		return nil
	case bson.TypeEmbeddedDocument:
		doc, ok := raw.DocumentOK()
		if !ok {
			return errors.New("malformed task document")
		}
		text, ok := doc.Lookup("text").StringValueOK()
		if !ok {
			text, ok = doc.Lookup("task").StringValueOK()
		}
		if ok {
			r.Text = text
			r.Structured = true
			// a non-boolean completed value leaves the task open
			r.Completed, _ = doc.Lookup("completed").BooleanOK()
			return nil
		}
	}

	var v any
	if err := raw.Unmarshal(&v); err != nil {
		return err
	}
	r.Text = fmt.Sprint(v)
	return nil
}

// UnmarshalBSONValue decodes any stored task shape into the canonical
// form, so records written with a bare label or the legacy task key
// read back as tasks. Blank results are dropped by CleanTasks.
func (t *Task) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	var raw RawTask
	if err := raw.UnmarshalBSONValue(typ, data); err != nil {
		return err
	}
	*t = NormalizeTask(raw)
	return nil
}

// MarshalJSON writes structured tasks as records and labels as strings.
func (r RawTask) MarshalJSON() ([]byte, error) {
	if r.Structured {
		return json.Marshal(Task{Text: r.Text, Completed: r.Completed})
	}
	return json.Marshal(r.Text)
}

// NormalizeTask maps a raw task to the canonical shape. Structured
// records keep their completed flag; labels start open.
func NormalizeTask(r RawTask) Task {
	t := Task{Text: strings.TrimSpace(r.Text)}
	if r.Structured {
		t.Completed = r.Completed
	}
	return t
}

// NormalizeTasks normalizes every entry, dropping blank ones. The
// result is never nil, and normalizing it again yields the same tasks.
func NormalizeTasks(raw []RawTask) []Task {
	tasks := make([]Task, 0, len(raw))
	for _, r := range raw {
		t := NormalizeTask(r)
		if t.Text == "" {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// CleanTasks trims task text and drops blank entries, keeping the
// completed flags. The result is never nil.
func CleanTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// RawTasks lifts canonical tasks back into the union, for paths that
// re-submit stored tasks.
func RawTasks(tasks []Task) []RawTask {
	raw := make([]RawTask, len(tasks))
	for i, t := range tasks {
		raw[i] = TaskRecord(t)
	}
	return raw
}

// NormalizeTags trims tags and drops blanks and exact duplicates while
// preserving display order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
