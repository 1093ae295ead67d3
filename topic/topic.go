// Package topic names the common theme of a group of notes.
package topic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

const (
	// Fallback is returned whenever the model produces no label.
	Fallback = "Miscellaneous"

	// DefaultMaxTokens caps the label length.
	DefaultMaxTokens = 20
)

var (
	// ErrRepositoryRequired is returned when a note repository is not provided.
	ErrRepositoryRequired = errors.New("note repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

const systemPrompt = "You are a concise AI assistant that identifies the single most prominent " +
	"common topic from given text, returning only the topic string."

const instructions = "You are an intelligent assistant. Analyze the following collection of note titles and summaries.\n" +
	"Your task is to identify the single most prominent common topic or theme that connects these notes.\n" +
	"If no strong common topic exists, state \"Miscellaneous\".\n" +
	"Return only the common topic as a concise string (e.g., \"Deep Learning\", \"Personal Productivity\", \"Meeting Recaps\").\n" +
	"\n"

// Input is the part of a note the synthesizer looks at.
type Input struct {
	Title   string
	Summary string
}

// FromNote extracts the synthesizer input of a note.
func FromNote(n *core.Note) Input {
	return Input{Title: n.Title, Summary: n.Summary}
}

// Synthesizer asks the topic model for a one-line label.
type Synthesizer struct {
	repository storage.NoteRepository
	completer  ai.Completer
	maxTokens  int
	logger     *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "topic")
		return nil
	}
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(s *Synthesizer) error {
		if n < 1 {
			return fmt.Errorf("max tokens must be at least 1, got %d", n)
		}
		s.maxTokens = n
		return nil
	}
}

// NewSynthesizer creates a Synthesizer that uses the provider's topic
// completer.
func NewSynthesizer(repository storage.NoteRepository, provider ai.AIProvider, opts ...Option) (*Synthesizer, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Synthesizer{
		repository: repository,
		completer:  provider.TopicCompleter(),
		maxTokens:  DefaultMaxTokens,
		logger:     slog.Default().With("component", "topic"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Synthesize returns the common topic of inputs, or Fallback when the
// model answers with nothing.
func (s *Synthesizer) Synthesize(ctx context.Context, inputs []Input) (string, error) {
	if len(inputs) == 0 {
		return "", core.Invalid("at least one note is required")
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: BuildPrompt(inputs)},
	}

	raw, err := s.completer.Complete(ctx, messages, ai.WithMaxTokens(s.maxTokens))
	if err != nil {
		s.logger.Error("topic completion failed", "notes", len(inputs), "err", err)
		return "", core.Upstream(err)
	}

	label := CleanLabel(raw)
	s.logger.Debug("synthesized topic", "notes", len(inputs), "topic", label)
	return label, nil
}

// SynthesizeNotes loads owner's notes by id and synthesizes their topic.
// Unknown ids are skipped; if none remain the result is NotFound.
func (s *Synthesizer) SynthesizeNotes(ctx context.Context, owner string, ids []core.ID) (string, error) {
	if len(ids) == 0 {
		return "", core.Invalid("no note ids provided")
	}
	if err := core.ValidateOwner(owner); err != nil {
		return "", err
	}

	notes, err := s.repository.GetNotes(ctx, owner, ids...)
	if err != nil {
		return "", core.Upstream(err)
	}
	if len(notes) == 0 {
		return "", core.NotFound("no valid notes found for the provided ids")
	}

	inputs := make([]Input, len(notes))
	for i, n := range notes {
		inputs[i] = FromNote(n)
	}
	return s.Synthesize(ctx, inputs)
}

// BuildPrompt renders the user prompt listing every input with its
// 1-based position.
func BuildPrompt(inputs []Input) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("Following are summaries of several notes:\n")
	for i, in := range inputs {
		title := in.Title
		if strings.TrimSpace(title) == "" {
			title = "Untitled"
		}
		summary := in.Summary
		if strings.TrimSpace(summary) == "" {
			summary = "No summary."
		}
		fmt.Fprintf(&b, "%d. Title: %s\n   Summary: %s\n", i+1, title, summary)
	}
	b.WriteString("\n\nCommon Topic:\n")
	return b.String()
}

const (
	labelLead  = " \t\r\n\"'`"
	labelTrail = labelLead + "."
)

// CleanLabel drops the "Common Topic:" echo, then leading whitespace
// and quotes, then trailing whitespace, quotes and periods in any mix.
// An empty result becomes Fallback.
func CleanLabel(raw string) string {
	label := strings.TrimPrefix(strings.TrimSpace(raw), "Common Topic:")
	label = strings.TrimRight(strings.TrimLeft(label, labelLead), labelTrail)
	if label == "" {
		return Fallback
	}
	return label
}
