package assistant

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// CorpusDelimiter separates note blocks in the corpus context.
const CorpusDelimiter = "\n---\n"

// noteBlock renders one note as a corpus block.
func noteBlock(note *core.Note) string {
	var b strings.Builder
	title := note.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	b.WriteString("Title: " + title + "\n")
	switch {
	case note.Summary != "":
		b.WriteString("Summary: " + note.Summary + "\n")
	case note.Transcript != "":
		b.WriteString("Transcript: " + note.Transcript + "\n")
	}
	return b.String()
}

// sortedBlocks renders notes most recently updated first. Notes with
// equal UpdatedAt keep their input order.
func sortedBlocks(notes []*core.Note) []string {
	ordered := slices.DeleteFunc(slices.Clone(notes), func(n *core.Note) bool { return n == nil })
	slices.SortStableFunc(ordered, func(a, b *core.Note) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	blocks := make([]string, 0, len(ordered))
	for _, n := range ordered {
		blocks = append(blocks, noteBlock(n))
	}
	return blocks
}

// FormatCorpus renders notes as the corpus context. No notes yields "".
func FormatCorpus(notes []*core.Note) string {
	return strings.Join(sortedBlocks(notes), CorpusDelimiter)
}

// Assembler builds corpus contexts from the note store.
type Assembler struct {
	repository storage.NoteRepository
	policy     Policy
	logger     *slog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithCorpusPolicy bounds the corpus size. The zero Policy is unbounded.
func WithCorpusPolicy(policy Policy) AssemblerOption {
	return func(a *Assembler) {
		a.policy = policy
	}
}

// WithAssemblerLogger sets a custom logger.
func WithAssemblerLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "assembler")
	}
}

// NewAssembler creates a new Assembler.
func NewAssembler(repository storage.NoteRepository, opts ...AssemblerOption) (*Assembler, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	a := &Assembler{
		repository: repository,
		logger:     slog.Default().With("component", "assembler"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// BuildCorpusContext loads every note of owner and renders it. An owner
// without notes gets "" and no error.
func (a *Assembler) BuildCorpusContext(ctx context.Context, owner string) (string, error) {
	if err := core.ValidateOwner(owner); err != nil {
		return "", err
	}

	notes, err := a.repository.ListNotes(ctx, owner)
	if err != nil {
		a.logger.Error("error loading notes", "owner", owner, "err", err)
		return "", core.Upstream(err)
	}

	corpus := a.policy.FitCorpus(notes)
	a.logger.Debug("built corpus context", "owner", owner, "notes", len(notes), "chars", len(corpus))
	return corpus, nil
}
