package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/embedding"
)

// Searcher provides semantic search over a user's notes.
type Searcher struct {
	store  *embedding.Store
	logger *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "search")
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store *embedding.Store, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := &Searcher{
		store:  store,
		logger: slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search ranks owner's embedded notes against the query and returns up
// to k redacted notes.
func (s *Searcher) Search(ctx context.Context, owner string, query QuerySpec, k int) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, owner, query, k, nil)
}

// Related returns the k notes closest to the note with id noteID.
func (s *Searcher) Related(ctx context.Context, owner string, noteID core.ID, k int) ([]core.SearchResult, error) {
	return s.Search(ctx, owner, NoteQuery(noteID), k)
}

// SearchWithMonitor searches with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, owner string, query QuerySpec, k int, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []core.SearchResult{}, nil
	}

	monitor.Start(query)

	// 1. Resolve the query vector
	vector, err := s.queryVector(ctx, owner, query)
	if err != nil {
		return nil, err
	}
	monitor.AfterQueryVector(vector)

	// 2. Load candidates, without the reference note
	candidates, err := s.store.Candidates(ctx, owner, query.NoteID)
	if err != nil {
		return nil, err
	}
	monitor.AfterCandidateLoad(candidates)

	// 3. Vectors from a different model cannot be compared
	usable := make([]core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(vector) {
			s.logger.Warn("skipping candidate with mismatched dimensions",
				"id", c.Id, "want", len(vector), "got", len(c.Vector))
			monitor.SkippedCandidate(c.Id, "dimension mismatch")
			continue
		}
		usable = append(usable, c)
	}

	// 4. Rank
	results := Rank(vector, usable, k, query.NoteID)
	s.logger.Debug("search complete", "query", query.String(), "candidates", len(usable), "results", len(results))
	monitor.Finish(results)

	return results, nil
}

func (s *Searcher) queryVector(ctx context.Context, owner string, query QuerySpec) ([]float32, error) {
	if query.IsReference() {
		stored, err := s.store.Get(ctx, owner, query.NoteID)
		if err != nil {
			s.logger.Debug("reference note has no usable embedding", "id", query.NoteID, "err", err)
			return nil, err
		}
		return stored.Vector, nil
	}

	vector, err := s.store.EmbedText(ctx, owner, query.Text, "")
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	return vector, nil
}
