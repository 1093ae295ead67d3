package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// BatchProcessor embeds a batch of notes and stores the vectors.
type BatchProcessor struct {
	repo           storage.NoteRepository
	embedder       ai.Embedder
	model          string
	maxRetries     int
	retryBaseDelay time.Duration
	normalize      bool
	now            func() time.Time
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per embedding request
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.NoteRepository, provider ai.AIProvider, maxRetries int, retryBaseDelay time.Duration, normalize bool) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       provider.Embedder(),
		model:          provider.EmbeddingModel(),
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		normalize:      normalize,
		now:            time.Now,
	}
}

// Process embeds the notes in one request and writes each vector with
// the content hash of the text it was computed from. It returns the
// number of embeddings that changed.
func (bp *BatchProcessor) Process(ctx context.Context, notes []*core.Note) (int, error) {
	if len(notes) == 0 {
		return 0, nil
	}

	texts := make([]string, len(notes))
	for i, note := range notes {
		texts[i] = core.EmbeddingText(note)
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, core.Upstream(err))
	}

	if len(vectors) != len(notes) {
		return 0, fmt.Errorf("%w: embedding count mismatch: expected %d, got %d",
			core.ErrUpstreamFormat, len(notes), len(vectors))
	}

	changed := 0
	for i, note := range notes {
		vector := vectors[i]
		if len(vector) == 0 {
			return changed, fmt.Errorf("%w: empty vector for note %s", core.ErrUpstreamFormat, note.Id)
		}
		if bp.normalize {
			vector = NormalizeVector(vector)
		}

		result, err := bp.repo.SetEmbedding(ctx, note.Owner, note.Id, &core.Embedding{
			Vector:      vector,
			ContentHash: core.ContentHash(texts[i]),
			Model:       bp.model,
			UpdatedAt:   bp.now(),
		})
		if err != nil {
			return changed, fmt.Errorf("failed to store embedding for note %s: %w", note.Id, err)
		}
		if result.Changed() {
			changed++
		}
	}
	return changed, nil
}
