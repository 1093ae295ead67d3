// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of notes sent in each embedding request
	BatchSize int

	// ReportInterval is how often to report progress (number of notes)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding request
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// PoolSize is the number of batches embedded concurrently
	PoolSize int

	// Force re-embeds every note, not just missing or stale ones
	Force bool

	// Normalize scales vectors to unit length before storing them
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		PoolSize:       defaultPoolSize(),
	}
}

func defaultPoolSize() int {
	return max(runtime.NumCPU()/2, 1)
}

// Result summarizes one run.
type Result struct {
	// Total is the number of notes the owner has.
	Total int
	// Selected is the number of notes that needed embedding.
	Selected int
	// Embedded is the number of stored embeddings that changed.
	Embedded int
	// Skipped is the number of notes with no text to embed.
	Skipped int
}

// Reembedder recomputes embeddings for one owner's notes.
type Reembedder struct {
	repo      storage.NoteRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *NoteIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.NoteRepository, provider ai.AIProvider, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if config.PoolSize <= 0 {
		config.PoolSize = defaultPoolSize()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, provider, config.MaxRetries, config.RetryDelay, config.Normalize),
		iterator:  NewNoteIterator(repo, config.BatchSize, config.Force),
		logger:    slog.Default().With("component", "reembedder"),
	}, nil
}

// Run embeds the owner's selected notes. Batches run concurrently on a
// worker pool; the first failure cancels the remaining batches and is
// returned along with the counts reached so far.
func (r *Reembedder) Run(ctx context.Context, owner string) (Result, error) {
	var result Result
	if err := core.ValidateOwner(owner); err != nil {
		return result, err
	}

	selection, err := r.iterator.Select(ctx, owner)
	if err != nil {
		return result, fmt.Errorf("failed to select notes: %w", core.Upstream(err))
	}
	selected := selection.Notes
	result.Total = selection.Total
	result.Selected = len(selected)
	result.Skipped = selection.Skipped

	if len(selected) == 0 {
		fmt.Fprintf(r.progress, "No notes need embedding (%d notes, %d without text)\n", result.Total, result.Skipped)
		return result, nil
	}

	fmt.Fprintf(r.progress, "Embedding %d of %d notes (batch size: %d, workers: %d)\n",
		len(selected), result.Total, r.iterator.batchSize, r.config.PoolSize)

	pool, err := ants.NewPool(r.config.PoolSize)
	if err != nil {
		return result, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	tracker := NewProgressTracker(r.progress, len(selected), r.config.ReportInterval)
	tracker.Start()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		embedded int
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	// Submission stops once a batch fails; the canceled context that
	// ForEach reports then is not the failure.
	submitErr := r.iterator.ForEach(runCtx, selected, func(batch []*core.Note) error {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if runCtx.Err() != nil {
				return
			}
			changed, err := r.processor.Process(runCtx, batch)
			mu.Lock()
			embedded += changed
			mu.Unlock()
			if err != nil {
				r.logger.Warn("batch failed", "owner", owner, "size", len(batch), "err", err)
				fail(err)
				return
			}
			tracker.Increment(len(batch))
		})
		if err != nil {
			wg.Done()
			return fmt.Errorf("failed to submit batch: %w", err)
		}
		return nil
	})
	if submitErr != nil && !errors.Is(submitErr, context.Canceled) {
		fail(submitErr)
	}
	wg.Wait()
	tracker.Finish()

	result.Embedded = embedded
	if firstErr != nil {
		return result, firstErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Embedded %d notes in %v (%.1f notes/sec)\n",
		len(selected), elapsed.Round(time.Millisecond), float64(len(selected))/max(elapsed.Seconds(), 1e-9))
	r.logger.Info("reembedding complete", "owner", owner, "selected", len(selected), "embedded", embedded)
	return result, nil
}
