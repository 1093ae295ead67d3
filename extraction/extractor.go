// Package extraction turns a transcript into a title, summary, timeline
// flag, task list and tag list with one structured completion.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/core"
)

const (
	// DefaultTitle is used when the model omits the title.
	DefaultTitle = "Untitled Note"

	// DefaultSummary is used when the model omits the summary.
	DefaultSummary = "No summary generated."
)

// ErrAIProviderRequired is returned when an AI provider is not provided.
var ErrAIProviderRequired = errors.New("AI provider required")

// response mirrors the five keys the prompt asks for. Pointers tell a
// missing key from an empty one. Some models answer with "tasks"
// instead of "detected_tasks"; the prompt's key wins when both appear.
type response struct {
	Title         *string        `json:"title"`
	Summary       *string        `json:"summary"`
	IsTimeline    *bool          `json:"is_timeline"`
	DetectedTasks []core.RawTask `json:"detected_tasks"`
	Tasks         []core.RawTask `json:"tasks"`
	Tags          []string       `json:"tags"`
}

func (r *response) rawTasks() []core.RawTask {
	if r.DetectedTasks != nil {
		return r.DetectedTasks
	}
	return r.Tasks
}

// Extractor runs the extraction completion.
type Extractor struct {
	completer ai.Completer
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "extraction")
		return nil
	}
}

// NewExtractor creates an Extractor using the provider's main completer.
func NewExtractor(provider ai.AIProvider, opts ...Option) (*Extractor, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	e := &Extractor{
		completer: provider.Completer(),
		logger:    slog.Default().With("component", "extraction"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Extract asks the model for the structured document of transcript.
// A response that does not decode is an UpstreamFormatError and is not
// retried.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*core.Extraction, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, core.ErrEmptyTranscript
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: buildUserPrompt(transcript)},
	}

	raw, err := e.completer.Complete(ctx, messages, ai.WithJSONResponse())
	if err != nil {
		e.logger.Error("extraction completion failed", "err", err)
		return nil, core.Upstream(err)
	}

	extraction, err := Parse(raw)
	if err != nil {
		e.logger.Warn("could not parse extraction response", "response", raw, "err", err)
		return nil, err
	}

	e.logger.Debug("extracted note fields",
		"title", extraction.Title,
		"tasks", len(extraction.Tasks),
		"tags", len(extraction.Tags))
	return extraction, nil
}

// Parse decodes a model response into an Extraction, applying defaults
// for missing keys and normalizing tasks and tags.
func Parse(raw string) (*core.Extraction, error) {
	text := repairJSON(stripCodeFence(raw))
	if !strings.HasPrefix(text, "{") {
		return nil, fmt.Errorf("%w: response is not a JSON object", core.ErrUpstreamFormat)
	}

	var r response
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamFormat, err)
	}

	extraction := &core.Extraction{
		Title:   DefaultTitle,
		Summary: DefaultSummary,
		Tasks:   core.NormalizeTasks(r.rawTasks()),
		Tags:    core.NormalizeTags(r.Tags),
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) != "" {
		extraction.Title = strings.TrimSpace(*r.Title)
	}
	if r.Summary != nil && strings.TrimSpace(*r.Summary) != "" {
		extraction.Summary = strings.TrimSpace(*r.Summary)
	}
	if r.IsTimeline != nil {
		extraction.IsTimeline = *r.IsTimeline
	}
	return extraction, nil
}
