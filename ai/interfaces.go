package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The vector length is fixed by the configured model.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer maps an ordered message sequence to a single text completion.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends messages to the model and returns the text of the
	// first choice. With WithJSONResponse the model is constrained to a
	// single JSON object, but callers must still validate the output.
	// Failures are returned as-is; implementations do not retry.
	Complete(ctx context.Context, messages []Message, opts ...CompletionOption) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the chat completion service used for extraction
	// and question answering.
	Completer() Completer

	// TopicCompleter returns the completion service used for topic
	// labels. It may be the same instance as Completer.
	TopicCompleter() Completer

	// EmbeddingModel names the model behind Embedder, recorded with
	// stored vectors.
	EmbeddingModel() string

	// Close releases resources held by the provider and its services.
	Close() error
}
