package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/idrak/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// recordingModel captures the last request sent to it.
type recordingModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	response *llms.ContentResponse
	err      error
}

func (m *recordingModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	m.options = llms.CallOptions{}
	for _, opt := range options {
		opt(&m.options)
	}
	return m.response, m.err
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestCompleter_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first choice", func(t *testing.T) {
		completer := NewCompleterFromModel(fake.NewFakeLLM([]string{"Deep Learning"}), "fake")

		out, err := completer.Complete(ctx, []ai.Message{{Role: ai.RoleUser, Content: "topic?"}})
		require.NoError(t, err)
		assert.Equal(t, "Deep Learning", out)
	})

	t.Run("maps roles and options", func(t *testing.T) {
		model := &recordingModel{response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "{}"}},
		}}
		completer := NewCompleterFromModel(model, "recording")

		_, err := completer.Complete(ctx, []ai.Message{
			{Role: ai.RoleSystem, Content: "be precise"},
			{Role: ai.RoleUser, Content: "hi"},
			{Role: ai.RoleAssistant, Content: "hello"},
		}, ai.WithJSONResponse(), ai.WithMaxTokens(20))
		require.NoError(t, err)

		require.Len(t, model.messages, 3)
		assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
		assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
		assert.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
		assert.Equal(t, []llms.ContentPart{llms.TextContent{Text: "hi"}}, model.messages[1].Parts)
		assert.True(t, model.options.JSONMode)
		assert.Equal(t, 20, model.options.MaxTokens)
	})

	t.Run("unknown role", func(t *testing.T) {
		completer := NewCompleterFromModel(fake.NewFakeLLM([]string{"x"}), "fake")
		_, err := completer.Complete(ctx, []ai.Message{{Role: "tool", Content: "x"}})
		assert.Error(t, err)
	})

	t.Run("model error passes through", func(t *testing.T) {
		boom := errors.New("rate limited")
		completer := NewCompleterFromModel(&recordingModel{err: boom}, "recording")

		_, err := completer.Complete(ctx, []ai.Message{{Role: ai.RoleUser, Content: "x"}})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no choices", func(t *testing.T) {
		completer := NewCompleterFromModel(&recordingModel{response: &llms.ContentResponse{}}, "recording")

		_, err := completer.Complete(ctx, []ai.Message{{Role: ai.RoleUser, Content: "x"}})
		assert.ErrorIs(t, err, ErrNoChoices)
	})
}

func TestEmbedder(t *testing.T) {
	ctx := context.Background()
	var seen []string
	client := embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		seen = append(seen, texts...)
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i), 1}
		}
		return out, nil
	})

	embedder, err := newEmbedderWithClient(client)
	require.NoError(t, err)

	vec, err := embedder.EmbedText(ctx, "line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vec)
	assert.Equal(t, []string{"line one line two"}, seen, "newlines are stripped")

	vecs, err := embedder.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestNewProvider(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := ai.NewConfig(
			ai.WithHost("http://localhost:11434"),
			ai.WithCompletionModel("qwen2.5:7b"),
			ai.WithTopicModel("qwen2.5:3b"),
		)
		provider, err := NewProvider(cfg)
		require.NoError(t, err)
		defer provider.Close()

		assert.NotNil(t, provider.Embedder())
		assert.NotNil(t, provider.Completer())
		assert.NotSame(t, provider.Completer(), provider.TopicCompleter())
		assert.Equal(t, "text-embedding-3-small", provider.EmbeddingModel())
	})

	t.Run("shared completer for one model", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"), ai.WithTopicModel(""))
		provider, err := NewProvider(cfg)
		require.NoError(t, err)
		assert.Same(t, provider.Completer(), provider.TopicCompleter())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithEmbeddingModel(""))
		_, err := NewProvider(cfg)
		assert.Error(t, err)
	})
}
