// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Completer,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Canned completion
//	completer := mock.NewMockCompleter(`{"title":"Groceries"}`)
//
//	// Custom behavior injection
//	completer.CompleteFunc = func(ctx context.Context, msgs []ai.Message, opts ai.CompletionOptions) (string, error) {
//	    return "", errors.New("rate limited")
//	}
//
//	// Inspect what was sent
//	call, _ := completer.LastCall()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockCompleter: Returns its Response field
//   - MockProvider: Aggregates a mock embedder and completer
//
// All mocks are safe for concurrent use.
package mock
