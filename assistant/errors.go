package assistant

import "errors"

var (
	// ErrRepositoryRequired is returned when a note repository is not provided.
	ErrRepositoryRequired = errors.New("note repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
