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


package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
)

// Assistant answers questions grounded in the owner's notes.
type Assistant struct {
	assembler *Assembler
	completer ai.Completer
	policy    Policy
	logger    *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "assistant")
		return nil
	}
}

// WithPolicy bounds history and corpus size.
func WithPolicy(policy Policy) Option {
	return func(a *Assistant) error {
		if policy.MaxHistoryTurns < 0 || policy.MaxCorpusChars < 0 {
			return core.Invalid("policy limits cannot be negative")
		}
		a.policy = policy
		return nil
	}
}

// NewAssistant creates a new Assistant.
func NewAssistant(repository storage.NoteRepository, provider ai.AIProvider, opts ...Option) (*Assistant, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	a := &Assistant{
		completer: provider.Completer(),
		logger:    slog.Default().With("component", "assistant"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	assembler, err := NewAssembler(repository, WithCorpusPolicy(a.policy), WithAssemblerLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.assembler = assembler
	return a, nil
}

// Assembler returns the corpus assembler used by Ask.
func (a *Assistant) Assembler() *Assembler {
	return a.assembler
}

// Ask answers question using owner's notes and the prior conversation.
// The returned history is the input history plus the question and the
// answer; the input is not modified.
func (a *Assistant) Ask(ctx context.Context, owner string, history History, question string) (string, History, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, core.Invalid("question cannot be empty")
	}
	if err := history.Validate(); err != nil {
		return "", nil, err
	}

	corpus, err := a.assembler.BuildCorpusContext(ctx, owner)
	if err != nil {
		return "", nil, err
	}

	messages := ComposePrompt(corpus, a.policy.TrimHistory(history), question)
	a.logger.Debug("asking", "owner", owner, "messages", len(messages), "corpus_chars", len(corpus))

	answer, err := a.completer.Complete(ctx, messages)
	if err != nil {
		a.logger.Error("completion failed", "err", err)
		return "", nil, core.Upstream(err)
	}
	answer = strings.TrimSpace(answer)

	updated, err := AppendTurn(history, ai.RoleUser, question)
	if err != nil {
		return "", nil, err
	}
	updated, err = AppendTurn(updated, ai.RoleAssistant, answer)
	if err != nil {
		return "", nil, err
	}
	return answer, updated, nil
}
