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


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/idrak/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoChoices is returned when the model answers without any choice.
var ErrNoChoices = errors.New("model returned no choices")

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config, model string) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.Token()),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return newCompleterWithModel(client, model), nil
}

// newCompleterWithModel wraps an existing langchaingo model.
func newCompleterWithModel(client llms.Model, model string) *Completer {
	return &Completer{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "openai-completer", "model", model),
	}
}

// NewCompleter creates a completer for config.CompletionModel.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config, config.CompletionModel)
}

// NewCompleterFromModel wraps any langchaingo model, which lets callers
// plug in other langchaingo backends.
func NewCompleterFromModel(client llms.Model, model string) ai.Completer {
	return newCompleterWithModel(client, model)
}

// Complete sends the messages and returns the first choice's content.
// Errors from the model are returned unchanged; there is no retry.
func (c *Completer) Complete(ctx context.Context, messages []ai.Message, opts ...ai.CompletionOption) (string, error) {
	options := ai.ApplyCompletionOptions(opts...)

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role, err := chatMessageType(m.Role)
		if err != nil {
			return "", err
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	var callOpts []llms.CallOption
	if options.JSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	if options.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(options.MaxTokens))
	}
	if options.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*options.Temperature))
	}

	c.logger.Debug("requesting completion", "messages", len(messages), "json", options.JSON, "maxTokens", options.MaxTokens)

	response, err := c.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		c.logger.Warn("no choices returned from model")
		return "", ErrNoChoices
	}

	return response.Choices[0].Content, nil
}

func chatMessageType(role ai.Role) (llms.ChatMessageType, error) {
	switch role {
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem, nil
	case ai.RoleUser:
		return llms.ChatMessageTypeHuman, nil
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI, nil
	default:
		return "", fmt.Errorf("unsupported message role %q", role)
	}
}
