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


package mock

import "github.com/poiesic/idrak/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and completer instances.
type MockProvider struct {
	embedder  *MockEmbedder
	completer *MockCompleter
	topic     *MockCompleter
}

// NewMockProvider creates a new mock provider with default mock services.
// The completer answers with an empty string until configured.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockCompleter() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	completer := NewMockCompleter("")
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		completer: completer,
		topic:     completer,
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil topic completer reuses completer.
func NewMockProviderWithServices(embedder *MockEmbedder, completer, topic *MockCompleter) *MockProvider {
	if topic == nil {
		topic = completer
	}
	return &MockProvider{
		embedder:  embedder,
		completer: completer,
		topic:     topic,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Completer returns the mock completer.
func (p *MockProvider) Completer() ai.Completer {
	return p.completer
}

// TopicCompleter returns the mock topic completer.
func (p *MockProvider) TopicCompleter() ai.Completer {
	return p.topic
}

// EmbeddingModel returns a fixed model name.
func (p *MockProvider) EmbeddingModel() string {
	return "mock-embedding"
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockCompleter returns the underlying mock completer for test assertions.
func (p *MockProvider) GetMockCompleter() *MockCompleter {
	return p.completer
}

// GetMockTopicCompleter returns the mock used for topic labels.
func (p *MockProvider) GetMockTopicCompleter() *MockCompleter {
	return p.topic
}
