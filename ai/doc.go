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


// Package ai provides abstractions for the AI services used by Idrak.
//
// Two capabilities are consumed by the rest of the module:
//
//   - Embedder: maps text to a fixed-length vector
//   - Completer: maps an ordered message sequence to a text completion,
//     optionally constrained to a single JSON object and a token ceiling
//
// AIProvider aggregates them together with the completer used for short
// topic labels, which is often a cheaper model.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock
// constructors return concrete types so tests can inspect calls.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIToken(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	answer, err := provider.Completer().Complete(ctx, []ai.Message{
//	    {Role: ai.RoleUser, Content: "Say hi"},
//	}, ai.WithMaxTokens(20))
//
// Implementations never retry. Failures are returned to the caller,
// which decides how to classify them.
package ai
