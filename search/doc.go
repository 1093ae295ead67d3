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


// Package search ranks a user's notes by vector similarity.
//
// Rank is the pure ranking step: dot product scores, descending, with
// ties kept in input order. Embeddings are expected to arrive already
// normalized by the embedding service, so the dot product approximates
// cosine similarity and the ranker never normalizes.
//
// The Searcher resolves a query vector from either free text or a
// reference note, loads the owner's candidates and ranks them.
package search
