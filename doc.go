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


// Package idrak is semantic retrieval and context assembly for voice
// notes.
//
// A Service ties a note store to an AI provider and exposes the note
// operations: structured extraction from a transcript, saving and
// updating notes, embedding, similarity search, topic labels and
// question answering over an owner's notes.
//
//	svc, err := idrak.OpenBadger("./notes.db", idrak.WithAIConfig(cfg))
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	results, err := svc.Search(ctx, "alice", search.TextQuery("dentist"), search.DefaultK)
//
// Every error returned by a Service operation carries one of the kinds
// in package core; use core.KindOf to classify it.
package idrak
