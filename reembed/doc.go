// Package reembed recomputes note embeddings in bulk, for instance after
// switching embedding models or after notes were edited.
//
// The job walks one owner's notes, selects those without an embedding
// or whose stored content hash no longer matches their text (or every
// note when forced), embeds them in batches on a worker pool with
// retries, and reports progress to a writer. It is a maintenance
// operation run from the CLI, never from a request path.
package reembed
