// Package assistant answers questions about a user's notes.
//
// The corpus context is every note of the owner, most recently updated
// first, rendered as a title plus the summary (or transcript) and
// separated by CorpusDelimiter. The prompt is the system instruction,
// then the conversation history in arrival order, then one user message
// carrying the corpus and the question. Corpus and history are only
// bounded when a Policy asks for it.
package assistant
