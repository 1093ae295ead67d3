package assistant

import "github.com/poiesic/idrak/ai"

// SystemPrompt is the fixed instruction opening every conversation.
const SystemPrompt = "You are an intelligent assistant named Idrak. Your purpose is to answer questions " +
	"about the user's notes. You have access to all their notes, including titles, " +
	"summaries, and full transcripts. When answering, consolidate information from " +
	"relevant notes to provide a comprehensive and helpful response. " +
	"If the question cannot be answered from the provided notes, state that. " +
	"Be concise but thorough. Maintain context of the previous conversation."

// QuestionMessage renders the final user turn. The corpus is injected
// here only, never replayed into earlier turns.
func QuestionMessage(corpus, question string) string {
	return "Here are my notes:\n\n" + corpus + "\n\nMy question: " + question
}

// ComposePrompt returns the system instruction, the history verbatim and
// the question message, in that order.
func ComposePrompt(corpus string, history History, question string) []ai.Message {
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: SystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: QuestionMessage(corpus, question)})
	return messages
}
