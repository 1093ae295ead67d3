package assistant

import (
	"fmt"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/core"
)

// History is a conversation in arrival order. It holds only user and
// assistant turns.
type History []ai.Message

// AppendTurn returns a new history with the turn added at the end.
// The input is never modified, reordered or deduplicated.
func AppendTurn(history History, role ai.Role, content string) (History, error) {
	if !role.IsConversational() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRole, role)
	}
	out := make(History, len(history), len(history)+1)
	copy(out, history)
	return append(out, ai.Message{Role: role, Content: content}), nil
}

// Validate checks that every turn has a conversational role.
func (h History) Validate() error {
	for i, turn := range h {
		if !turn.Role.IsConversational() {
			return fmt.Errorf("%w: turn %d has role %q", core.ErrInvalidRole, i, turn.Role)
		}
	}
	return nil
}
