package mock

import (
	"context"
	"sync"

	"github.com/poiesic/idrak/ai"
)

// Call records one Complete invocation.
type Call struct {
	Messages []ai.Message
	Options  ai.CompletionOptions
}

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns Response.
	CompleteFunc func(ctx context.Context, messages []ai.Message, opts ai.CompletionOptions) (string, error)

	// Response is the canned answer used when CompleteFunc is nil.
	Response string

	mu    sync.Mutex
	calls []Call
}

// NewMockCompleter creates a mock completer that answers with response.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter(response string) *MockCompleter {
	return &MockCompleter{Response: response}
}

// Complete records the call and returns the configured answer.
func (m *MockCompleter) Complete(ctx context.Context, messages []ai.Message, opts ...ai.CompletionOption) (string, error) {
	options := ai.ApplyCompletionOptions(opts...)

	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Messages: append([]ai.Message(nil), messages...),
		Options:  options,
	})
	fn := m.CompleteFunc
	response := m.Response
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, options)
	}
	return response, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent call, or false if there was none.
func (m *MockCompleter) LastCall() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and custom functions.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteFunc = nil
	m.Response = ""
}
