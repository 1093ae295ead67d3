package ai

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsConversational reports whether r may appear in a conversation
// history supplied by a caller.
func (r Role) IsConversational() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn of a prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions holds per-call settings for a Completer.
type CompletionOptions struct {
	// JSON constrains the model to emit one JSON object.
	JSON bool

	// MaxTokens caps the completion length. Zero leaves the model default.
	MaxTokens int

	// Temperature is passed through when set.
	Temperature *float64
}

// CompletionOption is a functional option for a single completion call.
type CompletionOption func(*CompletionOptions)

// WithJSONResponse requests structured (JSON object) output.
func WithJSONResponse() CompletionOption {
	return func(o *CompletionOptions) {
		o.JSON = true
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) CompletionOption {
	return func(o *CompletionOptions) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CompletionOption {
	return func(o *CompletionOptions) {
		o.Temperature = &t
	}
}

// ApplyCompletionOptions folds opts into a CompletionOptions value.
func ApplyCompletionOptions(opts ...CompletionOption) CompletionOptions {
	var o CompletionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
