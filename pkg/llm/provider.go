package llm

import "context"

// Role represents the role of the message sender (system, user, assistant).
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a prompt exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request bundles per-call generation settings. The pipeline uses different
// temperatures for its prompt shapes (summarization and judging run cold,
// synthesis runs warm), so these travel with the call rather than the provider.
type Request struct {
	Temperature float64
	MaxTokens   int
}

// Option configures a single Chat call.
type Option func(*Request)

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float64) Option {
	return func(r *Request) {
		r.Temperature = t
	}
}

// WithMaxTokens caps the response length for one call.
func WithMaxTokens(n int) Option {
	return func(r *Request) {
		r.MaxTokens = n
	}
}

// Provider defines the interface for a language-model provider. Calls are
// synchronous round-trips with no internal timeout or retry; callers wrap
// invocations with their own policy via ctx.
type Provider interface {
	// Chat sends a list of messages to the model and returns the response.
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Message, error)
}

// System is a convenience constructor for a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User is a convenience constructor for a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
