// Package llm defines the assistant provider port and its
// implementations.
package llm

import "context"

// Message is one turn of model context
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemPrompt opens every model context
const SystemPrompt = "You are a helpful assistant."

// Provider generates an assistant reply for a conversation context.
// StreamCompletion invokes onChunk for each content delta as it arrives
// and returns the concatenated full reply.
type Provider interface {
	StreamCompletion(ctx context.Context, messages []Message, onChunk func(content string) error) (string, error)
	Completion(ctx context.Context, messages []Message) (string, error)
	ModelName() string
}
