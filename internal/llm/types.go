package llm

import "time"

const (
	// DefaultModel is the model requested when none is configured.
	DefaultModel = "llama3.2:3b"
	// DefaultSystemPrompt is sent ahead of every query.
	DefaultSystemPrompt = "Respond to these queries in plain text format. Be descriptive wherever it makes sense."
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the backend-neutral chat payload.
// Stream is always serialized because Ollama streams unless told otherwise.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponse holds the assistant reply of a non-streaming call.
type ChatResponse struct {
	Model   string
	Content string
	// Duration is the server-reported generation time when the backend provides it.
	Duration time.Duration
}

// Prompt builds chat requests from bare queries.
type Prompt struct {
	// Model is the model identifier sent with every request.
	Model string
	// System is prepended as a system message. Empty means no system message.
	System string
}

// DefaultPrompt returns the prompt used when nothing is configured.
func DefaultPrompt() Prompt {
	return Prompt{Model: DefaultModel, System: DefaultSystemPrompt}
}

// Request builds the chat request for a single query.
// The result depends only on the prompt and the query.
func (p Prompt) Request(query string) ChatRequest {
	messages := make([]Message, 0, 2)
	if p.System != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: p.System})
	}
	messages = append(messages, Message{Role: RoleUser, Content: query})

	return ChatRequest{
		Model:    p.Model,
		Messages: messages,
	}
}

// StreamRequest is Request with streaming enabled.
func (p Prompt) StreamRequest(query string) ChatRequest {
	req := p.Request(query)
	req.Stream = true
	return req
}
