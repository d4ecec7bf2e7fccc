package adapter

import (
	"context"

	"ai-assistant-backend/internal/domain/model"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatAdapter is the port for LLM chat. Implementations are bound to one
// credential (api key + model).
type ChatAdapter interface {
	// CountTokens returns prompt tokens for the provided messages
	// (best-effort when the provider does not expose a tokenizer).
	CountTokens(ctx context.Context, messages []Message) (int, error)

	// ChatWithUsage returns assistant text + usage as reported by the provider.
	ChatWithUsage(ctx context.Context, messages []Message, maxTokens int) (string, Usage, error)

	Model() string
}

// ChatAdapterFactory builds an adapter for a doubao or gemini credential.
type ChatAdapterFactory interface {
	ForCredential(ctx context.Context, cred *model.VendorCredential) (ChatAdapter, error)
}
