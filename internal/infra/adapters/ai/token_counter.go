package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"ai-assistant-backend/internal/domain/ports/adapter"
)

// Per-message overhead used by OpenAI-style chat formats.
const tokensPerMessage = 4

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, encErr
}

// CountMessageTokens estimates prompt tokens with the cl100k_base encoding.
// Doubao does not publish its tokenizer, so this is an approximation used for
// the budget pre-check only. Falls back to a bytes/4 estimate when the
// encoding cannot be loaded.
func CountMessageTokens(messages []adapter.Message) int {
	e, err := encoding()
	n := 3 // reply priming
	for _, m := range messages {
		n += tokensPerMessage
		if err != nil {
			n += (len(m.Role) + len(m.Content) + 3) / 4
			continue
		}
		n += len(e.Encode(m.Role, nil, nil)) + len(e.Encode(m.Content, nil, nil))
	}
	return n
}
