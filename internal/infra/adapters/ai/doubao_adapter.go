package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"ai-assistant-backend/internal/domain/ports/adapter"
)

const DefaultDoubaoBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// Compile-time assurance this adapter satisfies the port
var _ adapter.ChatAdapter = (*DoubaoAdapter)(nil)

// DoubaoAdapter calls Volcengine Ark, which speaks the OpenAI Chat Completions API.
type DoubaoAdapter struct {
	client openai.Client
	model  string
}

func NewDoubaoAdapter(apiKey, model, baseURL string) (*DoubaoAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("doubao: empty api key")
	}
	if model == "" {
		return nil, errors.New("doubao: empty model")
	}
	if baseURL == "" {
		baseURL = DefaultDoubaoBaseURL
	}
	c := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"),
	)
	return &DoubaoAdapter{client: c, model: model}, nil
}

func (d *DoubaoAdapter) Model() string { return d.model }

func (d *DoubaoAdapter) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return CountMessageTokens(messages), nil
}

func (d *DoubaoAdapter) ChatWithUsage(ctx context.Context, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	if len(messages) == 0 {
		return "", adapter.Usage{}, errors.New("doubao: no messages")
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(d.model),
		Messages: toOpenAIMessages(messages),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	u := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, u, nil
		}
	}
	return "", u, errors.New("doubao: no choice content")
}

func toOpenAIMessages(msgs []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
