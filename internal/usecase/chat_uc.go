package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/infra/logging"
	"ai-assistant-backend/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

type ChatUseCase interface {
	Complete(ctx context.Context, messages []adapter.Message) (*ChatReply, error)
}

type ChatReply struct {
	Content string        `json:"content"`
	Model   string        `json:"model"`
	Usage   adapter.Usage `json:"usage"`
}

type ChatOptions struct {
	SystemPrompt string
	MaxTokens    int
	// PromptTokenBudget rejects prompts above this size; zero disables the check.
	PromptTokenBudget int
}

type chatUC struct {
	creds repository.VendorCredentialRepository
	ai    adapter.ChatAdapterFactory
	opts  ChatOptions
	log   *zerolog.Logger
}

func NewChatUseCase(creds repository.VendorCredentialRepository, ai adapter.ChatAdapterFactory, opts ChatOptions, logger *zerolog.Logger) *chatUC {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &chatUC{creds: creds, ai: ai, opts: opts, log: logger}
}

// Complete forwards a conversation to a randomly chosen chat provider with the
// configured system prompt in front.
func (c *chatUC) Complete(ctx context.Context, messages []adapter.Message) (*ChatReply, error) {
	defer logging.TraceDuration(c.log, "ChatUC.Complete")()

	if len(messages) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	msgs := make([]adapter.Message, 0, len(messages)+1)
	if c.opts.SystemPrompt != "" {
		msgs = append(msgs, adapter.Message{Role: "system", Content: c.opts.SystemPrompt})
	}
	for _, m := range messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidArgument, m.Role)
		}
		msgs = append(msgs, adapter.Message{Role: role, Content: m.Content})
	}

	cred, err := c.creds.RandomEnabled(ctx, repository.NoTX, model.ChatVendors...)
	if err != nil {
		return nil, err
	}
	ai, err := c.ai.ForCredential(ctx, cred)
	if err != nil {
		return nil, err
	}
	provider := string(cred.Vendor)

	if c.opts.PromptTokenBudget > 0 {
		n, err := ai.CountTokens(ctx, msgs)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", provider).Msg("token count failed, skipping budget check")
		} else if n > c.opts.PromptTokenBudget {
			metrics.PrecheckBlocked(provider, ai.Model())
			return nil, fmt.Errorf("%w: %d > %d", domain.ErrPromptTooLong, n, c.opts.PromptTokenBudget)
		}
	}

	start := time.Now()
	content, usage, err := ai.ChatWithUsage(ctx, msgs, c.opts.MaxTokens)
	latency := int(time.Since(start).Milliseconds())
	metrics.ObserveChatUsage(provider, ai.Model(), usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, latency, err == nil)
	if err != nil {
		logging.With(ctx, c.log).Error().Err(err).Str("provider", provider).Str("model", ai.Model()).Msg("chat completion failed")
		return nil, err
	}
	return &ChatReply{Content: content, Model: ai.Model(), Usage: usage}, nil
}
