package ai

import (
	"context"

	"ai-assistant-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ChatAdapter = (*limitedAI)(nil)

// limitedAI caps concurrent provider calls. Waiting respects ctx.
type limitedAI struct {
	inner adapter.ChatAdapter
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.ChatAdapter, sem chan struct{}) adapter.ChatAdapter {
	if sem == nil {
		return inner
	}
	return &limitedAI{inner: inner, sem: sem}
}

func (l *limitedAI) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedAI) Model() string { return l.inner.Model() }

func (l *limitedAI) ChatWithUsage(ctx context.Context, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	if err := l.acquire(ctx); err != nil {
		return "", adapter.Usage{}, err
	}
	defer func() { <-l.sem }()
	return l.inner.ChatWithUsage(ctx, messages, maxTokens)
}

func (l *limitedAI) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return l.inner.CountTokens(ctx, messages)
}
