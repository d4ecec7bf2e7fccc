// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-assistant-backend/internal/config"
	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
)

var _ adapter.ChatAdapterFactory = (*MultiAIAdapter)(nil)

// Constructor builds a provider adapter for one credential.
type Constructor func(ctx context.Context, cred *model.VendorCredential) (adapter.ChatAdapter, error)

// MultiAIAdapter routes a credential to the adapter of its vendor and caches
// the result until the credential changes.
type MultiAIAdapter struct {
	byVendor map[model.Vendor]Constructor
	sem      chan struct{}

	mu    sync.Mutex
	cache map[string]cachedAdapter
}

type cachedAdapter struct {
	updatedAt time.Time
	adapter   adapter.ChatAdapter
}

func NewMultiAIAdapter(byVendor map[model.Vendor]Constructor, maxConcurrent int) *MultiAIAdapter {
	var sem chan struct{}
	if maxConcurrent > 0 {
		sem = make(chan struct{}, maxConcurrent)
	}
	return &MultiAIAdapter{byVendor: byVendor, sem: sem, cache: map[string]cachedAdapter{}}
}

// DefaultConstructors wires doubao through the OpenAI-compatible client and
// gemini through the genai SDK.
func DefaultConstructors(cfg config.ChatConfig) map[model.Vendor]Constructor {
	return map[model.Vendor]Constructor{
		model.VendorDoubao: func(ctx context.Context, cred *model.VendorCredential) (adapter.ChatAdapter, error) {
			return NewDoubaoAdapter(cred.Secret, cred.Model, cfg.DoubaoBaseURL)
		},
		model.VendorGemini: func(ctx context.Context, cred *model.VendorCredential) (adapter.ChatAdapter, error) {
			return NewGeminiAdapter(ctx, cred.Secret, cfg.GeminiBaseURL, cred.Model)
		},
	}
}

func (m *MultiAIAdapter) ForCredential(ctx context.Context, cred *model.VendorCredential) (adapter.ChatAdapter, error) {
	m.mu.Lock()
	if c, ok := m.cache[cred.ID]; ok && c.updatedAt.Equal(cred.UpdatedAt) {
		m.mu.Unlock()
		return c.adapter, nil
	}
	m.mu.Unlock()

	build, ok := m.byVendor[cred.Vendor]
	if !ok {
		return nil, fmt.Errorf("%w: no chat adapter for vendor %q", domain.ErrInvalidArgument, cred.Vendor)
	}
	a, err := build(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("build %s adapter: %w", cred.Vendor, err)
	}
	a = NewLimitedAI(a, m.sem)

	m.mu.Lock()
	m.cache[cred.ID] = cachedAdapter{updatedAt: cred.UpdatedAt, adapter: a}
	m.mu.Unlock()
	return a, nil
}
