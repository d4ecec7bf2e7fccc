package usecase

import (
	"context"

	"ai-assistant-backend/internal/domain/model"
)

// PPTReconciler advances one unfinished slide job per call. It is driven by
// the background scheduler.
type PPTReconciler interface {
	Tick(ctx context.Context) error
}

// PPTWaiter blocks until a slide job completes or polling is abandoned.
type PPTWaiter interface {
	Wait(ctx context.Context, sessionID string) (*model.PPTJob, error)
}
