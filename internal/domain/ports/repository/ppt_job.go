package repository

import (
	"context"
	"time"

	"ai-assistant-backend/internal/domain/model"
)

// PPTJobRepository stores slide-deck jobs keyed by the vendor session id.
type PPTJobRepository interface {
	Create(ctx context.Context, tx Tx, job *model.PPTJob) error
	// Update applies the non-nil fields of patch and returns the stored job.
	// Returns domain.ErrJobNotFound when no job has the given session id.
	Update(ctx context.Context, tx Tx, sessionID string, patch model.PPTJobPatch) (*model.PPTJob, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.PPTJob, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.PPTJob, int, error)
	// FindOneUnfinished returns the oldest pending job with error_count <= maxErrors
	// without claiming it. Returns domain.ErrNotFound when there is none.
	FindOneUnfinished(ctx context.Context, tx Tx, maxErrors int) (*model.PPTJob, error)

	// ClaimNextUnfinished atomically leases the oldest selectable job for ttl.
	// Returns domain.ErrNotFound when there is nothing to claim.
	ClaimNextUnfinished(ctx context.Context, maxErrors int, ttl time.Duration) (*model.PPTJob, error)
	// ClaimBySessionID leases one specific job. Returns domain.ErrJobClaimed when
	// another poller holds an unexpired lease.
	ClaimBySessionID(ctx context.Context, sessionID string, ttl time.Duration) (*model.PPTJob, error)
	// Release clears the lease if it is still held with token.
	Release(ctx context.Context, sessionID, token string) error
}
