package repository

import (
	"context"

	"ai-assistant-backend/internal/domain/model"
)

// ActivationCodeRepository is the port for managing activation codes.
type ActivationCodeRepository interface {
	// Save creates or updates an activation code. A duplicate code string
	// yields domain.ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, code *model.ActivationCode) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ActivationCode, error)
	// FindByCode returns the code regardless of its status; pass a tx to lock the row.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.ActivationCode, int, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
