package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/infra/logging"
)

// Compile-time check
var _ ActivationCodeUseCase = (*activationCodeUC)(nil)

const (
	MaxCodesPerBatch = 100
	codeGenAttempts  = 5
)

type ActivationCodeUseCase interface {
	Generate(ctx context.Context, num, quotaDays int) ([]*model.ActivationCode, error)
	Get(ctx context.Context, id string) (*model.ActivationCode, error)
	List(ctx context.Context, page, perPage int) ([]*model.ActivationCode, int, error)
	Update(ctx context.Context, id string, quotaDays int, status model.ActivationCodeStatus) (*model.ActivationCode, error)
	Delete(ctx context.Context, id string) (*model.ActivationCode, error)
}

type activationCodeUC struct {
	codes repository.ActivationCodeRepository
	log   *zerolog.Logger
}

func NewActivationCodeUseCase(codes repository.ActivationCodeRepository, logger *zerolog.Logger) *activationCodeUC {
	return &activationCodeUC{codes: codes, log: logger}
}

// Generate creates num codes worth quotaDays each. A colliding code string is
// regenerated a few times before giving up.
func (a *activationCodeUC) Generate(ctx context.Context, num, quotaDays int) ([]*model.ActivationCode, error) {
	defer logging.TraceDuration(a.log, "ActivationCodeUC.Generate")()
	if num < 1 || num > MaxCodesPerBatch {
		return nil, domain.ErrInvalidArgument
	}

	out := make([]*model.ActivationCode, 0, num)
	for i := 0; i < num; i++ {
		code, err := a.generateOne(ctx, quotaDays)
		if err != nil {
			return out, err
		}
		out = append(out, code)
	}
	a.log.Info().Int("count", len(out)).Int("quota_days", quotaDays).Msg("activation codes generated")
	return out, nil
}

func (a *activationCodeUC) generateOne(ctx context.Context, quotaDays int) (*model.ActivationCode, error) {
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		s, err := generateActivationCode()
		if err != nil {
			return nil, err
		}
		code, err := model.NewActivationCode(s, quotaDays)
		if err != nil {
			return nil, err
		}
		err = a.codes.Save(ctx, repository.NoTX, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("generate unique activation code: %w", domain.ErrAlreadyExists)
}

func (a *activationCodeUC) Get(ctx context.Context, id string) (*model.ActivationCode, error) {
	return a.codes.FindByID(ctx, repository.NoTX, id)
}

func (a *activationCodeUC) List(ctx context.Context, page, perPage int) ([]*model.ActivationCode, int, error) {
	offset, limit := pageBounds(page, perPage)
	return a.codes.List(ctx, repository.NoTX, offset, limit)
}

func (a *activationCodeUC) Update(ctx context.Context, id string, quotaDays int, status model.ActivationCodeStatus) (*model.ActivationCode, error) {
	defer logging.TraceDuration(a.log, "ActivationCodeUC.Update")()
	if quotaDays < model.MinCodeQuotaDays || quotaDays > model.MaxCodeQuotaDays || !status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	code, err := a.codes.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	code.QuotaDays = quotaDays
	code.Status = status
	if err := a.codes.Save(ctx, repository.NoTX, code); err != nil {
		return nil, err
	}
	return code, nil
}

func (a *activationCodeUC) Delete(ctx context.Context, id string) (*model.ActivationCode, error) {
	code, err := a.codes.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := a.codes.Delete(ctx, repository.NoTX, id); err != nil {
		return nil, err
	}
	return code, nil
}
