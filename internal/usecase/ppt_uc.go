package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/domain/ports/usecase"
	"ai-assistant-backend/internal/infra/logging"
)

// Compile-time check
var _ PPTUseCase = (*pptUC)(nil)

// PPTUseCase is the request-facing side of slide jobs.
type PPTUseCase interface {
	// Submit creates a job at the vendor and stores it. With follow set, a
	// background waiter polls the job until it finishes.
	Submit(ctx context.Context, userID, text string, follow bool) (*model.PPTJob, error)
	Get(ctx context.Context, sessionID string) (*model.PPTJob, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]*model.PPTJob, int, error)
	Wait(ctx context.Context, sessionID string) (*model.PPTJob, error)
}

// TaskRunner runs background work on a context that outlives the request.
// worker.Pool satisfies it.
type TaskRunner interface {
	Submit(task func(ctx context.Context) error) error
}

type pptUC struct {
	jobs    repository.PPTJobRepository
	creds   repository.VendorCredentialRepository
	vendors adapter.SlideDeckVendorFactory
	waiter  usecase.PPTWaiter
	runner  TaskRunner
	log     *zerolog.Logger
}

func NewPPTUseCase(
	jobs repository.PPTJobRepository,
	creds repository.VendorCredentialRepository,
	vendors adapter.SlideDeckVendorFactory,
	waiter usecase.PPTWaiter,
	runner TaskRunner,
	logger *zerolog.Logger,
) *pptUC {
	l := logger.With().Str("component", "pptUC").Logger()
	return &pptUC{jobs: jobs, creds: creds, vendors: vendors, waiter: waiter, runner: runner, log: &l}
}

func (u *pptUC) Submit(ctx context.Context, userID, text string, follow bool) (*model.PPTJob, error) {
	defer logging.TraceDuration(u.log, "PPTUC.Submit")()

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidArgument
	}
	cred, err := u.creds.RandomEnabled(ctx, repository.NoTX, model.VendorXunfeiPPT)
	if err != nil {
		return nil, err
	}
	handle, err := u.vendors.ForCredential(cred).CreateJob(ctx, text)
	if err != nil {
		return nil, err
	}
	job, err := model.NewPPTJob(userID, text, handle.SessionID, handle.Title, handle.SubTitle, handle.CoverImgSrc)
	if err != nil {
		return nil, err
	}
	if err := u.jobs.Create(ctx, repository.NoTX, job); err != nil {
		return nil, fmt.Errorf("store ppt job %s: %w", job.SessionID, err)
	}
	// Seed through the same merge the pollers use so the record starts from
	// a known progress state.
	seeded, err := u.jobs.Update(ctx, repository.NoTX, job.SessionID, model.MergeProgress(model.PPTProgress{Progress: job.Progress}))
	if err != nil {
		return nil, err
	}

	logging.With(ctx, u.log).Info().Str("session_id", seeded.SessionID).Bool("follow", follow).Msg("ppt job created")
	if follow {
		u.follow(ctx, seeded.SessionID)
	}
	return seeded, nil
}

// follow hands the job to a background waiter. A saturated runner only costs
// the caller the push; the scheduler still reconciles the job.
func (u *pptUC) follow(ctx context.Context, sessionID string) {
	traceID := logging.TraceID(ctx)
	log := u.log.With().Str("session_id", sessionID).Logger()
	err := u.runner.Submit(func(ctx context.Context) error {
		ctx = logging.WithTraceID(ctx, traceID)
		job, err := u.waiter.Wait(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrPollAbandoned):
			log.Warn().Err(err).Msg("follower gave up on ppt job")
		case errors.Is(err, context.Canceled):
			log.Debug().Msg("follower stopped")
		case err != nil:
			return fmt.Errorf("follow ppt job %s: %w", sessionID, err)
		default:
			log.Info().Str("status", string(job.Status)).Msg("ppt job finished")
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not start follower")
	}
}

func (u *pptUC) Get(ctx context.Context, sessionID string) (*model.PPTJob, error) {
	return u.jobs.FindBySessionID(ctx, repository.NoTX, sessionID)
}

func (u *pptUC) ListByUser(ctx context.Context, userID string, page, perPage int) ([]*model.PPTJob, int, error) {
	offset, limit := pageBounds(page, perPage)
	return u.jobs.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

func (u *pptUC) Wait(ctx context.Context, sessionID string) (*model.PPTJob, error) {
	return u.waiter.Wait(ctx, sessionID)
}
