package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/domain/ports/usecase"
	"ai-assistant-backend/internal/infra/logging"
)

// Compile-time check
var _ usecase.PPTWaiter = (*pptWaiter)(nil)

const DefaultPPTWaitInterval = 20 * time.Second

type PPTWaiterOptions struct {
	Interval  time.Duration
	MaxErrors int
	LeaseTTL  time.Duration
	// MaxIterations bounds the loop; zero means no bound.
	MaxIterations int
	Sleep         func(ctx context.Context, d time.Duration) error
}

type pptWaiter struct {
	jobs    repository.PPTJobRepository
	creds   repository.VendorCredentialRepository
	vendors adapter.SlideDeckVendorFactory
	opts    PPTWaiterOptions
	log     *zerolog.Logger
}

func NewPPTWaiter(
	jobs repository.PPTJobRepository,
	creds repository.VendorCredentialRepository,
	vendors adapter.SlideDeckVendorFactory,
	opts PPTWaiterOptions,
	logger *zerolog.Logger,
) *pptWaiter {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPPTWaitInterval
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = model.DefaultMaxPollErrors
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = 2 * time.Minute
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	l := logger.With().Str("component", "pptWaiter").Logger()
	return &pptWaiter{jobs: jobs, creds: creds, vendors: vendors, opts: opts, log: &l}
}

// Wait polls one job until it completes. It returns the last stored record
// together with domain.ErrPollAbandoned once the job's error count reaches
// the ceiling, or with ctx's error when the caller goes away.
func (w *pptWaiter) Wait(ctx context.Context, sessionID string) (*model.PPTJob, error) {
	defer logging.TraceDuration(w.log, "PPTWaiter.Wait")()
	log := logging.With(ctx, w.log).With().Str("session_id", sessionID).Logger()

	cred, err := w.creds.RandomEnabled(ctx, repository.NoTX, model.VendorXunfeiPPT)
	if err != nil {
		return nil, err
	}
	vendor := w.vendors.ForCredential(cred)

	job, err := w.jobs.FindBySessionID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, err
	}

	for i := 0; ; i++ {
		switch {
		case job.Status == model.PPTJobFailed:
			return job, domain.ErrPollAbandoned
		case job.IsTerminal():
			return job, nil
		}
		if w.opts.MaxIterations > 0 && i >= w.opts.MaxIterations {
			return job, domain.ErrPollAbandoned
		}

		claimed, err := w.jobs.ClaimBySessionID(ctx, sessionID, w.opts.LeaseTTL)
		if errors.Is(err, domain.ErrJobClaimed) {
			// The scheduler is polling this job right now; read its result next round.
			if err := w.opts.Sleep(ctx, w.opts.Interval); err != nil {
				return job, err
			}
			if job, err = w.jobs.FindBySessionID(ctx, repository.NoTX, sessionID); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return job, err
		}

		updated, vendorErr, err := pollJob(ctx, w.jobs, vendor, claimed, w.opts.MaxErrors, "waiter")
		releaseLease(ctx, w.jobs, claimed, w.log)
		if err != nil {
			return job, err
		}
		job = updated

		if vendorErr != nil {
			log.Warn().Err(vendorErr).Int("error_count", job.ErrorCount).Msg("ppt status poll failed")
			if job.ErrorCount >= w.opts.MaxErrors {
				log.Error().Int("max_errors", w.opts.MaxErrors).Msg("giving up on ppt job")
				return job, fmt.Errorf("%w: %w", domain.ErrPollAbandoned, vendorErr)
			}
		}
		if job.IsTerminal() {
			continue
		}
		if err := w.opts.Sleep(ctx, w.opts.Interval); err != nil {
			return job, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
