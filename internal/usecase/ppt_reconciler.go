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
	"ai-assistant-backend/internal/infra/metrics"
)

// Compile-time check
var _ usecase.PPTReconciler = (*pptReconciler)(nil)

type PPTReconcilerOptions struct {
	MaxErrors int
	LeaseTTL  time.Duration
}

// pptReconciler advances at most one unfinished slide job per Tick.
type pptReconciler struct {
	jobs    repository.PPTJobRepository
	creds   repository.VendorCredentialRepository
	vendors adapter.SlideDeckVendorFactory
	opts    PPTReconcilerOptions
	log     *zerolog.Logger
}

func NewPPTReconciler(
	jobs repository.PPTJobRepository,
	creds repository.VendorCredentialRepository,
	vendors adapter.SlideDeckVendorFactory,
	opts PPTReconcilerOptions,
	logger *zerolog.Logger,
) *pptReconciler {
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = model.DefaultMaxPollErrors
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = 2 * time.Minute
	}
	l := logger.With().Str("component", "pptReconciler").Logger()
	return &pptReconciler{jobs: jobs, creds: creds, vendors: vendors, opts: opts, log: &l}
}

// Tick picks a random enabled slide credential, claims the oldest unfinished
// job and polls it once. Vendor failures are recorded on the job and never
// returned; only store failures surface as errors.
func (r *pptReconciler) Tick(ctx context.Context) error {
	defer logging.TraceDuration(r.log, "PPTReconciler.Tick")()

	cred, err := r.creds.RandomEnabled(ctx, repository.NoTX, model.VendorXunfeiPPT)
	if err != nil {
		if errors.Is(err, domain.ErrNoCredential) {
			metrics.IncPPTTick("no_credential")
			r.log.Debug().Msg("no enabled slide credential, skipping tick")
			return nil
		}
		metrics.IncPPTTick("error")
		return fmt.Errorf("pick slide credential: %w", err)
	}

	job, err := r.jobs.ClaimNextUnfinished(ctx, r.opts.MaxErrors, r.opts.LeaseTTL)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncPPTTick("idle")
		return nil
	}
	if err != nil {
		metrics.IncPPTTick("error")
		return fmt.Errorf("claim ppt job: %w", err)
	}
	defer releaseLease(ctx, r.jobs, job, r.log)

	log := r.log.With().Str("session_id", job.SessionID).Str("credential_id", cred.ID).Logger()

	updated, vendorErr, err := pollJob(ctx, r.jobs, r.vendors.ForCredential(cred), job, r.opts.MaxErrors, "reconciler")
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		log.Warn().Msg("ppt job vanished before update")
		metrics.IncPPTTick("polled")
		return nil
	case err != nil:
		metrics.IncPPTTick("error")
		return fmt.Errorf("update ppt job %s: %w", job.SessionID, err)
	}
	metrics.IncPPTTick("polled")

	if vendorErr != nil {
		ev := log.Warn()
		if updated.Status == model.PPTJobFailed {
			ev = log.Error()
		}
		ev.Err(vendorErr).Int("error_count", updated.ErrorCount).Str("status", string(updated.Status)).Msg("ppt status poll failed")
		return nil
	}
	log.Debug().Int("progress", updated.Progress).Str("status", string(updated.Status)).Msg("ppt job polled")
	return nil
}
