package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/infra/metrics"
)

const releaseTimeout = 5 * time.Second

// pollJob asks the vendor for the status of job and stores the merged result.
// The caller must hold the job's lease. A vendor failure is counted on the job
// and returned as vendorErr next to the updated record; err is reserved for
// store failures.
func pollJob(ctx context.Context, jobs repository.PPTJobRepository, vendor adapter.SlideDeckVendor, job *model.PPTJob, maxErrors int, caller string) (updated *model.PPTJob, vendorErr error, err error) {
	progress, vendorErr := vendor.GetStatus(ctx, job.SessionID)
	if vendorErr == nil && progress == nil {
		vendorErr = &domain.VendorUnavailableError{Vendor: string(model.VendorXunfeiPPT), Err: errors.New("empty status payload")}
	}

	var patch model.PPTJobPatch
	if vendorErr != nil {
		// Shutdown is not the vendor's fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		metrics.IncPPTPoll(caller, "vendor_error")
		patch = model.MergeFailure(job, maxErrors)
	} else {
		metrics.IncPPTPoll(caller, "ok")
		patch = model.MergeProgress(*progress)
	}

	updated, err = jobs.Update(ctx, repository.NoTX, job.SessionID, patch)
	if err != nil {
		return nil, vendorErr, err
	}
	if patch.Status != nil {
		metrics.IncPPTJobFinished(string(*patch.Status))
	}
	return updated, vendorErr, nil
}

// releaseLease gives the job back even when ctx is already cancelled.
func releaseLease(ctx context.Context, jobs repository.PPTJobRepository, job *model.PPTJob, log *zerolog.Logger) {
	if job == nil || job.ClaimToken == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := jobs.Release(ctx, job.SessionID, *job.ClaimToken); err != nil {
		log.Warn().Err(err).Str("session_id", job.SessionID).Msg("release ppt job lease")
	}
}
