package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
)

var _ repository.PPTJobRepository = (*pptJobRepo)(nil)

type pptJobRepo struct {
	pool *pgxpool.Pool
}

func NewPPTJobRepo(pool *pgxpool.Pool) repository.PPTJobRepository {
	return &pptJobRepo{pool: pool}
}

const pptJobColumns = `id, session_id, user_id, text, title, sub_title, cover_img_src,
  progress, ppt_url, err_msg, error_count, status, claim_token, claimed_until, created_at, updated_at`

// unfinishedPredicate selects jobs a poller may still work on.
const unfinishedPredicate = `status = 'pending' AND progress <> 100 AND error_count <= $1`

func (r *pptJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.PPTJob) error {
	if job.Status == "" {
		job.Status = model.PPTJobPending
	}
	const q = `
INSERT INTO ppt_jobs (session_id, user_id, text, title, sub_title, cover_img_src,
                      progress, ppt_url, err_msg, error_count, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id, created_at, updated_at;`
	row, err := pickRow(ctx, r.pool, tx, q,
		job.SessionID, job.UserID, job.Text, job.Title, job.SubTitle, job.CoverImgSrc,
		job.Progress, job.PPTURL, job.ErrMsg, job.ErrorCount, string(job.Status))
	if err != nil {
		return err
	}
	if err := row.Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if isUniqueViolation(err, "ppt_jobs_session_id_key") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create ppt job: %w", err)
	}
	return nil
}

// Update is a merge-patch: NULL parameters keep the stored value.
func (r *pptJobRepo) Update(ctx context.Context, tx repository.Tx, sessionID string, patch model.PPTJobPatch) (*model.PPTJob, error) {
	if patch.IsEmpty() {
		return r.FindBySessionID(ctx, tx, sessionID)
	}
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	const q = `
UPDATE ppt_jobs SET
  progress    = COALESCE($2, progress),
  ppt_url     = COALESCE($3, ppt_url),
  err_msg     = COALESCE($4, err_msg),
  error_count = COALESCE($5, error_count),
  status      = COALESCE($6, status),
  updated_at  = now()
WHERE session_id = $1
RETURNING ` + pptJobColumns + `;`
	row, err := pickRow(ctx, r.pool, tx, q,
		sessionID, patch.Progress, patch.PPTURL, patch.ErrMsg, patch.ErrorCount, status)
	if err != nil {
		return nil, err
	}
	return scanPPTJobOr(row, domain.ErrJobNotFound)
}

func (r *pptJobRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.PPTJob, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+pptJobColumns+` FROM ppt_jobs WHERE session_id = $1;`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanPPTJobOr(row, domain.ErrJobNotFound)
}

func (r *pptJobRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.PPTJob, int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM ppt_jobs WHERE user_id = $1;`, userID)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ppt jobs: %w", err)
	}

	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+pptJobColumns+` FROM ppt_jobs WHERE user_id = $1 ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3;`,
		userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list ppt jobs: %w", err)
	}
	defer rows.Close()

	var out []*model.PPTJob
	for rows.Next() {
		j, err := scanPPTJob(rows)
		if err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		out = append(out, j)
	}
	return out, total, rows.Err()
}

func (r *pptJobRepo) FindOneUnfinished(ctx context.Context, tx repository.Tx, maxErrors int) (*model.PPTJob, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+pptJobColumns+` FROM ppt_jobs WHERE `+unfinishedPredicate+` ORDER BY created_at, id LIMIT 1;`,
		maxErrors)
	if err != nil {
		return nil, err
	}
	return scanPPTJobOr(row, domain.ErrNotFound)
}

// ClaimNextUnfinished leases the oldest selectable job in one statement.
// SKIP LOCKED lets concurrent claimers pass over a row another one is taking.
func (r *pptJobRepo) ClaimNextUnfinished(ctx context.Context, maxErrors int, ttl time.Duration) (*model.PPTJob, error) {
	const q = `
UPDATE ppt_jobs SET claim_token = $2, claimed_until = now() + make_interval(secs => $3)
WHERE id = (
  SELECT id FROM ppt_jobs
   WHERE ` + unfinishedPredicate + `
     AND (claimed_until IS NULL OR claimed_until < now())
   ORDER BY created_at, id
   LIMIT 1
   FOR UPDATE SKIP LOCKED)
RETURNING ` + pptJobColumns + `;`
	row, err := pickRow(ctx, r.pool, nil, q, maxErrors, uuid.NewString(), ttl.Seconds())
	if err != nil {
		return nil, err
	}
	return scanPPTJobOr(row, domain.ErrNotFound)
}

// ClaimBySessionID takes the lease in one conditional UPDATE so expiry is
// judged by the database clock, the same one ClaimNextUnfinished uses.
func (r *pptJobRepo) ClaimBySessionID(ctx context.Context, sessionID string, ttl time.Duration) (*model.PPTJob, error) {
	row, err := pickRow(ctx, r.pool, nil, `
UPDATE ppt_jobs SET claim_token = $2, claimed_until = now() + make_interval(secs => $3)
WHERE session_id = $1
  AND (claimed_until IS NULL OR claimed_until < now())
RETURNING `+pptJobColumns+`;`, sessionID, uuid.NewString(), ttl.Seconds())
	if err != nil {
		return nil, err
	}
	job, err := scanPPTJob(row)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}

	// Nothing updated: either the job is leased or it does not exist.
	row, err = pickRow(ctx, r.pool, nil, `SELECT EXISTS (SELECT 1 FROM ppt_jobs WHERE session_id = $1);`, sessionID)
	if err != nil {
		return nil, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return nil, fmt.Errorf("check ppt job: %w", err)
	}
	if !exists {
		return nil, domain.ErrJobNotFound
	}
	return nil, domain.ErrJobClaimed
}

// Release is a no-op when the lease has already been taken over by someone else.
func (r *pptJobRepo) Release(ctx context.Context, sessionID, token string) error {
	_, err := execSQL(ctx, r.pool, nil,
		`UPDATE ppt_jobs SET claim_token = NULL, claimed_until = NULL WHERE session_id = $1 AND claim_token = $2;`,
		sessionID, token)
	if err != nil {
		return fmt.Errorf("release ppt job: %w", err)
	}
	return nil
}

func scanPPTJobOr(row pgx.Row, notFound error) (*model.PPTJob, error) {
	j, err := scanPPTJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return j, nil
}

func scanPPTJob(row pgx.Row) (*model.PPTJob, error) {
	var j model.PPTJob
	var status string
	if err := row.Scan(&j.ID, &j.SessionID, &j.UserID, &j.Text, &j.Title, &j.SubTitle, &j.CoverImgSrc,
		&j.Progress, &j.PPTURL, &j.ErrMsg, &j.ErrorCount, &status, &j.ClaimToken, &j.ClaimedUntil,
		&j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = model.PPTJobStatus(status)
	return &j, nil
}
