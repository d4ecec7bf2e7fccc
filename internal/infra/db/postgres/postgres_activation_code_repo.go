package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

const activationCodeColumns = `id, code, status, quota_days, created_at, updated_at`

// Save creates or updates an activation code. The code string itself is
// immutable once stored.
func (r *activationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if code.ID == "" {
		code.ID = ulid.Make().String()
	}

	const q = `
INSERT INTO activation_codes (id, code, status, quota_days, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  quota_days = EXCLUDED.quota_days,
  updated_at = now()
RETURNING created_at, updated_at;`
	row, err := pickRow(ctx, r.pool, tx, q, code.ID, code.Code, string(code.Status), code.QuotaDays)
	if err != nil {
		return err
	}
	if err := row.Scan(&code.CreatedAt, &code.UpdatedAt); err != nil {
		if isUniqueViolation(err, "activation_codes_code_key") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save activation code: %w", err)
	}
	return nil
}

func (r *activationCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	return r.findOne(ctx, tx, `SELECT `+activationCodeColumns+` FROM activation_codes WHERE id = $1;`, id)
}

// FindByCode locks the row when called inside a transaction so concurrent
// redemptions of the same code serialize.
func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	q := `SELECT ` + activationCodeColumns + ` FROM activation_codes WHERE code = $1`
	if tx != nil {
		q += ` FOR UPDATE`
	}
	return r.findOne(ctx, tx, q, code)
}

func (r *activationCodeRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg any) (*model.ActivationCode, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	ac, err := scanActivationCode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return ac, nil
}

func (r *activationCodeRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.ActivationCode, int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM activation_codes;`)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activation codes: %w", err)
	}

	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+activationCodeColumns+` FROM activation_codes ORDER BY created_at DESC OFFSET $1 LIMIT $2;`,
		offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list activation codes: %w", err)
	}
	defer rows.Close()

	var out []*model.ActivationCode
	for rows.Next() {
		ac, err := scanActivationCode(rows)
		if err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		out = append(out, ac)
	}
	return out, total, rows.Err()
}

func (r *activationCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM activation_codes WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete activation code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

func scanActivationCode(row pgx.Row) (*model.ActivationCode, error) {
	var ac model.ActivationCode
	var status string
	if err := row.Scan(&ac.ID, &ac.Code, &status, &ac.QuotaDays, &ac.CreatedAt, &ac.UpdatedAt); err != nil {
		return nil, err
	}
	ac.Status = model.ActivationCodeStatus(status)
	return &ac, nil
}
