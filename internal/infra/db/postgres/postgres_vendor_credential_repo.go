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
	"ai-assistant-backend/internal/infra/security"
)

var _ repository.VendorCredentialRepository = (*vendorCredentialRepo)(nil)

// SecretSealer encrypts the secret column. security.SecretBox satisfies it;
// a nil *SecretBox stores plaintext.
type SecretSealer interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
}

type vendorCredentialRepo struct {
	pool   *pgxpool.Pool
	sealer SecretSealer
}

func NewVendorCredentialRepo(pool *pgxpool.Pool, sealer SecretSealer) repository.VendorCredentialRepository {
	if sealer == nil {
		sealer = (*security.SecretBox)(nil)
	}
	return &vendorCredentialRepo{pool: pool, sealer: sealer}
}

const credentialColumns = `id, vendor, name, app_id, secret, model, cluster, enabled, created_at, updated_at`

func (r *vendorCredentialRepo) Save(ctx context.Context, tx repository.Tx, c *model.VendorCredential) error {
	if c.ID == "" {
		c.ID = ulid.Make().String()
	}
	const q = `
INSERT INTO api_credentials (` + credentialColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, app_id=EXCLUDED.app_id, secret=EXCLUDED.secret,
  model=EXCLUDED.model, cluster=EXCLUDED.cluster, enabled=EXCLUDED.enabled, updated_at=now()
RETURNING created_at, updated_at;`
	secret, err := r.sealer.Seal(c.Secret)
	if err != nil {
		return fmt.Errorf("seal credential secret: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q,
		c.ID, string(c.Vendor), c.Name, c.AppID, secret, c.Model, c.Cluster, c.Enabled)
	if err != nil {
		return err
	}
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (r *vendorCredentialRepo) FindByID(ctx context.Context, tx repository.Tx, vendor model.Vendor, id string) (*model.VendorCredential, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+credentialColumns+` FROM api_credentials WHERE vendor = $1 AND id = $2;`, string(vendor), id)
	if err != nil {
		return nil, err
	}
	c, err := r.scanCredential(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *vendorCredentialRepo) ListByVendor(ctx context.Context, tx repository.Tx, vendor model.Vendor, offset, limit int) ([]*model.VendorCredential, int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM api_credentials WHERE vendor = $1;`, string(vendor))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count credentials: %w", err)
	}

	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+credentialColumns+` FROM api_credentials WHERE vendor = $1 ORDER BY created_at OFFSET $2 LIMIT $3;`,
		string(vendor), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*model.VendorCredential
	for rows.Next() {
		c, err := r.scanCredential(rows)
		if err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// RandomEnabled spreads load across all enabled credentials of the vendors.
func (r *vendorCredentialRepo) RandomEnabled(ctx context.Context, tx repository.Tx, vendors ...model.Vendor) (*model.VendorCredential, error) {
	if len(vendors) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	names := make([]string, len(vendors))
	for i, v := range vendors {
		names[i] = string(v)
	}
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+credentialColumns+` FROM api_credentials WHERE enabled AND vendor = ANY($1) ORDER BY random() LIMIT 1;`,
		names)
	if err != nil {
		return nil, err
	}
	c, err := r.scanCredential(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoCredential
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *vendorCredentialRepo) scanCredential(row pgx.Row) (*model.VendorCredential, error) {
	var c model.VendorCredential
	var vendor string
	if err := row.Scan(&c.ID, &vendor, &c.Name, &c.AppID, &c.Secret, &c.Model, &c.Cluster,
		&c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Vendor = model.Vendor(vendor)
	secret, err := r.sealer.Open(c.Secret)
	if err != nil {
		return nil, err
	}
	c.Secret = secret
	return &c, nil
}
