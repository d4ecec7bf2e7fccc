package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/infra/logging"
)

// Compile-time check
var _ CredentialUseCase = (*credentialUC)(nil)

// CredentialUseCase manages vendor API configurations per vendor.
type CredentialUseCase interface {
	List(ctx context.Context, vendor model.Vendor, page, perPage int) ([]*model.VendorCredential, int, error)
	Get(ctx context.Context, vendor model.Vendor, id string) (*model.VendorCredential, error)
	Create(ctx context.Context, vendor model.Vendor, in model.VendorCredentialPatch) (*model.VendorCredential, error)
	Update(ctx context.Context, vendor model.Vendor, id string, patch model.VendorCredentialPatch) (*model.VendorCredential, error)
}

type credentialUC struct {
	creds repository.VendorCredentialRepository
	log   *zerolog.Logger
}

func NewCredentialUseCase(creds repository.VendorCredentialRepository, logger *zerolog.Logger) *credentialUC {
	return &credentialUC{creds: creds, log: logger}
}

func (c *credentialUC) List(ctx context.Context, vendor model.Vendor, page, perPage int) ([]*model.VendorCredential, int, error) {
	offset, limit := pageBounds(page, perPage)
	return c.creds.ListByVendor(ctx, repository.NoTX, vendor, offset, limit)
}

func (c *credentialUC) Get(ctx context.Context, vendor model.Vendor, id string) (*model.VendorCredential, error) {
	return c.creds.FindByID(ctx, repository.NoTX, vendor, id)
}

func (c *credentialUC) Create(ctx context.Context, vendor model.Vendor, in model.VendorCredentialPatch) (*model.VendorCredential, error) {
	defer logging.TraceDuration(c.log, "CredentialUC.Create")()
	cred, err := model.NewVendorCredential(vendor, deref(in.Name), deref(in.AppID), deref(in.Secret), deref(in.Model), deref(in.Cluster))
	if err != nil {
		return nil, err
	}
	if in.Enabled != nil {
		cred.Enabled = *in.Enabled
	}
	if err := c.creds.Save(ctx, repository.NoTX, cred); err != nil {
		return nil, err
	}
	c.log.Info().Str("vendor", string(vendor)).Str("credential_id", cred.ID).Msg("vendor credential created")
	return cred, nil
}

func (c *credentialUC) Update(ctx context.Context, vendor model.Vendor, id string, patch model.VendorCredentialPatch) (*model.VendorCredential, error) {
	defer logging.TraceDuration(c.log, "CredentialUC.Update")()
	cred, err := c.creds.FindByID(ctx, repository.NoTX, vendor, id)
	if err != nil {
		return nil, err
	}
	cred.Apply(patch)
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	if err := c.creds.Save(ctx, repository.NoTX, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
