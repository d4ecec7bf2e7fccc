package repository

import (
	"context"

	"ai-assistant-backend/internal/domain/model"
)

type VendorCredentialRepository interface {
	Save(ctx context.Context, tx Tx, c *model.VendorCredential) error
	FindByID(ctx context.Context, tx Tx, vendor model.Vendor, id string) (*model.VendorCredential, error)
	ListByVendor(ctx context.Context, tx Tx, vendor model.Vendor, offset, limit int) ([]*model.VendorCredential, int, error)
	// RandomEnabled picks one enabled credential of any of the given vendors
	// uniformly at random. Returns domain.ErrNoCredential when none exists.
	RandomEnabled(ctx context.Context, tx Tx, vendors ...model.Vendor) (*model.VendorCredential, error)
}
