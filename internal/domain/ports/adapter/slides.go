package adapter

import (
	"context"

	"ai-assistant-backend/internal/domain/model"
)

// SlideJobHandle is what the slide vendor returns when it accepts a request.
type SlideJobHandle struct {
	SessionID   string
	Title       string
	SubTitle    string
	CoverImgSrc string
}

// SlideDeckVendor talks to the slide-deck generation service. Implementations
// are stateless; failures are *domain.VendorUnavailableError or
// *domain.VendorRejectedError.
type SlideDeckVendor interface {
	CreateJob(ctx context.Context, text string) (*SlideJobHandle, error)
	GetStatus(ctx context.Context, sessionID string) (*model.PPTProgress, error)
}

// SlideDeckVendorFactory binds a client to one vendor credential.
type SlideDeckVendorFactory interface {
	ForCredential(cred *model.VendorCredential) SlideDeckVendor
}
