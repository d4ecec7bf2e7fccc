package adapter

import (
	"context"

	"ai-assistant-backend/internal/domain/model"
)

// SpeechSubmission is a request to transcribe a publicly reachable audio file.
type SpeechSubmission struct {
	Username    string
	AudioURL    string
	Format      string
	CallbackURL string
}

// SpeechVendor submits audio for asynchronous transcription and returns the
// vendor task id. The result arrives later through a callback.
type SpeechVendor interface {
	Submit(ctx context.Context, cred *model.VendorCredential, req SpeechSubmission) (string, error)
}
