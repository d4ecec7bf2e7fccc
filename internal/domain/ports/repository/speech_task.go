package repository

import (
	"context"

	"ai-assistant-backend/internal/domain/model"
)

// SpeechTaskRepository keeps transcription tasks until the vendor calls back.
type SpeechTaskRepository interface {
	Save(ctx context.Context, task *model.SpeechTask) error
	Find(ctx context.Context, id string) (*model.SpeechTask, error)
}
