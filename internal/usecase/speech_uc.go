package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/infra/logging"
)

// Compile-time check
var _ SpeechUseCase = (*speechUC)(nil)

const (
	SpeechContentType = "audio/mpeg"
	// UploadRoute is where uploaded files are served from.
	UploadRoute = "/uploaded_files/"
	audioSubdir = "audios"
)

type SpeechUseCase interface {
	Submit(ctx context.Context, username, contentType string, audio io.Reader) (*SpeechSubmitResult, error)
	Complete(ctx context.Context, taskID, text string) error
	Result(ctx context.Context, taskID string) (*model.SpeechTask, error)
}

type SpeechSubmitResult struct {
	TaskID   string `json:"task_id"`
	QueryURL string `json:"query_url"`
}

type SpeechOptions struct {
	UploadDir     string
	PublicBaseURL string
	CallbackURL   string
	MaxUploadMB   int
}

type speechUC struct {
	creds  repository.VendorCredentialRepository
	tasks  repository.SpeechTaskRepository
	vendor adapter.SpeechVendor
	opts   SpeechOptions
	log    *zerolog.Logger
}

func NewSpeechUseCase(creds repository.VendorCredentialRepository, tasks repository.SpeechTaskRepository, vendor adapter.SpeechVendor, opts SpeechOptions, logger *zerolog.Logger) *speechUC {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 50
	}
	l := logger.With().Str("component", "speechUC").Logger()
	return &speechUC{creds: creds, tasks: tasks, vendor: vendor, opts: opts, log: &l}
}

// Submit stores the uploaded mp3 where the vendor can fetch it and queues a
// transcription. The transcript arrives later through Complete.
func (s *speechUC) Submit(ctx context.Context, username, contentType string, audio io.Reader) (*SpeechSubmitResult, error) {
	defer logging.TraceDuration(s.log, "SpeechUC.Submit")()

	if contentType != SpeechContentType {
		return nil, domain.ErrUnsupportedMedia
	}
	cred, err := s.creds.RandomEnabled(ctx, repository.NoTX, model.VendorBytedanceSpeech)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(ulid.Make().String()) + ".mp3"
	if err := s.saveAudio(name, audio); err != nil {
		return nil, err
	}
	audioURL := s.opts.PublicBaseURL + UploadRoute + audioSubdir + "/" + name

	taskID, err := s.vendor.Submit(ctx, cred, adapter.SpeechSubmission{
		Username:    username,
		AudioURL:    audioURL,
		Format:      "mp3",
		CallbackURL: s.opts.CallbackURL,
	})
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Str("audio_url", audioURL).Msg("speech submit failed")
		return nil, err
	}

	task := &model.SpeechTask{ID: taskID, Status: model.SpeechTaskPending, Username: username, AudioURL: audioURL}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return &SpeechSubmitResult{
		TaskID:   taskID,
		QueryURL: s.opts.PublicBaseURL + "/api/speech/result/" + taskID,
	}, nil
}

func (s *speechUC) saveAudio(name string, audio io.Reader) error {
	dir := filepath.Join(s.opts.UploadDir, audioSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	limit := int64(s.opts.MaxUploadMB) << 20
	n, err := io.Copy(f, io.LimitReader(audio, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = fmt.Errorf("%w: audio larger than %d MB", domain.ErrInvalidArgument, s.opts.MaxUploadMB)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return nil
}

// Complete records a successful transcript. Callbacks for unknown tasks are
// reported as ErrSpeechTaskNotFound.
func (s *speechUC) Complete(ctx context.Context, taskID, text string) error {
	task, err := s.tasks.Find(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrSpeechTaskNotFound) {
			s.log.Warn().Str("task_id", taskID).Msg("callback for unknown speech task")
		}
		return err
	}
	task.Status = model.SpeechTaskDone
	task.Text = text
	return s.tasks.Save(ctx, task)
}

func (s *speechUC) Result(ctx context.Context, taskID string) (*model.SpeechTask, error) {
	return s.tasks.Find(ctx, taskID)
}
