//go:build !integration

package apiv1_test

import (
	"context"
	"io"
	"time"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/usecase"
)

// Each stub embeds its use-case interface; methods a test does not set panic
// through the nil embedded value.

type stubUsers struct {
	usecase.UserUseCase
	byName map[string]*model.User

	RegisterFunc     func(ctx context.Context, username, email, password string) (*model.User, error)
	AuthenticateFunc func(ctx context.Context, username, password string) (*model.User, error)
	ChargeFunc       func(ctx context.Context, userID, code string) (*model.User, error)
	ListFunc         func(ctx context.Context, page, perPage int) ([]*model.User, int, error)
	CreateFunc       func(ctx context.Context, username, email, password string, role model.Role) (*model.User, error)
}

func newStubUsers(users ...*model.User) *stubUsers {
	s := &stubUsers{byName: map[string]*model.User{}}
	for _, u := range users {
		s.byName[u.Username] = u
	}
	return s
}

func (s *stubUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, ok := s.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUsers) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	return s.RegisterFunc(ctx, username, email, password)
}

func (s *stubUsers) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	return s.AuthenticateFunc(ctx, username, password)
}

func (s *stubUsers) Charge(ctx context.Context, userID, code string) (*model.User, error) {
	return s.ChargeFunc(ctx, userID, code)
}

func (s *stubUsers) List(ctx context.Context, page, perPage int) ([]*model.User, int, error) {
	return s.ListFunc(ctx, page, perPage)
}

func (s *stubUsers) Create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	return s.CreateFunc(ctx, username, email, password, role)
}

type stubPPT struct {
	usecase.PPTUseCase
	jobs map[string]*model.PPTJob

	SubmitFunc func(ctx context.Context, userID, text string, follow bool) (*model.PPTJob, error)
	WaitFunc   func(ctx context.Context, sid string) (*model.PPTJob, error)
	ListFunc   func(ctx context.Context, userID string, page, perPage int) ([]*model.PPTJob, int, error)
}

func newStubPPT(jobs ...*model.PPTJob) *stubPPT {
	s := &stubPPT{jobs: map[string]*model.PPTJob{}}
	for _, j := range jobs {
		s.jobs[j.SessionID] = j
	}
	return s
}

func (s *stubPPT) Submit(ctx context.Context, userID, text string, follow bool) (*model.PPTJob, error) {
	return s.SubmitFunc(ctx, userID, text, follow)
}

func (s *stubPPT) Get(ctx context.Context, sid string) (*model.PPTJob, error) {
	j, ok := s.jobs[sid]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *stubPPT) ListByUser(ctx context.Context, userID string, page, perPage int) ([]*model.PPTJob, int, error) {
	return s.ListFunc(ctx, userID, page, perPage)
}

func (s *stubPPT) Wait(ctx context.Context, sid string) (*model.PPTJob, error) {
	return s.WaitFunc(ctx, sid)
}

type stubCodes struct {
	usecase.ActivationCodeUseCase
	GenerateFunc func(ctx context.Context, num, quota int) ([]*model.ActivationCode, error)
}

func (s *stubCodes) Generate(ctx context.Context, num, quota int) ([]*model.ActivationCode, error) {
	return s.GenerateFunc(ctx, num, quota)
}

type stubCreds struct {
	usecase.CredentialUseCase
	GetFunc func(ctx context.Context, vendor model.Vendor, id string) (*model.VendorCredential, error)
}

func (s *stubCreds) Get(ctx context.Context, vendor model.Vendor, id string) (*model.VendorCredential, error) {
	return s.GetFunc(ctx, vendor, id)
}

type stubChat struct {
	CompleteFunc func(ctx context.Context, msgs []adapter.Message) (*usecase.ChatReply, error)
}

func (s *stubChat) Complete(ctx context.Context, msgs []adapter.Message) (*usecase.ChatReply, error) {
	return s.CompleteFunc(ctx, msgs)
}

type stubSpeech struct {
	SubmitFunc   func(ctx context.Context, username, contentType string, audio io.Reader) (*usecase.SpeechSubmitResult, error)
	CompleteFunc func(ctx context.Context, taskID, text string) error
	ResultFunc   func(ctx context.Context, taskID string) (*model.SpeechTask, error)
}

func (s *stubSpeech) Submit(ctx context.Context, username, contentType string, audio io.Reader) (*usecase.SpeechSubmitResult, error) {
	return s.SubmitFunc(ctx, username, contentType, audio)
}

func (s *stubSpeech) Complete(ctx context.Context, taskID, text string) error {
	return s.CompleteFunc(ctx, taskID, text)
}

func (s *stubSpeech) Result(ctx context.Context, taskID string) (*model.SpeechTask, error) {
	return s.ResultFunc(ctx, taskID)
}

func testUser(name string, role model.Role) *model.User {
	return &model.User{
		ID:             "id-" + name,
		Username:       name,
		Email:          name + "@example.com",
		Role:           role,
		ExpirationDate: time.Now().Add(24 * time.Hour),
	}
}
