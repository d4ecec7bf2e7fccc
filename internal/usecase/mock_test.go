//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock PPTJobRepository ----

// MockPPTJobRepo keeps jobs in memory and implements the lease the same way
// the Postgres repository does: a claim sets a token and an expiry, and an
// expired claim can be taken over.
type MockPPTJobRepo struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[string]*model.PPTJob
	now    func() time.Time

	Updates  []model.PPTJobPatch
	Releases int

	CreateFunc              func(ctx context.Context, tx repository.Tx, job *model.PPTJob) error
	UpdateFunc              func(ctx context.Context, tx repository.Tx, sid string, patch model.PPTJobPatch) (*model.PPTJob, error)
	ClaimNextUnfinishedFunc func(ctx context.Context, maxErrors int, ttl time.Duration) (*model.PPTJob, error)
}

var _ repository.PPTJobRepository = (*MockPPTJobRepo)(nil)

func NewMockPPTJobRepo() *MockPPTJobRepo {
	return &MockPPTJobRepo{jobs: map[string]*model.PPTJob{}, now: time.Now}
}

// Seed stores a copy of job as if it had been created earlier.
func (r *MockPPTJobRepo) Seed(job *model.PPTJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *job
	cp.ID = r.nextID
	if cp.Status == "" {
		cp.Status = model.PPTJobPending
	}
	cp.CreatedAt = r.now().Add(time.Duration(r.nextID) * time.Millisecond)
	cp.UpdatedAt = cp.CreatedAt
	r.jobs[cp.SessionID] = &cp
}

// Snapshot returns a copy of the stored job or nil.
func (r *MockPPTJobRepo) Snapshot(sid string) *model.PPTJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[sid]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

func (r *MockPPTJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.PPTJob) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, job)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.SessionID]; ok {
		return domain.ErrAlreadyExists
	}
	r.nextID++
	job.ID = r.nextID
	job.CreatedAt = r.now()
	job.UpdatedAt = job.CreatedAt
	cp := *job
	r.jobs[job.SessionID] = &cp
	return nil
}

func (r *MockPPTJobRepo) Update(ctx context.Context, tx repository.Tx, sid string, patch model.PPTJobPatch) (*model.PPTJob, error) {
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, tx, sid, patch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updates = append(r.Updates, patch)
	j, ok := r.jobs[sid]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	j.Apply(patch)
	if !patch.IsEmpty() {
		j.UpdatedAt = r.now()
	}
	cp := *j
	return &cp, nil
}

func (r *MockPPTJobRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sid string) (*model.PPTJob, error) {
	if j := r.Snapshot(sid); j != nil {
		return j, nil
	}
	return nil, domain.ErrJobNotFound
}

func (r *MockPPTJobRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.PPTJob, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.PPTJob
	for _, j := range r.jobs {
		if j.UserID == userID {
			cp := *j
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, k int) bool { return all[i].ID > all[k].ID })
	total := len(all)
	if offset >= total {
		return []*model.PPTJob{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// oldestSelectable must be called with r.mu held.
func (r *MockPPTJobRepo) oldestSelectable(maxErrors int, honorLease bool) *model.PPTJob {
	var best *model.PPTJob
	now := r.now()
	for _, j := range r.jobs {
		if j.IsTerminal() || j.ErrorCount > maxErrors {
			continue
		}
		if honorLease && !j.Selectable(maxErrors, now) {
			continue
		}
		if best == nil || j.ID < best.ID {
			best = j
		}
	}
	return best
}

func (r *MockPPTJobRepo) FindOneUnfinished(ctx context.Context, tx repository.Tx, maxErrors int) (*model.PPTJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.oldestSelectable(maxErrors, false)
	if j == nil {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *MockPPTJobRepo) ClaimNextUnfinished(ctx context.Context, maxErrors int, ttl time.Duration) (*model.PPTJob, error) {
	if r.ClaimNextUnfinishedFunc != nil {
		return r.ClaimNextUnfinishedFunc(ctx, maxErrors, ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.oldestSelectable(maxErrors, true)
	if j == nil {
		return nil, domain.ErrNotFound
	}
	r.lease(j, ttl)
	cp := *j
	return &cp, nil
}

func (r *MockPPTJobRepo) ClaimBySessionID(ctx context.Context, sid string, ttl time.Duration) (*model.PPTJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[sid]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if j.ClaimedUntil != nil && j.ClaimedUntil.After(r.now()) {
		return nil, domain.ErrJobClaimed
	}
	r.lease(j, ttl)
	cp := *j
	return &cp, nil
}

func (r *MockPPTJobRepo) lease(j *model.PPTJob, ttl time.Duration) {
	tok := uuid.NewString()
	until := r.now().Add(ttl)
	j.ClaimToken = &tok
	j.ClaimedUntil = &until
}

func (r *MockPPTJobRepo) Release(ctx context.Context, sid, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Releases++
	if j, ok := r.jobs[sid]; ok && j.ClaimToken != nil && *j.ClaimToken == token {
		j.ClaimToken = nil
		j.ClaimedUntil = nil
	}
	return nil
}

// ---- Mock VendorCredentialRepository ----

type MockCredentialRepo struct {
	mu    sync.Mutex
	creds []*model.VendorCredential

	RandomEnabledFunc func(ctx context.Context, tx repository.Tx, vendors ...model.Vendor) (*model.VendorCredential, error)
}

var _ repository.VendorCredentialRepository = (*MockCredentialRepo)(nil)

func NewMockCredentialRepo(creds ...*model.VendorCredential) *MockCredentialRepo {
	return &MockCredentialRepo{creds: creds}
}

func (r *MockCredentialRepo) Save(ctx context.Context, tx repository.Tx, c *model.VendorCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	for i, existing := range r.creds {
		if existing.ID == c.ID {
			r.creds[i] = &cp
			return nil
		}
	}
	r.creds = append(r.creds, &cp)
	return nil
}

func (r *MockCredentialRepo) FindByID(ctx context.Context, tx repository.Tx, vendor model.Vendor, id string) (*model.VendorCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.creds {
		if c.ID == id && c.Vendor == vendor {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockCredentialRepo) ListByVendor(ctx context.Context, tx repository.Tx, vendor model.Vendor, offset, limit int) ([]*model.VendorCredential, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.VendorCredential
	for _, c := range r.creds {
		if c.Vendor == vendor {
			cp := *c
			out = append(out, &cp)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	if offset+limit < total {
		out = out[:offset+limit]
	}
	return out[offset:], total, nil
}

// RandomEnabled returns the first enabled match so tests stay deterministic.
func (r *MockCredentialRepo) RandomEnabled(ctx context.Context, tx repository.Tx, vendors ...model.Vendor) (*model.VendorCredential, error) {
	if r.RandomEnabledFunc != nil {
		return r.RandomEnabledFunc(ctx, tx, vendors...)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.creds {
		if !c.Enabled {
			continue
		}
		for _, v := range vendors {
			if c.Vendor == v {
				cp := *c
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrNoCredential
}

func xunfeiCred() *model.VendorCredential {
	return &model.VendorCredential{ID: "cred-ppt", Vendor: model.VendorXunfeiPPT, Name: "ppt", AppID: "app", Secret: "secret", Enabled: true}
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User

	SaveFunc func(ctx context.Context, tx repository.Tx, u *model.User) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.byID {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return domain.ErrUsernameTaken
		}
		if other.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *MockUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *MockUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*model.User, 0, len(r.byID))
	for _, u := range r.byID {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].Username < all[k].Username })
	if offset >= len(all) {
		return []*model.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *MockUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---- Mock ActivationCodeRepository ----

type MockActivationCodeRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.ActivationCode
	Saves int

	SaveFunc func(ctx context.Context, tx repository.Tx, c *model.ActivationCode) error
}

var _ repository.ActivationCodeRepository = (*MockActivationCodeRepo)(nil)

func NewMockActivationCodeRepo() *MockActivationCodeRepo {
	return &MockActivationCodeRepo{byID: map[string]*model.ActivationCode{}}
}

func (r *MockActivationCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.ActivationCode) error {
	r.mu.Lock()
	r.Saves++
	r.mu.Unlock()
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.byID {
		if id != c.ID && other.Code == c.Code {
			return domain.ErrAlreadyExists
		}
	}
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *MockActivationCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrCodeNotFound
}

func (r *MockActivationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

func (r *MockActivationCodeRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.ActivationCode, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*model.ActivationCode, 0, len(r.byID))
	for _, c := range r.byID {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].ID < all[k].ID })
	total := len(all)
	if offset >= total {
		return []*model.ActivationCode{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *MockActivationCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCodeNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---- Mock SpeechTaskRepository ----

type MockSpeechTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]model.SpeechTask
}

var _ repository.SpeechTaskRepository = (*MockSpeechTaskRepo)(nil)

func NewMockSpeechTaskRepo() *MockSpeechTaskRepo {
	return &MockSpeechTaskRepo{tasks: map[string]model.SpeechTask{}}
}

func (r *MockSpeechTaskRepo) Save(ctx context.Context, t *model.SpeechTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = *t
	return nil
}

func (r *MockSpeechTaskRepo) Find(ctx context.Context, id string) (*model.SpeechTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrSpeechTaskNotFound
	}
	return &t, nil
}

// =============================
// Adapters
// =============================

// ---- Mock SlideDeckVendor ----

type MockSlideVendor struct {
	mu          sync.Mutex
	StatusCalls int

	CreateJobFunc func(ctx context.Context, text string) (*adapter.SlideJobHandle, error)
	GetStatusFunc func(ctx context.Context, sid string) (*model.PPTProgress, error)
}

var _ adapter.SlideDeckVendor = (*MockSlideVendor)(nil)

func (v *MockSlideVendor) CreateJob(ctx context.Context, text string) (*adapter.SlideJobHandle, error) {
	if v.CreateJobFunc != nil {
		return v.CreateJobFunc(ctx, text)
	}
	return &adapter.SlideJobHandle{SessionID: "sid-" + uuid.NewString()[:8], Title: "title"}, nil
}

func (v *MockSlideVendor) GetStatus(ctx context.Context, sid string) (*model.PPTProgress, error) {
	v.mu.Lock()
	v.StatusCalls++
	v.mu.Unlock()
	if v.GetStatusFunc != nil {
		return v.GetStatusFunc(ctx, sid)
	}
	return &model.PPTProgress{Progress: 0}, nil
}

func (v *MockSlideVendor) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.StatusCalls
}

// MockSlideVendorFactory hands out one shared vendor and records which
// credential it was asked for.
type MockSlideVendorFactory struct {
	mu     sync.Mutex
	Vendor *MockSlideVendor
	Used   []string
}

var _ adapter.SlideDeckVendorFactory = (*MockSlideVendorFactory)(nil)

func (f *MockSlideVendorFactory) ForCredential(cred *model.VendorCredential) adapter.SlideDeckVendor {
	f.mu.Lock()
	f.Used = append(f.Used, cred.ID)
	f.mu.Unlock()
	return f.Vendor
}

// ---- Mock ChatAdapter ----

type MockChatAdapter struct {
	ModelName string
	Tokens    int
	Got       []adapter.Message
	MaxTokens int

	ChatFunc func(ctx context.Context, msgs []adapter.Message, maxTokens int) (string, adapter.Usage, error)
}

var _ adapter.ChatAdapter = (*MockChatAdapter)(nil)

func (m *MockChatAdapter) CountTokens(ctx context.Context, msgs []adapter.Message) (int, error) {
	return m.Tokens, nil
}

func (m *MockChatAdapter) ChatWithUsage(ctx context.Context, msgs []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	m.Got = msgs
	m.MaxTokens = maxTokens
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, msgs, maxTokens)
	}
	return "pong", adapter.Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4}, nil
}

func (m *MockChatAdapter) Model() string { return m.ModelName }

type MockChatFactory struct {
	Adapter *MockChatAdapter
}

var _ adapter.ChatAdapterFactory = (*MockChatFactory)(nil)

func (f *MockChatFactory) ForCredential(ctx context.Context, cred *model.VendorCredential) (adapter.ChatAdapter, error) {
	return f.Adapter, nil
}

// ---- Mock SpeechVendor ----

type MockSpeechVendor struct {
	Got        adapter.SpeechSubmission
	SubmitFunc func(ctx context.Context, cred *model.VendorCredential, req adapter.SpeechSubmission) (string, error)
}

var _ adapter.SpeechVendor = (*MockSpeechVendor)(nil)

func (m *MockSpeechVendor) Submit(ctx context.Context, cred *model.VendorCredential, req adapter.SpeechSubmission) (string, error) {
	m.Got = req
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, cred, req)
	}
	return "task-1", nil
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock LoginLimiter ----

type MockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	Resets int
}

func NewMockLimiter() *MockLimiter { return &MockLimiter{counts: map[string]int{}} }

func (l *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func (l *MockLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Resets++
	delete(l.counts, key)
	return nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// noSleep records requested sleeps without waiting.
type noSleep struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *noSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *noSleep) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slept)
}

func strPtr(s string) *string { return &s }
