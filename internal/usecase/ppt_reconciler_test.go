//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
	ports "ai-assistant-backend/internal/domain/ports/usecase"
	"ai-assistant-backend/internal/usecase"
)

func rejected() error {
	return &domain.VendorRejectedError{Vendor: "xunfei_ppt", Code: 20002, Message: "sid invalid"}
}

func newReconciler(jobs *MockPPTJobRepo, creds *MockCredentialRepo, vendor *MockSlideVendor, maxErrors int) ports.PPTReconciler {
	factory := &MockSlideVendorFactory{Vendor: vendor}
	return usecase.NewPPTReconciler(jobs, creds, factory, usecase.PPTReconcilerOptions{MaxErrors: maxErrors, LeaseTTL: time.Minute}, newTestLogger())
}

func TestPPTReconciler_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("aborts silently without an enabled credential", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "sid-1", UserID: "u1"})
		vendor := &MockSlideVendor{}
		r := newReconciler(jobs, NewMockCredentialRepo(), vendor, 10)

		if err := r.Tick(ctx); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if vendor.Calls() != 0 {
			t.Errorf("vendor must not be called, got %d calls", vendor.Calls())
		}
		if len(jobs.Updates) != 0 {
			t.Errorf("no job may be updated, got %d updates", len(jobs.Updates))
		}
	})

	t.Run("is a no-op when nothing is unfinished", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "done", UserID: "u1", Progress: 100, Status: model.PPTJobDone})
		vendor := &MockSlideVendor{}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), vendor, 10)

		if err := r.Tick(ctx); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if vendor.Calls() != 0 {
			t.Errorf("vendor must not be called, got %d calls", vendor.Calls())
		}
	})

	t.Run("successful poll writes only returned fields and keeps the error count", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "sid-1", UserID: "u1", Progress: 40, ErrMsg: strPtr("old"), ErrorCount: 2})
		vendor := &MockSlideVendor{GetStatusFunc: func(ctx context.Context, sid string) (*model.PPTProgress, error) {
			return &model.PPTProgress{Progress: 60}, nil
		}}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), vendor, 10)

		if err := r.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		got := jobs.Snapshot("sid-1")
		if got.Progress != 60 {
			t.Errorf("expected progress 60, got %d", got.Progress)
		}
		if got.ErrMsg == nil || *got.ErrMsg != "old" {
			t.Error("error message must be left untouched when the vendor omits it")
		}
		if got.PPTURL != nil {
			t.Error("artifact url must stay empty")
		}
		if got.ErrorCount != 2 {
			t.Errorf("error count must be unchanged, got %d", got.ErrorCount)
		}
		if got.ClaimToken != nil {
			t.Error("lease must be released after the tick")
		}
	})

	t.Run("three vendor failures leave the job selectable at progress 0", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "sid-1", UserID: "u1"})
		calls := 0
		vendor := &MockSlideVendor{GetStatusFunc: func(ctx context.Context, sid string) (*model.PPTProgress, error) {
			calls++
			if calls%2 == 0 {
				return nil, &domain.VendorUnavailableError{Vendor: "xunfei_ppt", StatusCode: 502}
			}
			return nil, rejected()
		}}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), vendor, 10)

		for i := 0; i < 3; i++ {
			if err := r.Tick(ctx); err != nil {
				t.Fatalf("tick %d: vendor errors must not propagate, got %v", i, err)
			}
		}
		got := jobs.Snapshot("sid-1")
		if got.ErrorCount != 3 {
			t.Errorf("expected error count 3, got %d", got.ErrorCount)
		}
		if got.Progress != 0 || got.PPTURL != nil || got.ErrMsg != nil {
			t.Errorf("a failed poll must not touch other fields: %+v", got)
		}
		if _, err := jobs.FindOneUnfinished(ctx, nil, 10); err != nil {
			t.Errorf("job should still be selectable, got %v", err)
		}
	})

	t.Run("completion stores the artifact and removes the job from selection", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "sid-1", UserID: "u1", Progress: 40})
		vendor := &MockSlideVendor{GetStatusFunc: func(ctx context.Context, sid string) (*model.PPTProgress, error) {
			return &model.PPTProgress{Progress: 100, PPTURL: strPtr("https://x/y.pptx")}, nil
		}}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), vendor, 10)

		if err := r.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		got := jobs.Snapshot("sid-1")
		if got.Progress != 100 || got.PPTURL == nil || *got.PPTURL != "https://x/y.pptx" {
			t.Fatalf("unexpected job after completion: %+v", got)
		}
		if got.Status != model.PPTJobDone {
			t.Errorf("expected status done, got %s", got.Status)
		}
		if _, err := jobs.FindOneUnfinished(ctx, nil, 10); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("finished job must not be selectable, got %v", err)
		}
	})

	t.Run("a job past the ceiling is failed and never polled again", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "sid-1", UserID: "u1"})
		vendor := &MockSlideVendor{GetStatusFunc: func(ctx context.Context, sid string) (*model.PPTProgress, error) {
			return nil, rejected()
		}}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), vendor, 3)

		for i := 0; i < 6; i++ {
			if err := r.Tick(ctx); err != nil {
				t.Fatalf("tick %d: %v", i, err)
			}
		}
		if vendor.Calls() != 3 {
			t.Errorf("expected exactly 3 vendor calls, got %d", vendor.Calls())
		}
		got := jobs.Snapshot("sid-1")
		if got.Status != model.PPTJobFailed {
			t.Errorf("expected status failed, got %s", got.Status)
		}
		if got.ErrorCount != 3 {
			t.Errorf("expected error count 3, got %d", got.ErrorCount)
		}
	})

	t.Run("polls the oldest job first", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "older", UserID: "u1"})
		jobs.Seed(&model.PPTJob{SessionID: "newer", UserID: "u1"})
		var polled []string
		vendor := &MockSlideVendor{GetStatusFunc: func(ctx context.Context, sid string) (*model.PPTProgress, error) {
			polled = append(polled, sid)
			return &model.PPTProgress{Progress: 100}, nil
		}}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), vendor, 10)

		_ = r.Tick(ctx)
		_ = r.Tick(ctx)
		if len(polled) != 2 || polled[0] != "older" || polled[1] != "newer" {
			t.Errorf("unexpected poll order: %v", polled)
		}
	})

	t.Run("skips a job leased by another poller", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "sid-1", UserID: "u1"})
		if _, err := jobs.ClaimBySessionID(ctx, "sid-1", time.Minute); err != nil {
			t.Fatalf("claim: %v", err)
		}
		vendor := &MockSlideVendor{}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), vendor, 10)

		if err := r.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		if vendor.Calls() != 0 {
			t.Errorf("leased job must not be polled, got %d calls", vendor.Calls())
		}
	})

	t.Run("a job that vanished before the update is a logged no-op", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		jobs.Seed(&model.PPTJob{SessionID: "sid-1", UserID: "u1"})
		jobs.UpdateFunc = func(ctx context.Context, tx repository.Tx, sid string, patch model.PPTJobPatch) (*model.PPTJob, error) {
			return nil, domain.ErrJobNotFound
		}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), &MockSlideVendor{}, 10)

		if err := r.Tick(ctx); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("store failures surface to the scheduler", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		boom := errors.New("db down")
		jobs.ClaimNextUnfinishedFunc = func(ctx context.Context, maxErrors int, ttl time.Duration) (*model.PPTJob, error) {
			return nil, boom
		}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), &MockSlideVendor{}, 10)

		if err := r.Tick(ctx); !errors.Is(err, boom) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("passes the configured ceiling to the store", func(t *testing.T) {
		jobs := NewMockPPTJobRepo()
		var gotMax int
		var gotTTL time.Duration
		jobs.ClaimNextUnfinishedFunc = func(ctx context.Context, maxErrors int, ttl time.Duration) (*model.PPTJob, error) {
			gotMax, gotTTL = maxErrors, ttl
			return nil, domain.ErrNotFound
		}
		r := newReconciler(jobs, NewMockCredentialRepo(xunfeiCred()), &MockSlideVendor{}, 0)

		if err := r.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		if gotMax != model.DefaultMaxPollErrors {
			t.Errorf("expected default ceiling %d, got %d", model.DefaultMaxPollErrors, gotMax)
		}
		if gotTTL != time.Minute {
			t.Errorf("expected lease ttl 1m, got %v", gotTTL)
		}
	})
}
