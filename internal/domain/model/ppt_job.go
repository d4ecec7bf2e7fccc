package model

import (
	"strings"
	"time"

	"ai-assistant-backend/internal/domain"
)

type PPTJobStatus string

const (
	PPTJobPending PPTJobStatus = "pending"
	PPTJobFailed  PPTJobStatus = "failed"
	PPTJobDone    PPTJobStatus = "done"
)

const (
	// DefaultMaxPollErrors is the failure ceiling after which a job is no longer polled.
	DefaultMaxPollErrors = 10
	ProgressComplete     = 100
)

// PPTJob tracks one slide-deck generation request from creation until it is
// done or abandoned. SessionID is assigned by the vendor and never changes.
type PPTJob struct {
	ID          int64
	SessionID   string
	UserID      string
	Text        string
	Title       string
	SubTitle    string
	CoverImgSrc string

	Progress   int
	PPTURL     *string // nil until the vendor reports an artifact
	ErrMsg     *string
	ErrorCount int
	Status     PPTJobStatus

	// Lease held by whichever poller is currently talking to the vendor.
	ClaimToken   *string
	ClaimedUntil *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPPTJob builds the record stored right after the vendor accepted a request.
func NewPPTJob(userID, text, sessionID, title, subTitle, coverImgSrc string) (*PPTJob, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &PPTJob{
		SessionID:   sessionID,
		UserID:      userID,
		Text:        text,
		Title:       title,
		SubTitle:    subTitle,
		CoverImgSrc: coverImgSrc,
		Status:      PPTJobPending,
	}, nil
}

// IsTerminal reports whether pollers should leave the job alone.
func (j *PPTJob) IsTerminal() bool {
	return j.Progress == ProgressComplete || j.Status != PPTJobPending
}

// Selectable mirrors the store predicate used to pick the next job to poll.
func (j *PPTJob) Selectable(maxErrors int, now time.Time) bool {
	if j.IsTerminal() || j.ErrorCount > maxErrors {
		return false
	}
	return j.ClaimedUntil == nil || j.ClaimedUntil.Before(now)
}

// PPTProgress is the vendor-side view of a job returned by a status poll.
type PPTProgress struct {
	Progress int
	PPTURL   *string
	ErrMsg   *string
}

// PPTJobPatch is a partial update. Nil fields are left untouched by stores.
type PPTJobPatch struct {
	Progress   *int
	PPTURL     *string
	ErrMsg     *string
	ErrorCount *int
	Status     *PPTJobStatus
}

func (p PPTJobPatch) IsEmpty() bool {
	return p.Progress == nil && p.PPTURL == nil && p.ErrMsg == nil && p.ErrorCount == nil && p.Status == nil
}

// Apply writes the non-nil fields of p onto j.
func (j *PPTJob) Apply(p PPTJobPatch) {
	if p.Progress != nil {
		j.Progress = *p.Progress
	}
	if p.PPTURL != nil {
		v := *p.PPTURL
		j.PPTURL = &v
	}
	if p.ErrMsg != nil {
		v := *p.ErrMsg
		j.ErrMsg = &v
	}
	if p.ErrorCount != nil {
		j.ErrorCount = *p.ErrorCount
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
}
