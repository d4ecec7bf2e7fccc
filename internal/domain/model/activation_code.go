package model

import (
	"time"

	"ai-assistant-backend/internal/domain"

	"github.com/oklog/ulid/v2"
)

type ActivationCodeStatus string

const (
	CodeActive  ActivationCodeStatus = "active"
	CodeUsed    ActivationCodeStatus = "used"
	CodeExpired ActivationCodeStatus = "expired"
)

const (
	MinCodeQuotaDays = 1
	MaxCodeQuotaDays = 365
)

func (s ActivationCodeStatus) Valid() bool {
	return s == CodeActive || s == CodeUsed || s == CodeExpired
}

// ActivationCode is a single-use key that extends a user's access by QuotaDays.
type ActivationCode struct {
	ID        string
	Code      string
	Status    ActivationCodeStatus
	QuotaDays int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewActivationCode(code string, quotaDays int) (*ActivationCode, error) {
	if code == "" || quotaDays < MinCodeQuotaDays || quotaDays > MaxCodeQuotaDays {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &ActivationCode{
		ID:        ulid.Make().String(),
		Code:      code,
		Status:    CodeActive,
		QuotaDays: quotaDays,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Redeem marks the code used. It fails for codes that were used or expired.
func (c *ActivationCode) Redeem() error {
	switch c.Status {
	case CodeUsed:
		return domain.ErrCodeAlreadyUsed
	case CodeExpired:
		return domain.ErrCodeExpired
	}
	c.Status = CodeUsed
	c.UpdatedAt = time.Now()
	return nil
}
