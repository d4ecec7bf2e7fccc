package model

import (
	"strings"
	"time"

	"ai-assistant-backend/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// User is an account that can call the vendor proxies until ExpirationDate.
type User struct {
	ID             string
	Username       string
	Email          string
	HashedPassword string
	FullName       *string
	Disabled       bool
	Role           Role
	ExpirationDate time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewUser(id, username, email, hashedPassword string, role Role) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if strings.TrimSpace(username) == "" || hashedPassword == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:             id,
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
		ExpirationDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (u *User) IsExpired(now time.Time) bool { return u.ExpirationDate.Before(now) }

func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Extend pushes the expiration date forward. An already expired account is
// extended from its old expiration date, not from now.
func (u *User) Extend(days int) {
	u.ExpirationDate = u.ExpirationDate.AddDate(0, 0, days)
}

// UserPatch carries an admin or self-service update. Password is plain text and
// is hashed by the use case before it reaches the repository.
type UserPatch struct {
	Username       *string
	Email          *string
	Password       *string
	FullName       *string
	Disabled       *bool
	Role           *Role
	ExpirationDate *time.Time
}
