package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Accounts
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrPasswordIncorrect  = errors.New("password incorrect")
	ErrPasswordNotMatch   = errors.New("passwords do not match")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAccessExpired      = errors.New("access has expired")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrCodeNotFound       = errors.New("activation code not found")
	ErrCodeAlreadyUsed    = errors.New("activation code already used")
	ErrCodeExpired        = errors.New("activation code expired")
	ErrNoCredential       = errors.New("no enabled vendor credential")
	ErrPromptTooLong      = errors.New("prompt exceeds token budget")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrSpeechTaskNotFound = errors.New("speech task not found")

	// Slide jobs
	ErrJobNotFound   = errors.New("ppt job not found")
	ErrJobClaimed    = errors.New("ppt job is claimed by another poller")
	ErrPollAbandoned = errors.New("ppt job polling abandoned after repeated failures")
)
