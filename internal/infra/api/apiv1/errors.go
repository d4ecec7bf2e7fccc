package apiv1

import (
	"context"
	"errors"
	"net/http"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/infra/logging"
)

// ErrorCode is one entry of the client-facing error catalogue. Name doubles
// as the translation key for the message.
type ErrorCode struct {
	Name string
	Code int
}

var (
	ErrPasswordIncorrect   = ErrorCode{"PASSWORD_INCORRECT", 1001}
	ErrAccountNotFound     = ErrorCode{"ACCOUNT_NOT_FOUND", 1002}
	ErrPermissionDenied    = ErrorCode{"PERMISSION_DENIED", 1003}
	ErrTokenExpired        = ErrorCode{"TOKEN_EXPIRED", 1004}
	ErrAccountExists       = ErrorCode{"ACCOUNT_ALREADY_EXISTS", 1005}
	ErrTokenValidation     = ErrorCode{"TOKEN_VALIDATION_ERROR", 1006}
	ErrAccountDisabled     = ErrorCode{"ACCOUNT_DISABLED", 1007}
	ErrEmailExists         = ErrorCode{"EMAIL_ALREADY_EXISTS", 1008}
	ErrUsernameExists      = ErrorCode{"USERNAME_ALREADY_EXISTS", 1009}
	ErrUserNotFound        = ErrorCode{"USER_NOT_FOUND", 1010}
	ErrPasswordNotMatch    = ErrorCode{"PASSWORD_NOT_MATCH", 1011}
	ErrIsExpired           = ErrorCode{"IS_EXPIRED", 1012}
	ErrTooManyAttempts     = ErrorCode{"TOO_MANY_ATTEMPTS", 1013}
	ErrCdkeyNotFound       = ErrorCode{"CDKEY_NOT_FOUND", 2001}
	ErrCdkeyUsed           = ErrorCode{"CDKEY_USED", 2002}
	ErrCdkeyExpired        = ErrorCode{"CDKEY_EXPIRED", 2003}
	ErrAPIConfigNotFound   = ErrorCode{"API_CONFIG_NOT_FOUND", 3001}
	ErrPPTTaskNotFound     = ErrorCode{"AI_PPT_TASK_NOT_FOUND", 3002}
	ErrVendorRejected      = ErrorCode{"VENDOR_REJECTED", 3003}
	ErrVendorUnavailable   = ErrorCode{"VENDOR_UNAVAILABLE", 3004}
	ErrPromptTooLong       = ErrorCode{"PROMPT_TOO_LONG", 3005}
	ErrSpeechInvalidFile   = ErrorCode{"SPEECH_INVALID_FILE", 4001}
	ErrSpeechProcess       = ErrorCode{"SPEECH_PROCESS_ERROR", 4002}
	ErrSpeechTaskNotFound  = ErrorCode{"SPEECH_TASK_NOT_FOUND", 4003}
	ErrInvalidArgument     = ErrorCode{"INVALID_ARGUMENT", 9001}
	ErrNotFound            = ErrorCode{"NOT_FOUND", 9002}
	ErrInternal            = ErrorCode{"INTERNAL_ERROR", 9003}
	ErrProgressUnavailable = ErrorCode{"PROGRESS_UNAVAILABLE", 9004}
)

// ErrorCodes lists the catalogue in code order.
var ErrorCodes = []ErrorCode{
	ErrPasswordIncorrect, ErrAccountNotFound, ErrPermissionDenied, ErrTokenExpired,
	ErrAccountExists, ErrTokenValidation, ErrAccountDisabled, ErrEmailExists,
	ErrUsernameExists, ErrUserNotFound, ErrPasswordNotMatch, ErrIsExpired, ErrTooManyAttempts,
	ErrCdkeyNotFound, ErrCdkeyUsed, ErrCdkeyExpired,
	ErrAPIConfigNotFound, ErrPPTTaskNotFound, ErrVendorRejected, ErrVendorUnavailable, ErrPromptTooLong,
	ErrSpeechInvalidFile, ErrSpeechProcess, ErrSpeechTaskNotFound,
	ErrInvalidArgument, ErrNotFound, ErrInternal, ErrProgressUnavailable,
}

// ErrorDetail is the wire shape of an error, wrapped as {"detail": ...}.
type ErrorDetail struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail ErrorDetail `json:"detail"`
}

func (s *Server) detail(r *http.Request, ec ErrorCode) ErrorDetail {
	msg := ec.Name
	if s.i18n != nil {
		msg = s.i18n.Pick(r.Header.Get("Accept-Language")).T(ec.Name)
	}
	return ErrorDetail{Error: ec.Name, Code: ec.Code, Message: msg}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, ec ErrorCode) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorResponse{Detail: s.detail(r, ec)})
}

// fail maps a use-case error onto a status and catalogue entry. Anything
// unrecognised is logged and reported as 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, ec := classify(err)
	if status >= http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	s.writeError(w, r, status, ec)
}

func classify(err error) (int, ErrorCode) {
	var rejected *domain.VendorRejectedError
	var unavailable *domain.VendorUnavailableError

	switch {
	case errors.Is(err, domain.ErrPasswordIncorrect):
		return http.StatusUnauthorized, ErrPasswordIncorrect
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrUserNotFound
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest, ErrUsernameExists
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, ErrEmailExists
	case errors.Is(err, domain.ErrPasswordNotMatch):
		return http.StatusBadRequest, ErrPasswordNotMatch
	case errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusUnauthorized, ErrAccountDisabled
	case errors.Is(err, domain.ErrAccessExpired):
		return http.StatusUnauthorized, ErrIsExpired
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, ErrPermissionDenied
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, ErrTooManyAttempts
	case errors.Is(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, ErrCdkeyNotFound
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return http.StatusBadRequest, ErrCdkeyUsed
	case errors.Is(err, domain.ErrCodeExpired):
		return http.StatusBadRequest, ErrCdkeyExpired
	case errors.Is(err, domain.ErrNoCredential):
		return http.StatusNotFound, ErrAPIConfigNotFound
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, ErrPPTTaskNotFound
	case errors.Is(err, domain.ErrPromptTooLong):
		return http.StatusBadRequest, ErrPromptTooLong
	case errors.Is(err, domain.ErrUnsupportedMedia):
		return http.StatusBadRequest, ErrSpeechInvalidFile
	case errors.Is(err, domain.ErrSpeechTaskNotFound):
		return http.StatusNotFound, ErrSpeechTaskNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, ErrInvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrNotFound
	case errors.As(err, &rejected):
		return http.StatusBadGateway, ErrVendorRejected
	case errors.As(err, &unavailable):
		return http.StatusBadGateway, ErrVendorUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrVendorUnavailable
	}
	return http.StatusInternalServerError, ErrInternal
}

func (s *Server) listErrors(w http.ResponseWriter, r *http.Request) {
	out := make([]ErrorDetail, 0, len(ErrorCodes))
	for _, ec := range ErrorCodes {
		out = append(out, s.detail(r, ec))
	}
	writeJSON(w, http.StatusOK, out)
}
