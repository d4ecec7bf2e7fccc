package apiv1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/infra/logging"
)

// ===== Token primitives =====

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
	errExpiredToken = errors.New("token expired")
)

type AuthManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthManager(secret string, ttl time.Duration) *AuthManager {
	return &AuthManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type UserClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Token is the login response body.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpireAt    time.Time `json:"expire_at"`
}

// Mint signs an HS256 token whose subject is the username.
func (a *AuthManager) Mint(u *model.User) (*Token, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := UserClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   u.Username,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, TokenType: "bearer", ExpireAt: exp.UTC()}, nil
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*UserClaims, error) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errMissingToken
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*UserClaims, error) {
	claims := &UserClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, errExpiredToken
	}
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// ===== Request guards =====

type ctxUserKey struct{}

func currentUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxUserKey{}).(*model.User)
	return u
}

// authenticated resolves the bearer token to a user. Disabled accounts stop
// here unless allowDisabled is set.
func (s *Server) authenticated(allowDisabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := s.auth.ParseFromRequest(r)
			if errors.Is(err, errExpiredToken) {
				s.writeError(w, r, http.StatusUnauthorized, ErrTokenExpired)
				return
			}
			if err != nil {
				s.writeError(w, r, http.StatusUnauthorized, ErrTokenValidation)
				return
			}
			u, err := s.users.GetByUsername(r.Context(), claims.Subject)
			if errors.Is(err, domain.ErrUserNotFound) {
				s.writeError(w, r, http.StatusUnauthorized, ErrTokenValidation)
				return
			}
			if err != nil {
				s.fail(w, r, err)
				return
			}
			if u.Disabled && !allowDisabled {
				s.writeError(w, r, http.StatusUnauthorized, ErrAccountDisabled)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
			ctx = logging.WithUserID(ctx, u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := currentUser(r.Context()); u == nil || !u.HasRole(roles...) {
				s.writeError(w, r, http.StatusForbidden, ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireActive gates the vendor-backed routes on the paid-through date.
func (s *Server) requireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := currentUser(r.Context()); u == nil || u.IsExpired(s.auth.now()) {
			s.writeError(w, r, http.StatusUnauthorized, ErrIsExpired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
