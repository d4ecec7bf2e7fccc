package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/infra/api"
	"ai-assistant-backend/internal/infra/i18n"
	"ai-assistant-backend/internal/usecase"
)

const maxJSONBody = 1 << 20

// Deps carries the use cases behind the routes. A nil Speech or Chat turns
// the matching routes into 501s.
type Deps struct {
	Users  usecase.UserUseCase
	Codes  usecase.ActivationCodeUseCase
	Creds  usecase.CredentialUseCase
	PPT    usecase.PPTUseCase
	Chat   usecase.ChatUseCase
	Speech usecase.SpeechUseCase

	Auth *AuthManager
	I18n *i18n.Bundle

	// UploadDir is served read-only under usecase.UploadRoute.
	UploadDir      string
	RequestTimeout time.Duration
	WaitTimeout    time.Duration
}

type Server struct {
	users  usecase.UserUseCase
	codes  usecase.ActivationCodeUseCase
	creds  usecase.CredentialUseCase
	ppt    usecase.PPTUseCase
	chat   usecase.ChatUseCase
	speech usecase.SpeechUseCase

	auth *AuthManager
	i18n *i18n.Bundle
	log  *zerolog.Logger

	uploadDir      string
	requestTimeout time.Duration
	waitTimeout    time.Duration
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 60 * time.Second
	}
	if d.WaitTimeout <= 0 {
		d.WaitTimeout = 15 * time.Minute
	}
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{
		users:          d.Users,
		codes:          d.Codes,
		creds:          d.Creds,
		ppt:            d.PPT,
		chat:           d.Chat,
		speech:         d.Speech,
		auth:           d.Auth,
		i18n:           d.I18n,
		log:            &l,
		uploadDir:      d.UploadDir,
		requestTimeout: d.RequestTimeout,
		waitTimeout:    d.WaitTimeout,
	}
}

// RegisterAPIV1 mounts every route under /api plus the uploaded file tree.
func RegisterAPIV1(r chi.Router, s *Server) {
	admins := []model.Role{model.RoleAdmin, model.RoleSuperAdmin}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(api.Timeout(s.requestTimeout))

			r.Get("/errors", s.listErrors)
			r.Post("/register", s.register)
			r.Post("/login/token", s.login)
			r.Post("/register/mac_address", s.registerDevice)
			r.Post("/login/token/mac_address", s.loginDevice)
			r.Post("/speech/callback", s.speechCallback)

			r.With(s.authenticated(true)).Get("/users/me", s.me)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticated(false))

				r.Post("/refresh/token", s.refresh)
				r.Post("/refresh/token/mac_address", s.refresh)
				r.Put("/users/password", s.changePassword)
				r.Post("/users/charge", s.charge)

				r.Group(func(r chi.Router) {
					r.Use(s.requireRole(admins...))

					r.Get("/users", s.listUsers)
					r.Post("/users", s.createUser)
					r.Get("/users/{id}", s.getUser)
					r.Put("/users/{id}", s.updateUser)
					r.Delete("/users/{id}", s.deleteUser)

					r.Get("/cdkeys", s.listCdkeys)
					r.Post("/cdkeys", s.generateCdkeys)
					r.Get("/cdkeys/{id}", s.getCdkey)
					r.Put("/cdkeys/{id}", s.updateCdkey)
					r.Delete("/cdkeys/{id}", s.deleteCdkey)

					r.Get("/config/{vendor}", s.listConfigs)
					r.Post("/config/{vendor}", s.createConfig)
					r.Get("/config/{vendor}/{id}", s.getConfig)
					r.Put("/config/{vendor}/{id}", s.updateConfig)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requireActive)

					r.Post("/aippt/task", s.createPPTTask)
					r.Get("/aippt/task", s.listPPTTasks)
					r.Get("/aippt/task/{sid}", s.getPPTTask)

					r.Post("/aichat", s.aiChat)

					r.Post("/speech/submit", s.speechSubmit)
					r.Get("/speech/result/{task_id}", s.speechResult)
				})
			})
		})

		// Blocks for minutes, so it gets its own deadline.
		r.With(api.Timeout(s.waitTimeout), s.authenticated(false), s.requireActive).
			Get("/aippt/task/{sid}/wait", s.waitPPTTask)
	})

	if s.uploadDir != "" {
		files := http.StripPrefix(usecase.UploadRoute, noDirListing(http.FileServer(http.Dir(s.uploadDir))))
		r.Handle(usecase.UploadRoute+"*", files)
	}
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ===== helpers =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// decodeOr400 writes the 400 itself and reports whether decoding succeeded.
func (s *Server) decodeOr400(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return false
	}
	return true
}

// bindPage reads page and per_page. Zero values are left for the use case
// to default; out-of-range values are a 400.
func (s *Server) bindPage(w http.ResponseWriter, r *http.Request) (page, perPage int, ok bool) {
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return 0, 0, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "per_page", q, &perPage); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return 0, 0, false
	}
	if page < 0 || page > usecase.MaxPage || perPage < 0 || perPage > 100 {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return 0, 0, false
	}
	return page, perPage, true
}

// pathParam binds a required simple-style path parameter.
func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || v == "" {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return "", false
	}
	return v, true
}

func (s *Server) notWired(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, errorResponse{Detail: ErrorDetail{Error: "NOT_IMPLEMENTED", Code: 0, Message: "feature not configured"}})
}
