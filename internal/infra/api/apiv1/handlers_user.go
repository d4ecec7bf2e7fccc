package apiv1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type macAddressRequest struct {
	MacAddress string `json:"mac_address"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type chargeRequest struct {
	Key string `json:"key"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Username       *string    `json:"username"`
	Email          *string    `json:"email"`
	Password       *string    `json:"password"`
	FullName       *string    `json:"full_name"`
	Disabled       *bool      `json:"disabled"`
	Role           *string    `json:"role"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

type userList struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	u, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, domain.ErrUsernameTaken) || errors.Is(err, domain.ErrEmailTaken) {
		s.writeError(w, r, http.StatusBadRequest, ErrAccountExists)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) registerDevice(w http.ResponseWriter, r *http.Request) {
	var req macAddressRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	u, err := s.users.RegisterDevice(r.Context(), req.MacAddress)
	if errors.Is(err, domain.ErrUsernameTaken) || errors.Is(err, domain.ErrEmailTaken) {
		s.writeError(w, r, http.StatusBadRequest, ErrAccountExists)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

// login accepts the OAuth2 password form as well as a JSON body.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !s.decodeOr400(w, r, &req) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
			return
		}
		req.Username, req.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	}
	s.issueToken(w, r, req.Username, req.Password)
}

func (s *Server) loginDevice(w http.ResponseWriter, r *http.Request) {
	var req macAddressRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	s.issueToken(w, r, req.MacAddress, req.MacAddress)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, username, password string) {
	if username == "" || password == "" {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return
	}
	u, err := s.users.Authenticate(r.Context(), username, password)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.writeError(w, r, http.StatusUnauthorized, ErrAccountNotFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeToken(w, r, u)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.writeToken(w, r, currentUser(r.Context()))
}

func (s *Server) writeToken(w http.ResponseWriter, r *http.Request, u *model.User) {
	tok, err := s.auth.Mint(u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUser(currentUser(r.Context())))
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	u, err := s.users.ChangePassword(r.Context(), currentUser(r.Context()).ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if errors.Is(err, domain.ErrPasswordIncorrect) {
		// A wrong old password is a bad request here, not a failed login.
		s.writeError(w, r, http.StatusBadRequest, ErrPasswordIncorrect)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) charge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	u, err := s.users.Charge(r.Context(), currentUser(r.Context()).ID, strings.TrimSpace(req.Key))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

// ===== admin =====

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := s.bindPage(w, r)
	if !ok {
		return
	}
	users, total, err := s.users.List(r.Context(), page, perPage)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := userList{Users: make([]User, 0, len(users)), Total: total}
	for _, u := range users {
		out.Users = append(out.Users, toUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	role := model.Role(req.Role)
	if req.Role == "" {
		role = model.RoleUser
	}
	if !s.canGrant(r, role) {
		s.writeError(w, r, http.StatusForbidden, ErrPermissionDenied)
		return
	}
	u, err := s.users.Create(r.Context(), req.Username, req.Email, req.Password, role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

// canGrant keeps plain admins from minting superadmins.
func (s *Server) canGrant(r *http.Request, role model.Role) bool {
	if role != model.RoleSuperAdmin {
		return true
	}
	return currentUser(r.Context()).Role == model.RoleSuperAdmin
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	patch := model.UserPatch{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Disabled:       req.Disabled,
		ExpirationDate: req.ExpirationDate,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		if !s.canGrant(r, role) {
			s.writeError(w, r, http.StatusForbidden, ErrPermissionDenied)
			return
		}
		patch.Role = &role
	}
	u, err := s.users.Update(r.Context(), id, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	u, err := s.users.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}
