package apiv1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/infra/logging"
)

type createPPTTaskRequest struct {
	Text string `json:"text"`
}

func (s *Server) createPPTTask(w http.ResponseWriter, r *http.Request) {
	var follow bool
	if err := runtime.BindQueryParameter("form", true, false, "follow", r.URL.Query(), &follow); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return
	}
	var req createPPTTaskRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return
	}
	job, err := s.ppt.Submit(r.Context(), currentUser(r.Context()).ID, req.Text, follow)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPPTTask(job))
}

func (s *Server) listPPTTasks(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := s.bindPage(w, r)
	if !ok {
		return
	}
	jobs, total, err := s.ppt.ListByUser(r.Context(), currentUser(r.Context()).ID, page, perPage)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]PPTTask, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toPPTTask(j))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, out)
}

// ownedJob loads a job the caller may see. Other users' jobs read as missing
// so session ids cannot be probed.
func (s *Server) ownedJob(w http.ResponseWriter, r *http.Request) (*model.PPTJob, bool) {
	sid, ok := s.pathParam(w, r, "sid")
	if !ok {
		return nil, false
	}
	job, err := s.ppt.Get(r.Context(), sid)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	u := currentUser(r.Context())
	if job.UserID != u.ID && !u.HasRole(model.RoleAdmin, model.RoleSuperAdmin) {
		s.writeError(w, r, http.StatusNotFound, ErrPPTTaskNotFound)
		return nil, false
	}
	return job, true
}

func (s *Server) getPPTTask(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPPTTask(job))
}

// waitPPTTask polls inside the request. Giving up is not an error for the
// client: it gets the last stored record and a notice.
func (s *Server) waitPPTTask(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	ctx := logging.WithSessID(r.Context(), job.SessionID)
	final, err := s.ppt.Wait(ctx, job.SessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toPPTTask(final))
	case errors.Is(err, domain.ErrPollAbandoned), errors.Is(err, context.DeadlineExceeded):
		l := logging.With(ctx, s.log)
		l.Warn().Err(err).Msg("wait gave up; returning last stored progress")
		if final == nil {
			final = job
		}
		out := toPPTTask(s.lastStored(r.Context(), final))
		out.Notice = s.detail(r, ErrProgressUnavailable).Message
		writeJSON(w, http.StatusOK, out)
	default:
		s.fail(w, r, err)
	}
}

// lastStored re-reads the job even when the request deadline has passed.
func (s *Server) lastStored(ctx context.Context, fallback *model.PPTJob) *model.PPTJob {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	job, err := s.ppt.Get(rctx, fallback.SessionID)
	if err != nil {
		return fallback
	}
	return job
}
