package apiv1

import (
	"errors"
	"net/http"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/infra/adapters/openspeech"
	"ai-assistant-backend/internal/infra/logging"
)

const multipartMemory = 32 << 20

type chatRequest struct {
	Messages []adapter.Message `json:"messages"`
}

func (s *Server) aiChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.notWired(w, r)
		return
	}
	var req chatRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, r, http.StatusBadRequest, ErrInvalidArgument)
		return
	}
	reply, err := s.chat.Complete(r.Context(), req.Messages)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) speechSubmit(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		s.notWired(w, r)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrSpeechInvalidFile)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrSpeechInvalidFile)
		return
	}
	defer file.Close()

	res, err := s.speech.Submit(r.Context(), currentUser(r.Context()).Username, hdr.Header.Get("Content-Type"), file)
	if domain.IsVendorError(err) {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("speech submit rejected by vendor")
		s.writeError(w, r, http.StatusInternalServerError, ErrSpeechProcess)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type speechCallbackRequest struct {
	Resp openspeech.Resp `json:"resp"`
}

// speechCallback always acknowledges; the vendor does not retry on errors we
// could act on.
func (s *Server) speechCallback(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		s.notWired(w, r)
		return
	}
	var req speechCallbackRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	l := logging.With(r.Context(), s.log)
	if req.Resp.Code == openspeech.CodeSuccess && req.Resp.ID != "" {
		err := s.speech.Complete(r.Context(), req.Resp.ID, req.Resp.Text)
		switch {
		case errors.Is(err, domain.ErrSpeechTaskNotFound):
			l.Warn().Str("task_id", req.Resp.ID).Msg("callback for unknown speech task")
		case err != nil:
			s.fail(w, r, err)
			return
		}
	} else {
		l.Warn().Str("task_id", req.Resp.ID).Int("code", req.Resp.Code).Str("message", req.Resp.Message).Msg("speech task failed at vendor")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) speechResult(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		s.notWired(w, r)
		return
	}
	id, ok := s.pathParam(w, r, "task_id")
	if !ok {
		return
	}
	t, err := s.speech.Result(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpeechTask(t))
}
