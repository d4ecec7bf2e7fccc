package apiv1

import (
	"errors"
	"net/http"
	"strconv"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
)

type generateCdkeysRequest struct {
	Num   int `json:"num"`
	Quota int `json:"quota"`
}

type updateCdkeyRequest struct {
	Quota  int    `json:"quota"`
	Status string `json:"status"`
}

type cdkeyList struct {
	Cdkeys []Cdkey `json:"cdkeys"`
	Total  int     `json:"total"`
}

func (s *Server) listCdkeys(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := s.bindPage(w, r)
	if !ok {
		return
	}
	codes, total, err := s.codes.List(r.Context(), page, perPage)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := cdkeyList{Cdkeys: make([]Cdkey, 0, len(codes)), Total: total}
	for _, c := range codes {
		out.Cdkeys = append(out.Cdkeys, toCdkey(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) generateCdkeys(w http.ResponseWriter, r *http.Request) {
	var req generateCdkeysRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	codes, err := s.codes.Generate(r.Context(), req.Num, req.Quota)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]Cdkey, 0, len(codes))
	for _, c := range codes {
		out = append(out, toCdkey(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCdkey(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	c, err := s.codes.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCdkey(c))
}

func (s *Server) updateCdkey(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	var req updateCdkeyRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	c, err := s.codes.Update(r.Context(), id, req.Quota, model.ActivationCodeStatus(req.Status))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCdkey(c))
}

func (s *Server) deleteCdkey(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	c, err := s.codes.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCdkey(c))
}

// ===== vendor credentials =====

type apiConfigRequest struct {
	Name      *string `json:"name"`
	AppID     *string `json:"app_id"`
	APISecret *string `json:"api_secret"`
	Model     *string `json:"model"`
	Cluster   *string `json:"cluster"`
	Enabled   *bool   `json:"enabled"`
}

func (req apiConfigRequest) patch() model.VendorCredentialPatch {
	return model.VendorCredentialPatch{
		Name:    req.Name,
		AppID:   req.AppID,
		Secret:  req.APISecret,
		Model:   req.Model,
		Cluster: req.Cluster,
		Enabled: req.Enabled,
	}
}

func (s *Server) vendorParam(w http.ResponseWriter, r *http.Request) (model.Vendor, bool) {
	raw, ok := s.pathParam(w, r, "vendor")
	if !ok {
		return "", false
	}
	v, err := model.ParseVendor(raw)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, ErrNotFound)
		return "", false
	}
	return v, true
}

func (s *Server) listConfigs(w http.ResponseWriter, r *http.Request) {
	vendor, ok := s.vendorParam(w, r)
	if !ok {
		return
	}
	page, perPage, ok := s.bindPage(w, r)
	if !ok {
		return
	}
	creds, total, err := s.creds.List(r.Context(), vendor, page, perPage)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]APIConfig, 0, len(creds))
	for _, c := range creds {
		out = append(out, toAPIConfig(c))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	vendor, ok := s.vendorParam(w, r)
	if !ok {
		return
	}
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	c, err := s.creds.Get(r.Context(), vendor, id)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, ErrAPIConfigNotFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIConfig(c))
}

func (s *Server) createConfig(w http.ResponseWriter, r *http.Request) {
	vendor, ok := s.vendorParam(w, r)
	if !ok {
		return
	}
	var req apiConfigRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	c, err := s.creds.Create(r.Context(), vendor, req.patch())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIConfig(c))
}

func (s *Server) updateConfig(w http.ResponseWriter, r *http.Request) {
	vendor, ok := s.vendorParam(w, r)
	if !ok {
		return
	}
	id, ok := s.pathParam(w, r, "id")
	if !ok {
		return
	}
	var req apiConfigRequest
	if !s.decodeOr400(w, r, &req) {
		return
	}
	c, err := s.creds.Update(r.Context(), vendor, id, req.patch())
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, ErrAPIConfigNotFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIConfig(c))
}
