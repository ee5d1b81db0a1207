package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/memohq/memomirror/internal/github"
	"github.com/memohq/memomirror/internal/log"
	"github.com/memohq/memomirror/internal/model"
	"github.com/memohq/memomirror/internal/reconcile"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors onto the API's status taxonomy:
// missing config is the caller's problem, upstream trouble is a bad
// gateway, everything else is internal.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reconcile.ErrConfigMissing):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, github.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, github.ErrNoToken):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, github.ErrRateLimited), errors.Is(err, github.ErrAuth):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// requireWrite wraps a handler behind capability token verification.
func (s *Server) requireWrite(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "write capability required")
			return
		}
		if err := s.keeper.VerifyCapability(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired capability token")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleGetIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	var labels []string
	if v := q.Get("labels"); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				labels = append(labels, name)
			}
		}
	}

	force := q.Get("forceSync") == "true"

	result, err := s.svc.GetIssues(r.Context(), page, labels, force)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid issue number")
		return
	}

	issue, err := s.svc.GetIssue(r.Context(), number)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   *string  `json:"body"`
	Labels []string `json:"labels"`
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var req createIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	issue, err := s.svc.CreateIssue(r.Context(), req.Title, req.Body, req.Labels)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

type updateIssueRequest struct {
	Title  *string  `json:"title"`
	Body   *string  `json:"body"`
	State  *string  `json:"state"`
	Labels []string `json:"labels"`
}

func (s *Server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid issue number")
		return
	}

	var req updateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	issue, err := s.svc.UpdateIssue(r.Context(), number, req.Title, req.Body, req.State, req.Labels)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) handleGetLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.svc.GetLabels(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

type createLabelRequest struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateLabel(w http.ResponseWriter, r *http.Request) {
	var req createLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	label, err := s.svc.CreateLabel(r.Context(), req.Name, req.Color, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, label)
}

// handleGetConfig serves the client-facing config. The token never
// leaves the server, in any form.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.Config(r.Context(), false)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type authVerifyRequest struct {
	Password string `json:"password"`
}

type authVerifyResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	var req authVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.adminPassword == "" {
		writeError(w, http.StatusForbidden, "writes are disabled")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.adminPassword)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	writeJSON(w, http.StatusOK, authVerifyResponse{
		Token:     s.keeper.MintCapability(capabilityTTL),
		ExpiresIn: int(capabilityTTL / time.Second),
	})
}

func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.svc.SyncHistory(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []model.SyncRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CacheStats())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.svc.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status     string            `json:"status"`
	SyncStatus *model.SyncStatus `json:"syncStatus,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if status, err := s.svc.SyncStatus(r.Context()); err == nil {
		resp.SyncStatus = &status
	}
	writeJSON(w, http.StatusOK, resp)
}
