package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"selfcinema/internal/domain"
)

type progressResponse struct {
	domain.WatchProgress
	Status domain.WatchStatus `json:"status"`
}

type saveProgressRequest struct {
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.progress == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "progress store not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		limit, err := parsePositiveInt(r.URL.Query().Get("limit"), true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
			return
		}
		if limit <= 0 {
			limit = 20
		}
		writeJSON(w, http.StatusOK, s.progress.ListRecent(limit))

	case http.MethodDelete:
		s.progress.ClearAll()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProgressByID(w http.ResponseWriter, r *http.Request) {
	if s.progress == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "progress store not configured")
		return
	}

	id := domain.EpisodeID(strings.TrimPrefix(r.URL.Path, "/progress/"))
	if id == "" || strings.Contains(string(id), "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.progress.Get(id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "no progress recorded for episode")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to read progress")
			return
		}
		writeJSON(w, http.StatusOK, progressResponse{WatchProgress: rec, Status: s.progress.Status(id)})

	case http.MethodPut:
		var req saveProgressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		if req.CurrentTime < 0 || req.Duration < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "current_time and duration must be >= 0")
			return
		}
		s.progress.Save(id, req.CurrentTime, req.Duration)
		rec, err := s.progress.Get(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to read progress")
			return
		}
		writeJSON(w, http.StatusOK, progressResponse{WatchProgress: rec, Status: s.progress.Status(id)})

	case http.MethodDelete:
		s.progress.Clear(id)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
