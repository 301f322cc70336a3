package apihttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"selfcinema/internal/domain"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	resp, err := s.catalog.Login(r.Context(), req)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if s.tokens != nil {
		if err := s.tokens.Save(resp.AccessToken); err != nil {
			s.logger.Error("failed to persist token", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to persist credentials")
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.tokens != nil {
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("failed to clear token", slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		series, err := s.catalog.ListSeries(r.Context())
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, series)

	case http.MethodPost:
		var req domain.CreateSeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
			return
		}
		created, err := s.catalog.CreateSeries(r.Context(), req)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSeriesByID(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/series/")
	parts := strings.SplitN(tail, "/", 2)
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := domain.SeriesID(parts[0])

	if len(parts) == 2 {
		switch parts[1] {
		case "episodes":
			s.handleSeriesEpisodes(w, r, id)
		case "share":
			s.handleSeriesShare(w, r, id)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.CreateSeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		updated, err := s.catalog.UpdateSeries(r.Context(), id, req)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		confirmed, err := parseBoolQuery(r.URL.Query().Get("confirm"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid confirm flag")
			return
		}
		if !confirmed {
			writeError(w, http.StatusBadRequest, "confirmation_required", "deleting a series removes all its episodes, pass confirm=true")
			return
		}
		if err := s.catalog.DeleteSeries(r.Context(), id); err != nil {
			writeCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSeriesEpisodes(w http.ResponseWriter, r *http.Request, id domain.SeriesID) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	episodes, err := s.catalog.ListEpisodes(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

func (s *Server) handleSeriesShare(w http.ResponseWriter, r *http.Request, id domain.SeriesID) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	link, err := s.catalog.ShareLink(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req domain.CreateEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if req.SeriesID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "series_id is required")
		return
	}
	created, err := s.catalog.CreateEpisode(r.Context(), req)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleEpisodeByID(w http.ResponseWriter, r *http.Request) {
	id := domain.EpisodeID(strings.TrimPrefix(r.URL.Path, "/episodes/"))
	if id == "" || strings.Contains(string(id), "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.CreateEpisodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		updated, err := s.catalog.UpdateEpisode(r.Context(), id, req)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		confirmed, err := parseBoolQuery(r.URL.Query().Get("confirm"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid confirm flag")
			return
		}
		if !confirmed {
			writeError(w, http.StatusBadRequest, "confirmation_required", "pass confirm=true to delete this episode")
			return
		}
		if err := s.catalog.DeleteEpisode(r.Context(), id); err != nil {
			writeCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
