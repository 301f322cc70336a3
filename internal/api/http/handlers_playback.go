package apihttp

import (
	"encoding/json"
	"net/http"

	"selfcinema/internal/domain"
	"selfcinema/internal/playback"
)

type startPlaybackRequest struct {
	EpisodeID     domain.EpisodeID `json:"episode_id"`
	Source        string           `json:"source"`
	ViewportWidth int              `json:"viewport_width"`
	Autoplay      bool             `json:"autoplay"`
}

type seekRequest struct {
	Seconds float64 `json:"seconds"`
}

// mediaEventRequest injects a native media event into the live session.
type mediaEventRequest struct {
	Type        string  `json:"type"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	ErrorCode   int     `json:"error_code"`
}

func (s *Server) handlePlaybackSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "playback not configured")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req startPlaybackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		if req.EpisodeID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "episode_id is required")
			return
		}
		session := s.sessions.Play(playback.SessionParams{
			EpisodeID:     req.EpisodeID,
			Source:        req.Source,
			ViewportWidth: req.ViewportWidth,
			Autoplay:      req.Autoplay,
		})
		snap := session.Snapshot()
		s.wsHub.Broadcast("playback", snap)
		writeJSON(w, http.StatusCreated, snap)

	case http.MethodGet:
		session := s.sessions.Current()
		if session == nil {
			writeError(w, http.StatusNotFound, "not_found", "no live playback session")
			return
		}
		writeJSON(w, http.StatusOK, session.Snapshot())

	case http.MethodDelete:
		s.sessions.Stop()
		s.wsHub.Broadcast("playback", nil)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePlaybackSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "playback not configured")
		return
	}
	session := s.sessions.Current()
	if session == nil {
		writeError(w, http.StatusNotFound, "not_found", "no live playback session")
		return
	}

	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if req.Seconds < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "seconds must be >= 0")
		return
	}
	session.Seek(req.Seconds)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) handlePlaybackEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "playback not configured")
		return
	}

	var req mediaEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	var event playback.MediaEvent
	switch req.Type {
	case "timeupdate":
		event = playback.EventTimeUpdate
	case "ended":
		event = playback.EventEnded
	case "error":
		event = playback.EventError
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown event type")
		return
	}

	s.sessions.Media().Dispatch(event, playback.MediaUpdate{
		CurrentTime: req.CurrentTime,
		Duration:    req.Duration,
		ErrorCode:   domain.NativeMediaErrorCode(req.ErrorCode),
	})
	s.broadcastSession()
	w.WriteHeader(http.StatusAccepted)
}
