package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"selfcinema/internal/api/client"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeCatalogError maps backend failures onto gateway responses. Expired or
// missing credentials become a 401 so the UI can send the admin back to the
// login screen; other backend rejections pass their status through.
func writeCatalogError(w http.ResponseWriter, err error) {
	if client.IsAuthError(err) {
		writeError(w, http.StatusUnauthorized, "auth_required", "session expired, log in again")
		return
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			writeError(w, http.StatusNotFound, "not_found", "resource not found")
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			writeError(w, http.StatusBadRequest, "invalid_request", apiErr.Body)
		default:
			writeError(w, http.StatusBadGateway, "backend_error", "backend request failed")
		}
		return
	}
	writeError(w, http.StatusBadGateway, "backend_unreachable", "backend is not reachable")
}

func parsePositiveInt(value string, requirePositive bool) (int, error) {
	if strings.TrimSpace(value) == "" {
		return -1, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if requirePositive && parsed <= 0 {
		return 0, errors.New("must be > 0")
	}
	if !requirePositive && parsed < 0 {
		return 0, errors.New("must be >= 0")
	}
	return parsed, nil
}

func parseBoolQuery(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	switch strings.ToLower(value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.New("invalid bool")
	}
}
