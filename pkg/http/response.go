package http

import (
	"encoding/json"
	"net/http"

	apperrors "campus/pkg/errors"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Message string         `json:"message"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteMessage writes {"message": msg, key: payload}. An empty key writes the
// message alone.
func WriteMessage(w http.ResponseWriter, statusCode int, msg, key string, payload any) error {
	body := map[string]any{"message": msg}
	if key != "" {
		body[key] = payload
	}
	return WriteJSON(w, statusCode, body)
}

func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)

	resp := ErrorResponse{
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		resp.Error = appErr.Cause()
	}

	status := appErr.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return WriteJSON(w, status, resp)
}
