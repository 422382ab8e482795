package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "campus/pkg/errors"
)

// DecodeJSON decodes the request body into target. Malformed or empty bodies
// come back as InvalidInput errors.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return apperrors.InvalidInput("request body is required")
	}

	err := json.NewDecoder(r.Body).Decode(target)
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return apperrors.InvalidInput("request body is required")
	case errors.As(err, &maxBytesErr):
		return apperrors.New(apperrors.CodeInvalidInput, "request body too large", http.StatusRequestEntityTooLarge)
	default:
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
}

// QueryValue returns the trimmed value of a query parameter.
func QueryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
