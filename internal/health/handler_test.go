package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	router := httprouter.New()
	h.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(NewHandler(logger.Discard()), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all dependencies up",
			checks:     map[string]Check{"database": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready","checks":{"database":"ok","redis":"ok"}}`,
		},
		{
			name:       "database down",
			checks:     map[string]Check{"database": down, "redis": ok},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable","checks":{"database":"error","redis":"ok"}}`,
		},
		{
			name:       "no checks configured",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(logger.Discard())
			for name, check := range tt.checks {
				h.WithCheck(name, check)
			}

			rec := serve(h, "/ready")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestWithMongo_NilClientSkipsCheck(t *testing.T) {
	h := NewHandler(logger.Discard()).WithMongo(nil).WithRedis(nil)
	assert.Empty(t, h.checks)
}
