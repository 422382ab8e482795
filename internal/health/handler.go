package health

import (
	"context"
	"net/http"
	"time"

	httputil "campus/pkg/http"
	"campus/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const readyTimeout = 2 * time.Second

type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Check reports whether one backing dependency is reachable.
type Check func(ctx context.Context) error

type Handler struct {
	checks map[string]Check
	log    *logger.Logger
}

func NewHandler(log *logger.Logger) *Handler {
	return &Handler{
		checks: map[string]Check{},
		log:    log,
	}
}

func (h *Handler) WithCheck(name string, check Check) *Handler {
	h.checks[name] = check
	return h
}

func (h *Handler) WithMongo(client *mongo.Client) *Handler {
	if client == nil {
		return h
	}
	return h.WithCheck("database", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
}

func (h *Handler) WithRedis(client *redis.Client) *Handler {
	if client == nil {
		return h
	}
	return h.WithCheck("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := Response{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Error("Readiness check failed", "check", name, "error", err, "path", r.URL.Path)
			resp.Checks[name] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
