package auth

import (
	"errors"
	"net/http"

	apperrors "campus/pkg/errors"
	httputil "campus/pkg/http"
	"campus/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Policy decides whether an identity may pass.
type Policy func(id *Identity) bool

func AnyRole(roles ...string) Policy {
	return func(id *Identity) bool {
		for _, role := range roles {
			if id.HasRole(role) {
				return true
			}
		}
		return false
	}
}

// Require wraps next so it only runs for identities accepted by policy. The
// resolved identity is stored in the request context.
func Require(resolver IdentityResolver, log *logger.Logger, policy Policy) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			id, err := resolver.Resolve(r)
			if err != nil {
				appErr := resolveError(err)
				if appErr.HTTPStatus >= http.StatusInternalServerError {
					log.Error("Failed to resolve identity", "path", r.URL.Path, "error", err)
				} else {
					log.Warn("Rejected unauthenticated request", "path", r.URL.Path, "error", err)
				}
				_ = httputil.WriteError(w, appErr)
				return
			}

			if !policy(id) {
				log.Warn("Rejected request with insufficient role",
					"path", r.URL.Path,
					"user_id", id.UserID,
					"role", id.Role,
				)
				_ = httputil.WriteError(w, apperrors.Forbidden("Forbidden: insufficient permissions"))
				return
			}

			next(w, r.WithContext(WithIdentity(r.Context(), id)), ps)
		}
	}
}

func RequireRoles(resolver IdentityResolver, log *logger.Logger, roles ...string) func(httprouter.Handle) httprouter.Handle {
	return Require(resolver, log, AnyRole(roles...))
}

func resolveError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, ErrNoToken):
		return apperrors.Unauthorized("Access denied. No token provided.")
	case errors.Is(err, ErrUnknownUser):
		return apperrors.Unauthorized("User not found.")
	case errors.Is(err, ErrInvalidToken):
		return apperrors.Unauthorized("Invalid or expired token.")
	default:
		return apperrors.Internal("Failed to verify permissions", err)
	}
}
