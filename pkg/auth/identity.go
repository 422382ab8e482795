// Package auth gates routes on the role of the requesting user.
//
// The guard only sees an Identity. Where that identity comes from is up to
// the IdentityResolver, so the token format can change without touching
// the routes that are guarded.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnknownUser  = errors.New("user not found")
)

type Identity struct {
	UserID string
	Role   string
}

// HasRole compares case-insensitively.
func (i *Identity) HasRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Role), strings.TrimSpace(role))
}

type IdentityResolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

// ResolverFunc adapts a plain function to IdentityResolver.
type ResolverFunc func(r *http.Request) (*Identity, error)

func (f ResolverFunc) Resolve(r *http.Request) (*Identity, error) {
	return f(r)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
