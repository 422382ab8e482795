package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// RoleLookup loads the current role of a user. found is false when no such
// user exists.
type RoleLookup interface {
	LookupRole(ctx context.Context, userID string) (role string, found bool, err error)
}

// Claims carries the user id either as "id" or as the standard subject.
type Claims struct {
	UID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// JWTResolver reads an HS256 bearer token and loads the role from the user
// store, so a role change takes effect without reissuing tokens.
type JWTResolver struct {
	secret []byte
	users  RoleLookup
}

func NewJWTResolver(secret string, users RoleLookup) *JWTResolver {
	return &JWTResolver{
		secret: []byte(secret),
		users:  users,
	}
}

func (j *JWTResolver) Resolve(r *http.Request) (*Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, ErrNoToken
	}

	claims, err := j.parse(raw)
	if err != nil {
		return nil, err
	}

	userID := claims.UserID()
	if userID == "" {
		return nil, fmt.Errorf("%w: token carries no user id", ErrInvalidToken)
	}

	role, found, err := j.users.LookupRole(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user role: %w", err)
	}
	if !found {
		return nil, ErrUnknownUser
	}

	return &Identity{UserID: userID, Role: role}, nil
}

func (j *JWTResolver) parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueToken signs a token for userID. Token issuance belongs to the user
// service; this exists for tests and local tooling.
func IssueToken(secret, userID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = userID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UID: userID, RegisteredClaims: claims})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign jwt: %w", err)
	}
	return signed, nil
}
