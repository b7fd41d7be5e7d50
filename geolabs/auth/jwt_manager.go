package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"geolabs_api/geolabs/schema"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// TokenLifetime is how long an access token issued by login is valid for.
const TokenLifetime = 300 * time.Second

const isAdminKey = "is_admin"

type JwtManager struct {
	auth *jwtauth.JWTAuth
}

func NewJwtManager(secret []byte) *JwtManager {
	return &JwtManager{auth: jwtauth.New("HS256", secret, nil)}
}

func (m *JwtManager) Verifier() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return jwtauth.Verifier(m.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
		}))
	}
}

func (m *JwtManager) Authenticator() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return jwtauth.Authenticator(m.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
		}))
	}
}

// Middleware is the full auth chain applied to protected routes.
func (m *JwtManager) Middleware() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{m.Verifier(), m.Authenticator()}
}

// CreateUserJwt issues a token identifying the user, with the admin flag as a
// claim so gated endpoints do not need a user lookup.
func (m *JwtManager) CreateUserJwt(user schema.User) (string, error) {
	claims := map[string]interface{}{
		"sub":      strconv.FormatUint(uint64(user.Id), 10),
		isAdminKey: user.IsAdmin,
		"jti":      uuid.NewString(),
		"exp":      time.Now().Add(TokenLifetime),
	}
	_, token, err := m.auth.Encode(claims)
	if err != nil {
		slog.Error("error generating jwt", "error", err)
		return "", fmt.Errorf("error generating access token: %w", err)
	}
	return token, nil
}

func claimsFromContext(r *http.Request) (map[string]interface{}, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return nil, fmt.Errorf("error retrieving auth claims: %w", err)
	}
	return claims, nil
}

// UserIdFromContext returns the id of the authenticated user making the request.
func UserIdFromContext(r *http.Request) (uint, error) {
	claims, err := claimsFromContext(r)
	if err != nil {
		return 0, err
	}

	subUncasted, ok := claims["sub"]
	if !ok {
		return 0, fmt.Errorf("invalid token: unable to locate subject in claims")
	}

	sub, ok := subUncasted.(string)
	if !ok {
		return 0, fmt.Errorf("invalid token: subject has invalid type")
	}

	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid token: invalid subject '%v': %w", sub, err)
	}
	return uint(id), nil
}

// IsAdminFromContext reports whether the token carries a true is_admin claim.
// A missing or mistyped claim counts as not admin.
func IsAdminFromContext(r *http.Request) (bool, error) {
	claims, err := claimsFromContext(r)
	if err != nil {
		return false, err
	}

	isAdmin, ok := claims[isAdminKey].(bool)
	if !ok {
		return false, nil
	}
	return isAdmin, nil
}
