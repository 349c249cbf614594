package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

// KeyAuthenticator resolves a plaintext API key to a stored key.
// services.APIKeyService implements it.
type KeyAuthenticator interface {
	Authenticate(ctx context.Context, plaintext string) (*models.APIKey, error)
}

// Middleware provides HTTP authentication middleware.
type Middleware struct {
	keys       KeyAuthenticator
	limiter    *KeyRateLimiter
	adminToken string
	logger     *zap.Logger
}

// NewMiddleware creates a new auth middleware. An empty adminToken rejects every admin request.
func NewMiddleware(keys KeyAuthenticator, limiter *KeyRateLimiter, adminToken string, logger *zap.Logger) *Middleware {
	return &Middleware{
		keys:       keys,
		limiter:    limiter,
		adminToken: adminToken,
		logger:     logger.Named("auth"),
	}
}

// RequireAPIKey authenticates a bearer API key and applies the per-key rate limit.
// Sets the key in context for downstream handlers.
func (m *Middleware) RequireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.unauthorized(w, "Missing or malformed Authorization header")
			return
		}

		key, err := m.keys.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				m.unauthorized(w, "Invalid API key")
			case errors.Is(err, apperrors.ErrRevoked):
				m.unauthorized(w, "API key has been revoked")
			default:
				m.logger.Error("API key lookup failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal_error", "Authentication unavailable")
			}
			return
		}

		if m.limiter != nil && !m.limiter.Allow(key.ID.String()) {
			m.logger.Debug("Rate limited",
				zap.String("key_id", key.ID.String()),
				zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}

		ctx := context.WithValue(r.Context(), APIKeyKey, key)
		ctx = WithActor(ctx, "api_key:"+key.Prefix)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin checks the static admin bearer token.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.isAdmin(r) {
			m.unauthorized(w, "Admin token required")
			return
		}
		next(w, r.WithContext(WithActor(r.Context(), AdminActor)))
	}
}

// RequireAdminHandler is RequireAdmin for http.Handler values such as the MCP server.
func (m *Middleware) RequireAdminHandler(next http.Handler) http.Handler {
	return m.RequireAdmin(next.ServeHTTP)
}

func (m *Middleware) isAdmin(r *http.Request) bool {
	if m.adminToken == "" {
		return false
	}
	token, ok := bearerToken(r)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(m.adminToken)) == 1
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="milestone-gateway"`)
	writeError(w, http.StatusUnauthorized, "unauthorized", message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
