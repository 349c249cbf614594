// Package auth guards the HTTP surface: API keys with per-key rate limits for
// analysis, and a static bearer token for the admin API and MCP.
package auth

import (
	"context"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

type contextKey string

const (
	// APIKeyKey is the context key for the authenticated API key.
	APIKeyKey contextKey = "api_key"
	// ActorKey is the context key for the identity recorded on admin writes.
	ActorKey contextKey = "actor"
)

// AdminActor is the identity recorded for changes made with the admin token.
const AdminActor = "admin"

// GetAPIKey returns the API key authenticated for this request.
func GetAPIKey(ctx context.Context) (*models.APIKey, bool) {
	key, ok := ctx.Value(APIKeyKey).(*models.APIKey)
	return key, ok
}

// WithActor returns a context recording who is making changes.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor returns the actor stored in ctx, or "unknown".
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok && actor != "" {
		return actor
	}
	return "unknown"
}
