package llm

import (
	"context"
	"net/http"
)

type contextKey string

const requestIDKey contextKey = "llm_request_id"

// requestIDHeader carries the gateway's request ID to the provider for correlation.
const requestIDHeader = "X-Request-Id"

// WithRequestID returns a context whose outgoing LLM calls carry the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// contextAwareTransport copies the request ID from the request context into a header.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id := GetRequestID(req.Context()); id != "" {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id)
	}
	return t.base.RoundTrip(req)
}
