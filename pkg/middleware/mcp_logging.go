package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/logging"
)

// maxLoggedArgumentLength truncates long string arguments in MCP logs.
const maxLoggedArgumentLength = 200

// MCPRequestLogger returns middleware that logs MCP tool calls at DEBUG level
// with their outcome. Pass nil logger to disable logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var call rpcCall
			_ = json.Unmarshal(body, &call)

			recorder := &bodyRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			fields := []zap.Field{
				zap.String("method", call.Method),
				zap.Duration("duration", time.Since(start)),
			}
			if call.Params.Name != "" {
				fields = append(fields,
					zap.String("tool", call.Params.Name),
					zap.Any("arguments", redactArguments(call.Params.Arguments)))
			}

			var reply rpcReply
			if err := json.Unmarshal(recorder.body.Bytes(), &reply); err == nil && reply.Error != nil {
				fields = append(fields,
					zap.Int("error_code", reply.Error.Code),
					zap.String("error_message", reply.Error.Message))
				logger.Debug("MCP call failed", fields...)
				return
			}
			logger.Debug("MCP call", fields...)
		})
	}
}

type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcReply struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// bodyRecorder keeps a copy of the response body. Streamed responses that are
// not a single JSON document simply fail to parse and are logged without an outcome.
type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var sensitiveArgumentNames = []string{"password", "secret", "token", "key", "credential"}

// redactArguments hides credential-like arguments and shortens long strings.
func redactArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	out := make(map[string]any, len(args))
	for name, value := range args {
		lower := strings.ToLower(name)
		redacted := false
		for _, keyword := range sensitiveArgumentNames {
			if strings.Contains(lower, keyword) {
				redacted = true
				break
			}
		}
		if redacted {
			out[name] = logging.RedactedText
			continue
		}
		if s, ok := value.(string); ok {
			out[name] = logging.TruncateString(s, maxLoggedArgumentLength)
			continue
		}
		out[name] = value
	}
	return out
}
