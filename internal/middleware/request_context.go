package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jobdeck/admin-backend/internal/logging"
)

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	loggerKey    contextKey = "logger"
	userKey      contextKey = "user"
)

// requestUser is a mutable slot: authentication runs after this middleware has
// built the request logger, so the resolved user is written into the slot and
// read back when the completion log line is emitted.
type requestUser struct {
	mu    sync.Mutex
	email string
}

// RequestContext assigns each request an ID and a logger annotated with the
// request ID and the client IP.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := uuid.New().String()
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		ctx = context.WithValue(ctx, userKey, &requestUser{})
		w.Header().Set("X-Request-ID", requestID)

		logger := logging.With(
			"request_id", requestID,
			"client_ip", GetClientIP(r),
		)
		ctx = context.WithValue(ctx, loggerKey, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetRequestUser records the authenticated user for request logging. No-op
// outside RequestContext.
func SetRequestUser(ctx context.Context, email string) {
	if u, ok := ctx.Value(userKey).(*requestUser); ok {
		u.mu.Lock()
		u.email = email
		u.mu.Unlock()
	}
}

func GetRequestUser(ctx context.Context) string {
	if u, ok := ctx.Value(userKey).(*requestUser); ok {
		u.mu.Lock()
		defer u.mu.Unlock()
		return u.email
	}
	return ""
}

func GetLoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetClientIP resolves the client address behind the usual proxy headers.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
