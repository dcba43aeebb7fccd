package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jobdeck/admin-backend/internal/middleware"
	"github.com/jobdeck/admin-backend/internal/registry"
	"github.com/jobdeck/admin-backend/internal/session"
)

// Authenticator resolves a bearer token to verified session claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Claims, error)
}

// RequireAuth verifies the bearer token and stores the principal and the raw
// token in the request context. The token travels onward because every
// upstream call acts with the caller's own credentials.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, Unauthorized("missing bearer token"))
			return
		}

		claims, err := s.sessions.Authenticate(r.Context(), token)
		if err != nil {
			logger := middleware.GetLoggerFromContext(r.Context())
			switch {
			case errors.Is(err, session.ErrTokenRevoked):
				logger.Warn("Rejected revoked session", "error", err)
				writeError(w, http.StatusUnauthorized, Unauthorized("session has been revoked"))
			case errors.Is(err, session.ErrTokenInvalid):
				writeError(w, http.StatusUnauthorized, Unauthorized("invalid session token"))
			default:
				logger.Error("Session check failed", "error", err)
				writeError(w, http.StatusUnauthorized, Unauthorized("could not verify session"))
			}
			return
		}

		middleware.SetRequestUser(r.Context(), claims.Principal.Email)
		ctx := session.WithPrincipal(r.Context(), claims.Principal, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// registryFor returns the caller's registry with the one-time automatic fetch
// applied. Never nil under RequireAuth.
func (s *Server) registryFor(r *http.Request) *registry.Registry {
	p, _ := session.PrincipalFromContext(r.Context())
	reg := s.registries.For(p, session.TokenFromContext(r.Context()))
	if err := reg.EnsureFetched(r.Context()); err != nil {
		middleware.GetLoggerFromContext(r.Context()).Warn("Automatic company refresh failed", "error", err)
	}
	return reg
}
