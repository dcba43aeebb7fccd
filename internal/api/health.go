package api

import (
	"net/http"
	"time"

	"github.com/jobdeck/admin-backend/internal/middleware"
)

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	middleware.GetLoggerFromContext(r.Context()).Debug("Health check requested")

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
