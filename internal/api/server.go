package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jobdeck/admin-backend/internal/config"
	"github.com/jobdeck/admin-backend/internal/guard"
	"github.com/jobdeck/admin-backend/internal/jobs"
	"github.com/jobdeck/admin-backend/internal/metrics"
	"github.com/jobdeck/admin-backend/internal/middleware"
	"github.com/jobdeck/admin-backend/internal/registry"
)

// Notifier enqueues out-of-band notices. Best effort; callers log failures and
// move on.
type Notifier interface {
	EnqueueAccessRevoked(email, companyID, companyName string) error
}

type Server struct {
	sessions      Authenticator
	registries    *registry.Manager
	guards        *guard.Manager
	gateway       *jobs.Gateway
	notifier      Notifier
	guardInterval time.Duration
	limiter       *middleware.RateLimiter
}

func NewServer(sessions Authenticator, registries *registry.Manager, guards *guard.Manager, gateway *jobs.Gateway, notifier Notifier, guardInterval time.Duration) *Server {
	return &Server{
		sessions:      sessions,
		registries:    registries,
		guards:        guards,
		gateway:       gateway,
		notifier:      notifier,
		guardInterval: guardInterval,
	}
}

// Router builds the full HTTP surface with middleware applied. The request
// context runs before the rate limiter so rejected requests still carry a
// request ID and a completion log line.
func (s *Server) Router(cfg *config.Config) http.Handler {
	if s.limiter == nil {
		s.limiter = middleware.NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst)
	}

	r := chi.NewRouter()

	r.Use(middleware.NewCORSHandler(&cfg.CORS))
	r.Use(middleware.RequestContext)
	r.Use(middleware.LoggingMiddleware)
	r.Use(s.limiter.Middleware)

	r.Get("/api/v1/health", s.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(s.RequireAuth)

		r.Get("/companies", s.ListCompanies)
		r.Post("/companies/refresh", s.RefreshCompanies)
		r.Get("/companies/{companyID}/access", s.CompanyAccess)

		r.Get("/permissions", s.CheckPermission)

		r.Get("/context", s.GetContext)
		r.Put("/context/company", s.SelectCompany)
		r.Delete("/context/company", s.ClearCompany)

		r.Post("/jobs/validate", s.ValidateJob)
		r.Post("/jobs", s.CreateJob)
		r.Get("/jobs", s.ListJobs)
		r.Put("/jobs/{jobID}", s.UpdateJob)
		r.Delete("/jobs/{jobID}", s.DeleteJob)
		r.Post("/jobs/{jobID}/activate", s.ActivateJob)
		r.Post("/jobs/{jobID}/deactivate", s.DeactivateJob)
	})

	return r
}

// Close stops the rate limiter's bucket sweeper. Safe to call more than once.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}
