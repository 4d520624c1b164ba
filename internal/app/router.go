package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/terrena-pm/terrena/internal/auth"
	"github.com/terrena-pm/terrena/internal/authz"
	"github.com/terrena-pm/terrena/internal/observability"
	"github.com/terrena-pm/terrena/internal/permits"
	"github.com/terrena-pm/terrena/internal/projects"
	"github.com/terrena-pm/terrena/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuthMiddleware   auth.Middleware
	AccessMiddleware authz.Middleware
	ProjectsHandler  *projects.Handler
	PermitsHandler   *permits.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Terrena defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Project-scoped surface: identity, account, then the decision engine.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.VerifyIdentity)
		r.Use(params.AuthMiddleware.RequireActiveAccount)
		r.Use(params.AccessMiddleware.RequireProjectAccess)
		r.Route("/projects", func(r chi.Router) {
			params.ProjectsHandler.MountRoutes(r)
			if params.PermitsHandler != nil {
				r.Route("/{id}/permits", params.PermitsHandler.MountProjectRoutes)
			}
		})
	})

	// Template authoring is tenant-scoped but not project-scoped; the
	// routes authorize themselves behind the account guard.
	if params.PermitsHandler != nil {
		r.Route("/permit-templates", func(r chi.Router) {
			r.Use(params.AuthMiddleware.VerifyIdentity)
			r.Use(params.AuthMiddleware.RequireActiveAccount)
			params.PermitsHandler.MountTemplateRoutes(r)
		})
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
