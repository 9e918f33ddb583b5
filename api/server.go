/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. CORS:        Cross-origin requests for the frontend
  2. httplog:     Structured request logging (ECS schema)
  3. CleanPath:   Collapse duplicate slashes
  4. Recoverer:   Panic recovery (500 instead of crash)
  5. RequestID:   Unique ID per request for tracing
  6. Heartbeat:   GET /health, unauthenticated

AUTHENTICATION:
  Everything under /api requires a bearer token (HS256). The verified
  subject is resolved to an hr.Actor against the directory on every
  request. Admin-only operations are enforced by the domain packages.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token issue and actor resolution
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth *Auth, opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Heartbeat("/health"))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(jwtauth.Verifier(auth.ja))
		r.Use(auth.resolveActor(h.Store))

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		// Upload routes
		r.Route("/uploads", func(r chi.Router) {
			r.Post("/employees", h.UploadEmployees)
			r.Post("/{kind}", h.Upload)
		})
		r.Get("/templates/{kind}", h.GetTemplate)

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.ListAttendance)
			r.Put("/{id}", h.EditAttendance)
			r.Delete("/{id}", h.DeleteAttendance)
		})

		// Ledger routes
		r.Get("/bonuses", h.ListBonuses)
		r.Get("/deductions", h.ListDeductions)

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.ListPayroll)
			r.Post("/", h.RegeneratePayroll)
			r.Get("/export", h.ExportPayroll)
		})
	})

	return r
}
