package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"edis-portal/internal/handlers"
	"edis-portal/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	projectHandler *handlers.ProjectHandler,
	studentHandler *handlers.StudentHandler,
	wsHandler http.HandlerFunc,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			if authLimiter != nil {
				r.Use(authLimiter.Middleware)
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── WebSocket (token in query string) ────
		if wsHandler != nil {
			r.Get("/ws", wsHandler)
		}

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Delete("/users/me", authHandler.DeleteMe)

			// ──── Project Routes ────
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
			})

			// ──── Student Routes ────
			r.Route("/students", func(r chi.Router) {
				r.Get("/", studentHandler.List)
				r.Post("/", studentHandler.Create)
				r.Get("/search", studentHandler.Search)
				r.Get("/search/code", studentHandler.SearchByCode)
				r.Get("/project/{projectId}", studentHandler.ListByProject)
				r.Get("/{id}", studentHandler.Get)
				r.Put("/{id}", studentHandler.Update)
				r.Delete("/{id}", studentHandler.Delete)
			})
		})
	})

	return r
}

// NewAuthLimiter allows 10 auth requests per minute per client IP.
func NewAuthLimiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter(10, time.Minute)
}
