package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/campusfeed/backend/internal/auth"
	"github.com/campusfeed/backend/internal/config"
	"github.com/campusfeed/backend/internal/middleware"
	"github.com/campusfeed/backend/internal/posts"
)

func newRouter(cfg *config.Config, tokens *auth.TokenService, authHandler *auth.Handler, postHandler *posts.Handler) http.Handler {
	requireAuth := middleware.RequireAuth(tokens)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.FrontendURL},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Get("/me", authHandler.Me)
		r.With(requireAuth).Put("/me", authHandler.UpdateMe)
	})

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", postHandler.List)
		r.Get("/{id}/comments", postHandler.ListComments)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			// Roles are self-assigned at signup and through PUT /api/auth/me,
			// so POST_ROLES only filters honest clients.
			create := r.With()
			if len(cfg.PostRoles) > 0 {
				create = r.With(middleware.RequireRole(cfg.PostRoles...))
			}
			create.Post("/", postHandler.Create)
			r.Post("/{id}/like", postHandler.ToggleLike)
			r.Delete("/{id}", postHandler.Delete)
			r.Post("/{id}/comments", postHandler.AddComment)
		})
	})

	return r
}
