package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/haneul-academy/portal-be/internal/api/handlers"
	"github.com/haneul-academy/portal-be/internal/auth"
	"github.com/haneul-academy/portal-be/internal/services"
	"github.com/haneul-academy/portal-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	userSvc services.UserServiceProvider,
	moderationSvc services.ModerationServiceProvider,
	contentSvc services.ContentServiceProvider,
	activitySvc services.ActivityServiceProvider,
	uploadSvc services.UploadServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userSvc)
	contentHandler := handlers.NewContentHandler(contentSvc)
	adminHandler := handlers.NewAdminHandler(userSvc, moderationSvc, activitySvc)
	uploadHandler := handlers.NewUploadHandler(uploadSvc)
	wsHandler := handlers.NewWebSocketHandler(hub, contentSvc)

	r.Route("/api/v1", func(r chi.Router) {
		// Session endpoints, no token required
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/guest", authHandler.Guest)
		r.Post("/auth/logout", authHandler.Logout)

		// Everything below needs a session (guest sessions count)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())

			r.Get("/auth/me", authHandler.Me)

			r.Get("/ws/chat", wsHandler.Serve)

			r.Route("/content/{kind}", func(r chi.Router) {
				r.Get("/", contentHandler.List)
				r.Post("/", contentHandler.Create)
				r.Delete("/{id}", contentHandler.Delete)
			})

			r.Get("/singletons/{key}", contentHandler.GetSingleton)
			r.Put("/singletons/{key}", contentHandler.SetSingleton)
			r.Get("/word-of-day", contentHandler.GetWordOfDay)
			r.Post("/word-of-day", contentHandler.SetWordOfDay)

			r.Post("/uploads", uploadHandler.Upload)
			r.Get("/uploads/{id}", uploadHandler.Download)

			// Moderation surface, teacher/creator only
			r.Route("/admin", func(r chi.Router) {
				r.Use(handlers.RequireModerator)

				r.Get("/users", adminHandler.ListUsers)
				r.Put("/users/{username}/role", adminHandler.ChangeRole)
				r.Post("/users/{username}/ban", adminHandler.Ban)
				r.Delete("/users/{username}/ban", adminHandler.Unban)
				r.Delete("/users/{username}", adminHandler.DeleteUser)
				r.Get("/bans", adminHandler.ListBans)
				r.Get("/logs", adminHandler.Logs)
				r.Get("/system", adminHandler.System)
			})
		})
	})

	return r
}
