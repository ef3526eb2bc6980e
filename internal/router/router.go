package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/taskgrove/backend/internal/config"
	"github.com/taskgrove/backend/internal/handlers"
	"github.com/taskgrove/backend/internal/middleware"
	"github.com/taskgrove/backend/internal/services"
	"github.com/taskgrove/backend/internal/store"
	"github.com/taskgrove/backend/internal/streamer"
	"github.com/taskgrove/backend/internal/transport"
)

func New(cfg *config.Config, queries *store.Queries, hub *streamer.Hub, authService *services.AuthService, membership *services.MembershipService) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewRealIPMiddleware(cfg.TrustedProxies).Handler)
	r.Use(middleware.RequestContextMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Handlers
	authHandler := handlers.NewAuthHandler(queries, authService)
	userHandler := handlers.NewUserHandler(queries, hub)
	projectHandler := handlers.NewProjectHandler(queries, membership, hub)
	taskHandler := handlers.NewTaskHandler(queries, membership, hub)
	subscriptionHandler := handlers.NewSubscriptionHandler(hub, authService)
	streamHandler := transport.NewStreamHandler(hub, cfg.CORSAllowedOrigins)

	// Rate limiter for credential endpoints
	loginRateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Account creation and login (rate limited)
		r.With(loginRateLimiter.Middleware).Post("/users", authHandler.Register)
		r.With(loginRateLimiter.Middleware).Post("/login", authHandler.Login)

		// The stream channel itself; clients authenticate afterwards
		// over the channel via the initialize handshake.
		r.Get("/stream", streamHandler.Serve)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(authService))

			// Profile and contacts
			r.Get("/profile", userHandler.Profile)
			r.Put("/profile", userHandler.UpdateProfile)
			r.Get("/contacts", userHandler.Contacts)

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Put("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)

					r.Get("/participants", projectHandler.Participants)
					r.Post("/participants", projectHandler.AddParticipant)
					r.Delete("/participants/{user}", projectHandler.RemoveParticipant)
					r.Post("/join", projectHandler.Join)
					r.Post("/leave", projectHandler.Leave)

					// Tasks
					r.Route("/tasks", func(r chi.Router) {
						r.Get("/", taskHandler.List)
						r.Post("/", taskHandler.Create)

						r.Route("/{tid}", func(r chi.Router) {
							r.Put("/", taskHandler.Update)
							r.Delete("/", taskHandler.Delete)
							r.Get("/details", taskHandler.ListDetails)
							r.Post("/details", taskHandler.AddDetail)
						})
					})
				})
			})

			// Stream subscription control surface
			r.Route("/streams/{id}", func(r chi.Router) {
				r.Post("/token", subscriptionHandler.Token)
				r.Post("/projects/{project}", subscriptionHandler.Subscribe)
				r.Delete("/projects/{project}", subscriptionHandler.Unsubscribe)
			})
		})
	})

	return r
}
