package routes

import (
	"net/http"

	"github.com/BradenHooton/nbatrivia/internal/auth"
	"github.com/BradenHooton/nbatrivia/internal/handlers"
	"github.com/BradenHooton/nbatrivia/internal/middleware"
	"github.com/BradenHooton/nbatrivia/internal/models"
	pkghttp "github.com/BradenHooton/nbatrivia/pkg/http"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Reset     *handlers.PasswordResetHandler
	Game      *handlers.GameHandler
	Questions *handlers.QuestionHandler
	Stats     *handlers.StatsHandler
	Health    *handlers.HealthHandler
}

// Options configures route-level middleware.
type Options struct {
	TokenManager *auth.TokenManager
	UserRepo     auth.UserRepository
	// Per-IP limit for the credential endpoints.
	AuthRateLimit middleware.RateLimitConfig
	// Per-user limit for authenticated and game endpoints.
	UserRateLimit middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, opts Options) {
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteMethodNotAllowed(w)
	})

	router.Get("/health", h.Health.Health)

	router.Route("/api", func(r chi.Router) {
		// Credential endpoints - rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(opts.AuthRateLimit))
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/get-security-question", h.Reset.GetSecurityQuestion)
			r.Post("/forgot-password", h.Reset.ForgotPassword)
			r.Post("/reset-password", h.Reset.ResetPassword)
		})

		// Public reads
		r.Get("/leaderboard", h.Stats.Leaderboard)

		// The game endpoint validates its own token (body or bearer)
		r.With(middleware.RateLimitByIP(opts.UserRateLimit)).Post("/submit-game", h.Game.SubmitGame)

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(opts.TokenManager))
			r.Use(middleware.RateLimitByUser(opts.UserRateLimit))

			r.Get("/stats/me", h.Stats.Me)
			r.Get("/play/questions", h.Questions.Play)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(opts.UserRepo, models.RoleAdmin))
				r.Get("/questions", h.Questions.Get)
				r.Post("/questions", h.Questions.Create)
				r.Put("/questions", h.Questions.Update)
				r.Delete("/questions", h.Questions.Delete)
			})
		})
	})
}
