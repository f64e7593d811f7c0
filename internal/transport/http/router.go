package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	adminapp "github.com/whisperly-api/internal/application/admin"
	"github.com/whisperly-api/internal/application/auth"
	"github.com/whisperly-api/internal/application/confession"
	"github.com/whisperly-api/internal/config"
	"github.com/whisperly-api/internal/domain"
	"github.com/whisperly-api/internal/transport/http/handler"
	appmiddleware "github.com/whisperly-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.UserRepo)

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		Mailer:      deps.Mailer,
		JWTProvider: deps.JWTProvider,
	})
	confessionSvc := confession.NewService(deps.ConfessionRepo)
	adminSvc := adminapp.NewService(deps.UserRepo, deps.ConfessionRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	confessionH := handler.NewConfessionHandler(confessionSvc)
	adminH := handler.NewAdminHandler(adminSvc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health-check", healthH.Ping)

		// ── Public auth routes (no auth) ─────────────────────────────────────
		r.Route("/auth", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/send-otp", authH.SendOTP)
			r.Post("/resend-otp", authH.ResendOTP)
			r.Post("/verify-otp", authH.VerifyOTP)
			r.Post("/send-reset-otp", authH.SendResetOTP)
			r.Post("/reset-password", authH.ResetPassword)
			r.Post("/login", authH.Login)
		})

		r.Route("/confessions", func(r chi.Router) {
			r.Get("/", confessionH.List)

			// ── Authenticated routes ─────────────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Post("/", confessionH.Create)
				r.Post("/react/{id}", confessionH.React)
				r.Post("/reply", confessionH.Reply)
			})
		})

		// ── Admin-only routes ────────────────────────────────────────────────
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

			r.Get("/users", adminH.ListUsers)
			r.Get("/confessions", adminH.ListConfessions)
			r.Delete("/user/{id}", adminH.DeleteUser)
			r.Delete("/confession/{id}", adminH.DeleteConfession)
		})
	})

	return r
}
