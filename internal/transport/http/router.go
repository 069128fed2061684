package http

import (
	"net/http"

	"github.com/GioMjds/savoury-api/internal/application/registration"
	"github.com/GioMjds/savoury-api/internal/application/session"
	"github.com/GioMjds/savoury-api/internal/application/user"
	"github.com/GioMjds/savoury-api/internal/config"
	"github.com/GioMjds/savoury-api/internal/transport/http/handler"
	appmiddleware "github.com/GioMjds/savoury-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
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
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = appmiddleware.AuthUnavailable
	}

	// 5 requests/second with a burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	registrationSvc := registration.NewService(registration.ServiceDeps{
		UserRepo:       deps.UserRepo,
		Ledger:         deps.Ledger,
		Mailer:         deps.Mailer,
		ImageStore:     deps.S3Store,
		OTPTTL:         cfg.OTPTTL,
		BcryptCost:     cfg.BcryptCost,
		PasswordPolicy: cfg.PasswordPolicy,
		EmailPolicy:    cfg.EmailPolicy,
		AvatarPath:     cfg.DefaultAvatarPath,
	})
	var sessionSvc session.Service
	if deps.JWTProvider != nil {
		sessionSvc = session.NewService(deps.UserRepo, deps.JWTProvider)
	} else {
		sessionSvc = session.NewService(deps.UserRepo, nil)
	}
	userSvc := user.NewService(deps.UserRepo, deps.S3Store)

	secureCookies := cfg.AppEnv != "development"

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(registrationSvc)
	sessionH := handler.NewSessionHandler(sessionSvc, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, secureCookies)
	userH := handler.NewUserHandler(userSvc)
	pwH := handler.NewPasswordRecoveryHandler()

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/register/resend", authH.ResendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/register/verify", authH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.Post("/sessions/logout", sessionH.Logout)
		r.Post("/password-recovery/{action}", pwH.Action)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Get("/users/me", userH.Me)
			r.Put("/users/me/avatar", userH.UpdateAvatar)
		})
	})

	return r
}
