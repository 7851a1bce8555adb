// Package api exposes the HTTP surface of the service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Options struct {
	Addr           string
	FrontendURL    string
	AllowedOrigins []string
	CookieSecure   bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

type Server struct {
	opts   Options
	svc    Services
	tokens TokenParser
	db     Pinger
	log    *zap.Logger
	router *chi.Mux
}

func NewServer(opts Options, svc Services, tokens TokenParser, db Pinger, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}

	r := chi.NewRouter()
	s := &Server{
		opts:   opts,
		svc:    svc,
		tokens: tokens,
		db:     db,
		log:    log,
		router: r,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/credits/preview", s.handlePreview)
		r.Get("/settings/credits", s.handleCreditSettings)
		r.Get("/settings", s.handleGetSettings)

		r.Post("/request-otp", s.handleRequestOTP)
		r.Post("/verify-otp", s.handleVerifyOTP)
		r.Post("/complete", s.handleComplete)
		r.Post("/login", s.handleLogin)
		r.Post("/forgot/request-otp", s.handleForgotRequestOTP)
		r.Post("/forgot/verify-otp", s.handleForgotVerifyOTP)
		r.Post("/forgot/reset", s.handleForgotReset)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.Get("/google", s.handleGoogleStart)
		r.Get("/google/callback", s.handleGoogleCallback)

		r.Get("/admin/about", s.handleGetAbout)
		r.Get("/admin/terms", s.handleGetTerms)
		r.Get("/admin/privacy-policy", s.handleGetPrivacy)
		r.Post("/contact", s.handleSubmitContact)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/credits/initiate", s.handleInitiate)
			r.Post("/credits/execute", s.handleExecute)

			r.Get("/me", s.handleMe)
			r.Get("/verify", s.handleVerify)
			r.Post("/auth/reset-password", s.handleChangePassword)
			r.Post("/account/delete", s.handleDeleteAccount)

			r.Post("/runware/txt2img", s.handleGenerate)
			r.Get("/runware/mine", s.handleMine)
			r.Post("/user-images/{id}/favorite", s.handleFavorite)
			r.Post("/user-images/{id}/delete", s.handleDeleteImage)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/settings", s.handleSaveSettings)
				r.Post("/admin/about", s.handleSaveAbout)
				r.Post("/admin/terms", s.handleSaveTerms)
				r.Post("/admin/privacy-policy", s.handleSavePrivacy)
				r.Get("/contact", s.handleListContact)
				r.Route("/users", func(r chi.Router) {
					r.Get("/", s.handleListUsers)
					r.Get("/{id}/details", s.handleUserDetails)
					r.Get("/{id}/transactions", s.handleUserTransactions)
					r.Post("/{id}/block", s.handleBlockUser)
					r.Post("/{id}/unblock", s.handleUnblockUser)
				})
			})
		})
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Image generation holds the request open while Runware renders.
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("api shutdown error", zap.Error(err))
		}
	}()

	s.log.Info("api listening", zap.String("addr", s.opts.Addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
