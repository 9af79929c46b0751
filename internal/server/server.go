// Package server wires the database, services, handlers and middleware into
// one chi router and runs it until SIGINT or SIGTERM.
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and a logger, then
//
//	Server.New() creates: sqlite.DB → cached tree repository → services → handlers
//
// Every dependency is assembled here, in New/setupRoutes, and nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/cache"
	"github.com/sakif/wellwishers/internal/config"
	"github.com/sakif/wellwishers/internal/handler"
	"github.com/sakif/wellwishers/internal/metrics"
	"github.com/sakif/wellwishers/internal/middleware"
	sqliteRepo "github.com/sakif/wellwishers/internal/repository/sqlite"
	"github.com/sakif/wellwishers/internal/service"
)

// Server owns the database connection and closes it on shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics metrics.Recorder
	limiter *middleware.IPRateLimiter
	now     func() time.Time
}

// Option adjusts a Server before its routes are built.
type Option func(*Server)

// WithClock replaces the clock the reveal gate reads.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(cfg.MetricsEnabled),
		limiter: middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database without running the HTTP server.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /healthz                       liveness + database ping
//	GET  /metrics                       Prometheus (when enabled)
//	POST /auth/logout                   clear the session cookie
//	GET  /auth/google/login|callback    Google sign-in (when configured)
//	POST /api/signup                    rate limited
//	GET  /api/icons
//	GET  /api/user/tree/{treeId}
//	GET  /api/tree/{treeId}/share
//	GET  /api/tree/{treeId}             optional auth
//	GET  /api/tree/{treeId}/ornaments   optional auth
//	GET  /api/tree/{treeId}/wishes      optional auth
//	GET  /api/me                        auth
//	POST /api/trees                     auth, rate limited
//	POST /api/tree/{treeId}/ornament    auth, rate limited
//	POST /api/tree/{treeId}/wish        auth, rate limited
//	GET  /api/content[/{id}]            auth
//	POST /api/content                   auth (admin), rate limited
//
// MIDDLEWARE ORDER MATTERS:
// RequestID must run before Logger so the log line carries the id, and
// RealIP before the rate limiter so proxied clients get their own bucket.
func (s *Server) setupRoutes() error {
	cfg := s.config

	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(metrics.Middleware(s.metrics))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.PublicOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// === Dependency Chain ===
	// Tree metadata goes through the cache; everything else reads the DB.
	store := cache.Instrument(cache.New(cfg.CacheSizeMB, cfg.CacheTTL, s.logger), s.metrics)
	trees := cache.NewTreeRepository(s.db, store, s.logger)

	participantService := service.NewParticipantService(s.db, tokens, cfg.Admins(), s.metrics, s.logger)
	treeService := service.NewTreeService(trees, s.db, s.db, schedule, cfg.PublicOrigin, s.logger)
	treeService.SetClock(s.now)
	ornamentService := service.NewOrnamentService(treeService, s.db, s.db, s.metrics, s.logger)
	wishService := service.NewWishService(treeService, s.db, s.db, s.metrics, s.logger)
	contentService := service.NewContentService(s.db, s.db, s.logger)

	cookies := handler.Cookies{TTL: tokens.TTL(), Secure: cfg.SecureCookies()}
	participantHandler := handler.NewParticipantHandler(participantService, cookies, s.logger)
	treeHandler := handler.NewTreeHandler(treeService, ornamentService, s.logger)
	wishHandler := handler.NewWishHandler(wishService, s.logger)
	contentHandler := handler.NewContentHandler(contentService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	// === Operational Routes ===
	s.router.Get("/healthz", healthHandler.HandleHealth)
	if cfg.MetricsEnabled {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	// === Auth Routes ===
	s.router.Post("/auth/logout", participantHandler.HandleLogout)
	if cfg.GoogleEnabled() {
		google := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		googleHandler := handler.NewGoogleHandler(google, participantService, cookies, cfg.PublicOrigin, s.logger)
		s.router.Get("/auth/google/login", googleHandler.HandleLogin)
		s.router.Get("/auth/google/callback", googleHandler.HandleCallback)
		s.logger.Info("Google sign-in enabled")
	} else {
		s.logger.Warn("Google sign-in not configured; /auth/google routes disabled")
	}

	// === API Routes ===
	limited := s.limiter.Middleware
	s.router.Route("/api", func(r chi.Router) {
		r.With(limited).Post("/signup", participantHandler.HandleSignup)
		r.Get("/icons", treeHandler.HandleIcons)
		r.Get("/user/tree/{treeId}", treeHandler.HandleGetOwner)
		r.Get("/tree/{treeId}/share", treeHandler.HandleShare)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/tree/{treeId}", treeHandler.HandleGetTree)
			r.Get("/tree/{treeId}/ornaments", treeHandler.HandleListOrnaments)
			r.Get("/tree/{treeId}/wishes", wishHandler.HandleListWishes)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", participantHandler.HandleMe)
			r.Get("/content", contentHandler.HandleList)
			r.Get("/content/{id}", contentHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(limited)
				r.Post("/trees", treeHandler.HandleCreateTree)
				r.Post("/tree/{treeId}/ornament", treeHandler.HandleAddOrnament)
				r.Post("/tree/{treeId}/wish", wishHandler.HandleAddWish)
				r.Post("/content", contentHandler.HandleCreate)
			})
		})
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The limiter sweep stops with the server.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.limiter.Run(sweepCtx, time.Minute)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("publicOrigin", s.config.PublicOrigin),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
