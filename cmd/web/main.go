package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/config"
	"github.com/AdamBeresnev/op-bracket/internal/db"
	"github.com/AdamBeresnev/op-bracket/internal/live"
	"github.com/AdamBeresnev/op-bracket/internal/lock"
	"github.com/AdamBeresnev/op-bracket/internal/middleware"
	"github.com/AdamBeresnev/op-bracket/internal/service"
	"github.com/AdamBeresnev/op-bracket/internal/slots"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

type application struct {
	cfg            *config.Config
	sessionManager *scs.SessionManager
	adminStore     *store.AdminStore
	hub            *live.Hub
	liveHandler    *live.Handler
	limiter        *middleware.RateLimiter

	tournaments   *service.TournamentService
	registrations *service.RegistrationService
	progression   *service.ProgressionService
	admins        *service.AdminService
}

func newApplication(cfg *config.Config, database *sqlx.DB, sessionManager *scs.SessionManager) *application {
	stores := store.New(database)
	locks := lock.NewKeyed()
	hub := live.NewHub()

	return &application{
		cfg:            cfg,
		sessionManager: sessionManager,
		adminStore:     stores.Admins,
		hub:            hub,
		liveHandler:    live.NewHandler(hub, cfg.AllowedOrigins),
		limiter:        middleware.NewRateLimiter(cfg.RegisterRate, cfg.RegisterBurst),
		tournaments:    service.NewTournamentService(database, stores, locks, hub),
		registrations:  service.NewRegistrationService(database, stores, locks, hub, slots.NewAllocator(), slots.NewCycler()),
		progression:    service.NewProgressionService(database, stores, locks, hub),
		admins:         service.NewAdminService(stores.Admins),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	middleware.InitAuth(cfg.Auth)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApplication(cfg, database, sessionManager)
	go app.hub.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
