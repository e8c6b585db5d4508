package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/shiftremit/backend/internal/config"
	"github.com/shiftremit/backend/internal/handler"
	"github.com/shiftremit/backend/internal/logging"
	"github.com/shiftremit/backend/internal/middleware"
	"github.com/shiftremit/backend/internal/notify"
	"github.com/shiftremit/backend/internal/rate"
	"github.com/shiftremit/backend/internal/reference"
	"github.com/shiftremit/backend/internal/repository"
	"github.com/shiftremit/backend/internal/service/dashboard"
	"github.com/shiftremit/backend/internal/service/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("shiftremit-api", cfg.LogLevel, cfg.AppEnv)

	db, err := repository.Open(cfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.WaitForDB(waitCtx, db); err != nil {
		waitCancel()
		slog.Error("database never became ready", "error", err)
		os.Exit(1)
	}
	waitCancel()

	transferRepo := repository.NewTransferRepository(db)
	rateRepo := repository.NewRateRepository(db)
	userRepo := repository.NewUserRepository(db)
	payoutRepo := repository.NewPayoutAccountRepository(db)

	benchmarkClient := rate.NewBenchmarkClient(cfg.RateSourceURL, time.Duration(cfg.RateFetchTimeoutS)*time.Second)
	rateProvider := rate.NewProvider(rateRepo, benchmarkClient)

	relay := notify.NewRelayClient(cfg.MailRelayURL, time.Duration(cfg.NotifyTimeoutS)*time.Second)
	mailer := notify.NewEmailDispatcher(relay, cfg.MailFrom, cfg.OpsEmail)

	refGenerator := reference.NewGenerator(transferRepo)

	transferSvc := transfer.NewService(
		transferRepo,
		rateProvider,
		refGenerator,
		payoutRepo,
		mailer,
		time.Duration(cfg.NotifyTimeoutS)*time.Second,
	)
	dashboardSvc := dashboard.NewService(transferRepo)

	jwtExpiry := time.Duration(cfg.JWTExpiryHours) * time.Hour
	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, jwtExpiry)
	transferHandler := handler.NewTransferHandler(transferSvc)
	rateHandler := handler.NewRateHandler(rateProvider)
	adminHandler := handler.NewAdminHandler(transferSvc, dashboardSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	authed := http.NewServeMux()
	authed.HandleFunc("POST /api/transfers", transferHandler.Create)
	authed.HandleFunc("GET /api/transfers", transferHandler.List)
	authed.HandleFunc("GET /api/transfers/{id}", transferHandler.Get)
	authed.HandleFunc("GET /api/rates", rateHandler.Current)

	admin := http.NewServeMux()
	admin.HandleFunc("GET /api/admin/transfers", adminHandler.ListTransfers)
	admin.HandleFunc("PATCH /api/admin/transfers/{id}/status", adminHandler.UpdateTransferStatus)
	admin.HandleFunc("DELETE /api/admin/transfers", adminHandler.PurgeTransfers)
	admin.HandleFunc("GET /api/admin/overview", adminHandler.Overview)
	admin.HandleFunc("PUT /api/admin/rates", rateHandler.Set)
	admin.HandleFunc("GET /api/admin/rates/history", rateHandler.History)
	admin.HandleFunc("POST /api/admin/rates/refresh", rateHandler.Refresh)
	admin.HandleFunc("GET /api/admin/payout-account", adminHandler.GetPayoutAccount)
	admin.HandleFunc("PUT /api/admin/payout-account", adminHandler.UpdatePayoutAccount)

	withAuth := middleware.Auth(cfg.JWTSecret)
	authed.Handle("/api/admin/", middleware.RequireAdmin(admin))
	mux.Handle("/api/transfers", withAuth(authed))
	mux.Handle("/api/transfers/", withAuth(authed))
	mux.Handle("/api/rates", withAuth(authed))
	mux.Handle("/api/admin/", withAuth(authed))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
