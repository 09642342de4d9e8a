package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/reportello/reportello-backend/api/routes"
	"github.com/reportello/reportello-backend/internal/allowlist"
	"github.com/reportello/reportello-backend/internal/auth"
	"github.com/reportello/reportello-backend/internal/reports"
	"github.com/reportello/reportello-backend/internal/users"
	"github.com/reportello/reportello-backend/pkg/auth/session"
	"github.com/reportello/reportello-backend/pkg/config"
	"github.com/reportello/reportello-backend/pkg/db"
	"github.com/reportello/reportello-backend/pkg/logger"
	"github.com/reportello/reportello-backend/pkg/metrics"
	"github.com/reportello/reportello-backend/pkg/migrate"
	"github.com/reportello/reportello-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient)
	reportRepo := reports.NewRepository(dbClient)
	allowListRepo := allowlist.NewRepository(dbClient)

	userService, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(reports.ServiceParams{
		Repo:   reportRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	allowListService, err := allowlist.NewService(allowListRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create allow list service", err)
		os.Exit(1)
	}

	var verifier auth.IDTokenVerifier
	if cfg.Google.ClientID != "" {
		verifier, err = auth.NewGoogleVerifier(cfg.Google)
		if err != nil {
			logg.Error(context.Background(), "failed to create google verifier", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "google client id not configured, federated sign-in disabled")
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		AllowList:      allowListService,
		TokenVerifier:  verifier,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			httpMetrics,
			registry,
			dbClient,
			redisClient,
			sessionManager,
			users.NewGate(userRepo),
			authService,
			userService,
			reportService,
			allowListService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
