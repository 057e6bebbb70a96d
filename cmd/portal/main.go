// Command portal serves the InsureLine customer, agent and admin portal.
//
//	@title			InsureLine Portal
//	@version		1.0
//	@description	Role-gated portal for customers, agents and administrators.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/insureline/portal/internal/api"
	"github.com/insureline/portal/internal/api/handler"
	"github.com/insureline/portal/internal/api/metrics"
	"github.com/insureline/portal/internal/api/middleware"
	"github.com/insureline/portal/internal/core/service"
	"github.com/insureline/portal/internal/infrastructure/clients"
	"github.com/insureline/portal/internal/infrastructure/config"
	mongodb "github.com/insureline/portal/internal/infrastructure/db/mongo"
	redisdb "github.com/insureline/portal/internal/infrastructure/db/redis"
	"github.com/insureline/portal/internal/infrastructure/queue"
	"github.com/insureline/portal/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "portal:", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := pflag.String("env-file", "", "dotenv file loaded before reading the environment")
	pflag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "portal",
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	auditRepo := mongodb.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx, cfg.Audit.Retention); err != nil {
		log.Warn().Err(err).Msg("audit indexes not ensured")
	}

	// Audit workers outlive the request context so queued events drain
	// after the server stops.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))
	dispatcher.Start(workerCtx)

	// --- Collaborators ---
	gateways, err := newGateways(cfg, rdb, log)
	if err != nil {
		stopWorkers()
		return err
	}

	// --- Sessions ---
	sessions := service.NewSessionService(
		redisdb.NewSessionStorage(rdb),
		gateways.Auth,
		dispatcher,
		service.SessionConfig{
			Secret:           []byte(cfg.Session.Secret),
			TTL:              cfg.Session.TTL,
			JWTSecret:        cfg.Session.JWTSecret,
			RehydrateTimeout: cfg.Session.RehydrateTimeout,
		},
		logger.Component("sessions"),
	)
	sessions.StartJanitor(ctx, cfg.Session.JanitorInterval)
	if err := metrics.RegisterSessionGauge(prometheus.DefaultRegisterer, sessions.Active); err != nil {
		log.Warn().Err(err).Msg("session gauge not registered")
	}

	// --- HTTP ---
	e, err := api.NewRouter(api.Dependencies{
		Sessions:         sessions,
		Audit:            dispatcher,
		Gateways:         gateways,
		Cookie:           middleware.CookieOptions{Secure: cfg.Session.CookieSecure},
		DashboardRefresh: cfg.Dashboard.Refresh,
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		OptionalChecks: []string{"redis"},
		Log:            log,
	})
	if err != nil {
		stopWorkers()
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("portal listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stopWorkers()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("stopped")
	return nil
}

func newGateways(cfg *config.Config, rdb *goredis.Client, log zerolog.Logger) (service.Gateways, error) {
	clientCfg := func(base string, component string) clients.Config {
		return clients.Config{
			BaseURL: base,
			Timeout: cfg.Collaborators.Timeout,
			Logger:  log.With().Str("component", component).Logger(),
		}
	}

	auth, err := clients.NewAuthClient(clientCfg(cfg.Collaborators.AuthURL, "auth_client"))
	if err != nil {
		return service.Gateways{}, err
	}
	policy, err := clients.NewPolicyClient(clientCfg(cfg.Collaborators.PolicyURL, "policy_client"))
	if err != nil {
		return service.Gateways{}, err
	}
	claims, err := clients.NewClaimsClient(clientCfg(cfg.Collaborators.ClaimsURL, "claims_client"))
	if err != nil {
		return service.Gateways{}, err
	}

	return service.Gateways{
		Auth:   auth,
		Policy: redisdb.NewCatalogCache(policy, rdb, cfg.Dashboard.CatalogCacheTTL, log.With().Str("component", "catalog_cache").Logger()),
		Claims: claims,
	}, nil
}
