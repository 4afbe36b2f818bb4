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

	"account-ledger/config"
	httpHandler "account-ledger/internal/adapter/http/handler"
	memStorage "account-ledger/internal/adapter/storage/memory"
	pgStorage "account-ledger/internal/adapter/storage/postgres"
	redisStorage "account-ledger/internal/adapter/storage/redis"
	"account-ledger/internal/core/ports"
	"account-ledger/internal/service"
	"account-ledger/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// A local .env may supply LEDGER_* variables; it is optional.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Ledger.Store).
		Msg("Starting Account Ledger")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set (LEDGER_JWT_SECRET)")
	}

	ctx := context.Background()
	var healthCheckers []ports.HealthChecker

	// PostgreSQL holds the snapshot and the audit trail when selected.
	var pool *pgxpool.Pool
	if cfg.Ledger.Store == config.StorePostgres {
		pool, err = pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL connected")
	}

	// Redis backs rate limiting and idempotency, and the snapshot when selected.
	var rdb *goredis.Client
	if cfg.Redis.Enabled || cfg.Ledger.Store == config.StoreRedis {
		rdb, err = redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis connected")
	}

	var snapshotStore ports.SnapshotStore
	var auditRepo ports.AuditRepository
	switch cfg.Ledger.Store {
	case config.StorePostgres:
		snapshotStore = pgStorage.NewSnapshotRepo(pool, cfg.Ledger.Code)
		auditRepo = pgStorage.NewAuditRepository(pool)
	case config.StoreRedis:
		snapshotStore = redisStorage.NewSnapshotCache(rdb, cfg.Ledger.SnapshotKey)
	default:
		snapshotStore = memStorage.NewSnapshotStore()
	}
	if !cfg.Ledger.Durable() {
		log.Warn().Str("store", cfg.Ledger.Store).Msg("snapshot store is in-process, the ledger is lost on exit")
	}

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)

	ledger, err := service.LoadRegistry(ctx, snapshotStore, cfg.Ledger.Name, cfg.Ledger.Code, hashSvc, auditSvc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}
	persister := service.NewPersister(snapshotStore, ledger, log)
	authSvc := service.NewAuthService(ledger, tokenSvc, log)

	deps := httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		Ledger:         ledger,
		TokenSvc:       tokenSvc,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		AuditSvc:       auditSvc,
		HealthCheckers: healthCheckers,
		Logger:         log,
	}
	if rdb != nil {
		deps.RateLimitStore = redisStorage.NewRateLimitStore(rdb)
		deps.IdempotencyCache = redisStorage.NewIdempotencyCache(rdb)
	}
	if cfg.Ledger.Autosave {
		deps.Persister = persister
	}

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(deps)

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Requests are drained, so this snapshot is final.
	if err := persister.Save(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Final snapshot failed")
	}

	log.Info().Msg("Server exited")
}
