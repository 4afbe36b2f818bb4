package handler

import (
	"time"

	"account-ledger/internal/adapter/http/middleware"
	"account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc          ports.AuthService
	Ledger           ports.LedgerService
	TokenSvc         ports.TokenService
	RateLimitStore   ports.RateLimitStore   // nil = rate limiting disabled
	IdempotencyCache ports.IdempotencyCache // nil = Idempotency-Key ignored
	IdempotencyTTL   time.Duration
	Persister        ports.SnapshotPersister // nil = autosave disabled
	AuditSvc         ports.AuditService      // nil = audit logging disabled
	HealthCheckers   []ports.HealthChecker
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Both run after the handler.
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}
	if deps.Persister != nil {
		r.Use(middleware.Autosave(deps.Persister, deps.Logger))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	noop := func(c *gin.Context) { c.Next() }

	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return noop
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	idem := noop
	if deps.IdempotencyCache != nil {
		ttl := deps.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		idem = middleware.Idempotency(deps.IdempotencyCache, ttl, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	v1.POST("/clients", rl("auth_register"), authHandler.Register)
	v1.POST("/auth/login", rl("auth_login"), authHandler.Login)

	// --- JWT-authenticated routes ---
	clientHandler := NewClientHandler(deps.Ledger)
	clients := v1.Group("/clients/me", jwtAuth)
	{
		clients.GET("", rl("ledger_read"), clientHandler.Me)
		clients.PUT("/credential", rl("ledger_write"), authHandler.ChangeCredential)
	}

	accountHandler := NewAccountHandler(deps.Ledger)
	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", rl("ledger_write"), accountHandler.Open)
		accounts.GET("", rl("ledger_read"), accountHandler.List)
		accounts.GET("/:id", rl("ledger_read"), accountHandler.Get)
		accounts.GET("/:id/transactions", rl("ledger_read"), accountHandler.Transactions)

		accounts.POST("/:id/deposit", rl("ledger_write"), idem, accountHandler.Deposit)
		accounts.POST("/:id/withdraw", rl("ledger_write"), idem, accountHandler.Withdraw)
		accounts.POST("/:id/transfer", rl("ledger_write"), idem, accountHandler.Transfer)

		accounts.POST("/:id/block", rl("ledger_write"), accountHandler.Block)
		accounts.POST("/:id/activate", rl("ledger_write"), accountHandler.Activate)
		accounts.POST("/:id/close", rl("ledger_write"), accountHandler.Close)
	}

	reportHandler := NewReportHandler(deps.Ledger)
	reports := v1.Group("/reports", jwtAuth)
	{
		reports.GET("/stats", rl("reports"), reportHandler.Stats)
		reports.GET("/transactions", rl("reports"), reportHandler.Transactions)
	}

	return r
}
