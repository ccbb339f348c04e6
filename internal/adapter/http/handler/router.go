package handler

import (
	"os"

	"money-transfer/internal/adapter/http/middleware"
	"money-transfer/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1 MB

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	TransferSvc    ports.TransferService
	AuditSvc       ports.AuditService   // nil = audit logging disabled
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	OpenAPISpec    []byte // nil = /swagger/spec answers 404
	AssetsDir      string // served under /assets when it exists
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/", Home)
	if deps.AssetsDir != "" {
		if fi, err := os.Stat(deps.AssetsDir); err == nil && fi.IsDir() {
			r.Static("/assets", deps.AssetsDir)
		}
	}
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swaggerHandler := NewSwaggerHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", swaggerHandler.UI)
		swagger.GET("/spec", swaggerHandler.Spec)
	}

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	api := r.Group("/api")

	accountHandler := NewAccountHandler(deps.AccountSvc)
	accounts := api.Group("/accounts")
	{
		accounts.GET("", rl("accounts_read"), accountHandler.List)
		accounts.POST("", rl("accounts_write"), accountHandler.Create)
		accounts.GET("/:id", rl("accounts_read"), accountHandler.Get)
		accounts.PUT("/:id", rl("accounts_write"), accountHandler.Update)
		accounts.PATCH("/:id", rl("accounts_write"), accountHandler.Update)
		accounts.DELETE("/:id", rl("accounts_write"), accountHandler.Delete)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	transfers := api.Group("/transfers")
	{
		transfers.GET("", rl("transfers_read"), transferHandler.List)
		transfers.POST("", rl("transfers_create"), transferHandler.Create)
		transfers.GET("/:id", rl("transfers_read"), transferHandler.Get)
		transfers.PUT("/:id", rl("transfers_settle"), transferHandler.Settle)
		transfers.POST("/:id/settle", rl("transfers_settle"), transferHandler.Settle)
	}

	return r
}
