package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"money-transfer/config"
	httpHandler "money-transfer/internal/adapter/http/handler"
	"money-transfer/internal/adapter/storage/memory"
	redisStorage "money-transfer/internal/adapter/storage/redis"
	"money-transfer/internal/core/ports"
	"money-transfer/internal/service"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const readHeaderTimeout = 5 * time.Second

// App is the assembled money transfer service.
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	handler http.Handler
	audit   *service.AuditServiceImpl
	rdb     *goredis.Client

	Accounts  ports.AccountService
	Transfers ports.TransferService
}

// New wires storage, services and the HTTP router from cfg. When Redis is
// enabled it must be reachable; idempotency keys and rate limiting depend on it.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	setGinMode(cfg.Server.Mode)

	a := &App{cfg: cfg, log: log}

	// In-memory ledger
	accountRepo := memory.NewAccountStore(memory.NewSequence(1))
	transferRepo := memory.NewTransferStore(memory.NewSequence(1))
	locker := memory.NewKeyedLocker()

	var (
		idempCache     ports.IdempotencyCache
		rateLimitStore ports.RateLimitStore
		healthCheckers []ports.HealthChecker
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.rdb = rdb
		idempCache = redisStorage.NewIdempotencyCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Info().Msg("redis disabled, idempotency keys and rate limiting are off")
	}

	accountSvc := service.NewAccountService(accountRepo, locker, log)
	transferSvc := service.NewTransferService(accountRepo, transferRepo, locker, idempCache, cfg.Ledger.IdempotencyTTL, log)
	a.audit = service.NewAuditService(log)
	a.Accounts = accountSvc
	a.Transfers = transferSvc

	if cfg.Ledger.SeedDemoData {
		if err := service.SeedDemoData(ctx, accountSvc, transferSvc); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
		log.Info().Msg("demo accounts and transfers seeded")
	}

	var spec []byte
	if cfg.Server.OpenAPIPath != "" {
		b, err := os.ReadFile(cfg.Server.OpenAPIPath)
		if err != nil {
			log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
		} else {
			spec = b
			log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
		}
	}

	a.handler = httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		TransferSvc:    transferSvc,
		AuditSvc:       a.audit,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		OpenAPISpec:    spec,
		AssetsDir:      cfg.Server.AssetsDir,
		Logger:         log,
	})

	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Server.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts down gracefully
// within server.shutdown_timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("Server forced to shutdown")
		return fmt.Errorf("shutting down: %w", err)
	}
	a.log.Info().Msg("Server exited")
	return nil
}

// Close drains pending audit entries and releases the Redis client.
func (a *App) Close() error {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.rdb != nil {
		return a.rdb.Close()
	}
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

func setGinMode(mode string) {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}
