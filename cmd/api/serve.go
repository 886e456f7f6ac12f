package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/chatkit/chat-backend/internal/api/http"
	"github.com/chatkit/chat-backend/internal/api/http/handlers"
	"github.com/chatkit/chat-backend/internal/auth"
	"github.com/chatkit/chat-backend/internal/config"
	"github.com/chatkit/chat-backend/internal/events"
	"github.com/chatkit/chat-backend/internal/observability"
	"github.com/chatkit/chat-backend/internal/persistence"
	"github.com/chatkit/chat-backend/internal/repository"
	"github.com/chatkit/chat-backend/internal/service"
	"github.com/chatkit/chat-backend/internal/worker"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return oops.Code("LOGGER_INIT_FAILED").Wrap(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return oops.Code("LISTEN_FAILED").With("addr", cfg.App.Addr()).Wrap(err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return srv.app.Shutdown()
}

// server holds the assembled application and the resources it owns.
type server struct {
	app      *fiber.App
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

func (s *server) close() {
	s.redis.Close()
	s.postgres.Close()
}

// newServer wires storage, services and HTTP routes. An empty POSTGRES_DSN
// selects the in-memory account directory; an empty REDIS_ADDR disables
// the account cache.
func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*server, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			pg.Close()
			return nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)

	var accounts repository.AccountRepository
	if pg.Enabled() {
		accounts = repository.NewPostgresAccountRepository(pg.Pool)
	} else {
		accounts = repository.NewMemoryAccountRepository()
	}
	if redis.Enabled() {
		accounts = repository.NewCachedAccountRepository(accounts, redis.Client, cfg.Redis.CacheTTL(), logger)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger, metrics)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Accounts:   accounts,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORS:        cfg.CORS,
		Interceptor: auth.NewAuthMiddleware(authService.TokenManager(), cfg.Auth.CookieName, logger),
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Accounts: handlers.NewAccountsHandler(authService, cfg.Auth.CookieName),
		Metrics:  metrics.Handler(),
	})

	return &server{app: app, postgres: pg, redis: redis}, nil
}
