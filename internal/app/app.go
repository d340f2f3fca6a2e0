package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/gate-go/internal/config"
	"github.com/kirinyoku/gate-go/internal/notify"
	"github.com/kirinyoku/gate-go/internal/postgres"
	redisx "github.com/kirinyoku/gate-go/internal/redis"
	postgresrepo "github.com/kirinyoku/gate-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/gate-go/internal/repository/redis"
	"github.com/kirinyoku/gate-go/internal/service"
	"github.com/kirinyoku/gate-go/internal/service/query"
	"github.com/kirinyoku/gate-go/internal/service/registration"
	"github.com/kirinyoku/gate-go/internal/service/review"
	httpgin "github.com/kirinyoku/gate-go/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	warmer     *statsWarmer
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewEventsPubSub(rdb)
	codes := redisrepo.NewVerificationStore(rdb, cfg.App.SMSCodeTTL)
	smsLimiter := redisrepo.NewSlidingWindowLimiter(
		rdb,
		redisx.KeyRateLimit("sms", "phone"),
		cfg.App.SMSRateLimit,
		cfg.App.SMSRateWindow,
	)
	notifier := notify.NewLogNotifier(logger)

	services := service.NewServices(store, cache, pubsub, codes, smsLimiter, notifier, service.Config{
		Registration: registration.Config{CollectionBaseURL: cfg.App.CollectionBaseURL},
		Review:       review.Config{CollectionBaseURL: cfg.App.CollectionBaseURL},
		Query:        query.Config{StatsTTL: cfg.App.StatsCacheTTL},
	})

	router := httpgin.NewRouter(services, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		warmer: &statsWarmer{
			feed:   pubsub,
			stats:  services.Query,
			logger: logger,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.warmer.run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
