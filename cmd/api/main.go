package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/greencycle/ewaste-exchange/internal/adapters/api"
	"github.com/greencycle/ewaste-exchange/internal/adapters/database"
	"github.com/greencycle/ewaste-exchange/internal/adapters/events"
	"github.com/greencycle/ewaste-exchange/internal/adapters/leaderboard"
	"github.com/greencycle/ewaste-exchange/internal/config"
	"github.com/greencycle/ewaste-exchange/internal/domain/bids"
	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	"github.com/greencycle/ewaste-exchange/internal/domain/rewards"
	"github.com/greencycle/ewaste-exchange/internal/domain/users"
	"github.com/greencycle/ewaste-exchange/internal/sweeper"
	"github.com/greencycle/ewaste-exchange/migrations"
	"github.com/greencycle/ewaste-exchange/pkg/auth"
	pkgdb "github.com/greencycle/ewaste-exchange/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if pingErr := pool.Ping(ctx); pingErr != nil {
		logger.Error("unable to ping database", "error", pingErr)
		os.Exit(1)
	}
	logger.Info("postgres connected")

	if cfg.AutoMigrate {
		if err := migrate(cfg.DatabaseURL); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// RabbitMQ
	amqpConn, err := amqp091.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("rabbitmq connected")

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis connection failed, leaderboard reads may fail", "error", err)
	} else {
		logger.Info("redis connected")
	}

	// Repositories
	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.LockTimeout)
	itemRepo := database.NewPostgresItemRepository(pool)
	bidRepo := database.NewPostgresBidRepository(pool)
	userRepo := database.NewPostgresUserRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository(pool)
	payoutRepo := database.NewPostgresPayoutRepository(pool)
	board := leaderboard.NewRedisLeaderboard(rdb)

	// Domain services
	itemService := items.NewService(itemRepo)
	bidService := bids.NewService(txManager, bidRepo, itemRepo, outboxRepo)
	userService := users.NewService(userRepo)
	rewardService := rewards.NewService(txManager, userRepo, payoutRepo, board, logger)

	signer, err := auth.NewSigner([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.SessionTTL)
	if err != nil {
		logger.Error("failed to create token signer", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(itemService, bidService, userService, rewardService, signer, logger)

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: h2c.NewHandler(handler.Routes(), &http2.Server{}),
	}

	sweep := sweeper.New(txManager, itemRepo, outboxRepo, cfg.SweepInterval, logger)

	producer, err := events.NewMarketEventsProducer(pool, amqpConn, cfg.OutboxBatchSize, cfg.OutboxPollInterval, logger)
	if err != nil {
		logger.Error("failed to create event producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting API server", "addr", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting bidding sweeper", "interval", cfg.SweepInterval.String())
		return sweep.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting outbox relay")
		return producer.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func migrate(dbURL string) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

func logLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
