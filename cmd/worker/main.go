package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/greencycle/ewaste-exchange/internal/adapters/database"
	"github.com/greencycle/ewaste-exchange/internal/adapters/events"
	"github.com/greencycle/ewaste-exchange/internal/config"
	"github.com/greencycle/ewaste-exchange/internal/domain/stats"
	pkgdb "github.com/greencycle/ewaste-exchange/pkg/database"
)

// The worker consumes marketplace events and maintains bidder statistics.
// It runs separately from the API so a slow projection never blocks a bid.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("unable to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("postgres connected")

	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.LockTimeout)
	statsRepo := database.NewPostgresStatsRepository(pool)
	statsService := stats.NewService(statsRepo, txManager)

	amqpConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("rabbitmq connected")

	consumer := events.NewBidConsumer(amqpConn, statsService, logger)
	logger.Info("starting bid consumer")
	if err := consumer.Run(ctx); err != nil {
		logger.Error("consumer failed", "error", err)
		if ctx.Err() == nil {
			os.Exit(1)
		}
	}
	logger.Info("worker stopped")
}
