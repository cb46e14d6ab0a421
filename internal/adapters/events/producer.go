package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/greencycle/ewaste-exchange/internal/adapters/database"
	pkgdb "github.com/greencycle/ewaste-exchange/pkg/database"
	pkgevents "github.com/greencycle/ewaste-exchange/pkg/events"
)

// MarketEventsProducer relays marketplace events from the outbox to RabbitMQ
type MarketEventsProducer struct {
	relay     *pkgevents.OutboxRelay
	publisher *pkgevents.RabbitMQPublisher
}

// NewMarketEventsProducer creates a new producer relaying at most batchSize
// events per poll.
func NewMarketEventsProducer(pool *pgxpool.Pool, conn *amqp.Connection, batchSize int, pollInterval time.Duration, logger *slog.Logger) (*MarketEventsProducer, error) {
	publisher, err := pkgevents.NewRabbitMQPublisher(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	txManager := pkgdb.NewPostgresTransactionManager(pool, 3*time.Second)
	outboxRepo := database.NewPostgresOutboxRepository(pool)

	relay := pkgevents.NewOutboxRelay(
		outboxRepo,
		publisher,
		txManager,
		batchSize,
		pollInterval,
		pkgevents.Exchange,
		logger,
	)

	return &MarketEventsProducer{
		relay:     relay,
		publisher: publisher,
	}, nil
}

// Run starts the relay loop
func (p *MarketEventsProducer) Run(ctx context.Context) error {
	return p.relay.Run(ctx)
}

// Close closes the publisher channel
func (p *MarketEventsProducer) Close() error {
	return p.publisher.Close()
}
