package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/stats"
	pkgevents "github.com/greencycle/ewaste-exchange/pkg/events"
)

const bidStatsQueue = "bidder_stats_bids"

// BidConsumer consumes bid.placed events and updates bidder statistics
type BidConsumer struct {
	conn    *amqp.Connection
	service *stats.Service
	logger  *slog.Logger
}

// NewBidConsumer creates a new bid consumer
func NewBidConsumer(conn *amqp.Connection, service *stats.Service, logger *slog.Logger) *BidConsumer {
	return &BidConsumer{
		conn:    conn,
		service: service,
		logger:  logger,
	}
}

// Run starts the consumer loop
func (c *BidConsumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if setupErr := c.setupRabbitMQ(ch); setupErr != nil {
		return fmt.Errorf("failed to setup rabbitmq: %w", setupErr)
	}

	msgs, err := ch.Consume(
		bidStatsQueue, // queue
		"",            // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Waiting for messages...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *BidConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	c.logger.Info("Received message", "routing_key", d.RoutingKey)

	event, err := decodeBidPlaced(d.Body)
	if err != nil {
		c.logger.Error("Failed to decode event", "error", err)
		// Malformed payloads can never be processed; drop without requeue.
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to Nack message", "error", nackErr)
		}
		return
	}

	if err := c.service.ProcessBidPlaced(ctx, event); err != nil {
		c.logger.Error("Failed to process event", "error", err)
		// Requeue and retry
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to Nack message (requeue)", "error", nackErr)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		c.logger.Error("Failed to Ack message", "error", ackErr)
		return
	}
	c.logger.Info("Successfully processed event", "bid_id", event.EventID)
}

// decodeBidPlaced maps a wire payload to the consumer-side event. The bid id
// doubles as the idempotency key.
func decodeBidPlaced(body []byte) (stats.BidPlacedEvent, error) {
	var payload pkgevents.BidPlacedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return stats.BidPlacedEvent{}, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	bidID, err := uuid.Parse(payload.BidID)
	if err != nil {
		return stats.BidPlacedEvent{}, fmt.Errorf("invalid bid id: %w", err)
	}
	bidderID, err := uuid.Parse(payload.BidderID)
	if err != nil {
		return stats.BidPlacedEvent{}, fmt.Errorf("invalid bidder id: %w", err)
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		return stats.BidPlacedEvent{}, fmt.Errorf("invalid amount: %w", err)
	}

	return stats.BidPlacedEvent{
		EventID:   bidID,
		BidderID:  bidderID,
		Amount:    amount,
		Timestamp: payload.Timestamp,
	}, nil
}

func (c *BidConsumer) setupRabbitMQ(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		pkgevents.Exchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		bidStatsQueue, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return err
	}

	return ch.QueueBind(
		q.Name,                       // queue name
		pkgevents.EventTypeBidPlaced, // routing key
		pkgevents.Exchange,           // exchange
		false,
		nil,
	)
}
