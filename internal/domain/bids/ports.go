package bids

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	pkgevents "github.com/greencycle/ewaste-exchange/pkg/events"
)

// BidRepository defines the interface for bid persistence
type BidRepository interface {
	// SaveBid saves a bid within a transaction
	SaveBid(ctx context.Context, tx pgx.Tx, bid *Bid) error

	// GetBidsByItemID retrieves all bids for an item, highest amount first,
	// earlier bids first on equal amounts
	GetBidsByItemID(ctx context.Context, itemID uuid.UUID) ([]*ItemBid, error)

	// GetAllBids retrieves every bid with item and bidder annotations.
	// No ordering is guaranteed.
	GetAllBids(ctx context.Context) ([]*MarketBid, error)

	// HighestBidAmount recomputes the maximum bid amount for an item by
	// aggregation. Consistency check only; never part of the validation path.
	HighestBidAmount(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}

// OutboxRepository defines the interface for outbox event persistence
type OutboxRepository interface {
	// SaveEvent saves an outbox event within a transaction
	SaveEvent(ctx context.Context, tx pgx.Tx, event *pkgevents.OutboxEvent) error
}
