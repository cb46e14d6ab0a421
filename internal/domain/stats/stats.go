package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/pkg/database"
)

// BidderStats aggregates a user's bidding activity
type BidderStats struct {
	UserID          uuid.UUID       `db:"user_id"`
	TotalBidsPlaced int64           `db:"total_bids_placed"`
	TotalAmountBid  decimal.Decimal `db:"total_amount_bid"`
	LastBidAt       time.Time       `db:"last_bid_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// BidPlacedEvent is the consumer-side view of a bid.placed event
type BidPlacedEvent struct {
	EventID   uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	Timestamp time.Time
}

// Repository defines the interface for bidder stats persistence
type Repository interface {
	// IncrementBidderStats upserts and increments a bidder's stats within a transaction
	IncrementBidderStats(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, lastBidAt time.Time) error

	// GetBidderStats retrieves a bidder's stats
	GetBidderStats(ctx context.Context, userID uuid.UUID) (*BidderStats, error)

	// IsEventProcessed reports whether the event was already applied
	IsEventProcessed(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (bool, error)

	// MarkEventProcessed records the event id for idempotency
	MarkEventProcessed(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error
}

// Service applies bid events to bidder stats
type Service struct {
	repo      Repository
	txManager database.TransactionManager
}

// NewService creates a new stats service
func NewService(repo Repository, txManager database.TransactionManager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// ProcessBidPlaced applies one bid.placed event. Processing is idempotent:
// a redelivered event is acknowledged without a second increment.
func (s *Service) ProcessBidPlaced(ctx context.Context, event BidPlacedEvent) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	isProcessed, err := s.repo.IsEventProcessed(ctx, tx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check idempotency: %w", err)
	}
	if isProcessed {
		return nil
	}

	if err := s.repo.IncrementBidderStats(ctx, tx, event.BidderID, event.Amount, event.Timestamp); err != nil {
		return fmt.Errorf("failed to increment bidder stats: %w", err)
	}

	if err := s.repo.MarkEventProcessed(ctx, tx, event.EventID); err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
