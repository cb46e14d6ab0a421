package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/stats"
)

// PostgresStatsRepository implements stats.Repository using pgx
type PostgresStatsRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStatsRepository creates a new PostgreSQL stats repository
func NewPostgresStatsRepository(pool *pgxpool.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// IncrementBidderStats upserts and increments a bidder's stats atomically
func (r *PostgresStatsRepository) IncrementBidderStats(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, lastBidAt time.Time) error {
	query := `
		INSERT INTO bidder_stats (user_id, total_bids_placed, total_amount_bid, last_bid_at, created_at, updated_at)
		VALUES ($1, 1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			total_bids_placed = bidder_stats.total_bids_placed + 1,
			total_amount_bid = bidder_stats.total_amount_bid + EXCLUDED.total_amount_bid,
			last_bid_at = EXCLUDED.last_bid_at,
			updated_at = NOW()
	`
	_, err := tx.Exec(ctx, query, userID, amount, lastBidAt)
	if err != nil {
		return fmt.Errorf("failed to increment bidder stats: %w", err)
	}
	return nil
}

// GetBidderStats retrieves a bidder's stats
func (r *PostgresStatsRepository) GetBidderStats(ctx context.Context, userID uuid.UUID) (*stats.BidderStats, error) {
	query := `
		SELECT user_id, total_bids_placed, total_amount_bid, last_bid_at, created_at, updated_at
		FROM bidder_stats
		WHERE user_id = $1
	`
	var bs stats.BidderStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&bs.UserID,
		&bs.TotalBidsPlaced,
		&bs.TotalAmountBid,
		&bs.LastBidAt,
		&bs.CreatedAt,
		&bs.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("bidder stats not found")
		}
		return nil, fmt.Errorf("failed to get bidder stats: %w", err)
	}
	return &bs, nil
}

// IsEventProcessed reports whether the event was already applied
func (r *PostgresStatsRepository) IsEventProcessed(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM processed_events WHERE event_id = $1`
	var exists int
	err := tx.QueryRow(ctx, query, eventID).Scan(&exists)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return true, nil
}

// MarkEventProcessed records the event id for idempotency
func (r *PostgresStatsRepository) MarkEventProcessed(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error {
	query := `INSERT INTO processed_events (event_id) VALUES ($1)`
	_, err := tx.Exec(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}
