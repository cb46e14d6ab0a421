package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/bids"
)

// PostgresBidRepository implements bids.BidRepository using pgx
type PostgresBidRepository struct {
	pool *pgxpool.Pool // Keep pool for read-only operations
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// SaveBid saves a bid within a transaction
func (r *PostgresBidRepository) SaveBid(ctx context.Context, tx pgx.Tx, bid *bids.Bid) error {
	query := `
		INSERT INTO bids (id, item_id, bidder_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query,
		bid.ID,
		bid.ItemID,
		bid.BidderID,
		bid.Amount,
		bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// GetBidsByItemID retrieves all bids for an item, highest amount first.
// Equal amounts cannot occur under the strictly-greater rule, but the
// ordering contract breaks ties by earlier submission anyway.
func (r *PostgresBidRepository) GetBidsByItemID(ctx context.Context, itemID uuid.UUID) ([]*bids.ItemBid, error) {
	query := `
		SELECT b.id, b.item_id, b.bidder_id, b.amount, b.created_at, u.wallet_address
		FROM bids b
		JOIN users u ON u.id = b.bidder_id
		WHERE b.item_id = $1
		ORDER BY b.amount DESC, b.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var result []*bids.ItemBid
	for rows.Next() {
		var bid bids.ItemBid
		if err := rows.Scan(
			&bid.ID,
			&bid.ItemID,
			&bid.BidderID,
			&bid.Amount,
			&bid.CreatedAt,
			&bid.BidderWallet,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, &bid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return result, nil
}

// GetAllBids retrieves every bid with item and bidder annotations
func (r *PostgresBidRepository) GetAllBids(ctx context.Context) ([]*bids.MarketBid, error) {
	query := `
		SELECT b.id, b.item_id, b.bidder_id, b.amount, b.created_at, i.name, u.wallet_address
		FROM bids b
		JOIN items i ON i.id = b.item_id
		JOIN users u ON u.id = b.bidder_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var result []*bids.MarketBid
	for rows.Next() {
		var bid bids.MarketBid
		if err := rows.Scan(
			&bid.ID,
			&bid.ItemID,
			&bid.BidderID,
			&bid.Amount,
			&bid.CreatedAt,
			&bid.ItemName,
			&bid.BidderWallet,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, &bid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return result, nil
}

// HighestBidAmount recomputes the maximum bid amount for an item
func (r *PostgresBidRepository) HighestBidAmount(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(MAX(amount), 0) FROM bids WHERE item_id = $1`

	var highest decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, itemID).Scan(&highest); err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate bids: %w", err)
	}
	return highest, nil
}
