package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	pkgdb "github.com/greencycle/ewaste-exchange/pkg/database"
)

const itemColumns = `id, owner_id, name, category, condition, weight, quantity, location,
		disposition, price, image_url, bidding_enabled, bidding_end_time, last_bid,
		status, bidding_status, status_history, created_at, updated_at`

// PostgresItemRepository implements items.Repository using pgx
type PostgresItemRepository struct {
	pool *pgxpool.Pool // Keep pool for non-transactional reads
}

// NewPostgresItemRepository creates a new PostgreSQL item repository
func NewPostgresItemRepository(pool *pgxpool.Pool) *PostgresItemRepository {
	return &PostgresItemRepository{pool: pool}
}

// CreateItem creates a new listing
func (r *PostgresItemRepository) CreateItem(ctx context.Context, item *items.Item) error {
	query := `
		INSERT INTO items (id, owner_id, name, category, condition, weight, quantity, location,
			disposition, price, image_url, bidding_enabled, bidding_end_time, last_bid,
			status, bidding_status, status_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.OwnerID,
		item.Name,
		item.Category,
		item.Condition,
		item.Weight,
		item.Quantity,
		item.Location,
		item.Disposition,
		item.Price,
		item.ImageURL,
		item.BiddingEnabled,
		item.BiddingEndTime,
		item.LastBid,
		item.Status,
		item.BiddingStatus,
		item.StatusHistory,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItemByID retrieves an item by its ID (non-transactional read)
func (r *PostgresItemRepository) GetItemByID(ctx context.Context, itemID uuid.UUID) (*items.Item, error) {
	return r.getItemByID(ctx, r.pool, itemID, false)
}

// GetItemByIDForUpdate retrieves an item by its ID and locks the row.
// Must be called within a transaction.
func (r *PostgresItemRepository) GetItemByIDForUpdate(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) (*items.Item, error) {
	return r.getItemByID(ctx, tx, itemID, true)
}

// getItemByID is the internal implementation that works with any DBTX
func (r *PostgresItemRepository) getItemByID(ctx context.Context, db pkgdb.DBTX, itemID uuid.UUID, forUpdate bool) (*items.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	row := db.QueryRow(ctx, query, itemID)
	return scanItem(row)
}

// ListItems retrieves listings with pagination, newest first
func (r *PostgresItemRepository) ListItems(ctx context.Context, limit, offset int) ([]*items.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.queryItems(ctx, query, limit, offset)
}

// ListItemsByOwnerID retrieves all listings for a specific owner
func (r *PostgresItemRepository) ListItemsByOwnerID(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*items.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.queryItems(ctx, query, ownerID, limit, offset)
}

func (r *PostgresItemRepository) queryItems(ctx context.Context, query string, args ...any) ([]*items.Item, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var result []*items.Item
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return result, nil
}

func scanItem(row pgx.Row) (*items.Item, error) {
	var item items.Item
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Category,
		&item.Condition,
		&item.Weight,
		&item.Quantity,
		&item.Location,
		&item.Disposition,
		&item.Price,
		&item.ImageURL,
		&item.BiddingEnabled,
		&item.BiddingEndTime,
		&item.LastBid,
		&item.Status,
		&item.BiddingStatus,
		&item.StatusHistory,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	return &item, nil
}

// UpdateLastBid updates the cached highest bid for an item within a transaction
func (r *PostgresItemRepository) UpdateLastBid(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE items
		SET last_bid = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, amount, itemID)
	if err != nil {
		return fmt.Errorf("failed to update last bid: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

// UpdateStatus sets the lifecycle status and appends a status history entry
func (r *PostgresItemRepository) UpdateStatus(ctx context.Context, itemID uuid.UUID, status items.Status, at time.Time) error {
	query := `
		UPDATE items
		SET status = $1,
		    status_history = status_history || $2::jsonb,
		    updated_at = $3
		WHERE id = $4
	`
	entry, err := historyEntry(string(status), at)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, query, status, entry, at, itemID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

// DeleteItem removes a listing and its bids
func (r *PostgresItemRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("item not found")
	}
	return nil
}

// ListExpiredBidding returns ids of items whose bidding window has elapsed
// but whose bidding status is still active
func (r *PostgresItemRepository) ListExpiredBidding(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM items
		WHERE bidding_enabled
		  AND bidding_status = 'active'
		  AND bidding_end_time <= $1
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired bidding: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item ids: %w", err)
	}

	return ids, nil
}

// StopBidding conditionally transitions an item from active to stopped.
// The predicate is re-checked at write time, so a concurrent stop of the
// same item results in exactly one history entry.
func (r *PostgresItemRepository) StopBidding(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE items
		SET bidding_status = 'stopped',
		    status_history = status_history || $1::jsonb,
		    updated_at = $2
		WHERE id = $3
		  AND bidding_enabled
		  AND bidding_status = 'active'
		  AND bidding_end_time <= $2
	`
	entry, err := historyEntry("stopped", at)
	if err != nil {
		return false, err
	}

	result, err := tx.Exec(ctx, query, entry, at, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to stop bidding: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func historyEntry(status string, at time.Time) (string, error) {
	entry := items.StatusChange{Status: status, Timestamp: at}
	b, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal history entry: %w", err)
	}
	// Wrapped in an array so the jsonb || operator appends an element
	// instead of merging objects.
	return "[" + string(b) + "]", nil
}
