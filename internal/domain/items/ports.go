package items

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for item persistence
type Repository interface {
	// CreateItem creates a new listing
	CreateItem(ctx context.Context, item *Item) error

	// GetItemByID retrieves an item by its ID
	GetItemByID(ctx context.Context, itemID uuid.UUID) (*Item, error)

	// GetItemByIDForUpdate retrieves an item by its ID and locks the row.
	// This prevents race conditions when multiple users bid on the same item.
	// Must be called within a transaction.
	GetItemByIDForUpdate(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) (*Item, error)

	// ListItems retrieves listings with pagination, newest first
	ListItems(ctx context.Context, limit, offset int) ([]*Item, error)

	// ListItemsByOwnerID retrieves all listings for a specific owner
	ListItemsByOwnerID(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Item, error)

	// UpdateLastBid updates the cached highest bid for an item within a transaction
	UpdateLastBid(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, amount decimal.Decimal) error

	// UpdateStatus sets the lifecycle status and appends a status history entry
	UpdateStatus(ctx context.Context, itemID uuid.UUID, status Status, at time.Time) error

	// DeleteItem removes a listing
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	// ListExpiredBidding returns ids of items whose bidding window has
	// elapsed but whose bidding status is still active
	ListExpiredBidding(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// StopBidding conditionally transitions an item's bidding status from
	// active to stopped within a transaction, appending a status history
	// entry. Returns false without modifying anything when the item is no
	// longer in the active state.
	StopBidding(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, at time.Time) (bool, error)
}
