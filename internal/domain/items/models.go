package items

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Disposition says what the owner wants done with a listing.
type Disposition string

const (
	DispositionDonate Disposition = "donate"
	DispositionSell   Disposition = "sell"
)

// IsValid checks if the disposition is one of the known values
func (d Disposition) IsValid() bool {
	switch d {
	case DispositionDonate, DispositionSell:
		return true
	default:
		return false
	}
}

// Status is the admin-facing lifecycle state of a listing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSold     Status = "sold"
)

// IsValid checks if the status is one of the known values
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSold:
		return true
	default:
		return false
	}
}

// BiddingStatus is the state of the bidding window, independent of Status.
// BiddingStatusCompleted is reserved for a future settlement step; nothing
// in this service produces it.
type BiddingStatus string

const (
	BiddingStatusActive    BiddingStatus = "active"
	BiddingStatusStopped   BiddingStatus = "stopped"
	BiddingStatusCompleted BiddingStatus = "completed"
)

// StatusChange is one entry in an item's status history.
type StatusChange struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Item represents one e-waste listing
type Item struct {
	ID             uuid.UUID        `db:"id"`
	OwnerID        uuid.UUID        `db:"owner_id"`
	Name           string           `db:"name"`
	Category       string           `db:"category"`
	Condition      string           `db:"condition"`
	Weight         decimal.Decimal  `db:"weight"`
	Quantity       int              `db:"quantity"`
	Location       string           `db:"location"`
	Disposition    Disposition      `db:"disposition"`
	Price          *decimal.Decimal `db:"price"`
	ImageURL       string           `db:"image_url"`
	BiddingEnabled bool             `db:"bidding_enabled"`
	BiddingEndTime *time.Time       `db:"bidding_end_time"`
	LastBid        decimal.Decimal  `db:"last_bid"`
	Status         Status           `db:"status"`
	BiddingStatus  BiddingStatus    `db:"bidding_status"`
	StatusHistory  []StatusChange   `db:"status_history"`
	CreatedAt      time.Time        `db:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at"`
}

// IsOwnedBy reports whether the listing belongs to the given user.
func (i *Item) IsOwnedBy(userID uuid.UUID) bool {
	return i.OwnerID == userID
}

// BiddingOpen reports whether a bid arriving at the given instant should be
// accepted. The live end-time check takes precedence over the cached
// BiddingStatus flag: an item whose window elapsed seconds ago is closed even
// if the sweeper has not yet stopped it.
func (i *Item) BiddingOpen(now time.Time) bool {
	if !i.BiddingEnabled || i.BiddingStatus != BiddingStatusActive {
		return false
	}
	if i.BiddingEndTime != nil && !now.Before(*i.BiddingEndTime) {
		return false
	}
	return true
}
