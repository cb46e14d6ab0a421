package bids

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid represents one accepted bid against a listing. Bids are append-only:
// created once, never modified.
type Bid struct {
	ID        uuid.UUID       `db:"id"`
	ItemID    uuid.UUID       `db:"item_id"`
	BidderID  uuid.UUID       `db:"bidder_id"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
}

// ItemBid is a bid annotated with the bidder's public identifier, as
// returned by the per-item listing. No bidder fields beyond the wallet
// address are exposed.
type ItemBid struct {
	Bid
	BidderWallet string `db:"bidder_wallet"`
}

// MarketBid is a bid annotated with its item's name and the bidder's public
// identifier, as returned by the full listing.
type MarketBid struct {
	Bid
	ItemName     string `db:"item_name"`
	BidderWallet string `db:"bidder_wallet"`
}

// PlaceBidCommand represents the command to place a bid. Amount carries the
// client-supplied value verbatim; it is parsed during validation, after the
// item has been located, so a malformed amount against a missing item still
// reports the missing item.
type PlaceBidCommand struct {
	ItemID   uuid.UUID
	BidderID uuid.UUID
	Amount   string
}
