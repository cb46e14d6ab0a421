package bids

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation errors, checked in order before any write
var (
	ErrItemNotFound      = fmt.Errorf("item not found")
	ErrBiddingNotEnabled = fmt.Errorf("bidding is not enabled for this item")
	ErrBiddingClosed     = fmt.Errorf("bidding is no longer active for this item")
	ErrInvalidAmount     = fmt.Errorf("bid amount must be a positive number")
)

// BidTooLowError is returned when a bid does not exceed the current highest
// bid. It carries the current highest so clients can prompt a corrected
// amount without another round trip.
type BidTooLowError struct {
	CurrentHighest decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount must be greater than the current highest bid (%s)", e.CurrentHighest)
}

// Is makes errors.Is(err, &BidTooLowError{}) match regardless of the
// reported highest bid.
func (e *BidTooLowError) Is(target error) bool {
	_, ok := target.(*BidTooLowError)
	return ok
}
