package events

import "time"

// BidPlacedPayload is the JSON body of a bid.placed event.
type BidPlacedPayload struct {
	BidID     string    `json:"bidId"`
	ItemID    string    `json:"itemId"`
	BidderID  string    `json:"bidderId"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// BiddingStoppedPayload is the JSON body of a bidding.stopped event.
type BiddingStoppedPayload struct {
	ItemID    string    `json:"itemId"`
	StoppedAt time.Time `json:"stoppedAt"`
}
