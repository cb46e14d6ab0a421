package bids

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	"github.com/greencycle/ewaste-exchange/pkg/database"
	pkgevents "github.com/greencycle/ewaste-exchange/pkg/events"
)

// Service implements bid placement and the bid read contracts
type Service struct {
	txManager  database.TransactionManager
	bidRepo    BidRepository
	itemRepo   items.Repository
	outboxRepo OutboxRepository
	now        func() time.Time
}

// NewService creates a new bid service
func NewService(
	txManager database.TransactionManager,
	bidRepo BidRepository,
	itemRepo items.Repository,
	outboxRepo OutboxRepository,
) *Service {
	return &Service{
		txManager:  txManager,
		bidRepo:    bidRepo,
		itemRepo:   itemRepo,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PlaceBid validates and records a new bid. The bid row, the item's cached
// highest bid, and the bid.placed event are written in one transaction; a
// rejected bid leaves all state unchanged. The item row is locked for the
// duration of the transaction, so two near-simultaneous bids on the same
// item are serialized and the loser observes the winner's amount.
func (s *Service) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Bid, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Rollback if commit is not called
	}()

	// Lock the item row to prevent lost updates on the cached highest bid
	item, err := s.itemRepo.GetItemByIDForUpdate(ctx, tx, cmd.ItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	amount, valErr := s.validate(item, cmd)
	if valErr != nil {
		return nil, valErr
	}

	bid := &Bid{
		ID:        uuid.New(),
		ItemID:    cmd.ItemID,
		BidderID:  cmd.BidderID,
		Amount:    amount,
		CreatedAt: s.now(),
	}

	if saveErr := s.bidRepo.SaveBid(ctx, tx, bid); saveErr != nil {
		return nil, fmt.Errorf("failed to save bid: %w", saveErr)
	}

	if updateErr := s.itemRepo.UpdateLastBid(ctx, tx, cmd.ItemID, amount); updateErr != nil {
		return nil, fmt.Errorf("failed to update highest bid: %w", updateErr)
	}

	payload, marshalErr := json.Marshal(pkgevents.BidPlacedPayload{
		BidID:     bid.ID.String(),
		ItemID:    bid.ItemID.String(),
		BidderID:  bid.BidderID.String(),
		Amount:    bid.Amount.String(),
		Timestamp: bid.CreatedAt,
	})
	if marshalErr != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", marshalErr)
	}

	outboxEvent := &pkgevents.OutboxEvent{
		ID:        uuid.New(),
		EventType: pkgevents.EventTypeBidPlaced,
		Payload:   payload,
		Status:    pkgevents.OutboxStatusPending,
		CreatedAt: bid.CreatedAt,
	}

	if saveErr := s.outboxRepo.SaveEvent(ctx, tx, outboxEvent); saveErr != nil {
		return nil, fmt.Errorf("failed to save outbox event: %w", saveErr)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	return bid, nil
}

// validate applies the placement preconditions in order and returns the
// parsed amount. Each failure maps to a distinct error.
func (s *Service) validate(item *items.Item, cmd PlaceBidCommand) (decimal.Decimal, error) {
	if !item.BiddingEnabled {
		return decimal.Decimal{}, ErrBiddingNotEnabled
	}
	if item.BiddingStatus != items.BiddingStatusActive {
		return decimal.Decimal{}, ErrBiddingClosed
	}
	// Live end-time check. A bid arriving at or after the end instant is
	// rejected even when the sweeper has not yet flipped the status flag.
	if item.BiddingEndTime != nil && !s.now().Before(*item.BiddingEndTime) {
		return decimal.Decimal{}, ErrBiddingClosed
	}
	amount, err := decimal.NewFromString(cmd.Amount)
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if amount.LessThanOrEqual(item.LastBid) {
		return decimal.Decimal{}, &BidTooLowError{CurrentHighest: item.LastBid}
	}
	return amount, nil
}

// ListBidsForItem returns the bids for one item, highest first, annotated
// with the bidder's wallet address. The item must exist.
func (s *Service) ListBidsForItem(ctx context.Context, itemID uuid.UUID) ([]*ItemBid, error) {
	if _, err := s.itemRepo.GetItemByID(ctx, itemID); err != nil {
		return nil, ErrItemNotFound
	}

	result, err := s.bidRepo.GetBidsByItemID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return result, nil
}

// ListAllBids returns every bid with item name and bidder wallet annotations
func (s *Service) ListAllBids(ctx context.Context) ([]*MarketBid, error) {
	result, err := s.bidRepo.GetAllBids(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return result, nil
}

// VerifyCachedHighestBid recomputes an item's highest bid by aggregation and
// reports whether it agrees with the cached value. Diagnostic only.
func (s *Service) VerifyCachedHighestBid(ctx context.Context, itemID uuid.UUID) (bool, error) {
	item, err := s.itemRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return false, ErrItemNotFound
	}

	highest, err := s.bidRepo.HighestBidAmount(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to aggregate bids: %w", err)
	}

	return item.LastBid.Equal(highest), nil
}
