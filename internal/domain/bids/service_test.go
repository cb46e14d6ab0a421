package bids

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	pkgevents "github.com/greencycle/ewaste-exchange/pkg/events"
)

// stubTx satisfies pgx.Tx for unit tests. Only Commit and Rollback are
// implemented; repository calls are mocked above the tx.
type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type mockTxManager struct {
	tx *stubTx
}

func (m *mockTxManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return m.tx, nil
}

type mockItemRepository struct {
	mock.Mock
}

func (m *mockItemRepository) CreateItem(ctx context.Context, item *items.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockItemRepository) GetItemByID(ctx context.Context, itemID uuid.UUID) (*items.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*items.Item), args.Error(1)
}

func (m *mockItemRepository) GetItemByIDForUpdate(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) (*items.Item, error) {
	args := m.Called(ctx, tx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*items.Item), args.Error(1)
}

func (m *mockItemRepository) ListItems(ctx context.Context, limit, offset int) ([]*items.Item, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*items.Item), args.Error(1)
}

func (m *mockItemRepository) ListItemsByOwnerID(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*items.Item, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*items.Item), args.Error(1)
}

func (m *mockItemRepository) UpdateLastBid(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, tx, itemID, amount)
	return args.Error(0)
}

func (m *mockItemRepository) UpdateStatus(ctx context.Context, itemID uuid.UUID, status items.Status, at time.Time) error {
	args := m.Called(ctx, itemID, status, at)
	return args.Error(0)
}

func (m *mockItemRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *mockItemRepository) ListExpiredBidding(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockItemRepository) StopBidding(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, tx, itemID, at)
	return args.Bool(0), args.Error(1)
}

type mockBidRepository struct {
	mock.Mock
}

func (m *mockBidRepository) SaveBid(ctx context.Context, tx pgx.Tx, bid *Bid) error {
	args := m.Called(ctx, tx, bid)
	return args.Error(0)
}

func (m *mockBidRepository) GetBidsByItemID(ctx context.Context, itemID uuid.UUID) ([]*ItemBid, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ItemBid), args.Error(1)
}

func (m *mockBidRepository) GetAllBids(ctx context.Context) ([]*MarketBid, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*MarketBid), args.Error(1)
}

func (m *mockBidRepository) HighestBidAmount(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockOutboxRepository struct {
	mock.Mock
}

func (m *mockOutboxRepository) SaveEvent(ctx context.Context, tx pgx.Tx, event *pkgevents.OutboxEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func futureTime() *time.Time {
	t := fixedNow.Add(24 * time.Hour)
	return &t
}

func biddableItem(lastBid decimal.Decimal) *items.Item {
	return &items.Item{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		Name:           "Dell Latitude 7490",
		Category:       "laptop",
		Condition:      "working",
		Weight:         decimal.NewFromFloat(1.4),
		Quantity:       1,
		Location:       "Rotterdam",
		Disposition:    items.DispositionSell,
		BiddingEnabled: true,
		BiddingEndTime: futureTime(),
		LastBid:        lastBid,
		Status:         items.StatusApproved,
		BiddingStatus:  items.BiddingStatusActive,
	}
}

func newTestService(itemRepo *mockItemRepository, bidRepo *mockBidRepository, outboxRepo *mockOutboxRepository, tx *stubTx) *Service {
	return NewService(&mockTxManager{tx: tx}, bidRepo, itemRepo, outboxRepo).
		WithClock(func() time.Time { return fixedNow })
}

func TestPlaceBid_FirstBidSucceeds(t *testing.T) {
	itemRepo := new(mockItemRepository)
	bidRepo := new(mockBidRepository)
	outboxRepo := new(mockOutboxRepository)
	tx := &stubTx{}
	service := newTestService(itemRepo, bidRepo, outboxRepo, tx)

	item := biddableItem(decimal.Zero)
	amount := decimal.RequireFromString("25.50")

	itemRepo.On("GetItemByIDForUpdate", mock.Anything, tx, item.ID).Return(item, nil)
	bidRepo.On("SaveBid", mock.Anything, tx, mock.AnythingOfType("*bids.Bid")).Return(nil)
	itemRepo.On("UpdateLastBid", mock.Anything, tx, item.ID, amount).Return(nil)
	outboxRepo.On("SaveEvent", mock.Anything, tx, mock.AnythingOfType("*events.OutboxEvent")).Return(nil)

	bidderID := uuid.New()
	bid, err := service.PlaceBid(context.Background(), PlaceBidCommand{
		ItemID:   item.ID,
		BidderID: bidderID,
		Amount:   "25.50",
	})

	require.NoError(t, err)
	require.NotNil(t, bid)
	assert.Equal(t, item.ID, bid.ItemID)
	assert.Equal(t, bidderID, bid.BidderID)
	assert.True(t, amount.Equal(bid.Amount))
	assert.Equal(t, fixedNow, bid.CreatedAt)
	assert.True(t, tx.committed, "transaction should be committed")

	outboxRepo.AssertCalled(t, "SaveEvent", mock.Anything, tx, mock.MatchedBy(func(e *pkgevents.OutboxEvent) bool {
		return e.EventType == pkgevents.EventTypeBidPlaced
	}))
}

func TestPlaceBid_OutbidsCurrentHighest(t *testing.T) {
	itemRepo := new(mockItemRepository)
	bidRepo := new(mockBidRepository)
	outboxRepo := new(mockOutboxRepository)
	tx := &stubTx{}
	service := newTestService(itemRepo, bidRepo, outboxRepo, tx)

	item := biddableItem(decimal.RequireFromString("10.00"))
	amount := decimal.RequireFromString("10.01")

	itemRepo.On("GetItemByIDForUpdate", mock.Anything, tx, item.ID).Return(item, nil)
	bidRepo.On("SaveBid", mock.Anything, tx, mock.Anything).Return(nil)
	itemRepo.On("UpdateLastBid", mock.Anything, tx, item.ID, amount).Return(nil)
	outboxRepo.On("SaveEvent", mock.Anything, tx, mock.Anything).Return(nil)

	bid, err := service.PlaceBid(context.Background(), PlaceBidCommand{
		ItemID:   item.ID,
		BidderID: uuid.New(),
		Amount:   "10.01",
	})

	require.NoError(t, err)
	assert.True(t, amount.Equal(bid.Amount))
	assert.True(t, tx.committed)
}

func TestPlaceBid_ItemNotFound(t *testing.T) {
	itemRepo := new(mockItemRepository)
	bidRepo := new(mockBidRepository)
	outboxRepo := new(mockOutboxRepository)
	tx := &stubTx{}
	service := newTestService(itemRepo, bidRepo, outboxRepo, tx)

	itemID := uuid.New()
	itemRepo.On("GetItemByIDForUpdate", mock.Anything, tx, itemID).Return(nil, pgx.ErrNoRows)

	bid, err := service.PlaceBid(context.Background(), PlaceBidCommand{
		ItemID:   itemID,
		BidderID: uuid.New(),
		Amount:   "10",
	})

	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Nil(t, bid)
	assert.True(t, tx.rolledBack)
	bidRepo.AssertNotCalled(t, "SaveBid", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceBid_MalformedAmountStillReportsMissingItem(t *testing.T) {
	itemRepo := new(mockItemRepository)
	bidRepo := new(mockBidRepository)
	outboxRepo := new(mockOutboxRepository)
	tx := &stubTx{}
	service := newTestService(itemRepo, bidRepo, outboxRepo, tx)

	itemID := uuid.New()
	itemRepo.On("GetItemByIDForUpdate", mock.Anything, tx, itemID).Return(nil, pgx.ErrNoRows)

	// The missing item wins over the unparseable amount.
	_, err := service.PlaceBid(context.Background(), PlaceBidCommand{
		ItemID:   itemID,
		BidderID: uuid.New(),
		Amount:   "plenty",
	})

	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.True(t, tx.rolledBack)
}

func TestPlaceBid_ValidationOrder(t *testing.T) {
	pastTime := fixedNow.Add(-time.Hour)
	exactlyNow := fixedNow

	tests := []struct {
		name    string
		item    func() *items.Item
		amount  string
		wantErr error
	}{
		{
			name: "bidding not enabled",
			item: func() *items.Item {
				item := biddableItem(decimal.Zero)
				item.BiddingEnabled = false
				return item
			},
			amount:  "10",
			wantErr: ErrBiddingNotEnabled,
		},
		{
			name: "bidding not enabled takes precedence over bad amount",
			item: func() *items.Item {
				item := biddableItem(decimal.Zero)
				item.BiddingEnabled = false
				return item
			},
			amount:  "-5",
			wantErr: ErrBiddingNotEnabled,
		},
		{
			name: "bidding already stopped",
			item: func() *items.Item {
				item := biddableItem(decimal.Zero)
				item.BiddingStatus = items.BiddingStatusStopped
				return item
			},
			amount:  "10",
			wantErr: ErrBiddingClosed,
		},
		{
			name: "window elapsed but sweeper has not run yet",
			item: func() *items.Item {
				item := biddableItem(decimal.Zero)
				item.BiddingEndTime = &pastTime
				return item
			},
			amount:  "10",
			wantErr: ErrBiddingClosed,
		},
		{
			name: "bid at the exact end instant is rejected",
			item: func() *items.Item {
				item := biddableItem(decimal.Zero)
				item.BiddingEndTime = &exactlyNow
				return item
			},
			amount:  "10",
			wantErr: ErrBiddingClosed,
		},
		{
			name:    "zero amount",
			item:    func() *items.Item { return biddableItem(decimal.Zero) },
			amount:  "0",
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			item:    func() *items.Item { return biddableItem(decimal.Zero) },
			amount:  "-1",
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "amount that does not parse",
			item:    func() *items.Item { return biddableItem(decimal.Zero) },
			amount:  "plenty",
			wantErr: ErrInvalidAmount,
		},
		{
			name: "closed window takes precedence over unparseable amount",
			item: func() *items.Item {
				item := biddableItem(decimal.Zero)
				item.BiddingEndTime = &pastTime
				return item
			},
			amount:  "plenty",
			wantErr: ErrBiddingClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemRepo := new(mockItemRepository)
			bidRepo := new(mockBidRepository)
			outboxRepo := new(mockOutboxRepository)
			tx := &stubTx{}
			service := newTestService(itemRepo, bidRepo, outboxRepo, tx)

			item := tt.item()
			itemRepo.On("GetItemByIDForUpdate", mock.Anything, tx, item.ID).Return(item, nil)

			bid, err := service.PlaceBid(context.Background(), PlaceBidCommand{
				ItemID:   item.ID,
				BidderID: uuid.New(),
				Amount:   tt.amount,
			})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, bid)
			assert.False(t, tx.committed, "rejected bid must not commit")
			bidRepo.AssertNotCalled(t, "SaveBid", mock.Anything, mock.Anything, mock.Anything)
			outboxRepo.AssertNotCalled(t, "SaveEvent", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPlaceBid_TooLowCarriesCurrentHighest(t *testing.T) {
	tests := []struct {
		name    string
		lastBid string
		amount  string
	}{
		{name: "equal to current highest", lastBid: "50.00", amount: "50.00"},
		{name: "below current highest", lastBid: "50.00", amount: "49.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemRepo := new(mockItemRepository)
			bidRepo := new(mockBidRepository)
			outboxRepo := new(mockOutboxRepository)
			tx := &stubTx{}
			service := newTestService(itemRepo, bidRepo, outboxRepo, tx)

			item := biddableItem(decimal.RequireFromString(tt.lastBid))
			itemRepo.On("GetItemByIDForUpdate", mock.Anything, tx, item.ID).Return(item, nil)

			_, err := service.PlaceBid(context.Background(), PlaceBidCommand{
				ItemID:   item.ID,
				BidderID: uuid.New(),
				Amount:   tt.amount,
			})

			var tooLow *BidTooLowError
			require.True(t, errors.As(err, &tooLow))
			assert.True(t, tooLow.CurrentHighest.Equal(item.LastBid))
			assert.False(t, tx.committed)
		})
	}
}

func TestListBidsForItem_ItemMustExist(t *testing.T) {
	itemRepo := new(mockItemRepository)
	bidRepo := new(mockBidRepository)
	outboxRepo := new(mockOutboxRepository)
	service := newTestService(itemRepo, bidRepo, outboxRepo, &stubTx{})

	itemID := uuid.New()
	itemRepo.On("GetItemByID", mock.Anything, itemID).Return(nil, pgx.ErrNoRows)

	_, err := service.ListBidsForItem(context.Background(), itemID)
	assert.ErrorIs(t, err, ErrItemNotFound)
	bidRepo.AssertNotCalled(t, "GetBidsByItemID", mock.Anything, mock.Anything)
}

func TestVerifyCachedHighestBid(t *testing.T) {
	itemRepo := new(mockItemRepository)
	bidRepo := new(mockBidRepository)
	outboxRepo := new(mockOutboxRepository)
	service := newTestService(itemRepo, bidRepo, outboxRepo, &stubTx{})

	item := biddableItem(decimal.RequireFromString("42.00"))
	itemRepo.On("GetItemByID", mock.Anything, item.ID).Return(item, nil)
	bidRepo.On("HighestBidAmount", mock.Anything, item.ID).Return(decimal.RequireFromString("42.00"), nil)

	consistent, err := service.VerifyCachedHighestBid(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, consistent)
}
