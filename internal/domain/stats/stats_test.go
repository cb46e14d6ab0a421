package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) IncrementBidderStats(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, lastBidAt time.Time) error {
	args := m.Called(ctx, tx, userID, amount, lastBidAt)
	return args.Error(0)
}

func (m *mockRepository) GetBidderStats(ctx context.Context, userID uuid.UUID) (*BidderStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BidderStats), args.Error(1)
}

func (m *mockRepository) IsEventProcessed(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) MarkEventProcessed(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error {
	args := m.Called(ctx, tx, eventID)
	return args.Error(0)
}

func testEvent() BidPlacedEvent {
	return BidPlacedEvent{
		EventID:   uuid.New(),
		BidderID:  uuid.New(),
		Amount:    decimal.RequireFromString("15.75"),
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestProcessBidPlaced(t *testing.T) {
	repo := new(mockRepository)
	tx := &stubTx{}
	service := NewService(repo, &mockTxManager{tx: tx})

	event := testEvent()
	repo.On("IsEventProcessed", mock.Anything, tx, event.EventID).Return(false, nil)
	repo.On("IncrementBidderStats", mock.Anything, tx, event.BidderID, event.Amount, event.Timestamp).Return(nil)
	repo.On("MarkEventProcessed", mock.Anything, tx, event.EventID).Return(nil)

	err := service.ProcessBidPlaced(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, tx.committed)
}

func TestProcessBidPlaced_RedeliveryIsIgnored(t *testing.T) {
	repo := new(mockRepository)
	tx := &stubTx{}
	service := NewService(repo, &mockTxManager{tx: tx})

	event := testEvent()
	repo.On("IsEventProcessed", mock.Anything, tx, event.EventID).Return(true, nil)

	err := service.ProcessBidPlaced(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, tx.committed)
	repo.AssertNotCalled(t, "IncrementBidderStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkEventProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessBidPlaced_IncrementFailureRollsBack(t *testing.T) {
	repo := new(mockRepository)
	tx := &stubTx{}
	service := NewService(repo, &mockTxManager{tx: tx})

	event := testEvent()
	repo.On("IsEventProcessed", mock.Anything, tx, event.EventID).Return(false, nil)
	repo.On("IncrementBidderStats", mock.Anything, tx, event.BidderID, event.Amount, event.Timestamp).Return(assert.AnError)

	err := service.ProcessBidPlaced(context.Background(), event)
	assert.Error(t, err)
	assert.True(t, tx.rolledBack)
}
