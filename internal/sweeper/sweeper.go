package sweeper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/greencycle/ewaste-exchange/internal/domain/bids"
	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	"github.com/greencycle/ewaste-exchange/pkg/database"
	pkgevents "github.com/greencycle/ewaste-exchange/pkg/events"
)

// DefaultInterval is how often the sweep runs. One minute matches the
// expected granularity of bidding windows; anything short relative to a
// typical window works.
const DefaultInterval = time.Minute

// Sweeper periodically closes bidding windows whose end time has passed.
// It owns no state beyond its dependencies and can be driven one pass at a
// time through RunOnce, with an injected clock.
type Sweeper struct {
	txManager  database.TransactionManager
	itemRepo   items.Repository
	outboxRepo bids.OutboxRepository
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a sweeper with the given pass interval
func New(
	txManager database.TransactionManager,
	itemRepo items.Repository,
	outboxRepo bids.OutboxRepository,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		txManager:  txManager,
		itemRepo:   itemRepo,
		outboxRepo: outboxRepo,
		interval:   interval,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock overrides the sweeper clock. Used by tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run executes sweep passes on a fixed interval until the context is done.
// A failed pass is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial pass
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("sweep pass failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("sweep pass failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single scan-and-update pass. Items are stopped
// individually; one item's failure does not abort the rest of the pass, and
// cancellation is honored between items, never mid-write. Re-running a pass
// is a no-op for items already stopped: the transition is a conditional
// update that only applies while the item is still active, so neither the
// status history nor the event stream can gain duplicates.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := s.now()

	expired, err := s.itemRepo.ListExpiredBidding(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to scan expired bidding: %w", err)
	}

	if len(expired) == 0 {
		return nil
	}

	s.logger.Info("closing expired bidding windows", "count", len(expired))

	for _, itemID := range expired {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if stopErr := s.stopItem(ctx, itemID, now); stopErr != nil {
			s.logger.Error("failed to stop bidding", "item_id", itemID, "error", stopErr)
			continue
		}
	}

	return nil
}

// stopItem transitions one item to stopped and records the bidding.stopped
// event in the same transaction.
func (s *Sweeper) stopItem(ctx context.Context, itemID uuid.UUID, now time.Time) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	stopped, err := s.itemRepo.StopBidding(ctx, tx, itemID, now)
	if err != nil {
		return fmt.Errorf("failed to stop bidding: %w", err)
	}
	if !stopped {
		// Another pass or process got there first.
		return nil
	}

	payload, err := json.Marshal(pkgevents.BiddingStoppedPayload{
		ItemID:    itemID.String(),
		StoppedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	event := &pkgevents.OutboxEvent{
		ID:        uuid.New(),
		EventType: pkgevents.EventTypeBiddingStopped,
		Payload:   payload,
		Status:    pkgevents.OutboxStatusPending,
		CreatedAt: now,
	}
	if saveErr := s.outboxRepo.SaveEvent(ctx, tx, event); saveErr != nil {
		return fmt.Errorf("failed to save outbox event: %w", saveErr)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	s.logger.Info("bidding stopped", "item_id", itemID)
	return nil
}
