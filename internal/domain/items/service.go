package items

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service errors
var (
	ErrItemNotFound       = fmt.Errorf("item not found")
	ErrMissingFields      = fmt.Errorf("missing required listing fields")
	ErrInvalidDisposition = fmt.Errorf("disposition must be donate or sell")
	ErrPriceRequired      = fmt.Errorf("price is required when selling")
	ErrInvalidEndTime     = fmt.Errorf("bidding end time must be set and in the future when bidding is enabled")
	ErrInvalidStatus      = fmt.Errorf("invalid status")
	ErrUnauthorized       = fmt.Errorf("unauthorized: only the owner can perform this action")
)

// CreateItemCommand represents the command to create a new listing
type CreateItemCommand struct {
	OwnerID        uuid.UUID
	Name           string
	Category       string
	Condition      string
	Weight         decimal.Decimal
	Quantity       int
	Location       string
	Disposition    Disposition
	Price          *decimal.Decimal
	ImageURL       string
	BiddingEnabled bool
	BiddingEndTime *time.Time
}

// ListItemsQuery represents pagination parameters for listing items
type ListItemsQuery struct {
	Limit  int
	Offset int
}

// Service implements the core business logic for listings
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new item service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateItem validates and persists a new listing. Listings start in the
// pending lifecycle state; when bidding is enabled the bidding window starts
// active and must have a future end time.
func (s *Service) CreateItem(ctx context.Context, cmd CreateItemCommand) (*Item, error) {
	if cmd.Name == "" || cmd.Category == "" || cmd.Condition == "" || cmd.Location == "" ||
		cmd.Quantity <= 0 || !cmd.Weight.IsPositive() {
		return nil, ErrMissingFields
	}

	if !cmd.Disposition.IsValid() {
		return nil, ErrInvalidDisposition
	}

	if cmd.Disposition == DispositionSell && (cmd.Price == nil || !cmd.Price.IsPositive()) {
		return nil, ErrPriceRequired
	}

	now := s.now()
	if cmd.BiddingEnabled {
		if cmd.BiddingEndTime == nil || !cmd.BiddingEndTime.After(now) {
			return nil, ErrInvalidEndTime
		}
	}

	item := &Item{
		ID:             uuid.New(),
		OwnerID:        cmd.OwnerID,
		Name:           cmd.Name,
		Category:       cmd.Category,
		Condition:      cmd.Condition,
		Weight:         cmd.Weight,
		Quantity:       cmd.Quantity,
		Location:       cmd.Location,
		Disposition:    cmd.Disposition,
		ImageURL:       cmd.ImageURL,
		BiddingEnabled: cmd.BiddingEnabled,
		LastBid:        decimal.Zero,
		Status:         StatusPending,
		BiddingStatus:  BiddingStatusActive,
		StatusHistory:  []StatusChange{{Status: string(StatusPending), Timestamp: now}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cmd.Disposition == DispositionSell {
		item.Price = cmd.Price
	}
	if cmd.BiddingEnabled {
		item.BiddingEndTime = cmd.BiddingEndTime
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

// GetItem retrieves a listing by ID
func (s *Service) GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// ListItems retrieves listings with pagination
func (s *Service) ListItems(ctx context.Context, query ListItemsQuery) ([]*Item, error) {
	result, err := s.repo.ListItems(ctx, query.Limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return result, nil
}

// ListOwnerItems retrieves all listings for a specific owner
func (s *Service) ListOwnerItems(ctx context.Context, ownerID uuid.UUID, query ListItemsQuery) ([]*Item, error) {
	result, err := s.repo.ListItemsByOwnerID(ctx, ownerID, query.Limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner items: %w", err)
	}
	return result, nil
}

// UpdateStatus moves a listing to a new lifecycle status and records the
// transition in its status history.
func (s *Service) UpdateStatus(ctx context.Context, itemID uuid.UUID, status Status) (*Item, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, itemID, status, now); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	item.Status = status
	item.StatusHistory = append(item.StatusHistory, StatusChange{Status: string(status), Timestamp: now})
	item.UpdatedAt = now
	return item, nil
}

// DeleteItem removes a listing. Deletion is an explicit administrative
// action; nothing in this service deletes listings automatically.
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return ErrItemNotFound
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
