package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/users"
	"github.com/greencycle/ewaste-exchange/pkg/database"
)

// Service errors
var (
	ErrNoRewards = fmt.Errorf("no rewards available to claim")
)

// Points granted per kilogram of declared weight when a listing is created,
// and the minimum grant for any listing.
const (
	PointsPerKilogram = 10
	MinimumGrant      = 10
)

// Service implements reward bookkeeping and the simulated payout
type Service struct {
	txManager   database.TransactionManager
	userRepo    users.Repository
	payoutRepo  PayoutRepository
	leaderboard Leaderboard
	logger      *slog.Logger
}

// NewService creates a new rewards service
func NewService(
	txManager database.TransactionManager,
	userRepo users.Repository,
	payoutRepo PayoutRepository,
	leaderboard Leaderboard,
	logger *slog.Logger,
) *Service {
	return &Service{
		txManager:   txManager,
		userRepo:    userRepo,
		payoutRepo:  payoutRepo,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// PointsForWeight returns the reward grant for a listing of the given weight.
func PointsForWeight(weight decimal.Decimal) int64 {
	points := weight.Mul(decimal.NewFromInt(PointsPerKilogram)).IntPart()
	if points < MinimumGrant {
		return MinimumGrant
	}
	return points
}

// GrantForListing awards points to a user for recycling a listing. The
// leaderboard update is best-effort; the durable balance lives in Postgres.
func (s *Service) GrantForListing(ctx context.Context, userID uuid.UUID, weight decimal.Decimal) (int64, error) {
	points := PointsForWeight(weight)

	if err := s.userRepo.AddRewardPoints(ctx, userID, points); err != nil {
		return 0, fmt.Errorf("failed to add reward points: %w", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return points, nil
	}
	if lbErr := s.leaderboard.AddPoints(ctx, user.WalletAddress, points); lbErr != nil {
		s.logger.Warn("leaderboard update failed", "wallet", user.WalletAddress, "error", lbErr)
	}

	return points, nil
}

// GetBalance returns the caller's reward point balance
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, users.ErrUserNotFound
	}
	return user.RewardsEarned, nil
}

// Claim converts the caller's entire reward balance into a simulated crypto
// payout. The payout record and the balance reset commit together: a claim
// either produces both or neither.
func (s *Service) Claim(ctx context.Context, userID uuid.UUID) (*Payout, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	user, err := s.userRepo.GetUserByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, users.ErrUserNotFound
	}

	if user.RewardsEarned <= 0 {
		return nil, ErrNoRewards
	}

	txnID, err := generatePayoutID()
	if err != nil {
		return nil, err
	}

	payout := &Payout{
		ID:            uuid.New(),
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		Points:        user.RewardsEarned,
		Amount:        payoutAmount(user.RewardsEarned),
		TransactionID: txnID,
		CreatedAt:     time.Now(),
	}

	if saveErr := s.payoutRepo.SavePayout(ctx, tx, payout); saveErr != nil {
		return nil, fmt.Errorf("failed to save payout: %w", saveErr)
	}

	if resetErr := s.userRepo.ResetRewardPoints(ctx, tx, userID); resetErr != nil {
		return nil, fmt.Errorf("failed to reset rewards: %w", resetErr)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	if lbErr := s.leaderboard.AddPoints(ctx, user.WalletAddress, -payout.Points); lbErr != nil {
		s.logger.Warn("leaderboard update failed", "wallet", user.WalletAddress, "error", lbErr)
	}

	return payout, nil
}

// Leaderboard returns the top n wallets by reward points
func (s *Service) Leaderboard(ctx context.Context, n int64) ([]LeaderboardEntry, error) {
	entries, err := s.leaderboard.Top(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return entries, nil
}
