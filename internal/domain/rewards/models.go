package rewards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payout is the persisted record of a reward claim. The transaction id is
// fabricated; no chain transaction ever happens.
type Payout struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	WalletAddress string          `db:"wallet_address"`
	Points        int64           `db:"points"`
	Amount        decimal.Decimal `db:"amount"`
	TransactionID string          `db:"transaction_id"`
	CreatedAt     time.Time       `db:"created_at"`
}

// LeaderboardEntry is one row of the rewards leaderboard.
type LeaderboardEntry struct {
	WalletAddress string `json:"walletAddress"`
	Points        int64  `json:"points"`
}
