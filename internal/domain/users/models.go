package users

import (
	"time"

	"github.com/google/uuid"
)

// User represents a wallet-identified participant
type User struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	WalletAddress string    `db:"wallet_address"`
	RewardsEarned int64     `db:"rewards_earned"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
