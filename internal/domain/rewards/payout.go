package rewards

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
)

// pointsToCrypto converts reward points to the simulated payout amount.
var pointsToCrypto = decimal.New(1, -3) // 1000 points = 1 unit

// generatePayoutID fabricates a transaction identifier. This is a stub;
// no blockchain is involved.
func generatePayoutID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate payout id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// payoutAmount returns the simulated crypto value of a point balance.
func payoutAmount(points int64) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(pointsToCrypto)
}
