package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/pkg/auth"
)

type payoutResponse struct {
	ID            string          `json:"id"`
	WalletAddress string          `json:"walletAddress"`
	Points        int64           `json:"points"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// GetRewards returns the caller's reward point balance.
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	balance, err := h.rewardService.GetBalance(r.Context(), userID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"rewardsEarned": balance})
}

// ClaimRewards converts the full balance into a simulated payout.
func (h *Handler) ClaimRewards(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payout, err := h.rewardService.Claim(r.Context(), userID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{
		ID:            payout.ID.String(),
		WalletAddress: payout.WalletAddress,
		Points:        payout.Points,
		Amount:        payout.Amount,
		TransactionID: payout.TransactionID,
		CreatedAt:     payout.CreatedAt,
	})
}

// Leaderboard returns the top wallets by reward points.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	n := int64(10)
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
			n = parsed
		}
	}

	entries, err := h.rewardService.Leaderboard(r.Context(), n)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
