package api

import (
	"encoding/json"
	"net/http"

	"github.com/greencycle/ewaste-exchange/internal/domain/users"
)

type loginRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
}

type userResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
	RewardsEarned int64  `json:"rewardsEarned"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:            u.ID.String(),
		Name:          u.Name,
		Email:         u.Email,
		WalletAddress: u.WalletAddress,
		RewardsEarned: u.RewardsEarned,
	}
}

// Login finds or creates the user for a wallet address and issues a
// session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, created, err := h.userService.Login(r.Context(), users.LoginCommand{
		Name:          req.Name,
		Email:         req.Email,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	token, err := h.signer.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}
