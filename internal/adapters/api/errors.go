package api

import (
	"errors"
	"net/http"

	"github.com/greencycle/ewaste-exchange/internal/domain/bids"
	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	"github.com/greencycle/ewaste-exchange/internal/domain/rewards"
	"github.com/greencycle/ewaste-exchange/internal/domain/users"
)

// handleDomainError maps service errors onto HTTP statuses. A bid that
// lost to the current highest carries that amount in the body so the
// client can retry without another fetch.
func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	var tooLow *bids.BidTooLowError
	if errors.As(err, &tooLow) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             tooLow.Error(),
			"currentHighestBid": tooLow.CurrentHighest.String(),
		})
		return
	}

	switch {
	case errors.Is(err, items.ErrItemNotFound),
		errors.Is(err, bids.ErrItemNotFound),
		errors.Is(err, users.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, items.ErrMissingFields),
		errors.Is(err, items.ErrInvalidDisposition),
		errors.Is(err, items.ErrPriceRequired),
		errors.Is(err, items.ErrInvalidEndTime),
		errors.Is(err, items.ErrInvalidStatus),
		errors.Is(err, users.ErrMissingProfile),
		errors.Is(err, bids.ErrBiddingNotEnabled),
		errors.Is(err, bids.ErrBiddingClosed),
		errors.Is(err, bids.ErrInvalidAmount),
		errors.Is(err, rewards.ErrNoRewards):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, items.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
