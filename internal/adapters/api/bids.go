package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/bids"
	"github.com/greencycle/ewaste-exchange/pkg/auth"
)

type placeBidRequest struct {
	Amount json.RawMessage `json:"amount"`
}

type bidResponse struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"itemId"`
	BidderID     string          `json:"bidderId"`
	BidderWallet string          `json:"bidderWallet,omitempty"`
	ItemName     string          `json:"itemName,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// PlaceBid submits a bid on a listing for the authenticated user.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	bid, err := h.bidService.PlaceBid(r.Context(), bids.PlaceBidCommand{
		ItemID:   itemID,
		BidderID: userID,
		Amount:   rawAmount(req.Amount),
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bidResponse{
		ID:        bid.ID.String(),
		ItemID:    bid.ItemID.String(),
		BidderID:  bid.BidderID.String(),
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt,
	})
}

// ListItemBids returns all bids on one listing, highest first.
func (h *Handler) ListItemBids(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	list, err := h.bidService.ListBidsForItem(r.Context(), itemID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	out := make([]bidResponse, 0, len(list))
	for _, b := range list {
		out = append(out, bidResponse{
			ID:           b.ID.String(),
			ItemID:       b.ItemID.String(),
			BidderID:     b.BidderID.String(),
			BidderWallet: b.BidderWallet,
			Amount:       b.Amount,
			CreatedAt:    b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListAllBids returns every bid across the marketplace.
func (h *Handler) ListAllBids(w http.ResponseWriter, r *http.Request) {
	list, err := h.bidService.ListAllBids(r.Context())
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	out := make([]bidResponse, 0, len(list))
	for _, b := range list {
		out = append(out, bidResponse{
			ID:           b.ID.String(),
			ItemID:       b.ItemID.String(),
			BidderID:     b.BidderID.String(),
			BidderWallet: b.BidderWallet,
			ItemName:     b.ItemName,
			Amount:       b.Amount,
			CreatedAt:    b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// rawAmount extracts the amount as the client sent it, accepting both a JSON
// number and a quoted string. Clients have historically sent both forms. The
// value is validated downstream, after the item lookup.
func rawAmount(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}
