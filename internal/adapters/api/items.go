package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	"github.com/greencycle/ewaste-exchange/pkg/auth"
)

type createItemRequest struct {
	ItemName       string           `json:"itemName"`
	Category       string           `json:"category"`
	Condition      string           `json:"condition"`
	Weight         decimal.Decimal  `json:"weight"`
	Quantity       int              `json:"quantity"`
	Location       string           `json:"location"`
	DonationOrSale string           `json:"donationOrSale"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	ImageURL       string           `json:"imageUrl,omitempty"`
	BiddingEnabled bool             `json:"biddingEnabled"`
	BiddingEndTime *time.Time       `json:"biddingEndTime,omitempty"`
}

type itemResponse struct {
	ID             string               `json:"id"`
	OwnerID        string               `json:"ownerId"`
	ItemName       string               `json:"itemName"`
	Category       string               `json:"category"`
	Condition      string               `json:"condition"`
	Weight         decimal.Decimal      `json:"weight"`
	Quantity       int                  `json:"quantity"`
	Location       string               `json:"location"`
	DonationOrSale string               `json:"donationOrSale"`
	Price          *decimal.Decimal     `json:"price,omitempty"`
	ImageURL       string               `json:"imageUrl,omitempty"`
	BiddingEnabled bool                 `json:"biddingEnabled"`
	BiddingEndTime *time.Time           `json:"biddingEndTime,omitempty"`
	LastBid        decimal.Decimal      `json:"lastBid"`
	Status         string               `json:"status"`
	BiddingStatus  string               `json:"biddingStatus"`
	StatusHistory  []items.StatusChange `json:"statusHistory"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func toItemResponse(item *items.Item) itemResponse {
	return itemResponse{
		ID:             item.ID.String(),
		OwnerID:        item.OwnerID.String(),
		ItemName:       item.Name,
		Category:       item.Category,
		Condition:      item.Condition,
		Weight:         item.Weight,
		Quantity:       item.Quantity,
		Location:       item.Location,
		DonationOrSale: string(item.Disposition),
		Price:          item.Price,
		ImageURL:       item.ImageURL,
		BiddingEnabled: item.BiddingEnabled,
		BiddingEndTime: item.BiddingEndTime,
		LastBid:        item.LastBid,
		Status:         string(item.Status),
		BiddingStatus:  string(item.BiddingStatus),
		StatusHistory:  item.StatusHistory,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

func toItemResponses(list []*items.Item) []itemResponse {
	out := make([]itemResponse, 0, len(list))
	for _, item := range list {
		out = append(out, toItemResponse(item))
	}
	return out
}

// CreateItem registers a new listing for the authenticated user. Donated
// items earn the lister reward points proportional to their weight.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := h.itemService.CreateItem(r.Context(), items.CreateItemCommand{
		OwnerID:        userID,
		Name:           req.ItemName,
		Category:       req.Category,
		Condition:      req.Condition,
		Weight:         req.Weight,
		Quantity:       req.Quantity,
		Location:       req.Location,
		Disposition:    items.Disposition(req.DonationOrSale),
		Price:          req.Price,
		ImageURL:       req.ImageURL,
		BiddingEnabled: req.BiddingEnabled,
		BiddingEndTime: req.BiddingEndTime,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	if item.Disposition == items.DispositionDonate {
		// Reward failures must not fail the listing itself.
		if _, err := h.rewardService.GrantForListing(r.Context(), userID, item.Weight); err != nil {
			h.logger.Error("failed to grant listing rewards", "error", err, "item_id", item.ID)
		}
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	query := parseListQuery(r)

	if r.URL.Query().Get("mine") == "true" {
		userID, err := auth.GetUserID(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		list, err := h.itemService.ListOwnerItems(r.Context(), userID, query)
		if err != nil {
			h.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponses(list))
		return
	}

	list, err := h.itemService.ListItems(r.Context(), query)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(list))
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.itemService.GetItem(r.Context(), itemID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := h.itemService.UpdateStatus(r.Context(), itemID, items.Status(req.Status))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	item, err := h.itemService.GetItem(r.Context(), itemID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	if !item.IsOwnedBy(userID) {
		writeError(w, http.StatusForbidden, items.ErrUnauthorized.Error())
		return
	}

	if err := h.itemService.DeleteItem(r.Context(), itemID); err != nil {
		h.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

func parseListQuery(r *http.Request) items.ListItemsQuery {
	query := items.ListItemsQuery{Limit: 50, Offset: 0}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			query.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			query.Offset = n
		}
	}
	return query
}
