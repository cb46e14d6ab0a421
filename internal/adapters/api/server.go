package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/greencycle/ewaste-exchange/internal/domain/bids"
	"github.com/greencycle/ewaste-exchange/internal/domain/items"
	"github.com/greencycle/ewaste-exchange/internal/domain/rewards"
	"github.com/greencycle/ewaste-exchange/internal/domain/users"
	"github.com/greencycle/ewaste-exchange/pkg/auth"
)

const maxBodyBytes = 1 << 20

// Handler exposes the marketplace over HTTP.
type Handler struct {
	itemService   *items.Service
	bidService    *bids.Service
	userService   *users.Service
	rewardService *rewards.Service
	signer        *auth.Signer
	logger        *slog.Logger
}

func NewHandler(
	itemService *items.Service,
	bidService *bids.Service,
	userService *users.Service,
	rewardService *rewards.Service,
	signer *auth.Signer,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		itemService:   itemService,
		bidService:    bidService,
		userService:   userService,
		rewardService: rewardService,
		signer:        signer,
		logger:        logger,
	}
}

// Routes builds the full router. Reads are public; anything acting on
// behalf of a user, plus the reward balance, requires a valid token.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Post("/api/auth/login", h.Login)

	// Public reads. Identity is optional here so the owner filter on the
	// item listing still works when a token is supplied.
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalMiddleware(h.signer))

		r.Get("/api/ewaste", h.ListItems)
		r.Get("/api/ewaste/{id}", h.GetItem)
		r.Get("/api/bids", h.ListAllBids)
		r.Get("/api/bids/{itemId}", h.ListItemBids)
		r.Get("/api/rewards/leaderboard", h.Leaderboard)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.signer))

		r.Post("/api/ewaste", h.CreateItem)
		r.Put("/api/ewaste/{id}/status", h.UpdateItemStatus)
		r.Delete("/api/ewaste/{id}", h.DeleteItem)
		r.Post("/api/bids/{itemId}", h.PlaceBid)
		r.Get("/api/rewards", h.GetRewards)
		r.Post("/api/rewards/claim", h.ClaimRewards)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
