package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/loyalty/internal/logger"
	"github.com/loyalty/internal/middleware"
	"github.com/loyalty/internal/repository"
	"github.com/loyalty/internal/ws"
)

type CatalogHandler struct {
	rewardRepo *repository.RewardRepository
	promoRepo  *repository.PromotionRepository
	swapRepo   *repository.SwapRepository
	hub        *ws.Hub
}

func NewCatalogHandler(
	rewardRepo *repository.RewardRepository,
	promoRepo *repository.PromotionRepository,
	swapRepo *repository.SwapRepository,
	hub *ws.Hub,
) *CatalogHandler {
	return &CatalogHandler{
		rewardRepo: rewardRepo,
		promoRepo:  promoRepo,
		swapRepo:   swapRepo,
		hub:        hub,
	}
}

func (h *CatalogHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewardRepo.List(r.Context())
	if err != nil {
		logger.Errorf("list rewards: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load rewards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": rewards})
}

func (h *CatalogHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promoRepo.List(r.Context())
	if err != nil {
		logger.Errorf("list promotions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load promotions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"promotions": promos})
}

// SwapReward redeems a reward for the authenticated user. The balance
// deduction and the swap record are committed in one transaction.
func (h *CatalogHandler) SwapReward(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	rewardID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid reward id")
		return
	}

	reward, err := h.rewardRepo.GetByID(r.Context(), rewardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reward not found")
			return
		}
		logger.Errorf("swap reward=%d user=%d: %v", rewardID, userID, err)
		writeError(w, http.StatusInternalServerError, "failed to redeem reward")
		return
	}
	if !reward.IsAvailable {
		writeError(w, http.StatusConflict, "reward is not available")
		return
	}

	swap, balance, err := h.swapRepo.Redeem(r.Context(), userID, reward)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientPoints) {
			writeError(w, http.StatusConflict, "not enough points")
			return
		}
		logger.Errorf("swap reward=%d user=%d: %v", rewardID, userID, err)
		writeError(w, http.StatusInternalServerError, "failed to redeem reward")
		return
	}

	if h.hub != nil {
		h.hub.SendToUser(userID, ws.Event{
			Type: ws.EventSwapCreated,
			Payload: ws.SwapCreatedPayload{
				Swap:        *swap,
				TotalPoints: balance,
			},
		})
		h.hub.SendToUser(userID, ws.Event{
			Type: ws.EventPointsUpdated,
			Payload: ws.PointsUpdatedPayload{
				TotalPoints: balance,
				Delta:       -reward.PointsRequired,
				Reason:      "swap",
				At:          time.Now().UTC(),
			},
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"swap":         swap,
		"total_points": balance,
	})
}
