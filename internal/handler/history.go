package handler

import (
	"errors"
	"net/http"

	"github.com/loyalty/internal/logger"
	"github.com/loyalty/internal/middleware"
	"github.com/loyalty/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type HistoryHandler struct {
	purchaseRepo *repository.PurchaseRepository
	swapRepo     *repository.SwapRepository
	activityRepo *repository.ActivityRepository
	statsRepo    *repository.StatsRepository
}

func NewHistoryHandler(
	purchaseRepo *repository.PurchaseRepository,
	swapRepo *repository.SwapRepository,
	activityRepo *repository.ActivityRepository,
	statsRepo *repository.StatsRepository,
) *HistoryHandler {
	return &HistoryHandler{
		purchaseRepo: purchaseRepo,
		swapRepo:     swapRepo,
		activityRepo: activityRepo,
		statsRepo:    statsRepo,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func (h *HistoryHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit := clampLimit(queryInt(r, "limit", defaultPageLimit))
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	purchases, total, err := h.purchaseRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		logger.Errorf("list purchases user=%d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load purchases")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"purchases": purchases,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *HistoryHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid purchase id")
		return
	}
	purchase, err := h.purchaseRepo.GetByID(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "purchase not found")
			return
		}
		logger.Errorf("get purchase=%d user=%d: %v", id, userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load purchase")
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

func (h *HistoryHandler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit := clampLimit(queryInt(r, "limit", defaultPageLimit))
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	swaps, total, err := h.swapRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		logger.Errorf("list swaps user=%d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load swaps")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"swaps":  swaps,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *HistoryHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit := clampLimit(queryInt(r, "limit", defaultPageLimit))

	activities, err := h.activityRepo.ListByUser(r.Context(), userID, limit)
	if err != nil {
		logger.Errorf("list activity user=%d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
}

func (h *HistoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	stats, err := h.statsRepo.Get(r.Context(), userID)
	if err != nil {
		logger.Errorf("stats user=%d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
