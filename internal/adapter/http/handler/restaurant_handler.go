package handler

import (
	"context"
	"net/http"

	"github.com/iho/bobpool/internal/adapter/http/dto"
	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/usecase"
)

// RestaurantService defines the behavior needed by RestaurantHandler.
type RestaurantService interface {
	ListRestaurantSummaries(ctx context.Context) ([]usecase.RestaurantSummary, error)
	GetRestaurant(restaurantID int64) (domain.Restaurant, error)
	GetPoolSummary(ctx context.Context, restaurantID int64) (*usecase.PoolSummary, error)
	MenuPrice(restaurantID int64, label string) (int64, bool, error)
	EditStatus(restaurantID int64) (usecase.EditStatus, error)
}

// RestaurantHandler serves the catalog and per-restaurant pool views.
type RestaurantHandler struct {
	poolUC RestaurantService
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(poolUC RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{poolUC: poolUC}
}

// List returns every restaurant with its member count and pool amount.
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.poolUC.ListRestaurantSummaries(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RestaurantSummariesFromUseCase(summaries))
}

// Get returns catalog info and menu of one restaurant.
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	restaurant, err := h.poolUC.GetRestaurant(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RestaurantFromDomain(restaurant))
}

// Pool returns the pool summary of one restaurant.
func (h *RestaurantHandler) Pool(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	summary, err := h.poolUC.GetPoolSummary(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PoolSummaryFromUseCase(summary))
}

// MenuPrice looks up the reference price of ?label= for line-item prefill.
func (h *RestaurantHandler) MenuPrice(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	label := r.URL.Query().Get("label")
	if label == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "missing label", false)
		return
	}

	price, found, err := h.poolUC.MenuPrice(id, label)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MenuPriceResponse{Label: label, Price: price, Found: found})
}

// EditSession reports the edit flow state of a restaurant's entry list.
func (h *RestaurantHandler) EditSession(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	status, err := h.poolUC.EditStatus(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EditSessionFromUseCase(status))
}
