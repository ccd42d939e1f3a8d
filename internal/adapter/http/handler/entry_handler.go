package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bobpool/internal/adapter/http/dto"
	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	ListEntries(ctx context.Context, restaurantID int64) ([]*domain.Entry, error)
	RecordDeposit(ctx context.Context, input usecase.RecordDepositInput) (*usecase.EntryResult, error)
	RecordWithdrawal(ctx context.Context, input usecase.RecordWithdrawalInput) (*usecase.EntryResult, error)
	ReviseEntry(ctx context.Context, restaurantID int64, entryID, rawAmount string) (*usecase.EntryResult, error)
}

// EntryHandler handles ledger entry HTTP requests.
type EntryHandler struct {
	poolUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(poolUC EntryService) *EntryHandler {
	return &EntryHandler{poolUC: poolUC}
}

// List lists a restaurant's entries, newest first. ?limit= caps the result.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	entries, err := h.poolUC.ListEntries(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	total := len(entries)
	if limit := parseIntQuery(r, "limit", 0); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   total,
	})
}

// CreateDeposit records a split deposit.
func (h *EntryHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	var req dto.CreateDepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error(), false)
		return
	}

	result, err := h.poolUC.RecordDeposit(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryResultFromUseCase(result))
}

// CreateWithdrawal records a single withdrawal.
func (h *EntryHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	var req dto.CreateWithdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error(), false)
		return
	}

	input, err := req.ToUseCaseInput(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.poolUC.RecordWithdrawal(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryResultFromUseCase(result))
}

// Revise changes the spend amount of one entry.
func (h *EntryHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), false)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	if entryID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "missing entry ID", false)
		return
	}

	var req dto.ReviseEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error(), false)
		return
	}

	result, err := h.poolUC.ReviseEntry(r.Context(), id, entryID, string(req.SpendAmount))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryResultFromUseCase(result))
}
