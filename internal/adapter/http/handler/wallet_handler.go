package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/herdpool/herdpool/internal/adapter/http/dto"
	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	CreateWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	Debit(ctx context.Context, input usecase.MoveFundsInput) (*domain.LedgerEntry, error)
	Credit(ctx context.Context, input usecase.MoveFundsInput) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC}
}

// Create provisions a wallet for a user.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), req.UserID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(wallet))
}

// Get retrieves a user's wallet.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Debit moves money out of a wallet.
func (h *WalletHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.walletUC.Debit)
}

// Credit moves money into a wallet.
func (h *WalletHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.walletUC.Credit)
}

func (h *WalletHandler) move(w http.ResponseWriter, r *http.Request, op func(context.Context, usecase.MoveFundsInput) (*domain.LedgerEntry, error)) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	var req dto.MoveFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := op(r.Context(), req.ToUseCaseInput(userID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to move funds", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// ListEntries lists a user's ledger entries.
func (h *WalletHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	entries, err := h.walletUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		UserID: userID,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}
