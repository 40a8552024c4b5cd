package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

type walletService interface {
	Balance(ctx context.Context, userID uuid.UUID, psychicID *uuid.UUID) (*models.BalanceResponse, error)
	Transactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error)
	AddCredits(ctx context.Context, req models.AddCreditsRequest) (*models.Wallet, error)
}

type WalletHandler struct {
	wallets walletService
}

func NewWalletHandler(wallets walletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Balance accepts an optional psychicId to report the minutes the balance buys.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	psychicID, ok := optionalQueryID(w, r, "psychicId")
	if !ok {
		return
	}

	resp, err := h.wallets.Balance(r.Context(), middleware.GetUserID(r.Context()), psychicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.wallets.Transactions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if txns == nil {
		txns = []models.WalletTransaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *WalletHandler) AddCredits(w http.ResponseWriter, r *http.Request) {
	var req models.AddCreditsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	wallet, err := h.wallets.AddCredits(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}
