package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

type payoutService interface {
	Earnings(ctx context.Context, psychicID uuid.UUID) (*models.EarningsSummary, error)
	History(ctx context.Context, psychicID uuid.UUID) ([]models.Payout, error)
	Pay(ctx context.Context, adminID, psychicID uuid.UUID, req models.PayoutRequest) (*models.PayoutResult, error)
}

// PaymentHandler serves /api/admin/payments.
type PaymentHandler struct {
	payouts payoutService
}

func NewPaymentHandler(payouts payoutService) *PaymentHandler {
	return &PaymentHandler{payouts: payouts}
}

func (h *PaymentHandler) Earnings(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "psychic")
	if !ok {
		return
	}

	e, err := h.payouts.Earnings(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Pay answers 201 for a new payout and 200 when the payment id was seen before.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "psychic")
	if !ok {
		return
	}
	var req models.PayoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.payouts.Pay(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "psychic")
	if !ok {
		return
	}

	payouts, err := h.payouts.History(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if payouts == nil {
		payouts = []models.Payout{}
	}
	writeJSON(w, http.StatusOK, payouts)
}
