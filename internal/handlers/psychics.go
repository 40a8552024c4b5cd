package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

type psychicService interface {
	ListPublic(ctx context.Context) ([]models.Psychic, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*models.Psychic, error)
	ListWithEarnings(ctx context.Context) ([]models.PsychicWithEarnings, error)
	Create(ctx context.Context, req models.CreatePsychicRequest) (*models.Psychic, error)
	ToggleVerify(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type earningsService interface {
	Earnings(ctx context.Context, psychicID uuid.UUID) (*models.EarningsSummary, error)
}

type PsychicHandler struct {
	psychics psychicService
	earnings earningsService
}

func NewPsychicHandler(psychics psychicService, earnings earningsService) *PsychicHandler {
	return &PsychicHandler{psychics: psychics, earnings: earnings}
}

// ListPublic is the marketplace listing: verified psychics only.
func (h *PsychicHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	list, err := h.psychics.ListPublic(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Psychic{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PsychicHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "psychic")
	if !ok {
		return
	}

	p, err := h.psychics.GetPublic(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PsychicHandler) ListWithEarnings(w http.ResponseWriter, r *http.Request) {
	list, err := h.psychics.ListWithEarnings(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.PsychicWithEarnings{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PsychicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePsychicRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.psychics.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PsychicHandler) ToggleVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "psychic")
	if !ok {
		return
	}

	verified, err := h.psychics.ToggleVerify(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_verified": verified})
}

func (h *PsychicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "psychic")
	if !ok {
		return
	}

	if err := h.psychics.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Psychic deleted"})
}

// MyEarnings is the signed-in psychic's own earnings summary.
func (h *PsychicHandler) MyEarnings(w http.ResponseWriter, r *http.Request) {
	e, err := h.earnings.Earnings(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
