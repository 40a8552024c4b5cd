package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

type ratingService interface {
	Create(ctx context.Context, userID uuid.UUID, req models.CreateRatingRequest) (*models.Rating, error)
	List(ctx context.Context, psychicID *uuid.UUID) ([]models.Rating, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RatingHandler serves session ratings and the admin feedback list.
type RatingHandler struct {
	ratings ratingService
}

func NewRatingHandler(ratings ratingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

func (h *RatingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRatingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.ratings.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *RatingHandler) List(w http.ResponseWriter, r *http.Request) {
	psychicID, ok := optionalQueryID(w, r, "psychicId")
	if !ok {
		return
	}

	list, err := h.ratings.List(r.Context(), psychicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Rating{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *RatingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "feedback")
	if !ok {
		return
	}

	if err := h.ratings.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback deleted"})
}
