package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type ratingStore interface {
	Create(ctx context.Context, rt *models.Rating) error
	List(ctx context.Context, psychicID *uuid.UUID) ([]models.Rating, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type sessionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
}

type RatingService struct {
	ratings  ratingStore
	sessions sessionReader
}

func NewRatingService(ratings ratingStore, sessions sessionReader) *RatingService {
	return &RatingService{ratings: ratings, sessions: sessions}
}

// Create rates a completed session once, by the user who paid for it.
func (s *RatingService) Create(ctx context.Context, userID uuid.UUID, req models.CreateRatingRequest) (*models.Rating, error) {
	fields := make(map[string]string)
	if req.SessionID == uuid.Nil {
		fields["sessionId"] = "Session is required"
	}
	if req.Rating < 1 || req.Rating > 5 {
		fields["rating"] = "Rating must be between 1 and 5"
	}
	if req.Comment != nil && len(*req.Comment) > 2000 {
		fields["comment"] = "Comment must be at most 2000 characters"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	session, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, notFound(err, "Session not found")
	}
	if session.UserID != userID {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	if session.Status != models.SessionCompleted {
		return nil, &ConflictError{Message: "Only completed sessions can be rated"}
	}

	rt := &models.Rating{
		SessionID: session.ID,
		UserID:    userID,
		PsychicID: session.PsychicID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.ratings.Create(ctx, rt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "You already rated this session"}
		}
		return nil, err
	}
	return rt, nil
}

func (s *RatingService) List(ctx context.Context, psychicID *uuid.UUID) ([]models.Rating, error) {
	return s.ratings.List(ctx, psychicID)
}

func (s *RatingService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.ratings.Delete(ctx, id), "Feedback not found")
}
