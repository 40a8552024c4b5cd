package services

import (
	"context"

	"github.com/google/uuid"

	"psychicline-backend/internal/events"
	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

// Collaborators shared by several services. The concrete types live in
// Notifier, JobQueue, events.Publisher and middleware.Limiter.

type updatePublisher interface {
	PublishUpdate(ctx context.Context, id uuid.UUID, msg models.WSMessage)
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type actionLimiter interface {
	Allow(ctx context.Context, identifier string, rule middleware.Rule) bool
}

type walletReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type psychicReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Psychic, error)
}

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
