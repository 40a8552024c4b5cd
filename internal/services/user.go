package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type userStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID uuid.UUID) error
	ListWithWallets(ctx context.Context) ([]models.UserWithWallet, error)
}

// UserService backs the admin user table.
type UserService struct {
	users userStore
}

func NewUserService(users userStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context) ([]models.UserWithWallet, error) {
	return s.users.ListWithWallets(ctx)
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	fields := make(map[string]string)
	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			fields["fullName"] = "Full name cannot be empty"
		}
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !emailRegex.MatchString(email) {
			fields["email"] = "Invalid email format"
		}
		user.Email = email
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "Email already in use"}
		}
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrInUse) {
		return &ConflictError{Message: "User has an active session"}
	}
	return notFound(err, "User not found")
}
