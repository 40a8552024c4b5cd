package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

const publicListingKey = "psychics:public"

type psychicStore interface {
	Create(ctx context.Context, p *models.Psychic) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Psychic, error)
	ListVerified(ctx context.Context) ([]models.Psychic, error)
	ListWithEarnings(ctx context.Context) ([]models.PsychicWithEarnings, error)
	ToggleVerify(ctx context.Context, id uuid.UUID) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type PsychicService struct {
	psychics psychicStore
	cache    *cache.Cache
	log      *zap.Logger
}

// NewPsychicService caches the public listing for ttl. Admin mutations
// invalidate it.
func NewPsychicService(psychics psychicStore, ttl time.Duration, log *zap.Logger) *PsychicService {
	return &PsychicService{
		psychics: psychics,
		cache:    cache.New(ttl, 2*ttl),
		log:      log,
	}
}

func (s *PsychicService) ListPublic(ctx context.Context) ([]models.Psychic, error) {
	if cached, ok := s.cache.Get(publicListingKey); ok {
		return cached.([]models.Psychic), nil
	}

	psychics, err := s.psychics.ListVerified(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(publicListingKey, psychics, cache.DefaultExpiration)
	return psychics, nil
}

// GetPublic hides unverified psychics from the marketplace.
func (s *PsychicService) GetPublic(ctx context.Context, id uuid.UUID) (*models.Psychic, error) {
	p, err := s.psychics.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Psychic not found")
	}
	if !p.IsVerified {
		return nil, &NotFoundError{Message: "Psychic not found"}
	}
	return p, nil
}

func (s *PsychicService) ListWithEarnings(ctx context.Context) ([]models.PsychicWithEarnings, error) {
	return s.psychics.ListWithEarnings(ctx)
}

func (s *PsychicService) Create(ctx context.Context, req models.CreatePsychicRequest) (*models.Psychic, error) {
	fields := make(map[string]string)
	requireText(fields, "name", req.Name, "Name is required")
	email := normalizeEmail(req.Email)
	if !emailRegex.MatchString(email) {
		fields["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fields["password"] = err.Error()
	}
	if req.RatePerMin <= 0 {
		fields["ratePerMin"] = "Rate per minute must be greater than zero"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	specialties := make([]string, 0, len(req.Specialties))
	for _, sp := range req.Specialties {
		if sp = strings.TrimSpace(sp); sp != "" {
			specialties = append(specialties, sp)
		}
	}

	p := &models.Psychic{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Bio:          req.Bio,
		ImageURL:     req.ImageURL,
		Specialties:  specialties,
		RatePerMin:   req.RatePerMin,
	}
	if err := s.psychics.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "Email already in use"}
		}
		return nil, err
	}

	s.log.Info("psychic created", zap.String("psychic_id", p.ID.String()))
	return p, nil
}

func (s *PsychicService) ToggleVerify(ctx context.Context, id uuid.UUID) (bool, error) {
	verified, err := s.psychics.ToggleVerify(ctx, id)
	if err != nil {
		return false, notFound(err, "Psychic not found")
	}
	s.cache.Delete(publicListingKey)
	return verified, nil
}

func (s *PsychicService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.psychics.SoftDelete(ctx, id); err != nil {
		return notFound(err, "Psychic not found")
	}
	s.cache.Delete(publicListingKey)
	return nil
}
