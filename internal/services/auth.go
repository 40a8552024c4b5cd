package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

// RefreshTokenTTL is how long a refresh token stays valid in Redis.
const RefreshTokenTTL = 7 * 24 * time.Hour

type userAccountStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type psychicAccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Psychic, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Psychic, error)
}

type adminAccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	Ensure(ctx context.Context, a *models.Admin) (bool, error)
}

// AuthService issues and rotates the token pair for every role. The refresh
// token is the server-side session: login creates it, refresh replaces it and
// logout deletes it.
type AuthService struct {
	users    userAccountStore
	psychics psychicAccountStore
	admins   adminAccountStore
	redis    *redis.Client
	jwt      *middleware.JWTAuth
	log      *zap.Logger
}

func NewAuthService(users userAccountStore, psychics psychicAccountStore, admins adminAccountStore, redisClient *redis.Client, jwt *middleware.JWTAuth, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		psychics: psychics,
		admins:   admins,
		redis:    redisClient,
		jwt:      jwt,
		log:      log,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.AuthTokens, error) {
	// Validate all fields at once
	fieldErrors := make(map[string]string)
	email := normalizeEmail(req.Email)

	requireText(fieldErrors, "fullName", req.FullName, "Full name is required")
	if !emailRegex.MatchString(email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}

	if len(fieldErrors) > 0 {
		return nil, nil, &ValidationError{Fields: fieldErrors}
	}

	// Check uniqueness
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, nil, &ConflictError{Message: "Email already in use"}
	}
	if !repository.IsNotFound(err) {
		return nil, nil, err
	}

	// Hash password (bcrypt cost 12)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, &ConflictError{Message: "Email already in use"}
		}
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, models.Principal{ID: user.ID, Role: models.RoleUser})
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return s.issueTokens(ctx, models.Principal{ID: user.ID, Role: models.RoleUser})
}

func (s *AuthService) PsychicLogin(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	p, err := s.psychics.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	return s.issueTokens(ctx, models.Principal{ID: p.ID, Role: models.RolePsychic})
}

func (s *AuthService) AdminLogin(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	a, err := s.admins.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	return s.issueTokens(ctx, models.Principal{ID: a.ID, Role: models.RoleAdmin})
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, &ValidationError{Fields: map[string]string{"refreshToken": "Refresh token is required"}}
	}

	value, err := s.redis.Get(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	p, err := parseRefreshValue(value)
	if err != nil {
		return nil, err
	}

	// Delete old token (rotation)
	s.redis.Del(ctx, refreshKey(refreshToken))

	if err := s.checkActive(ctx, p); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, p)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, refreshKey(refreshToken)).Err()
}

// Me returns the profile behind the principal: a user, psychic or admin.
func (s *AuthService) Me(ctx context.Context, p models.Principal) (interface{}, error) {
	switch p.Role {
	case models.RoleUser:
		u, err := s.users.GetByID(ctx, p.ID)
		return u, notFound(err, "Account not found")
	case models.RolePsychic:
		ps, err := s.psychics.GetByID(ctx, p.ID)
		return ps, notFound(err, "Account not found")
	case models.RoleAdmin:
		a, err := s.admins.GetByID(ctx, p.ID)
		return a, notFound(err, "Account not found")
	}
	return nil, &UnauthorizedError{Message: "Unknown role"}
}

// EnsureAdmin seeds the bootstrap admin account if it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		s.log.Info("no bootstrap admin configured")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.admins.Ensure(ctx, &models.Admin{
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Name:         "Administrator",
	})
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		s.log.Info("bootstrap admin created", zap.String("email", normalizeEmail(email)))
	}
	return nil
}

func (s *AuthService) checkActive(ctx context.Context, p models.Principal) error {
	switch p.Role {
	case models.RoleUser:
		u, err := s.users.GetByID(ctx, p.ID)
		if err != nil {
			return notFound(err, "Account not found")
		}
		if !u.IsActive {
			return &UnauthorizedError{Message: "Account is deactivated"}
		}
	case models.RolePsychic:
		if _, err := s.psychics.GetByID(ctx, p.ID); err != nil {
			return notFound(err, "Account not found")
		}
	case models.RoleAdmin:
		if _, err := s.admins.GetByID(ctx, p.ID); err != nil {
			return notFound(err, "Account not found")
		}
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, p models.Principal) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(p.ID, p.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	err = s.redis.Set(ctx, refreshKey(refreshToken), refreshValue(p), RefreshTokenTTL).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
		Role:         p.Role,
	}, nil
}

func refreshKey(token string) string {
	return "refresh:" + token
}

func refreshValue(p models.Principal) string {
	return p.Role + ":" + p.ID.String()
}

func parseRefreshValue(v string) (models.Principal, error) {
	role, id, ok := strings.Cut(v, ":")
	if !ok {
		return models.Principal{}, &UnauthorizedError{Message: "Invalid refresh token"}
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return models.Principal{}, fmt.Errorf("invalid id in refresh token: %w", err)
	}
	return models.Principal{ID: uid, Role: role}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
