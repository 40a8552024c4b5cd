package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psychicline-backend/internal/events"
	"psychicline-backend/internal/models"
)

type walletStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, userID uuid.UUID, amount models.Credits, description string) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error)
}

type WalletService struct {
	wallets  walletStore
	users    userReader
	psychics psychicReader
	events   eventPublisher
	log      *zap.Logger
}

func NewWalletService(wallets walletStore, users userReader, psychics psychicReader, publisher eventPublisher, log *zap.Logger) *WalletService {
	return &WalletService{
		wallets:  wallets,
		users:    users,
		psychics: psychics,
		events:   publisher,
		log:      log,
	}
}

// Balance reports the wallet and, when a psychic is given, how many minutes
// it buys with them.
func (s *WalletService) Balance(ctx context.Context, userID uuid.UUID, psychicID *uuid.UUID) (*models.BalanceResponse, error) {
	w, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	resp := &models.BalanceResponse{
		Credits:   w.Balance,
		Reserved:  w.Reserved,
		Available: w.Available(),
	}
	if psychicID == nil {
		return resp, nil
	}

	p, err := s.psychics.GetByID(ctx, *psychicID)
	if err != nil {
		return nil, notFound(err, "Psychic not found")
	}
	allowed := AllowedMinutes(w.Available(), p.RatePerMin)
	canSend := CanSendRequest(w.Available(), p.RatePerMin)
	resp.RatePerMin = &p.RatePerMin
	resp.AllowedMinutes = &allowed
	resp.CanSendRequest = &canSend
	return resp, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	return s.wallets.ListTransactions(ctx, userID, 100)
}

// AddCredits tops up a user's wallet on behalf of an admin.
func (s *WalletService) AddCredits(ctx context.Context, req models.AddCreditsRequest) (*models.Wallet, error) {
	fields := make(map[string]string)
	if req.UserID == uuid.Nil {
		fields["userId"] = "User is required"
	}
	if req.Amount <= 0 {
		fields["amount"] = "Amount must be greater than zero"
	} else if req.Amount > MaxCreditTopUp {
		fields["amount"] = "Amount must be at most " + MaxCreditTopUp.String()
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, notFound(err, "User not found")
	}

	w, err := s.wallets.Credit(ctx, req.UserID, req.Amount, "Credits added by admin")
	if err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}

	if err := s.events.Publish(ctx, events.New(events.CreditsAdded, map[string]interface{}{
		"user_id": req.UserID.String(),
		"amount":  req.Amount.String(),
		"balance": w.Balance.String(),
	})); err != nil {
		s.log.Warn("publish event", zap.String("type", events.CreditsAdded), zap.Error(err))
	}
	return w, nil
}
