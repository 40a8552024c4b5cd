package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psychicline-backend/internal/events"
	"psychicline-backend/internal/metrics"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type earningsReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Psychic, error)
	Earnings(ctx context.Context, id uuid.UUID) (*models.EarningsSummary, error)
}

type payoutStore interface {
	Create(ctx context.Context, p *models.Payout, check repository.PayoutCheckFunc) (*models.Payout, bool, error)
	ListByPsychic(ctx context.Context, psychicID uuid.UUID) ([]models.Payout, error)
}

// PayoutService reports psychic earnings and records payouts against them.
type PayoutService struct {
	psychics earningsReader
	payouts  payoutStore
	jobs     jobEnqueuer
	events   eventPublisher
	log      *zap.Logger
}

func NewPayoutService(psychics earningsReader, payouts payoutStore, jobs jobEnqueuer, publisher eventPublisher, log *zap.Logger) *PayoutService {
	return &PayoutService{
		psychics: psychics,
		payouts:  payouts,
		jobs:     jobs,
		events:   publisher,
		log:      log,
	}
}

func (s *PayoutService) Earnings(ctx context.Context, psychicID uuid.UUID) (*models.EarningsSummary, error) {
	e, err := s.psychics.Earnings(ctx, psychicID)
	if err != nil {
		return nil, notFound(err, "Psychic not found")
	}
	return e, nil
}

func (s *PayoutService) History(ctx context.Context, psychicID uuid.UUID) ([]models.Payout, error) {
	if _, err := s.psychics.Earnings(ctx, psychicID); err != nil {
		return nil, notFound(err, "Psychic not found")
	}
	return s.payouts.ListByPsychic(ctx, psychicID)
}

// Pay records a payout. The payment id is an idempotency key: repeating it
// returns the original payout flagged as a duplicate.
func (s *PayoutService) Pay(ctx context.Context, adminID, psychicID uuid.UUID, req models.PayoutRequest) (*models.PayoutResult, error) {
	fields := make(map[string]string)
	paymentID := strings.TrimSpace(req.PaymentID)
	if req.Amount <= 0 {
		fields["amount"] = "Amount must be greater than zero"
	}
	if paymentID == "" {
		fields["paymentId"] = "Payment ID is required"
	} else if len(paymentID) > 128 {
		fields["paymentId"] = "Payment ID must be at most 128 characters"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	psychic, err := s.psychics.GetByID(ctx, psychicID)
	if err != nil {
		return nil, notFound(err, "Psychic not found")
	}

	payout, duplicate, err := s.payouts.Create(ctx, &models.Payout{
		PsychicID: psychicID,
		Amount:    req.Amount,
		PaymentID: paymentID,
		Note:      req.Note,
		PaidBy:    adminID,
	}, func(e *models.EarningsSummary) error {
		if req.Amount > e.Outstanding {
			return &ValidationError{Fields: map[string]string{
				"amount": "Amount exceeds outstanding earnings of " + e.Outstanding.String(),
			}}
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, "Psychic not found")
	}
	if duplicate && payout.PsychicID != psychicID {
		return nil, &ConflictError{Message: "Payment ID was already used for another psychic"}
	}

	metrics.PayoutsTotal.WithLabelValues(strconv.FormatBool(duplicate)).Inc()

	earnings, err := s.psychics.Earnings(ctx, psychicID)
	if err != nil {
		return nil, fmt.Errorf("reload earnings: %w", err)
	}
	result := &models.PayoutResult{Payout: payout, Duplicate: duplicate, Earnings: earnings}
	if duplicate {
		return result, nil
	}

	if err := s.jobs.Enqueue(ctx, models.JobPayoutReceipt, models.PayoutReceiptPayload{
		To:          psychic.Email,
		PsychicName: psychic.Name,
		Amount:      payout.Amount,
		PaymentID:   payout.PaymentID,
	}); err != nil {
		s.log.Warn("queue payout receipt", zap.Error(err))
	}

	if err := s.events.Publish(ctx, events.New(events.PayoutCreated, map[string]interface{}{
		"payout_id":  payout.ID.String(),
		"psychic_id": psychicID.String(),
		"amount":     payout.Amount.String(),
		"payment_id": payout.PaymentID,
	})); err != nil {
		s.log.Warn("publish event", zap.String("type", events.PayoutCreated), zap.Error(err))
	}

	s.log.Info("payout recorded",
		zap.String("payout_id", payout.ID.String()),
		zap.String("psychic_id", psychicID.String()),
		zap.String("amount", payout.Amount.String()),
	)
	return result, nil
}
