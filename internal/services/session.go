package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"psychicline-backend/internal/events"
	"psychicline-backend/internal/metrics"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

// EndedBySystem marks sessions closed by the scheduler.
const EndedBySystem = "system"

type sessionStore interface {
	Settle(ctx context.Context, sessionID uuid.UUID, settle repository.SettleFunc) (*models.ChatSession, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error)
	ListDetails(ctx context.Context, psychicID *uuid.UUID) ([]models.SessionDetail, error)
	SummarizeByPsychic(ctx context.Context) ([]models.PsychicChatSummary, error)
	ListDue(ctx context.Context, now time.Time) ([]models.ChatSession, error)
}

type SessionService struct {
	sessions sessionStore
	splitter RevenueSplitter
	notifier updatePublisher
	events   eventPublisher
	now      func() time.Time
	tracer   trace.Tracer
	log      *zap.Logger
}

func NewSessionService(sessions sessionStore, splitter RevenueSplitter, notifier updatePublisher, publisher eventPublisher, log *zap.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		splitter: splitter,
		notifier: notifier,
		events:   publisher,
		now:      time.Now,
		tracer:   otel.Tracer("psychicline/session"),
		log:      log,
	}
}

// End completes a session and bills it. Ending a completed session returns
// it unchanged.
func (s *SessionService) End(ctx context.Context, actor models.Principal, sessionID uuid.UUID) (*models.ChatSession, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.End", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.String("actor.role", actor.Role),
	))
	defer span.End()

	settled := false
	session, err := s.sessions.Settle(ctx, sessionID, func(cs *models.ChatSession) (*repository.Settlement, error) {
		if !canEnd(actor, cs) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		if cs.Status == models.SessionCompleted {
			return nil, nil
		}

		endedAt := s.now()
		// The scheduler never cuts a session short, even if the database
		// clock runs ahead of ours.
		if actor.Role == EndedBySystem && endedAt.Before(cs.Deadline()) {
			return nil, nil
		}
		billed := BilledMinutes(cs.StartedAt, endedAt, cs.AllowedMinutes)
		amount := models.Credits(billed) * cs.RatePerMin
		split := s.splitter.Split(amount)
		settled = true

		return &repository.Settlement{
			BilledMinutes:    billed,
			Amount:           amount,
			PsychicEarnings:  split.Psychic,
			PlatformEarnings: split.Platform,
			EndedBy:          actor.Role,
			EndedAt:          endedAt,
		}, nil
	})
	if err != nil {
		return nil, notFound(err, "Session not found")
	}
	if !settled {
		return session, nil
	}

	span.SetAttributes(attribute.Int("session.billed_minutes", session.BilledMinutes))
	metrics.SessionsEnded.WithLabelValues(actor.Role).Inc()
	metrics.CreditsBilled.Add(session.Amount.Float())

	msg := sessionMessage(session)
	s.notifier.PublishUpdate(ctx, session.UserID, msg)
	s.notifier.PublishUpdate(ctx, session.PsychicID, msg)

	err = s.events.Publish(ctx, events.New(events.SessionCompleted, map[string]interface{}{
		"session_id":        session.ID.String(),
		"user_id":           session.UserID.String(),
		"psychic_id":        session.PsychicID.String(),
		"billed_minutes":    session.BilledMinutes,
		"amount":            session.Amount.String(),
		"psychic_earnings":  session.PsychicEarnings.String(),
		"platform_earnings": session.PlatformEarnings.String(),
	}))
	if err != nil {
		s.log.Warn("publish event", zap.String("type", events.SessionCompleted), zap.Error(err))
	}

	s.log.Info("chat session ended",
		zap.String("session_id", session.ID.String()),
		zap.String("ended_by", actor.Role),
		zap.Int("billed_minutes", session.BilledMinutes),
		zap.String("amount", session.Amount.String()),
	)
	return session, nil
}

// EndDue closes every active session whose allotted time has run out.
func (s *SessionService) EndDue(ctx context.Context) (int, error) {
	due, err := s.sessions.ListDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list due sessions: %w", err)
	}

	ended := 0
	for _, cs := range due {
		session, err := s.End(ctx, models.Principal{Role: EndedBySystem}, cs.ID)
		if err != nil {
			s.log.Error("auto-end session", zap.String("session_id", cs.ID.String()), zap.Error(err))
			continue
		}
		if session.Status == models.SessionCompleted {
			ended++
		}
	}
	return ended, nil
}

// Get returns a session to one of its participants or an admin.
func (s *SessionService) Get(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.SessionDetail, error) {
	d, err := s.sessions.GetDetail(ctx, id)
	if err != nil {
		return nil, notFound(err, "Session not found")
	}
	if actor.Role != models.RoleAdmin && !canEnd(actor, &d.ChatSession) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	return d, nil
}

func (s *SessionService) List(ctx context.Context, psychicID *uuid.UUID) ([]models.SessionDetail, error) {
	return s.sessions.ListDetails(ctx, psychicID)
}

func (s *SessionService) SummarizeByPsychic(ctx context.Context) ([]models.PsychicChatSummary, error) {
	return s.sessions.SummarizeByPsychic(ctx)
}

func canEnd(actor models.Principal, cs *models.ChatSession) bool {
	switch actor.Role {
	case EndedBySystem:
		return true
	case models.RoleUser:
		return actor.ID == cs.UserID
	case models.RolePsychic:
		return actor.ID == cs.PsychicID
	}
	return false
}
