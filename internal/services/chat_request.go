package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"psychicline-backend/internal/events"
	"psychicline-backend/internal/metrics"
	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type chatRequestStore interface {
	Create(ctx context.Context, cr *models.ChatRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatRequest, error)
	GetOutstanding(ctx context.Context, userID, psychicID uuid.UUID) (*models.ChatRequest, error)
	ListForPsychic(ctx context.Context, psychicID uuid.UUID, status models.ChatRequestStatus) ([]models.InboxItem, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.ChatRequestStatus) (*models.ChatRequest, error)
	ExpireStale(ctx context.Context, pendingBefore, acceptedBefore time.Time) ([]models.ChatRequest, error)
}

type sessionOpener interface {
	Open(ctx context.Context, requestID uuid.UUID, decide repository.OpenFunc) (*models.ChatSession, error)
}

// ChatRequestService owns the request lifecycle from send to session start.
type ChatRequestService struct {
	requests chatRequestStore
	sessions sessionOpener
	psychics psychicReader
	users    userReader
	wallets  walletReader
	notifier updatePublisher
	jobs     jobEnqueuer
	events   eventPublisher
	limiter  actionLimiter
	sendRule middleware.Rule
	tracer   trace.Tracer
	log      *zap.Logger
}

func NewChatRequestService(
	requests chatRequestStore,
	sessions sessionOpener,
	psychics psychicReader,
	users userReader,
	wallets walletReader,
	notifier updatePublisher,
	jobs jobEnqueuer,
	publisher eventPublisher,
	limiter actionLimiter,
	sendLimitPerMinute int,
	log *zap.Logger,
) *ChatRequestService {
	return &ChatRequestService{
		requests: requests,
		sessions: sessions,
		psychics: psychics,
		users:    users,
		wallets:  wallets,
		notifier: notifier,
		jobs:     jobs,
		events:   publisher,
		limiter:  limiter,
		sendRule: middleware.Rule{Key: "rl:send-request:", Limit: sendLimitPerMinute, Window: time.Minute},
		tracer:   otel.Tracer("psychicline/chatrequest"),
		log:      log,
	}
}

// GetOutstanding returns the caller's open request with the psychic, if any,
// along with what their wallet allows.
func (s *ChatRequestService) GetOutstanding(ctx context.Context, userID, psychicID uuid.UUID) (*models.ChatRequestView, error) {
	psychic, err := s.psychics.GetByID(ctx, psychicID)
	if err != nil {
		return nil, notFound(err, "Psychic not found")
	}

	wallet, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	view := &models.ChatRequestView{
		Credits:        wallet.Available(),
		RatePerMin:     psychic.RatePerMin,
		AllowedMinutes: AllowedMinutes(wallet.Available(), psychic.RatePerMin),
		CanSendRequest: CanSendRequest(wallet.Available(), psychic.RatePerMin),
	}

	req, err := s.requests.GetOutstanding(ctx, userID, psychicID)
	switch {
	case err == nil:
		view.Request = req
	case !repository.IsNotFound(err):
		return nil, err
	}
	return view, nil
}

func (s *ChatRequestService) Send(ctx context.Context, userID, psychicID uuid.UUID) (*models.ChatRequest, error) {
	ctx, span := s.tracer.Start(ctx, "ChatRequestService.Send", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("psychic.id", psychicID.String()),
	))
	defer span.End()

	if psychicID == uuid.Nil {
		return nil, &ValidationError{Fields: map[string]string{"psychicId": "Psychic is required"}}
	}

	psychic, err := s.psychics.GetByID(ctx, psychicID)
	if err != nil {
		return nil, notFound(err, "Psychic not found")
	}
	if !psychic.IsVerified {
		return nil, &ConflictError{Message: "This psychic is not accepting chat requests"}
	}

	_, err = s.requests.GetOutstanding(ctx, userID, psychicID)
	if err == nil {
		return nil, &ConflictError{Message: "You already have an open request with this psychic"}
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	wallet, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	if !CanSendRequest(wallet.Available(), psychic.RatePerMin) {
		return nil, &InsufficientCreditsError{Required: psychic.RatePerMin, Available: wallet.Available()}
	}

	// Only requests that would be created count against the quota.
	if !s.limiter.Allow(ctx, userID.String(), s.sendRule) {
		return nil, &RateLimitError{Message: "Too many chat requests. Please wait a minute and try again."}
	}

	req := &models.ChatRequest{UserID: userID, PsychicID: psychicID}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "You already have an open request with this psychic"}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create request")
		return nil, fmt.Errorf("create chat request: %w", err)
	}

	s.announce(ctx, req, events.ChatRequestCreated, psychicID)
	s.log.Info("chat request sent",
		zap.String("request_id", req.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("psychic_id", psychicID.String()),
	)
	return req, nil
}

// ListForPsychic returns the psychic's inbox, optionally filtered by status.
func (s *ChatRequestService) ListForPsychic(ctx context.Context, psychicID uuid.UUID, status string) ([]models.InboxItem, error) {
	st := models.ChatRequestStatus(status)
	switch st {
	case "", models.RequestPending, models.RequestAccepted, models.RequestRejected,
		models.RequestCancelled, models.RequestExpired, models.RequestConsumed:
	default:
		return nil, &ValidationError{Fields: map[string]string{"status": "Unknown status"}}
	}
	return s.requests.ListForPsychic(ctx, psychicID, st)
}

// Respond accepts or rejects a pending request addressed to the psychic.
func (s *ChatRequestService) Respond(ctx context.Context, psychicID, requestID uuid.UUID, accept bool) (*models.ChatRequest, error) {
	ctx, span := s.tracer.Start(ctx, "ChatRequestService.Respond", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.Bool("accept", accept),
	))
	defer span.End()

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Chat request not found")
	}
	if req.PsychicID != psychicID {
		return nil, &NotFoundError{Message: "Chat request not found"}
	}

	to, eventType := models.RequestRejected, events.ChatRequestRejected
	if accept {
		to, eventType = models.RequestAccepted, events.ChatRequestAccepted
	}
	if !models.CanTransition(req.Status, to) {
		return nil, &ConflictError{Message: fmt.Sprintf("Request is %s and can no longer be answered", req.Status)}
	}

	updated, err := s.requests.Transition(ctx, requestID, models.RequestPending, to)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &ConflictError{Message: "Request is no longer pending"}
		}
		return nil, fmt.Errorf("update chat request: %w", err)
	}

	s.announce(ctx, updated, eventType, updated.UserID)
	if accept {
		s.queueAcceptedEmail(ctx, updated)
	}
	return updated, nil
}

// StartSession turns an accepted request into a paid session. Credits are
// re-checked and reserved under lock.
func (s *ChatRequestService) StartSession(ctx context.Context, userID, requestID uuid.UUID) (*models.StartSessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ChatRequestService.StartSession", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	if requestID == uuid.Nil {
		return nil, &ValidationError{Fields: map[string]string{"requestId": "Request is required"}}
	}

	session, err := s.sessions.Open(ctx, requestID, func(req *models.ChatRequest, rate models.Credits, wallet *models.Wallet) (*models.ChatSession, error) {
		if req.UserID != userID {
			return nil, &NotFoundError{Message: "Chat request not found"}
		}
		switch {
		case req.Status == models.RequestAccepted:
		case req.Status.Terminal():
			return nil, &ConflictError{Message: fmt.Sprintf("Request is %s and cannot start a session", req.Status)}
		default:
			return nil, &ConflictError{Message: "The psychic has not accepted this request yet"}
		}

		allowed := AllowedMinutes(wallet.Available(), rate)
		if allowed < 1 {
			return nil, &InsufficientCreditsError{Required: rate, Available: wallet.Available()}
		}
		return &models.ChatSession{
			RatePerMin:     rate,
			AllowedMinutes: int(allowed),
			Reserved:       models.Credits(allowed) * rate,
		}, nil
	})
	if err != nil {
		if !isServiceError(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "open session")
		}
		return nil, notFound(err, "Chat request not found")
	}

	span.SetAttributes(attribute.String("session.id", session.ID.String()), attribute.Int("session.allowed_minutes", session.AllowedMinutes))
	metrics.SessionsStarted.Inc()

	consumed := &models.ChatRequest{
		ID:        session.RequestID,
		UserID:    session.UserID,
		PsychicID: session.PsychicID,
		Status:    models.RequestConsumed,
		SessionID: &session.ID,
	}
	s.announce(ctx, consumed, events.SessionStarted, session.PsychicID)
	s.notifier.PublishUpdate(ctx, session.UserID, sessionMessage(session))

	s.log.Info("chat session started",
		zap.String("session_id", session.ID.String()),
		zap.Int("allowed_minutes", session.AllowedMinutes),
		zap.String("reserved", session.Reserved.String()),
	)
	return &models.StartSessionResponse{Session: session, TotalMinutes: session.AllowedMinutes}, nil
}

// Cancel withdraws the caller's pending request. Once cancelled the id is
// gone as far as the caller is concerned.
func (s *ChatRequestService) Cancel(ctx context.Context, userID, requestID uuid.UUID) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return notFound(err, "Chat request not found")
	}
	if req.UserID != userID {
		return &NotFoundError{Message: "Chat request not found"}
	}

	if !req.Status.Outstanding() {
		return &NotFoundError{Message: "Pending chat request not found"}
	}
	if req.Status == models.RequestAccepted {
		return &ConflictError{Message: "Request was already accepted. Start the session or let it expire."}
	}

	updated, err := s.requests.Transition(ctx, requestID, models.RequestPending, models.RequestCancelled)
	if err != nil {
		if repository.IsNotFound(err) {
			return &ConflictError{Message: "Request is no longer pending"}
		}
		return fmt.Errorf("cancel chat request: %w", err)
	}

	s.announce(ctx, updated, events.ChatRequestCancelled, updated.PsychicID)
	return nil
}

// ExpireStale expires requests that sat unanswered or unused too long and
// tells both sides. It returns how many were expired.
func (s *ChatRequestService) ExpireStale(ctx context.Context, now time.Time, pendingTTL, acceptedTTL time.Duration) (int, error) {
	expired, err := s.requests.ExpireStale(ctx, now.Add(-pendingTTL), now.Add(-acceptedTTL))
	if err != nil {
		return 0, fmt.Errorf("expire chat requests: %w", err)
	}
	for i := range expired {
		req := &expired[i]
		s.announce(ctx, req, events.ChatRequestExpired, req.PsychicID)
		s.notifier.PublishUpdate(ctx, req.UserID, requestMessage(req))
	}
	return len(expired), nil
}

// announce records the transition and pushes it to one party.
func (s *ChatRequestService) announce(ctx context.Context, req *models.ChatRequest, eventType string, to uuid.UUID) {
	metrics.ChatRequestTransitions.WithLabelValues(string(req.Status)).Inc()
	s.notifier.PublishUpdate(ctx, to, requestMessage(req))

	data := map[string]interface{}{
		"request_id": req.ID.String(),
		"user_id":    req.UserID.String(),
		"psychic_id": req.PsychicID.String(),
		"status":     string(req.Status),
	}
	if req.SessionID != nil {
		data["session_id"] = req.SessionID.String()
	}
	if err := s.events.Publish(ctx, events.New(eventType, data)); err != nil {
		s.log.Warn("publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *ChatRequestService) queueAcceptedEmail(ctx context.Context, req *models.ChatRequest) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		s.log.Warn("accepted email: load user", zap.String("user_id", req.UserID.String()), zap.Error(err))
		return
	}
	psychic, err := s.psychics.GetByID(ctx, req.PsychicID)
	if err != nil {
		s.log.Warn("accepted email: load psychic", zap.String("psychic_id", req.PsychicID.String()), zap.Error(err))
		return
	}

	err = s.jobs.Enqueue(ctx, models.JobRequestAccepted, models.RequestAcceptedPayload{
		To:          user.Email,
		UserName:    user.FullName,
		PsychicName: psychic.Name,
		RequestID:   req.ID,
	})
	if err != nil {
		s.log.Warn("queue accepted email", zap.Error(err))
	}
}

func requestMessage(req *models.ChatRequest) models.WSMessage {
	return models.WSMessage{
		Type: models.WSChatRequestUpdate,
		Payload: models.ChatRequestUpdate{
			RequestID: req.ID,
			UserID:    req.UserID,
			PsychicID: req.PsychicID,
			Status:    req.Status,
			SessionID: req.SessionID,
		},
	}
}

func sessionMessage(s *models.ChatSession) models.WSMessage {
	return models.WSMessage{
		Type: models.WSSessionUpdate,
		Payload: models.SessionUpdate{
			SessionID:     s.ID,
			Status:        s.Status,
			BilledMinutes: s.BilledMinutes,
			Amount:        s.Amount,
		},
	}
}
