package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psychicline-backend/internal/models"
)

type messageStore interface {
	Create(ctx context.Context, m *models.Message) error
	List(ctx context.Context) ([]models.Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	AddReply(ctx context.Context, reply *models.MessageReply) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageService handles the public contact form and admin replies.
type MessageService struct {
	messages messageStore
	jobs     jobEnqueuer
	log      *zap.Logger
}

func NewMessageService(messages messageStore, jobs jobEnqueuer, log *zap.Logger) *MessageService {
	return &MessageService{messages: messages, jobs: jobs, log: log}
}

func (s *MessageService) Create(ctx context.Context, req models.CreateMessageRequest) (*models.Message, error) {
	fields := make(map[string]string)
	requireText(fields, "name", req.Name, "Name is required")
	requireText(fields, "subject", req.Subject, "Subject is required")
	requireText(fields, "body", req.Body, "Message is required")
	email := normalizeEmail(req.Email)
	if !emailRegex.MatchString(email) {
		fields["email"] = "Invalid email format"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	m := &models.Message{
		Name:    strings.TrimSpace(req.Name),
		Email:   email,
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Body),
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageService) List(ctx context.Context) ([]models.Message, error) {
	return s.messages.List(ctx)
}

func (s *MessageService) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Message not found")
	}
	return m, nil
}

// Reply stores the admin's answer and queues it for delivery.
func (s *MessageService) Reply(ctx context.Context, adminID, messageID uuid.UUID, req models.ReplyMessageRequest) (*models.MessageReply, error) {
	fields := make(map[string]string)
	requireText(fields, "body", req.Body, "Reply is required")
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, notFound(err, "Message not found")
	}

	reply := &models.MessageReply{MessageID: messageID, AdminID: adminID, Body: strings.TrimSpace(req.Body)}
	if err := s.messages.AddReply(ctx, reply); err != nil {
		return nil, notFound(err, "Message not found")
	}

	if err := s.jobs.Enqueue(ctx, models.JobMessageReply, models.MessageReplyPayload{
		To:      m.Email,
		Name:    m.Name,
		Subject: m.Subject,
		Body:    reply.Body,
	}); err != nil {
		return nil, fmt.Errorf("queue reply email: %w", err)
	}
	return reply, nil
}

func (s *MessageService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.messages.Delete(ctx, id), "Message not found")
}
