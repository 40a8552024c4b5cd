package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

type messageService interface {
	Create(ctx context.Context, req models.CreateMessageRequest) (*models.Message, error)
	List(ctx context.Context) ([]models.Message, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Message, error)
	Reply(ctx context.Context, adminID, messageID uuid.UUID, req models.ReplyMessageRequest) (*models.MessageReply, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MessageHandler struct {
	messages messageService
}

func NewMessageHandler(messages messageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.messages.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.messages.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Message{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "message")
	if !ok {
		return
	}

	m, err := h.messages.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "message")
	if !ok {
		return
	}
	var req models.ReplyMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.messages.Reply(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "message")
	if !ok {
		return
	}

	if err := h.messages.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}
