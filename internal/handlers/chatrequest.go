package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

type chatRequestService interface {
	GetOutstanding(ctx context.Context, userID, psychicID uuid.UUID) (*models.ChatRequestView, error)
	Send(ctx context.Context, userID, psychicID uuid.UUID) (*models.ChatRequest, error)
	ListForPsychic(ctx context.Context, psychicID uuid.UUID, status string) ([]models.InboxItem, error)
	Respond(ctx context.Context, psychicID, requestID uuid.UUID, accept bool) (*models.ChatRequest, error)
	StartSession(ctx context.Context, userID, requestID uuid.UUID) (*models.StartSessionResponse, error)
	Cancel(ctx context.Context, userID, requestID uuid.UUID) error
}

type sessionService interface {
	End(ctx context.Context, actor models.Principal, sessionID uuid.UUID) (*models.ChatSession, error)
	Get(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.SessionDetail, error)
	List(ctx context.Context, psychicID *uuid.UUID) ([]models.SessionDetail, error)
	SummarizeByPsychic(ctx context.Context) ([]models.PsychicChatSummary, error)
}

// ChatRequestHandler serves /api/chatrequest: the request lifecycle for users
// and psychics plus the paid sessions it opens.
type ChatRequestHandler struct {
	requests chatRequestService
	sessions sessionService
}

func NewChatRequestHandler(requests chatRequestService, sessions sessionService) *ChatRequestHandler {
	return &ChatRequestHandler{requests: requests, sessions: sessions}
}

func (h *ChatRequestHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	psychicID, ok := parseID(w, r, "psychicId", "psychic")
	if !ok {
		return
	}

	view, err := h.requests.GetOutstanding(r.Context(), middleware.GetUserID(r.Context()), psychicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ChatRequestHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.SendChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cr, err := h.requests.Send(r.Context(), middleware.GetUserID(r.Context()), req.PsychicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cr)
}

func (h *ChatRequestHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	items, err := h.requests.ListForPsychic(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []models.InboxItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ChatRequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

func (h *ChatRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *ChatRequestHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}

	cr, err := h.requests.Respond(r.Context(), middleware.GetUserID(r.Context()), id, accept)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

func (h *ChatRequestHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.requests.StartSession(r.Context(), middleware.GetUserID(r.Context()), req.RequestID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ChatRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "request")
	if !ok {
		return
	}

	if err := h.requests.Cancel(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"request": nil, "message": "Request cancelled"})
}

func (h *ChatRequestHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "session")
	if !ok {
		return
	}

	s, err := h.sessions.End(r.Context(), middleware.GetPrincipal(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ChatRequestHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "session")
	if !ok {
		return
	}

	d, err := h.sessions.Get(r.Context(), middleware.GetPrincipal(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
