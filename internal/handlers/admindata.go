package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
)

// AdminDataHandler serves the admin chat history views under /api/admindata.
type AdminDataHandler struct {
	sessions sessionService
}

func NewAdminDataHandler(sessions sessionService) *AdminDataHandler {
	return &AdminDataHandler{sessions: sessions}
}

func (h *AdminDataHandler) Chats(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

func (h *AdminDataHandler) ChatsByPsychic(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessions.SummarizeByPsychic(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if summary == nil {
		summary = []models.PsychicChatSummary{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AdminDataHandler) PsychicChats(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "psychic")
	if !ok {
		return
	}
	h.list(w, r, &id)
}

func (h *AdminDataHandler) Chat(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminDataHandler) list(w http.ResponseWriter, r *http.Request, psychicID *uuid.UUID) {
	sessions, err := h.sessions.List(r.Context(), psychicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.SessionDetail{}
	}
	writeJSON(w, http.StatusOK, sessions)
}
