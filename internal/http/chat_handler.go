package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

// ChatService is the slice of the chat package the handlers need.
type ChatService interface {
	Send(ctx context.Context, session domain.Session, toID, text string) (*domain.Message, error)
	SendImage(ctx context.Context, session domain.Session, toID string, r io.Reader) (*domain.Message, error)
	Conversation(ctx context.Context, session domain.Session, otherID string, limit int64) ([]domain.Message, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type SendMessageRequestDTO struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// POST /api/v1/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req SendMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.To == "" {
		respondError(w, http.StatusBadRequest, "missing_recipient", "to is required")
		return
	}

	msg, err := h.chat.Send(r.Context(), session, req.To, req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

// POST /api/v1/messages/{user_id}/image
func (h *ChatHandler) SendImage(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	toID := chi.URLParam(r, "user_id")
	msg, err := h.chat.SendImage(r.Context(), session, toID, r.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

// GET /api/v1/messages/{user_id}?limit=
func (h *ChatHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	otherID := chi.URLParam(r, "user_id")

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	msgs, err := h.chat.Conversation(r.Context(), session, otherID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}

	respondJSON(w, http.StatusOK, msgs)
}
